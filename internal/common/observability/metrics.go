package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	runCounter     otelmetric.Int64Counter
	runDuration    otelmetric.Float64Histogram
}

// New registers the otel meter and tracer providers globally. Spans are
// exported to Jaeger only when tracingEndpoint is set; otherwise they are
// sampled in-process and dropped.
func New(serviceName, tracingEndpoint string, log *zap.Logger) *Observability {
	o := &Observability{}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter", zap.Error(err))
	} else {
		o.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
		otel.SetMeterProvider(o.meterProvider)
		o.meter = o.meterProvider.Meter(serviceName)
		o.initInstruments()
	}

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if tracingEndpoint != "" {
		jaegerExporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(tracingEndpoint)))
		if err != nil {
			log.Warn("failed to create jaeger exporter, spans will not be exported",
				zap.String("endpoint", tracingEndpoint), zap.Error(err))
		} else {
			tpOpts = append(tpOpts, sdktrace.WithBatcher(jaegerExporter))
		}
	}
	o.tracerProvider = sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(o.tracerProvider)
	o.tracer = o.tracerProvider.Tracer(serviceName)

	return o
}

func (o *Observability) initInstruments() {
	o.jobCounter, _ = o.meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	o.jobDuration, _ = o.meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	o.runCounter, _ = o.meter.Int64Counter(
		"pipeline.runs",
		otelmetric.WithDescription("Number of generation pipeline runs"),
	)

	o.runDuration, _ = o.meter.Float64Histogram(
		"pipeline.duration",
		otelmetric.WithDescription("End-to-end generation pipeline duration"),
		otelmetric.WithUnit("ms"),
	)
}

// Tracer falls back to the global tracer so a nil *Observability is usable.
func (o *Observability) Tracer() trace.Tracer {
	if o == nil || o.tracer == nil {
		return otel.Tracer("room-redesign-workers")
	}
	return o.tracer
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordPipelineRun(ctx context.Context, duration time.Duration, outcome string, fallbackUsed bool) {
	if o == nil || o.runCounter == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.Bool("fallback_used", fallbackUsed),
	)
	o.runCounter.Add(ctx, 1, attrs)
	o.runDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		o.meterProvider.Shutdown(ctx)
	}
}
