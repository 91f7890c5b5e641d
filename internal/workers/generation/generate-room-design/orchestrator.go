// internal/workers/generation/generate-room-design/orchestrator.go
package generateroomdesign

import (
	"context"
	"errors"
	"time"

	"room-redesign-workers/internal/common/analytics"
	"room-redesign-workers/internal/common/logger"
	"room-redesign-workers/internal/common/metrics"
	"room-redesign-workers/internal/common/observability"
	"room-redesign-workers/internal/models"
	generatedesign "room-redesign-workers/internal/workers/generation/generate-design"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Enhancer is stage 1. It never fails; remote errors come back as a
// fallback result.
type Enhancer interface {
	Execute(ctx context.Context, req *models.GenerationRequest) *models.EnhancedPromptResult
}

// Synthesizer is stage 2.
type Synthesizer interface {
	Execute(ctx context.Context, input *generatedesign.Input) (*models.GeneratedDesign, error)
}

// Orchestrator runs enhancement then synthesis for one request. It holds no
// per-run state and is safe for concurrent use.
type Orchestrator struct {
	enhancer    Enhancer
	synthesizer Synthesizer
	collector   analytics.Collector
	obs         *observability.Observability
	logger      logger.Logger
}

func NewOrchestrator(enhancer Enhancer, synthesizer Synthesizer, collector analytics.Collector, obs *observability.Observability, log logger.Logger) *Orchestrator {
	if collector == nil {
		collector = analytics.NopCollector{}
	}
	return &Orchestrator{
		enhancer:    enhancer,
		synthesizer: synthesizer,
		collector:   collector,
		obs:         obs,
		logger:      log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
}

var errMissingRequest = errors.New("generation request is required")

// Run returns a success or failure envelope; it never returns an error.
// Callers are expected to have validated req.
func (o *Orchestrator) Run(ctx context.Context, req *models.GenerationRequest) *models.CompleteGenerationResult {
	result, _ := o.RunWithCause(ctx, req)
	return result
}

// RunWithCause is Run that also returns the stage error behind a failure
// envelope, so the job boundary can keep its error code.
func (o *Orchestrator) RunWithCause(ctx context.Context, req *models.GenerationRequest) (*models.CompleteGenerationResult, error) {
	if req == nil {
		return models.NewFailureResult(errMissingRequest.Error()), errMissingRequest
	}

	ctx, span := o.obs.Tracer().Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("session.id", req.SessionID),
		attribute.String("user.id", req.UserID),
	))
	defer span.End()

	result, summary := o.run(ctx, req)

	if summary.err != nil {
		span.RecordError(summary.err)
		span.SetStatus(codes.Error, summary.err.Error())
	}
	span.SetAttributes(attribute.Bool("pipeline.fallback_used", summary.fallbackUsed))

	o.notify(ctx, req, summary)
	return result, summary.err
}

func (o *Orchestrator) run(ctx context.Context, req *models.GenerationRequest) (*models.CompleteGenerationResult, runSummary) {
	start := time.Now()

	stageCtx, stage1Span := o.obs.Tracer().Start(ctx, "stage.enhancement")
	enhancement := o.enhancer.Execute(stageCtx, req)
	stage1 := time.Since(start)
	stage1Span.SetAttributes(attribute.Bool("enhancement.fallback_used", enhancement.FallbackUsed))
	stage1Span.End()

	stage2Start := time.Now()
	stageCtx, stage2Span := o.obs.Tracer().Start(ctx, "stage.synthesis")
	design, err := o.synthesizer.Execute(stageCtx, &generatedesign.Input{
		OriginalImage:   req.OriginalImage,
		EnhancedPrompt:  enhancement.EnhancedPrompt,
		ReferenceImages: req.ReferenceImages,
		SessionID:       req.SessionID,
		UserID:          req.UserID,
	})
	stage2 := time.Since(stage2Start)
	if err != nil {
		stage2Span.RecordError(err)
		stage2Span.SetStatus(codes.Error, err.Error())
	}
	stage2Span.End()

	summary := runSummary{
		stage1Ms:     stage1.Milliseconds(),
		stage2Ms:     stage2.Milliseconds(),
		totalMs:      time.Since(start).Milliseconds(),
		fallbackUsed: enhancement.FallbackUsed,
		err:          err,
	}

	if err != nil {
		return models.NewFailureResult(err.Error()), summary
	}

	return models.NewSuccessResult(&models.GenerationPayload{
		Design:                design,
		Enhancement:           enhancement,
		TotalProcessingTimeMs: summary.totalMs,
		StageDurations: models.StageDurations{
			Stage1Ms: summary.stage1Ms,
			Stage2Ms: summary.stage2Ms,
		},
	}), summary
}

// notify reports a finished run to logs, metrics and the analytics collector.
func (o *Orchestrator) notify(ctx context.Context, req *models.GenerationRequest, s runSummary) {
	outcome := metrics.OutcomeSuccess
	if s.err != nil {
		outcome = metrics.OutcomeFailure
	}
	metrics.PipelineRuns.WithLabelValues(outcome).Inc()
	o.obs.RecordPipelineRun(ctx, time.Duration(s.totalMs)*time.Millisecond, outcome, s.fallbackUsed)

	if s.err != nil {
		o.logger.Error("generation pipeline failed", map[string]interface{}{
			"sessionId":        req.SessionID,
			"userId":           req.UserID,
			"processingTimeMs": s.totalMs,
			"error":            s.err.Error(),
		})
		o.collector.Track(ctx, analytics.EventGenerationFailure, map[string]interface{}{
			"userId":           req.UserID,
			"sessionId":        req.SessionID,
			"error":            s.err.Error(),
			"processingTimeMs": s.totalMs,
		})
		return
	}

	o.logger.Info("generation pipeline completed", map[string]interface{}{
		"sessionId":             req.SessionID,
		"stage1Ms":              s.stage1Ms,
		"stage2Ms":              s.stage2Ms,
		"totalProcessingTimeMs": s.totalMs,
		"fallbackUsed":          s.fallbackUsed,
	})
	o.collector.Track(ctx, analytics.EventGenerationSuccess, map[string]interface{}{
		"userId":                req.UserID,
		"sessionId":             req.SessionID,
		"stage1Ms":              s.stage1Ms,
		"stage2Ms":              s.stage2Ms,
		"totalProcessingTimeMs": s.totalMs,
		"hasLocationClicks":     len(req.LocationClicks) > 0,
		"hasReferenceImages":    len(req.ReferenceImages) > 0,
		"selectedFeatures":      req.SelectedFeatures.ProvidedKeys(),
		"fallbackUsed":          s.fallbackUsed,
	})
}
