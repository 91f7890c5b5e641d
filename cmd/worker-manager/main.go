// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"room-redesign-workers/internal/common/analytics"
	"room-redesign-workers/internal/common/camunda"
	"room-redesign-workers/internal/common/config"
	apperrors "room-redesign-workers/internal/common/errors"
	"room-redesign-workers/internal/common/logger"
	"room-redesign-workers/internal/common/observability"

	enhanceprompt "room-redesign-workers/internal/workers/generation/enhance-prompt"
	generatedesign "room-redesign-workers/internal/workers/generation/generate-design"
	generateroomdesign "room-redesign-workers/internal/workers/generation/generate-room-design"
	refinedesign "room-redesign-workers/internal/workers/generation/refine-design"
	validategenerationrequest "room-redesign-workers/internal/workers/generation/validate-generation-request"

	"go.uber.org/zap"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		bootLog.Fatal("logger init failed", zap.Error(err))
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.TracingEndpoint, zapLog)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: cfg.Camunda.Plaintext,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	if len(cfg.Camunda.DeployResources) > 0 {
		if err := zeebe.DeployResources(ctx, cfg.Camunda.DeployResources...); err != nil {
			zapLog.Fatal("failed to deploy process definitions", zap.Error(err))
		}
		zapLog.Info("process definitions deployed", zap.Strings("resources", cfg.Camunda.DeployResources))
	}

	// --- Analytics stores and sinks ---
	stores, err := connectStores(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("analytics stores unavailable", zap.Error(err), zap.String("details", apperrors.Normalize(err).Details))
	}
	defer stores.Close()

	sinks, err := buildSinks(ctx, cfg, stores, log)
	if err != nil {
		zapLog.Fatal("analytics sinks failed", zap.Error(err), zap.String("details", apperrors.Normalize(err).Details))
	}

	var collector analytics.Collector = analytics.NopCollector{}
	var dispatcher *analytics.Dispatcher
	if cfg.Analytics.Enabled {
		dispatcher = analytics.NewDispatcher(analytics.DispatcherConfig{
			QueueSize:       cfg.Analytics.QueueSize,
			Workers:         cfg.Analytics.Workers,
			DeliveryTimeout: config.GetDuration(cfg.Analytics.DeliveryTimeout),
		}, log, sinks...)
		collector = dispatcher
		zapLog.Info("analytics dispatcher started", zap.Int("sinks", len(sinks)))
	}

	// --- Handlers ---
	gen := cfg.Generation

	enhanceCfg := enhanceprompt.LoadConfig()
	enhanceCfg.BaseURL, enhanceCfg.APIKey = gen.BaseURL, gen.APIKey
	enhanceCfg.Timeout = config.GetDuration(gen.EnhancementTimeout)
	enhancer := enhanceprompt.NewHandler(enhanceCfg, log)

	synthesisCfg := generatedesign.LoadConfig()
	synthesisCfg.BaseURL, synthesisCfg.APIKey = gen.BaseURL, gen.APIKey
	synthesisCfg.Timeout = config.GetDuration(gen.SynthesisTimeout)
	synthesizer := generatedesign.NewHandler(synthesisCfg, log)

	refineCfg := refinedesign.LoadConfig()
	refineCfg.BaseURL, refineCfg.APIKey = gen.BaseURL, gen.APIKey
	refineCfg.Timeout = config.GetDuration(gen.RefinementTimeout)

	pipelineCfg := generateroomdesign.LoadConfig()
	pipelineCfg.Timeout = config.GetDuration(config.GetWorkerConfig(cfg, generateroomdesign.TaskType).Timeout)

	handlers := map[string]camunda.JobHandler{
		validategenerationrequest.TaskType: validategenerationrequest.NewHandler(validategenerationrequest.LoadConfig(), log),
		enhanceprompt.TaskType:             enhancer,
		generatedesign.TaskType:            synthesizer,
		refinedesign.TaskType:              refinedesign.NewHandler(refineCfg, collector, log),
		generateroomdesign.TaskType: generateroomdesign.NewHandler(
			pipelineCfg,
			generateroomdesign.NewOrchestrator(enhancer, synthesizer, collector, obs, log),
			log,
		),
	}

	// --- Workers ---
	var workers []*camunda.CamundaWorker
	for _, taskType := range []string{
		validategenerationrequest.TaskType,
		enhanceprompt.TaskType,
		generatedesign.TaskType,
		generateroomdesign.TaskType,
		refinedesign.TaskType,
	} {
		if !config.IsWorkerEnabled(cfg, taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, taskType)
		workers = append(workers, camunda.NewWorker(
			zeebe.GetClient(),
			taskType,
			wcfg.MaxJobsActive,
			config.GetDuration(wcfg.Timeout),
			handlers[taskType],
			obs,
			zapLog,
		))
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Observability.HTTPPort),
		Handler:           newHealthMux(readinessChecks(zeebe, stores), zapLog),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}

	if dispatcher != nil {
		if err := dispatcher.Close(shutdownCtx); err != nil {
			zapLog.Warn("analytics events dropped at shutdown", zap.Error(err))
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}
