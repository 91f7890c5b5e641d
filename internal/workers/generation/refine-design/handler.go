// internal/workers/generation/refine-design/handler.go
package refinedesign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"room-redesign-workers/internal/common/analytics"
	apperrors "room-redesign-workers/internal/common/errors"
	httpclient "room-redesign-workers/internal/common/http"
	"room-redesign-workers/internal/common/logger"
	"room-redesign-workers/internal/common/metrics"
	"room-redesign-workers/internal/common/validation"
	"room-redesign-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "refine-room-design"
)

var (
	ErrRefinementFailed  = errors.New("REFINEMENT_FAILED")
	ErrRefinementTimeout = errors.New("REFINEMENT_TIMEOUT")
)

type Handler struct {
	config       *Config
	client       *httpclient.Client
	collector    analytics.Collector
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, collector analytics.Collector, log logger.Logger) *Handler {
	return NewHandlerWithClient(config, httpclient.NewClient(config.BaseURL, config.APIKey), collector, log)
}

func NewHandlerWithClient(config *Config, client *httpclient.Client, collector analytics.Collector, log logger.Logger) *Handler {
	if collector == nil {
		collector = analytics.NopCollector{}
	}
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		client:       client,
		collector:    collector,
		logger:       scoped,
		errorHandler: apperrors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx := context.Background()

	var input Input
	if err := validation.DecodeVariables(GetInputSchema(), job.Variables, &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	design, err := h.Execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, toStandardError(err))
		return
	}

	h.completeJob(client, job, &Output{RefinedDesign: design})
}

// Execute revises a generated image with one remote call and reports the
// outcome to the analytics collector.
func (h *Handler) Execute(ctx context.Context, input *Input) (*models.RefinedDesign, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	instruction := analytics.TruncateForTelemetry(input.RefinementInstruction, analytics.TelemetryTruncateLimit)

	start := time.Now()
	design, err := h.execute(ctx, input)
	elapsed := time.Since(start)

	if err != nil {
		outcome := metrics.OutcomeFailure
		if errors.Is(err, ErrRefinementTimeout) {
			outcome = metrics.OutcomeTimeout
		}
		metrics.GenerationStageDuration.WithLabelValues("refinement", outcome).Observe(elapsed.Seconds())

		h.logger.Error("design refinement failed", map[string]interface{}{
			"sessionId":   input.SessionID,
			"instruction": instruction,
			"error":       err.Error(),
		})
		h.collector.Track(ctx, analytics.EventRefinementFailure, map[string]interface{}{
			"userId":                input.UserID,
			"sessionId":             input.SessionID,
			"error":                 err.Error(),
			"refinementInstruction": instruction,
		})
		return nil, err
	}

	metrics.GenerationStageDuration.WithLabelValues("refinement", metrics.OutcomeSuccess).Observe(elapsed.Seconds())

	h.logger.Info("design refinement completed", map[string]interface{}{
		"sessionId":        input.SessionID,
		"instruction":      instruction,
		"processingTimeMs": design.Image.Metadata.ProcessingTimeMs,
	})
	h.collector.Track(ctx, analytics.EventRefinementSuccess, map[string]interface{}{
		"userId":                input.UserID,
		"sessionId":             input.SessionID,
		"refinementInstruction": instruction,
		"processingTimeMs":      design.Image.Metadata.ProcessingTimeMs,
	})
	return design, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*models.RefinedDesign, error) {
	start := time.Now()

	var resp refinementResponse
	if err := h.client.PostJSON(ctx, EndpointPath, input, &resp); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrRefinementTimeout, err)
		}
		return nil, fmt.Errorf("%w: %s", ErrRefinementFailed, httpclient.MessageOr(err, "Design refinement failed"))
	}

	image, err := resp.RefinedImage.ToDesignImage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefinementFailed, err)
	}

	if image.Metadata.ModelName == "" {
		image.Metadata.ModelName = h.config.ModelName
	}
	if image.Metadata.ProcessingTimeMs <= 0 {
		image.Metadata.ProcessingTimeMs = time.Since(start).Milliseconds()
	}
	if image.Metadata.PromptUsed == "" {
		image.Metadata.PromptUsed = input.RefinementInstruction
	}
	image.Metadata.ReferenceImagesUsed = 0
	image.Metadata.RefinementApplied = input.RefinementInstruction

	applied := resp.AppliedRefinementPrompt
	if applied == "" {
		applied = input.RefinementInstruction
	}

	return &models.RefinedDesign{
		Image:               image,
		SessionID:           input.SessionID,
		OriginalInstruction: input.RefinementInstruction,
		AppliedInstruction:  applied,
	}, nil
}

func toStandardError(err error) *apperrors.StandardError {
	if errors.Is(err, ErrRefinementTimeout) {
		return apperrors.NewRefinementTimeoutError(withoutCode(err, ErrRefinementTimeout))
	}
	return apperrors.NewRefinementFailedError(withoutCode(err, ErrRefinementFailed))
}

func withoutCode(err, code error) error {
	return errors.New(strings.TrimPrefix(err.Error(), code.Error()+": "))
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}
