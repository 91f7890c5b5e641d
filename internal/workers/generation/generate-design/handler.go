// internal/workers/generation/generate-design/handler.go
package generatedesign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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
	TaskType = "generate-design-image"
)

var (
	ErrSynthesisFailed  = errors.New("SYNTHESIS_FAILED")
	ErrSynthesisTimeout = errors.New("SYNTHESIS_TIMEOUT")
)

type Handler struct {
	config       *Config
	client       *httpclient.Client
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return NewHandlerWithClient(config, httpclient.NewClient(config.BaseURL, config.APIKey), log)
}

func NewHandlerWithClient(config *Config, client *httpclient.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		client:       client,
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
		h.errorHandler.HandleJobError(ctx, client, job, ToStandardError(err))
		return
	}

	h.completeJob(client, job, &Output{GeneratedDesign: design})
}

// Execute calls the synthesis service once. Failures are returned wrapping
// ErrSynthesisFailed or ErrSynthesisTimeout with the remote message kept.
func (h *Handler) Execute(ctx context.Context, input *Input) (*models.GeneratedDesign, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	req := *input
	if req.ReferenceImages == nil {
		req.ReferenceImages = []models.ReferenceImage{}
	}

	start := time.Now()
	design, err := h.execute(ctx, &req)
	elapsed := time.Since(start)

	if err != nil {
		outcome := metrics.OutcomeFailure
		if errors.Is(err, ErrSynthesisTimeout) {
			outcome = metrics.OutcomeTimeout
		}
		metrics.GenerationStageDuration.WithLabelValues("synthesis", outcome).Observe(elapsed.Seconds())
		h.logger.Error("design synthesis failed", map[string]interface{}{
			"sessionId":  input.SessionID,
			"error":      err.Error(),
			"durationMs": elapsed.Milliseconds(),
		})
		return nil, err
	}

	metrics.GenerationStageDuration.WithLabelValues("synthesis", metrics.OutcomeSuccess).Observe(elapsed.Seconds())
	h.logger.Info("design synthesis completed", map[string]interface{}{
		"sessionId":           input.SessionID,
		"processingTimeMs":    design.Image.Metadata.ProcessingTimeMs,
		"referenceImagesUsed": design.Image.Metadata.ReferenceImagesUsed,
	})
	return design, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*models.GeneratedDesign, error) {
	start := time.Now()

	var resp synthesisResponse
	if err := h.client.PostJSON(ctx, EndpointPath, input, &resp); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrSynthesisTimeout, err)
		}
		return nil, fmt.Errorf("%w: %s", ErrSynthesisFailed, httpclient.MessageOr(err, "Design generation failed"))
	}

	image, err := resp.GeneratedImage.ToDesignImage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	if image.Metadata.ModelName == "" {
		image.Metadata.ModelName = h.config.ModelName
	}
	if image.Metadata.ProcessingTimeMs <= 0 {
		image.Metadata.ProcessingTimeMs = time.Since(start).Milliseconds()
	}
	if image.Metadata.PromptUsed == "" {
		image.Metadata.PromptUsed = input.EnhancedPrompt
	}
	image.Metadata.ReferenceImagesUsed = len(input.ReferenceImages)

	applied := resp.ApplicationPrompt
	if applied == "" {
		applied = input.EnhancedPrompt
	}

	return &models.GeneratedDesign{
		Image:           image,
		SessionID:       input.SessionID,
		EnhancedPrompt:  input.EnhancedPrompt,
		AppliedPrompt:   applied,
		ReferenceImages: input.ReferenceImages,
	}, nil
}

// ToStandardError maps a stage error onto its job error code. Details carry
// the cause without the code prefix.
func ToStandardError(err error) *apperrors.StandardError {
	if errors.Is(err, ErrSynthesisTimeout) {
		return apperrors.NewSynthesisTimeoutError(withoutCode(err, ErrSynthesisTimeout))
	}
	return apperrors.NewSynthesisFailedError(withoutCode(err, ErrSynthesisFailed))
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
