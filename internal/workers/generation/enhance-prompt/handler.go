// internal/workers/generation/enhance-prompt/handler.go
package enhanceprompt

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
	TaskType = "enhance-room-prompt"
)

var (
	ErrEnhancementFailed  = errors.New("ENHANCEMENT_FAILED")
	ErrEnhancementTimeout = errors.New("ENHANCEMENT_TIMEOUT")
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

	var input Input
	if err := validation.DecodeVariables(GetInputSchema(), job.Variables, &input); err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	result := h.Execute(context.Background(), input.GenerationRequest)

	h.completeJob(client, job, &Output{
		EnhancedPrompt: result.EnhancedPrompt,
		FallbackUsed:   result.FallbackUsed,
		Enhancement:    result,
	})
}

// outcome is either a remote result or a degraded one built locally; cause
// records why the remote arm was not taken.
type outcome struct {
	result   *models.EnhancedPromptResult
	degraded bool
	cause    error
}

// Execute always returns a usable result. Remote failures are absorbed by the
// fallback synthesizer and flagged with FallbackUsed.
func (h *Handler) Execute(ctx context.Context, req *models.GenerationRequest) *models.EnhancedPromptResult {
	if req == nil {
		req = &models.GenerationRequest{}
	}

	start := time.Now()
	out := h.enhance(ctx, req)
	elapsed := time.Since(start)

	if out.degraded {
		metrics.EnhancementFallbacks.Inc()
		metrics.GenerationStageDuration.WithLabelValues("enhancement", stageOutcome(out.cause)).Observe(elapsed.Seconds())
		h.logger.Warn("enhancement unavailable, using fallback prompt", map[string]interface{}{
			"sessionId":    req.SessionID,
			"error":        out.cause.Error(),
			"promptLength": len(out.result.EnhancedPrompt),
		})
		return out.result
	}

	metrics.GenerationStageDuration.WithLabelValues("enhancement", metrics.OutcomeSuccess).Observe(elapsed.Seconds())
	h.logger.Info("enhancement completed", map[string]interface{}{
		"sessionId":      req.SessionID,
		"originalLength": len(req.UserPrompt),
		"enhancedLength": len(out.result.EnhancedPrompt),
		"durationMs":     elapsed.Milliseconds(),
	})
	return out.result
}

func (h *Handler) enhance(ctx context.Context, req *models.GenerationRequest) outcome {
	start := time.Now()
	resp, err := h.callRemote(ctx, req)
	if err != nil {
		return h.degraded(req, err)
	}

	processingMs := resp.ProcessingTime
	if processingMs <= 0 {
		processingMs = time.Since(start).Milliseconds()
	}
	modelName := resp.Metadata.Model
	if modelName == "" {
		modelName = h.config.ModelName
	}

	return outcome{
		result: &models.EnhancedPromptResult{
			EnhancedPrompt:   resp.EnhancedPrompt,
			OriginalData:     req,
			ProcessingTimeMs: processingMs,
			FallbackUsed:     false,
			Metadata: models.EnhancementMetadata{
				Stage:              models.EnhancementStageNumber,
				ModelName:          modelName,
				EnhancementApplied: true,
			},
		},
	}
}

func (h *Handler) degraded(req *models.GenerationRequest, cause error) outcome {
	return outcome{
		result: &models.EnhancedPromptResult{
			EnhancedPrompt:   SynthesizeFallbackPrompt(req),
			OriginalData:     req,
			ProcessingTimeMs: h.config.FallbackProcessingTimeMs,
			FallbackUsed:     true,
			Metadata: models.EnhancementMetadata{
				Stage:              models.EnhancementStageNumber,
				ModelName:          FallbackModelName,
				EnhancementApplied: false,
			},
		},
		degraded: true,
		cause:    cause,
	}
}

func (h *Handler) callRemote(ctx context.Context, req *models.GenerationRequest) (*enhanceResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	var resp enhanceResponse
	if err := h.client.PostJSON(ctx, EndpointPath, enhanceRequest{UserInteractionData: req}, &resp); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrEnhancementTimeout, err)
		}
		return nil, fmt.Errorf("%w: %s", ErrEnhancementFailed, httpclient.MessageOr(err, "Enhanced prompt generation failed"))
	}
	if strings.TrimSpace(resp.EnhancedPrompt) == "" {
		return nil, fmt.Errorf("%w: empty enhanced prompt", ErrEnhancementFailed)
	}
	return &resp, nil
}

func stageOutcome(cause error) string {
	if errors.Is(cause, ErrEnhancementTimeout) {
		return metrics.OutcomeTimeout
	}
	return metrics.OutcomeFailure
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
