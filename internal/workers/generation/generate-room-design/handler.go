// internal/workers/generation/generate-room-design/handler.go
package generateroomdesign

import (
	"context"
	"fmt"

	apperrors "room-redesign-workers/internal/common/errors"
	"room-redesign-workers/internal/common/logger"
	"room-redesign-workers/internal/common/validation"
	"room-redesign-workers/internal/models"
	generatedesign "room-redesign-workers/internal/workers/generation/generate-design"
	validategenerationrequest "room-redesign-workers/internal/workers/generation/validate-generation-request"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-room-design"
)

// Runner is satisfied by *Orchestrator.
type Runner interface {
	RunWithCause(ctx context.Context, req *models.GenerationRequest) (*models.CompleteGenerationResult, error)
}

type Handler struct {
	config       *Config
	pipeline     Runner
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, pipeline Runner, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		pipeline:     pipeline,
		logger:       scoped,
		errorHandler: apperrors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := validation.DecodeVariables(GetInputSchema(), job.Variables, &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// Execute validates the request, then runs the pipeline. Validation failures
// and failed runs come back as *errors.StandardError for the job boundary.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	check := validategenerationrequest.Validate(input.GenerationRequest)
	if !check.Valid {
		h.logger.Warn("generation request rejected", map[string]interface{}{
			"errorCount": len(check.Errors),
		})
		return nil, apperrors.NewValidationFailedError(check.Errors)
	}

	result, err := h.pipeline.RunWithCause(ctx, input.GenerationRequest)
	if !result.Success {
		if err == nil {
			err = fmt.Errorf("%w: %s", generatedesign.ErrSynthesisFailed, result.ErrorMessage)
		}
		return nil, generatedesign.ToStandardError(err).
			WithMetadata("errorMessage", result.ErrorMessage)
	}

	return &Output{
		Success:          true,
		FallbackUsed:     result.Payload.Enhancement.FallbackUsed,
		GenerationResult: result,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
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

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}
