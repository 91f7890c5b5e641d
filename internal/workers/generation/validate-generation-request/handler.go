// internal/workers/generation/validate-generation-request/handler.go
package validategenerationrequest

import (
	"context"

	"room-redesign-workers/internal/common/errors"
	"room-redesign-workers/internal/common/logger"
	"room-redesign-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-generation-request"
)

type Handler struct {
	config       *Config
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		logger:       scoped,
		errorHandler: errors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := ParseInput(job.Variables)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output := h.Execute(ctx, input)
	if !output.IsValid && h.config.ThrowOnInvalid {
		h.errorHandler.HandleJobError(ctx, client, job, errors.NewValidationFailedError(output.ValidationErrors))
		return
	}

	h.completeJob(ctx, client, job, output)
}

// ParseInput checks the variables against the input schema before decoding.
func ParseInput(variables string) (*Input, error) {
	var input Input
	if err := validation.DecodeVariables(GetInputSchema(), variables, &input); err != nil {
		return nil, err
	}
	return &input, nil
}

func (h *Handler) Execute(_ context.Context, input *Input) *Output {
	result := Validate(input.GenerationRequest)

	h.logger.Info("validation completed", map[string]interface{}{
		"isValid":    result.Valid,
		"errorCount": len(result.Errors),
	})

	return &Output{
		IsValid:          result.Valid,
		ValidationErrors: result.Errors,
	}
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
