// internal/workers/generation/generate-room-design/handler_test.go
package generateroomdesign

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	apperrors "room-redesign-workers/internal/common/errors"
	"room-redesign-workers/internal/common/logger"
	"room-redesign-workers/internal/common/validation"
	"room-redesign-workers/internal/models"
	generatedesign "room-redesign-workers/internal/workers/generation/generate-design"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

type fakeRunner struct {
	result *models.CompleteGenerationResult
	err    error
	calls  int
}

func (f *fakeRunner) RunWithCause(_ context.Context, _ *models.GenerationRequest) (*models.CompleteGenerationResult, error) {
	f.calls++
	return f.result, f.err
}

func successResult(fallback bool) *models.CompleteGenerationResult {
	return models.NewSuccessResult(&models.GenerationPayload{
		Design:      &models.GeneratedDesign{SessionID: "s1"},
		Enhancement: &models.EnhancedPromptResult{EnhancedPrompt: "p", FallbackUsed: fallback},
	})
}

// ==========================
// Core Functionality Tests
// ==========================

func TestExecute(t *testing.T) {
	tests := []struct {
		name           string
		request        *models.GenerationRequest
		result         *models.CompleteGenerationResult
		runErr         error
		wantCode       apperrors.ErrorCode
		wantRunnerCall bool
		validateOutput func(t *testing.T, output *Output, err error)
	}{
		{
			name: "valid request runs the pipeline",
			request: &models.GenerationRequest{
				UserPrompt: "make it modern", OriginalImage: "img://a", SessionID: "s1", UserID: "u1",
			},
			result:         successResult(true),
			wantRunnerCall: true,
			validateOutput: func(t *testing.T, output *Output, err error) {
				require.NoError(t, err)
				assert.True(t, output.Success)
				assert.True(t, output.FallbackUsed)
				assert.Equal(t, "s1", output.GenerationResult.Payload.Design.SessionID)
			},
		},
		{
			name: "non-numeric click is rejected before the pipeline",
			request: &models.GenerationRequest{
				UserPrompt: "make it modern", OriginalImage: "img://a", SessionID: "s1", UserID: "u1",
				LocationClicks: []models.LocationClick{{X: "a", Y: 1.0}},
			},
			wantCode: apperrors.ErrCodeValidationFailed,
			validateOutput: func(t *testing.T, output *Output, err error) {
				assert.Nil(t, output)
				stdErr := apperrors.Normalize(err)
				assert.Contains(t, stdErr.Details, "numeric x and y coordinates")
				assert.Len(t, stdErr.Metadata["validationErrors"], 1)
			},
		},
		{
			name: "incomplete reference image is rejected before the pipeline",
			request: &models.GenerationRequest{
				UserPrompt: "make it modern", OriginalImage: "img://a", SessionID: "s1", UserID: "u1",
				ReferenceImages: []models.ReferenceImage{{URL: "", Description: "x", Type: models.ReferenceStyle}},
			},
			wantCode: apperrors.ErrCodeValidationFailed,
			validateOutput: func(t *testing.T, output *Output, err error) {
				assert.Contains(t, apperrors.Normalize(err).Details, "must have url, description, and type")
			},
		},
		{
			name:     "missing request is rejected",
			request:  nil,
			wantCode: apperrors.ErrCodeValidationFailed,
			validateOutput: func(t *testing.T, output *Output, err error) {
				assert.Len(t, apperrors.Normalize(err).Metadata["validationErrors"], 4)
			},
		},
		{
			name: "failed run becomes a synthesis error",
			request: &models.GenerationRequest{
				UserPrompt: "make it modern", OriginalImage: "img://a", SessionID: "s1", UserID: "u1",
			},
			result:         models.NewFailureResult("SYNTHESIS_FAILED: quota exceeded"),
			runErr:         fmt.Errorf("%w: %s", generatedesign.ErrSynthesisFailed, "quota exceeded"),
			wantCode:       apperrors.ErrCodeSynthesisFailed,
			wantRunnerCall: true,
			validateOutput: func(t *testing.T, output *Output, err error) {
				stdErr := apperrors.Normalize(err)
				assert.Equal(t, "quota exceeded", stdErr.Details)
				assert.Equal(t, "SYNTHESIS_FAILED: quota exceeded", stdErr.Metadata["errorMessage"])

				bpmn := apperrors.ConvertToBPMNError(stdErr)
				assert.Equal(t, "SYNTHESIS_FAILED", bpmn.Code)
				assert.Equal(t, 0, bpmn.Retries)
			},
		},
		{
			name: "timed out synthesis keeps its timeout code",
			request: &models.GenerationRequest{
				UserPrompt: "make it modern", OriginalImage: "img://a", SessionID: "s1", UserID: "u1",
			},
			result:         models.NewFailureResult("SYNTHESIS_TIMEOUT: context deadline exceeded"),
			runErr:         fmt.Errorf("%w: %v", generatedesign.ErrSynthesisTimeout, context.DeadlineExceeded),
			wantCode:       apperrors.ErrCodeSynthesisTimeout,
			wantRunnerCall: true,
			validateOutput: func(t *testing.T, output *Output, err error) {
				stdErr := apperrors.Normalize(err)
				assert.Equal(t, "context deadline exceeded", stdErr.Details)
				assert.Equal(t, "SYNTHESIS_TIMEOUT: context deadline exceeded", stdErr.Metadata["errorMessage"])
			},
		},
		{
			name: "failure without a cause defaults to synthesis failed",
			request: &models.GenerationRequest{
				UserPrompt: "make it modern", OriginalImage: "img://a", SessionID: "s1", UserID: "u1",
			},
			result:         models.NewFailureResult("Design generation failed"),
			wantCode:       apperrors.ErrCodeSynthesisFailed,
			wantRunnerCall: true,
			validateOutput: func(t *testing.T, output *Output, err error) {
				assert.Equal(t, "Design generation failed", apperrors.Normalize(err).Details)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{result: tt.result, err: tt.runErr}
			handler := NewHandler(createTestConfig(), runner, logger.NewTestLogger(t))

			output, err := handler.Execute(context.Background(), &Input{GenerationRequest: tt.request})

			if tt.wantCode != "" {
				require.Error(t, err)
				var stdErr *apperrors.StandardError
				require.True(t, stderrors.As(err, &stdErr))
				assert.Equal(t, tt.wantCode, stdErr.Code)
			}
			if tt.wantRunnerCall {
				assert.Equal(t, 1, runner.calls)
			} else {
				assert.Equal(t, 0, runner.calls)
			}
			if tt.validateOutput != nil {
				tt.validateOutput(t, output, err)
			}
		})
	}
}

func TestInputSchema(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{
			name:      "wrapped request",
			variables: `{"generationRequest":{"userPrompt":"x","originalImage":"img://a","sessionId":"s1","userId":"u1","selectedFeatures":{}}}`,
		},
		{
			name:      "missing wrapper",
			variables: `{"userPrompt":"x"}`,
			wantErr:   true,
		},
		{
			name:      "wrong type",
			variables: `{"generationRequest":{"userPrompt":7}}`,
			wantErr:   true,
		},
		{
			name:      "null fields are left to the validator",
			variables: `{"generationRequest":{"userPrompt":null,"originalImage":"img://a","sessionId":null,"userId":"u1","referenceImages":[{"url":null,"description":"d","type":"style"}]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var input Input
			err := validation.DecodeVariables(GetInputSchema(), tt.variables, &input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrCodeInvalidJobVariables, apperrors.Normalize(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "img://a", input.GenerationRequest.OriginalImage)
		})
	}
}

func TestOutputMatchesSchema(t *testing.T) {
	output := &Output{Success: true, GenerationResult: successResult(false)}

	result, err := validation.ValidateObject(GetOutputSchema(), output)
	require.NoError(t, err)
	assert.True(t, result.Valid, result.GetErrorMessages())
}
