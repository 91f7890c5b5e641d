package errors

import (
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidJobVariables  ErrorCode = "INVALID_JOB_VARIABLES"
	ErrCodeSynthesisFailed      ErrorCode = "SYNTHESIS_FAILED"
	ErrCodeSynthesisTimeout     ErrorCode = "SYNTHESIS_TIMEOUT"
	ErrCodeRefinementFailed     ErrorCode = "REFINEMENT_FAILED"
	ErrCodeRefinementTimeout    ErrorCode = "REFINEMENT_TIMEOUT"
	ErrCodeExternalService      ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout              ErrorCode = "TIMEOUT_ERROR"
	ErrCodeJobCompletionFailed  ErrorCode = "JOB_COMPLETION_FAILED"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseUnavailable  ErrorCode = "DATABASE_UNAVAILABLE"
	ErrCodeAnalyticsUnavailable ErrorCode = "ANALYTICS_UNAVAILABLE"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key that is forwarded as a process variable when
// the error is thrown to the workflow.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError carries every validator message in the metadata.
func NewValidationFailedError(messages []string) *StandardError {
	return newError(ErrCodeValidationFailed, "Generation request failed validation",
		strings.Join(messages, "; "), false).
		WithMetadata("validationErrors", messages)
}

func NewInvalidJobVariablesError(details string) *StandardError {
	return newError(ErrCodeInvalidJobVariables, "Job variables do not match the expected schema", details, false)
}

func NewSynthesisFailedError(err error) *StandardError {
	return newError(ErrCodeSynthesisFailed, "Design synthesis failed", err.Error(), false)
}

func NewSynthesisTimeoutError(err error) *StandardError {
	return newError(ErrCodeSynthesisTimeout, "Design synthesis timed out", err.Error(), false)
}

func NewRefinementFailedError(err error) *StandardError {
	return newError(ErrCodeRefinementFailed, "Design refinement failed", err.Error(), false)
}

func NewRefinementTimeoutError(err error) *StandardError {
	return newError(ErrCodeRefinementTimeout, "Design refinement timed out", err.Error(), false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewDatabaseUnavailableError(err error) *StandardError {
	return newError(ErrCodeDatabaseUnavailable, "Database unavailable", err.Error(), true)
}

func NewAnalyticsUnavailableError(sink string, err error) *StandardError {
	return newError(ErrCodeAnalyticsUnavailable, fmt.Sprintf("Analytics sink '%s' unavailable", sink), err.Error(), true)
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidationFailed:    "VALIDATION_FAILED",
	ErrCodeInvalidJobVariables: "VALIDATION_FAILED",
	ErrCodeSynthesisFailed:     "SYNTHESIS_FAILED",
	ErrCodeSynthesisTimeout:    "SYNTHESIS_FAILED",
	ErrCodeRefinementFailed:    "REFINEMENT_FAILED",
	ErrCodeRefinementTimeout:   "REFINEMENT_FAILED",
}

// GetRetryCount is zero for every generation code: a failed stage surfaces
// immediately and the process model decides whether to run it again.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeExternalService, ErrCodeDatabaseUnavailable, ErrCodeAnalyticsUnavailable:
		return 3
	case ErrCodeTimeout:
		return 2
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "SYNTHESIS") || strings.Contains(codeStr, "REFINEMENT"):
		return "GENERATION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "ANALYTICS"):
		return "STORAGE"
	case strings.Contains(codeStr, "EXTERNAL") || strings.Contains(codeStr, "TIMEOUT"):
		return "INTEGRATION"
	default:
		return "OTHER"
	}
}
