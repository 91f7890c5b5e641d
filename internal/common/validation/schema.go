// Package validation checks job variables against JSON schemas before a
// worker decodes them into typed inputs.
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"room-redesign-workers/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateDocument validates a raw JSON document, typically job.Variables.
func ValidateDocument(schema map[string]interface{}, document []byte) (*ValidationResult, error) {
	return validate(schema, gojsonschema.NewBytesLoader(document))
}

// ValidateObject validates any Go value that marshals to JSON.
func ValidateObject(schema map[string]interface{}, object interface{}) (*ValidationResult, error) {
	return validate(schema, gojsonschema.NewGoLoader(object))
}

func validate(schema map[string]interface{}, document gojsonschema.JSONLoader) (*ValidationResult, error) {
	if len(schema) == 0 {
		return &ValidationResult{Valid: true}, nil
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), document)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// DecodeVariables validates job variables against schema and decodes them
// into out. Any problem is reported as INVALID_JOB_VARIABLES.
func DecodeVariables(schema map[string]interface{}, variables string, out interface{}) error {
	result, err := ValidateDocument(schema, []byte(variables))
	if err != nil {
		return errors.NewInvalidJobVariablesError(err.Error())
	}
	if !result.Valid {
		return errors.NewInvalidJobVariablesError(strings.Join(result.GetErrorMessages(), "; "))
	}
	if err := json.Unmarshal([]byte(variables), out); err != nil {
		return errors.NewInvalidJobVariablesError(fmt.Sprintf("parse input: %v", err))
	}
	return nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}
