// internal/workers/generation/validate-generation-request/models.go
package validategenerationrequest

import "room-redesign-workers/internal/models"

type Input struct {
	GenerationRequest *models.GenerationRequest `json:"generationRequest"`
}

type Output struct {
	IsValid          bool     `json:"isValid"`
	ValidationErrors []string `json:"validationErrors"`
}

// ValidationResult lists every violation found; Errors is empty when Valid.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}
