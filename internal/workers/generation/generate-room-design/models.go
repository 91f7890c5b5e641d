// internal/workers/generation/generate-room-design/models.go
package generateroomdesign

import "room-redesign-workers/internal/models"

type Input struct {
	GenerationRequest *models.GenerationRequest `json:"generationRequest"`
}

type Output struct {
	Success          bool                             `json:"success"`
	FallbackUsed     bool                             `json:"fallbackUsed"`
	GenerationResult *models.CompleteGenerationResult `json:"generationResult"`
}

// runSummary is what a finished run hands to the notification step.
type runSummary struct {
	stage1Ms     int64
	stage2Ms     int64
	totalMs      int64
	fallbackUsed bool
	err          error
}
