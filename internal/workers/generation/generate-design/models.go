// internal/workers/generation/generate-design/models.go
package generatedesign

import "room-redesign-workers/internal/models"

const EndpointPath = "/gemini/generate-design"

// Input doubles as the request body sent to the synthesis service.
type Input struct {
	OriginalImage   string                  `json:"originalImage"`
	EnhancedPrompt  string                  `json:"enhancedPrompt"`
	ReferenceImages []models.ReferenceImage `json:"referenceImages"`
	SessionID       string                  `json:"sessionId"`
	UserID          string                  `json:"userId"`
}

type Output struct {
	GeneratedDesign *models.GeneratedDesign `json:"generatedDesign"`
}

type synthesisResponse struct {
	GeneratedImage    models.RemoteImage      `json:"generatedImage"`
	SessionID         string                  `json:"sessionId"`
	EnhancedPrompt    string                  `json:"enhancedPrompt"`
	ApplicationPrompt string                  `json:"applicationPrompt"`
	ReferenceImages   []models.ReferenceImage `json:"referenceImages"`
}
