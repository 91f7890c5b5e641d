// internal/workers/generation/enhance-prompt/models.go
package enhanceprompt

import "room-redesign-workers/internal/models"

const (
	EndpointPath      = "/gemini/enhance-prompt"
	FallbackModelName = "fallback"
)

type Input struct {
	GenerationRequest *models.GenerationRequest `json:"generationRequest"`
}

// Output flattens the prompt next to the full result so the process model
// can map it straight into the synthesis task.
type Output struct {
	EnhancedPrompt string                       `json:"enhancedPrompt"`
	FallbackUsed   bool                         `json:"fallbackUsed"`
	Enhancement    *models.EnhancedPromptResult `json:"enhancement"`
}

type enhanceRequest struct {
	UserInteractionData *models.GenerationRequest `json:"userInteractionData"`
}

type enhanceResponse struct {
	EnhancedPrompt string `json:"enhancedPrompt"`
	ProcessingTime int64  `json:"processingTime"`
	Metadata       struct {
		Model string `json:"model"`
	} `json:"metadata"`
}
