// internal/workers/generation/refine-design/models.go
package refinedesign

import "room-redesign-workers/internal/models"

const EndpointPath = "/gemini/refine-design"

// Input doubles as the request body sent to the refinement service.
type Input struct {
	GeneratedImage        string `json:"generatedImage"`
	RefinementInstruction string `json:"refinementInstruction"`
	SessionID             string `json:"sessionId"`
	UserID                string `json:"userId"`
}

type Output struct {
	RefinedDesign *models.RefinedDesign `json:"refinedDesign"`
}

type refinementResponse struct {
	RefinedImage             models.RemoteImage `json:"refinedImage"`
	SessionID                string             `json:"sessionId"`
	OriginalRefinementPrompt string             `json:"originalRefinementPrompt"`
	AppliedRefinementPrompt  string             `json:"appliedRefinementPrompt"`
}
