package models

// ReferenceImageType classifies what a user-supplied reference image is for.
type ReferenceImageType string

const (
	ReferenceStyle     ReferenceImageType = "style"
	ReferenceColor     ReferenceImageType = "color"
	ReferenceMaterial  ReferenceImageType = "material"
	ReferenceFurniture ReferenceImageType = "furniture"
)

// GenerationRequest is the user intent handed to the two-stage pipeline.
type GenerationRequest struct {
	UserPrompt       string           `json:"userPrompt"`
	OriginalImage    string           `json:"originalImage"`
	LocationClicks   []LocationClick  `json:"locationClicks,omitempty"`
	ReferenceImages  []ReferenceImage `json:"referenceImages,omitempty"`
	SelectedFeatures SelectedFeatures `json:"selectedFeatures"`
	ProjectContext   *ProjectContext  `json:"projectContext,omitempty"`
	SessionID        string           `json:"sessionId"`
	UserID           string           `json:"userId"`
}

// LocationClick keeps X and Y as decoded JSON values so that non-numeric
// coordinates survive decoding and are reported by the validator.
type LocationClick struct {
	X           interface{} `json:"x"`
	Y           interface{} `json:"y"`
	Description string      `json:"description,omitempty"`
}

type ReferenceImage struct {
	URL         string             `json:"url"`
	Description string             `json:"description"`
	Type        ReferenceImageType `json:"type"`
}

type SelectedFeatures struct {
	ColorPalette []string    `json:"colorPalette,omitempty"`
	PriceRange   *PriceRange `json:"priceRange,omitempty"`
	Materials    []string    `json:"materials,omitempty"`
	Lighting     string      `json:"lighting,omitempty"`
	RoomType     string      `json:"roomType,omitempty"`
	Style        []string    `json:"style,omitempty"`
}

// ProvidedKeys lists the JSON names of the features that carry a value, in
// declaration order.
func (f SelectedFeatures) ProvidedKeys() []string {
	keys := []string{}
	if len(f.ColorPalette) > 0 {
		keys = append(keys, "colorPalette")
	}
	if f.PriceRange != nil {
		keys = append(keys, "priceRange")
	}
	if len(f.Materials) > 0 {
		keys = append(keys, "materials")
	}
	if f.Lighting != "" {
		keys = append(keys, "lighting")
	}
	if f.RoomType != "" {
		keys = append(keys, "roomType")
	}
	if len(f.Style) > 0 {
		keys = append(keys, "style")
	}
	return keys
}

type PriceRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

type ProjectContext struct {
	ClientName  string   `json:"clientName,omitempty"`
	Timeline    string   `json:"timeline,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
}

// NewGenerationRequest assembles a request from the pieces a client collects.
func NewGenerationRequest(userPrompt, originalImage string, features SelectedFeatures, userID, sessionID string, clicks []LocationClick, references []ReferenceImage, project *ProjectContext) *GenerationRequest {
	return &GenerationRequest{
		UserPrompt:       userPrompt,
		OriginalImage:    originalImage,
		LocationClicks:   clicks,
		ReferenceImages:  references,
		SelectedFeatures: features,
		ProjectContext:   project,
		SessionID:        sessionID,
		UserID:           userID,
	}
}

// EnhancementStageNumber is the metadata stage marker of the enhancement result.
const EnhancementStageNumber = 1

type EnhancedPromptResult struct {
	EnhancedPrompt   string              `json:"enhancedPrompt"`
	OriginalData     *GenerationRequest  `json:"originalData"`
	ProcessingTimeMs int64               `json:"processingTimeMs"`
	FallbackUsed     bool                `json:"fallbackUsed"`
	Metadata         EnhancementMetadata `json:"metadata"`
}

type EnhancementMetadata struct {
	Stage              int    `json:"stage"`
	ModelName          string `json:"modelName"`
	EnhancementApplied bool   `json:"enhancementApplied"`
}

type DesignImage struct {
	URL        string        `json:"url"`
	InlineData []byte        `json:"inlineData,omitempty"`
	Metadata   ImageMetadata `json:"metadata"`
}

type ImageMetadata struct {
	ModelName           string `json:"modelName"`
	ModelID             string `json:"modelId"`
	ProcessingTimeMs    int64  `json:"processingTimeMs"`
	PromptUsed          string `json:"promptUsed"`
	ReferenceImagesUsed int    `json:"referenceImagesUsed"`
	RawResponseSummary  string `json:"rawResponseSummary"`
	RefinementApplied   string `json:"refinementApplied,omitempty"`
}

// HasContent reports whether the image carries a URL or inline bytes.
func (i DesignImage) HasContent() bool {
	return i.URL != "" || len(i.InlineData) > 0
}

type GeneratedDesign struct {
	Image           DesignImage      `json:"image"`
	SessionID       string           `json:"sessionId"`
	EnhancedPrompt  string           `json:"enhancedPrompt"`
	AppliedPrompt   string           `json:"appliedPrompt"`
	ReferenceImages []ReferenceImage `json:"referenceImages"`
}

type RefinedDesign struct {
	Image               DesignImage `json:"image"`
	SessionID           string      `json:"sessionId"`
	OriginalInstruction string      `json:"originalInstruction"`
	AppliedInstruction  string      `json:"appliedInstruction"`
}

// CompleteGenerationResult holds either Payload or ErrorMessage, never both.
type CompleteGenerationResult struct {
	Success      bool               `json:"success"`
	Payload      *GenerationPayload `json:"payload,omitempty"`
	ErrorMessage string             `json:"errorMessage,omitempty"`
}

type GenerationPayload struct {
	Design                *GeneratedDesign      `json:"design"`
	Enhancement           *EnhancedPromptResult `json:"enhancement"`
	TotalProcessingTimeMs int64                 `json:"totalProcessingTimeMs"`
	StageDurations        StageDurations        `json:"stageDurations"`
}

type StageDurations struct {
	Stage1Ms int64 `json:"stage1Ms"`
	Stage2Ms int64 `json:"stage2Ms"`
}

func NewSuccessResult(payload *GenerationPayload) *CompleteGenerationResult {
	return &CompleteGenerationResult{Success: true, Payload: payload}
}

func NewFailureResult(message string) *CompleteGenerationResult {
	if message == "" {
		message = "Unknown error occurred"
	}
	return &CompleteGenerationResult{Success: false, ErrorMessage: message}
}
