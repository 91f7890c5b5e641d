package enhanceprompt

import "room-redesign-workers/internal/models"

func GetInputSchema() map[string]interface{} {
	return models.WrapSchema("generationRequest", models.GenerationRequestSchema())
}

func GetOutputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"enhancedPrompt", "fallbackUsed", "enhancement"},
		"properties": map[string]interface{}{
			"enhancedPrompt": map[string]interface{}{"type": "string", "minLength": 1},
			"fallbackUsed":   map[string]interface{}{"type": "boolean"},
			"enhancement":    map[string]interface{}{"type": "object"},
		},
	}
}
