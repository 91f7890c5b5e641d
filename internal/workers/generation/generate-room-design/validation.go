package generateroomdesign

import "room-redesign-workers/internal/models"

func GetInputSchema() map[string]interface{} {
	return models.WrapSchema("generationRequest", models.GenerationRequestSchema())
}

func GetOutputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"success", "generationResult"},
		"properties": map[string]interface{}{
			"success":      map[string]interface{}{"type": "boolean"},
			"fallbackUsed": map[string]interface{}{"type": "boolean"},
			"generationResult": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"success"},
			},
		},
	}
}
