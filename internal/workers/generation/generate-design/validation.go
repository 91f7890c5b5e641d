package generatedesign

import "room-redesign-workers/internal/models"

func GetInputSchema() map[string]interface{} {
	request := models.GenerationRequestSchema()["properties"].(map[string]interface{})

	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"originalImage", "enhancedPrompt", "sessionId", "userId"},
		"properties": map[string]interface{}{
			"originalImage":   map[string]interface{}{"type": "string", "minLength": 1},
			"enhancedPrompt":  map[string]interface{}{"type": "string", "minLength": 1},
			"sessionId":       map[string]interface{}{"type": "string"},
			"userId":          map[string]interface{}{"type": "string"},
			"referenceImages": request["referenceImages"],
		},
	}
}
