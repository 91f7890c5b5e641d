package refinedesign

func GetInputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"generatedImage", "refinementInstruction", "sessionId", "userId"},
		"properties": map[string]interface{}{
			"generatedImage":        map[string]interface{}{"type": "string", "minLength": 1},
			"refinementInstruction": map[string]interface{}{"type": "string", "minLength": 1},
			"sessionId":             map[string]interface{}{"type": "string"},
			"userId":                map[string]interface{}{"type": "string"},
		},
	}
}
