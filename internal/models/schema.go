package models

// GenerationRequestSchema is the structural JSON schema of a GenerationRequest
// as it arrives in job variables. It checks shapes and types only; required
// fields and coordinate types are left to the request validator so callers
// get its messages instead of schema errors. Fields the validator reports on
// accept null, which decodes to the zero value.
func GenerationRequestSchema() map[string]interface{} {
	nullableString := map[string]interface{}{"type": []interface{}{"string", "null"}}
	stringList := map[string]interface{}{
		"type":  []interface{}{"array", "null"},
		"items": map[string]interface{}{"type": "string"},
	}

	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"userPrompt":    nullableString,
			"originalImage": nullableString,
			"sessionId":     nullableString,
			"userId":        nullableString,
			"locationClicks": map[string]interface{}{
				"type":  []interface{}{"array", "null"},
				"items": map[string]interface{}{"type": "object"},
			},
			"referenceImages": map[string]interface{}{
				"type": []interface{}{"array", "null"},
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"url":         nullableString,
						"description": nullableString,
						"type":        nullableString,
					},
				},
			},
			"selectedFeatures": map[string]interface{}{
				"type": []interface{}{"object", "null"},
				"properties": map[string]interface{}{
					"colorPalette": stringList,
					"materials":    stringList,
					"style":        stringList,
					"lighting":     map[string]interface{}{"type": "string"},
					"roomType":     map[string]interface{}{"type": "string"},
					"priceRange": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"min":      map[string]interface{}{"type": "number"},
							"max":      map[string]interface{}{"type": "number"},
							"currency": map[string]interface{}{"type": "string"},
						},
					},
				},
			},
			"projectContext": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"clientName":  map[string]interface{}{"type": "string"},
					"timeline":    map[string]interface{}{"type": "string"},
					"constraints": stringList,
				},
			},
		},
	}
}

// WrapSchema nests schema under key in an object schema that requires it.
func WrapSchema(key string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{key},
		"properties": map[string]interface{}{
			key: schema,
		},
	}
}
