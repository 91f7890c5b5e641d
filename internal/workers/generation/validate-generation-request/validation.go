package validategenerationrequest

import "room-redesign-workers/internal/models"

func GetInputSchema() map[string]interface{} {
	return models.WrapSchema("generationRequest", models.GenerationRequestSchema())
}
