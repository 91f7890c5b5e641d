package validategenerationrequest

import (
	"encoding/json"
	"fmt"
	"strings"

	"room-redesign-workers/internal/models"
)

// Validate checks a request before any remote call is made. It reports all
// violations rather than stopping at the first one.
func Validate(req *models.GenerationRequest) ValidationResult {
	if req == nil {
		req = &models.GenerationRequest{}
	}

	errs := []string{}

	if strings.TrimSpace(req.UserPrompt) == "" {
		errs = append(errs, "User prompt is required")
	}
	if req.OriginalImage == "" {
		errs = append(errs, "Original image is required")
	}
	if req.UserID == "" {
		errs = append(errs, "User ID is required")
	}
	if req.SessionID == "" {
		errs = append(errs, "Session ID is required")
	}

	for i, click := range req.LocationClicks {
		if !isNumber(click.X) || !isNumber(click.Y) {
			errs = append(errs, fmt.Sprintf("Location click %d must have numeric x and y coordinates", i))
		}
	}

	for i, ref := range req.ReferenceImages {
		if ref.URL == "" || ref.Description == "" || ref.Type == "" {
			errs = append(errs, fmt.Sprintf("Reference image %d must have url, description, and type", i))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, json.Number:
		return true
	default:
		return false
	}
}
