package enhanceprompt

import (
	"fmt"
	"strconv"
	"strings"

	"room-redesign-workers/internal/models"
)

const (
	defaultFallbackIntent = "improve the space"
	closingDirective      = "Use professional interior design with realistic materials, proper lighting, and magazine-quality finishes."
)

// SynthesizeFallbackPrompt builds an enhancement text from the raw request
// without any I/O. The output depends only on req.
func SynthesizeFallbackPrompt(req *models.GenerationRequest) string {
	if req == nil {
		req = &models.GenerationRequest{}
	}
	features := req.SelectedFeatures

	intent := req.UserPrompt
	if strings.TrimSpace(intent) == "" {
		intent = defaultFallbackIntent
	}

	parts := []string{fmt.Sprintf("Transform this interior space: %s.", intent)}

	if n := len(req.LocationClicks); n > 0 {
		parts = append(parts, fmt.Sprintf("Focus on %d specific areas where user clicked.", n))
	}
	if len(features.ColorPalette) > 0 {
		parts = append(parts, fmt.Sprintf("Use colors: %s.", strings.Join(features.ColorPalette, ", ")))
	}
	if len(features.Materials) > 0 {
		parts = append(parts, fmt.Sprintf("Incorporate materials: %s.", strings.Join(features.Materials, ", ")))
	}
	if features.Lighting != "" {
		parts = append(parts, fmt.Sprintf("Apply %s lighting design.", features.Lighting))
	} else {
		parts = append(parts, "Improve lighting.")
	}
	if len(features.Style) > 0 {
		parts = append(parts, fmt.Sprintf("Design in %s style.", strings.Join(features.Style, " ")))
	}
	if n := len(req.ReferenceImages); n > 0 {
		parts = append(parts, fmt.Sprintf("Draw inspiration from %d reference images.", n))
	}
	if pr := features.PriceRange; pr != nil {
		parts = append(parts, fmt.Sprintf("Keep within %s-%s budget.", formatAmount(pr.Min), formatAmount(pr.Max)))
	}

	parts = append(parts, closingDirective)

	return strings.Join(parts, " ")
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
