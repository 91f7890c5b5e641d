package models

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// RawResponseSummaryLimit caps the raw generation response kept in image metadata.
const RawResponseSummaryLimit = 500

var ErrNoImageContent = errors.New("response contains no image")

// RemoteImage is the image object returned by the generation backend.
type RemoteImage struct {
	URL        string              `json:"url"`
	Base64Data string              `json:"base64Data,omitempty"`
	Metadata   RemoteImageMetadata `json:"metadata"`
}

type RemoteImageMetadata struct {
	Model               string `json:"model"`
	ModelID             string `json:"modelId"`
	ProcessingTime      int64  `json:"processingTime"`
	PromptUsed          string `json:"promptUsed"`
	ReferenceImagesUsed int    `json:"referenceImagesUsed"`
	RefinementApplied   string `json:"refinementApplied,omitempty"`
	GenerationResponse  string `json:"generationResponse"`
}

// ToDesignImage decodes inline data and copies metadata. Callers override the
// fields they own (reference count, applied refinement).
func (r RemoteImage) ToDesignImage() (DesignImage, error) {
	img := DesignImage{
		URL: r.URL,
		Metadata: ImageMetadata{
			ModelName:           r.Metadata.Model,
			ModelID:             r.Metadata.ModelID,
			ProcessingTimeMs:    r.Metadata.ProcessingTime,
			PromptUsed:          r.Metadata.PromptUsed,
			ReferenceImagesUsed: r.Metadata.ReferenceImagesUsed,
			RawResponseSummary:  truncateRunes(r.Metadata.GenerationResponse, RawResponseSummaryLimit),
			RefinementApplied:   r.Metadata.RefinementApplied,
		},
	}

	if r.Base64Data != "" {
		data, err := base64.StdEncoding.DecodeString(r.Base64Data)
		if err != nil {
			return DesignImage{}, fmt.Errorf("decode inline image: %w", err)
		}
		img.InlineData = data
	}

	if !img.HasContent() {
		return DesignImage{}, ErrNoImageContent
	}
	return img, nil
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
