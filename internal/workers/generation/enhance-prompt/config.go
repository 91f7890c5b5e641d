// internal/workers/generation/enhance-prompt/config.go
package enhanceprompt

import "time"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// ModelName is reported when the service omits its model name.
	ModelName string
	// FallbackProcessingTimeMs is the nominal time reported for fallback results.
	FallbackProcessingTimeMs int64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:                  20 * time.Second,
		ModelName:                "gemini-2.5-flash",
		FallbackProcessingTimeMs: 500,
	}
}
