// internal/workers/generation/generate-design/config.go
package generatedesign

import "time"

type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	ModelName string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   90 * time.Second,
		ModelName: "gemini-2.5-flash-image",
	}
}
