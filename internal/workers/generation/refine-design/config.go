// internal/workers/generation/refine-design/config.go
package refinedesign

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
