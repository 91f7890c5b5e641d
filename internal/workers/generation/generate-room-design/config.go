// internal/workers/generation/generate-room-design/config.go
package generateroomdesign

import "time"

type Config struct {
	// Timeout bounds the whole job. Each stage still applies its own timeout.
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 150 * time.Second,
	}
}
