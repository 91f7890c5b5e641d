// internal/workers/generation/validate-generation-request/config.go
package validategenerationrequest

import "time"

type Config struct {
	Timeout time.Duration
	// ThrowOnInvalid throws VALIDATION_FAILED instead of completing the job
	// with isValid=false.
	ThrowOnInvalid bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        5 * time.Second,
		ThrowOnInvalid: true,
	}
}
