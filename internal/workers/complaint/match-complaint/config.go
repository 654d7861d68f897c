// internal/workers/complaint/match-complaint/config.go
package matchcomplaint

import "time"

type Config struct {
	Timeout time.Duration
	// DefaultContext is used when the job carries no context label.
	DefaultContext string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
