package logging

import "time"

// Config controls router buffering and filtering.
type Config struct {
	BufferSize       int
	MinimumSeverity  Severity
	DropWarnInterval time.Duration
}

// DefaultConfig returns the settings used when nothing is configured
// explicitly.
func DefaultConfig() Config {
	return Config{
		BufferSize:       512,
		MinimumSeverity:  SeverityInfo,
		DropWarnInterval: 5 * time.Second,
	}
}
