package rostertool

import (
	"time"

	"github.com/okian/recruitstat/pkg/logger"
)

// Config holds settings shared by the rosterctl commands.
type Config struct {
	BaseURL  string        // Base URL of a running server
	Password string        // Shared login password; empty skips login
	Timeout  time.Duration // HTTP request timeout
	Verbose  bool          // Log each compared dimension
	Logger   logger.Logger // Progress log; nil discards
}

func (c *Config) logger() logger.Logger {
	if c.Logger == nil {
		return logger.Nop()
	}
	return c.Logger
}

// Stats summarises one verify run.
type Stats struct {
	RowsGenerated int
	RowsUploaded  int
	Dimensions    int
	Mismatches    int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}
