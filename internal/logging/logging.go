// Package logging provides the process-wide structured logger used by every
// convstore package.
package logging

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	once sync.Once
	base zerolog.Logger
)

// Init configures the base logger. Safe to call multiple times; only the
// first call takes effect for the process lifetime, whatever its debug
// argument, and none does once WithComponent has already set up the
// default Info-level logger.
func Init(debug bool) {
	once.Do(func() {
		level := zerolog.InfoLevel
		if debug {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
		base = zerolog.New(os.Stderr).With().Timestamp().Logger()
	})
}

// WithComponent returns a logger tagged with the given component name.
func WithComponent(name string) zerolog.Logger {
	once.Do(func() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		base = zerolog.New(os.Stderr).With().Timestamp().Logger()
	})
	return base.With().Str("component", name).Logger()
}
