// Package config loads the process-start configuration a conversations
// store session is opened with: the default counted-flags list and storage
// tuning knobs. It never touches per-user persisted state — that lives in
// the store itself (see internal/folders for $COUNTED_FLAGS storage).
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// DefaultCountedFlags mirrors the IMAP flags a fresh store counts per
// conversation when $COUNTED_FLAGS has never been written.
var DefaultCountedFlags = []string{"\\Flagged", "\\Answered", "\\Draft"}

// DefaultLockTimeoutMS bounds how long OpenPath retries an advisory lock
// before giving up with AlreadyOpen.
const DefaultLockTimeoutMS = 2000

// Config holds the tunables passed into conversations.OpenPath (and from
// there into kvengine.Open).
type Config struct {
	// CountedFlags seeds $COUNTED_FLAGS the first time a store is opened.
	CountedFlags []string `toml:"counted_flags"`

	// LockTimeoutMS bounds retrying the file lock and the initial write
	// transaction used to force lock acquisition.
	LockTimeoutMS int `toml:"lock_timeout_ms"`
}

// Default returns the configuration a store uses when no file is supplied.
func Default() Config {
	flags := make([]string, len(DefaultCountedFlags))
	copy(flags, DefaultCountedFlags)
	return Config{
		CountedFlags:  flags,
		LockTimeoutMS: DefaultLockTimeoutMS,
	}
}

// Load reads a TOML configuration file, filling in defaults for any field
// left unset.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if len(cfg.CountedFlags) == 0 {
		cfg.CountedFlags = append([]string(nil), DefaultCountedFlags...)
	}
	if cfg.LockTimeoutMS <= 0 {
		cfg.LockTimeoutMS = DefaultLockTimeoutMS
	}
	return cfg, nil
}
