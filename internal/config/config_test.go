package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultReturnsCopyNotSharedSlice(t *testing.T) {
	a := Default()
	b := Default()
	a.CountedFlags[0] = "mutated"
	assert.NotEqual(t, a.CountedFlags[0], b.CountedFlags[0])
}

func TestLoadWithEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFillsMissingFieldsFromDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.toml")
	require.NoError(t, os.WriteFile(path, []byte(`lock_timeout_ms = 5000`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.LockTimeoutMS)
	assert.Equal(t, DefaultCountedFlags, cfg.CountedFlags)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.toml")
	require.NoError(t, os.WriteFile(path, []byte(`not = [valid toml`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
