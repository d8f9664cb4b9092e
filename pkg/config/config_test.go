package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

const minimalConfig = `
multilocator_id: ml-01
broker: "localhost:1883"
locators:
  - id: loc-a
  - id: loc-b
`

func TestLoad_MinimalConfig(t *testing.T) {
	path := writeConfigFile(t, minimalConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ml-01", cfg.MultilocatorID)
	assert.Equal(t, "localhost:1883", cfg.Broker)
	assert.Len(t, cfg.Locators, 2)

	// Defaults must be filled in.
	assert.Equal(t, DefaultMaxLocators, cfg.Limits.MaxLocators)
	assert.Equal(t, DefaultMaxTags, cfg.Limits.MaxTags)
	assert.Equal(t, DefaultMaxSequenceIDs, cfg.Limits.MaxSequenceIDs)
	assert.Equal(t, DefaultMaxSequenceDiff, cfg.Limits.MaxSequenceDiff)
	assert.Equal(t, DefaultEstimationMode, cfg.Estimation.Mode)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMustLoad_EmptyPathRequired(t *testing.T) {
	_, err := MustLoad("")
	assert.Error(t, err)
}

func TestMustLoad_FileNotFound(t *testing.T) {
	_, err := MustLoad(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfigFile(t, minimalConfig)
	t.Setenv("MULTILOCATOR_BROKER", "tcp://broker.example.com:1883")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tcp://broker.example.com:1883", cfg.Broker)
}

func TestLoad_DurationDecodeHook(t *testing.T) {
	path := writeConfigFile(t, minimalConfig+"\nshutdown_timeout: 5s\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "5s", cfg.ShutdownTimeout.String())
}
