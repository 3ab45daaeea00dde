package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "mappings", cfg.MappingsDir)
	assert.Equal(t, "sources/institutions.csv", cfg.Sources.Master)
	assert.Equal(t, "https://api.data.gov/ed/collegescorecard/v1/schools", cfg.Scorecard.BaseURL)
	assert.Equal(t, float64(2), cfg.Scorecard.RatePerSec)
	assert.False(t, cfg.Fetch.Enabled)
	assert.Equal(t, 3, cfg.Fetch.Concurrency)
	assert.Equal(t, 100, cfg.Fetch.CheckpointEvery)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DIRECTORY_DATA_DIR", "/tmp/elsewhere")
	t.Setenv("DIRECTORY_FETCH_CONCURRENCY", "7")
	t.Setenv("DIRECTORY_SCORECARD_API_KEY", "env-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/elsewhere", cfg.DataDir)
	assert.Equal(t, 7, cfg.Fetch.Concurrency)
	assert.Equal(t, "env-key", cfg.Scorecard.APIKey)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nonsense"}))
}
