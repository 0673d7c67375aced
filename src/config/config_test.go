package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8001", cfg.BaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.AuthToken)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"base_url":"https://api.example.com","auth_token":"tok","log_level":"debug"}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.Equal(t, "tok", cfg.AuthToken)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"auth_token":"tok"}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8001", cfg.BaseURL)
	assert.Equal(t, "tok", cfg.AuthToken)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"base_url":"http://x","log_level":"loud"}`), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid config")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PRDCHAT_BASE_URL", "https://env.example.com")
	t.Setenv("PRDCHAT_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.BaseURL)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := &Config{BaseURL: "https://api.example.com", AuthToken: "tok", LogLevel: "error"}
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveRejectsInvalid(t *testing.T) {
	cfg := &Config{BaseURL: "", LogLevel: "info"}
	assert.Error(t, Save(cfg, filepath.Join(t.TempDir(), "config.json")))
}
