package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("EMS_API_URL", "")
	t.Setenv("EMS_DATA_DIR", "")
	t.Setenv("EMS_LOG_LEVEL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.ToastTTL)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
api_url: https://ems.example.com/
poll_interval: 10s
toast_ttl: 2s
rate_limit: 4
data_dir: /tmp/ems-test
`)
	t.Setenv("EMS_API_URL", "")
	t.Setenv("EMS_DATA_DIR", "")
	t.Setenv("EMS_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://ems.example.com", cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.ToastTTL)
	assert.Equal(t, 4.0, cfg.RateLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/ems-test/ems.log", cfg.LogPath())
	assert.Equal(t, "/tmp/ems-test/ems.db", cfg.DatabasePath())

	t.Setenv("EMS_API_URL", "http://override:9000")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://override:9000", cfg.APIURL)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("EMS_API_URL", "")
	t.Setenv("EMS_DATA_DIR", "")

	_, err := Load(writeConfig(t, "api_url: ftp://nope\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "poll_interval: 0s\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "api_url: [\n"))
	assert.Error(t, err)
}
