package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: debug
  format: json
client:
  hostname: cloud.example.com
  username: coma64
  password: pass
  scheme: https
  etag_caching: false
  timeout: 5
  rate_limit_rps: 2.5
  rate_limit_burst: 3
emulator:
  port: 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Logger)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)

	require.NotNil(t, cfg.Client)
	assert.Equal(t, "cloud.example.com", cfg.Client.Hostname)
	assert.Equal(t, "coma64", cfg.Client.Username)
	assert.Equal(t, "pass", cfg.Client.Password)
	assert.False(t, cfg.Client.ETagCaching)
	assert.Equal(t, 5, cfg.Client.Timeout)
	assert.InDelta(t, 2.5, cfg.Client.RateLimitRPS, 0.0001)
	assert.Equal(t, 3, cfg.Client.RateLimitBurst)

	require.NotNil(t, cfg.Emulator)
	assert.Equal(t, 9090, cfg.Emulator.Port)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
client:
  hostname: cloud.example.com
  username: coma64
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "https", cfg.Client.Scheme)
	assert.True(t, cfg.Client.ETagCaching, "etag caching must be enabled by default")
	assert.Equal(t, 30, cfg.Client.Timeout)
	assert.Equal(t, 8080, cfg.Emulator.Port)
	assert.Equal(t, 10, cfg.Emulator.GracefulShutdownTimeout)
}

func TestLoad_ExpandEnvWithDefaults(t *testing.T) {
	path := writeConfig(t, `
client:
  hostname: ${NOTES_TEST_HOST:-localhost:8080}
  username: coma64
  password: ${NOTES_TEST_SECRET:-fallback}
`)
	t.Setenv("NOTES_TEST_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Client.Hostname, "unset variable falls back to default")
	assert.Equal(t, "s3cret", cfg.Client.Password, "set variable replaces placeholder")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
client:
  hostname: cloud.example.com
  username: coma64
`)
	t.Setenv("NOTES_CLIENT_USERNAME", "alice")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Client.Username)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "v.ReadInConfig")
}

func TestExpandEnvWithDefaults(t *testing.T) {
	t.Setenv("NOTES_TEST_SET", "value")

	assert.Equal(t, "value", expandEnvWithDefaults("${NOTES_TEST_SET}"))
	assert.Equal(t, "value", expandEnvWithDefaults("${NOTES_TEST_SET:-other}"))
	assert.Equal(t, "other", expandEnvWithDefaults("${NOTES_TEST_UNSET:-other}"))
	assert.Equal(t, "", expandEnvWithDefaults("${NOTES_TEST_UNSET}"))
	assert.Equal(t, "https://value/x", expandEnvWithDefaults("https://${NOTES_TEST_SET}/x"))
}

func TestValidate_Client(t *testing.T) {
	valid := &ConfigClient{Hostname: "cloud.example.com", Username: "coma64", Scheme: "https"}
	require.NoError(t, Validate(valid))

	withPort := &ConfigClient{Hostname: "127.0.0.1:8080", Username: "coma64", Scheme: "http"}
	require.NoError(t, Validate(withPort))

	missingHost := &ConfigClient{Username: "coma64"}
	require.Error(t, Validate(missingHost))

	badScheme := &ConfigClient{Hostname: "cloud.example.com", Username: "coma64", Scheme: "ftp"}
	require.Error(t, Validate(badScheme))
}

func TestLoad_ExpandedValuesKeepStringForm(t *testing.T) {
	path := writeConfig(t, `
client:
  hostname: cloud.example.com
  username: ${NOTES_TEST_USER:-coma64}
  password: ${NOTES_TEST_SECRET:-fallback}
  etag_caching: ${NOTES_TEST_CACHING:-true}
  timeout: ${NOTES_TEST_TIMEOUT:-30}
emulator:
  port: ${NOTES_TEST_PORT:-8080}
`)
	t.Setenv("NOTES_TEST_USER", "true")
	t.Setenv("NOTES_TEST_SECRET", "007")
	t.Setenv("NOTES_TEST_CACHING", "false")
	t.Setenv("NOTES_TEST_TIMEOUT", "45")
	t.Setenv("NOTES_TEST_PORT", "9091")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "007", cfg.Client.Password, "leading zeros must survive")
	assert.Equal(t, "true", cfg.Client.Username)
	assert.False(t, cfg.Client.ETagCaching)
	assert.Equal(t, 45, cfg.Client.Timeout)
	assert.Equal(t, 9091, cfg.Emulator.Port)
}
