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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadServerConfig(t *testing.T) {
	t.Setenv("IH_PORT", "9090")

	path := writeConfig(t, `
http:
  port: ${IH_PORT}
storage:
  data_dir: ${IH_DATA_DIR:-/var/lib/innerhits}
logging:
  env: prod
  level: warn
search:
  inner_hits_workers: 2
  timeout_ms: 250
cache:
  resolution_max_cost: 5000
`)

	cfg, err := LoadServerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 10, cfg.HTTP.ShutdownSec)
	assert.Equal(t, "/var/lib/innerhits", cfg.Storage.DataDir)
	assert.Equal(t, "prod", cfg.Logging.Env)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Search.InnerHitsWorkers)
	assert.Equal(t, 250, cfg.Search.TimeoutMs)
	assert.EqualValues(t, 5000, cfg.Cache.ResolutionMaxCost)
}

func TestLoadServerConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "bad yaml", content: "http: [", wantErr: "failed to parse config"},
		{name: "bad port", content: "http:\n  port: 70000\n", wantErr: "http.port"},
		{name: "bad env", content: "logging:\n  env: staging\n", wantErr: "logging.env"},
		{name: "negative timeout", content: "search:\n  timeout_ms: -1\n", wantErr: "search.timeout_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadServerConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := LoadServerConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "./search_data", cfg.Storage.DataDir)
	assert.Equal(t, "local", cfg.Logging.Env)
	assert.Equal(t, 8, cfg.Search.InnerHitsWorkers)
	assert.Zero(t, cfg.Cache.ResolutionMaxCost)
	assert.NoError(t, cfg.Validate())
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("IH_SET", "value")
	t.Setenv("IH_EMPTY", "")

	assert.Equal(t, "a: value", string(expandEnvVars([]byte("a: ${IH_SET}"))))
	assert.Equal(t, "a: fallback", string(expandEnvVars([]byte("a: ${IH_EMPTY:-fallback}"))))
	assert.Equal(t, "a: ", string(expandEnvVars([]byte("a: ${IH_UNSET_VARIABLE}"))))
}
