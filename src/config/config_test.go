package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig("")
	require.NoError(t, err)

	assert.Equal(t, "stock-dashboard", cfg.Name)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "sqlite", cfg.Storage.DBType)
	assert.Equal(t, "stocks.db", cfg.Storage.DBPath)
	assert.Equal(t, 4, cfg.Jobs.Workers)
	assert.Equal(t, 100, cfg.Jobs.QueueSize)
	assert.Equal(t, 30, cfg.Jobs.JobTimeoutSeconds)
	assert.Equal(t, 0, cfg.Network.MaxRetries)
	assert.Equal(t, "https://query2.finance.yahoo.com", cfg.Provider.BaseURL)
}

func TestNewConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
name: dash
port: 9100
storage:
  db_type: sqlite
  db_path: /tmp/dash.db
jobs:
  workers: 2
  queue_size: 5
  job_timeout_seconds: 3
`)

	cfg, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "dash", cfg.Name)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "/tmp/dash.db", cfg.Storage.DBPath)
	assert.Equal(t, 2, cfg.Jobs.Workers)
	assert.Equal(t, 5, cfg.Jobs.QueueSize)
}

func TestNewConfigEnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "9200")
	t.Setenv(EnvDBPath, "/tmp/env.db")
	t.Setenv(EnvRedisAddr, "redis:6380")

	cfg, err := NewConfig("")
	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.Port)
	assert.Equal(t, "/tmp/env.db", cfg.Storage.DBPath)
	assert.Equal(t, "redis:6380", cfg.Cache.Addr)
}

func TestNewConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"privileged port", "port: 80"},
		{"grpc port equals http port", "port: 9000\ngrpc_port: 9000"},
		{"postgres without dsn", "storage:\n  db_type: postgres"},
		{"unknown db type", "storage:\n  db_type: mysql"},
		{"negative retries", "network:\n  retries: -1"},
		{"negative workers", "jobs:\n  workers: -2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestNewConfigBadEnvPort(t *testing.T) {
	t.Setenv(EnvPort, "eighty")
	_, err := NewConfig("")
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := NewConfig("")
	require.NoError(t, err)
	cfg.Port = 9300

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9300, loaded.Port)
	assert.Equal(t, cfg.Jobs, loaded.Jobs)
}
