package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, BackendJSON, cfg.HistoryBackend)
	assert.Equal(t, "history.json", cfg.HistoryFile)
	assert.Equal(t, 0.4, cfg.ConfidenceThreshold)
	assert.Equal(t, 17, cfg.TargetClassID)
	assert.Equal(t, 10, cfg.ReportPDFLimit)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadSize)
	assert.Equal(t, filepath.Join("static", "results"), cfg.ResultDirectory)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HISTORY_BACKEND", "sqlite")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.65")
	t.Setenv("MAX_UPLOAD_MB", "2")
	t.Setenv("STATIC_DIR", "public")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, BackendSQLite, cfg.HistoryBackend)
	assert.Equal(t, 0.65, cfg.ConfidenceThreshold)
	assert.Equal(t, int64(2<<20), cfg.MaxUploadSize)
	assert.Equal(t, filepath.Join("public", "uploads"), cfg.UploadDirectory)
	require.NoError(t, cfg.Validate())
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("NMS_THRESHOLD", "abc")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 0.45, cfg.NMSThreshold)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown backend", func(c *Config) { c.HistoryBackend = "redis" }},
		{"unknown annotator", func(c *Config) { c.Annotator = "gpu" }},
		{"threshold above one", func(c *Config) { c.ConfidenceThreshold = 1.5 }},
		{"zero port", func(c *Config) { c.Port = 0 }},
		{"sqlite without path", func(c *Config) {
			c.HistoryBackend = BackendSQLite
			c.DatabasePath = ""
		}},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("HORSE_TEST_DOTENV=loaded\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("HORSE_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("HORSE_TEST_DOTENV"))
}
