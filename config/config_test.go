package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 2000, cfg.LLM.MaxChunkSize)
	assert.Equal(t, "media", cfg.Storage.MediaRoot)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlDoc := `
server:
  port: "9000"
database:
  driver: sqlite
  sqlite_path: prices.db
  max_conn_lifetime: 10m
llm:
  model: gpt-4o-mini
  max_chunk_size: 1500
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	t.Setenv("LLM_MODEL", "gpt-4.1")
	t.Setenv("LLM_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "prices.db", cfg.Database.SQLitePath)
	assert.Equal(t, 10*time.Minute, cfg.Database.MaxConnLifetime)
	assert.Equal(t, 1500, cfg.LLM.MaxChunkSize)
	assert.Equal(t, "gpt-4.1", cfg.LLM.Model, "env overrides the file")
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestLoad_OpenAIKeyFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-openai", cfg.LLM.APIKey)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, false},
		{"sqlite without path", func(c *Config) { c.Database.Driver = "sqlite"; c.Database.SQLitePath = "" }, false},
		{"zero chunk size", func(c *Config) { c.LLM.MaxChunkSize = 0 }, false},
		{"negative rate", func(c *Config) { c.LLM.RequestsPerMinute = -1 }, false},
		{"negative max tokens", func(c *Config) { c.LLM.MaxTokens = -1 }, false},
		{"no media root", func(c *Config) { c.Storage.MediaRoot = "" }, false},
		{"no queue", func(c *Config) { c.Worker.QueueSize = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := Default()
	assert.Equal(t,
		"host=localhost user=postgres password=password dbname=buymin port=5432 sslmode=disable",
		cfg.Database.DSN())
}

func TestLoad_LLMTuning(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Nil(t, cfg.LLM.Temperature)
	assert.Zero(t, cfg.LLM.MaxTokens)

	t.Setenv("LLM_TEMPERATURE", "0")
	t.Setenv("LLM_MAX_TOKENS", "800")
	cfg, err = Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg.LLM.Temperature)
	assert.Equal(t, 0.0, *cfg.LLM.Temperature)
	assert.Equal(t, 800, cfg.LLM.MaxTokens)
}
