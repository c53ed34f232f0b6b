// config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the full application configuration. Values come from an optional
// YAML file and are then overridden by environment variables.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Storage  StorageConfig  `yaml:"storage"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type ServerConfig struct {
	Port            string   `yaml:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	IngestionAPIKey string   `yaml:"ingestion_api_key"`
	MaxUploadMB     int64    `yaml:"max_upload_mb"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // postgres or sqlite
	Host            string        `yaml:"host"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	Port            string        `yaml:"port"`
	SSLMode         string        `yaml:"sslmode"`
	SQLitePath      string        `yaml:"sqlite_path"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

type LLMConfig struct {
	APIKey            string   `yaml:"api_key"`
	BaseURL           string   `yaml:"base_url"`
	Model             string   `yaml:"model"`
	Temperature       *float64 `yaml:"temperature"`         // nil leaves the provider default
	MaxTokens         int      `yaml:"max_tokens"`          // 0 leaves the provider default
	RequestsPerMinute int      `yaml:"requests_per_minute"` // 0 means unlimited
	MaxChunkSize      int      `yaml:"max_chunk_size"`
}

type StorageConfig struct {
	MediaRoot string `yaml:"media_root"`
}

type WorkerConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// DSN builds the Postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
			MaxUploadMB:    10,
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			Host:            "localhost",
			User:            "postgres",
			Password:        "password",
			DBName:          "buymin",
			Port:            "5432",
			SSLMode:         "disable",
			SQLitePath:      "buymin.db",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			DialTimeout:     5 * time.Second,
		},
		LLM: LLMConfig{
			BaseURL:      "https://api.openai.com/v1",
			Model:        "gpt-4",
			MaxChunkSize: 2000,
		},
		Storage: StorageConfig{
			MediaRoot: "media",
		},
		Worker: WorkerConfig{
			QueueSize: 16,
		},
	}
}

// Load reads the YAML file at path (if it exists) on top of the defaults and
// then applies environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// file is optional
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Server.Port = GetEnv("PORT", c.Server.Port)
	if origins := GetEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}
	c.Server.IngestionAPIKey = GetEnv("INGESTION_API_KEY", c.Server.IngestionAPIKey)
	c.Server.MaxUploadMB = int64(getEnvAsInt("MAX_UPLOAD_MB", int(c.Server.MaxUploadMB)))

	c.Database.Driver = GetEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Host = GetEnv("DB_HOST", c.Database.Host)
	c.Database.User = GetEnv("DB_USER", c.Database.User)
	c.Database.Password = GetEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = GetEnv("DB_NAME", c.Database.DBName)
	c.Database.Port = GetEnv("DB_PORT", c.Database.Port)
	c.Database.SSLMode = GetEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.SQLitePath = GetEnv("DB_SQLITE_PATH", c.Database.SQLitePath)
	c.Database.MaxConns = int32(getEnvAsInt("DB_MAX_CONNS", int(c.Database.MaxConns)))
	c.Database.MinConns = int32(getEnvAsInt("DB_MIN_CONNS", int(c.Database.MinConns)))
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)

	// OPENAI_API_KEY is accepted for compatibility with the usual tooling.
	c.LLM.APIKey = GetEnv("LLM_API_KEY", GetEnv("OPENAI_API_KEY", c.LLM.APIKey))
	c.LLM.BaseURL = GetEnv("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = GetEnv("LLM_MODEL", c.LLM.Model)
	if value := os.Getenv("LLM_TEMPERATURE"); value != "" {
		if t, err := strconv.ParseFloat(value, 64); err == nil {
			c.LLM.Temperature = &t
		}
	}
	c.LLM.MaxTokens = getEnvAsInt("LLM_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.RequestsPerMinute = getEnvAsInt("LLM_REQUESTS_PER_MINUTE", c.LLM.RequestsPerMinute)
	c.LLM.MaxChunkSize = getEnvAsInt("LLM_MAX_CHUNK_SIZE", c.LLM.MaxChunkSize)

	c.Storage.MediaRoot = GetEnv("MEDIA_ROOT", c.Storage.MediaRoot)
	c.Worker.QueueSize = getEnvAsInt("WORKER_QUEUE_SIZE", c.Worker.QueueSize)
}

// Validate checks the values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == "sqlite" && c.Database.SQLitePath == "" {
		return errors.New("config: database.sqlite_path is required for the sqlite driver")
	}
	if c.LLM.MaxChunkSize <= 0 {
		return errors.New("config: llm.max_chunk_size must be positive")
	}
	if c.LLM.MaxTokens < 0 {
		return errors.New("config: llm.max_tokens must not be negative")
	}
	if c.LLM.RequestsPerMinute < 0 {
		return errors.New("config: llm.requests_per_minute must not be negative")
	}
	if c.Storage.MediaRoot == "" {
		return errors.New("config: storage.media_root is required")
	}
	if c.Worker.QueueSize <= 0 {
		return errors.New("config: worker.queue_size must be positive")
	}
	return nil
}

// GetEnv returns the environment value for key, or defaultValue when unset.
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
