package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Media    MediaConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	JWTSecret string
}

// RedisConfig holds the connection settings for the draft store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	DraftTTL time.Duration
}

// StorageConfig holds the byte-storage root and the public URL prefix
// returned for stored files.
type StorageConfig struct {
	Root      string
	PublicURL string
}

// MediaConfig controls the background media pipeline.
type MediaConfig struct {
	Workers         int
	QueueSize       int
	MaxAttempts     int
	RetryBackoff    time.Duration
	StatusRetention time.Duration
	MaxUploadMB     int
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "host.docker.internal")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "estate")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DRAFT_TTL", "720h")
	v.SetDefault("STORAGE_ROOT", "./data/storage")
	v.SetDefault("STORAGE_PUBLIC_URL", "http://localhost:8080/files")
	v.SetDefault("MEDIA_WORKERS", 4)
	v.SetDefault("MEDIA_QUEUE_SIZE", 100)
	v.SetDefault("MEDIA_MAX_ATTEMPTS", 3)
	v.SetDefault("MEDIA_RETRY_BACKOFF", "500ms")
	v.SetDefault("MEDIA_STATUS_RETENTION", "24h")
	v.SetDefault("MEDIA_MAX_UPLOAD_MB", 25)

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			DraftTTL: v.GetDuration("DRAFT_TTL"),
		},
		Storage: StorageConfig{
			Root:      v.GetString("STORAGE_ROOT"),
			PublicURL: strings.TrimRight(v.GetString("STORAGE_PUBLIC_URL"), "/"),
		},
		Media: MediaConfig{
			Workers:         v.GetInt("MEDIA_WORKERS"),
			QueueSize:       v.GetInt("MEDIA_QUEUE_SIZE"),
			MaxAttempts:     v.GetInt("MEDIA_MAX_ATTEMPTS"),
			RetryBackoff:    v.GetDuration("MEDIA_RETRY_BACKOFF"),
			StatusRetention: v.GetDuration("MEDIA_STATUS_RETENTION"),
			MaxUploadMB:     v.GetInt("MEDIA_MAX_UPLOAD_MB"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	if c.Redis.DraftTTL <= 0 {
		return fmt.Errorf("DRAFT_TTL must be positive")
	}

	if c.Storage.Root == "" {
		return fmt.Errorf("STORAGE_ROOT is required")
	}
	if c.Storage.PublicURL == "" {
		return fmt.Errorf("STORAGE_PUBLIC_URL is required")
	}

	if c.Media.Workers < 1 {
		return fmt.Errorf("MEDIA_WORKERS must be at least 1")
	}
	if c.Media.QueueSize < 1 {
		return fmt.Errorf("MEDIA_QUEUE_SIZE must be at least 1")
	}
	if c.Media.MaxAttempts < 1 {
		return fmt.Errorf("MEDIA_MAX_ATTEMPTS must be at least 1")
	}
	if c.Media.RetryBackoff < 0 {
		return fmt.Errorf("MEDIA_RETRY_BACKOFF must be non-negative")
	}
	if c.Media.MaxUploadMB < 1 {
		return fmt.Errorf("MEDIA_MAX_UPLOAD_MB must be at least 1")
	}

	return nil
}

// MaxUploadBytes returns the per-request multipart limit in bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	return int64(m.MaxUploadMB) << 20
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
