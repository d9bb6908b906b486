package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is everything slotd reads from the environment.
type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Slots    SlotsConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            string
	CORSOrigins     string
	BodyLimit       int
	ShutdownTimeout time.Duration
	Debug           bool
}

// RedisConfig configures the optional snapshot mirror.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	StateTTL time.Duration
}

// Address returns host:port.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// DatabaseConfig configures the optional postgres backing the search slot.
type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns a lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// StorageConfig configures the file store the preview slot reads.
type StorageConfig struct {
	Mode      string // "local" or "s3"
	UploadDir string
	AWSRegion string
	AWSBucket string
	AWSPrefix string
}

// SlotsConfig tunes the tracked operations.
type SlotsConfig struct {
	// Enabled lists the slots to serve; search is skipped without a database.
	Enabled      []string
	PreviewLimit int
	SearchTable  string
	// WaitTimeout bounds ?wait=true invocations.
	WaitTimeout time.Duration
}

// SlotEnabled reports whether name is listed in Slots.Enabled.
func (c *Config) SlotEnabled(name string) bool {
	for _, s := range c.Slots.Enabled {
		if s == name {
			return true
		}
	}
	return false
}

// Load reads the configuration from the environment, falling back to
// development defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server:   loadServerConfig(),
		Redis:    loadRedisConfig(),
		Database: loadDatabaseConfig(),
		Storage:  loadStorageConfig(),
		Slots:    loadSlotsConfig(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values slotd cannot start with.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("config: PORT must be numeric, got %q", c.Server.Port)
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("config: REDIS_HOST is required when REDIS_ENABLED is set")
	}
	if c.Database.Enabled && c.Slots.SearchTable == "" {
		return fmt.Errorf("config: SEARCH_TABLE is required when DB_ENABLED is set")
	}
	switch c.Storage.Mode {
	case "local":
		if c.Storage.UploadDir == "" {
			return fmt.Errorf("config: UPLOAD_DIR must not be empty")
		}
	case "s3":
		if c.Storage.AWSBucket == "" {
			return fmt.Errorf("config: AWS_BUCKET is required when STORAGE_MODE is s3")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_MODE %q (use 'local' or 's3')", c.Storage.Mode)
	}
	return nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:            getEnv("PORT", "8080"),
		CORSOrigins:     getEnv("CORS_ORIGINS", "*"),
		BodyLimit:       getEnvInt("BODY_LIMIT", 1024*1024),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		Debug:           getEnvBool("DEBUG", false),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:  getEnvBool("REDIS_ENABLED", false),
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnvInt("REDIS_PORT", 6379),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
		StateTTL: getEnvDuration("SLOTX_STATE_TTL", 24*time.Hour),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Enabled:         getEnvBool("DB_ENABLED", false),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", "postgres"),
		Name:            getEnv("DB_NAME", "slotx"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
	}
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Mode:      getEnv("STORAGE_MODE", "local"),
		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
		AWSRegion: getEnv("AWS_REGION", "us-east-1"),
		AWSBucket: getEnv("AWS_BUCKET", ""),
		AWSPrefix: getEnv("AWS_PREFIX", ""),
	}
}

func loadSlotsConfig() SlotsConfig {
	return SlotsConfig{
		Enabled:      getEnvStringSlice("SLOTX_SLOTS", []string{"echo", "preview", "search"}),
		PreviewLimit: getEnvInt("PREVIEW_LIMIT", 4096),
		SearchTable:  getEnv("SEARCH_TABLE", "documents"),
		WaitTimeout:  getEnvDuration("SLOTX_WAIT_TIMEOUT", 30*time.Second),
	}
}

// ---------------------------------------------------------------------------
// Env helpers
// ---------------------------------------------------------------------------

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvStringSlice(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
