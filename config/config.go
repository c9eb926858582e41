package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMySQL  = "mysql"
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	ServerAddr string
	Env        string
	LogLevel   string

	// Storage
	StoreDriver   string
	MysqlDSN      string
	MongoURI      string
	MongoDatabase string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Realtime fan-out across instances, optional
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	// Domain events, optional
	NatsURL    string
	NatsStream string

	CORSAllowedOrigins []string
}

// Load reads configuration from the environment, after an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddr:         ":" + getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", ""),
		StoreDriver:        getEnv("STORE_DRIVER", StoreMySQL),
		MysqlDSN:           getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/friendbox?charset=utf8mb4&parseTime=True&loc=UTC"),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:      getEnv("MONGO_DATABASE", "friendbox"),
		JWTSecret:          getEnv("JWT_SECRET", "friendbox-secret-key-change-in-production"),
		TokenTTL:           time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		RedisChannel:       getEnv("REDIS_CHANNEL", "friendbox:events"),
		NatsURL:            getEnv("NATS_URL", ""),
		NatsStream:         getEnv("NATS_STREAM", "FRIENDBOX"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMySQL:
		if c.MysqlDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required")
		}
	case StoreMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return fmt.Errorf("MONGO_URI and MONGO_DATABASE are required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL_HOURS must be positive")
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
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
