package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	RedisHost     string
	RedisPort     string
	SessionSecret string
	GinMode       string
}

// WatchConfig configures the boardwatch client: where the API lives,
// how to authenticate, and how its board session batches edits.
type WatchConfig struct {
	APIBaseURL string
	Username   string
	Password   string

	// ProjectID scopes the watched board; zero watches every project.
	ProjectID uint64

	SyncFlushThreshold int
	SyncIdleFlush      time.Duration
}

func Load() *Config {
	return &Config{
		DBDriver:      getEnv("DB_DRIVER", "mysql"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "3306"),
		DBUser:        getEnv("DB_USER", "boarduser"),
		DBPassword:    getEnv("DB_PASSWORD", "boardpassword"),
		DBName:        getEnv("DB_NAME", "statusboard"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:       getEnv("GIN_MODE", "debug"),
	}
}

// LoadWatch loads the boardwatch client configuration from the
// environment.
func LoadWatch() *WatchConfig {
	return &WatchConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Username:   getEnv("BOARD_USERNAME", ""),
		Password:   getEnv("BOARD_PASSWORD", ""),
		ProjectID:  getEnvUint64("PROJECT_ID", 0),

		SyncFlushThreshold: getEnvInt("SYNC_FLUSH_THRESHOLD", 5),
		SyncIdleFlush:      time.Duration(getEnvInt("SYNC_IDLE_FLUSH_MINUTES", 5)) * time.Minute,
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getEnvUint64(key string, defaultValue uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}
