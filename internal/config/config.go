package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Client    ClientConfig
	CredStore CredStoreConfig
	Redis     RedisConfig
	DynamoDB  DynamoDBConfig
	Sim       SimConfig
	LogLevel  string
}

type ClientConfig struct {
	BaseURL            string
	Timeout            time.Duration
	RevalidateInterval time.Duration
}

// CredStoreConfig selects where credentials live between runs. Backend is
// one of file, memory, redis or dynamo.
type CredStoreConfig struct {
	Backend string
	Dir     string
	Scope   string
}

type RedisConfig struct {
	Endpoint string
	Password string
	DB       int
}

type DynamoDBConfig struct {
	Endpoint  string
	Region    string
	TableName string
}

// SimConfig configures the bundled backend simulator.
type SimConfig struct {
	Port         string
	Secret       string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	MaxSessions  int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment wins either way.
	godotenv.Load()

	cfg := &Config{
		Client: ClientConfig{
			BaseURL:            getEnv("RAILOPS_API_URL", "http://localhost:8080/api/v1"),
			Timeout:            getEnvAsDuration("RAILOPS_HTTP_TIMEOUT", 15*time.Second),
			RevalidateInterval: getEnvAsDuration("RAILOPS_REVALIDATE_INTERVAL", 5*time.Minute),
		},
		CredStore: CredStoreConfig{
			Backend: getEnv("RAILOPS_CRED_STORE", "file"),
			Dir:     getEnv("RAILOPS_CRED_DIR", defaultCredDir()),
			Scope:   getEnv("RAILOPS_CRED_SCOPE", "default"),
		},
		Redis: RedisConfig{
			Endpoint: getEnv("REDIS_ENDPOINT", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		DynamoDB: DynamoDBConfig{
			Endpoint:  getEnv("DYNAMODB_ENDPOINT", ""),
			Region:    getEnv("DYNAMODB_REGION", "ap-south-1"),
			TableName: getEnv("DYNAMODB_TABLE_NAME", "RailOpsSessions"),
		},
		Sim: SimConfig{
			Port:         getEnv("FLEETSIM_PORT", "8080"),
			Secret:       getEnv("FLEETSIM_JWT_SECRET", ""),
			AccessTTL:    getEnvAsDuration("FLEETSIM_ACCESS_TTL", 15*time.Minute),
			RefreshTTL:   getEnvAsDuration("FLEETSIM_REFRESH_TTL", 7*24*time.Hour),
			MaxSessions:  getEnvAsInt("FLEETSIM_MAX_SESSIONS", 5),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		LogLevel: getEnv("RAILOPS_LOG_LEVEL", "info"),
	}

	switch cfg.CredStore.Backend {
	case "file", "memory", "redis", "dynamo":
	default:
		return nil, fmt.Errorf("RAILOPS_CRED_STORE must be file, memory, redis or dynamo, got %q", cfg.CredStore.Backend)
	}

	return cfg, nil
}

func defaultCredDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".railops"
	}
	return home + "/.railops"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
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
