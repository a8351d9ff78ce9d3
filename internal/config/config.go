package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `validate:"required"`
	Environment string `validate:"oneof=development production test"`

	BackendURL     string        `validate:"required,url"`
	BackendTimeout time.Duration `validate:"gt=0"`
	RedisURL       string
	DatabaseURL    string

	// Forced logout on an invalid token
	LoginRoute          string        `validate:"required"`
	InvalidTokenMessage string        `validate:"required"`
	RedirectDelay       time.Duration `validate:"gte=0"`

	Session SessionConfig
	Casdoor CasdoorConfig
	Events  EventConfig
}

type SessionConfig struct {
	WarningAt        int    `validate:"gte=0"`
	DefaultDuration  int    `validate:"gt=0"`
	BlankMarker      string `validate:"required"`
	PageSize         int    `validate:"gt=0"`
	HeaderOffset     int    `validate:"gte=0"`
	QuestionCacheTTL time.Duration
}

type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Certificate  string
	Organization string
	Application  string
}

func (c CasdoorConfig) Enabled() bool {
	return c.Endpoint != "" && c.Certificate != ""
}

func LoadConfig() (*Config, error) {
	// .env is optional; real deployments pass plain environment variables
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return &Config{
		Port:                getEnv("PORT", "8090"),
		Environment:         getEnv("ENVIRONMENT", "development"),
		BackendURL:          getEnv("BACKEND_URL", "http://localhost:8080/api"),
		BackendTimeout:      getEnvDuration("BACKEND_TIMEOUT", 15*time.Second),
		RedisURL:            getEnv("REDIS_URL", ""),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		LoginRoute:          getEnv("LOGIN_ROUTE", "/login"),
		InvalidTokenMessage: getEnv("INVALID_TOKEN_MESSAGE", "invalid token"),
		RedirectDelay:       getEnvDuration("REDIRECT_DELAY", 1500*time.Millisecond),
		Session: SessionConfig{
			WarningAt:        getEnvInt("WARNING_AT_SECONDS", 121),
			DefaultDuration:  getEnvInt("DEFAULT_DURATION_SECONDS", 1800),
			BlankMarker:      getEnv("BLANK_MARKER", "___"),
			PageSize:         getEnvInt("PAGE_SIZE", 10),
			HeaderOffset:     getEnvInt("HEADER_OFFSET", 80),
			QuestionCacheTTL: getEnvDuration("QUESTION_CACHE_TTL", 5*time.Minute),
		},
		Casdoor: CasdoorConfig{
			Endpoint:     getEnv("CASDOOR_ENDPOINT", ""),
			ClientID:     getEnv("CASDOOR_CLIENT_ID", ""),
			ClientSecret: getEnv("CASDOOR_CLIENT_SECRET", ""),
			Certificate:  getEnv("CASDOOR_CERTIFICATE", ""),
			Organization: getEnv("CASDOOR_ORGANIZATION", ""),
			Application:  getEnv("CASDOOR_APPLICATION", ""),
		},
		Events: EventConfig{
			Enabled:      getEnvBool("EVENTS_ENABLED", false),
			Publisher:    getEnv("EVENTS_PUBLISHER", "kafka"),
			KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),
			SessionTopic: getEnv("SESSION_TOPIC", "test-sessions"),
		},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
