package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppName string
	Env     string
	Host    string
	Port    int

	// DatabaseURL is set when PostgreSQL is configured; otherwise the
	// embedded SQLite database at SQLitePath is used.
	DatabaseURL string
	SQLitePath  string

	// RedisAddr, when set, backs merchant presence with Redis.
	RedisAddr     string
	RedisPassword string

	JWTSecret          string
	AccessTokenMinutes int
	EncryptKey         string

	// Optional generative-text provider (OpenAI-compatible gateway).
	AIBaseURL        string
	AIAPIKey         string
	AIModel          string
	AITimeoutSeconds int

	CORSOrigins                []string
	MaxMessagesPerConversation int
	SweepIntervalSeconds       int
	Debug                      bool
}

func Load() (*Config, error) {
	// Local development convenience; a missing .env file is fine.
	_ = godotenv.Load()

	cfg := &Config{
		AppName: getEnv("APP_NAME", "negoshop"),
		Env:     getEnv("APP_ENV", "development"),
		Host:    getEnv("HTTP_HOST", "0.0.0.0"),
		Port:    getEnvAsInt("HTTP_PORT", 8000),

		SQLitePath: getEnv("SQLITE_PATH", "negoshop.db"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		AccessTokenMinutes: getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24),
		EncryptKey:         os.Getenv("ENCRYPTION_KEY"),

		AIBaseURL:        getEnv("AI_BASE_URL", ""),
		AIAPIKey:         os.Getenv("AI_API_KEY"),
		AIModel:          getEnv("AI_MODEL", "deepseek/deepseek-chat-v3.1:free"),
		AITimeoutSeconds: getEnvAsInt("AI_TIMEOUT_SECONDS", 30),

		MaxMessagesPerConversation: getEnvAsInt("MAX_MESSAGES_PER_CONVERSATION", 1000),
		SweepIntervalSeconds:       getEnvAsInt("PRESENCE_SWEEP_INTERVAL_SECONDS", 30),
		Debug:                      getEnvAsBool("DEBUG", true),
	}

	if host := os.Getenv("POSTGRES_HOST"); host != "" {
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(getEnv("POSTGRES_USER", "postgres"), getEnv("POSTGRES_PASSWORD", "postgres")),
			Host:     fmt.Sprintf("%s:%s", host, getEnv("POSTGRES_PORT", "5432")),
			Path:     getEnv("POSTGRES_DB", "negoshop"),
			RawQuery: "sslmode=disable",
		}
		cfg.DatabaseURL = u.String()
	}

	cors := getEnv("CORS_ORIGINS", "")
	if cors != "" {
		parts := strings.Split(cors, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.CORSOrigins = parts
	} else {
		cfg.CORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.EncryptKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}

	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvAsBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
