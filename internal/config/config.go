package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Environment    string
	LogLevel       slog.Level
	OracleProvider string
	AnthropicKey   string
	OpenAIKey      string
	ModelName      string
	RedisURL       string
	DataDir        string
	MaxRounds      int
}

// Load reads configuration from the environment. A missing credential for
// the selected oracle provider is an error; the mock provider needs none.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       parseLogLevel(getEnv("LOG_LEVEL", "info")),
		OracleProvider: strings.ToLower(getEnv("ORACLE_PROVIDER", "anthropic")),
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		ModelName:      os.Getenv("MODEL_NAME"),
		RedisURL:       getEnv("REDIS_URL", "localhost:6379"),
		DataDir:        getEnv("DATA_DIR", "./data"),
		MaxRounds:      getEnvInt("MAX_ROUNDS", 5),
	}

	switch cfg.OracleProvider {
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required when ORACLE_PROVIDER=anthropic")
		}
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when ORACLE_PROVIDER=openai")
		}
	case "mock":
	default:
		return nil, fmt.Errorf("unknown ORACLE_PROVIDER %q", cfg.OracleProvider)
	}

	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
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
