package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	RiotAPIKey string
	Region     string
	DBPath     string
	ServerPort string
	LogLevel   string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		RiotAPIKey: getEnv("RIOT_API_KEY", ""),
		Region:     getEnv("RIOT_REGION", "europe"),
		DBPath:     getEnv("DB_PATH", "arena.db"),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}

	if cfg.RiotAPIKey == "" {
		return nil, fmt.Errorf("RIOT_API_KEY is required")
	}

	logger.Info().
		Str("region", cfg.Region).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
