package config

import (
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

func NewKoanf(log *zap.Logger) *koanf.Koanf {
	k := koanf.New(".")

	// Load from .env file if available (for local development)
	err := k.Load(file.Provider(".env"), dotenv.Parser())
	if err != nil {
		// .env file not found is OK in Docker (env vars from docker-compose)
		log.Debug(".env file not found, using environment variables", zap.Error(err))
	}

	// Environment variables override .env values
	err = k.Load(env.Provider("", ".", nil), nil)
	if err != nil {
		log.Fatal("failed to load environment variables", zap.Error(err))
	}

	return k
}

// StringOr returns the value of key, or fallback when it is unset or empty.
func StringOr(config *koanf.Koanf, key string, fallback string) string {
	value := config.String(key)
	if value == "" {
		return fallback
	}

	return value
}

// DurationOr parses key as a Go duration ("30m", "10s"), or returns fallback
// when it is unset or not a positive duration.
func DurationOr(config *koanf.Koanf, key string, fallback time.Duration) time.Duration {
	value := config.Duration(key)
	if value <= 0 {
		return fallback
	}

	return value
}

func IntOr(config *koanf.Koanf, key string, fallback int) int {
	if !config.Exists(key) {
		return fallback
	}

	value := config.Int(key)
	if value <= 0 {
		return fallback
	}

	return value
}
