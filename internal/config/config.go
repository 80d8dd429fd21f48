package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port          string
	Env           string
	MaxUploadMB   int64
	BatchTTL      time.Duration
	SweepInterval time.Duration
	RedisAddr     string
	DatabaseURL   string
	SentryDSN     string
	UpscalerURL   string
}

func Load() *Config {
	return &Config{
		Port:          getEnv("SERVICE_PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		MaxUploadMB:   getEnvAsInt64("MAX_UPLOAD_MB", 32),
		BatchTTL:      getEnvAsDuration("BATCH_TTL", time.Hour),
		SweepInterval: getEnvAsDuration("SWEEP_INTERVAL", 5*time.Minute),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		SentryDSN:     getEnv("SENTRY_DSN", ""),
		UpscalerURL:   getEnv("UPSCALER_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
