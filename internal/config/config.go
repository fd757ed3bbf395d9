package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL            string
	BaseURL                string  // Base URL short links are built from
	RedisURL               string  // Optional; empty disables the lookup cache
	GeoIPDBPath            string  // Optional MaxMind database; empty disables geolocation
	Port                   int     // HTTP listen port
	RateLimitRPS           float64 // Rate limit for API endpoints (requests per second)
	RateLimitBurst         int     // Burst size for API rate limiting
	RateLimitRedirectRPS   float64 // Rate limit for redirects (more lenient)
	RateLimitRedirectBurst int     // Burst size for redirects
}

func Load() *Config {
	// Try to load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or defaults")
	}

	return &Config{
		DatabaseURL:            getEnv("DATABASE_URL", "postgres://localhost:5432/snaplink?sslmode=disable"),
		BaseURL:                getEnv("BASE_URL", "http://localhost:8080"),
		RedisURL:               getEnv("REDIS_URL", ""),
		GeoIPDBPath:            getEnv("GEOIP_DB_PATH", ""),
		Port:                   getEnvInt("PORT", 8080),
		RateLimitRPS:           getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:         getEnvInt("RATE_LIMIT_BURST", 20),
		RateLimitRedirectRPS:   getEnvFloat("RATE_LIMIT_REDIRECT_RPS", 30),
		RateLimitRedirectBurst: getEnvInt("RATE_LIMIT_REDIRECT_BURST", 60),
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
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
