package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port                int
	DatabasePath        string
	DeviceAPIKey        string // shared key presented by IoT devices on the ingestion endpoint
	InferenceURL        string // base URL of the external vision inference service
	InferenceTimeout    time.Duration
	ConfidenceThreshold float64 // minimum score for a species entry to count as a finding
	NotifyURLs          []string
	DeviceCacheTTL      time.Duration
	LogLevel            string
	LogFormat           string
}

func Load() *Config {
	return &Config{
		Port:                getEnvAsInt("PORT", 8080),
		DatabasePath:        getEnv("DB_PATH", filepath.Join("data", "farmguardian.db")),
		DeviceAPIKey:        getEnv("DEVICE_API_KEY", ""),
		InferenceURL:        getEnv("INFERENCE_URL", "http://localhost:8000"),
		InferenceTimeout:    getEnvAsDuration("INFERENCE_TIMEOUT_SECONDS", 30*time.Second),
		ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.2),
		NotifyURLs:          getEnvAsList("NOTIFY_URLS"),
		DeviceCacheTTL:      getEnvAsDuration("DEVICE_CACHE_TTL_SECONDS", 5*time.Minute),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "json"),
	}
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
