// Package config loads the sidecar configuration from the environment,
// with an optional .env file for development.
package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the cache sidecar.
type Config struct {
	ListenAddr string
	BackendURL string
	StorePath  string

	LocalAuthToken string

	AMQPURL      string
	AMQPExchange string
	Environment  string
	DebugRoutes  bool

	ChatPollInterval         time.Duration
	NotificationPollInterval time.Duration
	NotificationTTL          time.Duration
}

// Load reads the configuration, falling back to development defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("no .env file loaded: %v", err)
	}

	return Config{
		ListenAddr:     getEnv("CACHE_LISTEN_ADDR", "127.0.0.1:8090"),
		BackendURL:     getEnv("BACKEND_URL", "http://localhost:5000"),
		StorePath:      getEnv("STORE_PATH", "study-cache.db"),
		LocalAuthToken: getEnv("LOCAL_AUTH_TOKEN", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "app.events"),
		Environment:  getEnv("ENVIRONMENT", "dev"),
		DebugRoutes:  getEnv("DEBUG_ROUTES", "") == "1",

		ChatPollInterval:         getDuration("CHAT_POLL_INTERVAL", 5*time.Second),
		NotificationPollInterval: getDuration("NOTIFICATION_POLL_INTERVAL", 10*time.Second),
		NotificationTTL:          getDuration("NOTIFICATION_TTL", time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("invalid duration for %s: %v, using %s", key, err, fallback)
		return fallback
	}
	return parsed
}
