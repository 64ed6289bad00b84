package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the process reads from the environment.
type Config struct {
	Port          string
	MongoURI      string
	MongoDatabase string
	RedisURI      string
	JWTSecret     string
	JWTTTL        time.Duration
	EncryptKey    string
	EventPrefix   string
	AllowOrigins  []string
}

// FromEnv loads a .env file when present and builds the config with
// sensible development defaults. Secrets have no default: an empty
// JWTSecret or EncryptKey must be caught by the caller.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		Port:          getEnv("API_PORT", "8080"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "account"),
		RedisURI:      getEnv("REDIS_URI", "redis://localhost:6379"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTTTL:        getDuration("JWT_TTL_HOURS", 24) * time.Hour,
		EncryptKey:    os.Getenv("ENCRYPT_SECRET_KEY"),
		EventPrefix:   getEnv("EVENT_CHANNEL_PREFIX", "account"),
		AllowOrigins:  []string{getEnv("CORS_ALLOW_ORIGIN", "*")},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback int64) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return time.Duration(n)
		}
	}
	return time.Duration(fallback)
}
