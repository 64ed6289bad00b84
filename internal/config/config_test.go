package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "account", cfg.MongoDatabase)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "account", cfg.EventPrefix)
	assert.Equal(t, []string{"*"}, cfg.AllowOrigins)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("MONGO_DATABASE", "accounts_test")
	t.Setenv("JWT_SECRET", "super-secret")
	t.Setenv("JWT_TTL_HOURS", "2")

	cfg := FromEnv()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "accounts_test", cfg.MongoDatabase)
	assert.Equal(t, "super-secret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
}

func TestFromEnvBadTTLFallsBack(t *testing.T) {
	t.Setenv("JWT_TTL_HOURS", "not-a-number")
	cfg := FromEnv()
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
}
