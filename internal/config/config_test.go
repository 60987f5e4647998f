package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_MAX_FAILED_ATTEMPTS", "")
	t.Setenv("AUTH_SESSION_TTL_HOURS", "")
	t.Setenv("EVENTS_BROKER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Auth.MaxFailedAttempts)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL())
	assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutDuration())
	assert.Equal(t, BrokerNone, cfg.Events.Broker)
	assert.Equal(t, 10*1024*1024, cfg.App.BodyLimit())
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("AUTH_LOCKOUT_MINUTES", "soon")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Auth.LockoutMinutes)
	assert.Equal(t, 5*time.Second, cfg.App.RequestTimeout())
}

func TestLoad_RejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownBroker(t *testing.T) {
	t.Setenv("EVENTS_BROKER", "kafka")
	_, err := Load()
	assert.Error(t, err)
}
