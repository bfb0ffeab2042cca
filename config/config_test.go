package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 20*time.Second, cfg.PingInterval)
	assert.Equal(t, 20*time.Second, cfg.PingTimeout)
	assert.Equal(t, 10*time.Second, cfg.SendRetryWait)
	assert.Equal(t, 1*time.Second, cfg.BackoffFloor)
	assert.Equal(t, 60*time.Second, cfg.BackoffCap)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("RESOLUME_HOST", "10.0.0.5")
	t.Setenv("RESOLUME_PORT", "8081")

	cfg := FromEnv()
	assert.Equal(t, "10.0.0.5", cfg.Host)
	assert.Equal(t, 8081, cfg.Port)
}

func TestFromEnvInvalidPort(t *testing.T) {
	t.Setenv("RESOLUME_PORT", "not-a-port")

	cfg := FromEnv()
	assert.Equal(t, 8080, cfg.Port)
}

func TestEndpoints(t *testing.T) {
	cfg := Default()
	cfg.Host = "arena.local"
	cfg.Port = 8080

	assert.Equal(t, "ws://arena.local:8080/api/v1", cfg.URL())
	assert.Equal(t, "http://arena.local:8080/api/v1", cfg.BaseHTTP())
}
