package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds connection settings for a Resolume websocket session.
type Config struct {
	Host             string        // Resolume host, required
	Port             int           // webserver port, default 8080
	PingInterval     time.Duration // keepalive ping cadence
	PingTimeout      time.Duration // pong wait after a ping
	HandshakeTimeout time.Duration // websocket dial timeout
	SendRetryWait    time.Duration // reconnect wait on the send retry path
	BackoffFloor     time.Duration // first reconnect delay
	BackoffCap       time.Duration // maximum reconnect delay
}

// Default returns the default session configuration.
func Default() *Config {
	return &Config{
		Host:             "localhost",
		Port:             8080,
		PingInterval:     20 * time.Second,
		PingTimeout:      20 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		SendRetryWait:    10 * time.Second,
		BackoffFloor:     1 * time.Second,
		BackoffCap:       60 * time.Second,
	}
}

// FromEnv loads session configuration from environment variables.
// Falls back to defaults for any missing values.
func FromEnv() *Config {
	cfg := Default()

	if host := os.Getenv("RESOLUME_HOST"); host != "" {
		cfg.Host = host
	}
	if portStr := os.Getenv("RESOLUME_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Port = port
		}
	}
	return cfg
}

// URL returns the websocket endpoint for this configuration.
func (c *Config) URL() string {
	return fmt.Sprintf("ws://%s:%d/api/v1", c.Host, c.Port)
}

// BaseHTTP returns the companion plain HTTP endpoint root, used for
// thumbnail retrieval.
func (c *Config) BaseHTTP() string {
	return fmt.Sprintf("http://%s:%d/api/v1", c.Host, c.Port)
}
