package config

import (
	"errors"
	"time"
)

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr string `json:"addr"`
	// Token, when set, is required as a bearer token on every API call.
	Token              string `json:"token"`
	ReadTimeoutSeconds int    `json:"read_timeout_seconds"`
	// MaxBodyMB limits the size of plan requests.
	MaxBodyMB int `json:"max_body_mb"`
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeoutSeconds <= 0 {
		c.ReadTimeoutSeconds = 30
	}
	if c.MaxBodyMB <= 0 {
		c.MaxBodyMB = 8
	}
}

// Validate checks mandatory fields.
func (c HTTPConfig) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	return nil
}

// ReadTimeout returns the server read timeout.
func (c HTTPConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}
