package config

import (
	"errors"
	"net/url"
)

// SentryConfig enables error reporting for unexpected planner failures.
// An empty DSN keeps reporting off.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	Release          string  `json:"release"`
	ServerName       string  `json:"server_name"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Debug            bool    `json:"debug"`
}

// Enabled reports whether a DSN is configured.
func (c SentryConfig) Enabled() bool { return c.DSN != "" }

// SetDefaults fills the environment name.
func (c *SentryConfig) SetDefaults() {
	if c.Environment == "" {
		c.Environment = "production"
	}
}

// Validate checks the DSN shape and sample rate.
func (c SentryConfig) Validate() error {
	var errs []error
	if c.DSN != "" {
		if u, err := url.Parse(c.DSN); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, errors.New("dsn must be an absolute URL"))
		}
	}
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		errs = append(errs, errors.New("traces_sample_rate must be between 0 and 1"))
	}
	return errors.Join(errs...)
}
