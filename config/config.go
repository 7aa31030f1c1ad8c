package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/rosterplan/core/metrics"
	"github.com/kilianp07/rosterplan/core/planner"
	"github.com/kilianp07/rosterplan/core/runlog"
	"github.com/kilianp07/rosterplan/infra/mqtt"
)

type Config struct {
	Planner  planner.Config `json:"planner"`
	Inputs   InputsConfig   `json:"inputs"`
	Sessions SessionsConfig `json:"sessions"`
	Output   OutputConfig   `json:"output"`
	RunLog   runlog.Config  `json:"runlog"`
	Metrics  metrics.Config `json:"metrics"`
	MQTT     mqtt.Config    `json:"mqtt"`
	Sentry   SentryConfig   `json:"sentry"`
	Logging  LoggingConfig  `json:"logging"`
	HTTP     HTTPConfig     `json:"http"`
}

// Load reads path (YAML or JSON) and applies K_ environment overrides, e.g.
// K_PLANNER__TIMEOUT_SECONDS=60. An empty path loads defaults and the
// environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// K_SECTION__KEY becomes section.key.
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	// Derived defaults (output format, runlog path) depend on loaded
	// values, so they are applied after unmarshalling.
	cfg := &Config{Planner: planner.DefaultConfig()}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with every section defaulted.
func Default() *Config {
	cfg := &Config{Planner: planner.DefaultConfig()}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Planner.SetDefaults()
	c.Sessions.SetDefaults()
	c.Output.SetDefaults()
	c.RunLog.SetDefaults()
	c.MQTT.SetDefaults()
	c.Logging.SetDefaults()
	c.HTTP.SetDefaults()
	c.Sentry.SetDefaults()
}

// Validate checks every section and reports all failures at once.
func (c *Config) Validate() error {
	var errs []error
	wrap := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}
	wrap("planner", c.Planner.Validate())
	wrap("sessions", c.Sessions.Validate())
	wrap("output", c.Output.Validate())
	wrap("runlog", c.RunLog.Validate())
	wrap("mqtt", c.MQTT.Validate())
	wrap("logging", c.Logging.Validate())
	wrap("http", c.HTTP.Validate())
	wrap("sentry", c.Sentry.Validate())
	for i, s := range c.Metrics.Sinks {
		if s.Type == "" {
			wrap("metrics", fmt.Errorf("sink %d: type is required", i))
		}
	}
	return errors.Join(errs...)
}
