package runlog

import "fmt"

// Backend names accepted by Open.
const (
	BackendNone     = "none"
	BackendJSONL    = "jsonl"
	BackendRotating = "jsonl_rotating"
	BackendSQLite   = "sqlite"
)

// Config selects and configures the run history backend.
type Config struct {
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendJSONL
	}
	if c.Path == "" {
		switch c.Backend {
		case BackendSQLite:
			c.Path = "runs.db"
		default:
			c.Path = "runs.jsonl"
		}
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 5
	}
	if c.MaxAgeDays <= 0 {
		c.MaxAgeDays = 30
	}
}

// Validate checks the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case "", BackendNone, BackendJSONL, BackendRotating, BackendSQLite:
		return nil
	default:
		return fmt.Errorf("runlog: unknown backend %q", c.Backend)
	}
}

// Open creates the configured store.
func Open(c Config) (LogStore, error) {
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Backend {
	case BackendNone:
		return NopStore{}, nil
	case BackendRotating:
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	case BackendSQLite:
		return NewSQLiteStore(c.Path)
	default:
		return NewJSONLStore(c.Path)
	}
}
