package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/ideforge/internal/filex"
)

// Config holds runtime settings for the ideforge CLI.
type Config struct {
	ServerURL   string
	SessionPath string
	// Timeout bounds each API call. Provisioning waits for the workflow
	// engine, so it is generous.
	Timeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:3000"
	c.SessionPath = filex.DefaultStatePath("session.db")
	c.Timeout = 10 * time.Minute
}

// LoadConfig returns defaults overlaid with the environment. The cli
// package applies the config file and flags on top.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.ApplyEnv(os.LookupEnv)
	return cfg
}

// ApplyEnv overlays IDEFORGE_SERVER, IDEFORGE_SESSION and IDEFORGE_TIMEOUT.
// An unparsable timeout is ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("IDEFORGE_SERVER"); ok && v != "" {
		c.ServerURL = v
	}
	if v, ok := lookup("IDEFORGE_SESSION"); ok && v != "" {
		c.SessionPath = v
	}
	if v, ok := lookup("IDEFORGE_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
}
