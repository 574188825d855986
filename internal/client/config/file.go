package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/ideforge/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape; absent keys leave values untouched.
type FileConfig struct {
	ServerURL   *string         `json:"server_url" yaml:"server_url"`
	SessionPath *string         `json:"session_path" yaml:"session_path"`
	Timeout     *timex.Duration `json:"timeout" yaml:"timeout"`
}

// ApplyFile overlays values from path. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.ServerURL != nil {
		c.ServerURL = *fc.ServerURL
	}
	if fc.SessionPath != nil {
		c.SessionPath = *fc.SessionPath
	}
	if fc.Timeout != nil {
		c.Timeout = fc.Timeout.Duration
	}
	return nil
}
