package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/terraedit/internal/brush"
)

// Path returns the file the config was loaded from, or the default
// location in the user's config directory.
func (c *Config) Path() string {
	if c.path != "" {
		return c.path
	}
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Save writes the config back to Path.
func (c *Config) Save() error {
	return c.SaveTo(c.Path())
}

// SaveTo writes the config to a specific path, replacing it only once the
// new file is complete.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	c.path = path
	return nil
}

// Remember records the editor state changed at runtime. It reports whether
// anything differs from what the config already holds.
func (c *Config) Remember(b brush.Settings, wireframe bool) bool {
	if c.Brush == b && c.Terrain.Wireframe == wireframe {
		return false
	}
	c.Brush = b
	c.Terrain.Wireframe = wireframe
	return true
}
