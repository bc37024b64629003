package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Appearance modes.
const (
	AppearanceSystem = "System"
	AppearanceLight  = "Light"
	AppearanceDark   = "Dark"
)

// DefaultColorTheme is the built-in accent theme used when the config
// file does not name one.
const DefaultColorTheme = "blue"

// Config holds the persisted application settings. It keeps the viper
// instance it was read with so unknown keys present in the file survive
// a save.
type Config struct {
	AppearanceMode       string `mapstructure:"appearance_mode"`
	ColorTheme           string `mapstructure:"color_theme"`
	NotificationsEnabled bool   `mapstructure:"notifications_enabled"`
	DBPath               string `mapstructure:"db_path"`

	v    *viper.Viper
	path string
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mytodo/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mytodo", "config.yaml")
}

// DefaultDBPath returns the default location of the task database.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "todo.db")
	}
	return filepath.Join(home, ".local", "share", "mytodo", "todo.db")
}

// LoadConfig reads configuration from the given YAML file path using
// Viper. Missing keys fall back to defaults; a missing file yields the
// full default configuration.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("appearance_mode", AppearanceSystem)
	v.SetDefault("color_theme", DefaultColorTheme)
	v.SetDefault("notifications_enabled", true)
	v.SetDefault("db_path", DefaultDBPath())

	if err := v.ReadInConfig(); err != nil {
		_, pathErr := err.(*os.PathError)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !pathErr && !notFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{v: v, path: path}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration back to its file, creating parent
// directories if needed. Keys not recognized by this version are written
// back unchanged because they are still held by the viper instance.
func (c *Config) Save() error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	c.v.Set("appearance_mode", c.AppearanceMode)
	c.v.Set("color_theme", c.ColorTheme)
	c.v.Set("notifications_enabled", c.NotificationsEnabled)
	c.v.Set("db_path", c.DBPath)

	if err := c.v.WriteConfigAs(c.path); err != nil {
		return fmt.Errorf("writing config to %s: %w", c.path, err)
	}
	return nil
}

// SetColorTheme updates the accent theme and reports whether the change
// requires an application restart to take effect.
func (c *Config) SetColorTheme(name string) (restartRequired bool) {
	restartRequired = name != c.ColorTheme
	c.ColorTheme = name
	return restartRequired
}
