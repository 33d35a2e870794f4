// Package config handles Forge configuration using Viper.
//
// Configuration sources (in priority order):
//  1. Environment variables (FORGE_*)
//  2. Config file (~/.config/forge/config.yaml)
//  3. Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultAPIURL is the default TryForce generation API endpoint.
	DefaultAPIURL = "http://localhost:8000"
	// DefaultProvider is the default identity provider profile.
	DefaultProvider = "cognito"
	// DefaultRedirectPort is the default loopback port for the sign-in callback.
	DefaultRedirectPort = 8585
	// DefaultRefreshWindow is how close to expiry the token refresher kicks in.
	DefaultRefreshWindow = 5 * time.Minute
)

// Keys lists every configuration key Forge understands, in display order.
func Keys() []string {
	return []string{
		"api.url",
		"auth.provider",
		"auth.authority",
		"auth.client_id",
		"auth.redirect_port",
		"auth.refresh_window",
		"history.dir",
		"studio.preset",
	}
}

// Config holds the Forge configuration.
type Config struct {
	v *viper.Viper
}

// Load reads configuration from all sources.
func Load() *Config {
	v := viper.New()

	// Set defaults
	v.SetDefault("api.url", DefaultAPIURL)
	v.SetDefault("auth.provider", DefaultProvider)
	v.SetDefault("auth.redirect_port", DefaultRedirectPort)
	v.SetDefault("auth.refresh_window", DefaultRefreshWindow.String())

	// Config file location
	home, err := os.UserHomeDir()
	if err == nil {
		configDir := filepath.Join(home, ".config", "forge")
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Environment variables
	v.SetEnvPrefix("FORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found, but warn on other errors)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: error reading config file: %v\n", err)
		}
	}

	return &Config{v: v}
}

// Get returns a configuration value.
func (c *Config) Get(key string) interface{} {
	return c.v.Get(key)
}

// GetString returns a configuration value as string.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt returns a configuration value as int.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// Set sets a configuration value and persists it.
func (c *Config) Set(key string, value interface{}) error {
	c.v.Set(key, value)

	// Ensure config directory exists
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".config", "forge")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}

	configFile := filepath.Join(configDir, "config.yaml")
	return c.v.WriteConfigAs(configFile)
}

// All returns all configuration as a map.
func (c *Config) All() map[string]interface{} {
	return c.v.AllSettings()
}

// APIURL returns the configured generation API URL.
func (c *Config) APIURL() string {
	return c.GetString("api.url")
}

// Provider returns the identity provider profile name.
func (c *Config) Provider() string {
	return c.GetString("auth.provider")
}

// Authority returns the identity provider authority URL override, if any.
func (c *Config) Authority() string {
	return c.GetString("auth.authority")
}

// ClientID returns the identity provider client id override, if any.
func (c *Config) ClientID() string {
	return c.GetString("auth.client_id")
}

// RedirectPort returns the loopback port for the sign-in callback.
func (c *Config) RedirectPort() int {
	return c.GetInt("auth.redirect_port")
}

// RefreshWindow returns how close to expiry tokens are refreshed.
func (c *Config) RefreshWindow() time.Duration {
	d, err := time.ParseDuration(c.GetString("auth.refresh_window"))
	if err != nil || d <= 0 {
		return DefaultRefreshWindow
	}

	return d
}

// HistoryDir returns the session history directory override, if any.
func (c *Config) HistoryDir() string {
	return c.GetString("history.dir")
}

// DefaultPreset returns the preset the studio opens with, if any.
func (c *Config) DefaultPreset() string {
	return c.GetString("studio.preset")
}
