// Package config loads and validates storefront configuration from YAML
// files and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/estora/storefront/logger"
)

// BackendConfig points the SDK at the WooCommerce/WordPress backend.
type BackendConfig struct {
	// BaseURL is the backend origin, e.g. "https://shop.example.com".
	// Required for any request targeting a /wp-json/ API path.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// CartPrefix is the CoCart API base path.
	CartPrefix string `yaml:"cart_prefix" mapstructure:"cart_prefix"`
	// StorePrefix is the Woo Store API base path.
	StorePrefix string `yaml:"store_prefix" mapstructure:"store_prefix"`
	// TokenPath is the JWT login endpoint path.
	TokenPath string `yaml:"token_path" mapstructure:"token_path"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *BackendConfig) ApplyDefaults() {
	if c.CartPrefix == "" {
		c.CartPrefix = "/wp-json/cocart/v2"
	}
	if c.StorePrefix == "" {
		c.StorePrefix = "/wp-json/wc/store/v1"
	}
	if c.TokenPath == "" {
		c.TokenPath = "/wp-json/jwt-auth/v1/token"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
}

// Validate checks that the backend configuration is consistent. An empty
// BaseURL is allowed here; the transport rejects API-path requests lazily so
// that non-API usage keeps working.
func (c *BackendConfig) Validate() error {
	if c.BaseURL != "" && !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("backend.base_url must be an absolute http(s) URL (got: %s)", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}
	return nil
}

// SessionConfig controls where credentials are persisted between runs.
type SessionConfig struct {
	// File is the path of the JSON credential file. Empty means in-memory only.
	File string `yaml:"file" mapstructure:"file"`
}

// ServerConfig holds the HTTP facade configuration.
type ServerConfig struct {
	Host         string `yaml:"host" mapstructure:"host"`
	Port         int    `yaml:"port" mapstructure:"port"`
	ReadTimeout  int    `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int    `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds
	IdleTimeout  int    `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *ServerConfig) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
}

// Validate validates server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got: %d)", c.Port)
	}
	return nil
}

// TracingConfig configures the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *TracingConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
}

// Config is the root configuration for the storefront service.
type Config struct {
	Name    string        `yaml:"name" mapstructure:"name"`
	Backend BackendConfig `yaml:"backend" mapstructure:"backend"`
	Session SessionConfig `yaml:"session" mapstructure:"session"`
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
}

// ApplyDefaults applies defaults to all sub-configurations.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "storefront"
	}
	c.Backend.ApplyDefaults()
	c.Logging.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Tracing.ApplyDefaults()
}

// Validate validates all sub-configurations.
func (c *Config) Validate() error {
	if err := c.Backend.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return c.Server.Validate()
}
