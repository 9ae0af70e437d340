package transport

import (
	"fmt"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// cartMarker is the path fragment identifying cart-subsystem requests.
const cartMarker = "/wp-json/cocart"

// apiPrefixes are the backend API path prefixes that must never be requested
// without a configured base URL.
var apiPrefixes = []string{"/wp-json/", "wp-json/"}

// Config configures the transport.
type Config struct {
	// BaseURL is the backend origin prepended to relative request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout is the default request timeout. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("transport: timeout must be positive")
	}
	return nil
}

// isAPIPath reports whether a path targets the backend's REST API namespace.
func isAPIPath(path string) bool {
	if path == "/wp-json" || path == "wp-json" {
		return true
	}
	for _, p := range apiPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// isCartURL reports whether a resolved URL targets the cart subsystem.
func isCartURL(url string) bool {
	return strings.Contains(url, cartMarker)
}
