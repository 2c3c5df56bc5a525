// Package config defines the server's runtime configuration and an
// optional YAML file overlay, so operators can check a config into
// version control instead of repeating flags.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the fully resolved set of knobs the server needs to start.
type Config struct {
	Host           string
	Port           int
	StorePath      string
	Daemonize      bool
	TickerInterval time.Duration
	MetricsAddr    string // empty disables the metrics listener
	Debug          bool
	JSONLogs       bool
}

// Default returns the observable defaults the spec names: listening
// on 0.0.0.0:9000, a store at /var/tmp/aesdsocketdata, and a ten
// second ticker.
func Default() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           9000,
		StorePath:      "/var/tmp/aesdsocketdata",
		Daemonize:      false,
		TickerInterval: 10 * time.Second,
		MetricsAddr:    "",
		Debug:          false,
		JSONLogs:       false,
	}
}

// fileOverlay mirrors Config but with pointer fields so an absent key
// in the YAML file leaves the corresponding Config field untouched
// instead of zeroing it out.
type fileOverlay struct {
	Host                  *string `yaml:"host"`
	Port                  *int    `yaml:"port"`
	StorePath             *string `yaml:"store_path"`
	Daemonize             *bool   `yaml:"daemonize"`
	TickerIntervalSeconds *int    `yaml:"ticker_interval_seconds"`
	MetricsAddr           *string `yaml:"metrics_addr"`
	Debug                 *bool   `yaml:"debug"`
	JSONLogs              *bool   `yaml:"json_logs"`
}

// ApplyYAML overlays values present in the file at path onto c. Keys
// absent from the file leave the corresponding field unchanged.
func (c *Config) ApplyYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	if overlay.Host != nil {
		c.Host = *overlay.Host
	}
	if overlay.Port != nil {
		c.Port = *overlay.Port
	}
	if overlay.StorePath != nil {
		c.StorePath = *overlay.StorePath
	}
	if overlay.Daemonize != nil {
		c.Daemonize = *overlay.Daemonize
	}
	if overlay.TickerIntervalSeconds != nil {
		c.TickerInterval = time.Duration(*overlay.TickerIntervalSeconds) * time.Second
	}
	if overlay.MetricsAddr != nil {
		c.MetricsAddr = *overlay.MetricsAddr
	}
	if overlay.Debug != nil {
		c.Debug = *overlay.Debug
	}
	if overlay.JSONLogs != nil {
		c.JSONLogs = *overlay.JSONLogs
	}
	return nil
}

// Addr returns the "host:port" listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
