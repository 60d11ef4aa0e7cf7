package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"execauth/internal/execcred"
)

// DefaultAPIVersion is assumed when the config file does not name the schema
// version the plugin emits.
const DefaultAPIVersion = "client.authentication.k8s.io/v1beta1"

// Config is the top-level execauth configuration.
type Config struct {
	// Exec describes the external credential plugin.
	Exec execcred.ExecConfig `yaml:"exec"`

	// Timeout bounds plugin wall-clock execution. Defaults to 2m.
	Timeout Duration `yaml:"timeout,omitempty"`

	// LogLevel selects the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"logLevel,omitempty"`
}

// Duration wraps time.Duration so YAML values like "2m" or "90s" parse
// naturally.
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// GetDefaultConfig returns the built-in defaults applied before the config
// file is overlaid.
func GetDefaultConfig() Config {
	return Config{
		Exec: execcred.ExecConfig{
			APIVersion: DefaultAPIVersion,
		},
		Timeout:  Duration{execcred.DefaultExecTimeout},
		LogLevel: "info",
	}
}
