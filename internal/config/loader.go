package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"execauth/internal/execcred"
	"execauth/pkg/logging"
)

const (
	userConfigDir  = ".config/execauth"
	configFileName = "config.yaml"
)

// GetDefaultConfigPathOrPanic returns the default configuration directory
// (~/.config/execauth). It panics when the home directory cannot be
// determined, which only happens in badly broken environments.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}
	return filepath.Join(homeDir, userConfigDir)
}

// DefaultConfigFilePath returns the path of the default config file.
func DefaultConfigFilePath() string {
	return filepath.Join(GetDefaultConfigPathOrPanic(), configFileName)
}

// LoadConfig loads configuration from the config.yaml inside the given
// directory, overlaying it onto the built-in defaults. A missing file yields
// the defaults; a malformed file is an error.
func LoadConfig(configPath string) (Config, error) {
	return LoadConfigFile(filepath.Join(configPath, configFileName))
}

// LoadConfigFile loads configuration from a specific file path.
func LoadConfigFile(configFilePath string) (Config, error) {
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config file found at %s, using defaults", configFilePath)
			return config, nil
		}
		return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}

	logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}

// Validate checks that the configuration can drive a plugin invocation.
// Violations are reported as execcred.ConfigurationError so callers can map
// them to the configuration exit code.
func Validate(config Config) error {
	if config.Exec.Command == "" {
		return newConfigError("exec.command", "no plugin command configured")
	}
	if config.Exec.APIVersion == "" {
		return newConfigError("exec.apiVersion", "no plugin apiVersion configured")
	}
	for i, entry := range config.Exec.Env {
		if entry.Name == "" {
			return newConfigError(fmt.Sprintf("exec.env[%d]", i), "environment variable entry is missing a name")
		}
		if entry.Value == nil {
			return newConfigError(fmt.Sprintf("exec.env[%d] (%s)", i, entry.Name), "environment variable entry is missing a value")
		}
	}
	return nil
}

// newConfigError builds a ConfigurationError for a config file entry.
func newConfigError(entry, message string) error {
	return &execcred.ConfigurationError{Entry: entry, Message: message}
}
