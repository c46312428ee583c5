package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// configFileMode is the permission mode for written config files.
const configFileMode = 0o600

// ErrConfigExists indicates the target config file already exists.
var ErrConfigExists = errors.New("config file already exists")

// yamlHeader is prepended to generated config files.
const yamlHeader = "# musicore-playback configuration.\n"

// RenderYAML renders a configuration as a YAML document, in the layout
// the config file uses.
func RenderYAML(cfg *Config) (string, error) {
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}

	return string(body), nil
}

// DefaultYAML renders the default configuration as a YAML document.
func DefaultYAML() ([]byte, error) {
	cfg := Default()

	body, err := RenderYAML(&cfg)
	if err != nil {
		return nil, err
	}

	return append([]byte(yamlHeader), body...), nil
}

// WriteDefault writes the default config file to path.
// Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	_, statErr := os.Stat(path)
	if statErr == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	if !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("stat config: %w", statErr)
	}

	body, err := DefaultYAML()
	if err != nil {
		return err
	}

	writeErr := os.WriteFile(path, body, configFileMode)
	if writeErr != nil {
		return fmt.Errorf("write config: %w", writeErr)
	}

	return nil
}
