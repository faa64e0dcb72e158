package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/lina/engine/core"
)

const (
	DefaultConfigFile = "lina.toml"
	envPrefix         = "LINA_"
)

// LoadConfig builds the application config from the defaults, the TOML file
// at path when it exists, and LINA_* environment variables, in that order.
func LoadConfig(path string) (*ApplicationConfig, error) {
	cfg := DefaultApplicationConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			core.LogDebug("config file %s not found, using defaults", path)
		case err != nil:
			return nil, fmt.Errorf("func LoadConfig - failed to read %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("func LoadConfig - failed to parse %s: %w", path, err)
			}
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("func LoadConfig - failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ApplicationConfig) Validate() error {
	if c.Mode == core.ApplicationModeUnknown {
		return fmt.Errorf("application mode is required")
	}
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.PassKey == "" {
		return fmt.Errorf("pass key is required")
	}
	if c.DefaultLevel == "" {
		return fmt.Errorf("default level name is required")
	}
	return nil
}
