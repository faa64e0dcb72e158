package engine

import (
	"github.com/spaghettifunk/lina/engine/core"
)

type ApplicationConfig struct {
	// The application name used in logs.
	Name string `toml:"name" env:"NAME"`
	// Where resources come from: loose files in the editor modes, packages in standalone.
	Mode core.ApplicationMode `toml:"mode" env:"MODE"`
	// debug, info, warn or error.
	LogLevel string `toml:"log_level" env:"LOG_LEVEL"`
	// Root of the loose resources scanned by the editor.
	ResourcesRoot string `toml:"resources_root" env:"RESOURCES_ROOT"`
	// Folder holding the .linalevel and .linabundle files.
	LevelDir string `toml:"level_dir" env:"LEVEL_DIR"`
	// Level imported on startup in standalone mode.
	DefaultLevel string `toml:"default_level" env:"DEFAULT_LEVEL"`
	// Token embedded in packages and checked when unpacking them.
	PassKey string `toml:"pass_key" env:"PASS_KEY"`
	// Number of background workers.
	Workers int `toml:"workers" env:"WORKERS"`
	// Reload loose files when they change on disk. Editor modes only.
	HotReload bool `toml:"hot_reload" env:"HOT_RELOAD"`
	// Address the Prometheus metrics are served on. Empty disables it.
	MetricsAddr string `toml:"metrics_addr" env:"METRICS_ADDR"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:          "Lina",
		Mode:          core.ApplicationModeEditor,
		LogLevel:      "info",
		ResourcesRoot: "Resources",
		LevelDir:      "",
		DefaultLevel:  "default",
		PassKey:       "LINA_PACKAGE_PASS_0001",
		Workers:       1,
	}
}
