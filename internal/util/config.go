package util

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

type Configuration struct {
	Version   string `toml:"-"`
	BuildDate string `toml:"-"`
	Commit    string `toml:"-"`

	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`

	// MaxDepth bounds expression nesting for parsing and compiling.
	MaxDepth int `toml:"max_depth"`
	// Workers is the number of rows evaluated concurrently.
	Workers int `toml:"workers"`

	Database DatabaseConfig `toml:"database"`

	DebugJsonAST bool   `toml:"debug_json_ast"`
	DebugTxtAST  bool   `toml:"debug_txt_ast"`
	DebugASTFile string `toml:"debug_ast_file"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
	Query  string `toml:"query"`
}

// DefaultConfiguration returns the settings used when nothing overrides them.
func DefaultConfiguration() Configuration {
	return Configuration{
		LogLevel: "none",
		MaxDepth: 256,
		Workers:  4,
		Database: DatabaseConfig{Driver: "sqlite3"},
	}
}

// LoadConfiguration overlays the TOML file at path on cfg. Keys missing from
// the file keep their current value.
func LoadConfiguration(path string, cfg *Configuration) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to read configuration %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown configuration key %s in %s", undecoded[0], path)
	}
	return nil
}

// Validate rejects settings no run can work with.
func (c Configuration) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("max depth must be at least 1, got %d", c.MaxDepth)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}
