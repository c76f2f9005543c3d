package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Source names the sheets a pass reads. Each entry is a file path or URL.
type Source struct {
	SheetID     string   `toml:"sheet_id" env:"WHISTLEDGER_SHEET_ID"`
	Players     string   `toml:"players" env:"WHISTLEDGER_PLAYERS"`
	Tournaments string   `toml:"tournaments" env:"WHISTLEDGER_TOURNAMENTS"`
	TieBreakers string   `toml:"tie_breakers" env:"WHISTLEDGER_TIE_BREAKERS"`
	Aliases     string   `toml:"aliases" env:"WHISTLEDGER_ALIASES"`
	Scorecards  []string `toml:"scorecards" env:"WHISTLEDGER_SCORECARDS"`
	// FetchTimeout is in seconds and applies to URL sources.
	FetchTimeout int `toml:"fetch_timeout" env:"WHISTLEDGER_FETCH_TIMEOUT"`
}

// Cache configures the local document store.
type Cache struct {
	Enabled bool   `toml:"enabled" env:"WHISTLEDGER_CACHE_ENABLED"`
	Path    string `toml:"path" env:"WHISTLEDGER_CACHE_PATH"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level" env:"WHISTLEDGER_LOG_LEVEL"`
	Format string `toml:"format" env:"WHISTLEDGER_LOG_FORMAT"`
}

// Output selects how command results are printed.
type Output struct {
	Format string `toml:"format" env:"WHISTLEDGER_OUTPUT_FORMAT"`
}

// Config is the whole configuration file.
type Config struct {
	Source  Source  `toml:"source"`
	Cache   Cache   `toml:"cache"`
	Logging Logging `toml:"logging"`
	Output  Output  `toml:"output"`
}

// DefaultConfigPath is where Load looks when no path is given.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/whistledger/config.toml")
}

// Load reads the configuration file, then applies environment overrides. A
// missing file at the default location is not an error; the defaults are used.
// The returned config has all paths expanded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := ParseEnv(&cfg); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// ParseEnv overlays values from WHISTLEDGER_* environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			return "", false, fmt.Errorf("config %s: %w", expanded, err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(defaultPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaultPath, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return defaultPath, true, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// IsURL reports whether a source location is fetched over HTTP.
func IsURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// expandSource expands a file source and leaves URLs alone.
func expandSource(location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" || IsURL(location) {
		return location, nil
	}
	return expandPath(location)
}

// CreateSample writes a commented sample configuration file.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
