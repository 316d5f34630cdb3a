// Package config loads the exprsql YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/probe"
	"github.com/roach88/exprsql/internal/render"
)

// Config is the root configuration.
type Config struct {
	Dialect DialectConfig `yaml:"dialect"`
	Render  RenderConfig  `yaml:"render"`
	Catalog string        `yaml:"catalog"`
	Log     LogConfig     `yaml:"log"`
	Probe   ProbeConfig   `yaml:"probe"`

	// BaseDir is the directory of the loaded file; relative paths resolve
	// against it.
	BaseDir string `yaml:"-"`
}

// DialectConfig selects the default render target.
type DialectConfig struct {
	Family  string `yaml:"family"`
	Version string `yaml:"version"`
}

// RenderConfig holds render options.
type RenderConfig struct {
	Placeholders         string `yaml:"placeholders"`
	NormalizeIdentifiers bool   `yaml:"normalize_identifiers"`
}

// LogConfig holds logging options.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ProbeConfig is the connection used by `exprsql check`.
type ProbeConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Dialect: DialectConfig{Family: "postgresql"},
		Render:  RenderConfig{Placeholders: "auto"},
		Log:     LogConfig{Level: "info"},
		Probe:   ProbeConfig{Driver: "sqlite3", DSN: ":memory:"},
	}
}

// Load reads the file at path over the defaults. An empty path returns the
// defaults; a path that does not exist is an error. ${VAR} and
// ${VAR:-default} are replaced using getenv before parsing.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(interpolateEnv(data, getenv)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.BaseDir = filepath.Dir(abs)
	if cfg.Catalog != "" && !filepath.IsAbs(cfg.Catalog) {
		cfg.Catalog = filepath.Join(cfg.BaseDir, cfg.Catalog)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func interpolateEnv(data []byte, getenv func(string) string) []byte {
	if getenv == nil {
		return data
	}
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		value := getenv(string(parts[1]))
		if value == "" && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string
	if _, err := c.Target(); err != nil {
		errs = append(errs, err.Error())
	}
	if _, err := render.ParsePlaceholder(c.Render.Placeholders); err != nil {
		errs = append(errs, err.Error())
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Probe.Driver != "" {
		if _, ok := probe.Drivers[c.Probe.Driver]; !ok {
			errs = append(errs, fmt.Sprintf("probe.driver %q: must be sqlite3, postgres or mysql", c.Probe.Driver))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Target returns the configured dialect. An empty version means the
// latest known version of the family.
func (c *Config) Target() (dialect.Dialect, error) {
	return dialect.Parse(c.Dialect.Family, c.Dialect.Version)
}

// RenderOptions converts the render section into render options.
func (c *Config) RenderOptions() ([]render.Option, error) {
	p, err := render.ParsePlaceholder(c.Render.Placeholders)
	if err != nil {
		return nil, err
	}
	return []render.Option{
		render.WithPlaceholder(p),
		render.WithNormalizedIdentifiers(c.Render.NormalizeIdentifiers),
	}, nil
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	l, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level %q: must be debug, info, warn or error", s)
	}
	return l, nil
}
