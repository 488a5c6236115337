// Package config loads cxxfilt settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/skdltmxn/cxxdemangle/demangle"
)

// FileName is the configuration file searched for by LoadDefault.
const FileName = "cxxfilt.toml"

// ErrInvalid indicates a configuration value out of range.
var ErrInvalid = errors.New("config: invalid value")

// Config holds the settings of one cxxfilt run.
type Config struct {
	Demangle Demangle `toml:"demangle"`
	Output   Output   `toml:"output"`

	// Path of the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Demangle holds decoder limits and rendering switches.
type Demangle struct {
	MaxDepth int  `toml:"max-depth"`
	MaxNodes int  `toml:"max-nodes"`
	MaxArgs  int  `toml:"max-args"`
	NoParams bool `toml:"no-params"`
}

// Output controls how results are written.
type Output struct {
	StripUnderscore bool   `toml:"strip-underscore"`
	Format          string `toml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Demangle: Demangle{
			MaxDepth: demangle.DefaultMaxDepth,
			MaxNodes: demangle.DefaultMaxNodes,
			MaxArgs:  demangle.DefaultMaxArgs,
		},
		Output: Output{Format: "text"},
	}
}

// Load reads the configuration at path on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown key %s in %s", ErrInvalid, undecoded[0], path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// LoadDefault loads the first configuration file found by Find, or the
// defaults when there is none.
func LoadDefault() (*Config, error) {
	path, ok := Find()
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Find looks for cxxfilt.toml in the working directory, then in the user
// configuration directory.
func Find() (string, bool) {
	candidates := []string{FileName}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "cxxfilt", FileName))
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Validate rejects negative limits and unknown output formats.
func (c *Config) Validate() error {
	switch {
	case c.Demangle.MaxDepth < 0:
		return fmt.Errorf("%w: max-depth %d", ErrInvalid, c.Demangle.MaxDepth)
	case c.Demangle.MaxNodes < 0:
		return fmt.Errorf("%w: max-nodes %d", ErrInvalid, c.Demangle.MaxNodes)
	case c.Demangle.MaxArgs < 0:
		return fmt.Errorf("%w: max-args %d", ErrInvalid, c.Demangle.MaxArgs)
	}
	switch c.Output.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: output format %q", ErrInvalid, c.Output.Format)
	}
	return nil
}

// Options converts the configuration into decoder options.
func (c *Config) Options() []demangle.Option {
	opts := []demangle.Option{
		demangle.WithMaxDepth(c.Demangle.MaxDepth),
		demangle.WithMaxNodes(c.Demangle.MaxNodes),
		demangle.WithMaxArgs(c.Demangle.MaxArgs),
	}
	if c.Demangle.NoParams {
		opts = append(opts, demangle.WithNoParams())
	}
	if c.Output.StripUnderscore {
		opts = append(opts, demangle.WithStripUnderscore())
	}
	return opts
}
