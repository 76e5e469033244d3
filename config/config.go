// Package config loads teleprompter settings.
//
// Settings come from three layers, later layers winning:
//
//  1. built-in defaults
//  2. a YAML file (teleprompter.yaml by default; a missing file is fine)
//  3. TELEPROMPTER_* environment variables
//
// Command-line flags are applied on top by the binary.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/teranos/teleprompter"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when none is given
const DefaultPath = "teleprompter.yaml"

// EnvPrefix prefixes every environment override
const EnvPrefix = "TELEPROMPTER_"

// Backends a run can inject keys with
const (
	BackendNative = "native"
	BackendDry    = "dry"
)

// Config holds every setting of the teleprompter binary
type Config struct {
	// Run defaults, shown in the form and used by headless runs
	StartDelayMs int64 `yaml:"start_delay_ms"`
	LoopDelayMs  int64 `yaml:"loop_delay_ms"`
	Loops        int   `yaml:"loops"`

	MessagesFile string `yaml:"messages_file"`
	LogFile      string `yaml:"log_file"`
	Backend      string `yaml:"backend"`

	// Pacing
	SettleMs       int64 `yaml:"settle_ms"`
	SliceMs        int64 `yaml:"slice_ms"`
	MaxSpliceDepth int   `yaml:"max_splice_depth"`

	// Listen is the address of the HTTP control surface
	Listen string `yaml:"listen"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		StartDelayMs:   3000,
		LoopDelayMs:    2000,
		Loops:          1,
		MessagesFile:   "messages.txt",
		LogFile:        "teleprompter.log",
		Backend:        BackendNative,
		SettleMs:       teleprompter.DefaultSettle.Milliseconds(),
		SliceMs:        teleprompter.DefaultSlice.Milliseconds(),
		MaxSpliceDepth: teleprompter.DefaultMaxSpliceDepth,
		Listen:         "127.0.0.1:7878",
	}
}

// Load reads the YAML file at path over the defaults, then applies the
// environment. An empty path means DefaultPath. A missing file is not an
// error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	return cfg.Normalize(), nil
}

// envSetter applies one environment value to a config
type envSetter func(c *Config, value string) error

func intSetter(field func(c *Config) *int) envSetter {
	return func(c *Config, value string) error {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func int64Setter(field func(c *Config) *int64) envSetter {
	return func(c *Config, value string) error {
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func stringSetter(field func(c *Config) *string) envSetter {
	return func(c *Config, value string) error {
		*field(c) = value
		return nil
	}
}

// envMapping maps variable names, without the prefix, to their fields
var envMapping = map[string]envSetter{
	"START_DELAY_MS":   int64Setter(func(c *Config) *int64 { return &c.StartDelayMs }),
	"LOOP_DELAY_MS":    int64Setter(func(c *Config) *int64 { return &c.LoopDelayMs }),
	"LOOPS":            intSetter(func(c *Config) *int { return &c.Loops }),
	"MESSAGES_FILE":    stringSetter(func(c *Config) *string { return &c.MessagesFile }),
	"LOG_FILE":         stringSetter(func(c *Config) *string { return &c.LogFile }),
	"BACKEND":          stringSetter(func(c *Config) *string { return &c.Backend }),
	"SETTLE_MS":        int64Setter(func(c *Config) *int64 { return &c.SettleMs }),
	"SLICE_MS":         int64Setter(func(c *Config) *int64 { return &c.SliceMs }),
	"MAX_SPLICE_DEPTH": intSetter(func(c *Config) *int { return &c.MaxSpliceDepth }),
	"LISTEN":           stringSetter(func(c *Config) *string { return &c.Listen }),
}

// ApplyEnv overrides fields from environment variables. lookup is usually
// os.LookupEnv. Empty values count as set.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for name, set := range envMapping {
		value, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		if err := set(c, value); err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, name, err)
		}
	}
	return nil
}

// Normalize clamps out-of-range values the way the input form does: loops
// below one become one, negative times become zero, and pacing values that
// cannot work fall back to their defaults.
func (c Config) Normalize() Config {
	d := Default()

	if c.Loops < 1 {
		c.Loops = 1
	}
	if c.StartDelayMs < 0 {
		c.StartDelayMs = 0
	}
	if c.LoopDelayMs < 0 {
		c.LoopDelayMs = 0
	}
	if c.SettleMs < 0 {
		c.SettleMs = 0
	}
	if c.SliceMs <= 0 {
		c.SliceMs = d.SliceMs
	}
	if c.MaxSpliceDepth <= 0 {
		c.MaxSpliceDepth = d.MaxSpliceDepth
	}
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = d.Backend
	}
	return c
}

// Validate reports settings that cannot be used at all
func (c Config) Validate() error {
	switch c.Backend {
	case BackendNative, BackendDry:
	default:
		return fmt.Errorf("config: unknown backend %q (want %s or %s)", c.Backend, BackendNative, BackendDry)
	}
	delays := []struct {
		name string
		ms   int64
	}{
		{"start delay", c.StartDelayMs},
		{"loop delay", c.LoopDelayMs},
		{"settle", c.SettleMs},
		{"slice", c.SliceMs},
	}
	for _, d := range delays {
		if err := teleprompter.ValidateDelayMs(d.name, d.ms); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// Director returns the pacing settings for a teleprompter.Director
func (c Config) Director() teleprompter.DirectorConfig {
	return teleprompter.DirectorConfig{
		Settle:         teleprompter.Milliseconds(c.SettleMs),
		Slice:          teleprompter.Milliseconds(c.SliceMs),
		MaxSpliceDepth: c.MaxSpliceDepth,
	}
}

// Run returns a run request for script using the configured defaults
func (c Config) Run(script string) teleprompter.RunConfig {
	return teleprompter.NewRunConfig(script, c.Loops, c.StartDelayMs, c.LoopDelayMs)
}
