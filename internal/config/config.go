// Package config loads rowview configuration from defaults, a YAML file,
// ROWVIEW_* environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. ROWVIEW_SEARCH_MODE.
	EnvPrefix = "ROWVIEW_"

	DefaultConfigFile    = "rowview.yaml"
	DefaultDataDir       = "data"
	DefaultDatabase      = "rowview.db"
	DefaultSearchMode    = "lazy"
	DefaultQuietPeriod   = 400 * time.Millisecond
	DefaultWatchDebounce = 100 * time.Millisecond
	DefaultSourceTimeout = 5 * time.Second
)

// sections are nested config groups; env vars name them with an underscore.
var sections = []string{"search", "watch", "log"}

// flagKeys maps flag names to config keys. Flags not listed here are
// command options and never reach the config.
var flagKeys = map[string]string{
	"data-dir":       "data_dir",
	"database":       "database",
	"mode":           "search.mode",
	"quiet-period":   "search.quiet_period",
	"server-side":    "search.server_side",
	"source-timeout": "search.source_timeout",
	"watch":          "watch.enabled",
	"watch-debounce": "watch.debounce",
	"log-level":      "log.level",
	"log-json":       "log.json",
}

// Config is the resolved rowview configuration.
type Config struct {
	DataDir  string       `koanf:"data_dir" validate:"required"`
	Database string       `koanf:"database" validate:"required"`
	Search   SearchConfig `koanf:"search"`
	Watch    WatchConfig  `koanf:"watch"`
	Log      LogConfig    `koanf:"log"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// SearchConfig controls how typed queries reach the view.
type SearchConfig struct {
	Mode          string        `koanf:"mode" validate:"oneof=eager lazy"`
	QuietPeriod   time.Duration `koanf:"quiet_period" validate:"gte=0"`
	ServerSide    bool          `koanf:"server_side"`
	SourceTimeout time.Duration `koanf:"source_timeout" validate:"gt=0"`
}

// WatchConfig controls reloading when dataset files change.
type WatchConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Debounce time.Duration `koanf:"debounce" validate:"gt=0"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `koanf:"json"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"data_dir":              DefaultDataDir,
		"database":              DefaultDatabase,
		"search.mode":           DefaultSearchMode,
		"search.quiet_period":   DefaultQuietPeriod,
		"search.server_side":    false,
		"search.source_timeout": DefaultSourceTimeout,
		"watch.enabled":         false,
		"watch.debounce":        DefaultWatchDebounce,
		"log.level":             "info",
		"log.json":              false,
	}
}

// envKey turns ROWVIEW_SEARCH_QUIET_PERIOD into search.quiet_period.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	for _, s := range sections {
		if rest, ok := strings.CutPrefix(key, s+"_"); ok {
			return s + "." + rest
		}
	}
	return key
}

// flagKey turns a flag name into its config key, or "" for flags that are
// not configuration.
func flagKey(name string) string {
	return flagKeys[name]
}

// Load builds the configuration.
// Precedence (highest to lowest): changed flags > env vars > config file > defaults.
// cfgFile may be empty, in which case ./rowview.yaml is used when present.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			cfgFile = DefaultConfigFile
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key := flagKey(f.Name)
			if !f.Changed || key == "" {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = cfgFile

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// A relative data_dir in a config file is relative to that file. The
	// database path is relative to the data directory.
	if cfgFile != "" && (flags == nil || !flags.Changed("data-dir")) {
		cfg.DataDir = resolvePathRelativeTo(cfg.DataDir, filepath.Dir(cfgFile))
	}

	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || path == ":memory:" {
		return path
	}
	return filepath.Join(baseDir, path)
}
