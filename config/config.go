// Package config loads mm-replacer settings from a YAML file with
// MM_REPLACER_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all mm-replacer configuration.
type Config struct {
	// HTTP listen address for `serve`.
	Listen string `yaml:"listen" env:"LISTEN"`

	// Local state file (dictionary, lastSync, theme, contrast).
	DataFile string `yaml:"data_file" env:"DATA_FILE"`

	Dictionary DictionaryConfig `yaml:"dictionary" envPrefix:"DICTIONARY_"`
	Sync       SyncConfig       `yaml:"sync" envPrefix:"SYNC_"`
	Replace    ReplaceConfig    `yaml:"replace" envPrefix:"REPLACE_"`
	Offline    OfflineConfig    `yaml:"offline" envPrefix:"OFFLINE_"`
	Logging    LoggingConfig    `yaml:"log" envPrefix:"LOG_"`
}

// DictionaryConfig locates the rule dictionary.
type DictionaryConfig struct {
	// http(s) URL, file:// URL or local path. Empty uses the bundled copy.
	URL string `yaml:"url" env:"URL"`
	// Watch a local dictionary file and resync when it changes.
	Watch bool `yaml:"watch" env:"WATCH"`
}

type SyncConfig struct {
	MaxAge  Duration `yaml:"max_age" env:"MAX_AGE"`
	Timeout Duration `yaml:"timeout" env:"TIMEOUT"`
}

type ReplaceConfig struct {
	MatchTimeout Duration `yaml:"match_timeout" env:"MATCH_TIMEOUT"`
}

type OfflineConfig struct {
	CacheName string `yaml:"cache_name" env:"CACHE_NAME"`
	Disabled  bool   `yaml:"disabled" env:"DISABLED"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"LEVEL"` // debug, info, warn, error
	JSON  bool   `yaml:"json" env:"JSON"`
}

// Duration is a time.Duration that reads "30s"-style strings from YAML and env.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:   ":8080",
		DataFile: "data/state.json",
		Sync: SyncConfig{
			MaxAge:  Duration(24 * time.Hour),
			Timeout: Duration(30 * time.Second),
		},
		Replace: ReplaceConfig{
			MatchTimeout: Duration(2 * time.Second),
		},
		Offline: OfflineConfig{
			CacheName: "mm-replacer-v1",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MM_REPLACER_"

// Load reads path (if it exists) over the defaults, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is required")
	}
	if c.DataFile == "" {
		return errors.New("data_file is required")
	}
	if c.Sync.MaxAge < 0 || c.Sync.Timeout < 0 || c.Replace.MatchTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
