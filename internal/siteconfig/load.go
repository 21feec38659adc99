package siteconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultEnvPrefix = "DOCSITE"
	DefaultFileName  = "docsite"
)

var ErrConfigNotFound = errors.New("site config: configuration file not found")

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// Path is an explicit config file. When empty docsite.yaml is searched in
	// the working directory and in ./site.
	Path string
	// EnvFile is loaded with godotenv before reading the environment. Missing
	// files are ignored.
	EnvFile   string
	EnvPrefix string
	// Overrides take precedence over every other source, for example values
	// bound from CLI flags.
	Overrides map[string]any
	Now       func() time.Time
}

// Load merges defaults, the config file, environment variables and overrides,
// then validates the result.
func Load(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("site config: load env file %s: %w", opts.EnvFile, err)
		}
	}
	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	v := viper.New()
	v.SetConfigType("yaml")
	defaults, err := defaultSettings()
	if err != nil {
		return nil, err
	}
	sourceDir := defaults["source_dir"]
	delete(defaults, "source_dir")
	v.SetDefault("source_dir", sourceDir)
	if err := v.MergeConfigMap(defaults); err != nil {
		return nil, fmt.Errorf("site config: apply defaults: %w", err)
	}

	file, err := findConfigFile(opts.Path)
	if err != nil {
		return nil, err
	}
	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("site config: read %s: %w", file, err)
		}
		if err := ValidateDocument(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		v.SetConfigFile(file)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("site config: merge %s: %w", file, err)
		}
		if !v.InConfig("source_dir") {
			v.SetDefault("source_dir", filepath.Dir(file))
		}
	}

	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("site config: decode: %w", err)
	}
	cfg.resolve(now())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile returns the explicit path when set or the first docsite.yaml
// found. An explicit path that does not exist is an error; a missing default
// file is not.
func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, explicit)
		}
		return explicit, nil
	}
	for _, dir := range []string{".", "site"} {
		for _, ext := range []string{".yaml", ".yml"} {
			candidate := filepath.Join(dir, DefaultFileName+ext)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}
	return "", nil
}

// defaultSettings flattens DefaultConfig into the nested map viper merges.
func defaultSettings() (map[string]any, error) {
	encoded, err := json.Marshal(DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("site config: encode defaults: %w", err)
	}
	var settings map[string]any
	if err := json.Unmarshal(encoded, &settings); err != nil {
		return nil, fmt.Errorf("site config: decode defaults: %w", err)
	}
	return settings, nil
}
