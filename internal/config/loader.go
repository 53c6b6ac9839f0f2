package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/x42/silan/internal/logging"
)

// Load reads the YAML settings file at path over [Defaults] and validates the
// result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML settings from r over [Defaults]. Unknown keys
// are rejected. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := ParseThreshold(cfg.Threshold); err != nil {
		errs = append(errs, fmt.Errorf("threshold: %w", err))
	}
	if cfg.Holdoff < 0 {
		errs = append(errs, fmt.Errorf("holdoff %v must be >= 0", cfg.Holdoff))
	}
	if _, err := ParseFilter(cfg.Filter); err != nil {
		errs = append(errs, fmt.Errorf("filter: %w", err))
	}
	if !cfg.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("mode %q is invalid; valid values: full, bounds, bounds-fast", cfg.Mode))
	}
	if _, err := logging.ParseFormat(cfg.Format); err != nil {
		errs = append(errs, err)
	}
	if cfg.BlockFrames < 1 {
		errs = append(errs, fmt.Errorf("block_frames %d must be >= 1", cfg.BlockFrames))
	}
	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	return errors.Join(errs...)
}
