// Package config loads the optional scaffold configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/conn-castle/scaffold/internal/messages"
)

// ErrConfigValidation wraps config validation failures, as opposed to TOML
// syntax or filesystem errors.
var ErrConfigValidation = errors.New("config validation failed")

// Load reads the config at path. A missing file at a PathDefault location
// yields the defaults.
func Load(path string, source PathSource) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && source == PathDefault {
			return Default(), nil
		}
		return nil, fmt.Errorf(messages.ConfigMissingFileFmt, path, err)
	}
	return Parse(data, path)
}

// Parse decodes TOML data over the defaults and validates the result.
// source is used in error messages.
func Parse(data []byte, source string) (*Config, error) {
	cfg := Default()
	// A names array in the file replaces the built-in list rather than extending it.
	cfg.Templates.Names = nil
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf(messages.ConfigInvalidConfigFmt, source, err)
	}
	if cfg.Templates.Names == nil {
		cfg.Templates.Names = append([]string(nil), DefaultTemplates...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: "+messages.ConfigInvalidConfigFmt, ErrConfigValidation, source, err)
	}
	return cfg, nil
}
