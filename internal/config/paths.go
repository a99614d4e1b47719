package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/conn-castle/scaffold/internal/messages"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "SCAFFOLD_CONFIG"

// PathSource reports where a config path came from.
type PathSource int

const (
	// PathDefault is the user config dir location; a missing file is fine.
	PathDefault PathSource = iota
	// PathExplicit came from a flag or env var; the file must exist.
	PathExplicit
)

// PathEnv supplies the process lookups ResolvePath needs.
type PathEnv struct {
	LookupEnv     func(key string) (string, bool)
	UserConfigDir func() (string, error)
}

// OSPathEnv returns a PathEnv backed by the real process environment.
func OSPathEnv() PathEnv {
	return PathEnv{LookupEnv: os.LookupEnv, UserConfigDir: os.UserConfigDir}
}

// ResolvePath picks the config file path: flagValue, then $SCAFFOLD_CONFIG,
// then <user config dir>/scaffold/config.toml. A leading ~ is expanded.
func ResolvePath(flagValue string, env PathEnv) (string, PathSource, error) {
	if path := strings.TrimSpace(flagValue); path != "" {
		expanded, err := expand(path)
		return expanded, PathExplicit, err
	}
	if env.LookupEnv != nil {
		if path, ok := env.LookupEnv(EnvConfigPath); ok && strings.TrimSpace(path) != "" {
			expanded, err := expand(strings.TrimSpace(path))
			return expanded, PathExplicit, err
		}
	}
	userConfigDir := env.UserConfigDir
	if userConfigDir == nil {
		userConfigDir = os.UserConfigDir
	}
	dir, err := userConfigDir()
	if err != nil {
		return "", PathDefault, fmt.Errorf(messages.ConfigResolveDirFmt, err)
	}
	return filepath.Join(dir, "scaffold", "config.toml"), PathDefault, nil
}

func expand(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf(messages.ConfigExpandPathFmt, path, err)
	}
	return expanded, nil
}
