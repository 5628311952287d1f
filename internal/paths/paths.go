// Package paths locates the stacks configuration and data directories.
//
// The configuration directory holds config.yaml and an optional .env. It is
// taken from the --config-dir flag, then STACKS_CONFIG_DIR, then the
// platform default.
//
// The data directory holds the jsonl collection files or stacks.db. It is
// taken from the --data-dir flag, then STACKS_DATA_DIR, then data_dir in
// config.yaml, then the platform default. The postgres and memory backends
// ignore it.
//
// Every explicit value may start with "~/" and is made absolute against the
// working directory.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// AppName names the per-user directories.
const AppName = "stacks"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "STACKS_CONFIG_DIR"
	EnvDataDir   = "STACKS_DATA_DIR"
)

// Source records which setting supplied a resolved directory.
type Source string

const (
	SourceFlag    Source = "flag"
	SourceEnv     Source = "env"
	SourceConfig  Source = "config"
	SourceDefault Source = "default"
)

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/stacks (fallback ~/.config/stacks)
// macOS:   ~/Library/Application Support/stacks
// Windows: %APPDATA%/stacks
func DefaultConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", []string{".config"}, nil)
}

// DefaultDataDir returns the platform default data directory. Outside Linux
// it is a data subdirectory of the configuration directory.
//
// Linux:   $XDG_DATA_HOME/stacks (fallback ~/.local/share/stacks)
// macOS:   ~/Library/Application Support/stacks/data
// Windows: %APPDATA%/stacks/data
func DefaultDataDir() (string, error) {
	return userDir("XDG_DATA_HOME", []string{".local", "share"}, []string{"data"})
}

// userDir builds <base>/stacks[/suffix...]. On Linux base is $xdgEnv or
// ~/<homeRel...>; elsewhere it is os.UserConfigDir and suffix is appended.
func userDir(xdgEnv string, homeRel, suffix []string) (string, error) {
	if platformDir.goos == "linux" {
		if xdg := os.Getenv(xdgEnv); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(append(append([]string{home}, homeRel...), AppName)...), nil
	}
	base, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{base, AppName}, suffix...)...), nil
}

// setting is one candidate in a precedence chain.
type setting struct {
	value  string
	source Source
}

// resolve returns the first non-empty setting as an absolute path, or the
// platform default when every setting is empty.
func resolve(fallback func() (string, error), chain ...setting) (string, Source, error) {
	for _, s := range chain {
		if s.value == "" {
			continue
		}
		p, err := absPath(s.value)
		if err != nil {
			return "", "", err
		}
		return p, s.source, nil
	}
	p, err := fallback()
	if err != nil {
		return "", "", err
	}
	return p, SourceDefault, nil
}

// absPath expands a leading "~" and makes p absolute.
func absPath(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return filepath.Abs(p)
}

// ResolveConfigDir returns the configuration directory and where it came
// from: flag, then STACKS_CONFIG_DIR, then DefaultConfigDir.
func ResolveConfigDir(flag string) (string, Source, error) {
	return resolve(DefaultConfigDir,
		setting{flag, SourceFlag},
		setting{os.Getenv(EnvConfigDir), SourceEnv},
	)
}

// ResolveDataDir returns the data directory and where it came from: flag,
// then STACKS_DATA_DIR, then configValue, then DefaultDataDir.
func ResolveDataDir(flag, configValue string) (string, Source, error) {
	return resolve(DefaultDataDir,
		setting{flag, SourceFlag},
		setting{os.Getenv(EnvDataDir), SourceEnv},
		setting{configValue, SourceConfig},
	)
}
