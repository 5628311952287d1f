package paths

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlatform pins the platform lookups for one test.
func fakePlatform(t *testing.T, goos, home, userConfig string) {
	t.Helper()
	prev := platformDir
	t.Cleanup(func() { platformDir = prev })
	platformDir.goos = goos
	platformDir.homeDir = func() (string, error) { return home, nil }
	platformDir.userConfigDir = func() (string, error) { return userConfig, nil }
}

func TestDefaultDirs(t *testing.T) {
	tests := []struct {
		name       string
		goos       string
		xdgConfig  string
		xdgData    string
		wantConfig string
		wantData   string
	}{
		{
			name:       "linux with XDG variables",
			goos:       "linux",
			xdgConfig:  "/xdg/config",
			xdgData:    "/xdg/data",
			wantConfig: "/xdg/config/stacks",
			wantData:   "/xdg/data/stacks",
		},
		{
			name:       "linux falls back to home",
			goos:       "linux",
			wantConfig: "/home/ann/.config/stacks",
			wantData:   "/home/ann/.local/share/stacks",
		},
		{
			name:       "darwin keeps data under the config dir",
			goos:       "darwin",
			xdgConfig:  "/ignored",
			wantConfig: "/Users/ann/Library/Application Support/stacks",
			wantData:   "/Users/ann/Library/Application Support/stacks/data",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakePlatform(t, tt.goos, "/home/ann", "/Users/ann/Library/Application Support")
			t.Setenv("XDG_CONFIG_HOME", tt.xdgConfig)
			t.Setenv("XDG_DATA_HOME", tt.xdgData)

			config, err := DefaultConfigDir()
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.wantConfig), config)

			data, err := DefaultDataDir()
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.wantData), data)
		})
	}
}

func TestDefaultDataDirHomeFailure(t *testing.T) {
	fakePlatform(t, "linux", "", "")
	platformDir.homeDir = func() (string, error) { return "", errors.New("no home") }
	t.Setenv("XDG_DATA_HOME", "")

	_, err := DefaultDataDir()
	assert.Error(t, err)
}

func TestResolveConfigDir(t *testing.T) {
	fakePlatform(t, "linux", "/home/ann", "")
	t.Setenv("XDG_CONFIG_HOME", "")

	tests := []struct {
		name       string
		flag       string
		env        string
		want       string
		wantSource Source
	}{
		{"flag wins over env", "/explicit/config", "/env/config", "/explicit/config", SourceFlag},
		{"env when flag empty", "", "/env/config", "/env/config", SourceEnv},
		{"tilde expands to home", "~/cfg", "", "/home/ann/cfg", SourceFlag},
		{"platform default", "", "", "/home/ann/.config/stacks", SourceDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.env)
			got, source, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	fakePlatform(t, "linux", "/home/ann", "")
	t.Setenv("XDG_DATA_HOME", "")

	tests := []struct {
		name        string
		flag        string
		env         string
		configValue string
		want        string
		wantSource  Source
	}{
		{"flag wins over all", "/flag/data", "/env/data", "/config/data", "/flag/data", SourceFlag},
		{"env wins over config", "", "/env/data", "/config/data", "/env/data", SourceEnv},
		{"config when flag and env empty", "", "", "/config/data", "/config/data", SourceConfig},
		{"config value with tilde", "", "", "~/library", "/home/ann/library", SourceConfig},
		{"platform default", "", "", "", "/home/ann/.local/share/stacks", SourceDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.env)
			got, source, err := ResolveDataDir(tt.flag, tt.configValue)
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}

func TestRelativePathsBecomeAbsolute(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	t.Setenv(EnvDataDir, "relative/env")

	config, _, err := ResolveConfigDir("relative/path")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(config), "expected absolute path, got %s", config)

	data, source, err := ResolveDataDir("", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(data), "expected absolute path, got %s", data)
	assert.Equal(t, SourceEnv, source)
}
