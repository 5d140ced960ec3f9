// Package paths resolves the configuration and output directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultConfigDirName is the CWD-relative configuration directory.
const DefaultConfigDirName = ".larder"

// EnvConfigDir overrides the configuration directory.
const EnvConfigDir = "LARDER_CONFIG_DIR"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// DefaultConfigDir returns the platform-specific user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/larder (fallback ~/.config/larder)
// macOS:   ~/Library/Application Support/larder
// Windows: %APPDATA%/larder
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "larder"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "larder"), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "larder"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > LARDER_CONFIG_DIR env > $(CWD)/.larder.
// The result is always absolute.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultConfigDirName), nil
}

// ConfigSearchPath returns the directories searched for config.yaml, most
// specific first. An explicit flag or LARDER_CONFIG_DIR is searched alone;
// otherwise $(CWD)/.larder is followed by the user configuration directory.
func ConfigSearchPath(flag string) ([]string, error) {
	dir, err := ResolveConfigDir(flag)
	if err != nil {
		return nil, err
	}
	if flag != "" || os.Getenv(EnvConfigDir) != "" {
		return []string{dir}, nil
	}
	user, err := DefaultConfigDir()
	if err != nil {
		// No home directory; the CWD directory still works.
		return []string{dir}, nil
	}
	return []string{dir, user}, nil
}

// ResolveOutputDir returns the artifact directory following the precedence
// chain: flag > configured value > current working directory. The result is
// always absolute.
func ResolveOutputDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	return platformDir.getwd()
}
