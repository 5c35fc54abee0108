// Package paths resolves jellyrename's config, history and log locations.
//
// When running with sudo, the original user's directories (via SUDO_USER)
// are used instead of root's, so a daemon started through sudo shares state
// with the user's interactive runs.
package paths

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// HomeEnv overrides the jellyrename directory when set.
const HomeEnv = "JELLYRENAME_HOME"

// UserHomeDir returns the home directory of the actual user.
// If running with sudo, returns the SUDO_USER's home directory, not root's.
func UserHomeDir() (string, error) {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" && sudoUser != "root" {
		if u, err := user.Lookup(sudoUser); err == nil {
			return u.HomeDir, nil
		}
	}
	return os.UserHomeDir()
}

// UserConfigDir returns the actual user's config directory, honouring
// XDG_CONFIG_HOME when it is absolute.
func UserConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); filepath.IsAbs(xdg) && os.Getenv("SUDO_USER") == "" {
		return xdg, nil
	}
	homeDir, err := UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config"), nil
}

// JellyRenameDir returns the directory holding config, history and logs.
// This is ~/.config/jellyrename unless JELLYRENAME_HOME is set.
func JellyRenameDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return ExpandHome(dir)
	}
	configDir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "jellyrename"), nil
}

// ConfigPath returns the path to config.toml.
func ConfigPath() (string, error) {
	dir, err := JellyRenameDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// HistoryDBPath returns the path to the rename history database.
func HistoryDBPath() (string, error) {
	dir, err := JellyRenameDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// LogPath returns the default log file. It falls back to the temp dir
// when no home directory can be resolved.
func LogPath() string {
	dir, err := JellyRenameDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), "jellyrename")
	}
	return filepath.Join(dir, "logs", "jellyrename.log")
}

// ExpandHome replaces a leading ~ with the actual user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to get home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ActualUser returns the actual username (not root when using sudo).
func ActualUser() string {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" && sudoUser != "root" {
		return sudoUser
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}
