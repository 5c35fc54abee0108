package paths

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHomeDir_NoSudo(t *testing.T) {
	t.Setenv("SUDO_USER", "")

	got, err := UserHomeDir()
	require.NoError(t, err)

	expected, _ := os.UserHomeDir()
	assert.Equal(t, expected, got)
}

func TestUserHomeDir_WithSudoUser(t *testing.T) {
	currentUser, err := user.Current()
	if err != nil {
		t.Skip("Cannot get current user")
	}
	t.Setenv("SUDO_USER", currentUser.Username)

	got, err := UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, currentUser.HomeDir, got)
}

func TestUserHomeDir_IgnoresRootAndUnknownUsers(t *testing.T) {
	expected, _ := os.UserHomeDir()

	for _, sudoUser := range []string{"root", "nonexistent_user_12345"} {
		t.Run(sudoUser, func(t *testing.T) {
			t.Setenv("SUDO_USER", sudoUser)
			got, err := UserHomeDir()
			require.NoError(t, err)
			assert.Equal(t, expected, got)
		})
	}
}

func TestJellyRenameDir_Override(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)

	got, err := JellyRenameDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	cfg, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), cfg)

	db, err := HistoryDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "history.db"), db)

	assert.Equal(t, filepath.Join(dir, "logs", "jellyrename.log"), LogPath())
}

func TestJellyRenameDir_Default(t *testing.T) {
	t.Setenv(HomeEnv, "")
	t.Setenv("SUDO_USER", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	got, err := JellyRenameDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg", "jellyrename"), got)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("SUDO_USER", "")
	home, _ := os.UserHomeDir()

	got, err := ExpandHome("~/media")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "media"), got)

	got, err = ExpandHome("/srv/~media")
	require.NoError(t, err)
	assert.Equal(t, "/srv/~media", got)
}
