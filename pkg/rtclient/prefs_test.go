package rtclient

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefsDefaultWhenFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	p, err := LoadPrefs(path)
	require.NoError(t, err)
	assert.False(t, p.HideOnlineStatus())
}

func TestPrefsSurviveRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	p, err := LoadPrefs(path)
	require.NoError(t, err)
	require.NoError(t, p.SetHideOnlineStatus(true))

	// a fresh load simulates a client restart
	reloaded, err := LoadPrefs(path)
	require.NoError(t, err)
	assert.True(t, reloaded.HideOnlineStatus())

	require.NoError(t, reloaded.SetHideOnlineStatus(false))
	again, err := LoadPrefs(path)
	require.NoError(t, err)
	assert.False(t, again.HideOnlineStatus())
}

func TestPrefsCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "prefs.json")

	p, err := LoadPrefs(path)
	require.NoError(t, err)
	require.NoError(t, p.SetHideOnlineStatus(true))

	reloaded, err := LoadPrefs(path)
	require.NoError(t, err)
	assert.True(t, reloaded.HideOnlineStatus())
}
