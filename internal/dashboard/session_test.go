package dashboard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionEnd(t *testing.T) {
	s := loggedIn()
	s.SetStore("S1")
	require.True(t, s.Authenticated())

	assert.True(t, s.End())
	assert.False(t, s.End())
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Username())
	assert.Empty(t, s.StoreID())
}

func TestFileSessionStore(t *testing.T) {
	store := FileSessionStore{Path: filepath.Join(t.TempDir(), "nested", "session.json")}

	// nothing saved yet
	empty := NewSession()
	require.NoError(t, store.Load(empty))
	assert.False(t, empty.Authenticated())

	s := loggedIn()
	s.SetStore("S9")
	require.NoError(t, store.Save(s))

	info, err := os.Stat(store.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	restored := NewSession()
	require.NoError(t, store.Load(restored))
	assert.Equal(t, "tok-123", restored.Token())
	assert.Equal(t, "sam", restored.Username())
	assert.Equal(t, "S9", restored.StoreID())

	restored.End()
	require.NoError(t, store.Save(restored))
	_, err = os.Stat(store.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, store.Save(restored), "removing twice is fine")
}

func TestFileSessionStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	assert.Error(t, FileSessionStore{Path: path}.Load(NewSession()))
}
