package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingSlotMeansLoggedOut(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "token"))
	require.NoError(t, err)
	assert.Empty(t, store.Token())
	assert.False(t, store.HasToken())
}

func TestTokenSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	store, err := New(path)
	require.NoError(t, err)
	require.NoError(t, store.SetToken("abc123"))
	assert.Equal(t, "abc123", store.Token())

	reopened, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, "abc123", reopened.Token())
}

func TestClearRemovesSlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	store, err := New(path)
	require.NoError(t, err)
	require.NoError(t, store.SetToken("abc123"))
	require.NoError(t, store.Clear())

	assert.False(t, store.HasToken())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// clearing an already-clear store is fine
	require.NoError(t, store.Clear())
}

func TestSetTokenReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	store, err := New(path)
	require.NoError(t, err)
	require.NoError(t, store.SetToken("first"))
	require.NoError(t, store.SetToken("second"))
	assert.Equal(t, "second", store.Token())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not linger")
}
