package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreSaveAndRemove(t *testing.T) {
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	location, err := store.Save(context.Background(), "a.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Remove(context.Background(), location))
	_, err = os.Stat(location)
	assert.True(t, os.IsNotExist(err))

	// kedua kali file sudah tidak ada
	assert.Error(t, store.Remove(context.Background(), location))
}

func TestLocalStoreRejectsPathNames(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "../escape.png", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestLocalStoreDoesNotOverwrite(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "same.txt", strings.NewReader("first"))
	require.NoError(t, err)
	_, err = store.Save(context.Background(), "same.txt", strings.NewReader("second"))
	assert.Error(t, err)
}

func TestSupabaseObjectPath(t *testing.T) {
	store, err := NewSupabaseStore("https://proj.supabase.co/", "key", "uploads")
	require.NoError(t, err)

	url := store.publicURL("journals/x.png")
	assert.Equal(t, "https://proj.supabase.co/storage/v1/object/public/uploads/journals/x.png", url)

	path, ok := store.objectPath(url)
	assert.True(t, ok)
	assert.Equal(t, "journals/x.png", path)

	_, ok = store.objectPath("https://elsewhere.example/x.png")
	assert.False(t, ok)

	_, err = NewSupabaseStore("", "", "uploads")
	assert.Error(t, err)
}
