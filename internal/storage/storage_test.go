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

func TestLocal_StoreAndDelete(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "properties")
	store, err := NewLocal(root, "/uploads/properties")
	require.NoError(t, err)

	p, err := store.Store(ctx, "Front.JPG", []byte("img"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, "/uploads/properties/"))
	assert.True(t, strings.HasSuffix(p, ".jpg"))

	onDisk := filepath.Join(root, filepath.Base(p))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))

	require.NoError(t, store.Delete(ctx, p))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	// Second delete is a no-op
	assert.NoError(t, store.Delete(ctx, p))
}

func TestLocal_DeleteStaysInsideRoot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	outside := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	store, err := NewLocal(filepath.Join(dir, "uploads"), "/uploads")
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "/uploads/../keep.txt"))

	_, err = os.Stat(outside)
	assert.NoError(t, err)
}
