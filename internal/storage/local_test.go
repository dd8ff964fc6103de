package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutGetRoundtrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	content := "hello world"
	info, err := store.Put(ctx, "documents/abc.txt", strings.NewReader(content), PutOptions{
		Size:        int64(len(content)),
		ContentType: "text/plain",
	})
	require.NoError(t, err)
	assert.Equal(t, "documents/abc.txt", info.Key)
	assert.Equal(t, int64(len(content)), info.Size)

	rc, gotInfo, err := store.Get(ctx, "documents/abc.txt")
	require.NoError(t, err)
	defer rc.Close()

	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, string(b))
	assert.Equal(t, int64(len(content)), gotInfo.Size)
}

func TestLocalStore_Exists(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	ok, err := store.Exists(ctx, "documents/missing.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Put(ctx, "documents/here.txt", strings.NewReader("x"), PutOptions{Size: 1})
	require.NoError(t, err)

	ok, err = store.Exists(ctx, "documents/here.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalStore_DeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(ctx, "documents/gone.txt", strings.NewReader("x"), PutOptions{Size: 1})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "documents/gone.txt"))

	ok, err := store.Exists(ctx, "documents/gone.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an already-absent key is not an error.
	assert.NoError(t, store.Delete(ctx, "documents/gone.txt"))
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(ctx, "../escape.txt", strings.NewReader("x"), PutOptions{Size: 1})
	assert.Error(t, err)

	_, _, err = store.Get(ctx, "../../etc/passwd")
	assert.Error(t, err)
}

func TestNewLocal_EmptyDir(t *testing.T) {
	_, err := NewLocal("")
	assert.Error(t, err)
}
