package archive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS_PutGet(t *testing.T) {
	store, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	path := RunPath("run-1", "trades.csv")
	require.NoError(t, store.Put(ctx, path, []byte("ticker,buy_date\n")))

	got, err := store.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "ticker,buy_date\n", string(got))
}

func TestLocalFS_List(t *testing.T) {
	store, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, RunPath("run-1", "trades.csv"), []byte("a")))
	require.NoError(t, store.Put(ctx, RunPath("run-1", "summary.csv"), []byte("b")))
	require.NoError(t, store.Put(ctx, RunPath("run-2", "trades.csv"), []byte("c")))

	paths, err := store.List(ctx, "runs/run-1")
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	paths, err = store.List(ctx, "runs/run-9")
	require.NoError(t, err)
	assert.Empty(t, paths, "missing prefix lists as empty, not an error")
}

func TestNew_SelectsBackend(t *testing.T) {
	store, err := New(Config{Type: "localfs", Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, (*LocalFS)(nil), store)

	_, err = New(Config{Type: "ftp"})
	assert.Error(t, err)
}
