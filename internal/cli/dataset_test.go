package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/rowview/internal/config"
	"github.com/user/rowview/internal/model"
	"github.com/user/rowview/internal/storage"
)

func newTestSession(t *testing.T, serverSide bool) (*session[model.Customer], string) {
	t.Helper()
	dir := seededDir(t, "customers")

	oldCfg := cfg
	cfg = &config.Config{Search: config.SearchConfig{SourceTimeout: config.DefaultSourceTimeout}}
	t.Cleanup(func() { cfg = oldCfg })

	ctx := context.Background()
	store, err := storage.NewStore(ctx, dir, config.DefaultDatabase)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s, err := newSession(ctx, store.Customers(), model.CustomerColumns(), serverSide)
	require.NoError(t, err)
	return s, filepath.Join(dir, model.Customers.FileName())
}

func TestSession_LoadInMemory(t *testing.T) {
	s, _ := newTestSession(t, false)
	require.NoError(t, s.load(context.Background()))
	require.NoError(t, s.setQuery("ann"))

	assert.Len(t, s.view.VisibleRows(), 3)
	assert.Equal(t, 12, s.view.Snapshot().Total)
}

func TestSession_ServerSideReloadAfterFailedQuery(t *testing.T) {
	ctx := context.Background()
	s, path := newTestSession(t, true)
	require.NoError(t, s.load(ctx))
	require.Len(t, s.view.VisibleRows(), 12)

	good, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("{broken\n"), 0o644))

	// A keystroke from the search box hits the broken file.
	s.target().SetFilterQuery("ann")
	assert.Len(t, s.view.VisibleRows(), 12)

	require.NoError(t, os.WriteFile(path, good, 0o644))

	require.NoError(t, s.load(ctx))
	assert.Len(t, s.view.VisibleRows(), 3)
}

func TestSession_SetQueryReportsOwnFailure(t *testing.T) {
	ctx := context.Background()
	s, path := newTestSession(t, true)
	require.NoError(t, s.load(ctx))

	good, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("{broken\n"), 0o644))

	err = s.setQuery("ann")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")

	require.NoError(t, os.WriteFile(path, good, 0o644))
	require.NoError(t, s.setQuery("bob"))
	require.Len(t, s.view.VisibleRows(), 1)
	assert.Equal(t, int64(2), s.view.VisibleRows()[0].ID)
}
