package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "axon.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "axon.db"))
	err := store.SaveRun(context.Background(), Run{})
	require.Error(t, err)

	store = NewSQLiteStore("")
	require.Error(t, store.Init(context.Background()))
}

func TestSaveAndGetRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := NewRun("relay", 0.5, 0.001, map[string][]float64{
		"relay.input":  {0},
		"relay.output": {1.0, 61.0},
	})
	require.NotEmpty(t, run.ID)
	require.NoError(t, store.SaveRun(ctx, run))

	got, found, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, run.ID, got.ID)
	require.Equal(t, "relay", got.Circuit)
	require.Equal(t, 0.5, got.Value)
	require.Equal(t, 0.001, got.DT)
	require.WithinDuration(t, run.CreatedAt, got.CreatedAt, time.Microsecond)
	require.Equal(t, run.Spikes, got.Spikes)
}

func TestGetRunNotFound(t *testing.T) {
	store := newTestStore(t)
	_, found, err := store.GetRun(context.Background(), "no-such-run")
	require.NoError(t, err)
	require.False(t, found)
}

func TestListRunsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := NewRun("relay", 0.1, 0.001, nil)
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := NewRun("signed_constant", -0.25, 0.001, nil)
	require.NoError(t, store.SaveRun(ctx, older))
	require.NoError(t, store.SaveRun(ctx, newer))

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, newer.ID, runs[0].ID)
	require.Equal(t, older.ID, runs[1].ID)
	require.Nil(t, runs[0].Spikes, "listing skips the spike logs")

	runs, err = store.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, newer.ID, runs[0].ID)
}

func TestStoreCloseIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
