package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ipbot/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func newChange(oldIP, newIP string, changedAt time.Time) types.IPChange {
	return types.IPChange{
		ID:        uuid.New().String(),
		OldIP:     oldIP,
		NewIP:     newIP,
		ChangedAt: changedAt,
	}
}

func TestStoreRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Record(ctx, newChange("", "203.0.113.7", now.Add(-2*time.Hour))))
	require.NoError(t, store.Record(ctx, newChange("203.0.113.7", "198.51.100.23", now.Add(-time.Hour))))
	require.NoError(t, store.Record(ctx, newChange("198.51.100.23", "192.0.2.9", now)))

	changes, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	// Newest first
	assert.Equal(t, "192.0.2.9", changes[0].NewIP)
	assert.Equal(t, "198.51.100.23", changes[1].NewIP)
	assert.Equal(t, "198.51.100.23", changes[0].OldIP)
}

func TestStorePrune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Record(ctx, newChange("", "203.0.113.7", now.AddDate(0, 0, -120))))
	require.NoError(t, store.Record(ctx, newChange("203.0.113.7", "198.51.100.23", now.AddDate(0, 0, -100))))
	require.NoError(t, store.Record(ctx, newChange("198.51.100.23", "192.0.2.9", now)))

	deleted, err := store.Prune(ctx, now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	changes, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "192.0.2.9", changes[0].NewIP)
}

func TestStoreRecentEmpty(t *testing.T) {
	store := openTestStore(t)

	changes, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, changes)
}
