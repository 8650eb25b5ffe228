package stats

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(openTestDB(t))
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestStore_AddCountersAccumulates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ts := time.Now()

	require.NoError(t, s.AddCounters(ctx, "User", ts, Counters{Completed: 5, Failed: 2, Retried: 1}))
	require.NoError(t, s.AddCounters(ctx, "User", ts, Counters{Completed: 3, Failed: 1}))

	rows, err := s.History(ctx, "User", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(8), rows[0].Completed)
	assert.Equal(t, int64(3), rows[0].Failed)
	assert.Equal(t, int64(1), rows[0].Retried)
}

func TestStore_SnapshotDepthReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ts := time.Now()

	require.NoError(t, s.AddCounters(ctx, QueueWide, ts, Counters{Completed: 1}))
	require.NoError(t, s.SnapshotDepth(ctx, QueueWide, ts, 10, 2))
	require.NoError(t, s.SnapshotDepth(ctx, QueueWide, ts, 4, 1))

	rows, err := s.History(ctx, QueueWide, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(4), rows[0].Pending)
	assert.Equal(t, int64(1), rows[0].Active)
	assert.Equal(t, int64(1), rows[0].Completed, "snapshot keeps counters")
}

func TestStore_HistoryFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Minute)

	require.NoError(t, s.AddCounters(ctx, "User", now.Add(-2*time.Hour), Counters{Completed: 1}))
	require.NoError(t, s.AddCounters(ctx, "User", now, Counters{Completed: 2}))
	require.NoError(t, s.AddCounters(ctx, "Order", now, Counters{Failed: 1}))

	recent, err := s.History(ctx, "User", now.Add(-time.Hour), time.Time{})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, int64(2), recent[0].Completed)

	all, err := s.History(ctx, "", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_Prune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.AddCounters(ctx, "User", now.Add(-48*time.Hour), Counters{Completed: 1}))
	require.NoError(t, s.AddCounters(ctx, "User", now, Counters{Completed: 1}))

	n, err := s.Prune(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := s.History(ctx, "", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCounters_IsZero(t *testing.T) {
	assert.True(t, Counters{}.IsZero())
	assert.False(t, Counters{Retried: 1}.IsZero())
}
