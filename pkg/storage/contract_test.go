package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/simple-model-jobs/pkg/core"
)

// runStorageContract exercises the behaviour every core.Storage backend must share.
func runStorageContract(t *testing.T, newStore func(t *testing.T) core.Storage) {
	ctx := context.Background()

	t.Run("enqueue assigns id and inactive status", func(t *testing.T) {
		s := newStore(t)
		job := &core.Job{Type: "mongoose", Data: []byte(`{"a":1}`), MaxAttempts: 3}
		require.NoError(t, s.Enqueue(ctx, job))
		assert.NotEmpty(t, job.ID)
		assert.Equal(t, core.StatusInactive, job.Status)

		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "mongoose", got.Type)
		assert.JSONEq(t, `{"a":1}`, string(got.Data))
		assert.Equal(t, 3, got.MaxAttempts)
	})

	t.Run("get missing job returns nil", func(t *testing.T) {
		s := newStore(t)
		got, err := s.GetJob(ctx, "does-not-exist")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("dequeue claims matching type once", func(t *testing.T) {
		s := newStore(t)
		job := &core.Job{Type: "mongoose"}
		require.NoError(t, s.Enqueue(ctx, job))
		require.NoError(t, s.Enqueue(ctx, &core.Job{Type: "other"}))

		claimed, err := s.Dequeue(ctx, []string{"mongoose"}, "w1")
		require.NoError(t, err)
		require.NotNil(t, claimed)
		assert.Equal(t, job.ID, claimed.ID)
		assert.Equal(t, core.StatusActive, claimed.Status)
		assert.Equal(t, 1, claimed.Attempt)
		assert.Equal(t, "w1", claimed.LockedBy)

		again, err := s.Dequeue(ctx, []string{"mongoose"}, "w2")
		require.NoError(t, err)
		assert.Nil(t, again)
	})

	t.Run("dequeue skips jobs scheduled in the future", func(t *testing.T) {
		s := newStore(t)
		later := time.Now().Add(time.Hour)
		require.NoError(t, s.Enqueue(ctx, &core.Job{Type: "mongoose", RunAt: &later}))

		claimed, err := s.Dequeue(ctx, []string{"mongoose"}, "w1")
		require.NoError(t, err)
		assert.Nil(t, claimed)
	})

	t.Run("complete stores result", func(t *testing.T) {
		s := newStore(t)
		job := &core.Job{Type: "mongoose"}
		require.NoError(t, s.Enqueue(ctx, job))
		_, err := s.Dequeue(ctx, []string{"mongoose"}, "w1")
		require.NoError(t, err)

		require.NoError(t, s.Complete(ctx, job.ID, "w1", []byte(`"ok"`)))

		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, core.StatusComplete, got.Status)
		assert.Equal(t, `"ok"`, string(got.Result))
		assert.NotNil(t, got.CompletedAt)

		n, err := s.CountByStatus(ctx, core.StatusComplete)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("complete by another worker is rejected", func(t *testing.T) {
		s := newStore(t)
		job := &core.Job{Type: "mongoose"}
		require.NoError(t, s.Enqueue(ctx, job))
		_, err := s.Dequeue(ctx, []string{"mongoose"}, "w1")
		require.NoError(t, err)

		err = s.Complete(ctx, job.ID, "intruder", nil)
		assert.ErrorIs(t, err, core.ErrJobNotOwned)
	})

	t.Run("fail with retry makes job deliverable again", func(t *testing.T) {
		s := newStore(t)
		job := &core.Job{Type: "mongoose", MaxAttempts: 3}
		require.NoError(t, s.Enqueue(ctx, job))
		_, err := s.Dequeue(ctx, []string{"mongoose"}, "w1")
		require.NoError(t, err)

		retryAt := time.Now().Add(-time.Millisecond)
		require.NoError(t, s.Fail(ctx, job.ID, "w1", "boom", &retryAt))

		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, core.StatusInactive, got.Status)
		assert.Equal(t, "boom", got.LastError)

		again, err := s.Dequeue(ctx, []string{"mongoose"}, "w2")
		require.NoError(t, err)
		require.NotNil(t, again)
		assert.Equal(t, 2, again.Attempt)
	})

	t.Run("fail without retry is terminal", func(t *testing.T) {
		s := newStore(t)
		job := &core.Job{Type: "mongoose"}
		require.NoError(t, s.Enqueue(ctx, job))
		_, err := s.Dequeue(ctx, []string{"mongoose"}, "w1")
		require.NoError(t, err)

		require.NoError(t, s.Fail(ctx, job.ID, "w1", "bad\x00"+strings.Repeat("x", 5000), nil))

		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, core.StatusFailed, got.Status)
		assert.NotContains(t, got.LastError, "\x00")
		assert.LessOrEqual(t, len([]rune(got.LastError)), 4096)

		n, err := s.CountByStatus(ctx, core.StatusFailed)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("remove deletes job", func(t *testing.T) {
		s := newStore(t)
		job := &core.Job{Type: "mongoose"}
		require.NoError(t, s.Enqueue(ctx, job))

		require.NoError(t, s.Remove(ctx, job.ID))
		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		assert.ErrorIs(t, s.Remove(ctx, job.ID), core.ErrJobNotFound)
	})

	t.Run("clear wipes everything", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 3; i++ {
			require.NoError(t, s.Enqueue(ctx, &core.Job{Type: "mongoose"}))
		}
		require.NoError(t, s.Clear(ctx))

		n, err := s.CountByStatus(ctx, core.StatusInactive)
		require.NoError(t, err)
		assert.Zero(t, n)

		claimed, err := s.Dequeue(ctx, []string{"mongoose"}, "w1")
		require.NoError(t, err)
		assert.Nil(t, claimed)
	})
}
