package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/simple-model-jobs/pkg/jobctx"
)

func TestResolve_FacadeOptions(t *testing.T) {
	defaults := Config{
		Name:        "mongoose",
		Concurrency: 10,
		Attempts:    3,
		Broker:      "redis://127.0.0.1:6379",
	}

	cfg := Resolve(defaults, Config{},
		Name("models"),
		Types("mail"),
		Concurrency(4),
		Timeout(2*time.Second),
		Attempts(5),
		WithBackoff(BackoffFixed, 250*time.Millisecond),
		RemoveOnComplete(true),
		Broker("memory://"),
		Prefix("app"),
		PollInterval(20*time.Millisecond),
	)

	assert.Equal(t, "models", cfg.Name)
	assert.Equal(t, []string{"models", "mail"}, cfg.Types)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.Attempts)
	assert.Equal(t, Backoff{Kind: BackoffFixed, Delay: 250 * time.Millisecond}, cfg.Backoff)
	assert.True(t, cfg.RemoveOnComplete)
	assert.Equal(t, "memory://", cfg.Broker)
	assert.Equal(t, "app", cfg.Prefix)
	assert.Equal(t, 20*time.Millisecond, cfg.PollInterval)
}

func TestNew_StartsUnset(t *testing.T) {
	m := New(NewRegistry())
	assert.Equal(t, StateUnset, m.State())
	assert.Nil(t, m.Handle())
}

func TestSchedules(t *testing.T) {
	from := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, from.Add(time.Minute), Every(time.Minute).Next(from))
	assert.Equal(t, time.Date(2024, 1, 1, 14, 30, 0, 0, time.UTC), Daily(14, 30).Next(from))

	s, err := Cron("*/5 * * * *")
	require.NoError(t, err)
	assert.Equal(t, from.Add(5*time.Minute), s.Next(from))

	_, err = Cron("nope")
	assert.Error(t, err)
}

func TestJobFromContext(t *testing.T) {
	assert.Nil(t, JobFromContext(context.Background()))
	assert.Empty(t, JobIDFromContext(context.Background()))

	job := &Job{ID: "job-7"}
	ctx := jobctx.WithJob(context.Background(), job)
	assert.Same(t, job, JobFromContext(ctx))
	assert.Equal(t, "job-7", JobIDFromContext(ctx))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, 500, StatusOf(ErrNoQueue))
}
