package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataMethod_ReceivesData(t *testing.T) {
	m := DataMethod(func(ctx context.Context, data Data) (any, error) {
		return data["to"], nil
	})

	assert.Equal(t, TakesData, m.Arity())
	assert.True(t, m.Valid())

	got, err := m.Invoke(context.Background(), Data{"to": "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got)
}

func TestPlainMethod_IgnoresData(t *testing.T) {
	called := false
	m := PlainMethod(func(ctx context.Context) (any, error) {
		called = true
		return nil, nil
	})

	assert.Equal(t, NoData, m.Arity())
	got, err := m.Invoke(context.Background(), Data{"to": "a@x.com"})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.True(t, called)
}

func TestMethod_ZeroValueIsInvalid(t *testing.T) {
	assert.False(t, Method{}.Valid())
	assert.False(t, DataMethod(nil).Valid())
	assert.False(t, PlainMethod(nil).Valid())
}

func TestJobBackoffRoundTrip(t *testing.T) {
	job := &Job{}
	job.SetBackoff(Backoff{Kind: BackoffFixed, Delay: 1500 * time.Millisecond})

	assert.Equal(t, "fixed", job.BackoffKind)
	assert.Equal(t, int64(1500), job.BackoffDelay)
	assert.Equal(t, Backoff{Kind: BackoffFixed, Delay: 1500 * time.Millisecond}, job.Backoff())
}
