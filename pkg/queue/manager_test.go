package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/simple-model-jobs/pkg/config"
	"github.com/jdziat/simple-model-jobs/pkg/core"
)

func testDefaults() config.Config {
	return config.Config{
		Name:             "mongoose",
		Concurrency:      10,
		Timeout:          5 * time.Second,
		Attempts:         3,
		Backoff:          core.Backoff{Kind: core.BackoffExponential, Delay: time.Second},
		RemoveOnComplete: true,
		Broker:           "memory://",
		Prefix:           "q",
		PollInterval:     100 * time.Millisecond,
	}
}

func noopProcessor(context.Context, *core.Job) (any, error) { return nil, nil }

func newTestManager(p *fakeProvider, opts ...Option) *Manager {
	return New(p, noopProcessor, append([]Option{WithDefaults(testDefaults())}, opts...)...)
}

func TestManager_InitIsIdempotent(t *testing.T) {
	p := &fakeProvider{}
	m := newTestManager(p)
	ctx := context.Background()

	same, err := m.Init(ctx)
	require.NoError(t, err)
	assert.Same(t, m, same)
	h := m.Handle()
	require.NotNil(t, h)
	assert.Equal(t, StateInitialized, m.State())

	_, err = m.Init(ctx, config.Concurrency(2), config.Types("emails"))
	require.NoError(t, err)

	assert.Equal(t, 1, p.createCount())
	assert.Same(t, h, m.Handle())
	assert.Equal(t, 2, m.Config().Concurrency)
	assert.Equal(t, []string{"mongoose", "emails"}, m.Config().Types)
}

func TestManager_ConcurrentInitCreatesOneHandle(t *testing.T) {
	p := &fakeProvider{}
	m := newTestManager(p)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Init(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, p.createCount())
}

func TestManager_InitAccumulatesTypes(t *testing.T) {
	p := &fakeProvider{}
	m := newTestManager(p)
	ctx := context.Background()

	_, err := m.Init(ctx, config.Types("a"))
	require.NoError(t, err)
	_, err = m.Init(ctx, config.Types("b", "a"))
	require.NoError(t, err)

	assert.Equal(t, []string{"mongoose", "a", "b"}, m.Config().Types)
}

func TestManager_InitFailureLeavesUnset(t *testing.T) {
	boom := errors.New("connection refused")
	p := &fakeProvider{createErr: boom}
	m := newTestManager(p)

	_, err := m.Init(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, m.Handle())
	assert.Equal(t, StateUnset, m.State())

	assert.ErrorIs(t, m.Start(context.Background()), boom)
}

func TestManager_StartRegistersEveryTypeOnce(t *testing.T) {
	p := &fakeProvider{}
	coord := &fakeCoordinator{}
	m := newTestManager(p, WithCoordinator(coord))
	ctx := context.Background()

	require.NoError(t, m.Start(ctx, config.Types("emails"), config.Concurrency(4)))
	assert.Equal(t, StateStarted, m.State())

	h := p.handles[0]
	assert.Equal(t, map[string]int{"mongoose": 1, "emails": 1}, h.processed)
	assert.Equal(t, 4, h.concurrency)

	require.NoError(t, m.Start(ctx, config.Types("reports")))
	assert.Equal(t, map[string]int{"mongoose": 1, "emails": 1, "reports": 1}, h.processed)

	require.Len(t, coord.armed, 2)
	assert.Same(t, m, coord.armed[0])
}

func TestManager_StopRestoresDefaults(t *testing.T) {
	p := &fakeProvider{}
	m := newTestManager(p)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx, config.Concurrency(2), config.Types("emails"), config.Timeout(time.Second)))
	require.NoError(t, m.Stop(ctx))

	assert.Nil(t, m.Handle())
	assert.Equal(t, StateUnset, m.State())
	assert.Equal(t, []time.Duration{time.Second}, p.handles[0].timeouts)
	assert.Equal(t, testDefaults(), m.Config())

	_, err := m.Init(ctx, config.Attempts(7))
	require.NoError(t, err)

	want := testDefaults()
	want.Types = []string{"mongoose"}
	want.Attempts = 7
	assert.Equal(t, want, m.Config(), "previous session overrides do not leak")
	assert.Equal(t, 2, p.createCount())
}

func TestManager_ResetTwiceSucceeds(t *testing.T) {
	p := &fakeProvider{}
	m := newTestManager(p)
	ctx := context.Background()

	_, err := m.Init(ctx)
	require.NoError(t, err)

	assert.NoError(t, m.Reset(ctx))
	assert.NoError(t, m.Reset(ctx))
	assert.Equal(t, 1, p.handles[0].shutdowns)
}

func TestManager_StopWithoutHandle(t *testing.T) {
	m := newTestManager(&fakeProvider{})
	assert.NoError(t, m.Stop(context.Background()))
}

func TestManager_StopDuringShutdownIsNoop(t *testing.T) {
	gate := make(chan struct{})
	p := &fakeProvider{shutdownGate: gate}
	m := newTestManager(p)
	ctx := context.Background()
	require.NoError(t, m.Start(ctx))

	first := make(chan error, 1)
	go func() { first <- m.Stop(ctx) }()

	require.Eventually(t, func() bool { return m.State() == StateShuttingDown }, time.Second, time.Millisecond)

	assert.NoError(t, m.Stop(ctx), "second stop returns at once")
	assert.ErrorIs(t, m.Start(ctx), core.ErrShuttingDown)

	close(gate)
	assert.NoError(t, <-first)
	assert.Equal(t, 1, p.handles[0].shutdowns)
	assert.Equal(t, StateUnset, m.State())
}

func TestManager_StopFailureKeepsHandle(t *testing.T) {
	p := &fakeProvider{shutdownErr: core.ErrShutdownTimeout}
	m := newTestManager(p)
	ctx := context.Background()
	require.NoError(t, m.Start(ctx, config.Concurrency(3)))
	h := m.Handle()

	err := m.Stop(ctx)
	assert.ErrorIs(t, err, core.ErrShutdownTimeout)
	assert.Same(t, h, m.Handle())
	assert.Equal(t, StateStarted, m.State())
	assert.Equal(t, 3, m.Config().Concurrency)
}

func TestManager_StartAfterFailedStopRegistersTypesAgain(t *testing.T) {
	p := &fakeProvider{shutdownErr: core.ErrShutdownTimeout}
	m := newTestManager(p)
	ctx := context.Background()
	require.NoError(t, m.Start(ctx, config.Types("emails")))
	h := p.handles[0]

	require.Error(t, m.Stop(ctx))
	require.NoError(t, m.Start(ctx))

	assert.Equal(t, map[string]int{"mongoose": 2, "emails": 2}, h.processed)
	assert.Equal(t, 1, p.createCount(), "the kept handle is reused")
	assert.Equal(t, StateStarted, m.State())
}

func TestManager_HandleHookRunsForEveryNewHandle(t *testing.T) {
	p := &fakeProvider{}
	var seen []core.QueueHandle
	m := newTestManager(p, WithHandleHook(func(h core.QueueHandle) { seen = append(seen, h) }))
	ctx := context.Background()

	_, err := m.Init(ctx)
	require.NoError(t, err)
	_, err = m.Init(ctx)
	require.NoError(t, err)
	require.Len(t, seen, 1, "an existing handle is not reported again")

	require.NoError(t, m.Stop(ctx))
	_, err = m.Init(ctx)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Same(t, p.handles[0], seen[0])
	assert.Same(t, p.handles[1], seen[1])
}

func TestManager_Clear(t *testing.T) {
	p := &fakeProvider{}
	m := newTestManager(p)
	ctx := context.Background()

	require.NoError(t, m.Clear(ctx))
	require.Len(t, p.cleared, 1, "no handle: provider clears directly")
	assert.Equal(t, "memory://", p.cleared[0].Broker)

	_, err := m.Init(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Clear(ctx))
	assert.Equal(t, 1, p.handles[0].cleared)
	assert.Len(t, p.cleared, 1)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unset", StateUnset.String())
	assert.Equal(t, "initialized", StateInitialized.String())
	assert.Equal(t, "started", StateStarted.String())
	assert.Equal(t, "shutting_down", StateShuttingDown.String())
}
