package mediasoup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkerManager(t *testing.T, n int) *WorkerManager {
	manager, err := NewWorkerManager(n, fakeWorkerOptions("1")...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		manager.Close(ctx)
	})

	return manager
}

func TestNewWorkerManager(t *testing.T) {
	manager := newTestWorkerManager(t, 3)

	workers := manager.Workers()
	require.Len(t, workers, 3)
	pids := map[int]bool{}
	for _, w := range workers {
		assert.False(t, w.Closed())
		pids[w.Pid()] = true
	}
	assert.Len(t, pids, 3)

	var typeError *TypeError
	_, err := NewWorkerManager(0)
	assert.ErrorAs(t, err, &typeError)
}

func TestNewWorkerManager_SpawnFailure(t *testing.T) {
	_, err := NewWorkerManager(2, fakeWorkerOptions("crash")...)
	assert.ErrorIs(t, err, ErrSpawnFailure)
}

func TestWorkerManager_RoundRobin(t *testing.T) {
	manager := newTestWorkerManager(t, 3)
	workers := manager.Workers()

	for i := 0; i < 6; i++ {
		w, err := manager.Get()
		require.NoError(t, err)
		assert.Same(t, workers[i%3], w)
	}

	// closed workers are skipped
	workers[1].Close()
	for i := 0; i < 4; i++ {
		w, err := manager.Get()
		require.NoError(t, err)
		assert.NotSame(t, workers[1], w)
	}
}

func TestWorkerManager_CreateRouter(t *testing.T) {
	manager := newTestWorkerManager(t, 2)

	first, err := manager.CreateRouter(&RouterOptions{MediaCodecs: testMediaCodecs()})
	require.NoError(t, err)
	second, err := manager.CreateRouter(&RouterOptions{MediaCodecs: testMediaCodecs()})
	require.NoError(t, err)

	workers := manager.Workers()
	assert.Equal(t, []*Router{first}, workers[0].Routers())
	assert.Equal(t, []*Router{second}, workers[1].Routers())
}

func TestWorkerManager_Respawn(t *testing.T) {
	manager := newTestWorkerManager(t, 2)
	workers := manager.Workers()

	// gracefully closed workers are not replaced
	workers[0].Close()
	replaced, err := manager.Respawn(context.Background())
	require.NoError(t, err)
	assert.Zero(t, replaced)

	_, err = workers[1].channel.Request(context.Background(), "fake.exit", "", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return workers[1].Closed() && workers[1].Err() != nil
	}, time.Second, 10*time.Millisecond)

	_, err = manager.Get()
	assert.ErrorIs(t, err, ErrWorkerClosed)

	replaced, err = manager.Respawn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, replaced)

	respawned := manager.Workers()[1]
	assert.NotSame(t, workers[1], respawned)
	assert.False(t, respawned.Closed())

	w, err := manager.Get()
	require.NoError(t, err)
	assert.Same(t, respawned, w)
}

func TestWorkerManager_Close(t *testing.T) {
	manager := newTestWorkerManager(t, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, manager.Close(ctx))
	require.NoError(t, manager.Close(ctx))

	for _, w := range manager.Workers() {
		assert.True(t, w.Closed())
	}
	_, err := manager.Get()
	assert.ErrorIs(t, err, ErrWorkerClosed)

	_, err = manager.CreateRouter(&RouterOptions{MediaCodecs: testMediaCodecs()})
	assert.ErrorIs(t, err, ErrWorkerClosed)

	_, err = manager.Respawn(ctx)
	assert.ErrorIs(t, err, ErrWorkerClosed)
}
