package mediasoup

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

// WorkerManager owns a fixed size set of workers, typically one per CPU core,
// and hands them out in round robin order.
type WorkerManager struct {
	mu      sync.Mutex
	workers []*Worker
	next    int
	options []Option
	logger  logr.Logger
	closed  bool
}

// NewWorkerManager spawns n workers concurrently with the same options. If
// any spawn fails the workers already running are closed and the first
// error is returned.
func NewWorkerManager(n int, options ...Option) (*WorkerManager, error) {
	if n <= 0 {
		return nil, NewTypeError("number of workers must be positive, got %d", n)
	}
	m := &WorkerManager{
		workers: make([]*Worker, n),
		options: options,
		logger:  NewLogger("WorkerManager"),
	}

	var g errgroup.Group
	for i := range m.workers {
		i := i
		g.Go(func() (err error) {
			m.workers[i], err = m.spawn()
			return
		})
	}
	if err := g.Wait(); err != nil {
		for _, w := range m.workers {
			if w != nil {
				w.Close()
			}
		}
		return nil, err
	}
	m.logger.V(1).Info("workers running", "count", n)

	return m, nil
}

func (m *WorkerManager) spawn() (*Worker, error) {
	w, err := NewWorker(m.options...)
	if err != nil {
		return nil, err
	}
	w.OnDied(func(err error) {
		m.logger.Error(err, "worker died", "pid", w.Pid())
	})
	return w, nil
}

// Workers returns the managed workers, dead ones included until Respawn
// replaces them.
func (m *WorkerManager) Workers() []*Worker {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]*Worker(nil), m.workers...)
}

// Get returns the next open worker in round robin order.
func (m *WorkerManager) Get() (*Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrWorkerClosed
	}
	for range m.workers {
		w := m.workers[m.next]
		m.next = (m.next + 1) % len(m.workers)
		if !w.Closed() {
			return w, nil
		}
	}
	return nil, ErrWorkerClosed
}

// CreateRouter creates a router on the next worker.
func (m *WorkerManager) CreateRouter(options *RouterOptions) (*Router, error) {
	return m.CreateRouterContext(context.Background(), options)
}

func (m *WorkerManager) CreateRouterContext(ctx context.Context, options *RouterOptions) (*Router, error) {
	w, err := m.Get()
	if err != nil {
		return nil, err
	}
	return w.CreateRouterContext(ctx, options)
}

// Respawn replaces the workers that died with new ones and returns how many
// were replaced. Workers are never replaced automatically.
func (m *WorkerManager) Respawn(ctx context.Context) (int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, ErrWorkerClosed
	}
	var dead []int
	for i, w := range m.workers {
		if w.Closed() && w.Err() != nil {
			dead = append(dead, i)
		}
	}
	m.mu.Unlock()

	spawned := make([]*Worker, len(dead))
	g, ctx := errgroup.WithContext(ctx)
	for i := range dead {
		i := i
		g.Go(func() (err error) {
			if err = ctx.Err(); err != nil {
				return
			}
			spawned[i], err = m.spawn()
			return
		})
	}
	err := g.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()

	replaced := 0
	for i, w := range spawned {
		if w == nil {
			continue
		}
		if m.closed {
			w.Close()
			continue
		}
		m.logger.Info("worker respawned", "old", m.workers[dead[i]].Pid(), "new", w.Pid())
		m.workers[dead[i]] = w
		replaced++
	}
	return replaced, err
}

// Close closes every worker and waits until their processes exited or ctx
// is done.
func (m *WorkerManager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	workers := append([]*Worker(nil), m.workers...)
	m.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		w := w
		g.Go(func() error {
			w.Close()
			return w.Wait(ctx)
		})
	}
	return g.Wait()
}
