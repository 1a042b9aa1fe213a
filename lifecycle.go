package mediasoup

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
)

// closeTimeout bounds how long an entity waits for the worker to acknowledge
// its close request before it is considered closed anyway.
var closeTimeout = 2 * time.Second

type EntityState int32

const (
	StateOpen EntityState = iota
	StateClosing
	StateClosed
)

func (s EntityState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

// lifecycle drives the Open -> Closing -> Closed state machine shared by all
// entities. "close" handlers run exactly once, on entering Closed.
type lifecycle struct {
	state      int32
	done       chan struct{}
	closeEvent eventEmitter[struct{}]
	logger     logr.Logger
}

func (l *lifecycle) init(logger logr.Logger) {
	l.done = make(chan struct{})
	l.logger = logger
}

// State returns the current lifecycle state.
func (l *lifecycle) State() EntityState {
	return EntityState(atomic.LoadInt32(&l.state))
}

// Closed reports whether close has been requested. No operation can be issued
// against the entity once this returns true.
func (l *lifecycle) Closed() bool {
	return l.State() != StateOpen
}

// Done is closed when the entity reaches Closed.
func (l *lifecycle) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until the entity reaches Closed or ctx is done.
func (l *lifecycle) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnClose registers a handler for the transition to Closed. Registering on an
// entity that is already Closed runs the handler right away.
func (l *lifecycle) OnClose(handler func()) (off func()) {
	off = l.closeEvent.once(func(struct{}) { handler() })
	if l.State() == StateClosed && l.closeEvent.len() > 0 {
		l.closeEvent.emit(l.logger, struct{}{})
	}
	return off
}

// beginClose moves Open to Closing and reports whether the caller won the
// transition and owns the rest of the close sequence.
func (l *lifecycle) beginClose() bool {
	return atomic.CompareAndSwapInt32(&l.state, int32(StateOpen), int32(StateClosing))
}

// finishClose moves Closing to Closed and notifies the close handlers.
func (l *lifecycle) finishClose() {
	if !atomic.CompareAndSwapInt32(&l.state, int32(StateClosing), int32(StateClosed)) {
		return
	}
	close(l.done)
	l.closeEvent.emit(l.logger, struct{}{})
}

// finishCloseAfter completes the close once the worker acknowledged it or
// closeTimeout elapsed, in the background.
func (l *lifecycle) finishCloseAfter(request func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()

		if err := request(ctx); err != nil {
			l.logger.V(1).Info("close request failed", "error", err.Error())
		}
		l.finishClose()
	}()
}
