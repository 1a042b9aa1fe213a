package mediasoup

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/go-logr/logr"
)

// eventEmitter is the subscriber list of one typed event of an entity.
// Handlers run in registration order; a panicking handler is logged and does
// not prevent the remaining handlers from running.
type eventEmitter[T any] struct {
	mu       sync.Mutex
	nextId   uint64
	handlers []eventHandler[T]
}

type eventHandler[T any] struct {
	id   uint64
	once bool
	fn   func(T)
}

// on registers fn and returns a function that removes it again.
func (e *eventEmitter[T]) on(fn func(T)) (off func()) {
	return e.add(fn, false)
}

func (e *eventEmitter[T]) once(fn func(T)) (off func()) {
	return e.add(fn, true)
}

func (e *eventEmitter[T]) add(fn func(T), once bool) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextId++
	id := e.nextId
	e.handlers = append(e.handlers, eventHandler[T]{id: id, once: once, fn: fn})

	return func() { e.off(id) }
}

func (e *eventEmitter[T]) off(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, h := range e.handlers {
		if h.id == id {
			e.handlers = append(e.handlers[:i:i], e.handlers[i+1:]...)
			return
		}
	}
}

// emit calls every handler registered at this moment and reports whether
// there was any.
func (e *eventEmitter[T]) emit(logger logr.Logger, v T) bool {
	e.mu.Lock()
	handlers := e.handlers
	kept := handlers[:0:0]
	for _, h := range handlers {
		if !h.once {
			kept = append(kept, h)
		}
	}
	e.handlers = kept
	e.mu.Unlock()

	for _, h := range handlers {
		safeCall(logger, h.fn, v)
	}
	return len(handlers) > 0
}

func (e *eventEmitter[T]) len() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.handlers)
}

func (e *eventEmitter[T]) clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.handlers = nil
}

func safeCall[T any](logger logr.Logger, fn func(T), v T) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(fmt.Errorf("%v", r), "event handler panic", "stack", string(debug.Stack()))
		}
	}()
	fn(v)
}
