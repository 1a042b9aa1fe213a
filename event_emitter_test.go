package mediasoup

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
)

func TestEventEmitter_OnOnceOff(t *testing.T) {
	var e eventEmitter[int]
	var got []int

	off := e.on(func(v int) { got = append(got, v) })
	e.once(func(v int) { got = append(got, v*10) })

	assert.True(t, e.emit(logr.Discard(), 1))
	assert.True(t, e.emit(logr.Discard(), 2))
	assert.Equal(t, []int{1, 10, 2}, got)

	off()
	assert.False(t, e.emit(logr.Discard(), 3))
	assert.Zero(t, e.len())
}

func TestEventEmitter_PanicDoesNotStopOthers(t *testing.T) {
	var e eventEmitter[string]
	called := false

	e.on(func(string) { panic("boom") })
	e.on(func(string) { called = true })

	assert.NotPanics(t, func() { e.emit(logr.Discard(), "x") })
	assert.True(t, called)
}

func TestEventEmitter_HandlerMayUnsubscribeItself(t *testing.T) {
	var e eventEmitter[struct{}]
	calls := 0

	var off func()
	off = e.on(func(struct{}) {
		calls++
		off()
	})
	e.on(func(struct{}) { calls++ })

	e.emit(logr.Discard(), struct{}{})
	e.emit(logr.Discard(), struct{}{})
	assert.Equal(t, 3, calls)
}
