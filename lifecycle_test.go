package mediasoup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLifecycle() *lifecycle {
	l := &lifecycle{}
	l.init(logr.Discard())
	return l
}

func TestLifecycle_StateMachine(t *testing.T) {
	l := newTestLifecycle()
	assert.Equal(t, StateOpen, l.State())
	assert.False(t, l.Closed())

	var calls int32
	l.OnClose(func() { atomic.AddInt32(&calls, 1) })

	require.True(t, l.beginClose())
	assert.False(t, l.beginClose())
	assert.Equal(t, StateClosing, l.State())
	assert.True(t, l.Closed())
	assert.Zero(t, atomic.LoadInt32(&calls), "close handlers wait for Closed")

	l.finishClose()
	l.finishClose()
	assert.Equal(t, StateClosed, l.State())
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	select {
	case <-l.Done():
	default:
		t.Fatal("done not closed")
	}
}

func TestLifecycle_OnCloseAfterClosedRunsImmediately(t *testing.T) {
	l := newTestLifecycle()
	l.beginClose()
	l.finishClose()

	called := false
	l.OnClose(func() { called = true })
	assert.True(t, called)
}

func TestLifecycle_OffRemovesHandler(t *testing.T) {
	l := newTestLifecycle()

	called := false
	off := l.OnClose(func() { called = true })
	off()

	l.beginClose()
	l.finishClose()
	assert.False(t, called)
}

func TestLifecycle_FinishCloseAfterRequest(t *testing.T) {
	l := newTestLifecycle()
	l.beginClose()

	release := make(chan struct{})
	l.finishCloseAfter(func(ctx context.Context) error {
		<-release
		return errors.New("worker gone")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)
	assert.Equal(t, StateClosing, l.State())

	close(release)
	require.NoError(t, l.Wait(context.Background()))
	assert.Equal(t, StateClosed, l.State())
}

func TestLifecycle_FinishCloseAfterTimeout(t *testing.T) {
	old := closeTimeout
	closeTimeout = 10 * time.Millisecond
	defer func() { closeTimeout = old }()

	l := newTestLifecycle()
	l.beginClose()
	l.finishCloseAfter(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("close did not complete after timeout")
	}
}
