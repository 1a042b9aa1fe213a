package mediasoup

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// MockFunc records the calls of the handlers it hands out. Expectations wait
// for the timeout before their first check so that events delivered
// asynchronously by the worker are counted.
type MockFunc struct {
	require *require.Assertions
	timeout time.Duration

	mu      sync.Mutex
	gen     int
	calls   [][]any
	settled bool
}

func NewMockFunc(t *testing.T) *MockFunc {
	return &MockFunc{
		require: require.New(t),
		timeout: 50 * time.Millisecond,
	}
}

func (w *MockFunc) WithTimeout(timeout time.Duration) *MockFunc {
	w.timeout = timeout
	return w
}

// Fn resets the recorded calls and returns a new handler. Handlers returned
// by earlier calls are ignored from now on.
func (w *MockFunc) Fn() func(...any) {
	w.Reset()

	w.mu.Lock()
	gen := w.gen
	w.mu.Unlock()

	return func(args ...any) {
		w.mu.Lock()
		defer w.mu.Unlock()

		if gen == w.gen {
			w.calls = append(w.calls, args)
		}
	}
}

func (w *MockFunc) ExpectCalledWith(args ...any) {
	w.wait()

	last, ok := w.lastCall()
	if !ok {
		w.require.FailNow("fn is not called")
		return
	}
	if len(args) != len(last) {
		w.require.FailNowf("fn is called with a different number of arguments", "want %d, got %d", len(args), len(last))
		return
	}
	for i, arg := range args {
		w.require.EqualValues(arg, last[i])
	}
}

func (w *MockFunc) ExpectCalled(msgAndArgs ...any) {
	w.require.NotZero(w.CalledTimes(), msgAndArgs...)
}

func (w *MockFunc) ExpectCalledTimes(called int, msgAndArgs ...any) {
	w.require.Equal(called, w.CalledTimes(), msgAndArgs...)
}

func (w *MockFunc) CalledTimes() int {
	w.wait()

	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.calls)
}

func (w *MockFunc) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.gen++
	w.calls = nil
	w.settled = false
}

func (w *MockFunc) lastCall() ([]any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.calls) == 0 {
		return nil, false
	}
	return w.calls[len(w.calls)-1], true
}

// wait sleeps for the timeout until at least one call was seen after a wait.
func (w *MockFunc) wait() {
	w.mu.Lock()
	settled := w.settled
	w.mu.Unlock()

	if settled {
		return
	}
	time.Sleep(w.timeout)

	w.mu.Lock()
	w.settled = len(w.calls) > 0
	w.mu.Unlock()
}
