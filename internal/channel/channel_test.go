package channel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel_RequestAccepted(t *testing.T) {
	client, worker := newCodecPair()
	c := NewChannel(client, testOptions(nil))
	c.Start()
	defer c.Close()

	go func() {
		req := readRequest(t, worker)
		assert.Equal(t, "router.dump", req.Method)
		assert.Equal(t, "router-1", req.TargetId)
		assert.JSONEq(t, `{"foo":"bar"}`, string(req.Data))

		writeJSON(t, worker, H{"id": req.Id, "accepted": true, "data": H{"id": "router-1"}})
	}()

	resp, err := c.Request(context.Background(), "router.dump", "router-1", H{"foo": "bar"})
	require.NoError(t, err)

	var dump struct{ Id string }
	require.NoError(t, resp.Unmarshal(&dump))
	assert.Equal(t, "router-1", dump.Id)
}

func TestChannel_RequestRejected(t *testing.T) {
	client, worker := newCodecPair()
	c := NewChannel(client, testOptions(nil))
	c.Start()
	defer c.Close()

	go func() {
		req := readRequest(t, worker)
		writeJSON(t, worker, H{"id": req.Id, "error": "TypeError", "reason": "wrong logLevel"})
		req = readRequest(t, worker)
		writeJSON(t, worker, H{"id": req.Id, "error": "Error", "reason": "router not found"})
	}()

	_, err := c.Request(context.Background(), "worker.updateSettings", "", nil)
	require.ErrorIs(t, err, ErrRequestRejected)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.True(t, reqErr.IsTypeError())
	assert.Equal(t, "wrong logLevel", reqErr.Reason)
	assert.Equal(t, "worker.updateSettings", reqErr.Method)

	_, err = c.Request(context.Background(), "router.dump", "x", nil)
	require.True(t, errors.As(err, &reqErr))
	assert.False(t, reqErr.IsTypeError())
}

func TestChannel_ResponsesMatchedOutOfOrder(t *testing.T) {
	client, worker := newCodecPair()
	c := NewChannel(client, testOptions(nil))
	c.Start()
	defer c.Close()

	go func() {
		first := readRequest(t, worker)
		second := readRequest(t, worker)
		writeJSON(t, worker, H{"id": second.Id, "accepted": true, "data": H{"method": second.Method}})
		writeJSON(t, worker, H{"id": first.Id, "accepted": true, "data": H{"method": first.Method}})
	}()

	wg := sync.WaitGroup{}
	for _, method := range []string{"a", "b"} {
		method := method
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := c.Request(context.Background(), method, "", nil)
			require.NoError(t, err)

			var body struct{ Method string }
			require.NoError(t, resp.Unmarshal(&body))
			assert.Equal(t, method, body.Method)
		}()
	}
	wg.Wait()
}

func TestChannel_CloseResolvesPendingRequests(t *testing.T) {
	client, worker := newCodecPair()
	c := NewChannel(client, testOptions(nil))
	c.Start()

	const n = 5
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := c.Request(context.Background(), "worker.dump", "", nil)
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		readRequest(t, worker)
	}
	c.Close()

	for i := 0; i < n; i++ {
		select {
		case err := <-errs:
			assert.ErrorIs(t, err, ErrChannelClosed)
		case <-time.After(time.Second):
			t.Fatal("pending request was not resolved")
		}
	}
	assert.True(t, c.Closed())

	_, err := c.Request(context.Background(), "worker.dump", "", nil)
	assert.ErrorIs(t, err, ErrChannelClosed)
	assert.ErrorIs(t, c.Notify("worker.close", "", nil), ErrChannelClosed)
}

func TestChannel_WorkerExitClosesChannel(t *testing.T) {
	client, worker := newCodecPair()
	c := NewChannel(client, testOptions(nil))
	c.Start()

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Request(context.Background(), "worker.dump", "", nil)
		errCh <- err
	}()
	readRequest(t, worker)
	worker.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrChannelClosed)
	case <-time.After(time.Second):
		t.Fatal("pending request was not resolved")
	}
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("channel was not closed")
	}
}

func TestChannel_ContextCancelDropsLateResponse(t *testing.T) {
	client, worker := newCodecPair()
	c := NewChannel(client, testOptions(nil))
	c.Start()
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.Request(ctx, "slow", "", nil)
		errCh <- err
	}()
	slow := readRequest(t, worker)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	go func() {
		writeJSON(t, worker, H{"id": slow.Id, "accepted": true})
		req := readRequest(t, worker)
		writeJSON(t, worker, H{"id": req.Id, "accepted": true})
	}()

	_, err := c.Request(context.Background(), "fast", "", nil)
	assert.NoError(t, err)
}

func TestChannel_NotificationsInOrderWithoutReplay(t *testing.T) {
	client, worker := newCodecPair()
	c := NewChannel(client, testOptions(nil))
	c.Start()
	defer c.Close()

	go func() {
		req := readRequest(t, worker)
		writeJSON(t, worker, H{"targetId": "producer-1", "event": "score", "data": []int{0}})
		writeJSON(t, worker, H{"id": req.Id, "accepted": true})
	}()
	_, err := c.Request(context.Background(), "transport.produce", "transport-1", nil)
	require.NoError(t, err)

	var mu sync.Mutex
	var events []string
	done := make(chan struct{})

	c.Subscribe("producer-1", func(event string, data, payload []byte) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event+":"+string(data))
		if len(events) == 3 {
			close(done)
		}
	})

	writeJSON(t, worker, H{"targetId": "producer-1", "event": "score", "data": []int{1}})
	writeJSON(t, worker, H{"targetId": "producer-2", "event": "score", "data": []int{9}})
	writeJSON(t, worker, H{"targetId": "producer-1", "event": "pause"})
	writeJSON(t, worker, H{"targetId": "producer-1", "event": "score", "data": []int{2}})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notifications not delivered")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"score:[1]", "pause:", "score:[2]"}, events)
}

func TestChannel_NumericTargetId(t *testing.T) {
	client, worker := newCodecPair()
	c := NewChannel(client, testOptions(nil))

	running := make(chan string, 1)
	c.Subscribe("4242", func(event string, data, payload []byte) {
		running <- event
	})
	c.Start()
	defer c.Close()

	writeJSON(t, worker, H{"targetId": 4242, "event": "running"})

	select {
	case event := <-running:
		assert.Equal(t, "running", event)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}
}

func TestChannel_UnsubscribeAndPanickingHandler(t *testing.T) {
	client, worker := newCodecPair()
	c := NewChannel(client, testOptions(nil))
	c.Start()
	defer c.Close()

	calls := make(chan string, 10)
	sub := c.Subscribe("x", func(event string, data, payload []byte) {
		calls <- event
		if event == "boom" {
			panic("handler failed")
		}
	})

	writeJSON(t, worker, H{"targetId": "x", "event": "boom"})
	writeJSON(t, worker, H{"targetId": "x", "event": "after"})
	assert.Equal(t, "boom", <-calls)
	assert.Equal(t, "after", <-calls)

	require.NoError(t, sub.Unsubscribe())
	assert.ErrorIs(t, sub.Unsubscribe(), ErrBadSubscription)
	assert.Zero(t, c.subs.count("x"))
}

func TestChannel_WorkerLogLines(t *testing.T) {
	client, worker := newCodecPair()
	out := &syncBuffer{}
	c := NewChannel(client, testOptions(out))
	c.Start()
	defer c.Close()

	require.NoError(t, worker.WritePayload([]byte("Wsomething odd")))
	require.NoError(t, worker.WritePayload([]byte("Ebroken")))

	assert.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, "something odd") && strings.Contains(s, "broken")
	}, time.Second, 10*time.Millisecond)
}

func TestPendingTable_IdsWrapAndSkipOutstanding(t *testing.T) {
	table := newPendingTable()
	table.nextId = MaxRequestId - 1

	id, _, err := table.add("a")
	require.NoError(t, err)
	assert.EqualValues(t, MaxRequestId, id)

	id, _, err = table.add("b")
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)

	table.nextId = MaxRequestId - 1
	id, _, err = table.add("c")
	require.NoError(t, err)
	assert.EqualValues(t, 2, id, "ids still outstanding are skipped")

	assert.Equal(t, 3, table.size())
	assert.Equal(t, 3, table.close())
	assert.Equal(t, 0, table.close())

	_, _, err = table.add("d")
	assert.ErrorIs(t, err, ErrChannelClosed)
}

func TestChannel_NotificationHandledBeforeLaterResponse(t *testing.T) {
	client, worker := newCodecPair()
	c := NewChannel(client, testOptions(nil))
	c.Start()
	defer c.Close()

	var handled atomic.Int32
	c.Subscribe("consumer-1", func(event string, data, payload []byte) {
		// give a racing response every chance to overtake the notification
		time.Sleep(20 * time.Millisecond)
		if event == "producerpause" {
			handled.Add(1)
		}
	})

	const n = 3
	go func() {
		for i := 0; i < n; i++ {
			req := readRequest(t, worker)
			writeJSON(t, worker, H{"targetId": "consumer-1", "event": "producerpause"})
			writeJSON(t, worker, H{"id": req.Id, "accepted": true})
		}
	}()

	for i := 1; i <= n; i++ {
		_, err := c.Request(context.Background(), "consumer.dump", "consumer-1", nil)
		require.NoError(t, err)
		require.EqualValues(t, i, handled.Load(), "notification emitted before the response was not handled")
	}
}

func TestChannel_MalformedFrameClosesChannel(t *testing.T) {
	client, worker, raw := newRawCodecPair()
	c := NewChannel(client, testOptions(nil))
	c.Start()

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Request(context.Background(), "worker.dump", "", nil)
		errCh <- err
	}()
	readRequest(t, worker)

	// a length prefix beyond the largest message a worker may send
	_, err := raw.Write([]byte{0xff, 0xff, 0xff, 0xff})
	require.NoError(t, err)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrChannelClosed)
	case <-time.After(time.Second):
		t.Fatal("pending request was not rejected")
	}
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("channel was not closed")
	}
	assert.True(t, c.Closed())

	_, err = c.Request(context.Background(), "worker.dump", "", nil)
	assert.ErrorIs(t, err, ErrChannelClosed)
}
