package channel

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

type pendingRequest struct {
	method string
	sentAt time.Time
	ch     chan result
}

// pendingTable correlates requests with responses. Ids grow monotonically,
// wrap at MaxRequestId and are never handed out while still outstanding.
type pendingTable struct {
	mu       sync.Mutex
	nextId   uint32
	closed   bool
	requests map[uint32]*pendingRequest
}

func newPendingTable() *pendingTable {
	return &pendingTable{
		requests: make(map[uint32]*pendingRequest),
	}
}

func (t *pendingTable) add(method string) (uint32, *pendingRequest, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, nil, ErrChannelClosed
	}
	for {
		if t.nextId < MaxRequestId {
			t.nextId++
		} else {
			t.nextId = 1
		}
		if _, busy := t.requests[t.nextId]; !busy {
			break
		}
	}
	p := &pendingRequest{
		method: method,
		sentAt: time.Now(),
		ch:     make(chan result, 1),
	}
	t.requests[t.nextId] = p

	return t.nextId, p, nil
}

func (t *pendingTable) take(id uint32) *pendingRequest {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.requests[id]
	if ok {
		delete(t.requests, id)
	}
	return p
}

func (t *pendingTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.requests)
}

// close fails every outstanding request with ErrChannelClosed.
func (t *pendingTable) close() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0
	}
	t.closed = true
	n := len(t.requests)

	for id, p := range t.requests {
		delete(t.requests, id)
		p.ch <- result{err: ErrChannelClosed}
	}
	return n
}

// resolve completes the request a response belongs to.
func (t *pendingTable) resolve(msg *message, logger logr.Logger) (*pendingRequest, bool) {
	p := t.take(msg.Id)
	if p == nil {
		logger.Error(nil, "received response does not match any sent request", "id", msg.Id)
		return nil, false
	}
	switch {
	case msg.Accepted:
		logger.V(1).Info("request succeeded", "method", p.method, "id", msg.Id)
		p.ch <- result{resp: Response{Data: msg.Data}}

	case len(msg.Error) > 0:
		logger.Info("request failed", "method", p.method, "id", msg.Id, "error", msg.Error, "reason", msg.Reason)
		p.ch <- result{err: &RequestError{Method: p.method, Kind: msg.Error, Reason: msg.Reason}}

	default:
		logger.Error(nil, "received response is not accepted nor rejected", "method", p.method, "id", msg.Id)
		p.ch <- result{err: &RequestError{Method: p.method, Kind: "Error", Reason: "malformed response"}}
	}
	return p, true
}

// await blocks until the request completes or ctx is done. A cancelled caller
// leaves the worker side untouched, the late response is dropped.
func (t *pendingTable) await(ctx context.Context, id uint32, p *pendingRequest) (Response, error) {
	select {
	case r := <-p.ch:
		return r.resp, r.err
	case <-ctx.Done():
		t.take(id)
		return Response{}, ctx.Err()
	}
}
