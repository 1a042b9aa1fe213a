package channel

import (
	"runtime/debug"
	"sync"

	"github.com/go-logr/logr"
)

// Handler receives the notifications of one target. payload is only set for
// notifications of the payload channel.
//
// Handlers run on the goroutine reading the channel, in the order the worker
// emitted the notifications and before any response read after them is
// delivered. A handler must not wait for a response of the same channel.
type Handler func(event string, data []byte, payload []byte)

type msg struct {
	event   string
	data    []byte
	payload []byte
}

// Subscription represents interest in the notifications of one target id.
type Subscription struct {
	mu       sync.Mutex
	sid      int64
	owner    *subscriptions
	TargetId string
	handler  Handler
	closed   bool
}

// Unsubscribe stops delivery. A notification being handled right now is not
// interrupted.
func (s *Subscription) Unsubscribe() error {
	if s == nil {
		return ErrBadSubscription
	}
	s.mu.Lock()
	owner, closed := s.owner, s.closed
	s.mu.Unlock()

	if owner == nil || closed {
		return ErrBadSubscription
	}
	owner.remove(s)
	return nil
}

func (s *Subscription) deliver(m msg, logger logr.Logger) {
	s.mu.Lock()
	handler, closed := s.handler, s.closed
	s.mu.Unlock()

	if closed {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error(nil, "notification handler panic", "targetId", s.TargetId, "event", m.event, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	handler(m.event, m.data, m.payload)
}

// subscriptions is the notification routing table of a channel.
type subscriptions struct {
	mu     sync.RWMutex
	ssid   int64
	subs   map[string][]*Subscription
	logger logr.Logger
}

func newSubscriptions(logger logr.Logger) *subscriptions {
	return &subscriptions{
		subs:   make(map[string][]*Subscription),
		logger: logger,
	}
}

func (t *subscriptions) subscribe(targetId string, handler Handler) *Subscription {
	sub := &Subscription{
		owner:    t,
		TargetId: targetId,
		handler:  handler,
	}

	t.mu.Lock()
	t.ssid++
	sub.sid = t.ssid
	t.subs[targetId] = append(t.subs[targetId], sub)
	t.mu.Unlock()

	return sub
}

// dispatch hands the notification to every subscription of targetId that
// exists right now and returns once all of them handled it. It reports
// whether anybody was listening.
func (t *subscriptions) dispatch(targetId string, m msg) bool {
	t.mu.RLock()
	subs := t.subs[targetId]
	t.mu.RUnlock()

	for _, sub := range subs {
		sub.deliver(m, t.logger)
	}
	return len(subs) > 0
}

func (t *subscriptions) remove(s *Subscription) {
	t.mu.Lock()
	var subs []*Subscription
	for _, sub := range t.subs[s.TargetId] {
		if sub.sid != s.sid {
			subs = append(subs, sub)
		}
	}
	if len(subs) > 0 {
		t.subs[s.TargetId] = subs
	} else {
		delete(t.subs, s.TargetId)
	}
	t.mu.Unlock()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (t *subscriptions) removeAll() {
	t.mu.Lock()
	all := t.subs
	t.subs = make(map[string][]*Subscription)
	t.mu.Unlock()

	for _, subs := range all {
		for _, s := range subs {
			s.mu.Lock()
			s.closed = true
			s.mu.Unlock()
		}
	}
}

func (t *subscriptions) count(targetId string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.subs[targetId])
}
