// Package channel implements the request, response and notification
// multiplexing spoken with a media worker over its control and payload pipes.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/go-logr/logr"
	"github.com/pion/logging"

	"github.com/mediaplane/mediasoup-go/internal/metrics"
	"github.com/mediaplane/mediasoup-go/netcodec"
)

// Options carries the collaborators shared by both channel kinds.
type Options struct {
	Logger logr.Logger
	// WorkerLogger receives the log lines the worker writes on the channel.
	WorkerLogger logging.LeveledLogger
	Metrics      *metrics.Metrics
}

// Channel is the control channel of a worker.
type Channel struct {
	name         string
	codec        netcodec.Codec
	logger       logr.Logger
	workerLogger logging.LeveledLogger
	metrics      *metrics.Metrics
	pending      *pendingTable
	subs         *subscriptions
	closeOnce    sync.Once
	closeCh      chan struct{}
	readDone     chan struct{}
}

func NewChannel(codec netcodec.Codec, opts Options) *Channel {
	logger := opts.Logger.WithName("Channel")

	return &Channel{
		name:         "channel",
		codec:        codec,
		logger:       logger,
		workerLogger: opts.WorkerLogger,
		metrics:      opts.Metrics,
		pending:      newPendingTable(),
		subs:         newSubscriptions(logger),
		closeCh:      make(chan struct{}),
		readDone:     make(chan struct{}),
	}
}

// Start launches the read loop. Subscriptions that must not miss the first
// notifications should be registered before calling Start.
func (c *Channel) Start() {
	c.logger.V(1).Info("Start()")
	go c.readLoop()
}

// Request sends a request and waits for its response. It returns
// ErrChannelClosed if the channel closes first and ctx.Err() if ctx is done
// first; neither cancels the operation inside the worker.
func (c *Channel) Request(ctx context.Context, method, targetId string, data any) (Response, error) {
	id, p, err := c.pending.add(method)
	if err != nil {
		return Response{}, err
	}
	c.logger.V(1).Info("request()", "method", method, "id", id, "targetId", targetId)

	payload, err := json.Marshal(request{Id: id, Method: method, TargetId: targetId, Data: data})
	if err == nil && len(payload) > netcodec.MaxMessageLen {
		err = ErrBodyTooLarge
	}
	if err == nil {
		c.metrics.RequestSent(c.name)
		if err = c.codec.WritePayload(payload); err != nil {
			c.metrics.RequestDone(c.name, method, "failed", p.sentAt)
		}
	}
	if err != nil {
		c.pending.take(id)
		return Response{}, c.writeError(err)
	}

	resp, err := c.pending.await(ctx, id, p)
	c.metrics.RequestDone(c.name, method, outcome(err), p.sentAt)

	return resp, err
}

// Notify sends a notification without waiting for any answer.
func (c *Channel) Notify(event, targetId string, data any) error {
	if c.Closed() {
		return ErrChannelClosed
	}
	c.logger.V(1).Info("notify()", "event", event, "targetId", targetId)

	payload, err := json.Marshal(notification{Event: event, TargetId: targetId, Data: data})
	if err != nil {
		return err
	}
	return c.writeError(c.codec.WritePayload(payload))
}

// Subscribe registers handler for the notifications of targetId.
func (c *Channel) Subscribe(targetId string, handler Handler) *Subscription {
	c.logger.V(1).Info("Subscribe()", "targetId", targetId)

	return c.subs.subscribe(targetId, handler)
}

// Close tears the channel down: the pipes are closed, every pending request
// fails with ErrChannelClosed and every subscription is removed.
func (c *Channel) Close() {
	c.closeWithError(nil)
}

func (c *Channel) Closed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

// Done is closed once the channel is closed.
func (c *Channel) Done() <-chan struct{} {
	return c.closeCh
}

func (c *Channel) closeWithError(err error) {
	c.closeOnce.Do(func() {
		if err != nil {
			c.logger.Error(err, "channel failed")
		} else {
			c.logger.V(1).Info("Close()")
		}
		close(c.closeCh)
		c.codec.Close()

		if n := c.pending.close(); n > 0 {
			c.logger.V(1).Info("rejected pending requests", "count", n)
		}
		c.subs.removeAll()
	})
}

func (c *Channel) writeError(err error) error {
	if err != nil && c.Closed() {
		return ErrChannelClosed
	}
	return err
}

func (c *Channel) readLoop() {
	defer close(c.readDone)

	for {
		payload, err := c.codec.ReadPayload()
		if err != nil {
			if c.Closed() || errors.Is(err, io.EOF) {
				err = nil
			}
			c.closeWithError(err)
			return
		}
		c.processPayload(payload)
	}
}

func (c *Channel) processPayload(payload []byte) {
	if len(payload) == 0 {
		return
	}
	switch payload[0] {
	case '{':
		c.processMessage(payload)
	case 'D', 'W', 'E', 'X':
		logWorkerLine(c.workerLogger, payload)
	default:
		c.logger.Info("unexpected data", "data", string(payload))
	}
}

func (c *Channel) processMessage(payload []byte) {
	var m message
	if err := json.Unmarshal(payload, &m); err != nil {
		c.logger.Error(err, "received message is not valid json", "data", string(payload))
		return
	}
	if m.isResponse() {
		c.pending.resolve(&m, c.logger)
		return
	}
	targetId := m.target()

	if len(targetId) == 0 || len(m.Event) == 0 {
		c.logger.Error(nil, "received message is not a response nor a notification")
		return
	}
	c.metrics.NotificationReceived(c.name, m.Event)

	if !c.subs.dispatch(targetId, msg{event: m.Event, data: m.Data}) {
		c.logger.V(1).Info("notification without subscriber", "targetId", targetId, "event", m.Event)
	}
}

func logWorkerLine(logger logging.LeveledLogger, line []byte) {
	if logger == nil {
		return
	}
	text := string(line[1:])

	switch line[0] {
	case 'D':
		logger.Debug(text)
	case 'W':
		logger.Warn(text)
	case 'E':
		logger.Error(text)
	case 'X':
		logger.Info(text)
	}
}

func outcome(err error) string {
	var reqErr *RequestError

	switch {
	case err == nil:
		return "accepted"
	case errors.As(err, &reqErr):
		return "rejected"
	case errors.Is(err, ErrChannelClosed):
		return "closed"
	default:
		return "cancelled"
	}
}
