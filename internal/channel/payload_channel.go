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

// PayloadChannel carries messages made of a control shaped header frame
// immediately followed by a binary payload frame.
type PayloadChannel struct {
	name         string
	writeMu      sync.Mutex
	codec        netcodec.Codec
	logger       logr.Logger
	workerLogger logging.LeveledLogger
	metrics      *metrics.Metrics
	pending      *pendingTable
	subs         *subscriptions
	closeOnce    sync.Once
	closeCh      chan struct{}

	// header of a notification whose payload frame has not arrived yet,
	// only touched by the read loop.
	pendingNotification *message
}

func NewPayloadChannel(codec netcodec.Codec, opts Options) *PayloadChannel {
	logger := opts.Logger.WithName("PayloadChannel")

	return &PayloadChannel{
		name:         "payload",
		codec:        codec,
		logger:       logger,
		workerLogger: opts.WorkerLogger,
		metrics:      opts.Metrics,
		pending:      newPendingTable(),
		subs:         newSubscriptions(logger),
		closeCh:      make(chan struct{}),
	}
}

func (c *PayloadChannel) Start() {
	c.logger.V(1).Info("Start()")
	go c.readLoop()
}

// Notify sends a notification followed by its payload.
func (c *PayloadChannel) Notify(event, targetId string, data any, payload []byte) error {
	if c.Closed() {
		return ErrChannelClosed
	}
	c.logger.V(1).Info("notify()", "event", event, "targetId", targetId)

	header, err := json.Marshal(notification{Event: event, TargetId: targetId, Data: data})
	if err != nil {
		return err
	}
	if err = checkSizes(header, payload); err != nil {
		return err
	}
	return c.writeError(c.writeAll(header, payload))
}

// Request sends a request followed by its payload and waits for the response.
func (c *PayloadChannel) Request(ctx context.Context, method, targetId string, data any, payload []byte) (Response, error) {
	id, p, err := c.pending.add(method)
	if err != nil {
		return Response{}, err
	}
	c.logger.V(1).Info("request()", "method", method, "id", id, "targetId", targetId)

	header, err := json.Marshal(request{Id: id, Method: method, TargetId: targetId, Data: data})
	if err == nil {
		err = checkSizes(header, payload)
	}
	if err == nil {
		c.metrics.RequestSent(c.name)
		if err = c.writeAll(header, payload); err != nil {
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

func (c *PayloadChannel) Subscribe(targetId string, handler Handler) *Subscription {
	c.logger.V(1).Info("Subscribe()", "targetId", targetId)

	return c.subs.subscribe(targetId, handler)
}

func (c *PayloadChannel) Close() {
	c.closeWithError(nil)
}

func (c *PayloadChannel) Closed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

func (c *PayloadChannel) closeWithError(err error) {
	c.closeOnce.Do(func() {
		if err != nil {
			c.logger.Error(err, "payload channel failed")
		} else {
			c.logger.V(1).Info("Close()")
		}
		close(c.closeCh)
		c.codec.Close()
		c.pending.close()
		c.subs.removeAll()
	})
}

// writeAll writes header and payload back to back so that no other frame can
// slip between them.
func (c *PayloadChannel) writeAll(header, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.codec.WritePayload(header); err != nil {
		return err
	}
	return c.codec.WritePayload(payload)
}

func (c *PayloadChannel) writeError(err error) error {
	if err != nil && c.Closed() {
		return ErrChannelClosed
	}
	return err
}

func (c *PayloadChannel) readLoop() {
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

func (c *PayloadChannel) processPayload(payload []byte) {
	if n := c.pendingNotification; n != nil {
		c.pendingNotification = nil
		c.metrics.NotificationReceived(c.name, n.Event)

		if !c.subs.dispatch(n.target(), msg{event: n.Event, data: n.Data, payload: payload}) {
			c.logger.V(1).Info("notification without subscriber", "targetId", n.target(), "event", n.Event)
		}
		return
	}
	if len(payload) == 0 {
		return
	}
	switch payload[0] {
	case '{':
	case 'D', 'W', 'E', 'X':
		logWorkerLine(c.workerLogger, payload)
		return
	default:
		c.logger.Info("unexpected data", "data", string(payload))
		return
	}

	var m message
	if err := json.Unmarshal(payload, &m); err != nil {
		c.logger.Error(err, "received message is not valid json", "data", string(payload))
		return
	}
	switch {
	case m.isResponse():
		c.pending.resolve(&m, c.logger)
	case len(m.target()) > 0 && len(m.Event) > 0:
		c.pendingNotification = &m
	default:
		c.logger.Error(nil, "received message is not a response nor a notification")
	}
}

func checkSizes(header, payload []byte) error {
	if len(header) > netcodec.MaxMessageLen || len(payload) > netcodec.MaxPayloadLen {
		return ErrBodyTooLarge
	}
	return nil
}
