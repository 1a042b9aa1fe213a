package mediasoup

import (
	"context"
	"encoding/json"

	"github.com/go-logr/logr"

	"github.com/mediaplane/mediasoup-go/internal/channel"
)

// internalData carries the ids of the entities a request creates or closes.
type internalData struct {
	RouterId       string `json:"routerId,omitempty"`
	WebRtcServerId string `json:"webRtcServerId,omitempty"`
	TransportId    string `json:"transportId,omitempty"`
	ProducerId     string `json:"producerId,omitempty"`
	ConsumerId     string `json:"consumerId,omitempty"`
	DataProducerId string `json:"dataProducerId,omitempty"`
	DataConsumerId string `json:"dataConsumerId,omitempty"`
	RtpObserverId  string `json:"rtpObserverId,omitempty"`
}

// workerChannels is what every entity of a worker uses to reach it.
type workerChannels struct {
	channel        *channel.Channel
	payloadChannel *channel.PayloadChannel
}

// entity is embedded by every worker side object: its id, lifecycle and a way
// to talk to the worker.
type entity struct {
	lifecycle
	workerChannels

	id        string
	logger    logr.Logger
	closedErr error
	sub       *channel.Subscription
	psub      *channel.Subscription
}

func (e *entity) init(id string, channels workerChannels, logger logr.Logger, closedErr error) {
	e.id = id
	e.workerChannels = channels
	e.logger = logger
	e.closedErr = closedErr
	e.lifecycle.init(logger)
}

// request sends method to the entity and decodes the accepted response into
// out, which may be nil. It fails without reaching the worker once the entity
// is closing.
func (e *entity) request(ctx context.Context, method string, data, out any) error {
	if e.Closed() {
		return e.closedErr
	}
	resp, err := e.channel.Request(ctx, method, e.id, data)
	if err != nil {
		return err
	}
	return resp.Unmarshal(out)
}

// subscribe routes the notifications of the entity, from both channels, to
// handler.
func (e *entity) subscribe(handler channel.Handler) {
	e.sub = e.channel.Subscribe(e.id, handler)
	if e.payloadChannel != nil {
		e.psub = e.payloadChannel.Subscribe(e.id, handler)
	}
}

func (e *entity) unsubscribe() {
	if e.sub != nil {
		e.sub.Unsubscribe()
	}
	if e.psub != nil {
		e.psub.Unsubscribe()
	}
}

// closeVia finishes a close the caller won with beginClose: the parent is
// asked to close the entity and Closed is reached once the worker answered
// or closeTimeout elapsed.
func (e *entity) closeVia(method, parentId string, data any) {
	e.unsubscribe()
	e.finishCloseAfter(func(ctx context.Context) error {
		_, err := e.channel.Request(ctx, method, parentId, data)
		return err
	})
}

// parentClosed closes the entity, and then its children, because the worker
// already released it together with its parent.
func (e *entity) parentClosed(closeChildren func()) bool {
	if !e.beginClose() {
		return false
	}
	e.logger.V(1).Info("parent closed")
	e.unsubscribe()
	if closeChildren != nil {
		closeChildren()
	}
	e.finishClose()
	return true
}

// decode unmarshals notification data, logging data that does not fit.
// Missing data leaves v untouched.
func (e *entity) decode(event string, data []byte, v any) bool {
	if len(data) == 0 {
		return true
	}
	if err := json.Unmarshal(data, v); err != nil {
		e.logger.Error(err, "invalid notification data", "event", event, "data", string(data))
		return false
	}
	return true
}

// requestData merges the ids of a new entity into the JSON form of its
// options.
func requestData(ids internalData, options any) H {
	data := H{}
	for _, v := range []any{options, ids} {
		raw, err := json.Marshal(v)
		if err != nil {
			panic(err)
		}
		if err = json.Unmarshal(raw, &data); err != nil {
			panic(err)
		}
	}
	return data
}
