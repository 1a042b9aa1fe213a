package mediasoup

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/pion/sctp"
)

type dataConsumerParams struct {
	id                   string
	dataProducerId       string
	typ                  DataConsumerType
	sctpStreamParameters *SctpStreamParameters
	label                string
	protocol             string
	transport            *Transport
	channels             workerChannels
	logger               logr.Logger
	appData              H
	sctpStreamId         int
}

// DataConsumer represents an endpoint receiving the data messages of a
// DataProducer.
type DataConsumer struct {
	entity
	dataProducerId       string
	typ                  DataConsumerType
	sctpStreamParameters *SctpStreamParameters
	label                string
	protocol             string
	transport            *Transport
	appData              H
	sctpStreamId         int

	dataProducerCloseEvent  eventEmitter[struct{}]
	sctpSendBufferFullEvent eventEmitter[struct{}]
	bufferedAmountLowEvent  eventEmitter[uint32]
	messageEvent            eventEmitter[dataMessage]
}

type dataMessage struct {
	payload []byte
	ppid    sctp.PayloadProtocolIdentifier
}

func newDataConsumer(params dataConsumerParams) *DataConsumer {
	logger := params.logger.WithName("DataConsumer").WithValues("dataConsumerId", params.id)
	logger.V(1).Info("constructor()")

	c := &DataConsumer{
		dataProducerId:       params.dataProducerId,
		typ:                  params.typ,
		sctpStreamParameters: params.sctpStreamParameters,
		label:                params.label,
		protocol:             params.protocol,
		transport:            params.transport,
		appData:              params.appData,
		sctpStreamId:         params.sctpStreamId,
	}
	if c.appData == nil {
		c.appData = H{}
	}
	c.entity.init(params.id, params.channels, logger, ErrDataConsumerClosed)
	c.subscribe(c.handleNotification)

	return c
}

func (c *DataConsumer) Id() string {
	return c.id
}

func (c *DataConsumer) DataProducerId() string {
	return c.dataProducerId
}

func (c *DataConsumer) Type() DataConsumerType {
	return c.typ
}

func (c *DataConsumer) SctpStreamParameters() *SctpStreamParameters {
	return clone(c.sctpStreamParameters)
}

func (c *DataConsumer) Label() string {
	return c.label
}

func (c *DataConsumer) Protocol() string {
	return c.protocol
}

func (c *DataConsumer) AppData() H {
	return c.appData
}

// Close closes the data consumer and frees its SCTP stream.
func (c *DataConsumer) Close() {
	if !c.beginClose() {
		return
	}
	c.logger.V(1).Info("Close()")

	c.transport.removeDataConsumer(c.id, c.sctpStreamId)
	c.closeVia("transport.closeDataConsumer", c.transport.Id(), internalData{DataConsumerId: c.id})
}

func (c *DataConsumer) transportClosed() {
	c.parentClosed(nil)
}

// Dump returns the internal state of the data consumer.
func (c *DataConsumer) Dump() (*DataConsumerDump, error) {
	return c.DumpContext(context.Background())
}

func (c *DataConsumer) DumpContext(ctx context.Context) (*DataConsumerDump, error) {
	c.logger.V(1).Info("Dump()")

	dump := &DataConsumerDump{}
	if err := c.request(ctx, "dataConsumer.dump", nil, dump); err != nil {
		return nil, err
	}
	return dump, nil
}

func (c *DataConsumer) GetStats() ([]*DataConsumerStat, error) {
	return c.GetStatsContext(context.Background())
}

func (c *DataConsumer) GetStatsContext(ctx context.Context) ([]*DataConsumerStat, error) {
	c.logger.V(1).Info("GetStats()")

	var stats []*DataConsumerStat
	if err := c.request(ctx, "dataConsumer.getStats", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// GetBufferedAmount returns the number of bytes queued in the SCTP send
// buffer of the data consumer.
func (c *DataConsumer) GetBufferedAmount() (uint32, error) {
	return c.GetBufferedAmountContext(context.Background())
}

func (c *DataConsumer) GetBufferedAmountContext(ctx context.Context) (uint32, error) {
	c.logger.V(1).Info("GetBufferedAmount()")

	var resp struct {
		BufferedAmount uint32 `json:"bufferedAmount"`
	}
	if err := c.request(ctx, "dataConsumer.getBufferedAmount", nil, &resp); err != nil {
		return 0, err
	}
	return resp.BufferedAmount, nil
}

// SetBufferedAmountLowThreshold sets the threshold below which
// "bufferedamountlow" is emitted.
func (c *DataConsumer) SetBufferedAmountLowThreshold(threshold uint32) error {
	return c.SetBufferedAmountLowThresholdContext(context.Background(), threshold)
}

func (c *DataConsumer) SetBufferedAmountLowThresholdContext(ctx context.Context, threshold uint32) error {
	c.logger.V(1).Info("SetBufferedAmountLowThreshold()", "threshold", threshold)

	return c.request(ctx, "dataConsumer.setBufferedAmountLowThreshold", H{"threshold": threshold}, nil)
}

// Send sends a binary message to the endpoint of the data consumer.
func (c *DataConsumer) Send(message []byte) error {
	return c.SendContext(context.Background(), message)
}

func (c *DataConsumer) SendContext(ctx context.Context, message []byte) error {
	return c.send(ctx, message, true)
}

// SendText sends a text message.
func (c *DataConsumer) SendText(message string) error {
	return c.SendTextContext(context.Background(), message)
}

func (c *DataConsumer) SendTextContext(ctx context.Context, message string) error {
	return c.send(ctx, []byte(message), false)
}

func (c *DataConsumer) send(ctx context.Context, message []byte, binary bool) error {
	if c.Closed() {
		return ErrDataConsumerClosed
	}
	ppid, payload := messagePPID(message, binary)

	_, err := c.payloadChannel.Request(ctx, "dataConsumer.send", c.id, H{"ppid": ppid}, payload)
	return err
}

// OnDataProducerClose is called when the data producer was closed; the data
// consumer is closed right after.
func (c *DataConsumer) OnDataProducerClose(handler func()) (off func()) {
	return c.dataProducerCloseEvent.once(func(struct{}) { handler() })
}

func (c *DataConsumer) OnSctpSendBufferFull(handler func()) (off func()) {
	return c.sctpSendBufferFullEvent.on(func(struct{}) { handler() })
}

func (c *DataConsumer) OnBufferedAmountLow(handler func(bufferedAmount uint32)) (off func()) {
	return c.bufferedAmountLowEvent.on(handler)
}

// OnMessage is called with the messages a data consumer of a direct
// transport receives. Empty messages are delivered as empty payloads with
// their "empty" PPID.
func (c *DataConsumer) OnMessage(handler func(payload []byte, ppid sctp.PayloadProtocolIdentifier)) (off func()) {
	return c.messageEvent.on(func(m dataMessage) { handler(m.payload, m.ppid) })
}

func (c *DataConsumer) handleNotification(event string, data, payload []byte) {
	switch event {
	case "dataproducerclose":
		c.parentClosed(func() {
			c.transport.removeDataConsumer(c.id, c.sctpStreamId)
			c.dataProducerCloseEvent.emit(c.logger, struct{}{})
		})

	case "sctpsendbufferfull":
		c.sctpSendBufferFullEvent.emit(c.logger, struct{}{})

	case "bufferedamountlow":
		var v struct {
			BufferedAmount uint32 `json:"bufferedAmount"`
		}
		if c.decode(event, data, &v) {
			c.bufferedAmountLowEvent.emit(c.logger, v.BufferedAmount)
		}

	case "message":
		var v struct {
			Ppid sctp.PayloadProtocolIdentifier `json:"ppid"`
		}
		if c.decode(event, data, &v) {
			c.messageEvent.emit(c.logger, dataMessage{
				payload: messageFromPPID(v.Ppid, payload),
				ppid:    v.Ppid,
			})
		}

	default:
		c.logger.Error(nil, "ignoring unknown event", "event", event)
	}
}
