package mediasoup

import (
	"context"

	"github.com/go-logr/logr"
)

type dataProducerParams struct {
	id                   string
	typ                  DataProducerType
	sctpStreamParameters *SctpStreamParameters
	label                string
	protocol             string
	transport            *Transport
	channels             workerChannels
	logger               logr.Logger
	appData              H
}

// DataProducer represents an endpoint capable of injecting data messages
// into a router.
type DataProducer struct {
	entity
	typ                  DataProducerType
	sctpStreamParameters *SctpStreamParameters
	label                string
	protocol             string
	transport            *Transport
	appData              H
}

func newDataProducer(params dataProducerParams) *DataProducer {
	logger := params.logger.WithName("DataProducer").WithValues("dataProducerId", params.id)
	logger.V(1).Info("constructor()")

	p := &DataProducer{
		typ:                  params.typ,
		sctpStreamParameters: params.sctpStreamParameters,
		label:                params.label,
		protocol:             params.protocol,
		transport:            params.transport,
		appData:              params.appData,
	}
	if p.appData == nil {
		p.appData = H{}
	}
	p.entity.init(params.id, params.channels, logger, ErrDataProducerClosed)

	return p
}

func (p *DataProducer) Id() string {
	return p.id
}

// Type returns "sctp", or "direct" on a direct transport.
func (p *DataProducer) Type() DataProducerType {
	return p.typ
}

// SctpStreamParameters returns a copy of the SCTP stream parameters, nil
// for direct data producers.
func (p *DataProducer) SctpStreamParameters() *SctpStreamParameters {
	return clone(p.sctpStreamParameters)
}

func (p *DataProducer) Label() string {
	return p.label
}

func (p *DataProducer) Protocol() string {
	return p.protocol
}

func (p *DataProducer) AppData() H {
	return p.appData
}

// Close closes the data producer. Its data consumers are notified by the
// worker with "dataproducerclose".
func (p *DataProducer) Close() {
	if !p.beginClose() {
		return
	}
	p.logger.V(1).Info("Close()")

	p.transport.removeDataProducer(p.id)
	p.closeVia("transport.closeDataProducer", p.transport.Id(), internalData{DataProducerId: p.id})
}

func (p *DataProducer) transportClosed() {
	p.parentClosed(nil)
}

// Dump returns the internal state of the data producer.
func (p *DataProducer) Dump() (*DataProducerDump, error) {
	return p.DumpContext(context.Background())
}

func (p *DataProducer) DumpContext(ctx context.Context) (*DataProducerDump, error) {
	p.logger.V(1).Info("Dump()")

	dump := &DataProducerDump{}
	if err := p.request(ctx, "dataProducer.dump", nil, dump); err != nil {
		return nil, err
	}
	return dump, nil
}

func (p *DataProducer) GetStats() ([]*DataProducerStat, error) {
	return p.GetStatsContext(context.Background())
}

func (p *DataProducer) GetStatsContext(ctx context.Context) ([]*DataProducerStat, error) {
	p.logger.V(1).Info("GetStats()")

	var stats []*DataProducerStat
	if err := p.request(ctx, "dataProducer.getStats", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Send sends a binary message. Only data producers of a direct transport
// can send.
func (p *DataProducer) Send(message []byte) error {
	return p.send(message, true)
}

// SendText sends a text message.
func (p *DataProducer) SendText(message string) error {
	return p.send([]byte(message), false)
}

func (p *DataProducer) send(message []byte, binary bool) error {
	if p.typ != DataProducerDirect {
		return ErrNotDirectTransport
	}
	if p.Closed() {
		return ErrDataProducerClosed
	}
	ppid, payload := messagePPID(message, binary)

	return p.payloadChannel.Notify("dataProducer.send", p.id, H{"ppid": ppid}, payload)
}
