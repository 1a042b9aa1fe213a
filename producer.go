package mediasoup

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
	"github.com/pion/rtp"
)

type producerParams struct {
	id                      string
	kind                    MediaKind
	typ                     ProducerType
	rtpParameters           *RtpParameters
	consumableRtpParameters *ConsumableRtpParameters
	transport               *Transport
	channels                workerChannels
	logger                  logr.Logger
	appData                 H
	paused                  bool
}

// Producer represents an audio or video source being injected into a
// router. It's created on top of a transport that defines how the media
// packets are carried.
type Producer struct {
	entity
	kind                    MediaKind
	typ                     ProducerType
	rtpParameters           *RtpParameters
	consumableRtpParameters *ConsumableRtpParameters
	transport               *Transport
	appData                 H

	mu     sync.Mutex
	paused bool
	score  []ProducerScore

	pauseEvent                  eventEmitter[struct{}]
	resumeEvent                 eventEmitter[struct{}]
	scoreEvent                  eventEmitter[[]ProducerScore]
	videoOrientationChangeEvent eventEmitter[ProducerVideoOrientation]
	traceEvent                  eventEmitter[ProducerTraceEventData]
}

func newProducer(params producerParams) *Producer {
	logger := params.logger.WithName("Producer").WithValues("producerId", params.id)
	logger.V(1).Info("constructor()")

	p := &Producer{
		kind:                    params.kind,
		typ:                     params.typ,
		rtpParameters:           params.rtpParameters,
		consumableRtpParameters: params.consumableRtpParameters,
		transport:               params.transport,
		appData:                 params.appData,
		paused:                  params.paused,
	}
	if p.appData == nil {
		p.appData = H{}
	}
	p.entity.init(params.id, params.channels, logger, ErrProducerClosed)
	p.subscribe(p.handleNotification)

	return p
}

func (p *Producer) Id() string {
	return p.id
}

func (p *Producer) Kind() MediaKind {
	return p.kind
}

// Type returns the producer type: simple, simulcast or svc.
func (p *Producer) Type() ProducerType {
	return p.typ
}

// RtpParameters returns a copy of the RTP parameters the endpoint sends.
func (p *Producer) RtpParameters() *RtpParameters {
	return clone(p.rtpParameters)
}

// ConsumableRtpParameters returns a copy of the parameters every consumer of
// the producer is negotiated from.
func (p *Producer) ConsumableRtpParameters() *ConsumableRtpParameters {
	return clone(p.consumableRtpParameters)
}

func (p *Producer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.paused
}

// Score returns the last scores of the RTP streams of the producer.
func (p *Producer) Score() []ProducerScore {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]ProducerScore(nil), p.score...)
}

func (p *Producer) AppData() H {
	return p.appData
}

// Close closes the producer. Its consumers are closed by the worker, which
// notifies them with "producerclose".
func (p *Producer) Close() {
	if !p.beginClose() {
		return
	}
	p.logger.V(1).Info("Close()")

	p.transport.removeProducer(p.id)
	p.closeVia("transport.closeProducer", p.transport.Id(), internalData{ProducerId: p.id})
}

func (p *Producer) transportClosed() {
	p.parentClosed(nil)
}

// Dump returns the internal state of the producer.
func (p *Producer) Dump() (*ProducerDump, error) {
	return p.DumpContext(context.Background())
}

func (p *Producer) DumpContext(ctx context.Context) (*ProducerDump, error) {
	p.logger.V(1).Info("Dump()")

	dump := &ProducerDump{}
	if err := p.request(ctx, "producer.dump", nil, dump); err != nil {
		return nil, err
	}
	return dump, nil
}

// GetStats returns the statistics of the RTP streams of the producer.
func (p *Producer) GetStats() ([]*ProducerStat, error) {
	return p.GetStatsContext(context.Background())
}

func (p *Producer) GetStatsContext(ctx context.Context) ([]*ProducerStat, error) {
	p.logger.V(1).Info("GetStats()")

	var stats []*ProducerStat
	if err := p.request(ctx, "producer.getStats", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Pause pauses the producer; no RTP is sent to its consumers.
func (p *Producer) Pause() error {
	return p.PauseContext(context.Background())
}

func (p *Producer) PauseContext(ctx context.Context) error {
	p.logger.V(1).Info("Pause()")

	if err := p.request(ctx, "producer.pause", nil, nil); err != nil {
		return err
	}

	p.mu.Lock()
	wasPaused := p.paused
	p.paused = true
	p.mu.Unlock()

	if !wasPaused {
		p.pauseEvent.emit(p.logger, struct{}{})
	}
	return nil
}

// Resume resumes the producer.
func (p *Producer) Resume() error {
	return p.ResumeContext(context.Background())
}

func (p *Producer) ResumeContext(ctx context.Context) error {
	p.logger.V(1).Info("Resume()")

	if err := p.request(ctx, "producer.resume", nil, nil); err != nil {
		return err
	}

	p.mu.Lock()
	wasPaused := p.paused
	p.paused = false
	p.mu.Unlock()

	if wasPaused {
		p.resumeEvent.emit(p.logger, struct{}{})
	}
	return nil
}

// EnableTraceEvent selects the "trace" event types the worker emits.
func (p *Producer) EnableTraceEvent(types ...ProducerTraceEventType) error {
	return p.EnableTraceEventContext(context.Background(), types...)
}

func (p *Producer) EnableTraceEventContext(ctx context.Context, types ...ProducerTraceEventType) error {
	p.logger.V(1).Info("EnableTraceEvent()", "types", types)

	if types == nil {
		types = []ProducerTraceEventType{}
	}
	return p.request(ctx, "producer.enableTraceEvent", H{"types": types}, nil)
}

// Send injects a RTP packet into a producer of a direct transport.
func (p *Producer) Send(packet []byte) error {
	if p.transport.Type() != TransportDirect {
		return ErrNotDirectTransport
	}
	if p.Closed() {
		return ErrProducerClosed
	}
	var header rtp.Header
	if _, err := header.Unmarshal(packet); err != nil {
		return NewTypeError("invalid rtp packet: %s", err)
	}
	return p.payloadChannel.Notify("producer.send", p.id, nil, packet)
}

// SendPacket marshals packet and sends it with Send.
func (p *Producer) SendPacket(packet *rtp.Packet) error {
	data, err := packet.Marshal()
	if err != nil {
		return err
	}
	return p.Send(data)
}

func (p *Producer) OnPause(handler func()) (off func()) {
	return p.pauseEvent.on(func(struct{}) { handler() })
}

func (p *Producer) OnResume(handler func()) (off func()) {
	return p.resumeEvent.on(func(struct{}) { handler() })
}

// OnScore is called with the scores of every RTP stream of the producer.
func (p *Producer) OnScore(handler func([]ProducerScore)) (off func()) {
	return p.scoreEvent.on(handler)
}

func (p *Producer) OnVideoOrientationChange(handler func(ProducerVideoOrientation)) (off func()) {
	return p.videoOrientationChangeEvent.on(handler)
}

func (p *Producer) OnTrace(handler func(ProducerTraceEventData)) (off func()) {
	return p.traceEvent.on(handler)
}

func (p *Producer) handleNotification(event string, data, payload []byte) {
	switch event {
	case "score":
		var score []ProducerScore
		if p.decode(event, data, &score) {
			p.mu.Lock()
			p.score = score
			p.mu.Unlock()
			p.scoreEvent.emit(p.logger, score)
		}

	case "videoorientationchange":
		var orientation ProducerVideoOrientation
		if p.decode(event, data, &orientation) {
			p.videoOrientationChangeEvent.emit(p.logger, orientation)
		}

	case "trace":
		var trace ProducerTraceEventData
		if p.decode(event, data, &trace) {
			p.traceEvent.emit(p.logger, trace)
		}

	default:
		p.logger.Error(nil, "ignoring unknown event", "event", event)
	}
}
