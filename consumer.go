package mediasoup

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
	"github.com/pion/rtp"
)

type consumerParams struct {
	id              string
	producerId      string
	kind            MediaKind
	typ             ConsumerType
	rtpParameters   *RtpParameters
	consumable      *ConsumableRtpParameters
	transport       *Transport
	channels        workerChannels
	logger          logr.Logger
	appData         H
	paused          bool
	producerPaused  bool
	score           ConsumerScore
	preferredLayers *ConsumerLayers
}

// Consumer represents an audio or video source being forwarded from a
// router to an endpoint.
type Consumer struct {
	entity
	producerId    string
	kind          MediaKind
	typ           ConsumerType
	rtpParameters *RtpParameters
	consumable    *ConsumableRtpParameters
	transport     *Transport
	appData       H

	mu              sync.Mutex
	paused          bool
	producerPaused  bool
	priority        uint8
	score           ConsumerScore
	preferredLayers *ConsumerLayers
	currentLayers   *ConsumerLayers

	pauseEvent          eventEmitter[struct{}]
	resumeEvent         eventEmitter[struct{}]
	producerCloseEvent  eventEmitter[struct{}]
	producerPauseEvent  eventEmitter[struct{}]
	producerResumeEvent eventEmitter[struct{}]
	scoreEvent          eventEmitter[ConsumerScore]
	layersChangeEvent   eventEmitter[*ConsumerLayers]
	traceEvent          eventEmitter[ConsumerTraceEventData]
	rtpEvent            eventEmitter[*rtp.Packet]
}

func newConsumer(params consumerParams) *Consumer {
	logger := params.logger.WithName("Consumer").WithValues("consumerId", params.id)
	logger.V(1).Info("constructor()")

	c := &Consumer{
		producerId:      params.producerId,
		kind:            params.kind,
		typ:             params.typ,
		rtpParameters:   params.rtpParameters,
		consumable:      params.consumable,
		transport:       params.transport,
		appData:         params.appData,
		paused:          params.paused,
		producerPaused:  params.producerPaused,
		priority:        1,
		score:           params.score,
		preferredLayers: params.preferredLayers,
	}
	if c.appData == nil {
		c.appData = H{}
	}
	c.entity.init(params.id, params.channels, logger, ErrConsumerClosed)
	c.subscribe(c.handleNotification)

	return c
}

func (c *Consumer) Id() string {
	return c.id
}

func (c *Consumer) ProducerId() string {
	return c.producerId
}

func (c *Consumer) Kind() MediaKind {
	return c.kind
}

// Type returns how the consumer forwards the producer streams: simple,
// simulcast, svc or pipe.
func (c *Consumer) Type() ConsumerType {
	return c.typ
}

// RtpParameters returns a copy of the RTP parameters negotiated for the
// consuming endpoint.
func (c *Consumer) RtpParameters() *RtpParameters {
	return clone(c.rtpParameters)
}

func (c *Consumer) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.paused
}

func (c *Consumer) ProducerPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.producerPaused
}

func (c *Consumer) Priority() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.priority
}

func (c *Consumer) Score() ConsumerScore {
	c.mu.Lock()
	defer c.mu.Unlock()

	score := c.score
	score.ProducerScores = append([]uint8(nil), c.score.ProducerScores...)
	return score
}

// PreferredLayers returns the effective preferred layers, nil for simple
// consumers or when none were set.
func (c *Consumer) PreferredLayers() *ConsumerLayers {
	c.mu.Lock()
	defer c.mu.Unlock()

	return clone(c.preferredLayers)
}

// CurrentLayers returns the layers being forwarded, nil when none is.
func (c *Consumer) CurrentLayers() *ConsumerLayers {
	c.mu.Lock()
	defer c.mu.Unlock()

	return clone(c.currentLayers)
}

func (c *Consumer) AppData() H {
	return c.appData
}

// Close closes the consumer.
func (c *Consumer) Close() {
	if !c.beginClose() {
		return
	}
	c.logger.V(1).Info("Close()")

	c.transport.removeConsumer(c.id)
	c.closeVia("transport.closeConsumer", c.transport.Id(), internalData{ConsumerId: c.id})
}

func (c *Consumer) transportClosed() {
	c.parentClosed(nil)
}

// Dump returns the internal state of the consumer.
func (c *Consumer) Dump() (*ConsumerDump, error) {
	return c.DumpContext(context.Background())
}

func (c *Consumer) DumpContext(ctx context.Context) (*ConsumerDump, error) {
	c.logger.V(1).Info("Dump()")

	dump := &ConsumerDump{}
	if err := c.request(ctx, "consumer.dump", nil, dump); err != nil {
		return nil, err
	}
	return dump, nil
}

// GetStats returns the statistics of the consumer stream and, if any, of
// the producer stream it forwards.
func (c *Consumer) GetStats() ([]*ConsumerStat, error) {
	return c.GetStatsContext(context.Background())
}

func (c *Consumer) GetStatsContext(ctx context.Context) ([]*ConsumerStat, error) {
	c.logger.V(1).Info("GetStats()")

	var stats []*ConsumerStat
	if err := c.request(ctx, "consumer.getStats", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *Consumer) Pause() error {
	return c.PauseContext(context.Background())
}

func (c *Consumer) PauseContext(ctx context.Context) error {
	c.logger.V(1).Info("Pause()")

	if err := c.request(ctx, "consumer.pause", nil, nil); err != nil {
		return err
	}

	c.mu.Lock()
	wasPaused := c.paused
	c.paused = true
	c.mu.Unlock()

	if !wasPaused {
		c.pauseEvent.emit(c.logger, struct{}{})
	}
	return nil
}

func (c *Consumer) Resume() error {
	return c.ResumeContext(context.Background())
}

func (c *Consumer) ResumeContext(ctx context.Context) error {
	c.logger.V(1).Info("Resume()")

	if err := c.request(ctx, "consumer.resume", nil, nil); err != nil {
		return err
	}

	c.mu.Lock()
	wasPaused := c.paused
	c.paused = false
	c.mu.Unlock()

	if wasPaused {
		c.resumeEvent.emit(c.logger, struct{}{})
	}
	return nil
}

// SetPreferredLayers sets the preferred layers of a simulcast or svc
// consumer. The layers are clamped to the ones the producer offers.
func (c *Consumer) SetPreferredLayers(layers ConsumerLayers) error {
	return c.SetPreferredLayersContext(context.Background(), layers)
}

func (c *Consumer) SetPreferredLayersContext(ctx context.Context, layers ConsumerLayers) error {
	c.logger.V(1).Info("SetPreferredLayers()")

	if c.typ != ConsumerSimulcast && c.typ != ConsumerSvc {
		return NewUnsupportedError("preferred layers of a %s consumer", c.typ)
	}
	layers = clampConsumerLayers(layers, c.consumable)

	var resp *ConsumerLayers
	if err := c.request(ctx, "consumer.setPreferredLayers", layers, &resp); err != nil {
		return err
	}
	if resp == nil {
		resp = &layers
	}

	c.mu.Lock()
	c.preferredLayers = resp
	c.mu.Unlock()

	return nil
}

// SetPriority sets the priority used by the bandwidth estimator, 1 to 255.
func (c *Consumer) SetPriority(priority uint8) error {
	return c.SetPriorityContext(context.Background(), priority)
}

func (c *Consumer) SetPriorityContext(ctx context.Context, priority uint8) error {
	c.logger.V(1).Info("SetPriority()", "priority", priority)

	if priority < 1 {
		return NewTypeError("wrong priority")
	}
	var resp struct {
		Priority uint8 `json:"priority"`
	}
	if err := c.request(ctx, "consumer.setPriority", H{"priority": priority}, &resp); err != nil {
		return err
	}
	if resp.Priority == 0 {
		resp.Priority = priority
	}

	c.mu.Lock()
	c.priority = resp.Priority
	c.mu.Unlock()

	return nil
}

// UnsetPriority restores the default priority.
func (c *Consumer) UnsetPriority() error {
	return c.SetPriority(1)
}

// RequestKeyFrame asks the producer endpoint for a key frame.
func (c *Consumer) RequestKeyFrame() error {
	return c.RequestKeyFrameContext(context.Background())
}

func (c *Consumer) RequestKeyFrameContext(ctx context.Context) error {
	c.logger.V(1).Info("RequestKeyFrame()")

	return c.request(ctx, "consumer.requestKeyFrame", nil, nil)
}

// EnableTraceEvent selects the "trace" event types the worker emits.
func (c *Consumer) EnableTraceEvent(types ...ConsumerTraceEventType) error {
	return c.EnableTraceEventContext(context.Background(), types...)
}

func (c *Consumer) EnableTraceEventContext(ctx context.Context, types ...ConsumerTraceEventType) error {
	c.logger.V(1).Info("EnableTraceEvent()", "types", types)

	if types == nil {
		types = []ConsumerTraceEventType{}
	}
	return c.request(ctx, "consumer.enableTraceEvent", H{"types": types}, nil)
}

func (c *Consumer) OnPause(handler func()) (off func()) {
	return c.pauseEvent.on(func(struct{}) { handler() })
}

func (c *Consumer) OnResume(handler func()) (off func()) {
	return c.resumeEvent.on(func(struct{}) { handler() })
}

// OnProducerClose is called when the producer was closed; the consumer is
// closed right after.
func (c *Consumer) OnProducerClose(handler func()) (off func()) {
	return c.producerCloseEvent.once(func(struct{}) { handler() })
}

func (c *Consumer) OnProducerPause(handler func()) (off func()) {
	return c.producerPauseEvent.on(func(struct{}) { handler() })
}

func (c *Consumer) OnProducerResume(handler func()) (off func()) {
	return c.producerResumeEvent.on(func(struct{}) { handler() })
}

func (c *Consumer) OnScore(handler func(ConsumerScore)) (off func()) {
	return c.scoreEvent.on(handler)
}

// OnLayersChange is called when the forwarded layers change, with nil when
// no layer is forwarded.
func (c *Consumer) OnLayersChange(handler func(*ConsumerLayers)) (off func()) {
	return c.layersChangeEvent.on(handler)
}

func (c *Consumer) OnTrace(handler func(ConsumerTraceEventData)) (off func()) {
	return c.traceEvent.on(handler)
}

// OnRtp is called with the RTP packets a consumer of a direct transport
// receives.
func (c *Consumer) OnRtp(handler func(*rtp.Packet)) (off func()) {
	return c.rtpEvent.on(handler)
}

func (c *Consumer) handleNotification(event string, data, payload []byte) {
	switch event {
	case "producerclose":
		c.parentClosed(func() {
			c.transport.removeConsumer(c.id)
			c.producerCloseEvent.emit(c.logger, struct{}{})
		})

	case "producerpause":
		c.mu.Lock()
		wasPaused := c.producerPaused
		c.producerPaused = true
		c.mu.Unlock()

		if !wasPaused {
			c.producerPauseEvent.emit(c.logger, struct{}{})
		}

	case "producerresume":
		c.mu.Lock()
		wasPaused := c.producerPaused
		c.producerPaused = false
		c.mu.Unlock()

		if wasPaused {
			c.producerResumeEvent.emit(c.logger, struct{}{})
		}

	case "score":
		var score ConsumerScore
		if c.decode(event, data, &score) {
			c.mu.Lock()
			c.score = score
			c.mu.Unlock()
			c.scoreEvent.emit(c.logger, score)
		}

	case "layerschange":
		var layers *ConsumerLayers
		if c.decode(event, data, &layers) {
			c.mu.Lock()
			c.currentLayers = layers
			c.mu.Unlock()
			c.layersChangeEvent.emit(c.logger, clone(layers))
		}

	case "trace":
		var trace ConsumerTraceEventData
		if c.decode(event, data, &trace) {
			c.traceEvent.emit(c.logger, trace)
		}

	case "rtp":
		packet := &rtp.Packet{}
		if err := packet.Unmarshal(payload); err != nil {
			c.logger.Error(err, "invalid rtp packet")
			return
		}
		c.rtpEvent.emit(c.logger, packet)

	default:
		c.logger.Error(nil, "ignoring unknown event", "event", event)
	}
}
