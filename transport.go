package mediasoup

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/go-logr/logr"
	"github.com/pion/rtcp"
)

type transportParams struct {
	id       string
	typ      TransportType
	router   *Router
	data     TransportData
	channels workerChannels
	logger   logr.Logger
	appData  H

	webRtcServer *WebRtcServer
}

// Transport connects an endpoint with a Router and carries its media and
// data streams. The accessors and events that only apply to one type of
// transport are documented with that type.
type Transport struct {
	entity
	typ     TransportType
	router  *Router
	appData H

	mu                sync.Mutex
	data              TransportData
	producers         registry[*Producer]
	consumers         registry[*Consumer]
	dataProducers     registry[*DataProducer]
	dataConsumers     registry[*DataConsumer]
	cnameForProducers string
	mids              counter
	sctpStreamIds     []bool
	nextSctpStreamId  int

	webRtcServer           *WebRtcServer
	listenServerCloseEvent eventEmitter[struct{}]
	tupleEvent             eventEmitter[TransportTuple]
	rtcpTupleEvent         eventEmitter[TransportTuple]
	iceSelectedTupleEvent  eventEmitter[TransportTuple]
	iceStateEvent          eventEmitter[IceState]
	dtlsStateEvent         eventEmitter[DtlsState]
	sctpStateEvent         eventEmitter[SctpState]
	traceEvent             eventEmitter[TransportTraceEventData]
	rtcpEvent              eventEmitter[[]rtcp.Packet]
	newProducerEvent       eventEmitter[*Producer]
	newConsumerEvent       eventEmitter[*Consumer]
	newDataProducerEvent   eventEmitter[*DataProducer]
	newDataConsumerEvent   eventEmitter[*DataConsumer]
}

func newTransport(params transportParams) *Transport {
	logger := params.logger.WithName("Transport").WithValues("transportId", params.id, "type", params.typ)
	logger.V(1).Info("constructor()")

	t := &Transport{
		typ:     params.typ,
		router:  params.router,
		appData: params.appData,
		data:    params.data,
		mids:    counter{max: 100000000},

		webRtcServer: params.webRtcServer,
	}
	if t.appData == nil {
		t.appData = H{}
	}
	t.entity.init(params.id, params.channels, logger, ErrTransportClosed)
	t.subscribe(t.handleNotification)

	return t
}

func (t *Transport) Id() string {
	return t.id
}

// Type returns the transport type.
func (t *Transport) Type() TransportType {
	return t.typ
}

func (t *Transport) AppData() H {
	return t.appData
}

// Data returns a copy of the transport state reported by the worker.
func (t *Transport) Data() TransportData {
	t.mu.Lock()
	defer t.mu.Unlock()

	return clone(t.data)
}

func (t *Transport) SctpParameters() *SctpParameters {
	t.mu.Lock()
	defer t.mu.Unlock()

	return clone(t.data.SctpParameters)
}

func (t *Transport) SctpState() SctpState {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.SctpState
}

func (t *Transport) Producers() []*Producer {
	return t.producers.Values()
}

func (t *Transport) Consumers() []*Consumer {
	return t.consumers.Values()
}

func (t *Transport) DataProducers() []*DataProducer {
	return t.dataProducers.Values()
}

func (t *Transport) DataConsumers() []*DataConsumer {
	return t.dataConsumers.Values()
}

// Close closes the transport together with its producers, consumers, data
// producers and data consumers.
func (t *Transport) Close() {
	if !t.beginClose() {
		return
	}
	t.logger.V(1).Info("Close()")

	t.router.removeTransport(t.id)
	t.closeChildren()
	t.closeVia("router.closeTransport", t.router.Id(), internalData{TransportId: t.id})
}

func (t *Transport) routerClosed() {
	t.parentClosed(t.closeChildren)
}

func (t *Transport) closeChildren() {
	t.mu.Lock()
	producers := t.producers.Drain()
	consumers := t.consumers.Drain()
	dataProducers := t.dataProducers.Drain()
	dataConsumers := t.dataConsumers.Drain()
	t.sctpStreamIds = nil
	t.mu.Unlock()

	for _, producer := range producers {
		t.router.removeProducer(producer.Id())
		producer.transportClosed()
	}
	for _, consumer := range consumers {
		consumer.transportClosed()
	}
	for _, dataProducer := range dataProducers {
		t.router.removeDataProducer(dataProducer.Id())
		dataProducer.transportClosed()
	}
	for _, dataConsumer := range dataConsumers {
		dataConsumer.transportClosed()
	}
}

// Dump returns the internal state of the transport.
func (t *Transport) Dump() (*TransportDump, error) {
	return t.DumpContext(context.Background())
}

func (t *Transport) DumpContext(ctx context.Context) (*TransportDump, error) {
	t.logger.V(1).Info("Dump()")

	dump := &TransportDump{}
	if err := t.request(ctx, "transport.dump", nil, dump); err != nil {
		return nil, err
	}
	return dump, nil
}

// GetStats returns the transport statistics.
func (t *Transport) GetStats() ([]*TransportStat, error) {
	return t.GetStatsContext(context.Background())
}

func (t *Transport) GetStatsContext(ctx context.Context) ([]*TransportStat, error) {
	t.logger.V(1).Info("GetStats()")

	var stats []*TransportStat
	if err := t.request(ctx, "transport.getStats", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Connect provides the transport with the remote parameters. WebRTC
// transports need DtlsParameters, pipe transports Ip and Port, plain
// transports Ip and Port unless created with comedia.
func (t *Transport) Connect(options *TransportConnectOptions) error {
	return t.ConnectContext(context.Background(), options)
}

func (t *Transport) ConnectContext(ctx context.Context, options *TransportConnectOptions) error {
	t.logger.V(1).Info("Connect()")

	if options == nil {
		options = &TransportConnectOptions{}
	}
	switch t.typ {
	case TransportWebRTC:
		if options.DtlsParameters == nil {
			return NewTypeError("missing dtlsParameters")
		}
	case TransportPipe:
		if len(options.Ip) == 0 || options.Port == nil {
			return NewTypeError("missing ip or port")
		}
	case TransportDirect:
		return NewUnsupportedError("connect() not implemented in DirectTransport")
	}

	var resp struct {
		TransportData
		DtlsLocalRole DtlsRole `json:"dtlsLocalRole,omitempty"`
	}
	if err := t.request(ctx, "transport.connect", options, &resp); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := override(&t.data, &resp.TransportData); err != nil {
		return err
	}
	if len(resp.DtlsLocalRole) > 0 && t.data.DtlsParameters != nil {
		t.data.DtlsParameters.Role = resp.DtlsLocalRole
	}
	return nil
}

// SetMaxIncomingBitrate sets the maximum incoming bitrate in bps, 0 removes
// the limit.
func (t *Transport) SetMaxIncomingBitrate(bitrate uint32) error {
	return t.SetMaxIncomingBitrateContext(context.Background(), bitrate)
}

func (t *Transport) SetMaxIncomingBitrateContext(ctx context.Context, bitrate uint32) error {
	t.logger.V(1).Info("SetMaxIncomingBitrate()", "bitrate", bitrate)

	return t.request(ctx, "transport.setMaxIncomingBitrate", H{"bitrate": bitrate}, nil)
}

// EnableTraceEvent selects the "trace" event types the worker emits.
func (t *Transport) EnableTraceEvent(types ...TransportTraceEventType) error {
	return t.EnableTraceEventContext(context.Background(), types...)
}

func (t *Transport) EnableTraceEventContext(ctx context.Context, types ...TransportTraceEventType) error {
	t.logger.V(1).Info("EnableTraceEvent()", "types", types)

	if types == nil {
		types = []TransportTraceEventType{}
	}
	return t.request(ctx, "transport.enableTraceEvent", H{"types": types}, nil)
}

// Produce instructs the router to receive audio or video RTP. This is
// where media enters the router.
func (t *Transport) Produce(options *ProducerOptions) (*Producer, error) {
	return t.ProduceContext(context.Background(), options)
}

func (t *Transport) ProduceContext(ctx context.Context, options *ProducerOptions) (*Producer, error) {
	t.logger.V(1).Info("Produce()")

	if options == nil {
		return nil, NewTypeError("missing options")
	}
	if options.Kind != MediaKindAudio && options.Kind != MediaKindVideo {
		return nil, NewTypeError("invalid kind %q", options.Kind)
	}
	id := newId(options.Id)
	if _, ok := t.router.getProducer(id); ok {
		return nil, ErrDuplicatedId
	}

	rtpParameters := clone(options.RtpParameters)
	if err := validateRtpParameters(rtpParameters); err != nil {
		return nil, err
	}
	if len(rtpParameters.Encodings) == 0 {
		rtpParameters.Encodings = []*RtpEncodingParameters{{}}
	}
	// pipe transports keep the CNAME of every producer
	if t.typ != TransportPipe {
		t.mu.Lock()
		if len(t.cnameForProducers) == 0 {
			t.cnameForProducers = rtpParameters.Rtcp.Cname
			if len(t.cnameForProducers) == 0 {
				t.cnameForProducers = generateCname()
			}
		}
		rtpParameters.Rtcp.Cname = t.cnameForProducers
		t.mu.Unlock()
	}

	routerCaps := t.router.rtpCapabilities

	rtpMapping, err := getProducerRtpParametersMapping(rtpParameters, routerCaps)
	if err != nil {
		return nil, err
	}
	consumableRtpParameters := getConsumableRtpParameters(options.Kind, rtpParameters, routerCaps, rtpMapping)

	var resp struct {
		Type ProducerType `json:"type"`
	}
	err = t.request(ctx, "transport.produce", H{
		"producerId":           id,
		"kind":                 options.Kind,
		"rtpParameters":        rtpParameters,
		"rtpMapping":           rtpMapping,
		"keyFrameRequestDelay": options.KeyFrameRequestDelay,
		"paused":               options.Paused,
	}, &resp)
	if err != nil {
		return nil, err
	}

	producer := newProducer(producerParams{
		id:                      id,
		kind:                    options.Kind,
		typ:                     resp.Type,
		rtpParameters:           rtpParameters,
		consumableRtpParameters: consumableRtpParameters,
		transport:               t,
		channels:                t.workerChannels,
		logger:                  t.logger,
		appData:                 options.AppData,
		paused:                  options.Paused,
	})

	t.mu.Lock()
	if t.Closed() {
		t.mu.Unlock()
		producer.transportClosed()
		return nil, ErrTransportClosed
	}
	if !t.router.addProducer(producer) {
		t.mu.Unlock()
		producer.transportClosed()
		return nil, ErrDuplicatedId
	}
	t.producers.Store(id, producer)
	t.mu.Unlock()

	t.newProducerEvent.emit(t.logger, producer)

	return producer, nil
}

// Consume instructs the router to send audio or video RTP of a producer
// through this transport. This is where media leaves the router.
func (t *Transport) Consume(options *ConsumerOptions) (*Consumer, error) {
	return t.ConsumeContext(context.Background(), options)
}

func (t *Transport) ConsumeContext(ctx context.Context, options *ConsumerOptions) (*Consumer, error) {
	t.logger.V(1).Info("Consume()")

	if options == nil || len(options.ProducerId) == 0 {
		return nil, NewTypeError("missing producerId")
	}
	pipe := t.typ == TransportPipe
	producer, ok := t.router.getProducer(options.ProducerId)
	if !ok {
		return nil, ErrProducerNotFound
	}
	id := newId(options.Id)
	if _, ok := t.consumers.Load(id); ok {
		return nil, ErrDuplicatedId
	}

	consumable := producer.consumableRtpParameters

	t.mu.Lock()
	rtx := t.data.Rtx
	t.mu.Unlock()

	rtpParameters, err := getConsumerRtpParameters(consumable, options.RtpCapabilities, negotiationOptions{
		UsedPayloadTypes: options.ReservedPayloadTypes,
		Mid:              options.Mid,
		Pipe:             pipe,
		EnableRtx:        pipe && rtx,
	})
	if err != nil {
		return nil, err
	}
	// the mid is only taken once negotiation succeeded
	if len(rtpParameters.Mid) == 0 && !pipe && t.typ != TransportDirect {
		rtpParameters.Mid = strconv.FormatUint(uint64(t.mids.take()), 10)
	}
	typ := consumerTypeOf(consumable, pipe)

	var preferredLayers *ConsumerLayers
	if options.PreferredLayers != nil && (typ == ConsumerSimulcast || typ == ConsumerSvc) {
		layers := clampConsumerLayers(*options.PreferredLayers, consumable)
		preferredLayers = &layers
	}

	var resp struct {
		Paused         bool           `json:"paused"`
		ProducerPaused bool           `json:"producerPaused"`
		Score          *ConsumerScore `json:"score"`
	}
	err = t.request(ctx, "transport.consume", H{
		"consumerId":             id,
		"producerId":             producer.Id(),
		"kind":                   producer.Kind(),
		"rtpParameters":          rtpParameters,
		"type":                   typ,
		"consumableRtpEncodings": consumable.Encodings,
		"paused":                 options.Paused,
		"preferredLayers":        preferredLayers,
		"ignoreDtx":              options.IgnoreDtx,
	}, &resp)
	if err != nil {
		return nil, err
	}
	score := resp.Score
	if score == nil {
		score = &ConsumerScore{
			Score:          10,
			ProducerScores: make([]uint8, len(consumable.Encodings)),
		}
	}

	consumer := newConsumer(consumerParams{
		id:              id,
		producerId:      producer.Id(),
		kind:            producer.Kind(),
		typ:             typ,
		rtpParameters:   rtpParameters,
		consumable:      consumable,
		transport:       t,
		channels:        t.workerChannels,
		logger:          t.logger,
		appData:         options.AppData,
		paused:          resp.Paused,
		producerPaused:  resp.ProducerPaused,
		score:           *score,
		preferredLayers: preferredLayers,
	})

	t.mu.Lock()
	if t.Closed() {
		t.mu.Unlock()
		consumer.transportClosed()
		return nil, ErrTransportClosed
	}
	t.consumers.Store(id, consumer)
	t.mu.Unlock()

	t.newConsumerEvent.emit(t.logger, consumer)

	return consumer, nil
}

// ProduceData instructs the router to receive data messages. SCTP stream
// parameters are required unless the transport is a direct one.
func (t *Transport) ProduceData(options *DataProducerOptions) (*DataProducer, error) {
	return t.ProduceDataContext(context.Background(), options)
}

func (t *Transport) ProduceDataContext(ctx context.Context, options *DataProducerOptions) (*DataProducer, error) {
	t.logger.V(1).Info("ProduceData()")

	if options == nil {
		options = &DataProducerOptions{}
	}
	id := newId(options.Id)
	if _, ok := t.router.getDataProducer(id); ok {
		return nil, ErrDuplicatedId
	}

	typ := DataProducerSctp
	sctpStreamParameters := clone(options.SctpStreamParameters)

	if t.typ == TransportDirect {
		typ = DataProducerDirect
		if sctpStreamParameters != nil {
			t.logger.Info("ProduceData() | sctpStreamParameters are ignored when producing data on a DirectTransport")
			sctpStreamParameters = nil
		}
	} else {
		if sctpStreamParameters == nil {
			return nil, ErrMissSctpStreamParameters
		}
		if err := validateSctpStreamParameters(sctpStreamParameters); err != nil {
			return nil, err
		}
	}

	var resp DataProducerDump
	err := t.request(ctx, "transport.produceData", H{
		"dataProducerId":       id,
		"type":                 typ,
		"sctpStreamParameters": sctpStreamParameters,
		"label":                options.Label,
		"protocol":             options.Protocol,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Type) == 0 {
		resp.Type = typ
	}
	if resp.SctpStreamParameters == nil {
		resp.SctpStreamParameters = sctpStreamParameters
	}

	dataProducer := newDataProducer(dataProducerParams{
		id:                   id,
		typ:                  resp.Type,
		sctpStreamParameters: resp.SctpStreamParameters,
		label:                options.Label,
		protocol:             options.Protocol,
		transport:            t,
		channels:             t.workerChannels,
		logger:               t.logger,
		appData:              options.AppData,
	})

	t.mu.Lock()
	if t.Closed() {
		t.mu.Unlock()
		dataProducer.transportClosed()
		return nil, ErrTransportClosed
	}
	if !t.router.addDataProducer(dataProducer) {
		t.mu.Unlock()
		dataProducer.transportClosed()
		return nil, ErrDuplicatedId
	}
	t.dataProducers.Store(id, dataProducer)
	t.mu.Unlock()

	t.newDataProducerEvent.emit(t.logger, dataProducer)

	return dataProducer, nil
}

// ConsumeData instructs the router to send the messages of a data producer
// through this transport.
func (t *Transport) ConsumeData(options *DataConsumerOptions) (*DataConsumer, error) {
	return t.ConsumeDataContext(context.Background(), options)
}

func (t *Transport) ConsumeDataContext(ctx context.Context, options *DataConsumerOptions) (*DataConsumer, error) {
	t.logger.V(1).Info("ConsumeData()")

	if options == nil || len(options.DataProducerId) == 0 {
		return nil, NewTypeError("missing dataProducerId")
	}
	dataProducer, ok := t.router.getDataProducer(options.DataProducerId)
	if !ok {
		return nil, ErrDataProducerNotFound
	}
	id := newId(options.Id)
	if _, ok := t.dataConsumers.Load(id); ok {
		return nil, ErrDuplicatedId
	}

	typ := DataConsumerSctp
	var sctpStreamParameters *SctpStreamParameters
	sctpStreamId := -1

	if t.typ == TransportDirect {
		typ = DataConsumerDirect
		if options.Ordered != nil || options.MaxPacketLifeTime > 0 || options.MaxRetransmits > 0 {
			t.logger.Info("ConsumeData() | ordered, maxPacketLifeTime and maxRetransmits are ignored when consuming data on a DirectTransport")
		}
	} else {
		sctpStreamParameters = dataProducer.SctpStreamParameters()
		if sctpStreamParameters == nil {
			sctpStreamParameters = &SctpStreamParameters{}
		}
		if options.Ordered != nil {
			sctpStreamParameters.Ordered = options.Ordered
		}
		if options.MaxPacketLifeTime > 0 || options.MaxRetransmits > 0 {
			sctpStreamParameters.MaxPacketLifeTime = options.MaxPacketLifeTime
			sctpStreamParameters.MaxRetransmits = options.MaxRetransmits
			if options.Ordered == nil {
				sctpStreamParameters.Ordered = nil
			}
		}
		if err := validateSctpStreamParameters(sctpStreamParameters); err != nil {
			return nil, err
		}
		var err error
		if sctpStreamId, err = t.takeSctpStreamId(); err != nil {
			return nil, err
		}
		sctpStreamParameters.StreamId = uint16(sctpStreamId)
	}

	err := t.request(ctx, "transport.consumeData", H{
		"dataConsumerId":       id,
		"dataProducerId":       dataProducer.Id(),
		"type":                 typ,
		"sctpStreamParameters": sctpStreamParameters,
		"label":                dataProducer.Label(),
		"protocol":             dataProducer.Protocol(),
	}, nil)
	if err != nil {
		t.releaseSctpStreamId(sctpStreamId)
		return nil, err
	}

	dataConsumer := newDataConsumer(dataConsumerParams{
		id:                   id,
		dataProducerId:       dataProducer.Id(),
		typ:                  typ,
		sctpStreamParameters: sctpStreamParameters,
		label:                dataProducer.Label(),
		protocol:             dataProducer.Protocol(),
		transport:            t,
		channels:             t.workerChannels,
		logger:               t.logger,
		appData:              options.AppData,
		sctpStreamId:         sctpStreamId,
	})

	t.mu.Lock()
	if t.Closed() {
		t.mu.Unlock()
		dataConsumer.transportClosed()
		return nil, ErrTransportClosed
	}
	t.dataConsumers.Store(id, dataConsumer)
	t.mu.Unlock()

	t.newDataConsumerEvent.emit(t.logger, dataConsumer)

	return dataConsumer, nil
}

func (t *Transport) removeProducer(id string) {
	t.producers.Delete(id)
	t.router.removeProducer(id)
}

func (t *Transport) removeConsumer(id string) {
	t.consumers.Delete(id)
}

func (t *Transport) removeDataProducer(id string) {
	t.dataProducers.Delete(id)
	t.router.removeDataProducer(id)
}

func (t *Transport) removeDataConsumer(id string, sctpStreamId int) {
	t.dataConsumers.Delete(id)
	t.releaseSctpStreamId(sctpStreamId)
}

// takeSctpStreamId reserves the next free outgoing SCTP stream, searching
// from the last one handed out.
func (t *Transport) takeSctpStreamId() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.data.SctpParameters == nil || t.data.SctpParameters.MIS == 0 {
		return 0, NewTypeError("missing sctpParameters.MIS")
	}
	if len(t.sctpStreamIds) == 0 {
		t.sctpStreamIds = make([]bool, t.data.SctpParameters.MIS)
	}
	for i := 0; i < len(t.sctpStreamIds); i++ {
		id := (t.nextSctpStreamId + i) % len(t.sctpStreamIds)
		if !t.sctpStreamIds[id] {
			t.sctpStreamIds[id] = true
			t.nextSctpStreamId = id + 1
			return id, nil
		}
	}
	return 0, errors.New("no sctpStreamId available")
}

func (t *Transport) releaseSctpStreamId(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id >= 0 && id < len(t.sctpStreamIds) {
		t.sctpStreamIds[id] = false
	}
}

// OnSctpStateChange registers a handler for changes of the SCTP association
// state.
func (t *Transport) OnSctpStateChange(handler func(SctpState)) (off func()) {
	return t.sctpStateEvent.on(handler)
}

func (t *Transport) OnTrace(handler func(TransportTraceEventData)) (off func()) {
	return t.traceEvent.on(handler)
}

func (t *Transport) OnNewProducer(handler func(*Producer)) (off func()) {
	return t.newProducerEvent.on(handler)
}

func (t *Transport) OnNewConsumer(handler func(*Consumer)) (off func()) {
	return t.newConsumerEvent.on(handler)
}

func (t *Transport) OnNewDataProducer(handler func(*DataProducer)) (off func()) {
	return t.newDataProducerEvent.on(handler)
}

func (t *Transport) OnNewDataConsumer(handler func(*DataConsumer)) (off func()) {
	return t.newDataConsumerEvent.on(handler)
}

func (t *Transport) handleNotification(event string, data, payload []byte) {
	switch event {
	case "icestatechange":
		var v struct {
			IceState IceState `json:"iceState"`
		}
		if t.decode(event, data, &v) {
			t.mu.Lock()
			t.data.IceState = v.IceState
			t.mu.Unlock()
			t.iceStateEvent.emit(t.logger, v.IceState)
		}

	case "iceselectedtuplechange":
		var v struct {
			IceSelectedTuple TransportTuple `json:"iceSelectedTuple"`
		}
		if t.decode(event, data, &v) {
			t.mu.Lock()
			t.data.IceSelectedTuple = &v.IceSelectedTuple
			t.mu.Unlock()
			t.iceSelectedTupleEvent.emit(t.logger, v.IceSelectedTuple)
		}

	case "dtlsstatechange":
		var v struct {
			DtlsState      DtlsState `json:"dtlsState"`
			DtlsRemoteCert string    `json:"dtlsRemoteCert"`
		}
		if t.decode(event, data, &v) {
			t.mu.Lock()
			t.data.DtlsState = v.DtlsState
			if v.DtlsState == DtlsStateConnected {
				t.data.DtlsRemoteCert = v.DtlsRemoteCert
			}
			t.mu.Unlock()
			t.dtlsStateEvent.emit(t.logger, v.DtlsState)
		}

	case "sctpstatechange":
		var v struct {
			SctpState SctpState `json:"sctpState"`
		}
		if t.decode(event, data, &v) {
			t.mu.Lock()
			t.data.SctpState = v.SctpState
			t.mu.Unlock()
			t.sctpStateEvent.emit(t.logger, v.SctpState)
		}

	case "tuple":
		var v struct {
			Tuple TransportTuple `json:"tuple"`
		}
		if t.decode(event, data, &v) {
			t.mu.Lock()
			t.data.Tuple = &v.Tuple
			t.mu.Unlock()
			t.tupleEvent.emit(t.logger, v.Tuple)
		}

	case "rtcptuple":
		var v struct {
			RtcpTuple TransportTuple `json:"rtcpTuple"`
		}
		if t.decode(event, data, &v) {
			t.mu.Lock()
			t.data.RtcpTuple = &v.RtcpTuple
			t.mu.Unlock()
			t.rtcpTupleEvent.emit(t.logger, v.RtcpTuple)
		}

	case "trace":
		var v TransportTraceEventData
		if t.decode(event, data, &v) {
			t.traceEvent.emit(t.logger, v)
		}

	case "rtcp":
		packets, err := rtcp.Unmarshal(payload)
		if err != nil {
			t.logger.Error(err, "invalid rtcp packet")
			return
		}
		t.rtcpEvent.emit(t.logger, packets)

	default:
		t.logger.Error(nil, "ignoring unknown event", "event", event)
	}
}
