package mediasoup

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
)

const (
	defaultSctpStreams        = 1024
	defaultMaxSctpMessageSize = 262144
)

type routerParams struct {
	id              string
	rtpCapabilities *RtpCapabilities
	channels        workerChannels
	logger          logr.Logger
	appData         H
	detach          func()
}

// Router enables injection, selection and forwarding of media streams
// through Transport instances created on it.
type Router struct {
	entity
	mu                  sync.Mutex
	rtpCapabilities     *RtpCapabilities
	appData             H
	detach              func()
	transports          registry[*Transport]
	producers           registry[*Producer]
	dataProducers       registry[*DataProducer]
	rtpObservers        registry[*RtpObserver]
	newTransportEvent   eventEmitter[*Transport]
	newRtpObserverEvent eventEmitter[*RtpObserver]

	// pipeMu serializes PipeToRouter so that a single pipe transport pair is
	// created per destination router. pipePairs is guarded by mu.
	pipeMu    sync.Mutex
	pipePairs map[string]pipeTransportPair
}

type pipeTransportPair struct {
	local, remote *Transport
}

func newRouter(params routerParams) *Router {
	logger := params.logger.WithName("Router").WithValues("routerId", params.id)
	logger.V(1).Info("constructor()")

	r := &Router{
		rtpCapabilities: params.rtpCapabilities,
		appData:         params.appData,
		detach:          params.detach,
		pipePairs:       map[string]pipeTransportPair{},
	}
	if r.appData == nil {
		r.appData = H{}
	}
	r.entity.init(params.id, params.channels, logger, ErrRouterClosed)

	return r
}

// Id returns the router id.
func (r *Router) Id() string {
	return r.id
}

// RtpCapabilities returns a copy of the RTP capabilities of the router.
func (r *Router) RtpCapabilities() *RtpCapabilities {
	return clone(r.rtpCapabilities)
}

func (r *Router) AppData() H {
	return r.appData
}

func (r *Router) Transports() []*Transport {
	return r.transports.Values()
}

func (r *Router) RtpObservers() []*RtpObserver {
	return r.rtpObservers.Values()
}

// Close closes the router and everything created on it. It returns at once,
// Done is closed once the worker released the router.
func (r *Router) Close() {
	if !r.beginClose() {
		return
	}
	r.logger.V(1).Info("Close()")

	r.detach()
	r.closeChildren()
	r.closeVia("worker.closeRouter", "", internalData{RouterId: r.id})
}

func (r *Router) workerClosed() {
	r.parentClosed(r.closeChildren)
}

func (r *Router) closeChildren() {
	r.mu.Lock()
	transports := r.transports.Drain()
	rtpObservers := r.rtpObservers.Drain()
	r.producers.Drain()
	r.dataProducers.Drain()
	r.mu.Unlock()

	for _, transport := range transports {
		transport.routerClosed()
	}
	for _, rtpObserver := range rtpObservers {
		rtpObserver.routerClosed()
	}
}

// Dump returns the internal state of the router.
func (r *Router) Dump() (*RouterDump, error) {
	return r.DumpContext(context.Background())
}

func (r *Router) DumpContext(ctx context.Context) (*RouterDump, error) {
	r.logger.V(1).Info("Dump()")

	dump := &RouterDump{}
	if err := r.request(ctx, "router.dump", nil, dump); err != nil {
		return nil, err
	}
	return dump, nil
}

// CreateWebRtcTransport creates a WebRtcTransport.
func (r *Router) CreateWebRtcTransport(options *WebRtcTransportOptions) (*Transport, error) {
	return r.CreateWebRtcTransportContext(context.Background(), options)
}

func (r *Router) CreateWebRtcTransportContext(ctx context.Context, options *WebRtcTransportOptions) (*Transport, error) {
	r.logger.V(1).Info("CreateWebRtcTransport()")

	if options == nil || (len(options.ListenInfos) == 0 && options.WebRtcServer == nil) {
		return nil, NewTypeError("missing webRtcServer and listenInfos")
	}
	opts := *options
	if opts.EnableUdp == nil {
		opts.EnableUdp = ref(true)
	}
	if opts.EnableSctp {
		opts.NumSctpStreams = withDefaultSctpStreams(opts.NumSctpStreams)
		if opts.MaxSctpMessageSize == 0 {
			opts.MaxSctpMessageSize = defaultMaxSctpMessageSize
		}
	}
	server := opts.WebRtcServer
	if server == nil {
		return r.createTransport(ctx, TransportWebRTC, "router.createWebRtcTransport", internalData{TransportId: opts.Id}, opts, opts.AppData)
	}
	if server.Closed() {
		return nil, ErrWebRtcServerClosed
	}
	// the server sockets are used instead
	opts.ListenInfos = nil

	transport, err := r.createTransport(ctx, TransportWebRTC, "router.createWebRtcTransportWithServer",
		internalData{TransportId: opts.Id, WebRtcServerId: server.Id()}, opts, opts.AppData)
	if err != nil {
		return nil, err
	}
	if !server.handleTransport(transport) {
		transport.Close()
		return nil, ErrWebRtcServerClosed
	}
	return transport, nil
}

// CreatePlainTransport creates a PlainTransport.
func (r *Router) CreatePlainTransport(options *PlainTransportOptions) (*Transport, error) {
	return r.CreatePlainTransportContext(context.Background(), options)
}

func (r *Router) CreatePlainTransportContext(ctx context.Context, options *PlainTransportOptions) (*Transport, error) {
	r.logger.V(1).Info("CreatePlainTransport()")

	if options == nil || len(options.ListenInfo.Ip) == 0 {
		return nil, NewTypeError("missing listenInfo")
	}
	opts := *options
	if opts.RtcpMux == nil {
		opts.RtcpMux = ref(true)
	}
	if opts.EnableSrtp && len(opts.SrtpCryptoSuite) == 0 {
		opts.SrtpCryptoSuite = AES_CM_128_HMAC_SHA1_80
	}
	if opts.EnableSctp {
		opts.NumSctpStreams = withDefaultSctpStreams(opts.NumSctpStreams)
		if opts.MaxSctpMessageSize == 0 {
			opts.MaxSctpMessageSize = defaultMaxSctpMessageSize
		}
	}
	return r.createTransport(ctx, TransportPlain, "router.createPlainTransport", internalData{TransportId: opts.Id}, opts, opts.AppData)
}

// CreatePipeTransport creates a PipeTransport, used to connect routers
// living in different workers or hosts.
func (r *Router) CreatePipeTransport(options *PipeTransportOptions) (*Transport, error) {
	return r.CreatePipeTransportContext(context.Background(), options)
}

func (r *Router) CreatePipeTransportContext(ctx context.Context, options *PipeTransportOptions) (*Transport, error) {
	r.logger.V(1).Info("CreatePipeTransport()")

	if options == nil || len(options.ListenInfo.Ip) == 0 {
		return nil, NewTypeError("missing listenInfo")
	}
	opts := *options
	if opts.EnableSctp {
		opts.NumSctpStreams = withDefaultSctpStreams(opts.NumSctpStreams)
		if opts.MaxSctpMessageSize == 0 {
			opts.MaxSctpMessageSize = 268435456
		}
	}
	return r.createTransport(ctx, TransportPipe, "router.createPipeTransport", internalData{TransportId: opts.Id}, opts, opts.AppData)
}

// CreateDirectTransport creates a DirectTransport, which carries media and
// data between the application and the worker.
func (r *Router) CreateDirectTransport(options *DirectTransportOptions) (*Transport, error) {
	return r.CreateDirectTransportContext(context.Background(), options)
}

func (r *Router) CreateDirectTransportContext(ctx context.Context, options *DirectTransportOptions) (*Transport, error) {
	r.logger.V(1).Info("CreateDirectTransport()")

	var opts DirectTransportOptions
	if options != nil {
		opts = *options
	}
	if opts.MaxMessageSize == 0 {
		opts.MaxMessageSize = defaultMaxSctpMessageSize
	}
	return r.createTransport(ctx, TransportDirect, "router.createDirectTransport", internalData{TransportId: opts.Id}, opts, opts.AppData)
}

func (r *Router) createTransport(ctx context.Context, typ TransportType, method string, ids internalData, options any, appData H) (*Transport, error) {
	id := newId(ids.TransportId)
	if _, ok := r.transports.Load(id); ok {
		return nil, ErrDuplicatedId
	}
	ids.TransportId = id

	var server *WebRtcServer
	if o, ok := options.(WebRtcTransportOptions); ok {
		server = o.WebRtcServer
	}
	data := TransportData{}
	if err := r.request(ctx, method, requestData(ids, options), &data); err != nil {
		return nil, err
	}
	if typ == TransportDirect {
		data.MaxMessageSize = options.(DirectTransportOptions).MaxMessageSize
	}

	transport := newTransport(transportParams{
		id:       id,
		typ:      typ,
		router:   r,
		data:     data,
		channels: r.workerChannels,
		logger:   r.logger,
		appData:  appData,

		webRtcServer: server,
	})

	r.mu.Lock()
	if r.Closed() {
		r.mu.Unlock()
		transport.routerClosed()
		return nil, ErrRouterClosed
	}
	stored := r.transports.Store(id, transport)
	r.mu.Unlock()

	if !stored {
		return nil, ErrDuplicatedId
	}
	r.newTransportEvent.emit(r.logger, transport)

	return transport, nil
}

func (r *Router) createRtpObserver(ctx context.Context, typ RtpObserverType, method string, options any, appData H) (*RtpObserver, error) {
	id := newId("")
	if err := r.request(ctx, method, requestData(internalData{RtpObserverId: id}, options), nil); err != nil {
		return nil, err
	}

	rtpObserver := newRtpObserver(rtpObserverParams{
		id:       id,
		typ:      typ,
		router:   r,
		channels: r.workerChannels,
		logger:   r.logger,
		appData:  appData,
	})

	r.mu.Lock()
	if r.Closed() {
		r.mu.Unlock()
		rtpObserver.routerClosed()
		return nil, ErrRouterClosed
	}
	r.rtpObservers.Store(id, rtpObserver)
	r.mu.Unlock()

	r.newRtpObserverEvent.emit(r.logger, rtpObserver)

	return rtpObserver, nil
}

// CanConsume reports whether the given RTP capabilities can consume the
// producer. Unknown producers and invalid capabilities yield false.
func (r *Router) CanConsume(producerId string, rtpCapabilities *RtpCapabilities) bool {
	r.logger.V(1).Info("CanConsume()", "producerId", producerId)

	producer, ok := r.producers.Load(producerId)
	if !ok {
		r.logger.Error(ErrProducerNotFound, "CanConsume()", "producerId", producerId)
		return false
	}
	ok, err := canConsume(producer.ConsumableRtpParameters(), rtpCapabilities)
	if err != nil {
		r.logger.Error(err, "CanConsume()")
		return false
	}
	return ok
}

func (r *Router) OnNewTransport(handler func(*Transport)) (off func()) {
	return r.newTransportEvent.on(handler)
}

func (r *Router) OnNewRtpObserver(handler func(*RtpObserver)) (off func()) {
	return r.newRtpObserverEvent.on(handler)
}

// PipeToRouter pipes a producer or a data producer of this router into
// another router of the same host. The pipe transport pair connecting both
// routers is created on first use and shared by later calls.
func (r *Router) PipeToRouter(options *PipeToRouterOptions) (*PipeToRouterResult, error) {
	return r.PipeToRouterContext(context.Background(), options)
}

func (r *Router) PipeToRouterContext(ctx context.Context, options *PipeToRouterOptions) (*PipeToRouterResult, error) {
	r.logger.V(1).Info("PipeToRouter()")

	if options == nil {
		return nil, NewTypeError("missing options")
	}
	if len(options.ProducerId) == 0 && len(options.DataProducerId) == 0 {
		return nil, NewTypeError("missing producerId or dataProducerId")
	}
	if len(options.ProducerId) > 0 && len(options.DataProducerId) > 0 {
		return nil, NewTypeError("just producerId or dataProducerId can be given")
	}
	if options.Router == nil {
		return nil, NewTypeError("missing destination router")
	}
	if options.Router == r {
		return nil, NewTypeError("cannot use this router as destination")
	}
	if r.Closed() {
		return nil, ErrRouterClosed
	}

	var (
		producer     *Producer
		dataProducer *DataProducer
		ok           bool
	)
	if len(options.ProducerId) > 0 {
		if producer, ok = r.getProducer(options.ProducerId); !ok {
			return nil, ErrProducerNotFound
		}
	} else if dataProducer, ok = r.getDataProducer(options.DataProducerId); !ok {
		return nil, ErrDataProducerNotFound
	}

	pair, err := r.pipeTransportPairTo(ctx, options)
	if err != nil {
		return nil, err
	}
	if producer != nil {
		return r.pipeProducer(ctx, producer, pair)
	}
	return r.pipeDataProducer(ctx, dataProducer, pair)
}

func (r *Router) pipeTransportPairTo(ctx context.Context, options *PipeToRouterOptions) (pair pipeTransportPair, err error) {
	r.pipeMu.Lock()
	defer r.pipeMu.Unlock()

	destination := options.Router

	r.mu.Lock()
	pair, ok := r.pipePairs[destination.Id()]
	r.mu.Unlock()

	if ok {
		return pair, nil
	}
	defer func() {
		if err != nil {
			r.logger.Error(err, "PipeToRouter() | failed to create pipe transport pair")
			if pair.local != nil {
				pair.local.Close()
			}
			if pair.remote != nil {
				pair.remote.Close()
			}
		}
	}()

	transportOptions := &PipeTransportOptions{
		ListenInfo:     options.ListenInfo,
		EnableSctp:     options.EnableSctp == nil || *options.EnableSctp,
		NumSctpStreams: options.NumSctpStreams,
		EnableRtx:      options.EnableRtx,
		EnableSrtp:     options.EnableSrtp,
	}
	if len(transportOptions.ListenInfo.Ip) == 0 {
		transportOptions.ListenInfo.Ip = "127.0.0.1"
	}
	if pair.local, err = r.CreatePipeTransportContext(ctx, transportOptions); err != nil {
		return
	}
	if pair.remote, err = destination.CreatePipeTransportContext(ctx, transportOptions); err != nil {
		return
	}
	if err = pair.local.ConnectContext(ctx, pipeConnectOptions(pair.remote)); err != nil {
		return
	}
	if err = pair.remote.ConnectContext(ctx, pipeConnectOptions(pair.local)); err != nil {
		return
	}

	forget := func() {
		r.mu.Lock()
		if r.pipePairs[destination.Id()] == pair {
			delete(r.pipePairs, destination.Id())
		}
		r.mu.Unlock()
	}
	pair.local.OnClose(func() {
		pair.remote.Close()
		forget()
	})
	pair.remote.OnClose(func() {
		pair.local.Close()
		forget()
	})

	r.mu.Lock()
	r.pipePairs[destination.Id()] = pair
	r.mu.Unlock()

	return pair, nil
}

func pipeConnectOptions(peer *Transport) *TransportConnectOptions {
	tuple := peer.Tuple()
	if tuple == nil {
		tuple = &TransportTuple{}
	}
	return &TransportConnectOptions{
		Ip:             tuple.LocalAddress,
		Port:           ref(tuple.LocalPort),
		SrtpParameters: peer.SrtpParameters(),
	}
}

func (r *Router) pipeProducer(ctx context.Context, producer *Producer, pair pipeTransportPair) (result *PipeToRouterResult, err error) {
	var (
		pipeConsumer *Consumer
		pipeProducer *Producer
	)
	defer func() {
		if err != nil {
			r.logger.Error(err, "PipeToRouter() | failed to create pipe consumer and producer")
			if pipeConsumer != nil {
				pipeConsumer.Close()
			}
			if pipeProducer != nil {
				pipeProducer.Close()
			}
		}
	}()

	pipeConsumer, err = pair.local.ConsumeContext(ctx, &ConsumerOptions{ProducerId: producer.Id()})
	if err != nil {
		return nil, err
	}
	pipeProducer, err = pair.remote.ProduceContext(ctx, &ProducerOptions{
		Id:            producer.Id(),
		Kind:          pipeConsumer.Kind(),
		RtpParameters: pipeConsumer.RtpParameters(),
		Paused:        pipeConsumer.ProducerPaused(),
		AppData:       producer.AppData(),
	})
	if err != nil {
		return nil, err
	}

	relay := &pauseRelay{producer: pipeProducer, logger: r.logger, applied: pipeConsumer.ProducerPaused()}
	pipeConsumer.OnProducerPause(func() { relay.set(true) })
	pipeConsumer.OnProducerResume(func() { relay.set(false) })
	pipeConsumer.OnClose(pipeProducer.Close)
	pipeProducer.OnClose(pipeConsumer.Close)

	return &PipeToRouterResult{PipeConsumer: pipeConsumer, PipeProducer: pipeProducer}, nil
}

func (r *Router) pipeDataProducer(ctx context.Context, dataProducer *DataProducer, pair pipeTransportPair) (result *PipeToRouterResult, err error) {
	var (
		pipeDataConsumer *DataConsumer
		pipeDataProducer *DataProducer
	)
	defer func() {
		if err != nil {
			r.logger.Error(err, "PipeToRouter() | failed to create pipe data consumer and data producer")
			if pipeDataConsumer != nil {
				pipeDataConsumer.Close()
			}
			if pipeDataProducer != nil {
				pipeDataProducer.Close()
			}
		}
	}()

	pipeDataConsumer, err = pair.local.ConsumeDataContext(ctx, &DataConsumerOptions{DataProducerId: dataProducer.Id()})
	if err != nil {
		return nil, err
	}
	pipeDataProducer, err = pair.remote.ProduceDataContext(ctx, &DataProducerOptions{
		Id:                   dataProducer.Id(),
		SctpStreamParameters: pipeDataConsumer.SctpStreamParameters(),
		Label:                pipeDataConsumer.Label(),
		Protocol:             pipeDataConsumer.Protocol(),
		AppData:              dataProducer.AppData(),
	})
	if err != nil {
		return nil, err
	}

	pipeDataConsumer.OnClose(pipeDataProducer.Close)
	pipeDataProducer.OnClose(pipeDataConsumer.Close)

	return &PipeToRouterResult{PipeDataConsumer: pipeDataConsumer, PipeDataProducer: pipeDataProducer}, nil
}

// pauseRelay mirrors the paused state of a pipe consumer's producer onto the
// pipe producer. Notification handlers must not wait for the worker, so the
// requests are sent from a goroutine that converges on the latest state.
type pauseRelay struct {
	producer *Producer
	logger   logr.Logger

	mu      sync.Mutex
	want    bool
	applied bool
	running bool
}

func (p *pauseRelay) set(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.want = paused
	if p.running {
		return
	}
	p.running = true
	go p.run()
}

func (p *pauseRelay) run() {
	for {
		p.mu.Lock()
		paused := p.want
		if paused == p.applied || p.producer.Closed() {
			p.running = false
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		var err error
		if paused {
			err = p.producer.Pause()
		} else {
			err = p.producer.Resume()
		}
		if err != nil {
			p.logger.Error(err, "failed to mirror pause state on pipe producer", "producerId", p.producer.Id())
		}

		p.mu.Lock()
		p.applied = paused
		p.mu.Unlock()
	}
}

func (r *Router) getProducer(id string) (*Producer, bool) {
	return r.producers.Load(id)
}

func (r *Router) addProducer(producer *Producer) bool {
	return r.producers.Store(producer.Id(), producer)
}

func (r *Router) removeProducer(id string) {
	r.producers.Delete(id)
}

func (r *Router) getDataProducer(id string) (*DataProducer, bool) {
	return r.dataProducers.Load(id)
}

func (r *Router) addDataProducer(dataProducer *DataProducer) bool {
	return r.dataProducers.Store(dataProducer.Id(), dataProducer)
}

func (r *Router) removeDataProducer(id string) {
	r.dataProducers.Delete(id)
}

func (r *Router) removeTransport(id string) {
	r.transports.Delete(id)
}

func (r *Router) removeRtpObserver(id string) {
	r.rtpObservers.Delete(id)
}

func withDefaultSctpStreams(numStreams *NumSctpStreams) *NumSctpStreams {
	if numStreams == nil {
		return &NumSctpStreams{OS: defaultSctpStreams, MIS: defaultSctpStreams}
	}
	return numStreams
}
