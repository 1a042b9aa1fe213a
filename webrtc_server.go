package mediasoup

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
)

type webRtcServerParams struct {
	id       string
	channels workerChannels
	logger   logr.Logger
	appData  H
	detach   func()
}

// WebRtcServer owns UDP and TCP sockets of a worker that WebRTC transports
// created with it share. It is closed together with its worker.
type WebRtcServer struct {
	entity
	mu                      sync.Mutex
	appData                 H
	detach                  func()
	transports              registry[*Transport]
	transportHandledEvent   eventEmitter[*Transport]
	transportUnhandledEvent eventEmitter[*Transport]
}

func newWebRtcServer(params webRtcServerParams) *WebRtcServer {
	logger := params.logger.WithName("WebRtcServer").WithValues("webRtcServerId", params.id)
	logger.V(1).Info("constructor()")

	s := &WebRtcServer{
		appData: params.appData,
		detach:  params.detach,
	}
	if s.appData == nil {
		s.appData = H{}
	}
	s.entity.init(params.id, params.channels, logger, ErrWebRtcServerClosed)

	return s
}

func (s *WebRtcServer) Id() string {
	return s.id
}

func (s *WebRtcServer) AppData() H {
	return s.appData
}

// Transports returns the open WebRTC transports using the server.
func (s *WebRtcServer) Transports() []*Transport {
	return s.transports.Values()
}

// Close closes the server. The WebRTC transports using it lose their
// sockets and are closed as well.
func (s *WebRtcServer) Close() {
	if !s.beginClose() {
		return
	}
	s.logger.V(1).Info("Close()")

	s.detach()

	s.mu.Lock()
	transports := s.transports.Drain()
	s.mu.Unlock()

	for _, transport := range transports {
		transport.listenServerClosed()
		s.transportUnhandledEvent.emit(s.logger, transport)
	}
	s.closeVia("worker.closeWebRtcServer", "", internalData{WebRtcServerId: s.id})
}

// workerClosed forgets the transports, their routers close them.
func (s *WebRtcServer) workerClosed() {
	s.parentClosed(func() {
		s.mu.Lock()
		s.transports.Drain()
		s.mu.Unlock()
	})
}

// Dump returns the sockets of the server and the transports using them.
func (s *WebRtcServer) Dump() (*WebRtcServerDump, error) {
	return s.DumpContext(context.Background())
}

func (s *WebRtcServer) DumpContext(ctx context.Context) (*WebRtcServerDump, error) {
	s.logger.V(1).Info("Dump()")

	dump := &WebRtcServerDump{}
	if err := s.request(ctx, "webRtcServer.dump", nil, dump); err != nil {
		return nil, err
	}
	return dump, nil
}

// OnWebRtcTransportHandled registers a handler for transports created with
// the server.
func (s *WebRtcServer) OnWebRtcTransportHandled(handler func(*Transport)) (off func()) {
	return s.transportHandledEvent.on(handler)
}

// OnWebRtcTransportUnhandled registers a handler for transports that stopped
// using the server, because either of them was closed.
func (s *WebRtcServer) OnWebRtcTransportUnhandled(handler func(*Transport)) (off func()) {
	return s.transportUnhandledEvent.on(handler)
}

func (s *WebRtcServer) handleTransport(transport *Transport) bool {
	s.mu.Lock()
	if s.Closed() {
		s.mu.Unlock()
		return false
	}
	s.transports.Store(transport.Id(), transport)
	s.mu.Unlock()

	s.transportHandledEvent.emit(s.logger, transport)

	transport.OnClose(func() {
		if _, ok := s.transports.Delete(transport.Id()); ok {
			s.transportUnhandledEvent.emit(s.logger, transport)
		}
	})
	return true
}
