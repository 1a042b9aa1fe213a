package mediasoup

import "context"

// WebRTC transport accessors. They return zero values on other transport
// types.

func (t *Transport) IceRole() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.IceRole
}

func (t *Transport) IceParameters() *IceParameters {
	t.mu.Lock()
	defer t.mu.Unlock()

	return clone(t.data.IceParameters)
}

func (t *Transport) IceCandidates() []IceCandidate {
	t.mu.Lock()
	defer t.mu.Unlock()

	return clone(t.data.IceCandidates)
}

func (t *Transport) IceState() IceState {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.IceState
}

// IceSelectedTuple returns the tuple ICE nominated, nil before ICE is
// connected.
func (t *Transport) IceSelectedTuple() *TransportTuple {
	t.mu.Lock()
	defer t.mu.Unlock()

	return clone(t.data.IceSelectedTuple)
}

func (t *Transport) DtlsParameters() *DtlsParameters {
	t.mu.Lock()
	defer t.mu.Unlock()

	return clone(t.data.DtlsParameters)
}

func (t *Transport) DtlsState() DtlsState {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.DtlsState
}

// DtlsRemoteCert is the remote certificate in PEM format, set once DTLS is
// connected.
func (t *Transport) DtlsRemoteCert() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.DtlsRemoteCert
}

// RestartIce generates new local ICE parameters.
func (t *Transport) RestartIce() (*IceParameters, error) {
	return t.RestartIceContext(context.Background())
}

func (t *Transport) RestartIceContext(ctx context.Context) (*IceParameters, error) {
	t.logger.V(1).Info("RestartIce()")

	if t.typ != TransportWebRTC {
		return nil, NewUnsupportedError("restartIce() not implemented in %s transport", t.typ)
	}
	var resp struct {
		IceParameters *IceParameters `json:"iceParameters"`
	}
	if err := t.request(ctx, "transport.restartIce", nil, &resp); err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.data.IceParameters = resp.IceParameters
	t.mu.Unlock()

	return clone(resp.IceParameters), nil
}

func (t *Transport) OnIceStateChange(handler func(IceState)) (off func()) {
	return t.iceStateEvent.on(handler)
}

func (t *Transport) OnIceSelectedTupleChange(handler func(TransportTuple)) (off func()) {
	return t.iceSelectedTupleEvent.on(handler)
}

func (t *Transport) OnDtlsStateChange(handler func(DtlsState)) (off func()) {
	return t.dtlsStateEvent.on(handler)
}

// WebRtcServer returns the server whose sockets the transport uses, nil when
// it was created with its own ListenInfos.
func (t *Transport) WebRtcServer() *WebRtcServer {
	return t.webRtcServer
}

// OnListenServerClose registers a handler called when the transport is
// closed because its WebRtcServer was closed.
func (t *Transport) OnListenServerClose(handler func()) (off func()) {
	return t.listenServerCloseEvent.once(func(struct{}) { handler() })
}

// listenServerClosed closes the transport after its WebRtcServer was closed.
// The worker already released it together with the server.
func (t *Transport) listenServerClosed() {
	t.mu.Lock()
	t.data.IceState = IceStateClosed
	t.data.IceSelectedTuple = nil
	t.data.DtlsState = DtlsStateClosed
	if len(t.data.SctpState) > 0 {
		t.data.SctpState = SctpStateClosed
	}
	t.mu.Unlock()

	t.parentClosed(func() {
		t.router.removeTransport(t.id)
		t.closeChildren()
		t.listenServerCloseEvent.emit(t.logger, struct{}{})
	})
}
