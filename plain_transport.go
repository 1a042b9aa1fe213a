package mediasoup

// Tuple returns the RTP tuple of a plain or pipe transport. The remote side
// is unset until the transport is connected, or, with comedia, until the
// first packet arrived.
func (t *Transport) Tuple() *TransportTuple {
	t.mu.Lock()
	defer t.mu.Unlock()

	return clone(t.data.Tuple)
}

// RtcpTuple returns the RTCP tuple of a plain transport without rtcp-mux.
func (t *Transport) RtcpTuple() *TransportTuple {
	t.mu.Lock()
	defer t.mu.Unlock()

	return clone(t.data.RtcpTuple)
}

func (t *Transport) RtcpMux() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.RtcpMux
}

func (t *Transport) Comedia() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.Comedia
}

// SrtpParameters returns the local SRTP parameters when SRTP is enabled.
func (t *Transport) SrtpParameters() *SrtpParameters {
	t.mu.Lock()
	defer t.mu.Unlock()

	return clone(t.data.SrtpParameters)
}

// OnTuple is called when a comedia transport learns the remote RTP tuple.
func (t *Transport) OnTuple(handler func(TransportTuple)) (off func()) {
	return t.tupleEvent.on(handler)
}

// OnRtcpTuple is called when a comedia transport without rtcp-mux learns the
// remote RTCP tuple.
func (t *Transport) OnRtcpTuple(handler func(TransportTuple)) (off func()) {
	return t.rtcpTupleEvent.on(handler)
}
