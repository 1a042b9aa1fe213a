package mediasoup

import "github.com/pion/rtcp"

// MaxMessageSize is the largest data message a direct transport accepts.
func (t *Transport) MaxMessageSize() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.MaxMessageSize
}

// SendRtcp sends RTCP packets to the worker through a direct transport.
func (t *Transport) SendRtcp(packets ...rtcp.Packet) error {
	if t.typ != TransportDirect {
		return ErrNotDirectTransport
	}
	if t.Closed() {
		return ErrTransportClosed
	}
	data, err := rtcp.Marshal(packets)
	if err != nil {
		return err
	}
	return t.payloadChannel.Notify("transport.sendRtcp", t.id, nil, data)
}

// OnRtcp is called with the RTCP the worker sends through a direct
// transport.
func (t *Transport) OnRtcp(handler func([]rtcp.Packet)) (off func()) {
	return t.rtcpEvent.on(handler)
}
