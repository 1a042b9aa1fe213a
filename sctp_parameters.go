package mediasoup

import "github.com/pion/sctp"

// SctpCapabilities are the SCTP capabilities of an endpoint.
type SctpCapabilities struct {
	NumStreams NumSctpStreams `json:"numStreams"`
}

// NumSctpStreams are negotiated in the SCTP INIT+ACK handshake. OS is the
// initial number of outgoing streams the transport creates (used by data
// consumers), MIS the maximum number of incoming streams (used by data
// producers).
//
// libwebrtc does not enable SCTP_ADD_STREAMS, so OS should be 1024 when data
// consumers are required.
type NumSctpStreams struct {
	// OS is the initially requested number of outgoing SCTP streams.
	OS uint16 `json:"OS"`

	// MIS is the maximum number of incoming SCTP streams.
	MIS uint16 `json:"MIS"`
}

// SctpParameters are the SCTP parameters of a transport.
type SctpParameters struct {
	// Port is always 5000.
	Port           uint16 `json:"port"`
	OS             uint16 `json:"OS"`
	MIS            uint16 `json:"MIS"`
	MaxMessageSize uint32 `json:"maxMessageSize"`
}

// SctpStreamParameters describe the reliability of a SCTP stream. Ordered
// streams are reliable; an unordered stream may set one of MaxPacketLifeTime
// and MaxRetransmits.
type SctpStreamParameters struct {
	StreamId uint16 `json:"streamId"`

	// Ordered defaults to true unless a partial reliability limit is set.
	Ordered *bool `json:"ordered,omitempty"`

	// MaxPacketLifeTime is the time in milliseconds after which a packet is
	// no longer retransmitted.
	MaxPacketLifeTime uint16 `json:"maxPacketLifeTime,omitempty"`

	// MaxRetransmits is the maximum number of retransmissions of a packet.
	MaxRetransmits uint16 `json:"maxRetransmits,omitempty"`
}

// ReliabilityType returns the pion reliability type and parameter matching
// the stream parameters.
func (p SctpStreamParameters) ReliabilityType() (byte, uint32) {
	switch {
	case p.MaxPacketLifeTime > 0:
		return sctp.ReliabilityTypeTimed, uint32(p.MaxPacketLifeTime)
	case p.MaxRetransmits > 0:
		return sctp.ReliabilityTypeRexmit, uint32(p.MaxRetransmits)
	default:
		return sctp.ReliabilityTypeReliable, 0
	}
}

// SCTP payload protocol identifiers of WebRTC data channel messages.
const (
	PPIDWebRTCString      = sctp.PayloadTypeWebRTCString
	PPIDWebRTCBinary      = sctp.PayloadTypeWebRTCBinary
	PPIDWebRTCStringEmpty = sctp.PayloadTypeWebRTCStringEmpty
	PPIDWebRTCBinaryEmpty = sctp.PayloadTypeWebRTCBinaryEmpty
)

// messagePPID returns the PPID and the bytes to put on the wire for a data
// channel message. Empty messages are sent as a single space with the
// dedicated "empty" PPID since SCTP cannot carry empty payloads.
func messagePPID(message []byte, binary bool) (sctp.PayloadProtocolIdentifier, []byte) {
	switch {
	case binary && len(message) > 0:
		return PPIDWebRTCBinary, message
	case binary:
		return PPIDWebRTCBinaryEmpty, []byte{' '}
	case len(message) > 0:
		return PPIDWebRTCString, message
	default:
		return PPIDWebRTCStringEmpty, []byte{' '}
	}
}

// messageFromPPID reverses messagePPID.
func messageFromPPID(ppid sctp.PayloadProtocolIdentifier, payload []byte) []byte {
	if ppid == PPIDWebRTCStringEmpty || ppid == PPIDWebRTCBinaryEmpty {
		return []byte{}
	}
	return payload
}
