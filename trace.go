package mediasoup

import (
	"encoding/json"
	"fmt"
)

// TransportTraceEventType selects the "trace" events a transport emits.
type TransportTraceEventType string

const (
	TransportTraceEventProbation TransportTraceEventType = "probation"
	TransportTraceEventBWE       TransportTraceEventType = "bwe"
)

// ProducerTraceEventType selects the "trace" events a producer emits.
type ProducerTraceEventType string

const (
	ProducerTraceEventRtp      ProducerTraceEventType = "rtp"
	ProducerTraceEventKeyframe ProducerTraceEventType = "keyframe"
	ProducerTraceEventPli      ProducerTraceEventType = "pli"
	ProducerTraceEventFir      ProducerTraceEventType = "fir"
	ProducerTraceEventSr       ProducerTraceEventType = "sr"
)

// ConsumerTraceEventType selects the "trace" events a consumer emits.
type ConsumerTraceEventType string

const (
	ConsumerTraceEventRtp      ConsumerTraceEventType = "rtp"
	ConsumerTraceEventKeyframe ConsumerTraceEventType = "keyframe"
	ConsumerTraceEventNack     ConsumerTraceEventType = "nack"
	ConsumerTraceEventPli      ConsumerTraceEventType = "pli"
	ConsumerTraceEventFir      ConsumerTraceEventType = "fir"
)

// Trace event data. Direction is "in" or "out", Info depends on Type and can
// be decoded with the typed accessors below.
type (
	TransportTraceEventData struct {
		Type      TransportTraceEventType `json:"type"`
		Timestamp uint64                  `json:"timestamp"`
		Direction string                  `json:"direction"`
		Info      H                       `json:"info"`
	}

	ProducerTraceEventData struct {
		Type      ProducerTraceEventType `json:"type,omitempty"`
		Timestamp uint64                 `json:"timestamp,omitempty"`
		Direction string                 `json:"direction,omitempty"`
		Info      H                      `json:"info,omitempty"`
	}

	ConsumerTraceEventData struct {
		Type      ConsumerTraceEventType `json:"type"`
		Timestamp uint64                 `json:"timestamp"`
		Direction string                 `json:"direction"`
		Info      H                      `json:"info,omitempty"`
	}
)

// RtpPacketDump describes a traced RTP packet.
type RtpPacketDump struct {
	PayloadType        uint8   `json:"payloadType"`
	SequenceNumber     uint16  `json:"sequenceNumber"`
	Timestamp          uint32  `json:"timestamp"`
	Marker             bool    `json:"marker"`
	Ssrc               uint32  `json:"ssrc"`
	IsKeyFrame         bool    `json:"isKeyFrame"`
	Size               uint64  `json:"size"`
	PayloadSize        uint64  `json:"payloadSize"`
	SpatialLayer       uint8   `json:"spatialLayer"`
	TemporalLayer      uint8   `json:"temporalLayer"`
	Mid                string  `json:"mid,omitempty"`
	Rid                string  `json:"rid,omitempty"`
	Rrid               string  `json:"rrid,omitempty"`
	WideSequenceNumber *uint16 `json:"wideSequenceNumber,omitempty"`
}

// RtpTraceInfo is the info of "rtp" and "keyframe" traces.
type RtpTraceInfo struct {
	RtpPacket *RtpPacketDump `json:"rtpPacket"`
	IsRtx     bool           `json:"isRtx"`
}

// SsrcTraceInfo is the info of "pli", "fir" and "nack" traces.
type SsrcTraceInfo struct {
	Ssrc uint32 `json:"ssrc"`
}

// SrTraceInfo is the info of "sr" traces.
type SrTraceInfo struct {
	Ssrc        uint32 `json:"ssrc"`
	NtpSec      uint32 `json:"ntpSec"`
	NtpFrac     uint32 `json:"ntpFrac"`
	RtpTs       uint32 `json:"rtpTs"`
	PacketCount uint32 `json:"packetCount"`
	OctetCount  uint32 `json:"octetCount"`
}

func decodeTraceInfo[T any](typ string, info H) (*T, error) {
	if info == nil {
		return nil, NewTypeError("%s trace carries no info", typ)
	}
	data, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s trace info: %w", typ, err)
	}
	return &v, nil
}

// RtpInfo decodes the info of "rtp" and "keyframe" traces.
func (d ProducerTraceEventData) RtpInfo() (*RtpTraceInfo, error) {
	if d.Type != ProducerTraceEventRtp && d.Type != ProducerTraceEventKeyframe {
		return nil, NewTypeError("%q trace has no rtp info", d.Type)
	}
	return decodeTraceInfo[RtpTraceInfo](string(d.Type), d.Info)
}

// SsrcInfo decodes the info of "pli" and "fir" traces.
func (d ProducerTraceEventData) SsrcInfo() (*SsrcTraceInfo, error) {
	if d.Type != ProducerTraceEventPli && d.Type != ProducerTraceEventFir {
		return nil, NewTypeError("%q trace has no ssrc info", d.Type)
	}
	return decodeTraceInfo[SsrcTraceInfo](string(d.Type), d.Info)
}

func (d ProducerTraceEventData) SrInfo() (*SrTraceInfo, error) {
	if d.Type != ProducerTraceEventSr {
		return nil, NewTypeError("%q trace has no sr info", d.Type)
	}
	return decodeTraceInfo[SrTraceInfo](string(d.Type), d.Info)
}

// RtpInfo decodes the info of "rtp" and "keyframe" traces.
func (d ConsumerTraceEventData) RtpInfo() (*RtpTraceInfo, error) {
	if d.Type != ConsumerTraceEventRtp && d.Type != ConsumerTraceEventKeyframe {
		return nil, NewTypeError("%q trace has no rtp info", d.Type)
	}
	return decodeTraceInfo[RtpTraceInfo](string(d.Type), d.Info)
}

// SsrcInfo decodes the info of "pli", "fir" and "nack" traces.
func (d ConsumerTraceEventData) SsrcInfo() (*SsrcTraceInfo, error) {
	switch d.Type {
	case ConsumerTraceEventPli, ConsumerTraceEventFir, ConsumerTraceEventNack:
		return decodeTraceInfo[SsrcTraceInfo](string(d.Type), d.Info)
	}
	return nil, NewTypeError("%q trace has no ssrc info", d.Type)
}
