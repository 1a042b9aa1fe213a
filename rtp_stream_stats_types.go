package mediasoup

// RTP stream stats types.
const (
	RtpStreamInbound  = "inbound-rtp"
	RtpStreamOutbound = "outbound-rtp"
)

// RtpStreamStats is an entry of Producer.GetStats or Consumer.GetStats. A
// producer reports one "inbound-rtp" entry per received stream. A consumer
// reports its "outbound-rtp" stream, followed by the "inbound-rtp" stream
// of its producer when the worker knows it.
type RtpStreamStats struct {
	Type      string    `json:"type"`
	Timestamp uint64    `json:"timestamp"`
	Ssrc      uint32    `json:"ssrc"`
	RtxSsrc   *uint32   `json:"rtxSsrc,omitempty"`
	Rid       string    `json:"rid,omitempty"`
	Kind      MediaKind `json:"kind"`
	MimeType  string    `json:"mimeType"`
	Score     uint8     `json:"score"`

	PacketCount uint64 `json:"packetCount"`
	ByteCount   uint64 `json:"byteCount"`
	Bitrate     uint32 `json:"bitrate"`

	PacketsLost          uint64  `json:"packetsLost"`
	FractionLost         uint8   `json:"fractionLost"`
	PacketsDiscarded     uint64  `json:"packetsDiscarded"`
	PacketsRetransmitted uint64  `json:"packetsRetransmitted"`
	PacketsRepaired      uint64  `json:"packetsRepaired"`
	NackCount            uint64  `json:"nackCount"`
	NackPacketCount      uint64  `json:"nackPacketCount"`
	PliCount             uint64  `json:"pliCount"`
	FirCount             uint64  `json:"firCount"`
	RoundTripTime        float32 `json:"roundTripTime,omitempty"`
	RtxPacketsDiscarded  uint64  `json:"rtxPacketsDiscarded,omitempty"`

	// inbound only
	Jitter         uint32            `json:"jitter,omitempty"`
	BitrateByLayer map[string]uint32 `json:"bitrateByLayer,omitempty"`
}

// Inbound reports whether the stream is received by the worker.
func (s *RtpStreamStats) Inbound() bool {
	return s.Type == RtpStreamInbound
}
