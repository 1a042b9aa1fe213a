package mediasoup

type ProducerOptions struct {
	// Id is generated when empty.
	Id string `json:"-"`

	Kind MediaKind `json:"kind,omitempty"`

	// RtpParameters describe what the endpoint sends. Mandatory.
	RtpParameters *RtpParameters `json:"rtpParameters,omitempty"`

	Paused bool `json:"paused,omitempty"`

	// KeyFrameRequestDelay is the minimum time in ms between two key frame
	// requests forwarded to the sender. Video only.
	KeyFrameRequestDelay uint32 `json:"keyFrameRequestDelay,omitempty"`

	AppData H `json:"-"`
}

// ProducerType is derived from the encodings the producer sends.
type ProducerType string

const (
	ProducerSimple    ProducerType = "simple"
	ProducerSimulcast ProducerType = "simulcast"
	ProducerSvc       ProducerType = "svc"
	ProducerPipe      ProducerType = "pipe"
)

// ProducerScore is the quality of one received stream, from 0 to 10.
type ProducerScore struct {
	EncodingIdx uint32 `json:"encodingIdx"`
	Rid         string `json:"rid,omitempty"`
	Ssrc        uint32 `json:"ssrc"`
	Score       uint8  `json:"score"`
}

// ProducerVideoOrientation is signaled by the sender through the
// urn:3gpp:video-orientation header extension.
type ProducerVideoOrientation struct {
	Camera bool `json:"camera,omitempty"`
	Flip   bool `json:"flip,omitempty"`

	// Rotation is one of 0, 90, 180 or 270.
	Rotation uint16 `json:"rotation"`
}

type ProducerDump struct {
	Id              string                   `json:"id,omitempty"`
	Kind            MediaKind                `json:"kind,omitempty"`
	Type            ProducerType             `json:"type,omitempty"`
	RtpParameters   *RtpParameters           `json:"rtpParameters,omitempty"`
	RtpMapping      *RtpMapping              `json:"rtpMapping,omitempty"`
	RtpStreams      []*RtpStreamDump         `json:"rtpStreams,omitempty"`
	TraceEventTypes []ProducerTraceEventType `json:"traceEventTypes,omitempty"`
	Paused          bool                     `json:"paused,omitempty"`
}

type RtpStreamDump struct {
	Params    H     `json:"params,omitempty"`
	Score     uint8 `json:"score"`
	RtxStream H     `json:"rtxStream,omitempty"`
}

type ProducerStat = RtpStreamStats
