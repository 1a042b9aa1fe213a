package mediasoup

// ConsumerOptions define options to create a consumer.
type ConsumerOptions struct {
	// Id of the consumer, generated when empty.
	Id string

	// ProducerId is the id of the Producer to consume.
	ProducerId string

	// RtpCapabilities are the capabilities of the consuming endpoint.
	// Ignored by pipe transports.
	RtpCapabilities *RtpCapabilities

	// Paused defines whether the consumer must start in paused mode.
	// Default false.
	//
	// When creating a video consumer it's recommended to set paused to true,
	// then transmit the consumer parameters to the consuming endpoint and,
	// once it has created its local side consumer, unpause the server side
	// consumer using the Resume() method.
	Paused bool

	// Mid overrides the MID the router would assign.
	Mid string

	// PreferredLayers are the preferred spatial and temporal layer for
	// simulcast or SVC media sources. They are clamped to the layers the
	// producer offers.
	PreferredLayers *ConsumerLayers

	// IgnoreDtx makes the consumer drop DTX packets of an audio producer.
	IgnoreDtx bool

	// ReservedPayloadTypes must not be assigned to the consumer, typically
	// because the endpoint uses them for other streams of its session.
	ReservedPayloadTypes []uint8

	// AppData is custom application data.
	AppData H
}

type ConsumerDump struct {
	Id                         string                   `json:"id"`
	ProducerId                 string                   `json:"producerId"`
	Kind                       MediaKind                `json:"kind"`
	Type                       ConsumerType             `json:"type"`
	RtpParameters              *RtpParameters           `json:"rtpParameters"`
	ConsumableRtpEncodings     []*RtpEncodingParameters `json:"consumableRtpEncodings,omitempty"`
	SupportedCodecPayloadTypes []uint8                  `json:"supportedCodecPayloadTypes,omitempty"`
	TraceEventTypes            []ConsumerTraceEventType `json:"traceEventTypes"`
	Paused                     bool                     `json:"paused"`
	ProducerPaused             bool                     `json:"producerPaused"`
	Priority                   uint8                    `json:"priority"`
	PreferredSpatialLayer      *uint8                   `json:"preferredSpatialLayer,omitempty"`
	PreferredTemporalLayer     *uint8                   `json:"preferredTemporalLayer,omitempty"`
	RtpStreams                 []*RtpStreamDump         `json:"rtpStreams,omitempty"`
}

// ConsumerStat is one entry of the consumer statistics. The consumer's own
// stream is reported with type "outbound-rtp", the producer stream with
// "inbound-rtp".
type ConsumerStat = RtpStreamStats
