package mediasoup

type RouterOptions struct {
	// Id is generated when empty.
	Id string `json:"-"`

	// MediaCodecs are the codecs the router accepts. The router capabilities
	// are computed from them against the supported ones.
	MediaCodecs []*RtpCodecCapability `json:"mediaCodecs,omitempty"`

	AppData H `json:"appData,omitempty"`
}

// PipeToRouterOptions select what to pipe into another router of the same
// host, and how the pipe transports connecting both routers are created.
type PipeToRouterOptions struct {
	// ProducerId or DataProducerId, exactly one of them.
	ProducerId     string
	DataProducerId string

	// Router is the destination. It must differ from the source router.
	Router *Router

	// ListenInfo of both pipe transports, 127.0.0.1 by default.
	ListenInfo TransportListenInfo

	// EnableSctp defaults to true.
	EnableSctp     *bool
	NumSctpStreams *NumSctpStreams
	EnableRtx      bool
	EnableSrtp     bool
}

// PipeToRouterResult holds the entities created by PipeToRouter: either the
// pipe consumer and producer or the pipe data consumer and data producer.
type PipeToRouterResult struct {
	// PipeConsumer lives in the source router.
	PipeConsumer *Consumer

	// PipeProducer lives in the destination router and has the id of the
	// source producer.
	PipeProducer *Producer

	PipeDataConsumer *DataConsumer
	PipeDataProducer *DataProducer
}

// RouterDump is the worker side view of a router: its children and the
// routing tables between producers, consumers and observers.
type RouterDump struct {
	Id             string   `json:"id,omitempty"`
	TransportIds   []string `json:"transportIds,omitempty"`
	RtpObserverIds []string `json:"rtpObserverIds,omitempty"`

	MapProducerIdConsumerIds         map[string][]string `json:"mapProducerIdConsumerIds,omitempty"`
	MapConsumerIdProducerId          map[string]string   `json:"mapConsumerIdProducerId,omitempty"`
	MapProducerIdObserverIds         map[string][]string `json:"mapProducerIdObserverIds,omitempty"`
	MapDataProducerIdDataConsumerIds map[string][]string `json:"mapDataProducerIdDataConsumerIds,omitempty"`
	MapDataConsumerIdDataProducerId  map[string]string   `json:"mapDataConsumerIdDataProducerId,omitempty"`
}
