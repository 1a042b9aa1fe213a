package mediasoup

// DataChannelType tells whether data flows over an SCTP association or over a
// direct transport.
type DataChannelType string

const (
	DataChannelSctp   DataChannelType = "sctp"
	DataChannelDirect DataChannelType = "direct"
)

type (
	DataProducerType = DataChannelType
	DataConsumerType = DataChannelType
)

const (
	DataProducerSctp   = DataChannelSctp
	DataProducerDirect = DataChannelDirect
	DataConsumerSctp   = DataChannelSctp
	DataConsumerDirect = DataChannelDirect
)

type DataProducerOptions struct {
	// Id is generated when empty.
	Id string `json:"-"`

	// SctpStreamParameters is required on every transport but the direct one,
	// where it is ignored.
	SctpStreamParameters *SctpStreamParameters `json:"sctpStreamParameters,omitempty"`

	Label    string `json:"label,omitempty"`
	Protocol string `json:"protocol,omitempty"`

	AppData H `json:"-"`
}

// DataConsumerOptions selects the DataProducer to consume. The reliability
// fields only apply to SCTP consumers; when any of them is set they replace
// the ones of the DataProducer.
type DataConsumerOptions struct {
	// Id is generated when empty.
	Id string `json:"-"`

	DataProducerId string `json:"dataProducerId,omitempty"`

	// Ordered defaults to the DataProducer value, or true when it is direct.
	Ordered *bool `json:"ordered,omitempty"`

	// MaxPacketLifeTime in milliseconds. Exclusive with MaxRetransmits.
	MaxPacketLifeTime uint16 `json:"maxPacketLifeTime,omitempty"`

	MaxRetransmits uint16 `json:"maxRetransmits,omitempty"`

	AppData H `json:"-"`
}

type dataDump struct {
	Id                   string                `json:"id,omitempty"`
	Type                 DataChannelType       `json:"type,omitempty"`
	SctpStreamParameters *SctpStreamParameters `json:"sctpStreamParameters,omitempty"`
	Label                string                `json:"label,omitempty"`
	Protocol             string                `json:"protocol,omitempty"`
}

type DataProducerDump struct {
	dataDump
}

type DataConsumerDump struct {
	dataDump
	DataProducerId             string `json:"dataProducerId,omitempty"`
	BufferedAmountLowThreshold uint32 `json:"bufferedAmountLowThreshold,omitempty"`
}

// DataStat is reported by "data-producer" (received counters) and
// "data-consumer" (sent counters and buffered amount) stats.
type DataStat struct {
	Type             string `json:"type,omitempty"`
	Timestamp        uint64 `json:"timestamp,omitempty"`
	Label            string `json:"label,omitempty"`
	Protocol         string `json:"protocol,omitempty"`
	MessagesReceived uint64 `json:"messagesReceived,omitempty"`
	BytesReceived    uint64 `json:"bytesReceived,omitempty"`
	MessagesSent     uint64 `json:"messagesSent,omitempty"`
	BytesSent        uint64 `json:"bytesSent,omitempty"`
	BufferedAmount   uint32 `json:"bufferedAmount,omitempty"`
}

type (
	DataProducerStat = DataStat
	DataConsumerStat = DataStat
)
