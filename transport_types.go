package mediasoup

type TransportType string

const (
	TransportWebRTC TransportType = "webrtc"
	TransportPlain  TransportType = "plain"
	TransportPipe   TransportType = "pipe"
	TransportDirect TransportType = "direct"
)

// WebRtcTransportOptions. Unset fields take the worker defaults noted below.
type WebRtcTransportOptions struct {
	// Id is generated when empty.
	Id string `json:"-"`

	// WebRtcServer whose sockets the transport uses. Mandatory unless
	// ListenInfos are given.
	WebRtcServer *WebRtcServer `json:"-"`

	// ListenInfos in order of preference. Mandatory unless WebRtcServer is
	// given, ignored otherwise.
	ListenInfos []TransportListenInfo `json:"listenInfos,omitempty"`

	// EnableUdp defaults to true.
	EnableUdp *bool `json:"enableUdp,omitempty"`
	EnableTcp bool  `json:"enableTcp,omitempty"`
	PreferUdp bool  `json:"preferUdp,omitempty"`
	PreferTcp bool  `json:"preferTcp,omitempty"`

	// InitialAvailableOutgoingBitrate in bps, 600000 by default.
	InitialAvailableOutgoingBitrate uint32 `json:"initialAvailableOutgoingBitrate,omitempty"`

	EnableSctp     bool            `json:"enableSctp,omitempty"`
	NumSctpStreams *NumSctpStreams `json:"numSctpStreams,omitempty"`

	// MaxSctpMessageSize bounds messages of DataProducers, 262144 by default.
	MaxSctpMessageSize uint32 `json:"maxSctpMessageSize,omitempty"`

	// SctpSendBufferSize bounds the buffer of DataConsumers, 262144 by default.
	SctpSendBufferSize uint32 `json:"sctpSendBufferSize,omitempty"`

	AppData H `json:"-"`
}

type PlainTransportOptions struct {
	Id         string              `json:"-"`
	ListenInfo TransportListenInfo `json:"listenInfo"`

	// RtcpMux sends RTP and RTCP on the same port. Default true.
	RtcpMux *bool `json:"rtcpMux,omitempty"`

	// Comedia learns the remote address from the first received packet.
	Comedia bool `json:"comedia,omitempty"`

	EnableSctp         bool            `json:"enableSctp,omitempty"`
	NumSctpStreams     *NumSctpStreams `json:"numSctpStreams,omitempty"`
	MaxSctpMessageSize uint32          `json:"maxSctpMessageSize,omitempty"`
	SctpSendBufferSize uint32          `json:"sctpSendBufferSize,omitempty"`

	// EnableSrtp requires Connect to be given the remote SrtpParameters.
	EnableSrtp bool `json:"enableSrtp,omitempty"`

	// SrtpCryptoSuite defaults to AES_CM_128_HMAC_SHA1_80.
	SrtpCryptoSuite SrtpCryptoSuite `json:"srtpCryptoSuite,omitempty"`

	AppData H `json:"-"`
}

// PipeTransportOptions connect two routers, possibly on different hosts.
type PipeTransportOptions struct {
	Id         string              `json:"-"`
	ListenInfo TransportListenInfo `json:"listenInfo"`

	EnableSctp         bool            `json:"enableSctp,omitempty"`
	NumSctpStreams     *NumSctpStreams `json:"numSctpStreams,omitempty"`
	MaxSctpMessageSize uint32          `json:"maxSctpMessageSize,omitempty"`
	SctpSendBufferSize uint32          `json:"sctpSendBufferSize,omitempty"`
	EnableSrtp         bool            `json:"enableSrtp,omitempty"`

	// EnableRtx must match on both ends.
	EnableRtx bool `json:"enableRtx,omitempty"`

	AppData H `json:"-"`
}

type DirectTransportOptions struct {
	Id string `json:"-"`

	// MaxMessageSize of direct DataProducer messages, 262144 by default.
	MaxMessageSize uint32 `json:"maxMessageSize,omitempty"`

	AppData H `json:"-"`
}

// TransportListenInfo represents the transport listening information.
type TransportListenInfo struct {
	Protocol TransportProtocol `json:"protocol,omitempty"`

	// Ip listening IPv4 or IPv6
	Ip string `json:"ip"`

	// AnnouncedAddress announced IPv4, IPv6 or hostname (useful when running behind NAT with private IP)
	AnnouncedAddress string `json:"announcedAddress,omitempty"`

	// Port listening port, 0 picks one from the worker port range.
	Port uint16 `json:"port,omitempty"`
}

type TransportProtocol string

const (
	TransportProtocolUDP TransportProtocol = "udp"
	TransportProtocolTCP TransportProtocol = "tcp"
)

type TransportTuple struct {
	Protocol     TransportProtocol `json:"protocol"`
	LocalAddress string            `json:"localAddress"`
	LocalPort    uint16            `json:"localPort"`
	RemoteIp     string            `json:"remoteIp,omitempty"`
	RemotePort   uint16            `json:"remotePort,omitempty"`
}

type SctpState string

const (
	SctpStateNew        SctpState = "new"
	SctpStateConnecting SctpState = "connecting"
	SctpStateConnected  SctpState = "connected"
	SctpStateFailed     SctpState = "failed"
	SctpStateClosed     SctpState = "closed"
)

type IceParameters struct {
	UsernameFragment string `json:"usernameFragment"`
	Password         string `json:"password"`
	IceLite          bool   `json:"iceLite,omitempty"`
}

type IceCandidate struct {
	Foundation string            `json:"foundation"`
	Priority   uint32            `json:"priority"`
	Address    string            `json:"address"`
	Protocol   TransportProtocol `json:"protocol"`
	Port       uint16            `json:"port"`
	// alway "host"
	Type string `json:"type,omitempty"`
	// "passive" | ""
	TcpType string `json:"tcpType,omitempty"`
}

type IceState string

const (
	IceStateNew          IceState = "new"
	IceStateConnected    IceState = "connected"
	IceStateCompleted    IceState = "completed"
	IceStateDisconnected IceState = "disconnected"
	IceStateClosed       IceState = "closed"
)

type DtlsParameters struct {
	Role         DtlsRole          `json:"role,omitempty"`
	Fingerprints []DtlsFingerprint `json:"fingerprints"`
}

type DtlsFingerprint struct {
	Algorithm string `json:"algorithm"`
	Value     string `json:"value"`
}

type DtlsRole string

const (
	DtlsRoleAuto   DtlsRole = "auto"
	DtlsRoleClient DtlsRole = "client"
	DtlsRoleServer DtlsRole = "server"
)

type DtlsState string

const (
	DtlsStateNew        DtlsState = "new"
	DtlsStateConnecting DtlsState = "connecting"
	DtlsStateConnected  DtlsState = "connected"
	DtlsStateFailed     DtlsState = "failed"
	DtlsStateClosed     DtlsState = "closed"
)

type TransportConnectOptions struct {
	// pipe and plain transport
	Ip             string          `json:"ip,omitempty"`
	Port           *uint16         `json:"port,omitempty"`
	SrtpParameters *SrtpParameters `json:"srtpParameters,omitempty"`
	// plain transport
	RtcpPort *uint16 `json:"rtcpPort,omitempty"`
	// webrtc transport
	DtlsParameters *DtlsParameters `json:"dtlsParameters,omitempty"`
}

// TransportData is the state the worker reports when a transport is created,
// kept up to date by the transport notifications. Fields that do not apply to
// the transport type stay empty.
type TransportData struct {
	IceRole          string          `json:"iceRole,omitempty"`
	IceParameters    *IceParameters  `json:"iceParameters,omitempty"`
	IceCandidates    []IceCandidate  `json:"iceCandidates,omitempty"`
	IceState         IceState        `json:"iceState,omitempty"`
	IceSelectedTuple *TransportTuple `json:"iceSelectedTuple,omitempty"`
	DtlsParameters   *DtlsParameters `json:"dtlsParameters,omitempty"`
	DtlsState        DtlsState       `json:"dtlsState,omitempty"`
	DtlsRemoteCert   string          `json:"dtlsRemoteCert,omitempty"`
	Tuple            *TransportTuple `json:"tuple,omitempty"`
	RtcpTuple        *TransportTuple `json:"rtcpTuple,omitempty"`
	RtcpMux          bool            `json:"rtcpMux,omitempty"`
	Comedia          bool            `json:"comedia,omitempty"`
	Rtx              bool            `json:"rtx,omitempty"`
	SctpParameters   *SctpParameters `json:"sctpParameters,omitempty"`
	SctpState        SctpState       `json:"sctpState,omitempty"`
	SrtpParameters   *SrtpParameters `json:"srtpParameters,omitempty"`
	MaxMessageSize   uint32          `json:"maxMessageSize,omitempty"`
}

type TransportDump struct {
	Id                   string            `json:"id"`
	Direct               bool              `json:"direct,omitempty"`
	ProducerIds          []string          `json:"producerIds"`
	ConsumerIds          []string          `json:"consumerIds"`
	MapSsrcConsumerId    map[string]string `json:"mapSsrcConsumerId"`
	MapRtxSsrcConsumerId map[string]string `json:"mapRtxSsrcConsumerId"`
	DataProducerIds      []string          `json:"dataProducerIds"`
	DataConsumerIds      []string          `json:"dataConsumerIds"`
	RtpListener          *RtpListenerDump  `json:"rtpListener,omitempty"`
	MaxMessageSize       uint32            `json:"maxMessageSize,omitempty"`
	SctpParameters       *SctpParameters   `json:"sctpParameters,omitempty"`
	SctpState            SctpState         `json:"sctpState,omitempty"`
	TraceEventTypes      []string          `json:"traceEventTypes"`

	TransportData
}

type RtpListenerDump struct {
	SsrcTable map[string]string `json:"ssrcTable,omitempty"`
	MidTable  map[string]string `json:"midTable,omitempty"`
	RidTable  map[string]string `json:"ridTable,omitempty"`
}

// TransportStat represents transport statistics.
type TransportStat struct {
	Type                     string          `json:"type"`
	TransportId              string          `json:"transportId"`
	Timestamp                uint64          `json:"timestamp"`
	SctpState                SctpState       `json:"sctpState,omitempty"`
	BytesReceived            uint64          `json:"bytesReceived"`
	RecvBitrate              uint32          `json:"recvBitrate"`
	BytesSent                uint64          `json:"bytesSent"`
	SendBitrate              uint32          `json:"sendBitrate"`
	RtpBytesReceived         uint64          `json:"rtpBytesReceived"`
	RtpRecvBitrate           uint32          `json:"rtpRecvBitrate"`
	RtpBytesSent             uint64          `json:"rtpBytesSent"`
	RtpSendBitrate           uint32          `json:"rtpSendBitrate"`
	RtxBytesReceived         uint64          `json:"rtxBytesReceived"`
	RtxRecvBitrate           uint32          `json:"rtxRecvBitrate"`
	RtxBytesSent             uint64          `json:"rtxBytesSent"`
	RtxSendBitrate           uint32          `json:"rtxSendBitrate"`
	ProbationBytesSent       uint64          `json:"probationBytesSent"`
	ProbationSendBitrate     uint32          `json:"probationSendBitrate"`
	AvailableOutgoingBitrate *uint32         `json:"availableOutgoingBitrate,omitempty"`
	AvailableIncomingBitrate *uint32         `json:"availableIncomingBitrate,omitempty"`
	MaxIncomingBitrate       *uint32         `json:"maxIncomingBitrate,omitempty"`
	IceRole                  string          `json:"iceRole,omitempty"`
	IceState                 IceState        `json:"iceState,omitempty"`
	IceSelectedTuple         *TransportTuple `json:"iceSelectedTuple,omitempty"`
	DtlsState                DtlsState       `json:"dtlsState,omitempty"`
	Tuple                    *TransportTuple `json:"tuple,omitempty"`
	RtcpTuple                *TransportTuple `json:"rtcpTuple,omitempty"`
}
