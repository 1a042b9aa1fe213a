package mediasoup

// WebRtcServerOptions. A WebRtcServer lets WebRTC transports of every router
// of a worker share the same UDP and TCP ports.
type WebRtcServerOptions struct {
	// Id is generated when empty.
	Id string `json:"-"`

	// ListenInfos in order of preference. Mandatory.
	ListenInfos []TransportListenInfo `json:"listenInfos"`

	AppData H `json:"-"`
}

type WebRtcServerDump struct {
	Id                        string                `json:"id"`
	UdpSockets                []IpPort              `json:"udpSockets,omitempty"`
	TcpServers                []IpPort              `json:"tcpServers,omitempty"`
	WebRtcTransportIds        []string              `json:"webRtcTransportIds,omitempty"`
	LocalIceUsernameFragments []IceUsernameFragment `json:"localIceUsernameFragments,omitempty"`
	TupleHashes               []TupleHash           `json:"tupleHashes,omitempty"`
}

type IpPort struct {
	Ip   string `json:"ip"`
	Port uint16 `json:"port"`
}

type IceUsernameFragment struct {
	LocalIceUsernameFragment string `json:"localIceUsernameFragment"`
	WebRtcTransportId        string `json:"webRtcTransportId"`
}

type TupleHash struct {
	TupleHash         uint64 `json:"tupleHash"`
	WebRtcTransportId string `json:"webRtcTransportId"`
}
