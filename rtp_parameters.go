package mediasoup

import (
	"strings"

	"github.com/mediaplane/mediasoup-go/internal/h264"
)

// MediaKind is "audio" or "video".
type MediaKind string

const (
	MediaKindAudio MediaKind = "audio"
	MediaKindVideo MediaKind = "video"
)

// MediaDirection is the direction of an RTP header extension.
type MediaDirection string

const (
	MediaDirectionSendrecv MediaDirection = "sendrecv"
	MediaDirectionSendonly MediaDirection = "sendonly"
	MediaDirectionRecvonly MediaDirection = "recvonly"
	MediaDirectionInactive MediaDirection = "inactive"
)

// RtpCapabilities define what the router or an endpoint can receive at media
// level.
type RtpCapabilities struct {
	// Codecs is the supported media and RTX codecs.
	Codecs []*RtpCodecCapability `json:"codecs,omitempty"`

	// HeaderExtensions is the supported RTP header extensions.
	HeaderExtensions []*RtpHeaderExtension `json:"headerExtensions,omitempty"`

	// FecMechanisms is the supported FEC mechanisms.
	FecMechanisms []string `json:"fecMechanisms,omitempty"`
}

// RtpCodecCapability provides information on the capabilities of a codec
// within the RTP capabilities. The codecs supported by the worker are listed
// in supported_rtp_capabilities.go.
//
// Entries of RouterOptions.MediaCodecs may omit PreferredPayloadType, a
// dynamic one is chosen then.
type RtpCodecCapability struct {
	Kind MediaKind `json:"kind"`

	// MimeType is the codec MIME media type/subtype (e.g. "audio/opus").
	MimeType string `json:"mimeType"`

	PreferredPayloadType uint8 `json:"preferredPayloadType,omitempty"`

	// ClockRate is the codec clock rate expressed in Hertz.
	ClockRate uint32 `json:"clockRate"`

	// Channels is the number of channels (e.g. 2 for stereo). Audio only,
	// default 1.
	Channels uint8 `json:"channels,omitempty"`

	// Parameters are the codec specific parameters. Some of them (such as
	// packetization-mode and profile-level-id in H264 or profile-id in VP9)
	// are critical for codec matching.
	Parameters RtpCodecSpecificParameters `json:"parameters,omitempty"`

	RtcpFeedback []*RtcpFeedback `json:"rtcpFeedback,omitempty"`
}

func (c *RtpCodecCapability) isRtxCodec() bool {
	return isRtxMimeType(c.MimeType)
}

// RtpHeaderExtension describes a supported RTP header extension.
//
// Direction is only meaningful in the router capabilities, it is ignored in
// the capabilities of endpoints.
type RtpHeaderExtension struct {
	// Kind is the media kind the extension applies to.
	Kind MediaKind `json:"kind"`

	// Uri of the extension as defined in RFC 5285.
	Uri string `json:"uri"`

	// PreferredId is the preferred numeric identifier that goes in the RTP
	// packet. Must be unique.
	PreferredId uint8 `json:"preferredId"`

	PreferredEncrypt bool `json:"preferredEncrypt,omitempty"`

	// Direction tells whether the router can send ("sendonly"), receive
	// ("recvonly") or both ("sendrecv") the extension.
	Direction MediaDirection `json:"direction,omitempty"`
}

// RtpParameters describe a media stream sent or received through a
// transport.
//
// Producer parameters may carry several encodings (simulcast), each with a
// ssrc or a rid. Consumer parameters always carry a single encoding with
// random SSRCs, except for pipe consumers which forward every stream.
type RtpParameters struct {
	// Mid is the value of the MID header extension (RFC 8843).
	Mid string `json:"mid,omitempty"`

	Codecs           []*RtpCodecParameters           `json:"codecs"`
	HeaderExtensions []*RtpHeaderExtensionParameters `json:"headerExtensions,omitempty"`
	Encodings        []*RtpEncodingParameters        `json:"encodings,omitempty"`
	Rtcp             *RtcpParameters                 `json:"rtcp,omitempty"`
}

// ConsumableRtpParameters is the canonical form of the parameters of a
// producer, as the router sends them. Every consumer is negotiated from it.
type ConsumableRtpParameters RtpParameters

// RtpCodecParameters provides information on codec settings within the RTP
// parameters.
type RtpCodecParameters struct {
	MimeType string `json:"mimeType"`

	// PayloadType is the value that goes in the RTP Payload Type Field. Must be
	// unique.
	PayloadType uint8 `json:"payloadType"`

	ClockRate    uint32                     `json:"clockRate"`
	Channels     uint8                      `json:"channels,omitempty"`
	Parameters   RtpCodecSpecificParameters `json:"parameters,omitempty"`
	RtcpFeedback []*RtcpFeedback            `json:"rtcpFeedback,omitempty"`
}

func (c *RtpCodecParameters) isRtxCodec() bool {
	return isRtxMimeType(c.MimeType)
}

func isRtxMimeType(mimeType string) bool {
	return strings.HasSuffix(strings.ToLower(mimeType), "/rtx")
}

// RtcpFeedback provides information on a RTCP feedback message of a codec.
type RtcpFeedback struct {
	// Type is RTCP feedback type, e.g. "nack" or "transport-cc".
	Type string `json:"type"`

	// Parameter is RTCP feedback parameter, e.g. "pli".
	Parameter string `json:"parameter,omitempty"`
}

// RtpEncodingParameters provides information relating to an encoding, which
// represents a media RTP stream and its associated RTX stream (if any).
type RtpEncodingParameters struct {
	Ssrc uint32 `json:"ssrc,omitempty"`

	// Rid is the RID RTP extension value. Must be unique.
	Rid string `json:"rid,omitempty"`

	// CodecPayloadType is the payload type of the codec this encoding
	// affects. If unset the first media codec is chosen.
	CodecPayloadType *uint8 `json:"codecPayloadType,omitempty"`

	Rtx *RtpEncodingRtx `json:"rtx,omitempty"`

	// Dtx indicates whether discontinuous RTP transmission will be used.
	Dtx bool `json:"dtx,omitempty"`

	// ScalabilityMode defines spatial and temporal layers in the RTP stream
	// (e.g. "L1T3").
	ScalabilityMode string `json:"scalabilityMode,omitempty"`

	ScaleResolutionDownBy float64 `json:"scaleResolutionDownBy,omitempty"`
	MaxBitrate            uint32  `json:"maxBitrate,omitempty"`
	MaxFramerate          float64 `json:"maxFramerate,omitempty"`
}

// RtpEncodingRtx represents the associated RTX stream of an encoding.
type RtpEncodingRtx struct {
	Ssrc uint32 `json:"ssrc"`
}

// RtpHeaderExtensionParameters defines a RTP header extension within the RTP
// parameters.
type RtpHeaderExtensionParameters struct {
	Uri string `json:"uri"`

	// Id is the numeric identifier that goes in the RTP packet. Must be
	// unique.
	Id uint8 `json:"id"`

	Encrypt    bool                       `json:"encrypt,omitempty"`
	Parameters RtpCodecSpecificParameters `json:"parameters,omitempty"`
}

// RtcpParameters provides information on RTCP settings within the RTP
// parameters. If no cname is given for a producer, a random one is used in
// the RTCP SDES messages sent to all its consumers.
type RtcpParameters struct {
	Cname string `json:"cname,omitempty"`

	// ReducedSize tells whether reduced size RTCP (RFC 5506) is used. Default
	// true.
	ReducedSize *bool `json:"reducedSize,omitempty"`

	// Mux tells whether RTCP-mux is used. Default true.
	Mux *bool `json:"mux,omitempty"`
}

// RtpCodecSpecificParameters are the codec specific parameters available for
// signaling.
type RtpCodecSpecificParameters struct {
	// packetization-mode, profile-level-id and level-asymmetry-allowed of
	// H264.
	h264.Parameters

	// ProfileId is the profile-id of VP9 and AV1.
	ProfileId string `json:"profile-id,omitempty"`

	// Apt is the associated payload type of a RTX codec.
	Apt uint8 `json:"apt,omitempty"`

	SpropStereo       uint8  `json:"sprop-stereo,omitempty"`
	Useinbandfec      uint8  `json:"useinbandfec,omitempty"`
	Usedtx            uint8  `json:"usedtx,omitempty"`
	Maxplaybackrate   uint32 `json:"maxplaybackrate,omitempty"`
	Maxaveragebitrate uint32 `json:"maxaveragebitrate,omitempty"`
	Ptime             uint32 `json:"ptime,omitempty"`

	// ChannelMapping, NumStreams and CoupledStreams describe multiopus.
	ChannelMapping string `json:"channel_mapping,omitempty"`
	NumStreams     uint8  `json:"num_streams,omitempty"`
	CoupledStreams uint8  `json:"coupled_streams,omitempty"`

	// x-google-* parameters only understood by libwebrtc based endpoints.
	XGoogleStartBitrate uint32 `json:"x-google-start-bitrate,omitempty"`
	XGoogleMaxBitrate   uint32 `json:"x-google-max-bitrate,omitempty"`
	XGoogleMinBitrate   uint32 `json:"x-google-min-bitrate,omitempty"`
}

// RtpMapping maps the payload types and SSRCs of a producer to the ones the
// router uses.
type RtpMapping struct {
	Codecs    []RtpMappingCodec    `json:"codecs"`
	Encodings []RtpMappingEncoding `json:"encodings"`
}

type RtpMappingCodec struct {
	PayloadType       uint8 `json:"payloadType"`
	MappedPayloadType uint8 `json:"mappedPayloadType"`
}

type RtpMappingEncoding struct {
	Ssrc            uint32 `json:"ssrc,omitempty"`
	Rid             string `json:"rid,omitempty"`
	ScalabilityMode string `json:"scalabilityMode,omitempty"`
	MappedSsrc      uint32 `json:"mappedSsrc"`
}

// ConsumerType is how a consumer forwards the streams of its producer.
type ConsumerType string

const (
	ConsumerSimple    ConsumerType = "simple"
	ConsumerSimulcast ConsumerType = "simulcast"
	ConsumerSvc       ConsumerType = "svc"
	ConsumerPipe      ConsumerType = "pipe"
)

// ConsumerLayers selects the spatial and temporal layer a consumer forwards.
type ConsumerLayers struct {
	SpatialLayer  uint8  `json:"spatialLayer"`
	TemporalLayer *uint8 `json:"temporalLayer,omitempty"`
}
