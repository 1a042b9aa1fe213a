package mediasoup

import "github.com/mediaplane/mediasoup-go/internal/h264"

func audioCodec(mimeType string, clockRate uint32, pt uint8) *RtpCodecCapability {
	return &RtpCodecCapability{
		Kind:                 MediaKindAudio,
		MimeType:             mimeType,
		PreferredPayloadType: pt,
		ClockRate:            clockRate,
		RtcpFeedback:         []*RtcpFeedback{{Type: "transport-cc"}},
	}
}

func opusCodec(mimeType string, channels uint8) *RtpCodecCapability {
	return &RtpCodecCapability{
		Kind:         MediaKindAudio,
		MimeType:     mimeType,
		ClockRate:    48000,
		Channels:     channels,
		RtcpFeedback: []*RtcpFeedback{{Type: "nack"}, {Type: "transport-cc"}},
	}
}

func videoCodec(mimeType string, params RtpCodecSpecificParameters) *RtpCodecCapability {
	return &RtpCodecCapability{
		Kind:       MediaKindVideo,
		MimeType:   mimeType,
		ClockRate:  90000,
		Parameters: params,
		RtcpFeedback: []*RtcpFeedback{
			{Type: "nack"},
			{Type: "nack", Parameter: "pli"},
			{Type: "ccm", Parameter: "fir"},
			{Type: "goog-remb"},
			{Type: "transport-cc"},
		},
	}
}

func headerExtension(kind MediaKind, uri string, id uint8, direction MediaDirection) *RtpHeaderExtension {
	return &RtpHeaderExtension{Kind: kind, Uri: uri, PreferredId: id, Direction: direction}
}

func withParameters(codec *RtpCodecCapability, params RtpCodecSpecificParameters) *RtpCodecCapability {
	codec.Parameters = params
	return codec
}

func withoutFeedback(codec *RtpCodecCapability) *RtpCodecCapability {
	codec.RtcpFeedback = nil
	return codec
}

const (
	rtpExtMid              = "urn:ietf:params:rtp-hdrext:sdes:mid"
	rtpExtRid              = "urn:ietf:params:rtp-hdrext:sdes:rtp-stream-id"
	rtpExtRepairedRid      = "urn:ietf:params:rtp-hdrext:sdes:repaired-rtp-stream-id"
	rtpExtAbsSendTime      = "http://www.webrtc.org/experiments/rtp-hdrext/abs-send-time"
	rtpExtTransportWideCc  = "http://www.ietf.org/id/draft-holmer-rmcat-transport-wide-cc-extensions-01"
	rtpExtAudioLevel       = "urn:ietf:params:rtp-hdrext:ssrc-audio-level"
	rtpExtVideoOrientation = "urn:3gpp:video-orientation"
	rtpExtToffset          = "urn:ietf:params:rtp-hdrext:toffset"
	rtpExtAbsCaptureTime   = "http://www.webrtc.org/experiments/rtp-hdrext/abs-capture-time"
)

var supportedRtpCapabilities = RtpCapabilities{
	Codecs: []*RtpCodecCapability{
		opusCodec("audio/opus", 2),
		withParameters(opusCodec("audio/multiopus", 4), RtpCodecSpecificParameters{
			ChannelMapping: "0,1,2,3", NumStreams: 2, CoupledStreams: 2,
		}),
		withParameters(opusCodec("audio/multiopus", 6), RtpCodecSpecificParameters{
			ChannelMapping: "0,4,1,2,3,5", NumStreams: 4, CoupledStreams: 2,
		}),
		withParameters(opusCodec("audio/multiopus", 8), RtpCodecSpecificParameters{
			ChannelMapping: "0,6,1,2,3,4,5,7", NumStreams: 5, CoupledStreams: 3,
		}),
		audioCodec("audio/PCMU", 8000, 0),
		audioCodec("audio/PCMA", 8000, 8),
		audioCodec("audio/ISAC", 32000, 0),
		audioCodec("audio/ISAC", 16000, 0),
		audioCodec("audio/G722", 8000, 9),
		audioCodec("audio/iLBC", 8000, 0),
		audioCodec("audio/SILK", 24000, 0),
		audioCodec("audio/SILK", 16000, 0),
		audioCodec("audio/SILK", 12000, 0),
		audioCodec("audio/SILK", 8000, 0),
		withoutFeedback(audioCodec("audio/CN", 32000, 13)),
		withoutFeedback(audioCodec("audio/CN", 16000, 13)),
		withoutFeedback(audioCodec("audio/CN", 8000, 13)),
		withoutFeedback(audioCodec("audio/telephone-event", 48000, 0)),
		withoutFeedback(audioCodec("audio/telephone-event", 32000, 0)),
		withoutFeedback(audioCodec("audio/telephone-event", 16000, 0)),
		withoutFeedback(audioCodec("audio/telephone-event", 8000, 0)),
		videoCodec("video/VP8", RtpCodecSpecificParameters{}),
		videoCodec("video/VP9", RtpCodecSpecificParameters{}),
		videoCodec("video/H264", RtpCodecSpecificParameters{
			Parameters: h264.Parameters{PacketizationMode: 1, LevelAsymmetryAllowed: 1},
		}),
		videoCodec("video/H264", RtpCodecSpecificParameters{
			Parameters: h264.Parameters{PacketizationMode: 0, LevelAsymmetryAllowed: 1},
		}),
		videoCodec("video/H265", RtpCodecSpecificParameters{}),
		videoCodec("video/AV1", RtpCodecSpecificParameters{}),
	},
	HeaderExtensions: []*RtpHeaderExtension{
		headerExtension(MediaKindAudio, rtpExtMid, 1, MediaDirectionSendrecv),
		headerExtension(MediaKindVideo, rtpExtMid, 1, MediaDirectionSendrecv),
		headerExtension(MediaKindVideo, rtpExtRid, 2, MediaDirectionRecvonly),
		headerExtension(MediaKindVideo, rtpExtRepairedRid, 3, MediaDirectionRecvonly),
		headerExtension(MediaKindAudio, rtpExtAbsSendTime, 4, MediaDirectionSendrecv),
		headerExtension(MediaKindVideo, rtpExtAbsSendTime, 4, MediaDirectionSendrecv),
		// transport-cc is only received for audio.
		headerExtension(MediaKindAudio, rtpExtTransportWideCc, 5, MediaDirectionRecvonly),
		headerExtension(MediaKindVideo, rtpExtTransportWideCc, 5, MediaDirectionSendrecv),
		headerExtension(MediaKindAudio, rtpExtAudioLevel, 10, MediaDirectionSendrecv),
		headerExtension(MediaKindVideo, rtpExtVideoOrientation, 11, MediaDirectionSendrecv),
		headerExtension(MediaKindVideo, rtpExtToffset, 12, MediaDirectionSendrecv),
		headerExtension(MediaKindAudio, rtpExtAbsCaptureTime, 13, MediaDirectionSendrecv),
		headerExtension(MediaKindVideo, rtpExtAbsCaptureTime, 13, MediaDirectionSendrecv),
	},
}

func init() {
	if err := validateRtpCapabilities(&supportedRtpCapabilities); err != nil {
		panic(err)
	}
}

// GetSupportedRtpCapabilities returns a copy of the RTP capabilities
// supported by the worker.
func GetSupportedRtpCapabilities() RtpCapabilities {
	return clone(supportedRtpCapabilities)
}
