package mediasoup

import (
	"context"
	"os"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/mediaplane/mediasoup-go/internal/h264"
)

func init() {
	os.Setenv("DEBUG_COLORS", "false")
}

// fakeWorkerOptions spawn the test binary itself as the worker.
func fakeWorkerOptions(mode string) []Option {
	return []Option{
		WithWorkerBin(os.Args[0]),
		WithEnv(fakeWorkerEnv + "=" + mode),
		WithLogger(logr.Discard()),
	}
}

func newTestWorker(t *testing.T, options ...Option) *Worker {
	worker, err := NewWorker(append(fakeWorkerOptions("1"), options...)...)
	require.NoError(t, err)
	t.Cleanup(worker.Close)

	return worker
}

func testMediaCodecs() []*RtpCodecCapability {
	return []*RtpCodecCapability{
		{
			Kind:      "audio",
			MimeType:  "audio/opus",
			ClockRate: 48000,
			Channels:  2,
			Parameters: RtpCodecSpecificParameters{
				Useinbandfec: 1,
			},
		},
		{
			Kind:      "video",
			MimeType:  "video/VP8",
			ClockRate: 90000,
		},
		{
			Kind:      "video",
			MimeType:  "video/H264",
			ClockRate: 90000,
			Parameters: RtpCodecSpecificParameters{
				Parameters: h264.Parameters{
					LevelAsymmetryAllowed: 1,
					PacketizationMode:     1,
					ProfileLevelId:        "4d0032",
				},
			},
		},
	}
}

func newTestRouter(t *testing.T, worker *Worker) *Router {
	if worker == nil {
		worker = newTestWorker(t)
	}
	router, err := worker.CreateRouter(&RouterOptions{
		MediaCodecs: testMediaCodecs(),
		AppData:     H{"room": "test"},
	})
	require.NoError(t, err)

	return router
}

func newTestWebRtcTransport(t *testing.T, router *Router) *Transport {
	transport, err := router.CreateWebRtcTransport(&WebRtcTransportOptions{
		ListenInfos: []TransportListenInfo{
			{Ip: "127.0.0.1", AnnouncedAddress: "9.9.9.1"},
		},
		EnableSctp: true,
		AppData:    H{"foo": "bar"},
	})
	require.NoError(t, err)

	return transport
}

func newTestDirectTransport(t *testing.T, router *Router) *Transport {
	transport, err := router.CreateDirectTransport(nil)
	require.NoError(t, err)

	return transport
}

func audioProducerOptions() *ProducerOptions {
	return &ProducerOptions{
		Kind: MediaKindAudio,
		RtpParameters: &RtpParameters{
			Mid: "AUDIO",
			Codecs: []*RtpCodecParameters{
				{
					MimeType:    "audio/opus",
					PayloadType: 111,
					ClockRate:   48000,
					Channels:    2,
					Parameters: RtpCodecSpecificParameters{
						Useinbandfec: 1,
						Usedtx:       1,
					},
				},
			},
			HeaderExtensions: []*RtpHeaderExtensionParameters{
				{Uri: "urn:ietf:params:rtp-hdrext:sdes:mid", Id: 10},
				{Uri: "urn:ietf:params:rtp-hdrext:ssrc-audio-level", Id: 12},
			},
			Encodings: []*RtpEncodingParameters{{Ssrc: 11111111, Dtx: true}},
			Rtcp:      &RtcpParameters{Cname: "audio-1"},
		},
		AppData: H{"foo": 1, "bar": "2"},
	}
}

// videoProducerOptions returns a VP8 simulcast producer with one encoding
// per ssrc.
func videoProducerOptions(ssrcs ...uint32) *ProducerOptions {
	if len(ssrcs) == 0 {
		ssrcs = []uint32{22222222, 22222223, 22222224}
	}
	encodings := make([]*RtpEncodingParameters, len(ssrcs))
	for i, ssrc := range ssrcs {
		encodings[i] = &RtpEncodingParameters{
			Ssrc: ssrc,
			Rtx:  &RtpEncodingRtx{Ssrc: ssrc + 100},
		}
	}
	return &ProducerOptions{
		Kind: MediaKindVideo,
		RtpParameters: &RtpParameters{
			Mid: "VIDEO",
			Codecs: []*RtpCodecParameters{
				{
					MimeType:    "video/VP8",
					PayloadType: 112,
					ClockRate:   90000,
					RtcpFeedback: []*RtcpFeedback{
						{Type: "nack"},
						{Type: "nack", Parameter: "pli"},
						{Type: "goog-remb"},
					},
				},
				{
					MimeType:    "video/rtx",
					PayloadType: 113,
					ClockRate:   90000,
					Parameters:  RtpCodecSpecificParameters{Apt: 112},
				},
			},
			HeaderExtensions: []*RtpHeaderExtensionParameters{
				{Uri: "urn:ietf:params:rtp-hdrext:sdes:mid", Id: 10},
				{Uri: "urn:3gpp:video-orientation", Id: 13},
			},
			Encodings: encodings,
			Rtcp:      &RtcpParameters{Cname: "video-1"},
		},
		AppData: H{"foo": 1, "bar": "2"},
	}
}

// consumerDeviceCapabilities are the capabilities of a typical browser.
func consumerDeviceCapabilities() *RtpCapabilities {
	return &RtpCapabilities{
		Codecs: []*RtpCodecCapability{
			{
				MimeType:             "audio/opus",
				Kind:                 "audio",
				PreferredPayloadType: 100,
				ClockRate:            48000,
				Channels:             2,
			},
			{
				MimeType:             "video/VP8",
				Kind:                 "video",
				PreferredPayloadType: 101,
				ClockRate:            90000,
				RtcpFeedback: []*RtcpFeedback{
					{Type: "nack"},
					{Type: "ccm", Parameter: "fir"},
					{Type: "transport-cc"},
				},
			},
			{
				MimeType:             "video/rtx",
				Kind:                 "video",
				PreferredPayloadType: 102,
				ClockRate:            90000,
				Parameters:           RtpCodecSpecificParameters{Apt: 101},
			},
		},
		HeaderExtensions: []*RtpHeaderExtension{
			{
				Kind:        "audio",
				Uri:         "urn:ietf:params:rtp-hdrext:sdes:mid",
				PreferredId: 1,
			},
			{
				Kind:        "video",
				Uri:         "urn:ietf:params:rtp-hdrext:sdes:mid",
				PreferredId: 1,
			},
			{
				Kind:        "video",
				Uri:         "http://www.ietf.org/id/draft-holmer-rmcat-transport-wide-cc-extensions-01",
				PreferredId: 5,
			},
		},
	}
}

func newTestProducer(t *testing.T, transport *Transport, options *ProducerOptions) *Producer {
	producer, err := transport.Produce(options)
	require.NoError(t, err)

	return producer
}

// emit makes the fake worker send a notification.
func emit(t *testing.T, worker *Worker, targetId, event string, data any) {
	_, err := worker.channel.Request(context.Background(), "fake.emit", "", H{
		"target": targetId,
		"event":  event,
		"body":   data,
	})
	require.NoError(t, err)
}
