package mediasoup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaplane/mediasoup-go/internal/h264"
)

type consumerFixture struct {
	worker        *Worker
	router        *Router
	sendTransport *Transport
	recvTransport *Transport
	audio         *Producer
	video         *Producer
}

func newConsumerFixture(t *testing.T) *consumerFixture {
	worker := newTestWorker(t)
	router := newTestRouter(t, worker)
	sendTransport := newTestWebRtcTransport(t, router)

	return &consumerFixture{
		worker:        worker,
		router:        router,
		sendTransport: sendTransport,
		recvTransport: newTestWebRtcTransport(t, router),
		audio:         newTestProducer(t, sendTransport, audioProducerOptions()),
		video:         newTestProducer(t, sendTransport, videoProducerOptions()),
	}
}

func (f *consumerFixture) consume(t *testing.T, producer *Producer, options ...func(*ConsumerOptions)) *Consumer {
	o := &ConsumerOptions{
		ProducerId:      producer.Id(),
		RtpCapabilities: consumerDeviceCapabilities(),
		AppData:         H{"baz": "LOL"},
	}
	for _, option := range options {
		option(o)
	}
	consumer, err := f.recvTransport.Consume(o)
	require.NoError(t, err)

	return consumer
}

func TestConsumer_Audio(t *testing.T) {
	f := newConsumerFixture(t)
	consumer := f.consume(t, f.audio)

	assert.Equal(t, f.audio.Id(), consumer.ProducerId())
	assert.Equal(t, MediaKindAudio, consumer.Kind())
	assert.Equal(t, ConsumerSimple, consumer.Type())
	assert.False(t, consumer.Paused())
	assert.False(t, consumer.ProducerPaused())
	assert.EqualValues(t, 1, consumer.Priority())
	assert.Equal(t, ConsumerScore{Score: 10, ProducerScore: 0, ProducerScores: []uint8{0}}, consumer.Score())
	assert.Nil(t, consumer.PreferredLayers())
	assert.Nil(t, consumer.CurrentLayers())
	assert.Equal(t, H{"baz": "LOL"}, consumer.AppData())

	rtpParameters := consumer.RtpParameters()
	require.Len(t, rtpParameters.Codecs, 1)
	assert.Equal(t, "audio/opus", rtpParameters.Codecs[0].MimeType)
	assert.EqualValues(t, 100, rtpParameters.Codecs[0].PayloadType)
	require.Len(t, rtpParameters.Encodings, 1)
	assert.NotZero(t, rtpParameters.Encodings[0].Ssrc)
	assert.Nil(t, rtpParameters.Encodings[0].Rtx)
	assert.Equal(t, "audio-1", rtpParameters.Rtcp.Cname)
	require.Len(t, rtpParameters.HeaderExtensions, 1)
	assert.Equal(t, "urn:ietf:params:rtp-hdrext:sdes:mid", rtpParameters.HeaderExtensions[0].Uri)
	assert.EqualValues(t, 1, rtpParameters.HeaderExtensions[0].Id)
}

func TestConsumer_MidAssignedPerTransportAfterNegotiation(t *testing.T) {
	f := newConsumerFixture(t)

	_, err := f.recvTransport.Consume(&ConsumerOptions{
		ProducerId:      f.audio.Id(),
		RtpCapabilities: &RtpCapabilities{},
	})
	require.ErrorIs(t, err, ErrBadConsumerRtpParameters)

	audioConsumer := f.consume(t, f.audio)
	assert.Equal(t, "0", audioConsumer.RtpParameters().Mid)
	videoConsumer := f.consume(t, f.video)
	assert.Equal(t, "1", videoConsumer.RtpParameters().Mid)

	// every transport counts on its own
	otherTransport := newTestWebRtcTransport(t, f.router)
	consumer, err := otherTransport.Consume(&ConsumerOptions{
		ProducerId:      f.audio.Id(),
		RtpCapabilities: consumerDeviceCapabilities(),
	})
	require.NoError(t, err)
	assert.Equal(t, "0", consumer.RtpParameters().Mid)
}

func TestConsumer_SimulcastLayers(t *testing.T) {
	router := newTestRouter(t, nil)
	sendTransport := newTestWebRtcTransport(t, router)
	recvTransport := newTestWebRtcTransport(t, router)
	producer := newTestProducer(t, sendTransport, videoProducerOptions(1001, 1002, 1003, 1004))

	consumer, err := recvTransport.Consume(&ConsumerOptions{
		ProducerId:      producer.Id(),
		RtpCapabilities: consumerDeviceCapabilities(),
		PreferredLayers: &ConsumerLayers{SpatialLayer: 12},
	})
	require.NoError(t, err)

	assert.Equal(t, ConsumerSimulcast, consumer.Type())
	assert.Equal(t, &ConsumerLayers{SpatialLayer: 3, TemporalLayer: ref[uint8](0)}, consumer.PreferredLayers())
	assert.Len(t, consumer.Score().ProducerScores, 4)

	rtpParameters := consumer.RtpParameters()
	require.Len(t, rtpParameters.Encodings, 1)
	assert.Equal(t, "S4T1", rtpParameters.Encodings[0].ScalabilityMode)
	assert.NotNil(t, rtpParameters.Encodings[0].Rtx)
	require.Len(t, rtpParameters.Codecs, 2)
	assert.EqualValues(t, 101, rtpParameters.Codecs[0].PayloadType)
	assert.EqualValues(t, 102, rtpParameters.Codecs[1].PayloadType)
	assert.EqualValues(t, 101, rtpParameters.Codecs[1].Parameters.Apt)
}

func TestConsumer_SetPreferredLayers(t *testing.T) {
	f := newConsumerFixture(t)
	audioConsumer := f.consume(t, f.audio)
	videoConsumer := f.consume(t, f.video)

	var unsupportedError *UnsupportedError
	assert.ErrorAs(t, audioConsumer.SetPreferredLayers(ConsumerLayers{SpatialLayer: 1}), &unsupportedError)

	require.NoError(t, videoConsumer.SetPreferredLayers(ConsumerLayers{SpatialLayer: 1, TemporalLayer: ref[uint8](5)}))
	assert.Equal(t, &ConsumerLayers{SpatialLayer: 1, TemporalLayer: ref[uint8](0)}, videoConsumer.PreferredLayers())

	require.NoError(t, videoConsumer.SetPreferredLayers(ConsumerLayers{SpatialLayer: 7}))
	assert.Equal(t, &ConsumerLayers{SpatialLayer: 2, TemporalLayer: ref[uint8](0)}, videoConsumer.PreferredLayers())
}

func TestConsumer_SetPriority(t *testing.T) {
	f := newConsumerFixture(t)
	consumer := f.consume(t, f.video)

	require.NoError(t, consumer.SetPriority(2))
	assert.EqualValues(t, 2, consumer.Priority())

	var typeError *TypeError
	assert.ErrorAs(t, consumer.SetPriority(0), &typeError)
	assert.EqualValues(t, 2, consumer.Priority())

	require.NoError(t, consumer.UnsetPriority())
	assert.EqualValues(t, 1, consumer.Priority())
}

func TestConsumer_PauseAndResume(t *testing.T) {
	f := newConsumerFixture(t)
	consumer := f.consume(t, f.audio, func(o *ConsumerOptions) { o.Paused = true })
	assert.True(t, consumer.Paused())

	onPause := NewMockFunc(t)
	onResume := NewMockFunc(t)
	paused, resumed := onPause.Fn(), onResume.Fn()
	consumer.OnPause(func() { paused() })
	consumer.OnResume(func() { resumed() })

	require.NoError(t, consumer.Resume())
	assert.False(t, consumer.Paused())
	onResume.ExpectCalledTimes(1)

	require.NoError(t, consumer.Pause())
	require.NoError(t, consumer.Pause())
	assert.True(t, consumer.Paused())
	onPause.ExpectCalledTimes(1)
}

func TestConsumer_ProducerPausedOnCreation(t *testing.T) {
	f := newConsumerFixture(t)
	require.NoError(t, f.audio.Pause())

	consumer := f.consume(t, f.audio)
	assert.False(t, consumer.Paused())
	assert.True(t, consumer.ProducerPaused())
}

func TestConsumer_DumpAndStats(t *testing.T) {
	f := newConsumerFixture(t)
	consumer := f.consume(t, f.audio)

	dump, err := consumer.Dump()
	require.NoError(t, err)
	assert.Equal(t, consumer.Id(), dump.Id)
	assert.Equal(t, f.audio.Id(), dump.ProducerId)

	stats, err := consumer.GetStats()
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, RtpStreamOutbound, stats[0].Type)
	assert.False(t, stats[0].Inbound())

	assert.NoError(t, consumer.RequestKeyFrame())
}

func TestConsumer_Events(t *testing.T) {
	f := newConsumerFixture(t)
	consumer := f.consume(t, f.video)

	onScore := NewMockFunc(t)
	onLayersChange := NewMockFunc(t)
	onTrace := NewMockFunc(t)
	score, layersChange, trace := onScore.Fn(), onLayersChange.Fn(), onTrace.Fn()
	consumer.OnScore(func(s ConsumerScore) { score(s) })
	consumer.OnLayersChange(func(layers *ConsumerLayers) { layersChange(layers) })
	consumer.OnTrace(func(data ConsumerTraceEventData) { trace(data.Type) })

	newScore := ConsumerScore{Score: 9, ProducerScore: 8, ProducerScores: []uint8{8, 7, 6}}
	emit(t, f.worker, consumer.Id(), "score", newScore)
	onScore.ExpectCalledWith(newScore)
	assert.Equal(t, newScore, consumer.Score())

	emit(t, f.worker, consumer.Id(), "layerschange", H{"spatialLayer": 2, "temporalLayer": 0})
	onLayersChange.ExpectCalledWith(&ConsumerLayers{SpatialLayer: 2, TemporalLayer: ref[uint8](0)})
	assert.Equal(t, &ConsumerLayers{SpatialLayer: 2, TemporalLayer: ref[uint8](0)}, consumer.CurrentLayers())

	onLayersChange = NewMockFunc(t)
	noLayers := onLayersChange.Fn()
	consumer.OnLayersChange(func(layers *ConsumerLayers) { noLayers(layers) })
	emit(t, f.worker, consumer.Id(), "layerschange", nil)
	onLayersChange.ExpectCalledWith((*ConsumerLayers)(nil))
	assert.Nil(t, consumer.CurrentLayers())

	require.NoError(t, consumer.EnableTraceEvent(ConsumerTraceEventNack))
	onTrace.ExpectCalledWith(ConsumerTraceEventNack)
}

func TestConsumer_Close(t *testing.T) {
	f := newConsumerFixture(t)
	consumer := f.consume(t, f.audio)

	onClose := NewMockFunc(t)
	closed := onClose.Fn()
	consumer.OnClose(func() { closed() })

	consumer.Close()
	consumer.Close()

	onClose.ExpectCalledTimes(1)
	assert.Empty(t, f.recvTransport.Consumers())
	assert.False(t, f.audio.Closed())

	_, err := consumer.Dump()
	assert.ErrorIs(t, err, ErrConsumerClosed)
	assert.ErrorIs(t, consumer.Resume(), ErrConsumerClosed)
}

func TestConsumer_TransportClosed(t *testing.T) {
	f := newConsumerFixture(t)
	consumer := f.consume(t, f.audio)

	onClose := NewMockFunc(t).WithTimeout(100 * time.Millisecond)
	closed := onClose.Fn()
	consumer.OnClose(func() { closed() })

	f.recvTransport.Close()

	onClose.ExpectCalledTimes(1)
	assert.True(t, consumer.Closed())
	assert.False(t, f.audio.Closed())
}

func TestConsumer_DeviceWithoutVideoCodec(t *testing.T) {
	h264Parameters := RtpCodecSpecificParameters{
		Parameters: h264.Parameters{
			LevelAsymmetryAllowed: 1,
			PacketizationMode:     1,
			ProfileLevelId:        "42e01f",
		},
	}
	router, err := newTestWorker(t).CreateRouter(&RouterOptions{
		MediaCodecs: []*RtpCodecCapability{
			{Kind: "audio", MimeType: "audio/opus", ClockRate: 48000, Channels: 2},
			{Kind: "video", MimeType: "video/H264", ClockRate: 90000, Parameters: h264Parameters},
		},
	})
	require.NoError(t, err)

	// the router added rtx for H264
	var mimeTypes []string
	for _, codec := range router.RtpCapabilities().Codecs {
		mimeTypes = append(mimeTypes, codec.MimeType)
	}
	assert.Equal(t, []string{"audio/opus", "video/H264", "video/rtx"}, mimeTypes)

	sendTransport := newTestWebRtcTransport(t, router)
	recvTransport := newTestWebRtcTransport(t, router)
	audio := newTestProducer(t, sendTransport, audioProducerOptions())
	video := newTestProducer(t, sendTransport, &ProducerOptions{
		Kind: MediaKindVideo,
		RtpParameters: &RtpParameters{
			Mid: "VIDEO",
			Codecs: []*RtpCodecParameters{
				{
					MimeType:     "video/H264",
					PayloadType:  125,
					ClockRate:    90000,
					Parameters:   h264Parameters,
					RtcpFeedback: []*RtcpFeedback{{Type: "nack"}, {Type: "nack", Parameter: "pli"}},
				},
				{
					MimeType:    "video/rtx",
					PayloadType: 126,
					ClockRate:   90000,
					Parameters:  RtpCodecSpecificParameters{Apt: 125},
				},
			},
			Encodings: []*RtpEncodingParameters{
				{Ssrc: 33333333, Rtx: &RtpEncodingRtx{Ssrc: 33333334}},
			},
			Rtcp: &RtcpParameters{Cname: "video-h264"},
		},
	})

	deviceCapabilities := &RtpCapabilities{
		Codecs: []*RtpCodecCapability{
			{
				MimeType:             "audio/opus",
				Kind:                 "audio",
				PreferredPayloadType: 100,
				ClockRate:            48000,
				Channels:             2,
			},
		},
	}
	assert.True(t, router.CanConsume(audio.Id(), deviceCapabilities))
	assert.False(t, router.CanConsume(video.Id(), deviceCapabilities))

	_, err = recvTransport.Consume(&ConsumerOptions{
		ProducerId:      video.Id(),
		RtpCapabilities: deviceCapabilities,
	})
	assert.ErrorIs(t, err, ErrBadConsumerRtpParameters)
	assert.Empty(t, recvTransport.Consumers())

	consumer, err := recvTransport.Consume(&ConsumerOptions{
		ProducerId:      audio.Id(),
		RtpCapabilities: deviceCapabilities,
	})
	require.NoError(t, err)
	require.Len(t, consumer.RtpParameters().Codecs, 1)
	assert.Equal(t, "audio/opus", consumer.RtpParameters().Codecs[0].MimeType)
	assert.EqualValues(t, 100, consumer.RtpParameters().Codecs[0].PayloadType)
	// the failed consume did not take a mid
	assert.Equal(t, "0", consumer.RtpParameters().Mid)
}
