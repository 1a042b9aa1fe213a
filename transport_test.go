package mediasoup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransport_Dump(t *testing.T) {
	router := newTestRouter(t, nil)
	transport := newTestWebRtcTransport(t, router)
	producer := newTestProducer(t, transport, audioProducerOptions())

	dump, err := transport.Dump()
	require.NoError(t, err)
	assert.Equal(t, transport.Id(), dump.Id)
	assert.False(t, dump.Direct)
	assert.Equal(t, []string{producer.Id()}, dump.ProducerIds)
	assert.Empty(t, dump.ConsumerIds)
}

func TestTransport_GetStats(t *testing.T) {
	transport := newTestWebRtcTransport(t, newTestRouter(t, nil))

	stats, err := transport.GetStats()
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, transport.Id(), stats[0].TransportId)
	assert.EqualValues(t, 100, stats[0].BytesReceived)
}

func TestTransport_SetMaxIncomingBitrate(t *testing.T) {
	transport := newTestWebRtcTransport(t, newTestRouter(t, nil))

	assert.NoError(t, transport.SetMaxIncomingBitrate(100000))

	transport.Close()
	assert.ErrorIs(t, transport.SetMaxIncomingBitrate(100000), ErrTransportClosed)
}

func TestTransport_EnableTraceEvent(t *testing.T) {
	transport := newTestWebRtcTransport(t, newTestRouter(t, nil))

	onTrace := NewMockFunc(t)
	trace := onTrace.Fn()
	transport.OnTrace(func(data TransportTraceEventData) { trace(data.Type) })

	require.NoError(t, transport.EnableTraceEvent(TransportTraceEventBWE))
	onTrace.ExpectCalledWith(TransportTraceEventBWE)
}

func TestTransport_Close(t *testing.T) {
	router := newTestRouter(t, nil)
	sendTransport := newTestWebRtcTransport(t, router)
	recvTransport := newTestWebRtcTransport(t, router)
	producer := newTestProducer(t, sendTransport, audioProducerOptions())
	consumer, err := recvTransport.Consume(&ConsumerOptions{
		ProducerId:      producer.Id(),
		RtpCapabilities: consumerDeviceCapabilities(),
	})
	require.NoError(t, err)

	onProducerClose := NewMockFunc(t).WithTimeout(200 * time.Millisecond)
	onConsumerClose := NewMockFunc(t).WithTimeout(200 * time.Millisecond)
	onConsumerProducerClose := NewMockFunc(t).WithTimeout(200 * time.Millisecond)
	producerClosed, consumerClosed, consumerProducerClosed := onProducerClose.Fn(), onConsumerClose.Fn(), onConsumerProducerClose.Fn()
	producer.OnClose(func() { producerClosed() })
	consumer.OnClose(func() { consumerClosed() })
	consumer.OnProducerClose(func() { consumerProducerClosed() })

	sendTransport.Close()

	assert.True(t, sendTransport.Closed())
	assert.True(t, producer.Closed())
	onProducerClose.ExpectCalledTimes(1)
	assert.Empty(t, sendTransport.Producers())
	assert.Equal(t, []*Transport{recvTransport}, router.Transports())
	assert.False(t, router.CanConsume(producer.Id(), consumerDeviceCapabilities()))

	// the worker tells the consumer its producer is gone
	onConsumerProducerClose.ExpectCalledTimes(1)
	onConsumerClose.ExpectCalledTimes(1)
	assert.True(t, consumer.Closed())
	assert.Empty(t, recvTransport.Consumers())

	_, err = sendTransport.Produce(audioProducerOptions())
	assert.ErrorIs(t, err, ErrTransportClosed)
}

func TestTransport_Produce(t *testing.T) {
	router := newTestRouter(t, nil)
	transport := newTestWebRtcTransport(t, router)

	onNewProducer := NewMockFunc(t)
	newProducer := onNewProducer.Fn()
	transport.OnNewProducer(func(producer *Producer) { newProducer(producer) })

	audio := newTestProducer(t, transport, audioProducerOptions())
	onNewProducer.ExpectCalledWith(audio)
	assert.Equal(t, ProducerSimple, audio.Type())
	assert.Equal(t, MediaKindAudio, audio.Kind())

	video := newTestProducer(t, transport, videoProducerOptions())
	assert.Equal(t, ProducerSimulcast, video.Type())
	assert.ElementsMatch(t, []*Producer{audio, video}, transport.Producers())

	dump, err := router.Dump()
	require.NoError(t, err)
	assert.Equal(t, []string{transport.Id()}, dump.TransportIds)
}

func TestTransport_ProduceValidation(t *testing.T) {
	router := newTestRouter(t, nil)
	transport := newTestWebRtcTransport(t, router)
	var typeError *TypeError

	_, err := transport.Produce(nil)
	assert.ErrorAs(t, err, &typeError)

	options := audioProducerOptions()
	options.Kind = "chicken"
	_, err = transport.Produce(options)
	assert.ErrorAs(t, err, &typeError)

	options = audioProducerOptions()
	options.RtpParameters.Codecs[0].MimeType = "audio/chicken"
	_, err = transport.Produce(options)
	assert.Error(t, err)

	options = audioProducerOptions()
	options.RtpParameters.Codecs[0].MimeType = "audio/ISAC"
	options.RtpParameters.Codecs[0].ClockRate = 32000
	options.RtpParameters.Codecs[0].Channels = 0
	_, err = transport.Produce(options)
	assert.Error(t, err, "codec not supported by the router")

	producer := newTestProducer(t, transport, audioProducerOptions())
	options = audioProducerOptions()
	options.Id = producer.Id()
	_, err = transport.Produce(options)
	assert.ErrorIs(t, err, ErrDuplicatedId)
}

func TestTransport_ConsumeAssignsSequentialMids(t *testing.T) {
	router := newTestRouter(t, nil)
	sendTransport := newTestWebRtcTransport(t, router)
	recvTransport := newTestWebRtcTransport(t, router)
	audio := newTestProducer(t, sendTransport, audioProducerOptions())
	video := newTestProducer(t, sendTransport, videoProducerOptions())

	onNewConsumer := NewMockFunc(t)
	newConsumer := onNewConsumer.Fn()
	recvTransport.OnNewConsumer(func(consumer *Consumer) { newConsumer(consumer) })

	audioConsumer, err := recvTransport.Consume(&ConsumerOptions{
		ProducerId:      audio.Id(),
		RtpCapabilities: consumerDeviceCapabilities(),
	})
	require.NoError(t, err)
	onNewConsumer.ExpectCalledWith(audioConsumer)

	videoConsumer, err := recvTransport.Consume(&ConsumerOptions{
		ProducerId:      video.Id(),
		RtpCapabilities: consumerDeviceCapabilities(),
	})
	require.NoError(t, err)

	assert.Equal(t, "0", audioConsumer.RtpParameters().Mid)
	assert.Equal(t, "1", videoConsumer.RtpParameters().Mid)

	custom, err := recvTransport.Consume(&ConsumerOptions{
		ProducerId:      audio.Id(),
		RtpCapabilities: consumerDeviceCapabilities(),
		Mid:             "custom",
	})
	require.NoError(t, err)
	assert.Equal(t, "custom", custom.RtpParameters().Mid)
}

func TestTransport_ConsumeErrors(t *testing.T) {
	router := newTestRouter(t, nil)
	sendTransport := newTestWebRtcTransport(t, router)
	recvTransport := newTestWebRtcTransport(t, router)
	producer := newTestProducer(t, sendTransport, audioProducerOptions())
	var typeError *TypeError

	_, err := recvTransport.Consume(&ConsumerOptions{RtpCapabilities: consumerDeviceCapabilities()})
	assert.ErrorAs(t, err, &typeError)

	_, err = recvTransport.Consume(&ConsumerOptions{
		ProducerId:      "chicken",
		RtpCapabilities: consumerDeviceCapabilities(),
	})
	assert.ErrorIs(t, err, ErrProducerNotFound)

	_, err = recvTransport.Consume(&ConsumerOptions{
		ProducerId:      producer.Id(),
		RtpCapabilities: &RtpCapabilities{},
	})
	assert.ErrorIs(t, err, ErrBadConsumerRtpParameters)

	_, err = recvTransport.Consume(&ConsumerOptions{
		ProducerId: producer.Id(),
		RtpCapabilities: &RtpCapabilities{
			Codecs: []*RtpCodecCapability{
				{Kind: "audio", MimeType: "audio/ISAC", ClockRate: 16000, PreferredPayloadType: 100},
			},
		},
	})
	assert.ErrorIs(t, err, ErrBadConsumerRtpParameters)
}

func TestTransport_ProduceDataAndConsumeData(t *testing.T) {
	router := newTestRouter(t, nil)
	sendTransport := newTestWebRtcTransport(t, router)
	recvTransport := newTestWebRtcTransport(t, router)
	var typeError *TypeError

	_, err := sendTransport.ProduceData(&DataProducerOptions{})
	assert.ErrorIs(t, err, ErrMissSctpStreamParameters)

	_, err = sendTransport.ProduceData(&DataProducerOptions{
		SctpStreamParameters: &SctpStreamParameters{StreamId: 1, MaxPacketLifeTime: 10, MaxRetransmits: 2},
	})
	assert.ErrorAs(t, err, &typeError)

	dataProducer, err := sendTransport.ProduceData(&DataProducerOptions{
		SctpStreamParameters: &SctpStreamParameters{StreamId: 12345, MaxRetransmits: 3},
		Label:                "foo",
		Protocol:             "bar",
	})
	require.NoError(t, err)
	assert.Equal(t, []*DataProducer{dataProducer}, sendTransport.DataProducers())

	first, err := recvTransport.ConsumeData(&DataConsumerOptions{DataProducerId: dataProducer.Id()})
	require.NoError(t, err)
	second, err := recvTransport.ConsumeData(&DataConsumerOptions{DataProducerId: dataProducer.Id()})
	require.NoError(t, err)

	assert.EqualValues(t, 0, first.SctpStreamParameters().StreamId)
	assert.EqualValues(t, 1, second.SctpStreamParameters().StreamId)
	assert.EqualValues(t, 3, first.SctpStreamParameters().MaxRetransmits)

	// a closed data consumer frees its stream
	first.Close()
	third, err := recvTransport.ConsumeData(&DataConsumerOptions{DataProducerId: dataProducer.Id()})
	require.NoError(t, err)
	assert.EqualValues(t, 2, third.SctpStreamParameters().StreamId)
	fourth, err := recvTransport.ConsumeData(&DataConsumerOptions{DataProducerId: dataProducer.Id()})
	require.NoError(t, err)
	assert.EqualValues(t, 3, fourth.SctpStreamParameters().StreamId)

	_, err = recvTransport.ConsumeData(&DataConsumerOptions{DataProducerId: "chicken"})
	assert.ErrorIs(t, err, ErrDataProducerNotFound)
}

func TestTransport_SctpStateChange(t *testing.T) {
	worker := newTestWorker(t)
	transport := newTestWebRtcTransport(t, newTestRouter(t, worker))
	assert.Equal(t, SctpStateNew, transport.SctpState())
	assert.EqualValues(t, 1024, transport.SctpParameters().MIS)

	onState := NewMockFunc(t)
	state := onState.Fn()
	transport.OnSctpStateChange(func(s SctpState) { state(s) })

	emit(t, worker, transport.Id(), "sctpstatechange", H{"sctpState": "connected"})

	onState.ExpectCalledWith(SctpStateConnected)
	assert.Equal(t, SctpStateConnected, transport.SctpState())
}
