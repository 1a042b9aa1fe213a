package mediasoup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRtpObserver_Create(t *testing.T) {
	router := newTestRouter(t, nil)

	onNewRtpObserver := NewMockFunc(t)
	newRtpObserver := onNewRtpObserver.Fn()
	router.OnNewRtpObserver(func(o *RtpObserver) { newRtpObserver(o) })

	observer, err := router.CreateActiveSpeakerObserver(&ActiveSpeakerObserverOptions{AppData: H{"foo": "bar"}})
	require.NoError(t, err)
	onNewRtpObserver.ExpectCalledWith(observer)

	assert.Equal(t, RtpObserverActiveSpeaker, observer.Type())
	assert.Equal(t, H{"foo": "bar"}, observer.AppData())
	assert.False(t, observer.Paused())
	assert.Equal(t, []*RtpObserver{observer}, router.RtpObservers())
}

func TestRtpObserver_PauseAndResume(t *testing.T) {
	observer, err := newTestRouter(t, nil).CreateActiveSpeakerObserver(nil)
	require.NoError(t, err)

	onPause := NewMockFunc(t)
	onResume := NewMockFunc(t)
	paused, resumed := onPause.Fn(), onResume.Fn()
	observer.OnPause(func() { paused() })
	observer.OnResume(func() { resumed() })

	require.NoError(t, observer.Pause())
	require.NoError(t, observer.Pause())
	assert.True(t, observer.Paused())
	onPause.ExpectCalledTimes(1)

	require.NoError(t, observer.Resume())
	require.NoError(t, observer.Resume())
	assert.False(t, observer.Paused())
	onResume.ExpectCalledTimes(1)
}

func TestRtpObserver_AddAndRemoveProducer(t *testing.T) {
	router := newTestRouter(t, nil)
	producer := newTestProducer(t, newTestWebRtcTransport(t, router), audioProducerOptions())
	observer, err := router.CreateActiveSpeakerObserver(nil)
	require.NoError(t, err)

	onAddProducer := NewMockFunc(t)
	onRemoveProducer := NewMockFunc(t)
	added, removed := onAddProducer.Fn(), onRemoveProducer.Fn()
	observer.OnAddProducer(func(p *Producer) { added(p) })
	observer.OnRemoveProducer(func(p *Producer) { removed(p) })

	assert.ErrorIs(t, observer.AddProducer("chicken"), ErrProducerNotFound)
	assert.ErrorIs(t, observer.RemoveProducer("chicken"), ErrProducerNotFound)

	require.NoError(t, observer.AddProducer(producer.Id()))
	onAddProducer.ExpectCalledWith(producer)

	require.NoError(t, observer.RemoveProducer(producer.Id()))
	onRemoveProducer.ExpectCalledWith(producer)
}

func TestRtpObserver_Close(t *testing.T) {
	router := newTestRouter(t, nil)
	observer, err := router.CreateAudioLevelObserver(nil)
	require.NoError(t, err)

	onClose := NewMockFunc(t)
	closed := onClose.Fn()
	observer.OnClose(func() { closed() })

	observer.Close()
	observer.Close()

	onClose.ExpectCalledTimes(1)
	assert.True(t, observer.Closed())
	assert.Empty(t, router.RtpObservers())
	assert.ErrorIs(t, observer.Pause(), ErrRtpObserverClosed)
}

func TestRtpObserver_RouterClosed(t *testing.T) {
	router := newTestRouter(t, nil)
	observer, err := router.CreateActiveSpeakerObserver(nil)
	require.NoError(t, err)

	onClose := NewMockFunc(t)
	closed := onClose.Fn()
	observer.OnClose(func() { closed() })

	router.Close()

	onClose.ExpectCalledTimes(1)
	assert.True(t, observer.Closed())

	_, err = router.CreateActiveSpeakerObserver(nil)
	assert.ErrorIs(t, err, ErrRouterClosed)
}
