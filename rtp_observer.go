package mediasoup

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
)

type rtpObserverParams struct {
	id       string
	typ      RtpObserverType
	router   *Router
	channels workerChannels
	logger   logr.Logger
	appData  H
}

// RtpObserver watches the RTP of the audio producers added to it. The
// events it emits depend on its type, see CreateAudioLevelObserver and
// CreateActiveSpeakerObserver.
type RtpObserver struct {
	entity
	typ     RtpObserverType
	router  *Router
	appData H

	mu     sync.Mutex
	paused bool

	pauseEvent           eventEmitter[struct{}]
	resumeEvent          eventEmitter[struct{}]
	addProducerEvent     eventEmitter[*Producer]
	removeProducerEvent  eventEmitter[*Producer]
	volumesEvent         eventEmitter[[]AudioLevelObserverVolume]
	silenceEvent         eventEmitter[struct{}]
	dominantSpeakerEvent eventEmitter[AudioLevelObserverDominantSpeaker]
}

func newRtpObserver(params rtpObserverParams) *RtpObserver {
	logger := params.logger.WithName("RtpObserver").WithValues("rtpObserverId", params.id, "type", params.typ)
	logger.V(1).Info("constructor()")

	o := &RtpObserver{
		typ:     params.typ,
		router:  params.router,
		appData: params.appData,
	}
	if o.appData == nil {
		o.appData = H{}
	}
	o.entity.init(params.id, params.channels, logger, ErrRtpObserverClosed)
	o.subscribe(o.handleNotification)

	return o
}

func (o *RtpObserver) Id() string {
	return o.id
}

func (o *RtpObserver) Type() RtpObserverType {
	return o.typ
}

func (o *RtpObserver) AppData() H {
	return o.appData
}

func (o *RtpObserver) Paused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.paused
}

// Close closes the observer.
func (o *RtpObserver) Close() {
	if !o.beginClose() {
		return
	}
	o.logger.V(1).Info("Close()")

	o.router.removeRtpObserver(o.id)
	o.closeVia("router.closeRtpObserver", o.router.Id(), internalData{RtpObserverId: o.id})
}

func (o *RtpObserver) routerClosed() {
	o.parentClosed(nil)
}

// Pause stops the observation; no events are emitted until Resume.
func (o *RtpObserver) Pause() error {
	return o.PauseContext(context.Background())
}

func (o *RtpObserver) PauseContext(ctx context.Context) error {
	o.logger.V(1).Info("Pause()")

	if err := o.request(ctx, "rtpObserver.pause", nil, nil); err != nil {
		return err
	}

	o.mu.Lock()
	wasPaused := o.paused
	o.paused = true
	o.mu.Unlock()

	if !wasPaused {
		o.pauseEvent.emit(o.logger, struct{}{})
	}
	return nil
}

func (o *RtpObserver) Resume() error {
	return o.ResumeContext(context.Background())
}

func (o *RtpObserver) ResumeContext(ctx context.Context) error {
	o.logger.V(1).Info("Resume()")

	if err := o.request(ctx, "rtpObserver.resume", nil, nil); err != nil {
		return err
	}

	o.mu.Lock()
	wasPaused := o.paused
	o.paused = false
	o.mu.Unlock()

	if wasPaused {
		o.resumeEvent.emit(o.logger, struct{}{})
	}
	return nil
}

// AddProducer starts observing a producer of the router.
func (o *RtpObserver) AddProducer(producerId string) error {
	return o.AddProducerContext(context.Background(), producerId)
}

func (o *RtpObserver) AddProducerContext(ctx context.Context, producerId string) error {
	o.logger.V(1).Info("AddProducer()", "producerId", producerId)

	producer, ok := o.router.getProducer(producerId)
	if !ok {
		return ErrProducerNotFound
	}
	if err := o.request(ctx, "rtpObserver.addProducer", H{"producerId": producerId}, nil); err != nil {
		return err
	}
	o.addProducerEvent.emit(o.logger, producer)

	return nil
}

// RemoveProducer stops observing a producer.
func (o *RtpObserver) RemoveProducer(producerId string) error {
	return o.RemoveProducerContext(context.Background(), producerId)
}

func (o *RtpObserver) RemoveProducerContext(ctx context.Context, producerId string) error {
	o.logger.V(1).Info("RemoveProducer()", "producerId", producerId)

	producer, ok := o.router.getProducer(producerId)
	if !ok {
		return ErrProducerNotFound
	}
	if err := o.request(ctx, "rtpObserver.removeProducer", H{"producerId": producerId}, nil); err != nil {
		return err
	}
	o.removeProducerEvent.emit(o.logger, producer)

	return nil
}

func (o *RtpObserver) OnPause(handler func()) (off func()) {
	return o.pauseEvent.on(func(struct{}) { handler() })
}

func (o *RtpObserver) OnResume(handler func()) (off func()) {
	return o.resumeEvent.on(func(struct{}) { handler() })
}

func (o *RtpObserver) OnAddProducer(handler func(*Producer)) (off func()) {
	return o.addProducerEvent.on(handler)
}

func (o *RtpObserver) OnRemoveProducer(handler func(*Producer)) (off func()) {
	return o.removeProducerEvent.on(handler)
}

func (o *RtpObserver) handleNotification(event string, data, payload []byte) {
	switch event {
	case "volumes":
		var entries []struct {
			ProducerId string `json:"producerId"`
			Volume     int8   `json:"volume"`
		}
		if !o.decode(event, data, &entries) {
			return
		}
		volumes := make([]AudioLevelObserverVolume, 0, len(entries))
		for _, entry := range entries {
			if producer, ok := o.router.getProducer(entry.ProducerId); ok {
				volumes = append(volumes, AudioLevelObserverVolume{Producer: producer, Volume: entry.Volume})
			}
		}
		if len(volumes) > 0 {
			o.volumesEvent.emit(o.logger, volumes)
		}

	case "silence":
		o.silenceEvent.emit(o.logger, struct{}{})

	case "dominantspeaker":
		var v struct {
			ProducerId string `json:"producerId"`
		}
		if !o.decode(event, data, &v) {
			return
		}
		if producer, ok := o.router.getProducer(v.ProducerId); ok {
			o.dominantSpeakerEvent.emit(o.logger, AudioLevelObserverDominantSpeaker{Producer: producer})
		}

	default:
		o.logger.Error(nil, "ignoring unknown event", "event", event)
	}
}
