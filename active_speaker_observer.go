package mediasoup

import "context"

// CreateActiveSpeakerObserver creates an RtpObserver that reports the
// dominant speaker among the audio producers added to it.
func (r *Router) CreateActiveSpeakerObserver(options *ActiveSpeakerObserverOptions) (*RtpObserver, error) {
	return r.CreateActiveSpeakerObserverContext(context.Background(), options)
}

func (r *Router) CreateActiveSpeakerObserverContext(ctx context.Context, options *ActiveSpeakerObserverOptions) (*RtpObserver, error) {
	r.logger.V(1).Info("CreateActiveSpeakerObserver()")

	opts := ActiveSpeakerObserverOptions{}
	if options != nil {
		opts = *options
	}
	if opts.Interval == 0 {
		opts.Interval = 300
	}
	return r.createRtpObserver(ctx, RtpObserverActiveSpeaker, "router.createActiveSpeakerObserver", opts, opts.AppData)
}

func (o *RtpObserver) OnDominantSpeaker(handler func(AudioLevelObserverDominantSpeaker)) (off func()) {
	return o.dominantSpeakerEvent.on(handler)
}
