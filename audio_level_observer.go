package mediasoup

import "context"

// CreateAudioLevelObserver creates an RtpObserver that monitors the volume
// of the audio producers added to it. Audio levels are read from the RFC
// 6464 header extension, no audio is decoded.
func (r *Router) CreateAudioLevelObserver(options *AudioLevelObserverOptions) (*RtpObserver, error) {
	return r.CreateAudioLevelObserverContext(context.Background(), options)
}

func (r *Router) CreateAudioLevelObserverContext(ctx context.Context, options *AudioLevelObserverOptions) (*RtpObserver, error) {
	r.logger.V(1).Info("CreateAudioLevelObserver()")

	opts := AudioLevelObserverOptions{}
	if options != nil {
		opts = *options
	}
	if opts.MaxEntries == 0 {
		opts.MaxEntries = 1
	}
	if opts.Threshold == 0 {
		opts.Threshold = -80
	}
	if opts.Threshold > 0 {
		return nil, NewTypeError("threshold must be in [-127, 0]")
	}
	if opts.Interval == 0 {
		opts.Interval = 1000
	}
	return r.createRtpObserver(ctx, RtpObserverAudioLevel, "router.createAudioLevelObserver", opts, opts.AppData)
}

// OnVolumes is called at every interval with the producers above the
// threshold, loudest first.
func (o *RtpObserver) OnVolumes(handler func([]AudioLevelObserverVolume)) (off func()) {
	return o.volumesEvent.on(handler)
}

// OnSilence is called when no producer is above the threshold.
func (o *RtpObserver) OnSilence(handler func()) (off func()) {
	return o.silenceEvent.on(func(struct{}) { handler() })
}
