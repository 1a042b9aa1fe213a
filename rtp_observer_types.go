package mediasoup

type RtpObserverType string

const (
	RtpObserverAudioLevel    RtpObserverType = "audiolevel"
	RtpObserverActiveSpeaker RtpObserverType = "activespeaker"
)

type ActiveSpeakerObserverOptions struct {
	// Interval in ms between dominant speaker checks. Default 300.
	Interval uint16 `json:"interval"`

	AppData H `json:"-"`
}

type AudioLevelObserverOptions struct {
	// MaxEntries caps the producers reported per "volumes" event. Default 1.
	MaxEntries uint16 `json:"maxEntries"`

	// Threshold in dBvo, between -127 and 0. Quieter producers are not
	// reported. Default -80.
	Threshold int8 `json:"threshold"`

	// Interval in ms between two reports. Default 1000.
	Interval uint16 `json:"interval"`

	AppData H `json:"-"`
}

type AudioLevelObserverDominantSpeaker struct {
	Producer *Producer
}

// AudioLevelObserverVolume is the average volume in dBvo of a producer over
// the last interval.
type AudioLevelObserverVolume struct {
	Producer *Producer
	Volume   int8
}
