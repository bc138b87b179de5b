package playback

// Sink abstracts the underlying audio transport (a browser audio
// element, a media process, a test double). The controller depends
// only on this interface; the transport reports natural segment end by
// calling Controller.OnSegmentEnded.
type Sink interface {
	// Load points the sink at a new stream URL without playing it.
	Load(url string) error
	// Play starts or resumes playback of the loaded stream.
	Play() error
	// Pause halts playback, keeping position.
	Pause() error
}
