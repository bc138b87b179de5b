// Package notify sends out-of-band notifications when lesson audio
// finishes generating. Notification failures are logged, never
// propagated: audio generation already succeeded.
package notify

import "context"

// AudioReady describes a finished generation batch.
type AudioReady struct {
	LessonID       string
	ProgramID      string
	DayNumber      int
	FilesGenerated int
	FilesTotal     int
}

// Notifier delivers an audio-ready notice.
type Notifier interface {
	// Name returns the notifier name for logging.
	Name() string
	// NotifyAudioReady announces a completed generation batch.
	NotifyAudioReady(ctx context.Context, ev AudioReady) error
}

// Noop discards notifications. Used when notifications are disabled.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) NotifyAudioReady(context.Context, AudioReady) error { return nil }
