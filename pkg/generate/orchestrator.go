package generate

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/lessoncast/lessoncast/pkg/blob"
	"github.com/lessoncast/lessoncast/pkg/errorsx"
	"github.com/lessoncast/lessoncast/pkg/lesson"
	"github.com/lessoncast/lessoncast/pkg/logging"
	"github.com/lessoncast/lessoncast/pkg/manifest"
	"github.com/lessoncast/lessoncast/pkg/metrics"
	"github.com/lessoncast/lessoncast/pkg/synth"
)

// FileReport is the per-turn outcome of one generation pass.
type FileReport struct {
	lesson.AudioArtifact
	Regenerated bool `json:"regenerated"`
}

// Summary aggregates a generation pass. Per-turn failures are absorbed
// here, never propagated as batch errors.
type Summary struct {
	Manifest             lesson.Manifest
	Files                []FileReport
	FilesGenerated       int
	FilesTotal           int
	TotalDurationSeconds int
	ManifestKey          string
}

// TurnEvent reports progress on one dialogue turn.
type TurnEvent struct {
	LessonID    string `json:"lesson_id"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	Speaker     string `json:"speaker"`
	Skipped     bool   `json:"skipped"`
	Regenerated bool   `json:"regenerated"`
	Error       string `json:"error,omitempty"`
}

// Listener observes per-turn progress during a generation pass.
type Listener interface {
	OnTurn(ev TurnEvent)
}

// Orchestrator drives synthesis and storage per dialogue turn and owns
// the manifest. Turns run sequentially: the synthesis provider is
// rate-limited and cost-sensitive, and one writer per manifest index
// keeps partial-failure bookkeeping trivial.
type Orchestrator struct {
	gateway   synth.Gateway
	blobs     blob.Store
	manifests *manifest.Store
	format    string
	obs       metrics.Observer
	listeners []Listener
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFormat sets the target audio format (default mp3).
func WithFormat(format string) Option {
	return func(o *Orchestrator) {
		if format != "" {
			o.format = format
		}
	}
}

// WithObserver wires a metrics observer.
func WithObserver(obs metrics.Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.obs = obs
		}
	}
}

// WithListener registers a progress listener.
func WithListener(l Listener) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.listeners = append(o.listeners, l)
		}
	}
}

// WithClock injects a clock for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an orchestrator.
func New(gateway synth.Gateway, blobs blob.Store, manifests *manifest.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gateway:   gateway,
		blobs:     blobs,
		manifests: manifests,
		format:    "mp3",
		obs:       metrics.NoopObserver{},
		logger:    logging.NewComponentLogger(slog.Default(), "orchestrator"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate synthesizes audio for every dialogue turn of the lesson.
//
// The pass is idempotent: with regenerate false, turns that already
// have a playable artifact with a matching voice are skipped. One
// failed turn never aborts the batch; its slot is recorded with an
// error and the pass continues. The manifest is written once, after
// all turns, so readers never observe a partially updated document.
func (o *Orchestrator) Generate(ctx context.Context, lsn lesson.Lesson, mapping lesson.VoiceMapping, regenerate bool) (Summary, error) {
	turns := lsn.OrderedTurns()
	if len(turns) == 0 {
		return Summary{}, errorsx.New(errorsx.ReasonValidation, "lesson %s has no dialogue turns", lsn.ID)
	}
	voices := lesson.DefaultVoiceMapping().Merge(mapping)

	var existing lesson.Manifest
	if prev, err := o.manifests.Load(ctx, lsn.ID); err == nil {
		existing = prev
	} else if !errorsx.HasReason(err, errorsx.ReasonManifestNotFound) {
		return Summary{}, err
	}

	o.logger.Info("generation started",
		slog.String("lesson_id", lsn.ID),
		slog.Int("turns", len(turns)),
		slog.Bool("regenerate", regenerate))

	files := make([]FileReport, 0, len(turns))
	artifacts := make([]lesson.AudioArtifact, 0, len(turns))
	generated := 0

	for i, turn := range turns {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		voice := voices.Resolve(turn.Speaker)

		if !regenerate {
			if prev, ok := artifactAt(existing, i); ok && prev.OK() && prev.Voice == voice {
				artifacts = append(artifacts, prev)
				files = append(files, FileReport{AudioArtifact: prev, Regenerated: false})
				o.notify(TurnEvent{LessonID: lsn.ID, ChunkIndex: i, TotalChunks: len(turns), Speaker: turn.Speaker.String(), Skipped: true})
				o.logger.Debug("turn skipped, audio exists",
					slog.String("lesson_id", lsn.ID),
					slog.Int("chunk_index", i))
				continue
			}
		}

		artifact := o.synthesizeTurn(ctx, lsn.ID, i, turn, voice)
		artifacts = append(artifacts, artifact)
		files = append(files, FileReport{AudioArtifact: artifact, Regenerated: artifact.OK()})
		if artifact.OK() {
			generated++
		}
		o.notify(TurnEvent{
			LessonID:    lsn.ID,
			ChunkIndex:  i,
			TotalChunks: len(turns),
			Speaker:     turn.Speaker.String(),
			Regenerated: artifact.OK(),
			Error:       artifact.Error,
		})
	}

	m := lesson.Manifest{
		LessonID:     lsn.ID,
		ProgramID:    lsn.ProgramID,
		DayNumber:    lsn.DayNumber,
		GeneratedAt:  o.now().UTC(),
		VoiceMapping: voices.Wire(),
		Artifacts:    artifacts,
	}
	if err := o.manifests.Save(ctx, m); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Manifest:             m,
		Files:                files,
		FilesGenerated:       generated,
		FilesTotal:           len(turns),
		TotalDurationSeconds: m.TotalDurationSeconds(),
		ManifestKey:          blob.ManifestKey(lsn.ID),
	}
	o.obs.RecordEvent(metrics.Event(metrics.EventGenerateBatch, float64(generated), map[string]string{"lesson_id": lsn.ID}))
	o.logger.Info("generation completed",
		slog.String("lesson_id", lsn.ID),
		slog.Int("files_generated", generated),
		slog.Int("files_total", len(turns)))
	return summary, nil
}

// synthesizeTurn produces the artifact for one turn. All failures,
// synthesis and storage alike, come back as an error-holding artifact
// that still occupies its chunk slot.
func (o *Orchestrator) synthesizeTurn(ctx context.Context, lessonID string, index int, turn lesson.DialogueTurn, voice string) lesson.AudioArtifact {
	artifact := lesson.AudioArtifact{
		LessonID:   lessonID,
		ChunkIndex: index,
		Speaker:    turn.Speaker,
		Voice:      voice,
	}

	start := o.now()
	result, err := o.gateway.Speak(ctx, synth.Request{Text: turn.Text, Voice: voice, Format: o.format})
	if err != nil {
		o.recordTurnFailure(lessonID, index, err)
		artifact.Error = err.Error()
		return artifact
	}
	o.obs.RecordEvent(metrics.Event(metrics.EventSynthesisLatency, float64(o.now().Sub(start).Milliseconds()), map[string]string{"lesson_id": lessonID}))

	artifactID := uuid.NewString()
	format := result.Format
	if format == "" {
		format = o.format
	}
	key := blob.ArtifactKey(lessonID, artifactID, format)
	err = o.blobs.Put(ctx, key, result.Audio, contentTypeFor(format), map[string]string{
		"lesson-id":   lessonID,
		"chunk-index": strconv.Itoa(index),
		"speaker":     turn.Speaker.String(),
	})
	if err != nil {
		o.recordTurnFailure(lessonID, index, err)
		artifact.Error = errorsx.Wrap(err, errorsx.ReasonStoragePut).Error()
		return artifact
	}

	artifact.ArtifactID = artifactID
	artifact.StorageKey = key
	artifact.Format = format
	artifact.SizeBytes = int64(len(result.Audio))
	artifact.GeneratedAt = o.now().UTC()
	artifact.DurationSeconds = result.DurationSeconds
	if artifact.DurationSeconds == 0 {
		artifact.DurationSeconds = EstimateDuration(int64(len(result.Audio)), format, len(turn.Text))
	}
	o.obs.RecordEvent(metrics.Event(metrics.EventArtifactStored, float64(len(result.Audio)), map[string]string{"lesson_id": lessonID}))
	return artifact
}

func (o *Orchestrator) recordTurnFailure(lessonID string, index int, err error) {
	reason := errorsx.ReasonSynthesis
	var rle synth.RateLimitError
	if errors.As(err, &rle) {
		reason = errorsx.ReasonSynthesisRateLimit
	}
	o.obs.RecordEvent(metrics.Event(metrics.EventTurnFailed, 1, map[string]string{
		"lesson_id": lessonID,
		"reason":    string(reason),
	}))
	o.logger.Error("turn failed",
		slog.String("lesson_id", lessonID),
		slog.Int("chunk_index", index),
		slog.String("reason", string(reason)),
		slog.String("error", err.Error()))
}

func (o *Orchestrator) notify(ev TurnEvent) {
	for _, l := range o.listeners {
		l.OnTurn(ev)
	}
}

func artifactAt(m lesson.Manifest, index int) (lesson.AudioArtifact, bool) {
	if index < 0 || index >= len(m.Artifacts) {
		return lesson.AudioArtifact{}, false
	}
	a := m.Artifacts[index]
	if a.ChunkIndex != index {
		return lesson.AudioArtifact{}, false
	}
	return a, true
}

func contentTypeFor(format string) string {
	switch format {
	case "wav":
		return "audio/wav"
	case "opus":
		return "audio/opus"
	case "aac":
		return "audio/aac"
	case "flac":
		return "audio/flac"
	default:
		return "audio/mpeg"
	}
}
