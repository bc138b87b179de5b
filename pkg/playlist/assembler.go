// Package playlist projects a lesson manifest into the ordered,
// client-consumable segment list.
package playlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lessoncast/lessoncast/pkg/blob"
	"github.com/lessoncast/lessoncast/pkg/lesson"
	"github.com/lessoncast/lessoncast/pkg/logging"
)

// URLResolver lazily produces a stream URL for one artifact.
type URLResolver interface {
	StreamURL(ctx context.Context, artifact lesson.AudioArtifact) (string, error)
}

// PathResolver builds service-relative stream paths from the lesson
// and artifact identifiers.
type PathResolver struct {
	// BasePath prefixes the route, e.g. "/api/v1". May be empty.
	BasePath string
}

func (r PathResolver) StreamURL(_ context.Context, a lesson.AudioArtifact) (string, error) {
	return fmt.Sprintf("%s/programs/lessons/%s/audio/%s/stream", r.BasePath, a.LessonID, a.ArtifactID), nil
}

// PresignResolver mints time-boxed URLs from the artifact store and
// falls back to service paths when the store cannot presign.
type PresignResolver struct {
	Store    blob.Store
	Expiry   time.Duration
	Fallback URLResolver
}

func (r PresignResolver) StreamURL(ctx context.Context, a lesson.AudioArtifact) (string, error) {
	expiry := r.Expiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	u, err := r.Store.PresignedURL(ctx, a.StorageKey, expiry)
	if err != nil {
		if errors.Is(err, blob.ErrPresignUnsupported) && r.Fallback != nil {
			return r.Fallback.StreamURL(ctx, a)
		}
		return "", err
	}
	return u, nil
}

// Assembler turns manifests into playable segment sequences.
type Assembler struct {
	resolver URLResolver
	logger   *slog.Logger
}

// NewAssembler creates an assembler with the given URL resolver.
func NewAssembler(resolver URLResolver) *Assembler {
	if resolver == nil {
		resolver = PathResolver{}
	}
	return &Assembler{
		resolver: resolver,
		logger:   logging.NewComponentLogger(slog.Default(), "playlist"),
	}
}

// Assemble returns the ordered segments for a manifest. Artifacts with
// an error are omitted: a failed turn must never become a broken
// playback entry. Segment text is denormalized from the lesson's
// dialogue turns for transcript display alongside audio. An empty
// result tells the caller to fall back to the transcript builder.
func (a *Assembler) Assemble(ctx context.Context, lsn lesson.Lesson, m lesson.Manifest) ([]lesson.Segment, error) {
	turns := lsn.OrderedTurns()
	segments := make([]lesson.Segment, 0, len(m.Artifacts))
	for _, artifact := range m.Artifacts {
		if !artifact.OK() {
			a.logger.Debug("skipping failed artifact",
				slog.String("lesson_id", m.LessonID),
				slog.Int("chunk_index", artifact.ChunkIndex))
			continue
		}
		url, err := a.resolver.StreamURL(ctx, artifact)
		if err != nil {
			return nil, err
		}
		text := ""
		if artifact.ChunkIndex >= 0 && artifact.ChunkIndex < len(turns) {
			text = turns[artifact.ChunkIndex].Text
		}
		segments = append(segments, lesson.Segment{
			AudioID:         artifact.ArtifactID,
			Speaker:         artifact.Speaker,
			Voice:           artifact.Voice,
			DurationSeconds: artifact.DurationSeconds,
			ChunkIndex:      artifact.ChunkIndex,
			StreamURL:       url,
			Text:            text,
		})
	}
	return segments, nil
}
