package bundle

import (
	"context"

	"github.com/lessoncast/lessoncast/pkg/errorsx"
	"github.com/lessoncast/lessoncast/pkg/lesson"
	"github.com/lessoncast/lessoncast/pkg/manifest"
	"github.com/lessoncast/lessoncast/pkg/playlist"
	"github.com/lessoncast/lessoncast/pkg/transcript"
)

// NewLoader composes the pipeline stores into a cache Loader: resolve
// the day's lesson, assemble its playlist, and fall back to transcript
// segments when nothing is playable. A missing manifest means audio
// was never generated, which is a transcript case, not an error.
func NewLoader(lessons lesson.Source, manifests *manifest.Store, assembler *playlist.Assembler) Loader {
	return func(ctx context.Context, programID string, day int) (lesson.Lesson, []lesson.Segment, error) {
		lsn, err := lessons.ByProgramDay(ctx, programID, day)
		if err != nil {
			return lesson.Lesson{}, nil, err
		}
		m, err := manifests.Load(ctx, lsn.ID)
		if err != nil {
			if errorsx.HasReason(err, errorsx.ReasonManifestNotFound) {
				return lsn, transcript.Build(lsn.Text), nil
			}
			return lesson.Lesson{}, nil, err
		}
		segments, err := assembler.Assemble(ctx, lsn, m)
		if err != nil {
			return lesson.Lesson{}, nil, err
		}
		if len(segments) == 0 {
			segments = transcript.Build(lsn.Text)
		}
		return lsn, segments, nil
	}
}
