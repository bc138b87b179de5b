package playlist

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/lessoncast/lessoncast/pkg/blob"
	"github.com/lessoncast/lessoncast/pkg/lesson"
)

func fixtureLesson() (lesson.Lesson, lesson.Manifest) {
	lsn := lesson.Lesson{
		ID: "lesson-1",
		Turns: []lesson.DialogueTurn{
			{Speaker: lesson.SpeakerHostA, Text: "Welcome back.", SequenceIndex: 0},
			{Speaker: lesson.SpeakerHostB, Text: "Glad to be here.", SequenceIndex: 1},
			{Speaker: lesson.SpeakerHostA, Text: "Let's begin.", SequenceIndex: 2},
		},
	}
	m := lesson.Manifest{
		LessonID: "lesson-1",
		Artifacts: []lesson.AudioArtifact{
			{ArtifactID: "a0", LessonID: "lesson-1", ChunkIndex: 0, Speaker: lesson.SpeakerHostA, Voice: "alloy", DurationSeconds: 4, StorageKey: blob.ArtifactKey("lesson-1", "a0", "mp3")},
			{ArtifactID: "a1", LessonID: "lesson-1", ChunkIndex: 1, Speaker: lesson.SpeakerHostB, Voice: "echo", DurationSeconds: 3, StorageKey: blob.ArtifactKey("lesson-1", "a1", "mp3")},
			{ArtifactID: "a2", LessonID: "lesson-1", ChunkIndex: 2, Speaker: lesson.SpeakerHostA, Voice: "alloy", DurationSeconds: 2, StorageKey: blob.ArtifactKey("lesson-1", "a2", "mp3")},
		},
	}
	return lsn, m
}

func TestAssembleOrdersAndDenormalizesText(t *testing.T) {
	lsn, m := fixtureLesson()
	segments, err := NewAssembler(nil).Assemble(context.Background(), lsn, m)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	for i, seg := range segments {
		if seg.ChunkIndex != i {
			t.Fatalf("segment %d out of order: %+v", i, seg)
		}
	}
	if segments[1].Text != "Glad to be here." {
		t.Fatalf("text not denormalized from turns: %q", segments[1].Text)
	}
	if segments[0].StreamURL != "/programs/lessons/lesson-1/audio/a0/stream" {
		t.Fatalf("unexpected stream path: %q", segments[0].StreamURL)
	}
}

func TestAssembleOmitsFailedArtifacts(t *testing.T) {
	lsn, m := fixtureLesson()
	m.Artifacts[1].Error = "synthesis rejected"
	m.Artifacts[1].ArtifactID = ""

	segments, err := NewAssembler(nil).Assemble(context.Background(), lsn, m)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected failed artifact omitted, got %d segments", len(segments))
	}
	if segments[0].ChunkIndex != 0 || segments[1].ChunkIndex != 2 {
		t.Fatalf("surviving segments out of order: %+v", segments)
	}
}

func TestAssembleAllFailedYieldsEmpty(t *testing.T) {
	lsn, m := fixtureLesson()
	for i := range m.Artifacts {
		m.Artifacts[i].Error = "provider down"
	}
	segments, err := NewAssembler(nil).Assemble(context.Background(), lsn, m)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("expected empty playlist, got %d segments", len(segments))
	}
}

func TestPathResolverBasePath(t *testing.T) {
	r := PathResolver{BasePath: "/api/v1"}
	u, err := r.StreamURL(context.Background(), lesson.AudioArtifact{LessonID: "l", ArtifactID: "a"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if u != "/api/v1/programs/lessons/l/audio/a/stream" {
		t.Fatalf("unexpected url %q", u)
	}
}

func TestPresignResolverFallsBack(t *testing.T) {
	// FSStore cannot presign, so the resolver must fall back to paths.
	store := blob.NewFSStore(afero.NewMemMapFs(), "audio")
	r := PresignResolver{Store: store, Expiry: time.Minute, Fallback: PathResolver{}}
	u, err := r.StreamURL(context.Background(), lesson.AudioArtifact{LessonID: "l", ArtifactID: "a", StorageKey: "lessons/l/a.mp3"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if u != "/programs/lessons/l/audio/a/stream" {
		t.Fatalf("expected fallback path, got %q", u)
	}
}
