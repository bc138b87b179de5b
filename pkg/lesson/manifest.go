package lesson

import "time"

// AudioArtifact is one synthesized file plus its metadata. A non-empty
// Error means this turn failed; the entry still occupies its ChunkIndex
// slot so the manifest stays aligned with the dialogue.
type AudioArtifact struct {
	ArtifactID      string    `json:"audio_id,omitempty"`
	LessonID        string    `json:"lesson_id"`
	ChunkIndex      int       `json:"chunk_index"`
	Speaker         Speaker   `json:"speaker"`
	Voice           string    `json:"voice,omitempty"`
	StorageKey      string    `json:"storage_key,omitempty"`
	Format          string    `json:"format,omitempty"`
	DurationSeconds int       `json:"duration_seconds"`
	SizeBytes       int64     `json:"size_bytes"`
	GeneratedAt     time.Time `json:"generated_at,omitzero"`
	Error           string    `json:"error,omitempty"`
}

// OK reports whether the artifact represents playable audio.
func (a AudioArtifact) OK() bool {
	return a.Error == "" && a.ArtifactID != ""
}

// Manifest is the authoritative per-lesson record of generated audio.
// Invariant: len(Artifacts) equals the dialogue turn count and
// Artifacts[i].ChunkIndex == i. Existence checks go through the
// manifest, never through key-by-key storage scans.
type Manifest struct {
	LessonID     string            `json:"lesson_id"`
	ProgramID    string            `json:"program_id"`
	DayNumber    int               `json:"day_number"`
	GeneratedAt  time.Time         `json:"generated_at"`
	VoiceMapping map[string]string `json:"voice_mapping"`
	Artifacts    []AudioArtifact   `json:"audio_files"`
}

// ArtifactByID finds an artifact by its ID.
func (m Manifest) ArtifactByID(artifactID string) (AudioArtifact, bool) {
	for _, a := range m.Artifacts {
		if a.ArtifactID == artifactID {
			return a, true
		}
	}
	return AudioArtifact{}, false
}

// TotalDurationSeconds sums the duration of all playable artifacts.
func (m Manifest) TotalDurationSeconds() int {
	total := 0
	for _, a := range m.Artifacts {
		if a.OK() {
			total += a.DurationSeconds
		}
	}
	return total
}

// Segment is the playback-facing unit shown one at a time: either a
// streamable audio artifact or a transcript fallback entry (zero
// duration, empty StreamURL).
type Segment struct {
	AudioID         string  `json:"audio_id"`
	Speaker         Speaker `json:"speaker"`
	Voice           string  `json:"voice,omitempty"`
	DurationSeconds int     `json:"duration_seconds"`
	ChunkIndex      int     `json:"chunk_index"`
	StreamURL       string  `json:"stream_url,omitempty"`
	Text            string  `json:"text,omitempty"`
}
