package lesson

import (
	"context"
	"errors"
	"sort"
)

// DialogueTurn is one utterance in a lesson conversation. Turns are
// produced upstream and never mutated here; SequenceIndex is the
// canonical conversation order.
type DialogueTurn struct {
	Speaker       Speaker `json:"speaker"`
	Text          string  `json:"text"`
	SequenceIndex int     `json:"sequence_index"`
}

// Lesson is the unit the audio pipeline operates on.
type Lesson struct {
	ID        string         `json:"id"`
	ProgramID string         `json:"program_id"`
	DayNumber int            `json:"day_number"`
	Title     string         `json:"title,omitempty"`
	Text      string         `json:"text,omitempty"`
	Turns     []DialogueTurn `json:"conversation_turns"`
}

// OrderedTurns returns the turns sorted by SequenceIndex. Storage
// iteration order is never trusted as conversation order.
func (l Lesson) OrderedTurns() []DialogueTurn {
	out := make([]DialogueTurn, len(l.Turns))
	copy(out, l.Turns)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SequenceIndex < out[j].SequenceIndex
	})
	return out
}

// ErrNotFound is returned by a Source when no lesson matches.
var ErrNotFound = errors.New("lesson not found")

// Source resolves lesson identifiers to lesson content. Curriculum
// authoring lives elsewhere; the audio pipeline only reads.
type Source interface {
	// Lesson returns the lesson for an ID, or ErrNotFound.
	Lesson(ctx context.Context, lessonID string) (Lesson, error)
	// ByProgramDay returns the lesson for a (program, day) pair, or ErrNotFound.
	ByProgramDay(ctx context.Context, programID string, day int) (Lesson, error)
}
