// Package transcript turns lesson text into renderable segments when
// audio is absent or generation failed, so the UI always has ordered
// content to show.
package transcript

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lessoncast/lessoncast/pkg/lesson"
)

var (
	paragraphSplit = regexp.MustCompile(`\n\s*\n`)
	sentenceEnd    = regexp.MustCompile(`([.!?])\s+`)
)

// Build segments lesson text deterministically: paragraphs first, and
// when fewer than two paragraphs result, sentence pairs. Every segment
// is narrated, carries a synthetic audio ID, zero duration and no
// stream URL. Empty input yields no segments.
func Build(lessonText string) []lesson.Segment {
	text := strings.TrimSpace(lessonText)
	if text == "" {
		return nil
	}

	parts := paragraphs(text)
	if len(parts) < 2 {
		parts = sentencePairs(text)
	}

	segments := make([]lesson.Segment, 0, len(parts))
	for i, part := range parts {
		segments = append(segments, lesson.Segment{
			AudioID:    fmt.Sprintf("transcript-%d", i),
			Speaker:    lesson.SpeakerNarrator,
			ChunkIndex: i,
			Text:       part,
		})
	}
	return segments
}

func paragraphs(text string) []string {
	var out []string
	for _, p := range paragraphSplit.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sentencePairs splits on sentence boundaries and groups every two
// sentences into one segment.
func sentencePairs(text string) []string {
	marked := sentenceEnd.ReplaceAllString(text, "$1\x00")
	var sentences []string
	for _, s := range strings.Split(marked, "\x00") {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return []string{text}
	}
	var out []string
	for i := 0; i < len(sentences); i += 2 {
		if i+1 < len(sentences) {
			out = append(out, sentences[i]+" "+sentences[i+1])
		} else {
			out = append(out, sentences[i])
		}
	}
	return out
}
