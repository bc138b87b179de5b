package playback

import (
	"fmt"
	"sync"
	"testing"

	"github.com/lessoncast/lessoncast/pkg/lesson"
)

// recordingSink logs every sink call.
type recordingSink struct {
	mu    sync.Mutex
	calls []string
}

func (s *recordingSink) Load(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "load "+url)
	return nil
}

func (s *recordingSink) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "play")
	return nil
}

func (s *recordingSink) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "pause")
	return nil
}

func (s *recordingSink) log() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

type recordingListener struct {
	mu     sync.Mutex
	events []Event
}

func (l *recordingListener) OnPlayback(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *recordingListener) count(t EventType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func (l *recordingListener) total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func threeSegments() []lesson.Segment {
	var segs []lesson.Segment
	for i := 0; i < 3; i++ {
		segs = append(segs, lesson.Segment{
			AudioID:    fmt.Sprintf("a%d", i),
			ChunkIndex: i,
			StreamURL:  fmt.Sprintf("/stream/a%d", i),
		})
	}
	return segs
}

func newTestController() (*Controller, *recordingSink, *recordingListener) {
	sink := &recordingSink{}
	c := NewController(sink, threeSegments())
	l := &recordingListener{}
	c.AddListener(l)
	return c, sink, l
}

func TestAutoAdvanceThroughAllSegments(t *testing.T) {
	c, sink, l := newTestController()

	if err := c.Play(); err != nil {
		t.Fatalf("play: %v", err)
	}
	if c.State() != StatePlaying || c.CurrentIndex() != 0 {
		t.Fatalf("expected playing at 0, got %v at %d", c.State(), c.CurrentIndex())
	}

	c.OnSegmentEnded()
	if c.CurrentIndex() != 1 || c.State() != StatePlaying {
		t.Fatalf("expected auto-advance to 1, got %d in %v", c.CurrentIndex(), c.State())
	}
	c.OnSegmentEnded()
	if c.CurrentIndex() != 2 {
		t.Fatalf("expected auto-advance to 2, got %d", c.CurrentIndex())
	}
	c.OnSegmentEnded()
	if c.State() != StateCompleted {
		t.Fatalf("expected completion after last segment, got %v", c.State())
	}

	if got := l.count(EventStarted); got != 1 {
		t.Fatalf("expected exactly one started event, got %d", got)
	}
	if got := l.count(EventSegmentStarted); got != 3 {
		t.Fatalf("expected three segment-started events, got %d", got)
	}
	if got := l.count(EventCompleted); got != 1 {
		t.Fatalf("expected exactly one completed event, got %d", got)
	}

	// Each segment is loaded then played, with no user action between.
	log := sink.log()
	wantPrefix := []string{"load /stream/a0", "play", "load /stream/a1", "play", "load /stream/a2", "play"}
	if len(log) != len(wantPrefix) {
		t.Fatalf("unexpected sink log: %v", log)
	}
	for i, want := range wantPrefix {
		if log[i] != want {
			t.Fatalf("sink call %d: want %q, got %q", i, want, log[i])
		}
	}
}

func TestLateEndedAfterCompletionIsIgnored(t *testing.T) {
	c, _, l := newTestController()
	if err := c.Play(); err != nil {
		t.Fatalf("play: %v", err)
	}
	for i := 0; i < 3; i++ {
		c.OnSegmentEnded()
	}
	before := l.total()
	c.OnSegmentEnded()
	if err := c.Play(); err != nil {
		t.Fatalf("play after completion: %v", err)
	}
	if l.total() != before {
		t.Fatalf("expected no events after completion, got %d new", l.total()-before)
	}
	if got := l.count(EventCompleted); got != 1 {
		t.Fatalf("completion fired %d times", got)
	}
}

func TestPauseResumeKeepsPosition(t *testing.T) {
	c, sink, l := newTestController()
	if err := c.Play(); err != nil {
		t.Fatalf("play: %v", err)
	}
	c.OnSegmentEnded()

	if err := c.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if c.State() != StatePaused || c.CurrentIndex() != 1 {
		t.Fatalf("expected paused at 1, got %v at %d", c.State(), c.CurrentIndex())
	}
	// A segment end while paused must not advance.
	c.OnSegmentEnded()
	if c.CurrentIndex() != 1 {
		t.Fatalf("paused controller advanced to %d", c.CurrentIndex())
	}

	if err := c.Play(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if c.State() != StatePlaying || c.CurrentIndex() != 1 {
		t.Fatalf("expected resume at 1, got %v at %d", c.State(), c.CurrentIndex())
	}
	// Resume does not reload the segment.
	log := sink.log()
	if log[len(log)-2] != "pause" || log[len(log)-1] != "play" {
		t.Fatalf("expected bare play on resume, got %v", log)
	}
	if got := l.count(EventStarted); got != 1 {
		t.Fatalf("started event fired %d times across pause/resume", got)
	}
}

func TestPlayWhilePlayingIsNoop(t *testing.T) {
	c, sink, l := newTestController()
	if err := c.Play(); err != nil {
		t.Fatalf("play: %v", err)
	}
	sinkCalls := len(sink.log())
	events := l.total()

	// A double-tap must not restart the current segment from zero.
	if err := c.Play(); err != nil {
		t.Fatalf("second play: %v", err)
	}
	if got := len(sink.log()); got != sinkCalls {
		t.Fatalf("redundant play touched the sink: %v", sink.log())
	}
	if l.total() != events {
		t.Fatalf("redundant play fired %d extra events", l.total()-events)
	}
	if c.State() != StatePlaying || c.CurrentIndex() != 0 {
		t.Fatalf("expected still playing at 0, got %v at %d", c.State(), c.CurrentIndex())
	}
}

func TestTogglePlayPause(t *testing.T) {
	c, _, _ := newTestController()
	if err := c.TogglePlayPause(); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if c.State() != StatePlaying {
		t.Fatalf("expected playing after first toggle, got %v", c.State())
	}
	if err := c.TogglePlayPause(); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if c.State() != StatePaused {
		t.Fatalf("expected paused after second toggle, got %v", c.State())
	}
}

func TestSkipToIndexWhilePausedStaysPaused(t *testing.T) {
	c, _, l := newTestController()
	if err := c.Play(); err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := c.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := c.SkipToIndex(2); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if c.State() != StatePaused || c.CurrentIndex() != 2 {
		t.Fatalf("expected paused at 2, got %v at %d", c.State(), c.CurrentIndex())
	}
	if got := l.count(EventSegmentStarted); got != 1 {
		t.Fatalf("expected no new segment event while paused, got %d", got)
	}
}

func TestSkipToIndexWhilePlayingStartsSegment(t *testing.T) {
	c, sink, _ := newTestController()
	if err := c.Play(); err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := c.SkipToIndex(2); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if c.State() != StatePlaying || c.CurrentIndex() != 2 {
		t.Fatalf("expected playing at 2, got %v at %d", c.State(), c.CurrentIndex())
	}
	log := sink.log()
	if log[len(log)-2] != "load /stream/a2" {
		t.Fatalf("expected skip target loaded, got %v", log)
	}
}

func TestSkipToIndexOutOfRange(t *testing.T) {
	c, _, _ := newTestController()
	if err := c.SkipToIndex(7); err == nil {
		t.Fatalf("expected error for out-of-range index")
	}
	if err := c.SkipToIndex(-1); err == nil {
		t.Fatalf("expected error for negative index")
	}
}

func TestSkipToEndCompletesOnce(t *testing.T) {
	c, _, l := newTestController()
	if err := c.Play(); err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := c.SkipToEnd(); err != nil {
		t.Fatalf("skip to end: %v", err)
	}
	if c.State() != StateCompleted {
		t.Fatalf("expected completed, got %v", c.State())
	}
	if c.CurrentIndex() != 2 {
		t.Fatalf("expected position at last segment, got %d", c.CurrentIndex())
	}
	if err := c.SkipToEnd(); err != nil {
		t.Fatalf("second skip to end: %v", err)
	}
	if got := l.count(EventCompleted); got != 1 {
		t.Fatalf("completion fired %d times", got)
	}
}

func TestSkipToEndFromIdle(t *testing.T) {
	c, _, l := newTestController()
	if err := c.SkipToEnd(); err != nil {
		t.Fatalf("skip to end: %v", err)
	}
	if c.State() != StateCompleted {
		t.Fatalf("expected completed from idle, got %v", c.State())
	}
	if got := l.count(EventStarted); got != 0 {
		t.Fatalf("started event fired on skip from idle")
	}
}

func TestCloseSuppressesEvents(t *testing.T) {
	c, _, l := newTestController()
	if err := c.Play(); err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	before := l.total()

	// A late transport callback after unmount must be silent.
	c.OnSegmentEnded()
	if l.total() != before {
		t.Fatalf("events fired after close")
	}
	if err := c.Play(); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := c.Pause(); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := c.SkipToIndex(1); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestPlayWithoutSegments(t *testing.T) {
	c := NewController(&recordingSink{}, nil)
	if err := c.Play(); err == nil {
		t.Fatalf("expected error playing empty segment list")
	}
}
