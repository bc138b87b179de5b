// Package playback sequences lesson segments over an audio sink:
// auto-advance on natural end, manual seek, pause/resume, and a
// single completion signal per lesson view.
package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lessoncast/lessoncast/pkg/lesson"
	"github.com/lessoncast/lessoncast/pkg/logging"
)

// State is the controller's playback state.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateCompleted
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePlaying:
		return "PLAYING"
	case StatePaused:
		return "PAUSED"
	case StateCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// EventType identifies a playback event.
type EventType int

const (
	// EventStarted fires exactly once, on the first play of a mount.
	EventStarted EventType = iota
	// EventSegmentStarted fires each time a segment begins.
	EventSegmentStarted
	// EventCompleted fires exactly once, after the last segment ends.
	// The collaborator decides what completion triggers.
	EventCompleted
)

// Event is a playback state notification.
type Event struct {
	Type      EventType
	Index     int
	Timestamp time.Time
}

// Listener observes playback events.
type Listener interface {
	OnPlayback(ev Event)
}

// InvalidTransitionError represents an invalid state transition attempt.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return "invalid playback transition from " + e.From.String() + " to " + e.To.String()
}

// ErrClosed is returned by controls invoked after Close.
var ErrClosed = errors.New("playback controller closed")

// Controller is the single-threaded playback state machine for one
// lesson view. It is created on mount and closed on unmount; nothing
// is persisted. Auto-advance between segments has no gap and requires
// no user action.
type Controller struct {
	mu         sync.Mutex
	sink       Sink
	segments   []lesson.Segment
	state      State
	current    int
	hasStarted bool
	completed  bool
	closed     bool
	listeners  []Listener
	logger     *slog.Logger
}

// NewController creates a controller positioned at the first segment.
func NewController(sink Sink, segments []lesson.Segment) *Controller {
	return &Controller{
		sink:     sink,
		segments: segments,
		state:    StateIdle,
		logger:   logging.NewComponentLogger(slog.Default(), "playback"),
	}
}

// AddListener registers a listener for playback events.
func (c *Controller) AddListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l != nil {
		c.listeners = append(c.listeners, l)
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentIndex returns the index of the current segment.
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func transitionValid(from, to State) bool {
	valid := map[State][]State{
		StateIdle:    {StatePlaying, StateCompleted},
		StatePlaying: {StatePaused, StateCompleted},
		StatePaused:  {StatePlaying, StateCompleted},
	}
	for _, allowed := range valid[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// transitionLocked validates and applies a state change. Caller holds
// the lock.
func (c *Controller) transitionLocked(to State, reason string) error {
	if !transitionValid(c.state, to) {
		return &InvalidTransitionError{From: c.state, To: to}
	}
	c.logger.Debug("playback transition",
		slog.String("from", c.state.String()),
		slog.String("to", to.String()),
		slog.String("reason", reason))
	c.state = to
	return nil
}

// Play begins (or resumes) playback at the current index. On the very
// first call for this mount it signals lesson start exactly once.
func (c *Controller) Play() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state == StateCompleted || c.state == StatePlaying {
		c.mu.Unlock()
		return nil
	}
	if len(c.segments) == 0 {
		c.mu.Unlock()
		return errors.New("no segments to play")
	}

	var events []Event
	if !c.hasStarted {
		c.hasStarted = true
		events = append(events, Event{Type: EventStarted, Index: c.current, Timestamp: time.Now()})
	}

	resume := c.state == StatePaused && c.hasStarted
	if err := c.transitionLocked(StatePlaying, "play requested"); err != nil {
		c.mu.Unlock()
		return err
	}
	index := c.current
	url := c.segments[index].StreamURL
	c.mu.Unlock()

	if resume {
		if err := c.sink.Play(); err != nil {
			return err
		}
	} else {
		if err := c.startSegment(index, url); err != nil {
			return err
		}
		events = append(events, Event{Type: EventSegmentStarted, Index: index, Timestamp: time.Now()})
	}
	c.emit(events...)
	return nil
}

// Pause halts playback without losing position.
func (c *Controller) Pause() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StatePlaying {
		c.mu.Unlock()
		return nil
	}
	if err := c.transitionLocked(StatePaused, "pause requested"); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()
	return c.sink.Pause()
}

// Stop pauses playback without changing the current index.
func (c *Controller) Stop() error {
	return c.Pause()
}

// TogglePlayPause flips between playing and paused.
func (c *Controller) TogglePlayPause() error {
	if c.State() == StatePlaying {
		return c.Pause()
	}
	return c.Play()
}

// SkipToIndex stops current playback and repositions. Segments are
// addressable, not gated: any index is reachable at any time. If the
// controller was playing, the new segment starts immediately;
// otherwise it stays paused at the new position.
func (c *Controller) SkipToIndex(i int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if i < 0 || i >= len(c.segments) {
		c.mu.Unlock()
		return fmt.Errorf("segment index %d out of range", i)
	}
	if c.state == StateCompleted {
		c.mu.Unlock()
		return nil
	}
	wasPlaying := c.state == StatePlaying
	c.current = i
	url := c.segments[i].StreamURL
	c.mu.Unlock()

	if err := c.sink.Pause(); err != nil {
		return err
	}
	if !wasPlaying {
		return nil
	}
	if err := c.startSegment(i, url); err != nil {
		return err
	}
	c.emit(Event{Type: EventSegmentStarted, Index: i, Timestamp: time.Now()})
	return nil
}

// SkipToEnd is the explicit "skip past the audio" action, distinct
// from per-segment navigation. It halts playback and completes the
// lesson audio in one step.
func (c *Controller) SkipToEnd() error {
	c.mu.Lock()
	if c.closed || c.state == StateCompleted {
		c.mu.Unlock()
		return nil
	}
	if err := c.transitionLocked(StateCompleted, "skip to end"); err != nil {
		c.mu.Unlock()
		return err
	}
	if len(c.segments) > 0 {
		c.current = len(c.segments) - 1
	}
	events := c.completionEventsLocked()
	c.mu.Unlock()

	_ = c.sink.Pause()
	c.emit(events...)
	return nil
}

// OnSegmentEnded is called by the audio transport when the current
// segment finishes naturally. The next segment begins immediately; a
// conversation reads naturally only without gaps. After the last
// segment the controller completes, exactly once.
func (c *Controller) OnSegmentEnded() {
	c.mu.Lock()
	if c.closed || c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	if c.current >= len(c.segments)-1 {
		if err := c.transitionLocked(StateCompleted, "last segment ended"); err != nil {
			c.mu.Unlock()
			return
		}
		events := c.completionEventsLocked()
		c.mu.Unlock()
		c.emit(events...)
		return
	}
	c.current++
	index := c.current
	url := c.segments[index].StreamURL
	c.mu.Unlock()

	if err := c.startSegment(index, url); err != nil {
		c.logger.Error("auto-advance failed",
			slog.Int("index", index),
			slog.String("error", err.Error()))
		return
	}
	c.emit(Event{Type: EventSegmentStarted, Index: index, Timestamp: time.Now()})
}

// Close tears the controller down on unmount. No events fire after
// Close, even if the sink signals a late "ended".
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.listeners = nil
	c.mu.Unlock()
	return c.sink.Pause()
}

func (c *Controller) startSegment(index int, url string) error {
	c.logger.Debug("segment starting", slog.Int("index", index))
	if err := c.sink.Load(url); err != nil {
		return err
	}
	return c.sink.Play()
}

func (c *Controller) completionEventsLocked() []Event {
	if c.completed {
		return nil
	}
	c.completed = true
	return []Event{{Type: EventCompleted, Index: c.current, Timestamp: time.Now()}}
}

func (c *Controller) emit(events ...Event) {
	c.mu.Lock()
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()
	for _, ev := range events {
		for _, l := range listeners {
			l.OnPlayback(ev)
		}
	}
}
