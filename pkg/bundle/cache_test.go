package bundle

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lessoncast/lessoncast/pkg/lesson"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func countingLoader(calls *int) Loader {
	return func(ctx context.Context, programID string, day int) (lesson.Lesson, []lesson.Segment, error) {
		*calls++
		return lesson.Lesson{ID: fmt.Sprintf("%s-%d", programID, day), ProgramID: programID, DayNumber: day},
			[]lesson.Segment{{AudioID: "a0"}}, nil
	}
}

func TestGetOrLoadCachesWithinTTL(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	cache := New(WithClock(clock.now))
	calls := 0
	load := countingLoader(&calls)

	first, err := cache.GetOrLoad(context.Background(), "prog", 1, load)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	clock.advance(299 * time.Second)
	second, err := cache.GetOrLoad(context.Background(), "prog", 1, load)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected cache hit inside TTL, loader ran %d times", calls)
	}
	if first.Lesson.ID != second.Lesson.ID {
		t.Fatalf("cached bundle differs: %q vs %q", first.Lesson.ID, second.Lesson.ID)
	}
}

func TestGetOrLoadRefetchesAfterTTL(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	cache := New(WithClock(clock.now))
	calls := 0
	load := countingLoader(&calls)

	if _, err := cache.GetOrLoad(context.Background(), "prog", 1, load); err != nil {
		t.Fatalf("load: %v", err)
	}
	clock.advance(301 * time.Second)
	if _, err := cache.GetOrLoad(context.Background(), "prog", 1, load); err != nil {
		t.Fatalf("load: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected stale entry to reload, loader ran %d times", calls)
	}
}

func TestGetOrLoadDistinctKeys(t *testing.T) {
	cache := New()
	calls := 0
	load := countingLoader(&calls)

	for day := 1; day <= 3; day++ {
		if _, err := cache.GetOrLoad(context.Background(), "prog", day, load); err != nil {
			t.Fatalf("load day %d: %v", day, err)
		}
	}
	if calls != 3 {
		t.Fatalf("expected one load per day, got %d", calls)
	}
	if cache.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", cache.Len())
	}
}

func TestLoaderErrorNotCached(t *testing.T) {
	cache := New()
	boom := errors.New("network down")
	failures := 0
	load := func(ctx context.Context, programID string, day int) (lesson.Lesson, []lesson.Segment, error) {
		failures++
		return lesson.Lesson{}, nil, boom
	}
	for i := 0; i < 2; i++ {
		if _, err := cache.GetOrLoad(context.Background(), "prog", 1, load); !errors.Is(err, boom) {
			t.Fatalf("expected loader error, got %v", err)
		}
	}
	if failures != 2 {
		t.Fatalf("expected failed load not cached, loader ran %d times", failures)
	}
	if cache.Len() != 0 {
		t.Fatalf("error cached as entry")
	}
}

func TestEvictionDropsOldestBatch(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	cache := New(WithClock(clock.now))
	calls := 0
	load := countingLoader(&calls)

	for day := 1; day <= 21; day++ {
		if _, err := cache.GetOrLoad(context.Background(), "prog", day, load); err != nil {
			t.Fatalf("load day %d: %v", day, err)
		}
		clock.advance(time.Second)
	}
	if cache.Len() != 11 {
		t.Fatalf("expected 21 entries reduced to 11, got %d", cache.Len())
	}

	// The oldest ten days were evicted; day 1 misses, day 21 still hits.
	before := calls
	if _, err := cache.GetOrLoad(context.Background(), "prog", 21, load); err != nil {
		t.Fatalf("load: %v", err)
	}
	if calls != before {
		t.Fatalf("expected newest entry to survive eviction")
	}
	if _, err := cache.GetOrLoad(context.Background(), "prog", 1, load); err != nil {
		t.Fatalf("load: %v", err)
	}
	if calls != before+1 {
		t.Fatalf("expected oldest entry evicted")
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	cache := New()
	calls := 0
	load := countingLoader(&calls)

	if _, err := cache.GetOrLoad(context.Background(), "prog", 1, load); err != nil {
		t.Fatalf("load: %v", err)
	}
	cache.Invalidate("prog", 1)
	if _, err := cache.GetOrLoad(context.Background(), "prog", 1, load); err != nil {
		t.Fatalf("load: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected invalidated entry to reload, loader ran %d times", calls)
	}
}
