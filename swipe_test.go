package zhishi

import (
	"context"
	"testing"
	"time"
)

// manualClock collects scheduled callbacks so tests can fire the
// post-commit choreography deterministically.
type manualClock struct {
	scheduled []func()
}

func (c *manualClock) after(d time.Duration, fn func()) {
	c.scheduled = append(c.scheduled, fn)
}

func (c *manualClock) fire(t *testing.T, i int) {
	t.Helper()
	if i >= len(c.scheduled) {
		t.Fatalf("no scheduled callback %d (have %d)", i, len(c.scheduled))
	}
	c.scheduled[i]()
}

func newTestSwiper(t *testing.T, cardCount int) (*Swiper, *Feed, *manualClock) {
	t.Helper()
	completer := &scriptedCompleter{responses: []string{cardsJSON(cardCount, "gen")}}
	feed, _ := newTestFeed(t, completer)
	feed.GenerateInitial(context.Background(), []string{"科学"}, cardCount)

	clock := &manualClock{}
	sw := NewSwiper(feed)
	sw.after = clock.after
	return sw, feed, clock
}

// TestSwiper_HorizontalIgnored verifies that horizontal-dominant movement
// produces no offset and no ghost.
func TestSwiper_HorizontalIgnored(t *testing.T) {
	sw, _, _ := newTestSwiper(t, 3)

	start := time.Now()
	sw.Begin(100, 100, start)
	frame := sw.Move(180, 130)

	if frame.Offset != 0 {
		t.Errorf("offset = %v, want 0 for horizontal movement", frame.Offset)
	}
	if frame.Ghost != -1 {
		t.Errorf("ghost = %d, want -1", frame.Ghost)
	}

	out := sw.End(start.Add(100 * time.Millisecond))
	if out.Committed {
		t.Error("horizontal gesture should not commit")
	}
	if sw.State() != SwipeIdle {
		t.Error("machine should return to idle")
	}
}

// TestSwiper_DampedOffsetAndGhost verifies vertical tracking: damped
// offset and the correct peeking neighbor.
func TestSwiper_DampedOffsetAndGhost(t *testing.T) {
	sw, feed, _ := newTestSwiper(t, 3)
	feed.SetIndex(1)

	start := time.Now()
	sw.Begin(100, 300, start)

	frame := sw.Move(102, 200) // dy = -100, swipe up
	if frame.Offset != -80 {
		t.Errorf("offset = %v, want -80 (damped)", frame.Offset)
	}
	if frame.Ghost != 2 || frame.GhostDirection != DirectionUp {
		t.Errorf("ghost = %d/%v, want 2/up", frame.Ghost, frame.GhostDirection)
	}

	frame = sw.Move(102, 400) // dy = +100, swipe down
	if frame.Offset != 80 {
		t.Errorf("offset = %v, want 80", frame.Offset)
	}
	if frame.Ghost != 0 || frame.GhostDirection != DirectionDown {
		t.Errorf("ghost = %d/%v, want 0/down", frame.Ghost, frame.GhostDirection)
	}
}

// TestSwiper_NoGhostAtEdges verifies that no neighbor peeks past either
// end of the feed.
func TestSwiper_NoGhostAtEdges(t *testing.T) {
	sw, feed, _ := newTestSwiper(t, 2)

	start := time.Now()
	sw.Begin(100, 300, start)
	frame := sw.Move(100, 400) // swipe down at index 0
	if frame.Ghost != -1 {
		t.Errorf("ghost = %d, want -1 at the first card", frame.Ghost)
	}
	sw.Cancel()

	feed.SetIndex(1)
	sw.Begin(100, 300, start)
	frame = sw.Move(100, 200) // swipe up at the last card
	if frame.Ghost != -1 {
		t.Errorf("ghost = %d, want -1 at the last card", frame.Ghost)
	}
}

// TestSwiper_CommitUp verifies a slow-drag commit and the two-stage
// release: cursor after the first delay, idle after the second.
func TestSwiper_CommitUp(t *testing.T) {
	sw, feed, clock := newTestSwiper(t, 3)

	start := time.Now()
	sw.Begin(100, 500, start)
	sw.Move(100, 320) // dy = -180, offset = -144, past any threshold

	out := sw.End(start.Add(2 * time.Second))
	if !out.Committed || out.Direction != DirectionUp {
		t.Fatalf("outcome = %+v, want committed up", out)
	}
	if out.FromIndex != 0 || out.ToIndex != 1 {
		t.Errorf("indices = %d→%d, want 0→1", out.FromIndex, out.ToIndex)
	}
	if sw.State() != SwipeTransitioning {
		t.Fatal("machine should be transitioning after commit")
	}
	if feed.Index() != 0 {
		t.Error("cursor should not move before the transition delay")
	}

	// A new gesture during the transition is ignored.
	sw.Begin(0, 0, start)
	if sw.State() != SwipeTransitioning {
		t.Error("Begin during transition should be ignored")
	}

	clock.fire(t, 0)
	if feed.Index() != 1 {
		t.Errorf("index = %d, want 1 after cursor delay", feed.Index())
	}
	if sw.State() != SwipeTransitioning {
		t.Error("machine stays locked until the release delay")
	}

	clock.fire(t, 1)
	if sw.State() != SwipeIdle {
		t.Error("machine should be idle after the release delay")
	}
}

// TestSwiper_CommitDown verifies the downward commit path.
func TestSwiper_CommitDown(t *testing.T) {
	sw, feed, clock := newTestSwiper(t, 3)
	feed.SetIndex(2)

	start := time.Now()
	sw.Begin(100, 200, start)
	sw.Move(100, 380)

	out := sw.End(start.Add(2 * time.Second))
	if !out.Committed || out.Direction != DirectionDown {
		t.Fatalf("outcome = %+v, want committed down", out)
	}
	if out.ToIndex != 1 {
		t.Errorf("to = %d, want 1", out.ToIndex)
	}

	clock.fire(t, 0)
	if feed.Index() != 1 {
		t.Errorf("index = %d, want 1", feed.Index())
	}
}

// TestSwiper_FlickThreshold verifies that a fast flick commits with less
// travel than a slow drag needs.
func TestSwiper_FlickThreshold(t *testing.T) {
	sw, _, clock := newTestSwiper(t, 3)

	// 75px travel → offset -60. Slow: threshold stays near 100, no commit.
	start := time.Now()
	sw.Begin(100, 500, start)
	sw.Move(100, 425)
	out := sw.End(start.Add(2 * time.Second))
	if out.Committed {
		t.Fatal("slow 60px offset should not commit")
	}

	// Same travel in 60ms → speed 1.0 → threshold floors at 40, commits.
	start = time.Now()
	sw.Begin(100, 500, start)
	sw.Move(100, 425)
	out = sw.End(start.Add(60 * time.Millisecond))
	if !out.Committed || out.Direction != DirectionUp {
		t.Fatalf("fast flick should commit, got %+v", out)
	}
	clock.fire(t, 0)
	clock.fire(t, 1)
}

// TestSwiper_PastEndRequestsLoad verifies the up-swipe past the last card:
// the gesture commits in place and requests another batch.
func TestSwiper_PastEndRequestsLoad(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		cardsJSON(2, "first"),
		cardsJSON(3, "second"),
	}}
	feed, _ := newTestFeed(t, completer)
	feed.GenerateInitial(context.Background(), []string{"科学"}, 2)
	feed.SetIndex(1)

	clock := &manualClock{}
	sw := NewSwiper(feed)
	sw.after = clock.after

	start := time.Now()
	sw.Begin(100, 500, start)
	sw.Move(100, 300)
	out := sw.End(start.Add(2 * time.Second))

	if !out.Committed || !out.LoadRequested {
		t.Fatalf("outcome = %+v, want committed with load request", out)
	}
	if out.ToIndex != out.FromIndex {
		t.Errorf("past-end commit should hold position, got %d→%d", out.FromIndex, out.ToIndex)
	}

	// The load runs on its own goroutine; wait for it to land.
	deadline := time.Now().Add(2 * time.Second)
	for feed.Len() < 5 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if feed.Len() != 5 {
		t.Errorf("feed length = %d, want 5 after requested load", feed.Len())
	}

	clock.fire(t, 0)
	clock.fire(t, 1)
	if sw.State() != SwipeIdle {
		t.Error("machine should be idle")
	}
}

// TestSwiper_CommitNearEndPrefetches verifies that the cursor update after
// a commit prefetches the next batch when it lands within two cards of the
// end, without the caller asking for it.
func TestSwiper_CommitNearEndPrefetches(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		cardsJSON(3, "first"),
		cardsJSON(4, "second"),
	}}
	feed, _ := newTestFeed(t, completer)
	feed.GenerateInitial(context.Background(), []string{"科学"}, 3)

	clock := &manualClock{}
	sw := NewSwiper(feed)
	sw.after = clock.after

	start := time.Now()
	sw.Begin(100, 500, start)
	sw.Move(100, 320)
	out := sw.End(start.Add(2 * time.Second))
	if !out.Committed || out.ToIndex != 1 {
		t.Fatalf("outcome = %+v, want committed to index 1", out)
	}
	if out.LoadRequested {
		t.Error("a mid-feed commit should not request a load itself")
	}

	clock.fire(t, 0)
	if feed.Index() != 1 {
		t.Errorf("index = %d, want 1 after cursor delay", feed.Index())
	}
	if feed.Len() != 7 {
		t.Errorf("feed length = %d, want 7 after the prefetched batch", feed.Len())
	}

	clock.fire(t, 1)
	if sw.State() != SwipeIdle {
		t.Error("machine should be idle")
	}
}

// TestSwiper_BelowThresholdResets verifies that a small drag snaps back.
func TestSwiper_BelowThresholdResets(t *testing.T) {
	sw, feed, _ := newTestSwiper(t, 3)

	start := time.Now()
	sw.Begin(100, 500, start)
	sw.Move(100, 470) // offset -24, under any threshold

	out := sw.End(start.Add(time.Second))
	if out.Committed {
		t.Error("small drag should not commit")
	}
	if sw.State() != SwipeIdle {
		t.Error("machine should be idle")
	}
	if feed.Index() != 0 {
		t.Error("cursor should not move")
	}
}
