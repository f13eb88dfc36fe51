package zhishi

import (
	"context"
	"sync"
	"time"
)

// SwipeState is the gesture machine's phase.
type SwipeState int

const (
	SwipeIdle SwipeState = iota
	SwipeDragging
	SwipeTransitioning
)

// SwipeDirection labels a committed gesture.
type SwipeDirection int

const (
	DirectionNone SwipeDirection = iota
	DirectionUp
	DirectionDown
)

const (
	// dampingFactor scales raw finger travel into visual offset.
	dampingFactor = 0.8

	// cursorDelay is how long after commit the feed cursor moves.
	cursorDelay = 460 * time.Millisecond

	// releaseDelay is how long after commit the machine accepts the next
	// gesture.
	releaseDelay = 640 * time.Millisecond
)

// Frame is the render snapshot of an in-progress gesture: the damped
// offset of the current card and which neighbor peeks from which edge.
// Ghost is -1 when no neighbor shows.
type Frame struct {
	Offset         float64
	Ghost          int
	GhostDirection SwipeDirection
}

// Outcome reports what a released gesture did.
type Outcome struct {
	Committed     bool
	Direction     SwipeDirection
	FromIndex     int
	ToIndex       int
	LoadRequested bool
}

// Swiper drives the vertical swipe gesture over a feed. A commit runs a
// two-stage release: the cursor moves after cursorDelay, and the machine
// returns to idle after releaseDelay. Gestures that start during the
// transition window are ignored.
type Swiper struct {
	mu        sync.Mutex
	feed      *Feed
	state     SwipeState
	startX    float64
	startY    float64
	startTime time.Time
	offset    float64
	ghost     int
	ghostDir  SwipeDirection

	// after schedules the post-commit choreography; replaced in tests.
	after func(time.Duration, func())
}

// NewSwiper creates a gesture machine bound to the feed.
func NewSwiper(feed *Feed) *Swiper {
	return &Swiper{
		feed:  feed,
		ghost: -1,
		after: func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
	}
}

// State returns the machine's phase.
func (sw *Swiper) State() SwipeState {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.state
}

// Begin starts tracking a touch. It is ignored unless the machine is idle.
func (sw *Swiper) Begin(x, y float64, at time.Time) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.state != SwipeIdle {
		return
	}
	sw.state = SwipeDragging
	sw.startX = x
	sw.startY = y
	sw.startTime = at
	sw.offset = 0
	sw.ghost = -1
	sw.ghostDir = DirectionNone
}

// Move updates the gesture with the current touch point and returns the
// render frame. Horizontal-dominant movement keeps the card in place so
// horizontal scrolling inside a card is not hijacked.
func (sw *Swiper) Move(x, y float64) Frame {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.state != SwipeDragging {
		return Frame{Offset: sw.offset, Ghost: sw.ghost, GhostDirection: sw.ghostDir}
	}

	dx := x - sw.startX
	dy := y - sw.startY
	if abs(dy) <= abs(dx) {
		sw.offset = 0
		sw.ghost = -1
		sw.ghostDir = DirectionNone
		return Frame{Offset: 0, Ghost: -1, GhostDirection: DirectionNone}
	}

	sw.offset = dy * dampingFactor

	index := sw.feed.Index()
	length := sw.feed.Len()
	sw.ghost = -1
	sw.ghostDir = DirectionNone
	if dy < 0 && index+1 < length {
		sw.ghost = index + 1
		sw.ghostDir = DirectionUp
	} else if dy > 0 && index > 0 {
		sw.ghost = index - 1
		sw.ghostDir = DirectionDown
	}
	return Frame{Offset: sw.offset, Ghost: sw.ghost, GhostDirection: sw.ghostDir}
}

// End releases the gesture and decides whether it commits. The commit
// threshold shrinks with gesture speed, so a quick flick needs less
// travel than a slow drag. An up-swipe past the last card requests
// another batch and re-lands on the same index while it loads. When the
// cursor update lands near the end of the feed, the next batch is
// prefetched without the caller's involvement.
func (sw *Swiper) End(at time.Time) Outcome {
	sw.mu.Lock()

	if sw.state != SwipeDragging {
		sw.mu.Unlock()
		return Outcome{}
	}

	offset := sw.offset
	elapsed := at.Sub(sw.startTime).Milliseconds()
	if elapsed < 1 {
		elapsed = 1
	}
	speed := abs(offset) / float64(elapsed)
	threshold := max(40, 100-min(60, speed*250))

	index := sw.feed.Index()
	length := sw.feed.Len()

	var out Outcome
	out.FromIndex = index
	out.ToIndex = index

	switch {
	case offset < -threshold && index+1 < length:
		out = Outcome{Committed: true, Direction: DirectionUp, FromIndex: index, ToIndex: index + 1}
	case offset < -threshold && index+1 >= length && sw.feed.HasMore() && !sw.feed.IsGenerating():
		// Past the end: hold position and fetch the next batch.
		out = Outcome{Committed: true, Direction: DirectionUp, FromIndex: index, ToIndex: index, LoadRequested: true}
	case offset > threshold && index > 0:
		out = Outcome{Committed: true, Direction: DirectionDown, FromIndex: index, ToIndex: index - 1}
	}

	if !out.Committed {
		sw.state = SwipeIdle
		sw.offset = 0
		sw.ghost = -1
		sw.ghostDir = DirectionNone
		sw.mu.Unlock()
		return out
	}

	sw.state = SwipeTransitioning
	to := out.ToIndex
	sw.mu.Unlock()

	if out.LoadRequested {
		go sw.feed.LoadMore(context.Background(), DefaultCardBatch)
	}

	sw.after(cursorDelay, func() {
		sw.feed.SetIndex(to)
		sw.mu.Lock()
		sw.offset = 0
		sw.ghost = -1
		sw.ghostDir = DirectionNone
		sw.mu.Unlock()
		sw.feed.MaybePrefetch(context.Background())
	})
	sw.after(releaseDelay, func() {
		sw.mu.Lock()
		if sw.state == SwipeTransitioning {
			sw.state = SwipeIdle
		}
		sw.mu.Unlock()
	})
	return out
}

// Cancel aborts an in-progress drag without committing.
func (sw *Swiper) Cancel() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.state != SwipeDragging {
		return
	}
	sw.state = SwipeIdle
	sw.offset = 0
	sw.ghost = -1
	sw.ghostDir = DirectionNone
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
