package zhishi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// scriptedCompleter returns queued responses in order; a response starting
// with "ERR:" becomes an error. The queue's last entry repeats once
// exhausted.
type scriptedCompleter struct {
	mu        sync.Mutex
	responses []string
	prompts   []string
}

func (c *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prompts = append(c.prompts, prompt)
	if len(c.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	resp := c.responses[0]
	if len(c.responses) > 1 {
		c.responses = c.responses[1:]
	}
	if rest, ok := strings.CutPrefix(resp, "ERR:"); ok {
		return "", errors.New(rest)
	}
	return resp, nil
}

func (c *scriptedCompleter) promptCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

func cardsJSON(n int, prefix string) string {
	var b strings.Builder
	b.WriteString(`{"cards":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"id":"%s_%d","title":"%s标题%d","content":"内容%d","category":"科学","difficulty":"medium"}`, prefix, i, prefix, i, i)
	}
	b.WriteString("]}")
	return b.String()
}

func newTestFeed(t *testing.T, completer Completer) (*Feed, *Store) {
	t.Helper()
	store := newTestStore(t, time.Hour)
	return NewFeed(completer, store, nil), store
}

// TestGenerateInitial_FromModel verifies a clean generation round: cards
// land in the feed and persist to the cache.
func TestGenerateInitial_FromModel(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{cardsJSON(5, "gen")}}
	feed, store := newTestFeed(t, completer)

	feed.GenerateInitial(context.Background(), []string{"科学"}, 5)

	if feed.Len() != 5 {
		t.Fatalf("feed length = %d, want 5", feed.Len())
	}
	if feed.Index() != 0 {
		t.Errorf("index = %d, want 0", feed.Index())
	}
	if feed.LastError() != nil {
		t.Errorf("LastError = %v, want nil", feed.LastError())
	}
	if feed.IsGenerating() {
		t.Error("generating flag should clear")
	}

	cached, err := store.GetCards()
	if err != nil {
		t.Fatalf("cache should be written: %v", err)
	}
	if len(cached) != 5 {
		t.Errorf("cached %d cards, want 5", len(cached))
	}
}

// TestGenerateInitial_CacheFirst verifies that a warm cache short-circuits
// generation and restores the cursor.
func TestGenerateInitial_CacheFirst(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{cardsJSON(5, "gen")}}
	feed, store := newTestFeed(t, completer)

	if err := store.SaveCards(testCards(4)); err != nil {
		t.Fatalf("SaveCards failed: %v", err)
	}
	if err := store.SaveCursor(2); err != nil {
		t.Fatalf("SaveCursor failed: %v", err)
	}

	feed.GenerateInitial(context.Background(), []string{"科学"}, 5)

	if feed.Len() != 4 {
		t.Fatalf("feed length = %d, want 4 cached cards", feed.Len())
	}
	if feed.Index() != 2 {
		t.Errorf("index = %d, want restored cursor 2", feed.Index())
	}
	if completer.promptCount() != 0 {
		t.Errorf("completer called %d times, want 0", completer.promptCount())
	}
}

// TestGenerateInitial_StrictRetry verifies the second chance: garbage
// first, valid JSON on the strict prompt.
func TestGenerateInitial_StrictRetry(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		"完全不是JSON的回答",
		cardsJSON(3, "strict"),
	}}
	feed, _ := newTestFeed(t, completer)

	feed.GenerateInitial(context.Background(), []string{"科学"}, 3)

	if feed.Len() != 3 {
		t.Fatalf("feed length = %d, want 3", feed.Len())
	}
	if feed.LastError() != nil {
		t.Errorf("LastError = %v, want nil after successful retry", feed.LastError())
	}
	if got := completer.promptCount(); got != 2 {
		t.Errorf("completer called %d times, want 2", got)
	}
}

// TestGenerateInitial_Fallback verifies that two failed rounds serve the
// built-in cards and record the cause.
func TestGenerateInitial_Fallback(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{"ERR:boom", "ERR:boom again"}}
	feed, _ := newTestFeed(t, completer)

	feed.GenerateInitial(context.Background(), []string{"历史"}, 5)

	if feed.Len() == 0 {
		t.Fatal("fallback cards should fill the feed")
	}
	if feed.LastError() == nil {
		t.Error("LastError should record the failure")
	}
	card := feed.Current()
	if card == nil || card.AIGenerated {
		t.Errorf("fallback cards should not be marked aiGenerated: %+v", card)
	}
	if card.Domain != "历史" {
		t.Errorf("fallback domain = %q, want 历史", card.Domain)
	}
}

// TestLoadMore_Appends verifies that a second batch extends the feed and
// the cache.
func TestLoadMore_Appends(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		cardsJSON(5, "first"),
		cardsJSON(5, "second"),
	}}
	feed, store := newTestFeed(t, completer)

	ctx := context.Background()
	feed.GenerateInitial(ctx, []string{"科学"}, 5)
	feed.LoadMore(ctx, 5)

	if feed.Len() != 10 {
		t.Fatalf("feed length = %d, want 10", feed.Len())
	}
	if feed.Index() != 0 {
		t.Errorf("index = %d, LoadMore should not move the cursor", feed.Index())
	}

	cached, err := store.GetCards()
	if err != nil {
		t.Fatalf("GetCards failed: %v", err)
	}
	if len(cached) != 10 {
		t.Errorf("cached %d cards, want 10", len(cached))
	}
}

// TestLoadMore_ContinuationPrompt verifies that the follow-up prompt quotes
// recent card titles.
func TestLoadMore_ContinuationPrompt(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		cardsJSON(5, "first"),
		cardsJSON(5, "second"),
	}}
	feed, _ := newTestFeed(t, completer)

	ctx := context.Background()
	feed.GenerateInitial(ctx, []string{"科学"}, 5)
	feed.LoadMore(ctx, 5)

	completer.mu.Lock()
	prompt := completer.prompts[len(completer.prompts)-1]
	completer.mu.Unlock()

	if !strings.Contains(prompt, "first标题4") {
		t.Errorf("continuation prompt should quote the latest card title, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "first标题0") {
		t.Error("continuation prompt should only quote the trailing window")
	}
}

// TestMaybePrefetch verifies the near-end trigger.
func TestMaybePrefetch(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		cardsJSON(5, "first"),
		cardsJSON(5, "second"),
	}}
	feed, _ := newTestFeed(t, completer)

	ctx := context.Background()
	feed.GenerateInitial(ctx, []string{"科学"}, 5)

	if feed.MaybePrefetch(ctx) {
		t.Error("prefetch should not trigger at index 0 of 5")
	}

	feed.SetIndex(3)
	if !feed.MaybePrefetch(ctx) {
		t.Fatal("prefetch should trigger within two cards of the end")
	}
	if feed.Len() != 10 {
		t.Errorf("feed length = %d, want 10 after prefetch", feed.Len())
	}
}

// TestSetIndex_Clamps verifies cursor clamping and persistence.
func TestSetIndex_Clamps(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{cardsJSON(3, "gen")}}
	feed, store := newTestFeed(t, completer)
	feed.GenerateInitial(context.Background(), []string{"科学"}, 3)

	feed.SetIndex(99)
	if feed.Index() != 2 {
		t.Errorf("index = %d, want clamped to 2", feed.Index())
	}
	feed.SetIndex(-5)
	if feed.Index() != 0 {
		t.Errorf("index = %d, want clamped to 0", feed.Index())
	}

	feed.SetIndex(1)
	cursor, err := store.Cursor()
	if err != nil {
		t.Fatalf("Cursor failed: %v", err)
	}
	if cursor != 1 {
		t.Errorf("persisted cursor = %d, want 1", cursor)
	}
}

// TestAdvanceRetreat verifies cursor stepping at the boundaries.
func TestAdvanceRetreat(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{cardsJSON(2, "gen")}}
	feed, _ := newTestFeed(t, completer)
	feed.GenerateInitial(context.Background(), []string{"科学"}, 2)

	if feed.Retreat() {
		t.Error("Retreat at index 0 should report false")
	}
	if !feed.Advance() {
		t.Error("Advance should succeed")
	}
	if feed.Advance() {
		t.Error("Advance at the last card should report false")
	}
	if !feed.Retreat() {
		t.Error("Retreat should succeed")
	}
	if feed.Index() != 0 {
		t.Errorf("index = %d, want 0", feed.Index())
	}
}

// TestReset verifies that Reset clears the feed and new rounds start fresh.
func TestReset(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		cardsJSON(3, "first"),
		cardsJSON(4, "second"),
	}}
	feed, store := newTestFeed(t, completer)

	ctx := context.Background()
	feed.GenerateInitial(ctx, []string{"科学"}, 3)
	feed.Reset()

	if feed.Len() != 0 {
		t.Fatalf("feed length = %d, want 0 after reset", feed.Len())
	}

	// The cached batch from the first round is still on disk; clear it so
	// the next round generates.
	if err := store.ClearCards(); err != nil {
		t.Fatalf("ClearCards failed: %v", err)
	}
	feed.GenerateInitial(ctx, []string{"科学"}, 4)
	if feed.Len() != 4 {
		t.Errorf("feed length = %d, want 4", feed.Len())
	}
}

// gatedCompleter parks every call until released.
type gatedCompleter struct {
	gate     chan struct{}
	response string

	mu    sync.Mutex
	calls int
}

func (c *gatedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	<-c.gate
	return c.response, nil
}

func (c *gatedCompleter) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// TestLoadMore_IdempotentWhileGenerating verifies that LoadMore and
// MaybePrefetch are no-ops while a round is already in flight: the model
// sees exactly one call and the feed grows by exactly one batch.
func TestLoadMore_IdempotentWhileGenerating(t *testing.T) {
	blocker := &gatedCompleter{gate: make(chan struct{}), response: cardsJSON(5, "more")}
	feed, store := newTestFeed(t, blocker)

	// Warm the cache so the initial round never touches the completer.
	if err := store.SaveCards(testCards(5)); err != nil {
		t.Fatalf("SaveCards failed: %v", err)
	}
	ctx := context.Background()
	feed.GenerateInitial(ctx, []string{"科学"}, 5)
	if got := blocker.callCount(); got != 0 {
		t.Fatalf("completer called %d times during cached startup, want 0", got)
	}
	feed.SetIndex(3)

	done := make(chan struct{})
	go func() {
		feed.LoadMore(ctx, 5)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !feed.IsGenerating() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !feed.IsGenerating() {
		t.Fatal("first LoadMore never started")
	}

	feed.LoadMore(ctx, 5)
	if feed.MaybePrefetch(ctx) {
		t.Error("MaybePrefetch should decline while a round is in flight")
	}

	close(blocker.gate)
	<-done

	if got := blocker.callCount(); got != 1 {
		t.Errorf("completer called %d times, want 1", got)
	}
	if feed.Len() != 10 {
		t.Errorf("feed length = %d, want 10 (one appended batch)", feed.Len())
	}
}

// TestReset_DiscardsInFlightGeneration verifies that a batch landing after
// Reset does not repopulate the cleared feed.
func TestReset_DiscardsInFlightGeneration(t *testing.T) {
	blocker := &gatedCompleter{gate: make(chan struct{}), response: cardsJSON(5, "late")}
	feed, _ := newTestFeed(t, blocker)

	done := make(chan struct{})
	go func() {
		feed.GenerateInitial(context.Background(), []string{"科学"}, 5)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !feed.IsGenerating() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	feed.Reset()
	close(blocker.gate)
	<-done

	if feed.Len() != 0 {
		t.Errorf("feed length = %d, want 0 after Reset discarded the late batch", feed.Len())
	}
}
