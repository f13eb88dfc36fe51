package zhishi

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Feed holds the in-memory card list and its cursor. Generation never
// fails outward: when the model cannot be reached or returns garbage
// twice, the feed falls back to built-in cards and records the cause,
// retrievable via LastError.
type Feed struct {
	mu        sync.Mutex
	completer Completer
	store     *Store
	logger    *zap.Logger

	cards      []KnowledgeCard
	index      int
	generating bool
	hasMore    bool
	lastErr    error
	domains    []string
	epoch      uint64
}

// NewFeed creates a feed backed by the given completer and store.
func NewFeed(completer Completer, store *Store, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		completer: completer,
		store:     store,
		logger:    logger,
		hasMore:   true,
	}
}

// GenerateInitial populates the feed for the given domains: cache first,
// then remote generation, then the built-in fallback set. The cursor is
// restored from the store when the cache served the cards.
func (f *Feed) GenerateInitial(ctx context.Context, domains []string, count int) {
	f.mu.Lock()
	if f.generating {
		f.mu.Unlock()
		return
	}
	f.generating = true
	f.lastErr = nil
	f.domains = append([]string(nil), domains...)
	epoch := f.epoch
	f.mu.Unlock()

	start := time.Now()
	defer func() {
		f.logger.Debug("initial generation finished",
			zap.String("measure", "feed.initial"),
			zap.Duration("elapsed", time.Since(start)))
	}()

	if cards, err := f.store.GetCards(); err == nil {
		cursor, curErr := f.store.Cursor()
		if curErr != nil || cursor < 0 || cursor >= len(cards) {
			cursor = 0
		}
		f.apply(epoch, func() {
			f.cards = cards
			f.index = cursor
		})
		return
	} else if !errors.Is(err, ErrCacheMiss) && !errors.Is(err, ErrCacheExpired) {
		f.logger.Warn("card cache read failed", zap.Error(err))
	}

	cards := f.generateBatch(ctx, domains, nil, count)
	f.apply(epoch, func() {
		f.cards = cards
		f.index = 0
	})
	f.persist(cards)
}

// LoadMore appends another generated batch. It is a no-op while a prior
// generation round is still running. Failed rounds append fallback cards,
// so the feed always grows.
func (f *Feed) LoadMore(ctx context.Context, count int) {
	f.mu.Lock()
	if f.generating {
		f.mu.Unlock()
		return
	}
	f.generating = true
	f.lastErr = nil
	domains := append([]string(nil), f.domains...)
	existing := append([]KnowledgeCard(nil), f.cards...)
	epoch := f.epoch
	f.mu.Unlock()

	batch := f.generateBatch(ctx, domains, existing, count)
	var snapshot []KnowledgeCard
	f.apply(epoch, func() {
		f.cards = append(f.cards, batch...)
		snapshot = append([]KnowledgeCard(nil), f.cards...)
	})
	if snapshot != nil {
		f.persist(snapshot)
	}
}

// generateBatch runs the degradation ladder: normal prompt, strict retry,
// built-in fallback. It always returns cards.
func (f *Feed) generateBatch(ctx context.Context, domains []string, existing []KnowledgeCard, count int) []KnowledgeCard {
	if count <= 0 {
		count = DefaultCardBatch
	}

	raw, err := f.completer.Complete(ctx, cardBatchPrompt(domains, existing, count))
	if err == nil {
		if cards, ok := CoerceCards(domains, raw); ok {
			return cards
		}
		f.logger.Warn("card response not parseable, retrying with strict prompt")
	} else {
		f.logger.Warn("card generation failed, retrying with strict prompt", zap.Error(err))
	}

	raw, err = f.completer.Complete(ctx, strictCardPrompt)
	if err == nil {
		if cards, ok := CoerceCards(domains, raw); ok {
			return cards
		}
		err = errors.New("strict retry produced no valid cards")
	}

	f.logger.Warn("card generation exhausted, serving fallback", zap.Error(err))
	f.mu.Lock()
	f.lastErr = err
	f.mu.Unlock()
	return fallbackCards(domains, count)
}

// apply commits a mutation only if the feed has not been reset since the
// round started, then clears the generating flag.
func (f *Feed) apply(epoch uint64, mutate func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.epoch == epoch {
		mutate()
	}
	f.generating = false
}

func (f *Feed) persist(cards []KnowledgeCard) {
	if err := f.store.SaveCards(cards); err != nil {
		f.logger.Warn("card cache write failed", zap.Error(err))
	}
}

// Current returns the card under the cursor, or nil for an empty feed.
func (f *Feed) Current() *KnowledgeCard {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index < 0 || f.index >= len(f.cards) {
		return nil
	}
	card := f.cards[f.index]
	return &card
}

// Cards returns a copy of the feed's card list.
func (f *Feed) Cards() []KnowledgeCard {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]KnowledgeCard(nil), f.cards...)
}

// Len returns the number of cards in the feed.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cards)
}

// Index returns the cursor position.
func (f *Feed) Index() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index
}

// SetIndex moves the cursor, clamping to the valid range, and persists
// the position so a restart resumes on the same card.
func (f *Feed) SetIndex(i int) {
	f.mu.Lock()
	if len(f.cards) == 0 {
		f.index = 0
		f.mu.Unlock()
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= len(f.cards) {
		i = len(f.cards) - 1
	}
	f.index = i
	f.mu.Unlock()

	if err := f.store.SaveCursor(i); err != nil {
		f.logger.Warn("cursor write failed", zap.Error(err))
	}
}

// Advance moves the cursor one card forward if possible and reports
// whether it moved.
func (f *Feed) Advance() bool {
	f.mu.Lock()
	moved := f.index < len(f.cards)-1
	if moved {
		f.index++
	}
	i := f.index
	f.mu.Unlock()

	if moved {
		if err := f.store.SaveCursor(i); err != nil {
			f.logger.Warn("cursor write failed", zap.Error(err))
		}
	}
	return moved
}

// Retreat moves the cursor one card back if possible and reports whether
// it moved.
func (f *Feed) Retreat() bool {
	f.mu.Lock()
	moved := f.index > 0
	if moved {
		f.index--
	}
	i := f.index
	f.mu.Unlock()

	if moved {
		if err := f.store.SaveCursor(i); err != nil {
			f.logger.Warn("cursor write failed", zap.Error(err))
		}
	}
	return moved
}

// MaybePrefetch loads another batch when the cursor is within two cards
// of the end. It reports whether a load ran.
func (f *Feed) MaybePrefetch(ctx context.Context) bool {
	f.mu.Lock()
	trigger := len(f.cards) > 0 && !f.generating && f.hasMore && f.index >= len(f.cards)-2
	f.mu.Unlock()

	if !trigger {
		return false
	}
	f.LoadMore(ctx, DefaultCardBatch)
	return true
}

// IsGenerating reports whether a generation round is in flight.
func (f *Feed) IsGenerating() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generating
}

// HasMore reports whether the feed expects further batches.
func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

// LastError returns the error recorded by the most recent failed
// generation round, or nil. Serving fallback cards records the cause
// here instead of propagating it.
func (f *Feed) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Reset clears the feed and invalidates any in-flight generation round;
// a stale round's result is discarded when it lands.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.epoch++
	f.cards = nil
	f.index = 0
	f.generating = false
	f.hasMore = true
	f.lastErr = nil
}
