package zhishi

import (
	"go.uber.org/zap"
)

// Client is the top-level entry point: it owns the local store, the
// completion client, the card feed and the session controller.
type Client struct {
	config     Config
	store      *Store
	completion *CompletionClient
	feed       *Feed
	session    *SessionController
	logger     *zap.Logger
}

// New creates a client from the given config, applying defaults and
// opening the local store.
func New(cfg Config) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := NewStore(cfg.LocalPath, cfg.CacheTTL)
	if err != nil {
		return nil, err
	}

	completion := NewCompletionClient(cfg)

	return &Client{
		config:     cfg,
		store:      store,
		completion: completion,
		feed:       NewFeed(completion, store, cfg.Logger),
		session:    NewSessionController(completion, store, cfg.Logger),
		logger:     cfg.Logger,
	}, nil
}

// Feed returns the card feed.
func (c *Client) Feed() *Feed {
	return c.feed
}

// Session returns the learning-session controller.
func (c *Client) Session() *SessionController {
	return c.session
}

// Store returns the local store.
func (c *Client) Store() *Store {
	return c.store
}

// NewSwiper returns a gesture machine bound to the client's feed.
func (c *Client) NewSwiper() *Swiper {
	return NewSwiper(c.feed)
}

// ToggleLike flips the liked flag on a card and returns the new state.
func (c *Client) ToggleLike(cardID string) (bool, error) {
	return c.toggleFlag(cardID, FlagLiked)
}

// ToggleFavorite flips the favorited flag on a card and returns the new state.
func (c *Client) ToggleFavorite(cardID string) (bool, error) {
	return c.toggleFlag(cardID, FlagFavorited)
}

// MarkLearned sets the learned flag on a card.
func (c *Client) MarkLearned(cardID string) error {
	return c.store.SetFlag(cardID, FlagLearned)
}

func (c *Client) toggleFlag(cardID string, flag CardFlag) (bool, error) {
	set, err := c.store.HasFlag(cardID, flag)
	if err != nil {
		return false, err
	}
	if set {
		return false, c.store.ClearFlag(cardID, flag)
	}
	return true, c.store.SetFlag(cardID, flag)
}

// Stats returns local store statistics.
func (c *Client) Stats() (*StoreStats, error) {
	return c.store.Stats()
}

// Theme returns the stored UI theme.
func (c *Client) Theme() (string, error) {
	return c.store.Theme()
}

// SetTheme persists the UI theme.
func (c *Client) SetTheme(theme string) error {
	return c.store.SetTheme(theme)
}

// Close releases the client's resources.
func (c *Client) Close() error {
	return c.store.Close()
}
