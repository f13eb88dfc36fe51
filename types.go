package zhishi

import "time"

// KnowledgeCard is one unit of generated educational content shown
// full-screen in the feed.
type KnowledgeCard struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	Difficulty     Difficulty `json:"difficulty"`
	Category       string     `json:"category"`
	SubCategory    string     `json:"subCategory"`
	Domain         string     `json:"domain"`
	RelatedDomains []string   `json:"relatedDomains"`
	Tags           []string   `json:"tags"`
	AIGenerated    bool       `json:"aiGenerated"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Difficulty classifies how demanding a card is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid checks if the difficulty is one of the known levels.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// MessageType classifies a transcript entry.
type MessageType string

const (
	MessageText       MessageType = "text"
	MessageQuestion   MessageType = "question"
	MessageSuggestion MessageType = "suggestion"
)

// AgentMessage is one turn in a learning-session transcript, attributed
// either to a simulated agent or to the user.
type AgentMessage struct {
	AgentID       string      `json:"agentId"`
	AgentName     string      `json:"agentName"`
	Message       string      `json:"message"`
	Timestamp     time.Time   `json:"timestamp"`
	MessageType   MessageType `json:"messageType"`
	RelatedCardID string      `json:"relatedCardId"`
	IsUser        bool        `json:"isUser,omitempty"`
}

// CuriosityOption is a pre-written next question the user can select
// instead of typing.
type CuriosityOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Curiosity string `json:"curiosity"`
	NextTopic string `json:"nextTopic"`
}

// LearningSession is the persisted snapshot of one learning-mode
// conversation on a single card.
type LearningSession struct {
	ID              string         `json:"id"`
	CardID          string         `json:"cardId"`
	StartTime       time.Time      `json:"startTime"`
	EndTime         *time.Time     `json:"endTime,omitempty"`
	Messages        []AgentMessage `json:"messages"`
	SelectedOptions []string       `json:"selectedOptions"`
	Completed       bool           `json:"completed"`
}

// DomainType groups taxonomy entries by flavor.
type DomainType string

const (
	DomainClassic          DomainType = "classic"
	DomainCounterintuitive DomainType = "counterintuitive"
	DomainFun              DomainType = "fun"
)

// KnowledgeDomain is static taxonomy reference data, loaded once at startup.
type KnowledgeDomain struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Icon           string     `json:"icon"`
	Color          string     `json:"color"`
	SubCategories  []string   `json:"subCategories"`
	Type           DomainType `json:"type"`
	Description    string     `json:"description"`
	AttractionTags []string   `json:"attractionTags"`
}

// Preferences is the persisted user-preference record.
type Preferences struct {
	Difficulty   Difficulty `json:"difficulty"`
	AutoPlay     bool       `json:"autoPlay"`
	SoundEnabled bool       `json:"soundEnabled"`
}

// CardFlag annotates a card outside the immutable feed entry.
type CardFlag string

const (
	FlagLiked     CardFlag = "liked"
	FlagFavorited CardFlag = "favorited"
	FlagLearned   CardFlag = "learned"
)

// StoreStats contains statistics about the local store.
type StoreStats struct {
	CardCount      int       `json:"card_count"`
	SessionCount   int       `json:"session_count"`
	HistoryCount   int       `json:"history_count"`
	CardsUpdatedAt time.Time `json:"cards_updated_at"`
	SchemaVersion  string    `json:"schema_version"`
}

const (
	// DefaultCardBatch is how many cards one generation round requests.
	DefaultCardBatch = 5

	// continuationRatio is the share of a batch framed to the model as
	// deepenings of recent cards; the remainder is framed as novel topics.
	continuationRatio = 0.7

	// recentCardWindow is how many trailing cards seed the continuation prompt.
	recentCardWindow = 3

	// contentPrefixRunes is how much card content the continuation prompt quotes.
	contentPrefixRunes = 50

	// MaxLearningHistory caps the persisted learning-history list.
	MaxLearningHistory = 100

	// sessionRetention is how long completed sessions are kept in the store.
	sessionRetention = 30 * 24 * time.Hour

	// fallbackCategory labels coerced cards when the model and the caller
	// both omit a taxonomy label.
	fallbackCategory = "综合"
)
