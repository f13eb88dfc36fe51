package zhishi

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// SessionController runs one learning-mode conversation at a time: a
// transcript of batched multi-agent replies, a refreshing set of
// curiosity options, and a persisted session snapshot. Failures degrade
// rather than propagate: a failed reply batch leaves the transcript
// untouched, a failed option batch serves the static fallback set.
type SessionController struct {
	mu        sync.Mutex
	completer Completer
	store     *Store
	logger    *zap.Logger

	current      *LearningSession
	messages     []AgentMessage
	options      []CuriosityOption
	activeAgents []string
	loading      bool
	sending      bool
	epoch        uint64
}

// NewSessionController creates a session controller.
func NewSessionController(completer Completer, store *Store, logger *zap.Logger) *SessionController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionController{
		completer: completer,
		store:     store,
		logger:    logger,
	}
}

// Init starts a fresh session on the given card. Any previous session's
// in-flight work is invalidated; its late results are discarded. The
// card is recorded into the learning history, the domain-matched agent
// group posts its opening round, and the initial options load.
func (s *SessionController) Init(ctx context.Context, card *KnowledgeCard) {
	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.activeAgents = AgentGroupFor(card.Domain)
	agents := append([]string(nil), s.activeAgents...)
	s.messages = nil
	s.options = nil
	s.loading = true
	s.sending = false
	s.current = &LearningSession{
		ID:              ulid.Make().String(),
		CardID:          card.ID,
		StartTime:       time.Now(),
		Messages:        []AgentMessage{},
		SelectedOptions: []string{},
	}
	s.mu.Unlock()

	if err := s.store.RecordLearning(card.ID); err != nil {
		s.logger.Warn("learning history write failed", zap.Error(err))
	}

	start := time.Now()
	defer func() {
		s.logger.Debug("session init finished",
			zap.String("measure", "session.init"),
			zap.Duration("elapsed", time.Since(start)))
	}()

	var batch []AgentMessage
	raw, err := s.completer.Complete(ctx, multiAgentPrompt(card, agents))
	if err == nil {
		if msgs, ok := CoerceAgentMessages(card, agents, raw); ok {
			batch = msgs
		} else {
			s.logger.Warn("agent reply not parseable")
		}
	} else {
		s.logger.Warn("agent reply failed", zap.Error(err))
	}

	options := s.generateOptions(ctx, optionsPrompt(card, card.Title))

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.messages = batch
	s.options = options
	s.loading = false
	if s.current != nil {
		s.current.Messages = append([]AgentMessage(nil), batch...)
	}
	snapshot := s.current
	s.mu.Unlock()

	s.persist(snapshot)
}

// Send appends a user turn and requests the agents' reply batch plus a
// refreshed option set. Blank input is a no-op. The optimistic user entry
// stays in the transcript even when the reply batch fails.
func (s *SessionController) Send(ctx context.Context, card *KnowledgeCard, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return
	}
	s.sending = true
	epoch := s.epoch
	agents := append([]string(nil), s.activeAgents...)

	userMsg := AgentMessage{
		AgentID:       AgentUser,
		AgentName:     UserDisplayName,
		Message:       text,
		Timestamp:     time.Now(),
		MessageType:   MessageText,
		RelatedCardID: card.ID,
		IsUser:        true,
	}
	s.messages = append(s.messages, userMsg)
	if s.current != nil {
		s.current.Messages = append(s.current.Messages, userMsg)
	}
	history := append([]AgentMessage(nil), s.messages...)
	s.mu.Unlock()

	var batch []AgentMessage
	raw, err := s.completer.Complete(ctx, multiAgentPrompt(card, agents))
	if err == nil {
		if msgs, ok := CoerceAgentMessages(card, agents, raw); ok {
			batch = msgs
		} else {
			s.logger.Warn("agent reply not parseable")
		}
	} else {
		s.logger.Warn("agent reply failed", zap.Error(err))
	}

	history = append(history, batch...)
	options := s.generateOptions(ctx, nextOptionsPrompt(card, history))

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.messages = append(s.messages, batch...)
	s.options = options
	s.sending = false
	if s.current != nil {
		s.current.Messages = append(s.current.Messages, batch...)
	}
	snapshot := s.current
	s.mu.Unlock()

	s.persist(snapshot)
}

// SelectOption records the chosen option and sends its text as the user's
// next turn.
func (s *SessionController) SelectOption(ctx context.Context, card *KnowledgeCard, opt CuriosityOption) {
	s.mu.Lock()
	if s.current != nil {
		s.current.SelectedOptions = append(s.current.SelectedOptions, opt.ID)
	}
	s.mu.Unlock()

	s.Send(ctx, card, opt.Text)
}

// End completes and persists the current session, then clears the
// controller. In-flight work from the ended session is invalidated.
func (s *SessionController) End() {
	s.mu.Lock()
	s.epoch++
	snapshot := s.current
	if snapshot != nil {
		now := time.Now()
		snapshot.EndTime = &now
		snapshot.Completed = true
	}
	s.current = nil
	s.messages = nil
	s.options = nil
	s.activeAgents = nil
	s.loading = false
	s.sending = false
	s.mu.Unlock()

	s.persist(snapshot)
}

// generateOptions requests an option set, falling back to the static set
// on any failure.
func (s *SessionController) generateOptions(ctx context.Context, prompt string) []CuriosityOption {
	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("option generation failed, serving fallback", zap.Error(err))
		return fallbackOptions()
	}
	options, ok := CoerceOptions(raw)
	if !ok {
		s.logger.Warn("option response not parseable, serving fallback")
		return fallbackOptions()
	}
	return options
}

func (s *SessionController) persist(session *LearningSession) {
	if session == nil {
		return
	}
	if err := s.store.SaveSession(session); err != nil {
		s.logger.Warn("session write failed", zap.Error(err))
	}
}

// Messages returns a copy of the transcript.
func (s *SessionController) Messages() []AgentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AgentMessage(nil), s.messages...)
}

// Options returns a copy of the current option set.
func (s *SessionController) Options() []CuriosityOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CuriosityOption(nil), s.options...)
}

// ActiveAgents returns the session's agent group.
func (s *SessionController) ActiveAgents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.activeAgents...)
}

// IsLoading reports whether the opening round is in flight.
func (s *SessionController) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// IsSending reports whether a user turn is in flight.
func (s *SessionController) IsSending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// Current returns a copy of the active session snapshot, or nil.
func (s *SessionController) Current() *LearningSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	snapshot := *s.current
	snapshot.Messages = append([]AgentMessage(nil), s.current.Messages...)
	snapshot.SelectedOptions = append([]string(nil), s.current.SelectedOptions...)
	return &snapshot
}
