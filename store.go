package zhishi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/zhishilabs/zhishi/internal/store/migrations"
)

const schemaVersion = "1"

// Store manages the local SQLite cache: the card feed, learning sessions,
// learning history, taxonomy, preferences and per-card flags.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
	ttl    time.Duration
}

// NewStore opens or creates the local store at path. Cached cards older
// than ttl are treated as expired on read. Opening also seeds the default
// taxonomy if the domains table is empty and prunes sessions past the
// retention window.
func NewStore(path string, ttl time.Duration) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	store := &Store{db: db, path: path, ttl: ttl}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	if err := store.seedDomains(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed domains: %w", err)
	}

	// Expired sessions are pruned opportunistically; a failure here never
	// blocks opening the store.
	_, _ = store.CleanupSessions(sessionRetention)

	return store, nil
}

func (s *Store) migrate() error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("store: set goose dialect: %w", err)
	}
	if err := goose.Up(s.db, "."); err != nil {
		return fmt.Errorf("store: run migrations: %w", err)
	}

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', ?)
	`, schemaVersion)
	return err
}

func (s *Store) seedDomains() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM domains`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return s.saveDomainsLocked(DefaultDomains())
}

// SaveCards replaces the cached card feed atomically and stamps the
// cache timestamp.
func (s *Store) SaveCards(cards []KnowledgeCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &StorageError{Op: "save cards", Err: err}
	}
	defer tx.Rollback() // no-op if committed

	if _, err := tx.Exec(`DELETE FROM card_cache`); err != nil {
		return &StorageError{Op: "save cards", Err: err}
	}
	for i, card := range cards {
		payload, err := json.Marshal(card)
		if err != nil {
			return &StorageError{Op: "save cards", Err: err}
		}
		if _, err := tx.Exec(`
			INSERT INTO card_cache (position, payload) VALUES (?, ?)
		`, i, string(payload)); err != nil {
			return &StorageError{Op: "save cards", Err: err}
		}
	}
	if _, err := tx.Exec(`
		INSERT INTO metadata (key, value) VALUES ('cards_last_updated', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return &StorageError{Op: "save cards", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "save cards", Err: err}
	}
	return nil
}

// GetCards returns the cached card feed in position order. It reports
// ErrCacheMiss when nothing was ever cached and ErrCacheExpired when the
// cache is older than the store's TTL; an expired cache is evicted before
// returning.
func (s *Store) GetCards() ([]KnowledgeCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var stamp string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = 'cards_last_updated'`).Scan(&stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, &StorageError{Op: "get cards", Err: err}
	}

	updatedAt, err := time.Parse(time.RFC3339, stamp)
	if err != nil || time.Since(updatedAt) > s.ttl {
		if err := s.clearCardsLocked(); err != nil {
			return nil, err
		}
		return nil, ErrCacheExpired
	}

	rows, err := s.db.Query(`SELECT payload FROM card_cache ORDER BY position`)
	if err != nil {
		return nil, &StorageError{Op: "get cards", Err: err}
	}
	defer rows.Close()

	var cards []KnowledgeCard
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, &StorageError{Op: "get cards", Err: err}
		}
		var card KnowledgeCard
		if err := json.Unmarshal([]byte(payload), &card); err != nil {
			return nil, &StorageError{Op: "get cards", Err: err}
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "get cards", Err: err}
	}
	if len(cards) == 0 {
		return nil, ErrCacheMiss
	}
	return cards, nil
}

// ClearCards drops the cached feed and its timestamp.
func (s *Store) ClearCards() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	return s.clearCardsLocked()
}

func (s *Store) clearCardsLocked() error {
	tx, err := s.db.Begin()
	if err != nil {
		return &StorageError{Op: "clear cards", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM card_cache`); err != nil {
		return &StorageError{Op: "clear cards", Err: err}
	}
	if _, err := tx.Exec(`DELETE FROM metadata WHERE key = 'cards_last_updated'`); err != nil {
		return &StorageError{Op: "clear cards", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "clear cards", Err: err}
	}
	return nil
}

// SaveSession upserts a learning session snapshot keyed by session ID.
func (s *Store) SaveSession(session *LearningSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if session.ID == "" {
		return &ValidationError{Field: "ID", Message: "required: session identifier"}
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return &StorageError{Op: "save session", Err: err}
	}
	if _, err := s.db.Exec(`
		INSERT INTO sessions (id, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, session.ID, string(payload), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return &StorageError{Op: "save session", Err: err}
	}
	return nil
}

// GetSession returns a stored session by ID, or ErrNotFound.
func (s *Store) GetSession(id string) (*LearningSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var payload string
	err := s.db.QueryRow(`SELECT payload FROM sessions WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "get session", Err: err}
	}

	var session LearningSession
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, &StorageError{Op: "get session", Err: err}
	}
	return &session, nil
}

// Sessions returns all stored sessions, most recently updated first.
func (s *Store) Sessions() ([]LearningSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`SELECT payload FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, &StorageError{Op: "list sessions", Err: err}
	}
	defer rows.Close()

	var sessions []LearningSession
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, &StorageError{Op: "list sessions", Err: err}
		}
		var session LearningSession
		if err := json.Unmarshal([]byte(payload), &session); err != nil {
			return nil, &StorageError{Op: "list sessions", Err: err}
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// CleanupSessions deletes sessions not updated within the retention
// window and returns how many were removed.
func (s *Store) CleanupSessions(retention time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339)
	res, err := s.db.Exec(`DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, &StorageError{Op: "cleanup sessions", Err: err}
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// RecordLearning marks a card as studied. Re-recording the same card is a
// no-op. The history is capped; the oldest entries are trimmed once the
// cap is exceeded.
func (s *Store) RecordLearning(cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if cardID == "" {
		return &ValidationError{Field: "cardID", Message: "required: card identifier"}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &StorageError{Op: "record learning", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT OR IGNORE INTO learning_history (card_id, recorded_at) VALUES (?, ?)
	`, cardID, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return &StorageError{Op: "record learning", Err: err}
	}
	if _, err := tx.Exec(`
		DELETE FROM learning_history WHERE card_id NOT IN (
			SELECT card_id FROM learning_history ORDER BY recorded_at DESC LIMIT ?
		)
	`, MaxLearningHistory); err != nil {
		return &StorageError{Op: "record learning", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "record learning", Err: err}
	}
	return nil
}

// LearningHistory returns studied card IDs, most recent first.
func (s *Store) LearningHistory() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`SELECT card_id FROM learning_history ORDER BY recorded_at DESC`)
	if err != nil {
		return nil, &StorageError{Op: "learning history", Err: err}
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &StorageError{Op: "learning history", Err: err}
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveSelectedDomains persists the user's chosen domain labels.
func (s *Store) SaveSelectedDomains(domains []string) error {
	payload, err := json.Marshal(domains)
	if err != nil {
		return &StorageError{Op: "save selected domains", Err: err}
	}
	return s.setMetadata("selected_domains", string(payload))
}

// SelectedDomains returns the user's chosen domain labels, or ErrNotFound
// when none were ever saved.
func (s *Store) SelectedDomains() ([]string, error) {
	value, err := s.getMetadata("selected_domains")
	if err != nil {
		return nil, err
	}
	var domains []string
	if err := json.Unmarshal([]byte(value), &domains); err != nil {
		return nil, &StorageError{Op: "selected domains", Err: err}
	}
	return domains, nil
}

// SaveCursor persists the feed position so a restart resumes on the same card.
func (s *Store) SaveCursor(index int) error {
	return s.setMetadata("feed_cursor", strconv.Itoa(index))
}

// Cursor returns the persisted feed position, or ErrNotFound.
func (s *Store) Cursor() (int, error) {
	value, err := s.getMetadata("feed_cursor")
	if err != nil {
		return 0, err
	}
	index, err := strconv.Atoi(value)
	if err != nil {
		return 0, &StorageError{Op: "cursor", Err: err}
	}
	return index, nil
}

// SaveDomains replaces the stored domain taxonomy.
func (s *Store) SaveDomains(domains []KnowledgeDomain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	return s.saveDomainsLocked(domains)
}

func (s *Store) saveDomainsLocked(domains []KnowledgeDomain) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &StorageError{Op: "save domains", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM domains`); err != nil {
		return &StorageError{Op: "save domains", Err: err}
	}
	for _, domain := range domains {
		payload, err := json.Marshal(domain)
		if err != nil {
			return &StorageError{Op: "save domains", Err: err}
		}
		if _, err := tx.Exec(`
			INSERT INTO domains (id, payload) VALUES (?, ?)
		`, domain.ID, string(payload)); err != nil {
			return &StorageError{Op: "save domains", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "save domains", Err: err}
	}
	return nil
}

// Domains returns the stored domain taxonomy.
func (s *Store) Domains() ([]KnowledgeDomain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`SELECT payload FROM domains ORDER BY id`)
	if err != nil {
		return nil, &StorageError{Op: "domains", Err: err}
	}
	defer rows.Close()

	var domains []KnowledgeDomain
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, &StorageError{Op: "domains", Err: err}
		}
		var domain KnowledgeDomain
		if err := json.Unmarshal([]byte(payload), &domain); err != nil {
			return nil, &StorageError{Op: "domains", Err: err}
		}
		domains = append(domains, domain)
	}
	return domains, rows.Err()
}

// SavePreferences persists the user preference record.
func (s *Store) SavePreferences(prefs Preferences) error {
	payload, err := json.Marshal(prefs)
	if err != nil {
		return &StorageError{Op: "save preferences", Err: err}
	}
	return s.setPreference("user_preferences", string(payload))
}

// GetPreferences returns the stored preferences, or defaults when none
// were ever saved.
func (s *Store) GetPreferences() (Preferences, error) {
	defaults := Preferences{Difficulty: DifficultyMedium, SoundEnabled: true}

	value, err := s.getPreference("user_preferences")
	if errors.Is(err, ErrNotFound) {
		return defaults, nil
	}
	if err != nil {
		return defaults, err
	}

	var prefs Preferences
	if err := json.Unmarshal([]byte(value), &prefs); err != nil {
		return defaults, &StorageError{Op: "get preferences", Err: err}
	}
	return prefs, nil
}

// SetTheme persists the UI theme. Only "dark" and "light" are accepted.
func (s *Store) SetTheme(theme string) error {
	if theme != "dark" && theme != "light" {
		return ErrInvalidTheme
	}
	return s.setPreference("theme", theme)
}

// Theme returns the stored UI theme, defaulting to "dark".
func (s *Store) Theme() (string, error) {
	value, err := s.getPreference("theme")
	if errors.Is(err, ErrNotFound) {
		return "dark", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetFlag marks a card with a flag (liked, favorited, learned).
// Setting an already-set flag is a no-op.
func (s *Store) SetFlag(cardID string, flag CardFlag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, err := s.db.Exec(`
		INSERT OR IGNORE INTO card_flags (card_id, flag) VALUES (?, ?)
	`, cardID, string(flag)); err != nil {
		return &StorageError{Op: "set flag", Err: err}
	}
	return nil
}

// ClearFlag removes a flag from a card.
func (s *Store) ClearFlag(cardID string, flag CardFlag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, err := s.db.Exec(`
		DELETE FROM card_flags WHERE card_id = ? AND flag = ?
	`, cardID, string(flag)); err != nil {
		return &StorageError{Op: "clear flag", Err: err}
	}
	return nil
}

// HasFlag reports whether a card carries the given flag.
func (s *Store) HasFlag(cardID string, flag CardFlag) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, ErrStoreClosed
	}

	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM card_flags WHERE card_id = ? AND flag = ?
	`, cardID, string(flag)).Scan(&count)
	if err != nil {
		return false, &StorageError{Op: "has flag", Err: err}
	}
	return count > 0, nil
}

// Flags returns all flags carried by a card.
func (s *Store) Flags(cardID string) ([]CardFlag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`SELECT flag FROM card_flags WHERE card_id = ? ORDER BY flag`, cardID)
	if err != nil {
		return nil, &StorageError{Op: "flags", Err: err}
	}
	defer rows.Close()

	var flags []CardFlag
	for rows.Next() {
		var flag string
		if err := rows.Scan(&flag); err != nil {
			return nil, &StorageError{Op: "flags", Err: err}
		}
		flags = append(flags, CardFlag(flag))
	}
	return flags, rows.Err()
}

// Stats returns counts and the schema version for diagnostics.
func (s *Store) Stats() (*StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	stats := &StoreStats{}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM card_cache`).Scan(&stats.CardCount); err != nil {
		return nil, &StorageError{Op: "stats", Err: err}
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&stats.SessionCount); err != nil {
		return nil, &StorageError{Op: "stats", Err: err}
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM learning_history`).Scan(&stats.HistoryCount); err != nil {
		return nil, &StorageError{Op: "stats", Err: err}
	}

	var stamp string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = 'cards_last_updated'`).Scan(&stamp)
	if err == nil {
		if t, perr := time.Parse(time.RFC3339, stamp); perr == nil {
			stats.CardsUpdatedAt = t
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, &StorageError{Op: "stats", Err: err}
	}

	if err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = 'schema_version'`).Scan(&stats.SchemaVersion); err != nil {
		return nil, &StorageError{Op: "stats", Err: err}
	}
	return stats, nil
}

// Close closes the underlying database. Further calls on the store
// return ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) setMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value); err != nil {
		return &StorageError{Op: "set " + key, Err: err}
	}
	return nil
}

func (s *Store) getMetadata(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStoreClosed
	}

	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", &StorageError{Op: "get " + key, Err: err}
	}
	return value, nil
}

func (s *Store) setPreference(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, err := s.db.Exec(`
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value); err != nil {
		return &StorageError{Op: "set " + key, Err: err}
	}
	return nil
}

func (s *Store) getPreference(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStoreClosed
	}

	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", &StorageError{Op: "get " + key, Err: err}
	}
	return value, nil
}
