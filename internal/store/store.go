// Package store implements the persistence layer backing users, saved
// vocabulary, chat sessions, and chat messages.
//
// Two backing modes exist, fixed at process start: local mode operates
// directly on a SQLite file (Store), and synchronized-remote mode wraps the
// same Store in a Mirror that downloads the working copy from blob storage
// on first use and pushes it back after every mutation (see sync.go).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors surfaced by Store operations.
var (
	// ErrDuplicateWord indicates the (user, word) pair already exists.
	// The stored entry is left untouched; the first insert is authoritative.
	ErrDuplicateWord = errors.New("word already saved")

	// ErrStorageUnavailable indicates the underlying database failed.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// timeLayout is a fixed-width UTC layout so that lexicographic order of the
// stored strings equals chronological order.
const timeLayout = "2006-01-02 15:04:05.000000000"

// Store provides CRUD operations over the local SQLite database.
// It is the sole owner of the database handle; all returned entities are
// value copies.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a Store over an open database. A nil logger falls back to
// slog.Default().
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Open opens the SQLite file at path, applies migrations, and returns a
// ready Store.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	return New(db, logger), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// GetOrCreateUser returns the user id for username, creating the account on
// first login. The username itself serves as the id.
func (s *Store) GetOrCreateUser(ctx context.Context, username string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM users WHERE username = ?`, username).Scan(&userID)
	switch {
	case err == nil:
		return userID, nil
	case errors.Is(err, sql.ErrNoRows):
		userID = username
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO users (user_id, username, created_at) VALUES (?, ?, ?)`,
			userID, username, now()); err != nil {
			return "", fmt.Errorf("%w: creating user: %w", ErrStorageUnavailable, err)
		}
		s.logger.Debug("created user", "user_id", userID)
		return userID, nil
	default:
		return "", fmt.Errorf("%w: looking up user: %w", ErrStorageUnavailable, err)
	}
}

// ChatExists reports whether a chat session id is known.
func (s *Store) ChatExists(ctx context.Context, chatID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM chat_sessions WHERE chat_id = ?`, chatID).Scan(&one)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("%w: looking up chat: %w", ErrStorageUnavailable, err)
	}
}

// AddVocabulary saves a word card for a user. A second insert for the same
// (user, word) pair fails with ErrDuplicateWord and leaves the stored entry
// unchanged.
func (s *Store) AddVocabulary(ctx context.Context, userID, word, definition string, examples []string, notes string) error {
	if examples == nil {
		examples = []string{}
	}
	examplesJSON, err := json.Marshal(examples)
	if err != nil {
		return fmt.Errorf("encoding examples: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_vocabulary (user_id, word, definition, examples, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, word, definition, string(examplesJSON), notes, now())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrDuplicateWord, word)
		}
		return fmt.Errorf("%w: inserting vocabulary: %w", ErrStorageUnavailable, err)
	}

	s.logger.Debug("saved vocabulary", "user_id", userID, "word", word)
	return nil
}

// UserVocabulary lists a user's saved words, newest first.
func (s *Store) UserVocabulary(ctx context.Context, userID string) ([]VocabularyEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, word, definition, examples, notes, created_at
		 FROM user_vocabulary
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing vocabulary: %w", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var entries []VocabularyEntry
	for rows.Next() {
		var (
			e            VocabularyEntry
			examplesJSON string
			createdAt    string
		)
		if err := rows.Scan(&e.UserID, &e.Word, &e.Definition, &examplesJSON, &e.Notes, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning vocabulary row: %w", err)
		}
		if err := json.Unmarshal([]byte(examplesJSON), &e.Examples); err != nil {
			// Keep the entry; a broken examples blob should not hide the word.
			s.logger.Warn("malformed examples blob", "user_id", userID, "word", e.Word, "error", err)
			e.Examples = nil
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteVocabulary removes one saved word. Returns false when the word was
// not present.
func (s *Store) DeleteVocabulary(ctx context.Context, userID, word string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM user_vocabulary WHERE user_id = ? AND word = ?`, userID, word)
	if err != nil {
		return false, fmt.Errorf("%w: deleting vocabulary: %w", ErrStorageUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n > 0, nil
}

// CreateChatSession creates a chat for a user and returns its id. An empty
// chatID generates a fresh UUID; a caller-provided id is kept as-is so that
// externally minted session ids survive round trips.
func (s *Store) CreateChatSession(ctx context.Context, userID, name, chatID string) (string, error) {
	if chatID == "" {
		chatID = uuid.NewString()
	}
	if name == "" {
		name = "新的對話"
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (chat_id, user_id, name, created_at) VALUES (?, ?, ?, ?)`,
		chatID, userID, name, now()); err != nil {
		return "", fmt.Errorf("%w: creating chat session: %w", ErrStorageUnavailable, err)
	}
	s.logger.Debug("created chat session", "chat_id", chatID, "user_id", userID)
	return chatID, nil
}

// UserChats lists a user's chat sessions, newest first.
func (s *Store) UserChats(ctx context.Context, userID string) ([]ChatSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id, user_id, name, created_at
		 FROM chat_sessions
		 WHERE user_id = ?
		 ORDER BY created_at DESC, chat_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing chats: %w", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var chats []ChatSession
	for rows.Next() {
		var (
			c         ChatSession
			createdAt string
		)
		if err := rows.Scan(&c.ChatID, &c.UserID, &c.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning chat row: %w", err)
		}
		c.CreatedAt = parseTime(createdAt)
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// RenameChat updates a chat's display name. Returns false for unknown ids.
func (s *Store) RenameChat(ctx context.Context, chatID, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET name = ? WHERE chat_id = ?`, name, chatID)
	if err != nil {
		return false, fmt.Errorf("%w: renaming chat: %w", ErrStorageUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteChat removes a chat session and, via the foreign key cascade, all of
// its messages. Returns false for unknown ids.
func (s *Store) DeleteChat(ctx context.Context, chatID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_sessions WHERE chat_id = ?`, chatID)
	if err != nil {
		return false, fmt.Errorf("%w: deleting chat: %w", ErrStorageUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	if n > 0 {
		s.logger.Debug("deleted chat session", "chat_id", chatID)
	}
	return n > 0, nil
}

// AddMessage appends one immutable turn to a chat.
func (s *Store) AddMessage(ctx context.Context, chatID, role, content string) error {
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("unknown message role %q", role)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (chat_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		chatID, role, content, now()); err != nil {
		return fmt.Errorf("%w: inserting message: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// Messages returns a chat's full message log in replay order: created_at
// ascending, id as tiebreak.
func (s *Store) Messages(ctx context.Context, chatID string) ([]ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, role, content, created_at
		 FROM chat_messages
		 WHERE chat_id = ?
		 ORDER BY created_at ASC, id ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing messages: %w", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var msgs []ChatMessage
	for rows.Next() {
		var (
			m         ChatMessage
			createdAt string
		)
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		m.CreatedAt = parseTime(createdAt)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. modernc.org/sqlite exposes the message, not a typed error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
