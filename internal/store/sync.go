package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Blob abstracts the remote object holding a full copy of the database file.
type Blob interface {
	// Download fetches the blob. Returns ErrBlobNotFound when no copy
	// exists yet.
	Download(ctx context.Context) ([]byte, error)

	// Upload replaces the blob with data. Returns ErrBlobRateLimited on a
	// transient rate-limit rejection.
	Upload(ctx context.Context, data []byte) error
}

// Blob transport errors.
var (
	ErrBlobNotFound    = errors.New("remote blob not found")
	ErrBlobRateLimited = errors.New("remote blob rate limited")

	// ErrWorkingCopyLocked indicates another process holds the working copy.
	ErrWorkingCopyLocked = errors.New("working copy locked by another process")
)

// MirrorConfig configures the synchronized-remote store.
type MirrorConfig struct {
	Blob Blob

	// WorkDir holds the local working copy. Empty = os.TempDir().
	WorkDir string

	// PushOnRead also pushes after non-mutating calls. Extra upload cost,
	// never a correctness requirement.
	PushOnRead bool

	// RetryWait is the fixed delay before the single push retry.
	RetryWait time.Duration

	Logger *slog.Logger
}

// Mirror is the synchronized-remote store: a single local working copy of
// the entire database, lazily downloaded from blob storage, with the whole
// file pushed back after every mutation.
//
// Consistency contract: the local copy is the canonical point of mutation
// and the remote is eventually consistent with it (last write wins). Failed
// pushes are retried once, then dropped — the caller still sees success and
// the remote drifts until the next successful push. At most one process may
// use a given remote store at a time; two concurrent processes will race and
// one's writes can be clobbered by the other's next push. An advisory file
// lock rejects a second Mirror on the same working directory, but nothing
// protects against writers on other machines.
type Mirror struct {
	store     *Store
	blob      Blob
	path      string
	lock      *flock.Flock
	pushRead  bool
	retryWait time.Duration
	logger    *slog.Logger
}

// OpenMirror materializes the working copy (downloading the remote blob if
// one exists, otherwise starting a fresh store) and returns the Mirror.
// Call Close to flush and remove the working copy.
func OpenMirror(ctx context.Context, cfg MirrorConfig) (*Mirror, error) {
	if cfg.Blob == nil {
		return nil, errors.New("blob is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retryWait := cfg.RetryWait
	if retryWait <= 0 {
		retryWait = 2 * time.Second
	}
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}

	path := filepath.Join(workDir, "vocabvoyage-mirror.db")

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring working copy lock: %w", err)
	}
	if !locked {
		return nil, ErrWorkingCopyLocked
	}

	data, err := cfg.Blob.Download(ctx)
	switch {
	case err == nil:
		if err := os.WriteFile(path, data, 0o600); err != nil {
			_ = lock.Unlock()
			return nil, fmt.Errorf("writing working copy: %w", err)
		}
		logger.Info("downloaded remote store", "bytes", len(data))
	case errors.Is(err, ErrBlobNotFound):
		// First run against this remote: start from an empty store.
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			_ = lock.Unlock()
			return nil, fmt.Errorf("resetting working copy: %w", err)
		}
		logger.Info("no remote store yet, starting fresh")
	default:
		_ = lock.Unlock()
		return nil, fmt.Errorf("%w: downloading store: %w", ErrStorageUnavailable, err)
	}

	s, err := Open(path, logger)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	return &Mirror{
		store:     s,
		blob:      cfg.Blob,
		path:      path,
		lock:      lock,
		pushRead:  cfg.PushOnRead,
		retryWait: retryWait,
		logger:    logger,
	}, nil
}

// Close pushes the working copy one last time, closes the database, and
// removes the temporary file.
func (m *Mirror) Close() error {
	m.push(context.Background())

	err := m.store.Close()
	if rmErr := os.Remove(m.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	if unlockErr := m.lock.Unlock(); unlockErr != nil && err == nil {
		err = unlockErr
	}
	return err
}

// push uploads the entire working copy. Failures are retried exactly once
// after the fixed delay, then dropped with a warning: the local commit
// already succeeded and the remote catches up on the next push.
func (m *Mirror) push(ctx context.Context) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		m.logger.Warn("reading working copy for push", "error", err)
		return
	}

	err = m.blob.Upload(ctx, data)
	if err == nil {
		return
	}

	if errors.Is(err, ErrBlobRateLimited) {
		m.logger.Debug("push rate limited, retrying once", "wait", m.retryWait)
		select {
		case <-time.After(m.retryWait):
		case <-ctx.Done():
			m.logger.Warn("push dropped", "error", ctx.Err())
			return
		}
		if err = m.blob.Upload(ctx, data); err == nil {
			return
		}
	}

	m.logger.Warn("push dropped, remote store is stale until next push", "error", err)
}

// GetOrCreateUser delegates to the working copy and pushes the result.
func (m *Mirror) GetOrCreateUser(ctx context.Context, username string) (string, error) {
	id, err := m.store.GetOrCreateUser(ctx, username)
	if err != nil {
		return "", err
	}
	m.push(ctx)
	return id, nil
}

// AddVocabulary delegates to the working copy and pushes on success.
// A duplicate word does not mutate the store, so nothing is pushed.
func (m *Mirror) AddVocabulary(ctx context.Context, userID, word, definition string, examples []string, notes string) error {
	if err := m.store.AddVocabulary(ctx, userID, word, definition, examples, notes); err != nil {
		return err
	}
	m.push(ctx)
	return nil
}

// UserVocabulary delegates to the working copy.
func (m *Mirror) UserVocabulary(ctx context.Context, userID string) ([]VocabularyEntry, error) {
	entries, err := m.store.UserVocabulary(ctx, userID)
	if err == nil && m.pushRead {
		m.push(ctx)
	}
	return entries, err
}

// DeleteVocabulary delegates to the working copy and pushes when a row was
// actually removed.
func (m *Mirror) DeleteVocabulary(ctx context.Context, userID, word string) (bool, error) {
	deleted, err := m.store.DeleteVocabulary(ctx, userID, word)
	if err == nil && deleted {
		m.push(ctx)
	}
	return deleted, err
}

// CreateChatSession delegates to the working copy and pushes the result.
func (m *Mirror) CreateChatSession(ctx context.Context, userID, name, chatID string) (string, error) {
	id, err := m.store.CreateChatSession(ctx, userID, name, chatID)
	if err != nil {
		return "", err
	}
	m.push(ctx)
	return id, nil
}

// ChatExists delegates to the working copy.
func (m *Mirror) ChatExists(ctx context.Context, chatID string) (bool, error) {
	ok, err := m.store.ChatExists(ctx, chatID)
	if err == nil && m.pushRead {
		m.push(ctx)
	}
	return ok, err
}

// UserChats delegates to the working copy.
func (m *Mirror) UserChats(ctx context.Context, userID string) ([]ChatSession, error) {
	chats, err := m.store.UserChats(ctx, userID)
	if err == nil && m.pushRead {
		m.push(ctx)
	}
	return chats, err
}

// RenameChat delegates to the working copy and pushes on an actual rename.
func (m *Mirror) RenameChat(ctx context.Context, chatID, name string) (bool, error) {
	renamed, err := m.store.RenameChat(ctx, chatID, name)
	if err == nil && renamed {
		m.push(ctx)
	}
	return renamed, err
}

// DeleteChat delegates to the working copy and pushes on an actual delete.
func (m *Mirror) DeleteChat(ctx context.Context, chatID string) (bool, error) {
	deleted, err := m.store.DeleteChat(ctx, chatID)
	if err == nil && deleted {
		m.push(ctx)
	}
	return deleted, err
}

// AddMessage delegates to the working copy and pushes on success.
func (m *Mirror) AddMessage(ctx context.Context, chatID, role, content string) error {
	if err := m.store.AddMessage(ctx, chatID, role, content); err != nil {
		return err
	}
	m.push(ctx)
	return nil
}

// Messages delegates to the working copy.
func (m *Mirror) Messages(ctx context.Context, chatID string) ([]ChatMessage, error) {
	msgs, err := m.store.Messages(ctx, chatID)
	if err == nil && m.pushRead {
		m.push(ctx)
	}
	return msgs, err
}

// Ping verifies the working copy's database connection. Never pushes.
func (m *Mirror) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}
