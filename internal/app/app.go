// Package app wires configuration, persistence, the language-model service
// and the dialogue engine into a running application.
package app

import (
	"context"
	"errors"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vocabvoyage/vocabvoyage/internal/config"
	"github.com/vocabvoyage/vocabvoyage/internal/dialog"
	"github.com/vocabvoyage/vocabvoyage/internal/knowledge"
	"github.com/vocabvoyage/vocabvoyage/internal/log"
	"github.com/vocabvoyage/vocabvoyage/internal/store"
)

// Store is the full persistence surface shared by the engine, the CLI and
// the HTTP API. Both store.Store and store.Mirror satisfy it.
type Store interface {
	Close() error
	Ping(ctx context.Context) error
	GetOrCreateUser(ctx context.Context, username string) (string, error)
	ChatExists(ctx context.Context, chatID string) (bool, error)
	AddVocabulary(ctx context.Context, userID, word, definition string, examples []string, notes string) error
	UserVocabulary(ctx context.Context, userID string) ([]store.VocabularyEntry, error)
	DeleteVocabulary(ctx context.Context, userID, word string) (bool, error)
	CreateChatSession(ctx context.Context, userID, name, chatID string) (string, error)
	UserChats(ctx context.Context, userID string) ([]store.ChatSession, error)
	RenameChat(ctx context.Context, chatID, name string) (bool, error)
	DeleteChat(ctx context.Context, chatID string) (bool, error)
	AddMessage(ctx context.Context, chatID, role, content string) error
	Messages(ctx context.Context, chatID string) ([]store.ChatMessage, error)
}

// App holds all initialized components. Create with Setup, release with
// Close.
type App struct {
	Config *config.Config
	Logger log.Logger
	Genkit *genkit.Genkit
	Store  Store
	Engine *dialog.Engine

	// Knowledge is the topic-document vector store; nil when retrieval is
	// disabled.
	Knowledge *knowledge.Store

	pool *pgxpool.Pool
}

// Close releases the application's resources. In synchronized-remote mode
// this pushes the working copy one final time and removes it.
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errors.Join(errs...)
}
