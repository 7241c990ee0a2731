// Package api exposes VocabVoyage over HTTP.
//
// Endpoints:
//
//	POST   /api/chat                  → genkit.Handler(vocabvoyage/chat Flow)
//	GET    /api/chats                 → list a user's chat sessions
//	POST   /api/chats                 → create a session (seeded with welcome)
//	PATCH  /api/chats/{id}            → rename a session
//	DELETE /api/chats/{id}            → delete a session and its messages
//	GET    /api/chats/{id}/messages   → replay a session
//	GET    /api/vocabulary            → list a user's saved words
//	DELETE /api/vocabulary/{word}     → delete a saved word
//	GET    /health, GET /ready        → probes
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/vocabvoyage/vocabvoyage/internal/dialog"
	"github.com/vocabvoyage/vocabvoyage/internal/log"
	"github.com/vocabvoyage/vocabvoyage/internal/store"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8787"

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout guards against slow-header clients.
	ReadHeaderTimeout = 10 * time.Second

	ReadTimeout = 30 * time.Second

	// WriteTimeout is generous: a chat response waits on model calls.
	WriteTimeout = 2 * time.Minute

	IdleTimeout = 2 * time.Minute
)

// Store is the persistence surface the handlers use. Satisfied by both
// store.Store and store.Mirror.
type Store interface {
	Ping(ctx context.Context) error
	GetOrCreateUser(ctx context.Context, username string) (string, error)
	UserChats(ctx context.Context, userID string) ([]store.ChatSession, error)
	RenameChat(ctx context.Context, chatID, name string) (bool, error)
	DeleteChat(ctx context.Context, chatID string) (bool, error)
	Messages(ctx context.Context, chatID string) ([]store.ChatMessage, error)
	UserVocabulary(ctx context.Context, userID string) ([]store.VocabularyEntry, error)
	DeleteVocabulary(ctx context.Context, userID, word string) (bool, error)
}

// ChatCreator creates chat sessions seeded with the welcome turn.
// Satisfied by dialog.Engine.
type ChatCreator interface {
	NewChat(ctx context.Context, userID, name string) (string, error)
}

// Server is the HTTP server for the VocabVoyage API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	health *HealthHandler
	chats  *ChatsHandler
	vocab  *VocabularyHandler
	chat   *ChatHandler
}

// NewServer registers all routes. chatFlow comes from dialog.NewFlow; a nil
// flow leaves the chat endpoint unregistered, which the chat handler logs.
func NewServer(st Store, creator ChatCreator, chatFlow *dialog.Flow, logger log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:    mux,
		logger: logger,
		health: NewHealthHandler(st, logger),
		chats:  NewChatsHandler(st, creator, logger),
		vocab:  NewVocabularyHandler(st, logger),
		chat:   NewChatHandler(chatFlow, logger),
	}

	s.health.RegisterRoutes(mux)
	s.chats.RegisterRoutes(mux)
	s.vocab.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)

	return s
}

// Handler returns the mux wrapped in recovery → logging middleware.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware(s.logger), loggingMiddleware(s.logger))
}

// Run starts the server and blocks until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
