// Package knowledge stores topic vocabulary reference documents in
// PostgreSQL with pgvector and retrieves them by embedding similarity. The
// topic-listing and quiz capabilities read from it through the
// capability.Searcher interface.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/vocabvoyage/vocabvoyage/internal/llm"
	"github.com/vocabvoyage/vocabvoyage/internal/log"
)

// defaultDim is the embedding dimensionality the schema is created with.
// Must match the configured embedder model's output size.
const defaultDim = 768

// Document is one topic vocabulary reference document.
type Document struct {
	ID        string
	Topic     string
	Content   string
	CreatedAt time.Time
}

// DB is the subset of pgxpool.Pool the store uses. Defined by the consumer
// so tests can substitute fakes.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store manages topic documents with vector search. Safe for concurrent use
// as long as the underlying DB is.
type Store struct {
	db       DB
	embedder ai.Embedder
	dim      int
	logger   log.Logger
}

// New creates a Store. dim is the embedding dimensionality; zero selects
// the default.
func New(db DB, embedder ai.Embedder, dim int, logger log.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if dim <= 0 {
		dim = defaultDim
	}
	return &Store{db: db, embedder: embedder, dim: dim, logger: logger}, nil
}

// EnsureSchema creates the pgvector extension and the topic_documents table
// when missing. Idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS topic_documents (
		id TEXT PRIMARY KEY,
		topic TEXT NOT NULL,
		content TEXT NOT NULL,
		embedding vector(%d) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, s.dim)
	if _, err := s.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create topic_documents: %w", err)
	}
	return nil
}

// Add embeds the document content and upserts it by id.
func (s *Store) Add(ctx context.Context, doc Document) error {
	if doc.ID == "" || doc.Content == "" {
		return errors.New("document id and content are required")
	}

	vec, err := llm.EmbedText(ctx, s.embedder, doc.Content)
	if err != nil {
		return fmt.Errorf("embed document %q: %w", doc.ID, err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO topic_documents (id, topic, content, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET topic = EXCLUDED.topic,
		    content = EXCLUDED.content,
		    embedding = EXCLUDED.embedding`,
		doc.ID, doc.Topic, doc.Content, pgvector.NewVector(vec))
	if err != nil {
		return fmt.Errorf("upsert document %q: %w", doc.ID, err)
	}

	s.logger.Debug("topic document stored", "id", doc.ID, "topic", doc.Topic)
	return nil
}

// Search returns the k documents closest to query by cosine distance.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Document, error) {
	if k <= 0 {
		k = 1
	}

	vec, err := llm.EmbedText(ctx, s.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, topic, content, created_at
		FROM topic_documents
		ORDER BY embedding <=> $1
		LIMIT $2`,
		pgvector.NewVector(vec), k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Topic, &d.Content, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}
