package knowledge

import (
	"context"

	"github.com/vocabvoyage/vocabvoyage/internal/capability"
)

// Retriever adapts Store to capability.Searcher.
type Retriever struct {
	store *Store
}

func NewRetriever(store *Store) *Retriever {
	return &Retriever{store: store}
}

func (r *Retriever) Search(ctx context.Context, query string, k int) ([]capability.Document, error) {
	docs, err := r.store.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]capability.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, capability.Document{Topic: d.Topic, Content: d.Content})
	}
	return out, nil
}

// NoRetriever is the searcher used when no knowledge store is configured:
// every search finds nothing, so topic listing and quizzes fall back to the
// model's own vocabulary.
type NoRetriever struct{}

func (NoRetriever) Search(_ context.Context, _ string, _ int) ([]capability.Document, error) {
	return nil, nil
}
