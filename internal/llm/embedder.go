package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
)

// NewEmbedder resolves the Google AI embedder registered in Genkit.
func NewEmbedder(g *genkit.Genkit, model string) (ai.Embedder, error) {
	embedder := googlegenai.GoogleAIEmbedder(g, model)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", model)
	}
	return embedder, nil
}

// EmbedText produces one embedding vector for text.
func EmbedText(ctx context.Context, embedder ai.Embedder, text string) ([]float32, error) {
	resp, err := embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, errors.New("embedding result is empty")
	}
	return resp.Embeddings[0].Embedding, nil
}
