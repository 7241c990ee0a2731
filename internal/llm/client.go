// Package llm wraps the Genkit generation and embedding surface behind the
// small interfaces the orchestration consumes.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/vocabvoyage/vocabvoyage/internal/log"
)

// Sentinel errors for completion calls.
var (
	// ErrEmptyResponse indicates the model produced no text.
	ErrEmptyResponse = errors.New("empty model response")
)

// Config contains required parameters for the completion client.
type Config struct {
	Genkit *genkit.Genkit

	// ModelName is provider-qualified, e.g. "googleai/gemini-2.5-flash".
	ModelName string

	// Limiter enables proactive rate limiting when set; nil disables it.
	Limiter *rate.Limiter

	Logger log.Logger
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Client issues one-shot text completions. It implements
// capability.Completer; the router, responder and all capabilities share a
// single instance so the rate limiter covers every model call the process
// makes.
type Client struct {
	g         *genkit.Genkit
	modelName string
	limiter   *rate.Limiter
	logger    log.Logger
}

func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Client{
		g:         cfg.Genkit,
		modelName: cfg.ModelName,
		limiter:   cfg.Limiter,
		logger:    cfg.Logger,
	}, nil
}

// Complete sends prompt to the configured model and returns its trimmed
// text output.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
