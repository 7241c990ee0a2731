package dialog

import (
	"context"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
)

// Input is the request payload for the chat flow.
type Input struct {
	Query  string `json:"query"`
	UserID string `json:"userId"`
	ChatID string `json:"chatId"` // empty: start a fresh chat
}

// Output is the response payload from the chat flow.
type Output struct {
	Response string `json:"response"`
	ChatID   string `json:"chatId"`
	Saved    bool   `json:"saved"`
	Note     string `json:"note,omitempty"`
}

// FlowName is the registered name of the chat flow in Genkit.
const FlowName = "vocabvoyage/chat"

// Flow is the type alias for the chat flow. Exported for use in the api
// package with genkit.Handler().
type Flow = core.Flow[Input, Output, struct{}]

// Package-level singleton: genkit.DefineFlow panics on re-registration, so
// the flow is defined exactly once per process.
var (
	flowOnce sync.Once
	flow     *Flow
)

// NewFlow returns the chat flow singleton, initializing it on first call.
// Subsequent calls return the existing flow and ignore the parameters.
func NewFlow(g *genkit.Genkit, engine *Engine) *Flow {
	flowOnce.Do(func() {
		flow = engine.DefineFlow(g)
	})
	return flow
}

// ResetFlowForTesting resets the flow singleton so tests can initialize
// with different configurations. Not safe for concurrent use.
func ResetFlowForTesting() {
	flowOnce = sync.Once{}
	flow = nil
}

// DefineFlow registers the chat flow. Use NewFlow instead of calling this
// directly; registering the same flow twice panics inside Genkit.
func (e *Engine) DefineFlow(g *genkit.Genkit) *Flow {
	return genkit.DefineFlow(g, FlowName,
		func(ctx context.Context, input Input) (Output, error) {
			res, err := e.Respond(ctx, Request{
				Utterance: input.Query,
				UserID:    input.UserID,
				ChatID:    input.ChatID,
			})
			if err != nil {
				return Output{ChatID: input.ChatID}, fmt.Errorf("chat flow: %w", err)
			}
			return Output{
				Response: res.Answer,
				ChatID:   res.ChatID,
				Saved:    res.Saved,
				Note:     res.Note,
			}, nil
		},
	)
}
