// Package capability defines the closed set of one-shot capabilities the
// router can invoke: word lookup, topic listing, and quiz generation.
//
// Each capability is self-describing; the router only ever sees the name and
// the usage description, never the implementation. The registry is an
// immutable slice built once at process start and passed explicitly to the
// router and executor.
package capability

import (
	"context"
	"fmt"
	"strings"
)

// Completer issues one text-completion call against the language-model
// service. Implemented by llm.Client; tests substitute deterministic stubs.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Document is one topic reference document returned by retrieval.
type Document struct {
	Topic   string
	Content string
}

// Searcher retrieves topic reference documents by similarity.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Document, error)
}

// Capability is a named unit of work: one-shot function from textual input
// to textual output plus a natural-language usage description consumed by
// the router for selection.
type Capability struct {
	Name        string
	Description string
	invoke      func(ctx context.Context, input string) (string, error)
}

// Invoke runs the capability on input and returns its raw text output.
func (c Capability) Invoke(ctx context.Context, input string) (string, error) {
	return c.invoke(ctx, input)
}

// Registry is the fixed, ordered set of capabilities.
type Registry []Capability

// Find returns the capability with the given name.
func (r Registry) Find(name string) (Capability, bool) {
	for _, c := range r {
		if c.Name == name {
			return c, true
		}
	}
	return Capability{}, false
}

// Describe renders the "name: description" list embedded into the router
// instruction.
func (r Registry) Describe() string {
	var b strings.Builder
	for _, c := range r {
		fmt.Fprintf(&b, "- %s：%s\n", c.Name, c.Description)
	}
	return b.String()
}

// New builds the full registry. completer serves all three capabilities;
// searcher and topK feed the retrieval step of topic listing and quiz
// generation.
func New(completer Completer, searcher Searcher, topK int) Registry {
	return Registry{
		NewLookup(completer),
		NewTopicList(completer, searcher, topK),
		NewQuiz(completer, searcher, topK),
	}
}
