package dialog

import (
	"context"
	"fmt"

	"github.com/vocabvoyage/vocabvoyage/internal/capability"
)

// Executor invokes the capability the router selected and wraps its raw
// output as the terminal assistant turn, with no further transformation.
type Executor struct {
	registry capability.Registry
}

func NewExecutor(registry capability.Registry) *Executor {
	return &Executor{registry: registry}
}

func (e *Executor) Execute(ctx context.Context, d Decision) (Turn, error) {
	c, ok := e.registry.Find(d.Capability)
	if !ok {
		return Turn{}, fmt.Errorf("%w: %q", ErrUnknownCapability, d.Capability)
	}
	out, err := c.Invoke(ctx, d.Argument)
	if err != nil {
		return Turn{}, fmt.Errorf("capability %s: %w", d.Capability, err)
	}
	return Turn{Role: RoleAssistant, Content: out}, nil
}
