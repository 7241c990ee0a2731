package dialog

import (
	"context"
	"slices"

	"github.com/vocabvoyage/vocabvoyage/internal/log"
)

// Graph is the finite-state wiring of one request cycle:
//
//	start → router → executor → responder → end
//	              └─────────────↗
//
// The router→executor transition fires iff the router emitted a capability
// invocation; executor→responder is unconditional. Each client request is
// exactly one pass, no transition revisits the router.
type Graph struct {
	router    *Router
	executor  *Executor
	responder *Responder
	logger    log.Logger
}

func NewGraph(router *Router, executor *Executor, responder *Responder, logger log.Logger) *Graph {
	return &Graph{router: router, executor: executor, responder: responder, logger: logger}
}

// Run executes one cycle: history plus the new user utterance in, terminal
// assistant turn out.
func (g *Graph) Run(ctx context.Context, history []Turn, utterance string) (Turn, error) {
	turns := append(slices.Clone(history), Turn{Role: RoleUser, Content: utterance})

	decision, err := g.router.Route(ctx, turns)
	if err != nil {
		return Turn{}, err
	}

	if decision.Direct {
		return g.responder.Respond(ctx, nil, history, utterance)
	}

	result, err := g.executor.Execute(ctx, decision)
	if err != nil {
		return Turn{}, err
	}
	return g.responder.Respond(ctx, &result, nil, "")
}
