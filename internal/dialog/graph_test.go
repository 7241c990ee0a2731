package dialog

import (
	"context"
	"strings"
	"testing"

	"github.com/vocabvoyage/vocabvoyage/internal/log"
)

func newTestGraph(routerReply string, capCompleter, respCompleter *scriptedCompleter) *Graph {
	registry := testRegistry(capCompleter)
	return NewGraph(
		NewRouter(&scriptedCompleter{replies: []string{routerReply}}, registry, log.NewNop()),
		NewExecutor(registry),
		NewResponder(respCompleter),
		log.NewNop(),
	)
}

func TestGraphCapabilityPath(t *testing.T) {
	capCompleter := &scriptedCompleter{replies: []string{"單字：hello\n定義：問候"}}
	respCompleter := &scriptedCompleter{}
	g := newTestGraph("vocab_lookup: hello", capCompleter, respCompleter)

	out, err := g.Run(context.Background(), nil, "解釋 'hello' 的意思")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Capability output passes through the responder unchanged.
	if out.Role != RoleAssistant || out.Content != capCompleter.replies[0] {
		t.Errorf("Run() = %+v, want capability output verbatim", out)
	}
	if len(capCompleter.prompts) != 1 {
		t.Errorf("capability evaluations = %d, want exactly 1", len(capCompleter.prompts))
	}
	if len(respCompleter.prompts) != 0 {
		t.Errorf("generation calls = %d, want 0 on the capability path", len(respCompleter.prompts))
	}
}

func TestGraphDirectPath(t *testing.T) {
	capCompleter := &scriptedCompleter{}
	respCompleter := &scriptedCompleter{replies: []string{"好的，我來幫你潤飾。"}}
	g := newTestGraph("direct response", capCompleter, respCompleter)

	history := []Turn{
		{Role: RoleUser, Content: "先前的問題"},
		{Role: RoleAssistant, Content: "先前的回答"},
	}
	out, err := g.Run(context.Background(), history, "幫我潤飾這段英文文章")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if out.Content != "好的，我來幫你潤飾。" {
		t.Errorf("Run() = %q, want responder output", out.Content)
	}
	if len(capCompleter.prompts) != 0 {
		t.Errorf("capability evaluations = %d, want 0 on the direct path", len(capCompleter.prompts))
	}
	if len(respCompleter.prompts) != 1 {
		t.Fatalf("generation calls = %d, want exactly 1", len(respCompleter.prompts))
	}

	// The generation prompt carries prior history and the question, with the
	// newest user turn only in the question slot.
	prompt := respCompleter.prompts[0]
	for _, want := range []string{"先前的問題", "先前的回答", "幫我潤飾這段英文文章"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("generation prompt missing %q", want)
		}
	}
	if strings.Count(prompt, "幫我潤飾這段英文文章") != 1 {
		t.Error("newest user turn appears in the history block as well as the question")
	}
}

func TestGraphSinglePass(t *testing.T) {
	// The router completer is scripted with exactly one reply; a second
	// router evaluation would fail the cycle.
	capCompleter := &scriptedCompleter{replies: []string{"quiz text"}}
	g := newTestGraph("vocab_quiz: 科技", capCompleter, &scriptedCompleter{})

	if _, err := g.Run(context.Background(), nil, "測驗我"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestGraphRouterFailureAbortsCycle(t *testing.T) {
	capCompleter := &scriptedCompleter{}
	respCompleter := &scriptedCompleter{}
	registry := testRegistry(capCompleter)
	g := NewGraph(
		NewRouter(&scriptedCompleter{replies: []string{"unknown_cap: x"}}, registry, log.NewNop()),
		NewExecutor(registry),
		NewResponder(respCompleter),
		log.NewNop(),
	)

	if _, err := g.Run(context.Background(), nil, "hi"); err == nil {
		t.Fatal("Run() error = nil, want routing error")
	}
	if len(capCompleter.prompts)+len(respCompleter.prompts) != 0 {
		t.Error("downstream nodes ran despite a fatal routing error")
	}
}
