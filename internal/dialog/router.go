package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vocabvoyage/vocabvoyage/internal/capability"
	"github.com/vocabvoyage/vocabvoyage/internal/log"
)

// directSentinel is the literal the classification call emits when no
// capability is needed and the responder should answer directly.
const directSentinel = "direct response"

// ErrUnknownCapability indicates the router selected a capability name that
// is not in the registry. The registry is closed, so this is a fatal routing
// error, never recovered by guessing a fallback capability.
var ErrUnknownCapability = errors.New("unknown capability")

const routerPrompt = `你是英文學習助手的分流器。根據對話內容，判斷回答使用者最新的訊息是否需要呼叫以下其中一個功能。

可用功能：
%s
規則：
- 單一英文單字或片語的問題一律使用 vocab_lookup。
- topic_vocab 與 vocab_quiz 必須保守使用：只有在使用者明確要求某個主題的多個單字、或明確要求測驗時才選用。
- 一般協助（寫作、潤飾、翻譯、閒聊）不需要任何功能。

輸出格式（擇一，除此之外不要輸出任何文字）：
<功能名稱>: <要傳給該功能的文字>
direct response

對話內容：
%s`

// Decision is the router's verdict for one cycle: either answer directly or
// invoke a named capability with the extracted argument.
type Decision struct {
	Direct     bool
	Capability string
	Argument   string
}

// Router is the decision node. It consumes the full message sequence of the
// current cycle and issues exactly one classification call; it never
// synthesizes the final answer itself.
type Router struct {
	completer capability.Completer
	registry  capability.Registry
	logger    log.Logger
}

func NewRouter(completer capability.Completer, registry capability.Registry, logger log.Logger) *Router {
	return &Router{completer: completer, registry: registry, logger: logger}
}

// Route classifies the cycle. turns is the assembled history plus the new
// user turn, chronological.
func (r *Router) Route(ctx context.Context, turns []Turn) (Decision, error) {
	prompt := fmt.Sprintf(routerPrompt, r.registry.Describe(), renderTurns(turns))
	out, err := r.completer.Complete(ctx, prompt)
	if err != nil {
		return Decision{}, fmt.Errorf("routing classification: %w", err)
	}

	decision, err := r.parse(out)
	if err != nil {
		return Decision{}, err
	}
	if !decision.Direct && decision.Argument == "" {
		// The argument defaults to the newest user turn when the model
		// omits it.
		decision.Argument = newestUserTurn(turns)
	}

	r.logger.Debug("routing decision",
		"direct", decision.Direct,
		"capability", decision.Capability)
	return decision, nil
}

// parse extracts the decision from the classifier output. Only the first
// non-empty line counts; everything the model appends after it is ignored.
func (r *Router) parse(out string) (Decision, error) {
	var line string
	for _, l := range strings.Split(out, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}

	if strings.EqualFold(strings.TrimRight(line, "."), directSentinel) {
		return Decision{Direct: true}, nil
	}

	name, arg, found := strings.Cut(line, ":")
	if !found {
		name, arg, _ = strings.Cut(line, "：")
	}
	name = strings.TrimSpace(name)
	if _, ok := r.registry.Find(name); !ok {
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownCapability, line)
	}
	return Decision{Capability: name, Argument: strings.TrimSpace(arg)}, nil
}

func newestUserTurn(turns []Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser {
			return turns[i].Content
		}
	}
	return ""
}
