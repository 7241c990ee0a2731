package dialog

import (
	"context"
	"fmt"

	"github.com/vocabvoyage/vocabvoyage/internal/capability"
)

const responderPrompt = `你是一位友善的英文學習助手，協助使用者學習英文。請用繁體中文回答，英文內容保留原文。

以下是先前的對話記錄：
%s

使用者最新的問題：
%s`

// Responder is the generation node. A capability result passes through
// unchanged; otherwise it issues one generation call grounded in recent
// history.
type Responder struct {
	completer capability.Completer
}

func NewResponder(completer capability.Completer) *Responder {
	return &Responder{completer: completer}
}

// Respond produces the terminal turn of the cycle. capResult, when non-nil,
// is an executor output and is returned unchanged. Otherwise history (which
// must exclude the newest user turn) and question feed one generation call.
func (r *Responder) Respond(ctx context.Context, capResult *Turn, history []Turn, question string) (Turn, error) {
	if capResult != nil {
		return *capResult, nil
	}

	out, err := r.completer.Complete(ctx, fmt.Sprintf(responderPrompt, renderTurns(history), question))
	if err != nil {
		return Turn{}, fmt.Errorf("response generation: %w", err)
	}
	return Turn{Role: RoleAssistant, Content: out}, nil
}
