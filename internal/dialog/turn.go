package dialog

import (
	"fmt"
	"strings"
)

// Turn is one role-tagged message inside an orchestration cycle. Turns are
// value types; the persisted form is store.ChatMessage.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation roles. Persisted messages carry the same strings.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// renderTurns formats turns as a role-prefixed transcript block for prompt
// assembly.
func renderTurns(turns []Turn) string {
	if len(turns) == 0 {
		return "（無）"
	}
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}
