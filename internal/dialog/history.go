package dialog

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/vocabvoyage/vocabvoyage/internal/store"
)

// historyWindowPerRole caps how many turns of each role the recent-history
// window keeps. The window bounds the context passed into classification and
// generation calls; it is not a semantic summary.
const historyWindowPerRole = 2

// MessageSource supplies the persisted message log of a chat in replay order.
// Satisfied by both store.Store and store.Mirror.
type MessageSource interface {
	Messages(ctx context.Context, chatID string) ([]store.ChatMessage, error)
}

// RecentHistory reconstructs the bounded recent-history window for a chat:
// at most the 2 most recent user turns and the 2 most recent assistant
// turns, restored to chronological order. A chat with no messages yields an
// empty window.
func RecentHistory(ctx context.Context, src MessageSource, chatID string) ([]Turn, error) {
	msgs, err := src.Messages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}

	var users, assistants int
	var window []Turn
	for i := len(msgs) - 1; i >= 0; i-- {
		switch msgs[i].Role {
		case RoleUser:
			if users == historyWindowPerRole {
				continue
			}
			users++
		case RoleAssistant:
			if assistants == historyWindowPerRole {
				continue
			}
			assistants++
		default:
			continue
		}
		window = append(window, Turn{Role: msgs[i].Role, Content: msgs[i].Content})
		if users == historyWindowPerRole && assistants == historyWindowPerRole {
			break
		}
	}

	return lo.Reverse(window), nil
}
