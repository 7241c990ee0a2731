package dialog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vocabvoyage/vocabvoyage/internal/log"
	"github.com/vocabvoyage/vocabvoyage/internal/store"
)

// These tests drive the engine against a real SQLite store so the foreign
// keys between users, chat_sessions and chat_messages are enforced; an
// in-memory fake cannot catch a missing user or session row.

func openSQLiteStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "vocab.db"), log.NewNop())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestEngineFirstUseCreatesUserAndChat(t *testing.T) {
	st := openSQLiteStore(t)
	e := newTestEngine(st, "direct response", "", "你好！想學什麼單字？")

	ctx := context.Background()
	res, err := e.Respond(ctx, Request{Utterance: "hi", UserID: "newcomer"})
	if err != nil {
		t.Fatalf("Respond() error = %v, want first use to succeed without prior setup", err)
	}
	if res.ChatID == "" {
		t.Fatal("Respond() did not assign a chat id")
	}

	chats, err := st.UserChats(ctx, "newcomer")
	if err != nil {
		t.Fatalf("UserChats: %v", err)
	}
	if len(chats) != 1 {
		t.Fatalf("chats = %d, want the auto-created session", len(chats))
	}

	msgs, err := st.Messages(ctx, res.ChatID)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("messages = %d, want welcome + user + assistant", len(msgs))
	}
	if !strings.Contains(msgs[0].Content, "歡迎使用 VocabVoyage") {
		t.Errorf("first turn = %q, want the welcome message", msgs[0].Content)
	}
}

func TestEngineFirstUseWithExternalChatID(t *testing.T) {
	st := openSQLiteStore(t)
	ctx := context.Background()

	e := newTestEngine(st, "direct response", "", "你好！")
	res, err := e.Respond(ctx, Request{Utterance: "hi", UserID: "newcomer", ChatID: "client-minted-id"})
	if err != nil {
		t.Fatalf("Respond() error = %v, want the unknown chat id auto-created", err)
	}
	if res.ChatID != "client-minted-id" {
		t.Fatalf("ChatID = %q, want the caller's id kept", res.ChatID)
	}

	// A second turn reuses the session instead of recreating it.
	e2 := newTestEngine(st, "direct response", "", "再見！")
	if _, err := e2.Respond(ctx, Request{Utterance: "bye", UserID: "newcomer", ChatID: "client-minted-id"}); err != nil {
		t.Fatalf("second Respond() error = %v", err)
	}

	chats, err := st.UserChats(ctx, "newcomer")
	if err != nil {
		t.Fatalf("UserChats: %v", err)
	}
	if len(chats) != 1 {
		t.Fatalf("chats = %d, want a single session across both turns", len(chats))
	}
	msgs, err := st.Messages(ctx, "client-minted-id")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("messages = %d, want welcome + two user/assistant pairs", len(msgs))
	}
}
