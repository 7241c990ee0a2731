package api

import (
	"net/http"

	"github.com/firebase/genkit/go/genkit"

	"github.com/vocabvoyage/vocabvoyage/internal/dialog"
	"github.com/vocabvoyage/vocabvoyage/internal/log"
)

// ChatHandler exposes the chat flow over HTTP via Genkit's built-in
// handler. Request body: {"data": {"query": "...", "userId": "...",
// "chatId": "..."}} per the Genkit flow wire format.
type ChatHandler struct {
	chatFlow *dialog.Flow
	logger   log.Logger
}

func NewChatHandler(flow *dialog.Flow, logger log.Logger) *ChatHandler {
	return &ChatHandler{chatFlow: flow, logger: logger}
}

func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	if h.chatFlow == nil {
		h.logger.Warn("chat flow is nil, chat endpoint not registered")
		return
	}
	mux.Handle("POST /api/chat", genkit.Handler(h.chatFlow))
}
