package api

import (
	"encoding/json"
	"net/http"

	"github.com/vocabvoyage/vocabvoyage/internal/log"
)

// MaxNameLength bounds chat session names.
const MaxNameLength = 100

// ChatsHandler manages chat sessions.
type ChatsHandler struct {
	store   Store
	creator ChatCreator
	logger  log.Logger
}

func NewChatsHandler(st Store, creator ChatCreator, logger log.Logger) *ChatsHandler {
	return &ChatsHandler{store: st, creator: creator, logger: logger}
}

func (h *ChatsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/chats", h.list)
	mux.HandleFunc("POST /api/chats", h.create)
	mux.HandleFunc("PATCH /api/chats/{id}", h.rename)
	mux.HandleFunc("DELETE /api/chats/{id}", h.delete)
	mux.HandleFunc("GET /api/chats/{id}/messages", h.messages)
}

// resolveUser maps the user query parameter (a username) to a user id,
// creating the user on first sight. Writes the error response itself when
// it fails.
func (h *ChatsHandler) resolveUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	username := r.URL.Query().Get("user")
	if username == "" {
		writeError(w, http.StatusBadRequest, "missing_user", "user query parameter is required")
		return "", false
	}
	userID, err := h.store.GetOrCreateUser(r.Context(), username)
	if err != nil {
		h.logger.Error("resolving user", "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to resolve user")
		return "", false
	}
	return userID, true
}

func (h *ChatsHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	chats, err := h.store.UserChats(r.Context(), userID)
	if err != nil {
		h.logger.Error("listing chats", "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to list chats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chats": chats, "total": len(chats)})
}

// CreateChatRequest is the body for POST /api/chats.
type CreateChatRequest struct {
	Name string `json:"name"`
}

func (h *ChatsHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	var req CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if len(req.Name) > MaxNameLength {
		writeError(w, http.StatusBadRequest, "name_too_long", "name exceeds 100 characters")
		return
	}

	chatID, err := h.creator.NewChat(r.Context(), userID, req.Name)
	if err != nil {
		h.logger.Error("creating chat", "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to create chat")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"chatId": chatID})
}

// RenameChatRequest is the body for PATCH /api/chats/{id}.
type RenameChatRequest struct {
	Name string `json:"name"`
}

func (h *ChatsHandler) rename(w http.ResponseWriter, r *http.Request) {
	chatID := r.PathValue("id")

	var req RenameChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if req.Name == "" || len(req.Name) > MaxNameLength {
		writeError(w, http.StatusBadRequest, "invalid_name", "name must be 1-100 characters")
		return
	}

	renamed, err := h.store.RenameChat(r.Context(), chatID, req.Name)
	if err != nil {
		h.logger.Error("renaming chat", "chat_id", chatID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to rename chat")
		return
	}
	if !renamed {
		writeError(w, http.StatusNotFound, "not_found", "chat not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"chatId": chatID, "name": req.Name})
}

func (h *ChatsHandler) delete(w http.ResponseWriter, r *http.Request) {
	chatID := r.PathValue("id")

	deleted, err := h.store.DeleteChat(r.Context(), chatID)
	if err != nil {
		h.logger.Error("deleting chat", "chat_id", chatID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to delete chat")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "not_found", "chat not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatsHandler) messages(w http.ResponseWriter, r *http.Request) {
	chatID := r.PathValue("id")

	msgs, err := h.store.Messages(r.Context(), chatID)
	if err != nil {
		h.logger.Error("loading messages", "chat_id", chatID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to load messages")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs, "total": len(msgs)})
}
