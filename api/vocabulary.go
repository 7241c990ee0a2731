package api

import (
	"net/http"

	"github.com/vocabvoyage/vocabvoyage/internal/log"
)

// VocabularyHandler serves the saved vocabulary book.
type VocabularyHandler struct {
	store  Store
	logger log.Logger
}

func NewVocabularyHandler(st Store, logger log.Logger) *VocabularyHandler {
	return &VocabularyHandler{store: st, logger: logger}
}

func (h *VocabularyHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/vocabulary", h.list)
	mux.HandleFunc("DELETE /api/vocabulary/{word}", h.delete)
}

func (h *VocabularyHandler) resolveUser(w http.ResponseWriter, r *http.Request) (string, bool) {
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

func (h *VocabularyHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	entries, err := h.store.UserVocabulary(r.Context(), userID)
	if err != nil {
		h.logger.Error("listing vocabulary", "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to list vocabulary")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vocabulary": entries, "total": len(entries)})
}

func (h *VocabularyHandler) delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r)
	if !ok {
		return
	}
	word := r.PathValue("word")

	deleted, err := h.store.DeleteVocabulary(r.Context(), userID, word)
	if err != nil {
		h.logger.Error("deleting vocabulary", "word", word, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to delete word")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "not_found", "word not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
