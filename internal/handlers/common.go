package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/riverbend-studio/renamer/internal/analysis"
	"github.com/riverbend-studio/renamer/internal/config"
	"github.com/riverbend-studio/renamer/internal/models"
	"github.com/riverbend-studio/renamer/internal/storage"
)

type Handler struct {
	cfg          *config.Config
	sessionStore *storage.SessionStore
	imageStore   *storage.ImageStore
	analyzer     *analysis.Analyzer
}

func New(cfg *config.Config, sessionStore *storage.SessionStore, imageStore *storage.ImageStore, analyzer *analysis.Analyzer) *Handler {
	return &Handler{
		cfg:          cfg,
		sessionStore: sessionStore,
		imageStore:   imageStore,
		analyzer:     analyzer,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"detail": message}); err != nil {
		slog.Error("Unable to encode error response", "err", err)
	}
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*models.Session, bool) {
	session, err := h.sessionStore.Get(sessionID)
	if err != nil {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

// storageError maps unknown-session errors to 404 and everything else
// to 500.
func (h *Handler) storageError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, storage.ErrNotFound) {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	h.writeError(w, fallback+": "+err.Error(), http.StatusInternalServerError)
}
