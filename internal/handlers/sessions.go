package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/riverbend-studio/renamer/internal/models"
)

// HandleSession serves the session snapshot and handles cleanup.
// Deleting removes the session's files and registry entry together.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, "/session/")

	session, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		h.writeJSON(w, models.SessionResponse{
			SessionID:  sessionID,
			Status:     session.Status,
			Images:     session.ImageList(),
			TotalCount: len(session.Images),
		})
	case "DELETE":
		if err := h.imageStore.RemoveSessionStorage(sessionID); err != nil {
			h.writeError(w, "Cleanup failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if err := h.sessionStore.Delete(sessionID); err != nil {
			h.storageError(w, err, "Cleanup failed")
			return
		}
		slog.Info("Session cleaned up", "session_id", sessionID)
		h.writeJSON(w, map[string]string{"message": "Session cleaned up successfully"})
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleHealth is the liveness probe.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{
		"status":  "healthy",
		"message": "AI Image Renamer API is running",
	})
}
