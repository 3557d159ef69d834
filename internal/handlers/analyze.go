package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/riverbend-studio/renamer/internal/analysis"
	"github.com/riverbend-studio/renamer/internal/models"
	"github.com/riverbend-studio/renamer/internal/storage"
)

// HandleAnalyze triggers captioning for every image in the session and
// returns the full updated record set, errors included.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessionID := strings.TrimPrefix(r.URL.Path, "/analyze/")

	// Analysis runs to completion once issued; a client disconnect must
	// not cancel in-flight captioning. Only the per-image timeout bounds
	// each unit.
	images, err := h.analyzer.AnalyzeSession(context.WithoutCancel(r.Context()), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			h.writeError(w, "Session not found", http.StatusNotFound)
		case errors.Is(err, analysis.ErrModelUnavailable):
			h.writeError(w, "AI model not configured properly", http.StatusInternalServerError)
		default:
			h.writeError(w, "Analysis failed: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, models.AnalyzeResponse{
		SessionID: sessionID,
		Images:    images,
		Status:    models.SessionAnalyzed,
	})
}
