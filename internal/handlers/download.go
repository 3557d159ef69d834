package handlers

import (
	"net/http"
	"os"
	"strings"

	"github.com/riverbend-studio/renamer/internal/storage"
)

// HandleDownload serves the session's archive. Unknown session, no
// archive recorded, and archive missing from disk are all 404s.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessionID := strings.TrimPrefix(r.URL.Path, "/download/")

	session, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	if session.ArchivePath == "" {
		h.writeError(w, "No processed files found", http.StatusNotFound)
		return
	}

	if _, err := os.Stat(session.ArchivePath); err != nil {
		h.writeError(w, "Download file not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+storage.ArchiveName+`"`)
	http.ServeFile(w, r, session.ArchivePath)
}
