package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/riverbend-studio/renamer/internal/models"
)

// HandleRename copies each selected image to its user-chosen name,
// bundles the copies into the session archive, and marks the session
// completed. Selections referencing unknown image IDs are skipped.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessionID := strings.TrimPrefix(r.URL.Path, "/rename/")

	session, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	var req models.RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	renamed := make([]models.RenamedImage, 0, len(req.Images))
	for _, selection := range req.Images {
		record, exists := session.Images[selection.ID]
		if !exists {
			slog.Warn("Image ID not found", "session_id", sessionID, "image_id", selection.ID)
			continue
		}

		// User-chosen names are flattened to their base so neither the
		// export copy nor the archive entry can carry path components.
		baseName := filepath.Base(selection.NewName)
		exportPath, err := h.imageStore.CopyForExport(sessionID, record, baseName)
		if err != nil {
			h.writeError(w, "Rename failed: "+err.Error(), http.StatusInternalServerError)
			return
		}

		renamed = append(renamed, models.RenamedImage{
			ID:           selection.ID,
			OriginalName: record.OriginalName,
			NewName:      baseName + filepath.Ext(record.FilePath),
			FilePath:     exportPath,
		})
	}

	archivePath, err := h.imageStore.Bundle(sessionID, renamed)
	if err != nil {
		h.writeError(w, "Failed to create archive: "+err.Error(), http.StatusInternalServerError)
		return
	}

	err = h.sessionStore.Update(sessionID, func(session *models.Session) {
		session.Status = models.SessionCompleted
		session.ArchivePath = archivePath
	})
	if err != nil {
		h.storageError(w, err, "Rename failed")
		return
	}

	h.writeJSON(w, models.RenameResponse{
		SessionID:     sessionID,
		RenamedImages: renamed,
		DownloadReady: true,
	})
}
