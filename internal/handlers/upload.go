package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/riverbend-studio/renamer/internal/models"
	"github.com/riverbend-studio/renamer/internal/storage"
)

// errFileTooLarge marks an upload over the configured per-file limit.
var errFileTooLarge = errors.New("file too large")

// HandleUpload accepts a multipart batch of images, stages each one, and
// creates the session. Files whose declared content type is not an image
// are skipped, not failed.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, "Failed to parse upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		parts = r.MultipartForm.File["file"]
	}
	if len(parts) == 0 {
		h.writeError(w, "No files provided", http.StatusBadRequest)
		return
	}
	slog.Info("Received upload", "files", len(parts))

	// The session and its records register atomically: staging happens
	// against an unregistered session, and a mid-batch failure unwinds
	// the staged files instead of leaving an unreachable session behind.
	session := storage.NewSession()
	uploaded := make([]*models.ImageRecord, 0, len(parts))

	for _, part := range parts {
		record, err := h.stagePart(session.ID, part)
		if err != nil {
			if errors.Is(err, storage.ErrNotImage) {
				slog.Warn("Skipping non-image file", "filename", part.Filename)
				continue
			}
			if cleanupErr := h.imageStore.RemoveSessionStorage(session.ID); cleanupErr != nil {
				slog.Error("Failed to unwind staged files", "session_id", session.ID, "err", cleanupErr)
			}
			code := http.StatusInternalServerError
			if errors.Is(err, errFileTooLarge) {
				code = http.StatusBadRequest
			}
			h.writeError(w, "Upload failed: "+err.Error(), code)
			return
		}
		uploaded = append(uploaded, record)
	}

	for _, record := range uploaded {
		session.Images[record.ID] = record
		session.ImageOrder = append(session.ImageOrder, record.ID)
	}
	h.sessionStore.Put(session)

	slog.Info("Upload completed", "session_id", session.ID, "images", len(uploaded))
	h.writeJSON(w, models.UploadResponse{
		SessionID:  session.ID,
		Images:     uploaded,
		TotalCount: len(uploaded),
	})
}

func (h *Handler) stagePart(sessionID string, part *multipart.FileHeader) (*models.ImageRecord, error) {
	file, err := part.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > h.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %s", errFileTooLarge, part.Filename)
	}

	contentType := part.Header.Get("Content-Type")
	return h.imageStore.Stage(sessionID, part.Filename, contentType, data)
}
