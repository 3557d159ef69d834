package models

import "time"

// Session status values. A session only ever moves forward through these.
const (
	SessionUploaded  = "uploaded"
	SessionAnalyzed  = "analyzed"
	SessionCompleted = "completed"
)

// Image record status values.
const (
	ImagePending  = "pending"
	ImageAnalyzed = "analyzed"
	ImageError    = "error"
)

// Session represents one upload-to-download workflow instance
type Session struct {
	ID          string                  `json:"id"`
	Images      map[string]*ImageRecord `json:"images"`
	ImageOrder  []string                `json:"-"`
	Status      string                  `json:"status"`
	ArchivePath string                  `json:"archive_path,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

// ImageRecord tracks one uploaded image through the workflow
type ImageRecord struct {
	ID            string `json:"id"`
	OriginalName  string `json:"original_name"`
	SuggestedName string `json:"suggested_name"`
	FilePath      string `json:"file_path"`
	Size          int64  `json:"size"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
}

// ImageList returns the session's records in upload order.
func (s *Session) ImageList() []*ImageRecord {
	images := make([]*ImageRecord, 0, len(s.Images))
	for _, id := range s.ImageOrder {
		if img, ok := s.Images[id]; ok {
			images = append(images, img)
		}
	}
	return images
}

// RenameSelection is one user-chosen base name for an uploaded image
type RenameSelection struct {
	ID      string `json:"id"`
	NewName string `json:"new_name"`
}

// RenameRequest is the body of POST /rename/{session_id}
type RenameRequest struct {
	Images []RenameSelection `json:"images"`
}

// RenamedImage describes one exported copy produced by the rename stage
type RenamedImage struct {
	ID           string `json:"id"`
	OriginalName string `json:"original_name"`
	NewName      string `json:"new_name"`
	FilePath     string `json:"file_path"`
}

// UploadResponse is the body returned by POST /upload
type UploadResponse struct {
	SessionID  string         `json:"session_id"`
	Images     []*ImageRecord `json:"images"`
	TotalCount int            `json:"total_count"`
}

// AnalyzeResponse is the body returned by POST /analyze/{session_id}
type AnalyzeResponse struct {
	SessionID string         `json:"session_id"`
	Images    []*ImageRecord `json:"images"`
	Status    string         `json:"status"`
}

// RenameResponse is the body returned by POST /rename/{session_id}
type RenameResponse struct {
	SessionID     string         `json:"session_id"`
	RenamedImages []RenamedImage `json:"renamed_images"`
	DownloadReady bool           `json:"download_ready"`
}

// SessionResponse is the body returned by GET /session/{session_id}
type SessionResponse struct {
	SessionID  string         `json:"session_id"`
	Status     string         `json:"status"`
	Images     []*ImageRecord `json:"images"`
	TotalCount int            `json:"total_count"`
}
