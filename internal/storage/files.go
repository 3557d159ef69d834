package storage

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/riverbend-studio/renamer/internal/models"
)

// ErrNotImage marks an upload whose declared content type is not an image.
// Callers skip these files rather than failing the batch.
var ErrNotImage = errors.New("declared content type is not an image")

// ArchiveName is the fixed filename of the per-session download archive.
const ArchiveName = "renamed_images.zip"

// ImageStore stages uploaded bytes under a per-session upload directory
// and copies renamed files into a per-session output directory.
type ImageStore struct {
	uploadDir string
	outputDir string
}

func NewImageStore(uploadDir, outputDir string) *ImageStore {
	return &ImageStore{
		uploadDir: uploadDir,
		outputDir: outputDir,
	}
}

// Stage writes uploaded bytes under the session's upload directory and
// returns the populated record. The content type check is declared-type
// policy only, no sniffing: a non-image type returns ErrNotImage. Size is
// read back from disk rather than trusting the upload length.
func (s *ImageStore) Stage(sessionID, filename, contentType string, data []byte) (*models.ImageRecord, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotImage, filename, contentType)
	}

	sessionDir := filepath.Join(s.uploadDir, sessionID)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	imageID := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filename))
	imagePath := filepath.Join(sessionDir, imageID+ext)

	if err := os.WriteFile(imagePath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	info, err := os.Stat(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat saved image: %w", err)
	}

	slog.Info("Image staged", "session_id", sessionID, "image_id", imageID, "size", info.Size())

	return &models.ImageRecord{
		ID:           imageID,
		OriginalName: filename,
		FilePath:     imagePath,
		Size:         info.Size(),
		Status:       models.ImagePending,
	}, nil
}

// CopyForExport copies a staged file into the session's output directory
// under newBaseName plus the source file's extension. An existing file at
// the target path is overwritten.
func (s *ImageStore) CopyForExport(sessionID string, record *models.ImageRecord, newBaseName string) (string, error) {
	outDir := filepath.Join(s.outputDir, sessionID)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	// The base name is user-supplied; strip any path components so the
	// copy cannot escape the session's output namespace.
	ext := filepath.Ext(record.FilePath)
	exportPath := filepath.Join(outDir, filepath.Base(newBaseName)+ext)

	src, err := os.Open(record.FilePath)
	if err != nil {
		return "", fmt.Errorf("failed to open staged image: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(exportPath)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to copy image: %w", err)
	}

	return exportPath, nil
}

// Bundle writes the session's download archive containing each exported
// file under its display name. Duplicate display names are written as-is;
// the archive format does not deduplicate them.
func (s *ImageStore) Bundle(sessionID string, exports []models.RenamedImage) (string, error) {
	outDir := filepath.Join(s.outputDir, sessionID)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	archivePath := filepath.Join(outDir, ArchiveName)
	archive, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer archive.Close()

	zw := zip.NewWriter(archive)
	for _, export := range exports {
		entry, err := zw.Create(export.NewName)
		if err != nil {
			zw.Close()
			return "", fmt.Errorf("failed to create archive entry %s: %w", export.NewName, err)
		}
		src, err := os.Open(export.FilePath)
		if err != nil {
			zw.Close()
			return "", fmt.Errorf("failed to open export %s: %w", export.FilePath, err)
		}
		_, err = io.Copy(entry, src)
		src.Close()
		if err != nil {
			zw.Close()
			return "", fmt.Errorf("failed to write archive entry %s: %w", export.NewName, err)
		}
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}

	slog.Info("Archive created", "session_id", sessionID, "path", archivePath, "entries", len(exports))
	return archivePath, nil
}

// RemoveSessionStorage deletes the session's upload and output directories.
// Missing directories are not an error.
func (s *ImageStore) RemoveSessionStorage(sessionID string) error {
	for _, dir := range []string{
		filepath.Join(s.uploadDir, sessionID),
		filepath.Join(s.outputDir, sessionID),
	} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
	}
	return nil
}
