package storage

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/riverbend-studio/renamer/internal/models"
)

func newTestStore(t *testing.T) *ImageStore {
	t.Helper()
	base := t.TempDir()
	return NewImageStore(filepath.Join(base, "uploads"), filepath.Join(base, "processed"))
}

func TestStage(t *testing.T) {
	store := newTestStore(t)
	data := []byte("fake image bytes")

	record, err := store.Stage("sess-1", "Holiday.JPG", "image/jpeg", data)
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	if record.Size != int64(len(data)) {
		t.Errorf("Expected size %d, got %d", len(data), record.Size)
	}
	if record.Status != models.ImagePending {
		t.Errorf("Expected status %s, got %s", models.ImagePending, record.Status)
	}
	if record.OriginalName != "Holiday.JPG" {
		t.Errorf("Expected original name Holiday.JPG, got %s", record.OriginalName)
	}
	if !strings.HasSuffix(record.FilePath, ".jpg") {
		t.Errorf("Expected lowercased extension .jpg, got %s", record.FilePath)
	}

	written, err := os.ReadFile(record.FilePath)
	if err != nil {
		t.Fatalf("Failed to read staged file: %v", err)
	}
	if !bytes.Equal(written, data) {
		t.Error("Staged bytes differ from uploaded bytes")
	}
}

func TestStageRejectsNonImage(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		wantImage   bool
	}{
		{name: "jpeg", contentType: "image/jpeg", wantImage: true},
		{name: "png", contentType: "image/png", wantImage: true},
		{name: "text file", contentType: "text/plain", wantImage: false},
		{name: "pdf", contentType: "application/pdf", wantImage: false},
		{name: "empty content type", contentType: "", wantImage: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			_, err := store.Stage("sess-1", "file.bin", tt.contentType, []byte("data"))
			if tt.wantImage && err != nil {
				t.Errorf("Expected accept, got %v", err)
			}
			if !tt.wantImage && !errors.Is(err, ErrNotImage) {
				t.Errorf("Expected ErrNotImage, got %v", err)
			}
		})
	}
}

func TestCopyForExport(t *testing.T) {
	store := newTestStore(t)
	data := []byte("original content")

	record, err := store.Stage("sess-1", "photo.png", "image/png", data)
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	exportPath, err := store.CopyForExport("sess-1", record, "sunset_over_lake")
	if err != nil {
		t.Fatalf("CopyForExport failed: %v", err)
	}

	if filepath.Base(exportPath) != "sunset_over_lake.png" {
		t.Errorf("Expected export name sunset_over_lake.png, got %s", filepath.Base(exportPath))
	}
	copied, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	if !bytes.Equal(copied, data) {
		t.Error("Exported bytes differ from staged bytes")
	}
}

func TestCopyForExportOverwrites(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Stage("sess-1", "a.png", "image/png", []byte("first"))
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	second, err := store.Stage("sess-1", "b.png", "image/png", []byte("second"))
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	if _, err := store.CopyForExport("sess-1", first, "same_name"); err != nil {
		t.Fatalf("CopyForExport failed: %v", err)
	}
	exportPath, err := store.CopyForExport("sess-1", second, "same_name")
	if err != nil {
		t.Fatalf("CopyForExport failed: %v", err)
	}

	got, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Expected last write to win, got %q", got)
	}
}

func TestCopyForExportStripsPathComponents(t *testing.T) {
	store := newTestStore(t)

	record, err := store.Stage("sess-1", "photo.png", "image/png", []byte("data"))
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	exportPath, err := store.CopyForExport("sess-1", record, "../../escape")
	if err != nil {
		t.Fatalf("CopyForExport failed: %v", err)
	}

	sessionDir := filepath.Join(store.outputDir, "sess-1")
	rel, err := filepath.Rel(sessionDir, exportPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		t.Errorf("Export escaped the session namespace: %s", exportPath)
	}
	if filepath.Base(exportPath) != "escape.png" {
		t.Errorf("Expected flattened name escape.png, got %s", filepath.Base(exportPath))
	}
}

func TestBundleRoundTrip(t *testing.T) {
	store := newTestStore(t)

	contents := map[string][]byte{
		"red_barn_in_snow.jpg":  []byte("jpeg bytes one"),
		"dog_catching_ball.png": []byte("png bytes two"),
	}

	var exports []models.RenamedImage
	for name, data := range contents {
		record, err := store.Stage("sess-1", name, "image/png", data)
		if err != nil {
			t.Fatalf("Stage failed: %v", err)
		}
		exports = append(exports, models.RenamedImage{
			ID:       record.ID,
			NewName:  name,
			FilePath: record.FilePath,
		})
	}

	archivePath, err := store.Bundle("sess-1", exports)
	if err != nil {
		t.Fatalf("Bundle failed: %v", err)
	}
	if filepath.Base(archivePath) != ArchiveName {
		t.Errorf("Expected archive name %s, got %s", ArchiveName, filepath.Base(archivePath))
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	defer zr.Close()

	if len(zr.File) != len(contents) {
		t.Fatalf("Expected %d entries, got %d", len(contents), len(zr.File))
	}
	for _, f := range zr.File {
		want, ok := contents[f.Name]
		if !ok {
			t.Errorf("Unexpected archive entry %s", f.Name)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Failed to open entry %s: %v", f.Name, err)
		}
		got, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("Failed to read entry %s: %v", f.Name, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Entry %s content differs from staged upload", f.Name)
		}
	}
}

func TestBundleOverwritesPriorArchive(t *testing.T) {
	store := newTestStore(t)

	record, err := store.Stage("sess-1", "a.png", "image/png", []byte("data"))
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	export := models.RenamedImage{ID: record.ID, NewName: "one.png", FilePath: record.FilePath}

	if _, err := store.Bundle("sess-1", []models.RenamedImage{export, export}); err != nil {
		t.Fatalf("Bundle failed: %v", err)
	}
	archivePath, err := store.Bundle("sess-1", []models.RenamedImage{export})
	if err != nil {
		t.Fatalf("Second bundle failed: %v", err)
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	defer zr.Close()
	if len(zr.File) != 1 {
		t.Errorf("Expected replacement archive with 1 entry, got %d", len(zr.File))
	}
}

func TestRemoveSessionStorage(t *testing.T) {
	store := newTestStore(t)

	record, err := store.Stage("sess-1", "a.png", "image/png", []byte("data"))
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if _, err := store.CopyForExport("sess-1", record, "renamed"); err != nil {
		t.Fatalf("CopyForExport failed: %v", err)
	}

	if err := store.RemoveSessionStorage("sess-1"); err != nil {
		t.Fatalf("RemoveSessionStorage failed: %v", err)
	}
	if _, err := os.Stat(record.FilePath); !os.IsNotExist(err) {
		t.Error("Expected staged file to be removed")
	}

	// Removing again is fine: missing namespaces are not an error.
	if err := store.RemoveSessionStorage("sess-1"); err != nil {
		t.Errorf("Expected no error for missing namespaces, got %v", err)
	}
}
