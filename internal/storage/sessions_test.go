package storage

import (
	"errors"
	"testing"

	"github.com/riverbend-studio/renamer/internal/models"
)

func TestSessionLifecycle(t *testing.T) {
	store := NewSessionStore()

	session := store.Create()
	if session.ID == "" {
		t.Fatal("Expected non-empty session ID")
	}
	if session.Status != models.SessionUploaded {
		t.Errorf("Expected status %s, got %s", models.SessionUploaded, session.Status)
	}

	got, err := store.Get(session.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != session.ID {
		t.Errorf("Expected ID %s, got %s", session.ID, got.ID)
	}

	if err := store.Delete(session.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(session.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetUnknownSession(t *testing.T) {
	store := NewSessionStore()
	if _, err := store.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPutRegistersDeferredSession(t *testing.T) {
	store := NewSessionStore()
	session := NewSession()

	// Unregistered sessions are invisible to lookups.
	if _, err := store.Get(session.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound before Put, got %v", err)
	}

	store.Put(session)
	got, err := store.Get(session.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != models.SessionUploaded {
		t.Errorf("Expected status %s, got %s", models.SessionUploaded, got.Status)
	}

	all := store.GetAll()
	if len(all) != 1 {
		t.Errorf("Expected 1 registered session, got %d", len(all))
	}
}

func TestDeleteIsNotIdempotent(t *testing.T) {
	store := NewSessionStore()
	session := store.Create()

	if err := store.Delete(session.ID); err != nil {
		t.Fatalf("First delete failed: %v", err)
	}
	if err := store.Delete(session.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUpdateUnknownSession(t *testing.T) {
	store := NewSessionStore()
	err := store.Update("nope", func(s *models.Session) {})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSetStatusForwardOnly(t *testing.T) {
	tests := []struct {
		name     string
		sequence []string
		expected string
	}{
		{
			name:     "normal progression",
			sequence: []string{models.SessionAnalyzed, models.SessionCompleted},
			expected: models.SessionCompleted,
		},
		{
			name:     "regression ignored",
			sequence: []string{models.SessionCompleted, models.SessionUploaded},
			expected: models.SessionCompleted,
		},
		{
			name:     "re-analyze after completion keeps completed",
			sequence: []string{models.SessionAnalyzed, models.SessionCompleted, models.SessionAnalyzed},
			expected: models.SessionCompleted,
		},
		{
			name:     "same status is allowed",
			sequence: []string{models.SessionAnalyzed, models.SessionAnalyzed},
			expected: models.SessionAnalyzed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewSessionStore()
			session := store.Create()
			for _, status := range tt.sequence {
				if err := store.SetStatus(session.ID, status); err != nil {
					t.Fatalf("SetStatus(%s) failed: %v", status, err)
				}
			}
			got, err := store.Get(session.ID)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got.Status != tt.expected {
				t.Errorf("Expected status %s, got %s", tt.expected, got.Status)
			}
		})
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	store := NewSessionStore()
	session := store.Create()

	err := store.Update(session.ID, func(s *models.Session) {
		s.Images["img-1"] = &models.ImageRecord{ID: "img-1", Status: models.ImagePending}
		s.ImageOrder = append(s.ImageOrder, "img-1")
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	snap, err := store.Get(session.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	snap.Images["img-1"].Status = models.ImageError

	fresh, err := store.Get(session.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fresh.Images["img-1"].Status != models.ImagePending {
		t.Error("Mutating a snapshot should not affect the stored session")
	}
}
