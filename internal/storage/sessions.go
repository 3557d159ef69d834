package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/riverbend-studio/renamer/internal/models"
)

// ErrNotFound is returned for lookups of unknown session IDs.
var ErrNotFound = errors.New("session not found")

// SessionStore is the process-wide session registry. All access goes
// through the store's lock so record mutation during analysis and status
// polls from other requests see consistent sessions.
type SessionStore struct {
	sessions map[string]*models.Session
	mu       sync.RWMutex
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*models.Session),
	}
}

// NewSession allocates a session in the uploaded state without
// registering it. Callers that stage files first put the session in the
// registry only once the whole batch has landed.
func NewSession() *models.Session {
	return &models.Session{
		ID:        uuid.NewString(),
		Images:    make(map[string]*models.ImageRecord),
		Status:    models.SessionUploaded,
		CreatedAt: time.Now(),
	}
}

// Create allocates and registers a new session in the uploaded state.
func (s *SessionStore) Create() *models.Session {
	session := NewSession()
	s.Put(session)
	return session
}

// Put registers the session, replacing any prior entry with the same ID.
func (s *SessionStore) Put(session *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

// Get returns a snapshot of the session, or ErrNotFound.
func (s *SessionStore) Get(sessionID string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return snapshot(session), nil
}

// Update applies fn to the session under the store's write lock.
// fn must not block on I/O.
func (s *SessionStore) Update(sessionID string, fn func(*models.Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, exists := s.sessions[sessionID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	fn(session)
	return nil
}

// SetStatus advances the session's status. Transitions are forward-only:
// uploaded -> analyzed -> completed. A transition that would move the
// session backwards is ignored.
func (s *SessionStore) SetStatus(sessionID, status string) error {
	return s.Update(sessionID, func(session *models.Session) {
		if statusRank(status) >= statusRank(session.Status) {
			session.Status = status
		}
	})
}

// GetAll returns a snapshot of every registered session.
func (s *SessionStore) GetAll() map[string]*models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*models.Session, len(s.sessions))
	for id, session := range s.sessions {
		result[id] = snapshot(session)
	}
	return result
}

// Delete removes the session from the registry. Not idempotent: a second
// delete of the same ID returns ErrNotFound.
func (s *SessionStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[sessionID]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	delete(s.sessions, sessionID)
	return nil
}

func statusRank(status string) int {
	switch status {
	case models.SessionUploaded:
		return 0
	case models.SessionAnalyzed:
		return 1
	case models.SessionCompleted:
		return 2
	}
	return -1
}

// snapshot copies the session and its records so callers can read them
// without holding the store lock.
func snapshot(session *models.Session) *models.Session {
	out := &models.Session{
		ID:          session.ID,
		Images:      make(map[string]*models.ImageRecord, len(session.Images)),
		ImageOrder:  append([]string(nil), session.ImageOrder...),
		Status:      session.Status,
		ArchivePath: session.ArchivePath,
		CreatedAt:   session.CreatedAt,
	}
	for id, img := range session.Images {
		copied := *img
		out.Images[id] = &copied
	}
	return out
}
