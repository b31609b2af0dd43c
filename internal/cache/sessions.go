package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"study-cache/internal/devicestore"
	"study-cache/internal/models"
	"study-cache/internal/observability"
)

const sessionsKey = "study_sessions"

// SessionRegistry owns the durable study session list. Sessions share the
// group id namespace with the chat cache but nothing else; posting the
// companion announcement message is the caller's job, which keeps the two
// stores independently testable.
type SessionRegistry interface {
	Create(ctx context.Context, session models.StudySession) error
	ForGroup(ctx context.Context, groupID string) []models.StudySession
	ClearAll(ctx context.Context) error
}

// Sessions is the device-store-backed SessionRegistry. The full list is one
// flat JSON array; ordering is insertion order and stays stable.
type Sessions struct {
	store devicestore.Store

	mu       sync.Mutex
	loaded   bool
	sessions []models.StudySession
}

// NewSessions constructs a Sessions registry over the given store.
func NewSessions(store devicestore.Store) *Sessions {
	return &Sessions{store: store}
}

func (s *Sessions) load(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true

	raw, err := s.store.Get(ctx, sessionsKey)
	if err != nil {
		observability.IncStoreError("get")
		log.Printf("session registry read failed, starting empty: %v", err)
		return
	}
	if raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), &s.sessions); err != nil {
		log.Printf("session registry corrupted, starting empty: %v", err)
		s.sessions = nil
	}
}

// Create appends the session and persists. The creator is always listed as
// an attendee.
func (s *Sessions) Create(ctx context.Context, session models.StudySession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)

	if session.CreatedBy != "" && !contains(session.Attendees, session.CreatedBy) {
		session.Attendees = append(session.Attendees, session.CreatedBy)
	}
	s.sessions = append(s.sessions, session)

	observability.IncCacheOp("sessions", "create")
	raw, err := json.Marshal(s.sessions)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, sessionsKey, string(raw)); err != nil {
		observability.IncStoreError("set")
		return err
	}
	return nil
}

// ForGroup returns the group's sessions in creation order.
func (s *Sessions) ForGroup(ctx context.Context, groupID string) []models.StudySession {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)

	var out []models.StudySession
	for _, session := range s.sessions {
		if session.GroupID == groupID {
			out = append(out, session)
		}
	}
	return out
}

// ClearAll wipes every session, for logout.
func (s *Sessions) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = nil
	s.loaded = true
	return s.store.Remove(ctx, sessionsKey)
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

var _ SessionRegistry = (*Sessions)(nil)
