// Package store provides storage backends for IntakePipe.
//
// This file implements an in-memory store used in tests and for ephemeral
// single-process deployments.
package store

import (
	"sync"

	"github.com/advocata/intakepipe/internal/models"
	"github.com/google/uuid"
)

// InMemoryStore keeps sessions, leads, and the flow definition in maps
// guarded by a mutex. Sessions are stored by value so callers cannot mutate
// stored state without an explicit SaveSession.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	leads    map[string]models.LeadRecord
	flow     *models.FlowDefinition
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]models.Session),
		leads:    make(map[string]models.LeadRecord),
	}
}

// GetSession retrieves a session by id, or (nil, nil) when absent.
func (s *InMemoryStore) GetSession(id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	out := sess
	return &out, nil
}

// SaveSession upserts a session.
func (s *InMemoryStore) SaveSession(sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

// DeleteSession removes a session.
func (s *InMemoryStore) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// CreateLead persists a new lead, assigning an id when the record has none.
func (s *InMemoryStore) CreateLead(lead models.LeadRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	s.leads[lead.ID] = lead
	return lead.ID, nil
}

// UpdateLead applies a partial update to an existing lead.
func (s *InMemoryStore) UpdateLead(id string, upd LeadUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok {
		return nil
	}
	if upd.PhoneNumber != "" {
		lead.PhoneNumber = upd.PhoneNumber
	}
	if upd.PhoneFormatted != "" {
		lead.PhoneFormatted = upd.PhoneFormatted
	}
	if upd.Status != "" {
		lead.Status = upd.Status
	}
	s.leads[id] = lead
	return nil
}

// GetLead retrieves a lead by id, or (nil, nil) when absent.
func (s *InMemoryStore) GetLead(id string) (*models.LeadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.leads[id]
	if !ok {
		return nil, nil
	}
	out := lead
	return &out, nil
}

// GetFlow retrieves the flow definition, or (nil, nil) when none was saved.
func (s *InMemoryStore) GetFlow() (*models.FlowDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.flow == nil {
		return nil, nil
	}
	out := *s.flow
	return &out, nil
}

// SaveFlow upserts the flow definition.
func (s *InMemoryStore) SaveFlow(flow models.FlowDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flow = &flow
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
