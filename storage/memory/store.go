// Package memory provides a map-backed Storage implementation, used in
// tests and as the default backend when no database is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meetverse/eventcal/storage"
)

// Store implements storage.Storage using in-memory maps.
type Store struct {
	mu     sync.RWMutex
	events map[string]*storage.Event
	now    func() time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		events: make(map[string]*storage.Event),
		now:    time.Now,
	}
}

func (s *Store) GetEvent(_ context.Context, id string) (*storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok {
		return nil, &storage.Error{Type: storage.ErrNotFound, Message: "event not found"}
	}
	return event.Clone(), nil
}

func (s *Store) ListEvents(_ context.Context) ([]*storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]*storage.Event, 0, len(s.events))
	for _, event := range s.events {
		events = append(events, event.Clone())
	}
	return events, nil
}

func (s *Store) CreateEvent(_ context.Context, event *storage.Event) error {
	if event == nil {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "event is nil"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	} else if _, ok := s.events[event.ID]; ok {
		return &storage.Error{Type: storage.ErrAlreadyExists, Message: "event already exists"}
	}

	event.Created = s.now()
	event.Modified = event.Created
	s.events[event.ID] = event.Clone()
	return nil
}

func (s *Store) UpdateEvent(_ context.Context, event *storage.Event) error {
	if event == nil || event.ID == "" {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "event id is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.events[event.ID]
	if !ok {
		return &storage.Error{Type: storage.ErrNotFound, Message: "event not found"}
	}

	event.Created = existing.Created
	event.Modified = s.now()
	s.events[event.ID] = event.Clone()
	return nil
}

func (s *Store) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return &storage.Error{Type: storage.ErrNotFound, Message: "event not found"}
	}
	delete(s.events, id)
	return nil
}
