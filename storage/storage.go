package storage

import "context"

// Storage connects the calendar core with a backend store. Implementations
// must return the error types of this package so callers can map them onto
// API responses.
type Storage interface {
	// GetEvent retrieves a single event by id.
	GetEvent(ctx context.Context, id string) (*Event, error)
	// ListEvents retrieves all events, recurring and plain.
	ListEvents(ctx context.Context) ([]*Event, error)
	// CreateEvent stores a new event. An empty ID is filled in by the
	// implementation.
	CreateEvent(ctx context.Context, event *Event) error
	// UpdateEvent replaces a stored event, including its exception dates
	// and overrides. Last write wins; optimistic locking is out of scope.
	UpdateEvent(ctx context.Context, event *Event) error
	// DeleteEvent removes an event and its series state.
	DeleteEvent(ctx context.Context, id string) error
}
