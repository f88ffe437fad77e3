package storage

import (
	"fmt"
	"time"

	"github.com/meetverse/eventcal/recurrence"
)

// ErrorType classifies storage failures.
type ErrorType string

const (
	ErrNotFound      ErrorType = "not_found"
	ErrAlreadyExists ErrorType = "already_exists"
	ErrInvalidInput  ErrorType = "invalid_input"
)

// Error represents a storage-related error.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a storage not-found error.
func IsNotFound(err error) bool {
	if se, ok := err.(*Error); ok {
		return se.Type == ErrNotFound
	}
	return false
}

// Event is a persisted calendar event. A recurring event additionally
// carries rule text, exception dates and per-instance overrides; together
// with the base timestamps those form the series definition handed to the
// recurrence engine.
type Event struct {
	ID string `json:"id"`

	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Category    string   `json:"category,omitempty"`
	Organizer   string   `json:"organizer,omitempty"`
	URL         string   `json:"url,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	StartsAt time.Time `json:"startsAt"`
	EndsAt   time.Time `json:"endsAt"`
	TimeZone string    `json:"timeZone,omitempty"`

	RuleText string `json:"rule,omitempty"`

	// SeriesTitle and SeriesDescription are optional series-level
	// fallbacks for changed instances that override neither field.
	SeriesTitle       string `json:"seriesTitle,omitempty"`
	SeriesDescription string `json:"seriesDescription,omitempty"`

	Exceptions []recurrence.Date     `json:"exceptions,omitempty"`
	Overrides  []recurrence.Override `json:"overrides,omitempty"`

	Created  time.Time `json:"created,omitempty"`
	Modified time.Time `json:"modified,omitempty"`
}

// Recurring reports whether the event has a recurrence rule.
func (e *Event) Recurring() bool { return e.RuleText != "" }

// Series assembles the immutable series snapshot the recurrence engine
// expands.
func (e *Event) Series() recurrence.Series {
	return recurrence.Series{
		EventID:            e.ID,
		Start:              e.StartsAt,
		End:                e.EndsAt,
		TimeZone:           e.TimeZone,
		RuleText:           e.RuleText,
		DefaultTitle:       e.SeriesTitle,
		DefaultDescription: e.SeriesDescription,
		Exceptions:         append([]recurrence.Date(nil), e.Exceptions...),
		Overrides:          append([]recurrence.Override(nil), e.Overrides...),
		Fields: recurrence.EventFields{
			Title:       e.Title,
			Description: e.Description,
			Location:    e.Location,
			Category:    e.Category,
			Organizer:   e.Organizer,
			URL:         e.URL,
			Tags:        append([]string(nil), e.Tags...),
		},
	}
}

// ApplySeries copies the mutable series state (exceptions, overrides)
// back onto the event record after a resolver operation.
func (e *Event) ApplySeries(s recurrence.Series) {
	e.Exceptions = append([]recurrence.Date(nil), s.Exceptions...)
	e.Overrides = append([]recurrence.Override(nil), s.Overrides...)
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	clone := *e
	clone.Tags = append([]string(nil), e.Tags...)
	clone.Exceptions = append([]recurrence.Date(nil), e.Exceptions...)
	clone.Overrides = append([]recurrence.Override(nil), e.Overrides...)
	return &clone
}
