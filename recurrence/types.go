package recurrence

import (
	"time"

	"github.com/samber/mo"
)

// EventFields carries the non-temporal fields of the base event. Expansion
// copies them verbatim onto every generated occurrence; the core never
// interprets them.
type EventFields struct {
	Title       string
	Description string
	Location    string
	Category    string
	Organizer   string
	URL         string
	Tags        []string
}

// Series is the recurring-event definition handed to the Engine: the base
// occurrence, the rule text, the exception dates and the per-instance
// overrides. Treat a Series as an immutable snapshot per call; the
// mutation operations in this package return fresh copies.
type Series struct {
	EventID string

	// Start and End describe the base occurrence. Their wall-clock
	// time-of-day in TimeZone is applied to every generated date.
	Start time.Time
	End   time.Time

	// TimeZone is an IANA zone name ("Europe/Berlin"). Empty means UTC.
	TimeZone string

	// RuleText is the stored "KEY=VALUE;..." recurrence rule. Empty means
	// the series is a single non-recurring occurrence.
	RuleText string

	// DefaultTitle and DefaultDescription are series-level fallbacks used
	// when a changed override supplies neither field.
	DefaultTitle       string
	DefaultDescription string

	// Exceptions are dates that never produce an occurrence, sorted
	// ascending.
	Exceptions []Date

	Overrides []Override

	Fields EventFields
}

// OverrideType distinguishes a modified instance from a cancelled one.
type OverrideType string

const (
	OverrideChanged   OverrideType = "changed"
	OverrideCancelled OverrideType = "cancelled"
)

// Override modifies or cancels a single generated instance, keyed by the
// calendar date it replaces. For changed overrides only the set fields are
// overlaid; for cancelled overrides CancelReason may carry free text.
type Override struct {
	Date Date         `json:"date"`
	Type OverrideType `json:"type"`

	Title       mo.Option[string]    `json:"title"`
	Description mo.Option[string]    `json:"description"`
	Location    mo.Option[string]    `json:"location"`
	Start       mo.Option[time.Time] `json:"start"`
	End         mo.Option[time.Time] `json:"end"`

	CancelReason string `json:"cancelReason,omitempty"`
}

// Occurrence is one concrete calendar instance produced by expansion.
// Occurrences are recomputed on every read and carry no identity beyond
// (EventID, Date); they are never persisted.
type Occurrence struct {
	EventID string `json:"eventId"`
	Date    Date   `json:"date"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Category    string   `json:"category,omitempty"`
	Organizer   string   `json:"organizer,omitempty"`
	URL         string   `json:"url,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	IsRecurringInstance bool   `json:"isRecurringInstance"`
	IsOverridden        bool   `json:"isOverridden,omitempty"`
	IsCancelled         bool   `json:"isCancelled,omitempty"`
	CancelReason        string `json:"cancelReason,omitempty"`
}

// exceptionSet answers membership queries over the sorted exception list.
func exceptionSet(dates []Date) map[Date]bool {
	set := make(map[Date]bool, len(dates))
	for _, d := range dates {
		set[d] = true
	}
	return set
}

// findOverride returns the override for date, if any.
func findOverride(overrides []Override, date Date) (Override, bool) {
	for _, o := range overrides {
		if o.Date == date {
			return o, true
		}
	}
	return Override{}, false
}
