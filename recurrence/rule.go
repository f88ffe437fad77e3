package recurrence

import (
	"time"

	"github.com/samber/mo"
)

// Frequency is the base period of a recurrence rule. The parser stores
// whatever token the rule text carried; Validate flags unknown values.
type Frequency string

const (
	FreqDaily   Frequency = "DAILY"
	FreqWeekly  Frequency = "WEEKLY"
	FreqMonthly Frequency = "MONTHLY"
	FreqYearly  Frequency = "YEARLY"
)

// KnownFrequency reports whether f is one of the four supported frequencies.
func KnownFrequency(f Frequency) bool {
	switch f {
	case FreqDaily, FreqWeekly, FreqMonthly, FreqYearly:
		return true
	}
	return false
}

// WeekdayPos is one BYDAY entry: a weekday with an optional ordinal
// position within the period. Ordinal 0 means "every occurrence of this
// weekday"; a non-zero ordinal selects the Nth occurrence in the month
// (negative counts from the end, -1 = last).
type WeekdayPos struct {
	Weekday time.Weekday
	Ordinal int
}

// Rule is a parsed recurrence rule. Immutable once produced by Parse;
// treat as a value.
type Rule struct {
	Frequency  Frequency
	Interval   int // step between periods, defaults to 1
	ByWeekdays []WeekdayPos
	BySetPos   []int
	ByMonthDay mo.Option[int]
	Count      mo.Option[int]
	Until      mo.Option[Date]
}

// weekdayOrder is the iteration order for weekday candidates inside a
// week bucket (ISO week, Monday first).
var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// weekdaySet collapses BYDAY entries to the set of listed weekdays,
// ignoring ordinals.
func weekdaySet(byDay []WeekdayPos) map[time.Weekday]bool {
	set := make(map[time.Weekday]bool, len(byDay))
	for _, wp := range byDay {
		set[wp.Weekday] = true
	}
	return set
}
