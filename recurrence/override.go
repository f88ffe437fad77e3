package recurrence

import (
	"fmt"
	"sort"
)

// ApplyOverrides merges per-instance overrides into expanded occurrences.
// Cancelled instances stay in the result flagged IsCancelled, so the
// calendar UI and the feed can render them as cancelled rather than have
// them vanish. For changed instances only the fields the override carries
// are overlaid; when it carries neither title nor description, the
// series-level default applies before the base event's own field
// (override > series default > base field).
func ApplyOverrides(occurrences []Occurrence, series Series) []Occurrence {
	if len(series.Overrides) == 0 {
		return occurrences
	}

	out := make([]Occurrence, len(occurrences))
	for i, occ := range occurrences {
		override, ok := findOverride(series.Overrides, occ.Date)
		if !ok {
			out[i] = occ
			continue
		}
		switch override.Type {
		case OverrideCancelled:
			occ.IsCancelled = true
			occ.CancelReason = override.CancelReason
		case OverrideChanged:
			if title, ok := override.Title.Get(); ok {
				occ.Title = title
			} else if series.DefaultTitle != "" {
				occ.Title = series.DefaultTitle
			}
			if desc, ok := override.Description.Get(); ok {
				occ.Description = desc
			} else if series.DefaultDescription != "" {
				occ.Description = series.DefaultDescription
			}
			if location, ok := override.Location.Get(); ok {
				occ.Location = location
			}
			if start, ok := override.Start.Get(); ok {
				occ.Start = start
			}
			if end, ok := override.End.Get(); ok {
				occ.End = end
			}
		}
		occ.IsOverridden = true
		out[i] = occ
	}
	return out
}

// AddExceptionDate returns a copy of series with date added to the
// exception set, kept sorted ascending. Adding a date twice fails with
// ErrDuplicateException; adding a date that carries an active override
// fails with ErrOverrideConflict, because an exception removes the
// instance entirely while an override modifies a still-visible one.
func AddExceptionDate(series Series, date Date) (Series, error) {
	if date.IsZero() {
		return series, ErrMissingInstanceDate
	}
	for _, d := range series.Exceptions {
		if d == date {
			return series, fmt.Errorf("%w: %s", ErrDuplicateException, date)
		}
	}
	if _, ok := findOverride(series.Overrides, date); ok {
		return series, fmt.Errorf("%w: %s", ErrOverrideConflict, date)
	}

	exceptions := make([]Date, 0, len(series.Exceptions)+1)
	exceptions = append(exceptions, series.Exceptions...)
	exceptions = append(exceptions, date)
	sort.Slice(exceptions, func(i, j int) bool { return exceptions[i].Before(exceptions[j]) })

	series.Exceptions = exceptions
	return series, nil
}

// RemoveExceptionDate returns a copy of series with date removed from the
// exception set. Removing an absent date is a no-op, not an error.
func RemoveExceptionDate(series Series, date Date) Series {
	exceptions := make([]Date, 0, len(series.Exceptions))
	for _, d := range series.Exceptions {
		if d != date {
			exceptions = append(exceptions, d)
		}
	}
	series.Exceptions = exceptions
	return series
}

// SetOverride returns a copy of series with the override installed,
// replacing any previous override for the same date. The date must not be
// in the exception set.
func SetOverride(series Series, override Override) (Series, error) {
	if override.Date.IsZero() {
		return series, ErrMissingInstanceDate
	}
	for _, d := range series.Exceptions {
		if d == override.Date {
			return series, fmt.Errorf("%w: %s", ErrExcludedInstance, override.Date)
		}
	}

	overrides := make([]Override, 0, len(series.Overrides)+1)
	for _, o := range series.Overrides {
		if o.Date != override.Date {
			overrides = append(overrides, o)
		}
	}
	overrides = append(overrides, override)

	series.Overrides = overrides
	return series, nil
}

// CancelInstance returns a copy of series with a cancellation override for
// date, overwriting any previous override. today is the current date in
// the series timezone, passed in by the caller so the check stays pure;
// dates strictly before it cannot be cancelled.
func CancelInstance(series Series, date Date, reason string, today Date) (Series, error) {
	if date.IsZero() {
		return series, ErrMissingInstanceDate
	}
	if date.Before(today) {
		return series, fmt.Errorf("%w: %s", ErrPastInstance, date)
	}
	return SetOverride(series, Override{
		Date:         date,
		Type:         OverrideCancelled,
		CancelReason: reason,
	})
}

// RestoreInstance returns a copy of series with any override for date
// removed, whether it was a change or a cancellation. Callers must supply
// the date; restoring a date without an override is a no-op.
func RestoreInstance(series Series, date Date) (Series, error) {
	if date.IsZero() {
		return series, ErrMissingInstanceDate
	}
	overrides := make([]Override, 0, len(series.Overrides))
	for _, o := range series.Overrides {
		if o.Date != date {
			overrides = append(overrides, o)
		}
	}
	series.Overrides = overrides
	return series, nil
}
