package recurrence

import (
	"sort"
	"time"
)

// monthlyDates generates monthly candidates, stepping by interval months
// from the base month. Day selection within a month is either a fixed
// day-of-month (BYMONTHDAY, no clamping: months lacking that day produce
// nothing), ordinal weekdays (BYDAY with BYSETPOS or inline ordinals), or
// the base event's own day-of-month.
func monthlyDates(base Date, rule Rule, visit func(Date) bool) {
	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}

	year, month := base.Year, base.Month
	for i := 0; i < maxPeriods; i++ {
		for _, d := range monthCandidates(year, month, base, rule) {
			if !visit(d) {
				return
			}
		}
		year, month = addMonths(year, month, interval)
	}
}

func monthCandidates(year int, month time.Month, base Date, rule Rule) []Date {
	if day, ok := rule.ByMonthDay.Get(); ok {
		if day >= 1 && day <= daysInMonth(year, month) {
			return []Date{{year, month, day}}
		}
		return nil
	}
	if len(rule.ByWeekdays) > 0 {
		return weekdayCandidates(year, month, rule)
	}
	if base.Day <= daysInMonth(year, month) {
		return []Date{{year, month, base.Day}}
	}
	return nil
}

// weekdayCandidates resolves BYDAY within one month. The match set is
// every date in the month falling on a listed weekday, in date order.
// BYSETPOS entries index into that combined set (1-based, negative from
// the back). An inline ordinal on a BYDAY entry selects the Nth
// occurrence of that specific weekday, same indexing. Entries without an
// ordinal keep all their matches when no BYSETPOS is given.
func weekdayCandidates(year int, month time.Month, rule Rule) []Date {
	days := weekdaySet(rule.ByWeekdays)
	var matches []Date
	for day := 1; day <= daysInMonth(year, month); day++ {
		d := Date{Year: year, Month: month, Day: day}
		if days[d.Weekday()] {
			matches = append(matches, d)
		}
	}

	selected := make(map[Date]bool)
	for _, pos := range rule.BySetPos {
		if d, ok := pickOrdinal(matches, pos); ok {
			selected[d] = true
		}
	}
	for _, wp := range rule.ByWeekdays {
		switch {
		case wp.Ordinal != 0:
			var own []Date
			for _, d := range matches {
				if d.Weekday() == wp.Weekday {
					own = append(own, d)
				}
			}
			if d, ok := pickOrdinal(own, wp.Ordinal); ok {
				selected[d] = true
			}
		case len(rule.BySetPos) == 0:
			for _, d := range matches {
				if d.Weekday() == wp.Weekday {
					selected[d] = true
				}
			}
		}
	}

	out := make([]Date, 0, len(selected))
	for d := range selected {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// pickOrdinal selects the pos-th element of dates, 1-based from the front
// or from the back when pos is negative (-1 = last).
func pickOrdinal(dates []Date, pos int) (Date, bool) {
	idx := pos - 1
	if pos < 0 {
		idx = len(dates) + pos
	}
	if idx < 0 || idx >= len(dates) {
		return Date{}, false
	}
	return dates[idx], true
}

func addMonths(year int, month time.Month, n int) (int, time.Month) {
	idx := year*12 + int(month) - 1 + n
	return idx / 12, time.Month(idx%12 + 1)
}
