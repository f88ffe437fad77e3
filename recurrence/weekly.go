package recurrence

// weeklyDates generates weekly candidates. Without BYDAY the base event's
// own weekday is stepped by interval weeks; with BYDAY every listed
// weekday inside each week bucket is visited in Monday-first order.
// Ordinal prefixes on BYDAY entries have no meaning inside a week and are
// ignored here.
func weeklyDates(base Date, rule Rule, visit func(Date) bool) {
	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}

	if len(rule.ByWeekdays) == 0 {
		for d := base; ; d = d.AddDays(7 * interval) {
			if !visit(d) {
				return
			}
		}
	}

	days := weekdaySet(rule.ByWeekdays)
	for week := startOfWeek(base); ; week = week.AddDays(7 * interval) {
		for i := 0; i < 7; i++ {
			d := week.AddDays(i)
			if !days[d.Weekday()] {
				continue
			}
			if !visit(d) {
				return
			}
		}
	}
}

// startOfWeek returns the Monday of the week containing d.
func startOfWeek(d Date) Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}
