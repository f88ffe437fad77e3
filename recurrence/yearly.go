package recurrence

import "time"

// yearlyDates steps by interval years, preserving the base month and day.
// A series anchored on Feb 29 skips non-leap years entirely; it is not
// clamped to Feb 28 or shifted to Mar 1.
func yearlyDates(base Date, interval int, visit func(Date) bool) {
	if interval < 1 {
		interval = 1
	}
	year := base.Year
	for i := 0; i < maxPeriods; i++ {
		if base.Month == time.February && base.Day == 29 && !isLeapYear(year) {
			year += interval
			continue
		}
		if !visit(Date{Year: year, Month: base.Month, Day: base.Day}) {
			return
		}
		year += interval
	}
}
