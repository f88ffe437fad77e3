package recurrence

// dailyDates feeds base, base+interval, base+2*interval, ... days to visit
// until visit declines more.
func dailyDates(base Date, interval int, visit func(Date) bool) {
	if interval < 1 {
		interval = 1
	}
	for d := base; ; d = d.AddDays(interval) {
		if !visit(d) {
			return
		}
	}
}
