package recurrence

// RuleIssue names one way a rule can be inconsistent. The authoring UI
// shows these as field-level messages and must reject persistence on any
// non-empty Validate result.
type RuleIssue string

const (
	IssueFrequencyMissing       RuleIssue = "frequency_missing"
	IssueFrequencyUnknown       RuleIssue = "frequency_unknown"
	IssueIntervalOutOfRange     RuleIssue = "interval_out_of_range"
	IssueCountOutOfRange        RuleIssue = "count_out_of_range"
	IssueSetPosOutOfRange       RuleIssue = "setpos_out_of_range"
	IssueSetPosMonthDayConflict RuleIssue = "setpos_monthday_conflict"
)

const (
	maxInterval = 366
	maxCount    = 1000
)

// Validate checks rule for internal consistency and returns every issue
// found; an empty result means the rule is valid. Validation is advisory
// for the read path (the Engine degrades on its own) but write paths must
// call it and reject on any issue.
func Validate(rule Rule) []RuleIssue {
	var issues []RuleIssue

	switch {
	case rule.Frequency == "":
		issues = append(issues, IssueFrequencyMissing)
	case !KnownFrequency(rule.Frequency):
		issues = append(issues, IssueFrequencyUnknown)
	}

	if rule.Interval < 1 || rule.Interval > maxInterval {
		issues = append(issues, IssueIntervalOutOfRange)
	}

	if count, ok := rule.Count.Get(); ok && (count < 1 || count > maxCount) {
		issues = append(issues, IssueCountOutOfRange)
	}

	for _, pos := range rule.BySetPos {
		if pos == 0 || pos < -5 || pos > 5 {
			issues = append(issues, IssueSetPosOutOfRange)
			break
		}
	}

	// A monthly rule selects its day either by fixed day-of-month or by
	// ordinal weekday, never both.
	if len(rule.BySetPos) > 0 && rule.ByMonthDay.IsPresent() {
		issues = append(issues, IssueSetPosMonthDayConflict)
	}

	return issues
}
