package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
)

var weekdayCodes = map[string]time.Weekday{
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
	"SU": time.Sunday,
}

var weekdayTokens = map[time.Weekday]string{
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
	time.Sunday:    "SU",
}

// Parse parses a textual recurrence rule ("FREQ=WEEKLY;BYDAY=TU;COUNT=4")
// into a Rule. Unknown keys are ignored and a missing FREQ is tolerated;
// checking the rule for consistency is Validate's job. Parse fails with a
// *MalformedRuleError only when a value cannot be coerced to its type.
func Parse(text string) (Rule, error) {
	rule := Rule{Interval: 1}

	for _, segment := range strings.Split(text, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		kv := strings.SplitN(segment, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(kv[0]))
		value := strings.ToUpper(strings.TrimSpace(kv[1]))

		switch key {
		case "FREQ":
			rule.Frequency = Frequency(value)
		case "INTERVAL":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Rule{}, &MalformedRuleError{Key: key, Value: value, Err: err}
			}
			rule.Interval = n
		case "BYDAY":
			byDay, err := parseByDay(value)
			if err != nil {
				return Rule{}, err
			}
			rule.ByWeekdays = byDay
		case "BYSETPOS":
			positions, err := parseIntList(key, value)
			if err != nil {
				return Rule{}, err
			}
			rule.BySetPos = positions
		case "BYMONTHDAY":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Rule{}, &MalformedRuleError{Key: key, Value: value, Err: err}
			}
			rule.ByMonthDay = mo.Some(n)
		case "COUNT":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Rule{}, &MalformedRuleError{Key: key, Value: value, Err: err}
			}
			rule.Count = mo.Some(n)
		case "UNTIL":
			d, err := parseUntil(value)
			if err != nil {
				return Rule{}, &MalformedRuleError{Key: key, Value: value, Err: err}
			}
			rule.Until = mo.Some(d)
		}
		// Unknown keys are skipped on purpose.
	}

	return rule, nil
}

func parseByDay(value string) ([]WeekdayPos, error) {
	var entries []WeekdayPos
	for _, token := range strings.Split(value, ",") {
		token = strings.TrimSpace(token)
		if len(token) < 2 {
			return nil, &MalformedRuleError{Key: "BYDAY", Value: token}
		}
		code := token[len(token)-2:]
		weekday, ok := weekdayCodes[code]
		if !ok {
			return nil, &MalformedRuleError{Key: "BYDAY", Value: token}
		}
		entry := WeekdayPos{Weekday: weekday}
		if prefix := token[:len(token)-2]; prefix != "" {
			ordinal, err := strconv.Atoi(prefix)
			if err != nil {
				return nil, &MalformedRuleError{Key: "BYDAY", Value: token, Err: err}
			}
			entry.Ordinal = ordinal
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseIntList(key, value string) ([]int, error) {
	var out []int
	for _, token := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil {
			return nil, &MalformedRuleError{Key: key, Value: token, Err: err}
		}
		out = append(out, n)
	}
	return out, nil
}

// parseUntil accepts the compact iCalendar form (20251231, optionally with
// a time suffix) as well as the ISO date form used everywhere else in the
// API (2025-12-31). UNTIL is date-only; any time part is dropped.
func parseUntil(value string) (Date, error) {
	if idx := strings.IndexByte(value, 'T'); idx >= 0 {
		value = value[:idx]
	}
	if strings.Contains(value, "-") {
		return ParseDate(value)
	}
	t, err := time.Parse("20060102", value)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Serialize renders rule back to its textual form. FREQ comes first, the
// remaining set fields follow in a stable order; unset optional fields and
// the default interval are omitted. Serialize is the inverse of Parse up
// to whitespace.
func Serialize(rule Rule) string {
	var parts []string
	if rule.Frequency != "" {
		parts = append(parts, "FREQ="+string(rule.Frequency))
	}
	if rule.Interval > 1 {
		parts = append(parts, "INTERVAL="+strconv.Itoa(rule.Interval))
	}
	if len(rule.ByWeekdays) > 0 {
		tokens := make([]string, len(rule.ByWeekdays))
		for i, wp := range rule.ByWeekdays {
			if wp.Ordinal != 0 {
				tokens[i] = strconv.Itoa(wp.Ordinal) + weekdayTokens[wp.Weekday]
			} else {
				tokens[i] = weekdayTokens[wp.Weekday]
			}
		}
		parts = append(parts, "BYDAY="+strings.Join(tokens, ","))
	}
	if day, ok := rule.ByMonthDay.Get(); ok {
		parts = append(parts, "BYMONTHDAY="+strconv.Itoa(day))
	}
	if len(rule.BySetPos) > 0 {
		tokens := make([]string, len(rule.BySetPos))
		for i, pos := range rule.BySetPos {
			tokens[i] = strconv.Itoa(pos)
		}
		parts = append(parts, "BYSETPOS="+strings.Join(tokens, ","))
	}
	if count, ok := rule.Count.Get(); ok {
		parts = append(parts, "COUNT="+strconv.Itoa(count))
	}
	if until, ok := rule.Until.Get(); ok {
		parts = append(parts, fmt.Sprintf("UNTIL=%04d%02d%02d", until.Year, until.Month, until.Day))
	}
	return strings.Join(parts, ";")
}

// Describe renders a one-line human description of the rule, e.g.
// "Monthly on the last Friday, until Dec 31, 2025". The wording is a
// UI convenience; expansion does not depend on it.
func Describe(rule Rule) string {
	var b strings.Builder

	switch rule.Frequency {
	case FreqDaily:
		if rule.Interval > 1 {
			fmt.Fprintf(&b, "Every %d days", rule.Interval)
		} else {
			b.WriteString("Daily")
		}
	case FreqWeekly:
		if rule.Interval > 1 {
			fmt.Fprintf(&b, "Every %d weeks", rule.Interval)
		} else {
			b.WriteString("Weekly")
		}
		if len(rule.ByWeekdays) > 0 {
			b.WriteString(" on " + weekdayNames(rule.ByWeekdays))
		}
	case FreqMonthly:
		if rule.Interval > 1 {
			fmt.Fprintf(&b, "Every %d months", rule.Interval)
		} else {
			b.WriteString("Monthly")
		}
		if day, ok := rule.ByMonthDay.Get(); ok {
			fmt.Fprintf(&b, " on day %d", day)
		} else if len(rule.ByWeekdays) > 0 {
			b.WriteString(" on the " + monthlyWeekdayPhrase(rule))
		}
	case FreqYearly:
		if rule.Interval > 1 {
			fmt.Fprintf(&b, "Every %d years", rule.Interval)
		} else {
			b.WriteString("Yearly")
		}
	default:
		b.WriteString("Custom schedule")
	}

	if count, ok := rule.Count.Get(); ok {
		if count == 1 {
			b.WriteString(", for 1 occurrence")
		} else {
			fmt.Fprintf(&b, ", for %d occurrences", count)
		}
	}
	if until, ok := rule.Until.Get(); ok {
		fmt.Fprintf(&b, ", until %s %d, %d", until.Month.String()[:3], until.Day, until.Year)
	}

	return b.String()
}

func weekdayNames(byDay []WeekdayPos) string {
	names := make([]string, len(byDay))
	for i, wp := range byDay {
		names[i] = wp.Weekday.String()
	}
	return joinAnd(names)
}

func monthlyWeekdayPhrase(rule Rule) string {
	var phrases []string
	for _, wp := range rule.ByWeekdays {
		ordinal := wp.Ordinal
		if ordinal == 0 && len(rule.BySetPos) == 1 {
			ordinal = rule.BySetPos[0]
		}
		if ordinal != 0 {
			phrases = append(phrases, ordinalName(ordinal)+" "+wp.Weekday.String())
		} else {
			phrases = append(phrases, wp.Weekday.String())
		}
	}
	return joinAnd(phrases)
}

func ordinalName(n int) string {
	switch n {
	case -1:
		return "last"
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	default:
		if n < 0 {
			return fmt.Sprintf("%s to last", ordinalName(-n))
		}
		return fmt.Sprintf("%dth", n)
	}
}

func joinAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
