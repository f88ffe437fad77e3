package recurrence

import (
	"io"
	"log/slog"
	"sort"
	"time"
)

// maxPeriods bounds period iteration for rules that can go many periods
// without producing a candidate (e.g. BYMONTHDAY=30 stepped over February
// every year, or a Feb 29 anchor whose interval never lands on a leap
// year).
const maxPeriods = 5000

// Engine expands series definitions into concrete occurrences. It is
// stateless and safe for concurrent use.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates an expansion engine. A nil logger discards the
// degradation warnings.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{logger: logger}
}

// Expand produces the ordered occurrences of series that fall within
// [windowStart, windowEnd] (both inclusive, day granularity in the series
// timezone). Exception dates are already suppressed; overrides are NOT
// applied here, that is ApplyOverrides' job.
//
// COUNT is honored against the unfiltered candidate sequence: candidates
// before the window and candidates suppressed by an exception date still
// consume the count, because COUNT bounds the series' total cardinality,
// not the windowed result. UNTIL is an inclusive date bound.
//
// A malformed or invalid rule degrades to an empty result with a log line
// instead of an error, so one corrupt series cannot break rendering of a
// shared calendar view.
func (e *Engine) Expand(series Series, windowStart, windowEnd Date) []Occurrence {
	if windowEnd.Before(windowStart) {
		return nil
	}

	loc := e.location(series)
	baseDate := DateOf(series.Start.In(loc))
	excluded := exceptionSet(series.Exceptions)

	// An empty rule text means a plain single occurrence.
	if series.RuleText == "" {
		if baseDate.Before(windowStart) || baseDate.After(windowEnd) || excluded[baseDate] {
			return nil
		}
		occ := e.occurrenceOn(series, baseDate, loc)
		occ.IsRecurringInstance = false
		return []Occurrence{occ}
	}

	rule, err := Parse(series.RuleText)
	if err != nil {
		e.logger.Warn("skipping series with malformed rule",
			"event_id", series.EventID, "rule", series.RuleText, "error", err)
		return nil
	}
	if issues := Validate(rule); len(issues) > 0 {
		e.logger.Warn("skipping series with invalid rule",
			"event_id", series.EventID, "rule", series.RuleText, "issues", issues)
		return nil
	}

	var out []Occurrence
	produced := 0

	// visit receives candidate dates in ascending order and returns false
	// once generation must stop. Candidates before the base date are not
	// part of the series and do not consume COUNT.
	visit := func(d Date) bool {
		if d.Before(baseDate) {
			return true
		}
		if until, ok := rule.Until.Get(); ok && d.After(until) {
			return false
		}
		produced++
		if count, ok := rule.Count.Get(); ok && produced > count {
			return false
		}
		if d.After(windowEnd) {
			return false
		}
		if d.Before(windowStart) || excluded[d] {
			return true
		}
		out = append(out, e.occurrenceOn(series, d, loc))
		return true
	}

	switch rule.Frequency {
	case FreqDaily:
		dailyDates(baseDate, rule.Interval, visit)
	case FreqWeekly:
		weeklyDates(baseDate, rule, visit)
	case FreqMonthly:
		monthlyDates(baseDate, rule, visit)
	case FreqYearly:
		yearlyDates(baseDate, rule.Interval, visit)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// occurrenceOn builds the occurrence for one candidate date: the base
// event's wall-clock start and end times applied to that date in the
// series timezone. An event spanning midnight keeps its day offset.
func (e *Engine) occurrenceOn(series Series, d Date, loc *time.Location) Occurrence {
	baseStart := series.Start.In(loc)
	baseEnd := series.End.In(loc)
	daySpan := DateOf(baseStart).DaysUntil(DateOf(baseEnd))
	endDate := d.AddDays(daySpan)

	start := time.Date(d.Year, d.Month, d.Day,
		baseStart.Hour(), baseStart.Minute(), baseStart.Second(), 0, loc)
	end := time.Date(endDate.Year, endDate.Month, endDate.Day,
		baseEnd.Hour(), baseEnd.Minute(), baseEnd.Second(), 0, loc)

	f := series.Fields
	return Occurrence{
		EventID:             series.EventID,
		Date:                d,
		Start:               start,
		End:                 end,
		Title:               f.Title,
		Description:         f.Description,
		Location:            f.Location,
		Category:            f.Category,
		Organizer:           f.Organizer,
		URL:                 f.URL,
		Tags:                append([]string(nil), f.Tags...),
		IsRecurringInstance: true,
	}
}

func (e *Engine) location(series Series) *time.Location {
	if series.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(series.TimeZone)
	if err != nil {
		e.logger.Warn("unknown series timezone, falling back to UTC",
			"event_id", series.EventID, "timezone", series.TimeZone)
		return time.UTC
	}
	return loc
}
