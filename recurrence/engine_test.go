package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) Date {
	return Date{Year: y, Month: m, Day: d}
}

// testSeries builds a series whose base occurrence is 19:00-21:00 UTC on
// the given date.
func testSeries(base Date, ruleText string) Series {
	start := time.Date(base.Year, base.Month, base.Day, 19, 0, 0, 0, time.UTC)
	return Series{
		EventID:  "evt-1",
		Start:    start,
		End:      start.Add(2 * time.Hour),
		RuleText: ruleText,
		Fields: EventFields{
			Title:    "Board game night",
			Location: "Cafe Krone",
			Category: "social",
			Tags:     []string{"games", "weekly"},
		},
	}
}

func expandDates(t *testing.T, series Series, start, end Date) []Date {
	t.Helper()
	occurrences := NewEngine(nil).Expand(series, start, end)
	dates := make([]Date, len(occurrences))
	for i, occ := range occurrences {
		dates[i] = occ.Date
	}
	return dates
}

func TestExpandWeeklyTuesdays(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "FREQ=WEEKLY;BYDAY=TU")

	dates := expandDates(t, series, date(2025, time.January, 1), date(2025, time.January, 31))

	assert.Equal(t, []Date{
		date(2025, time.January, 7),
		date(2025, time.January, 14),
		date(2025, time.January, 21),
		date(2025, time.January, 28),
	}, dates)
}

func TestExpandWeeklyWithoutByDayUsesBaseWeekday(t *testing.T) {
	series := testSeries(date(2025, time.January, 8), "FREQ=WEEKLY") // a Wednesday

	dates := expandDates(t, series, date(2025, time.January, 1), date(2025, time.January, 31))

	assert.Equal(t, []Date{
		date(2025, time.January, 8),
		date(2025, time.January, 15),
		date(2025, time.January, 22),
		date(2025, time.January, 29),
	}, dates)
}

func TestExpandWeeklyInterval(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "FREQ=WEEKLY;INTERVAL=2;BYDAY=TU")

	dates := expandDates(t, series, date(2025, time.January, 1), date(2025, time.February, 28))

	assert.Equal(t, []Date{
		date(2025, time.January, 7),
		date(2025, time.January, 21),
		date(2025, time.February, 4),
		date(2025, time.February, 18),
	}, dates)
}

func TestExpandMonthlyFirstTuesday(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "FREQ=MONTHLY;BYDAY=TU;BYSETPOS=1")

	dates := expandDates(t, series, date(2025, time.January, 1), date(2025, time.June, 30))

	assert.Equal(t, []Date{
		date(2025, time.January, 7),
		date(2025, time.February, 4),
		date(2025, time.March, 4),
		date(2025, time.April, 1),
		date(2025, time.May, 6),
		date(2025, time.June, 3),
	}, dates)
}

func TestExpandMonthlyLastFriday(t *testing.T) {
	series := testSeries(date(2025, time.January, 31), "FREQ=MONTHLY;BYDAY=FR;BYSETPOS=-1")

	dates := expandDates(t, series, date(2025, time.January, 1), date(2025, time.April, 30))

	assert.Equal(t, []Date{
		date(2025, time.January, 31),
		date(2025, time.February, 28),
		date(2025, time.March, 28),
		date(2025, time.April, 25),
	}, dates)
}

func TestExpandMonthlyInlineOrdinal(t *testing.T) {
	// -1FR without a separate BYSETPOS selects the last Friday.
	series := testSeries(date(2025, time.January, 31), "FREQ=MONTHLY;BYDAY=-1FR")

	dates := expandDates(t, series, date(2025, time.January, 1), date(2025, time.March, 31))

	assert.Equal(t, []Date{
		date(2025, time.January, 31),
		date(2025, time.February, 28),
		date(2025, time.March, 28),
	}, dates)
}

func TestExpandMonthlyByMonthDaySkipsShortMonths(t *testing.T) {
	series := testSeries(date(2025, time.January, 31), "FREQ=MONTHLY;BYMONTHDAY=31")

	dates := expandDates(t, series, date(2025, time.January, 1), date(2025, time.May, 31))

	// February and April have no 31st; no clamping or rollover.
	assert.Equal(t, []Date{
		date(2025, time.January, 31),
		date(2025, time.March, 31),
		date(2025, time.May, 31),
	}, dates)
}

func TestExpandDaily(t *testing.T) {
	series := testSeries(date(2025, time.January, 1), "FREQ=DAILY;INTERVAL=3")

	dates := expandDates(t, series, date(2025, time.January, 1), date(2025, time.January, 10))

	assert.Equal(t, []Date{
		date(2025, time.January, 1),
		date(2025, time.January, 4),
		date(2025, time.January, 7),
		date(2025, time.January, 10),
	}, dates)
}

func TestExpandYearly(t *testing.T) {
	series := testSeries(date(2023, time.June, 15), "FREQ=YEARLY")

	dates := expandDates(t, series, date(2023, time.January, 1), date(2026, time.December, 31))

	assert.Equal(t, []Date{
		date(2023, time.June, 15),
		date(2024, time.June, 15),
		date(2025, time.June, 15),
		date(2026, time.June, 15),
	}, dates)
}

func TestExpandYearlyFeb29SkipsNonLeapYears(t *testing.T) {
	series := testSeries(date(2024, time.February, 29), "FREQ=YEARLY")

	dates := expandDates(t, series, date(2024, time.January, 1), date(2032, time.December, 31))

	assert.Equal(t, []Date{
		date(2024, time.February, 29),
		date(2028, time.February, 29),
		date(2032, time.February, 29),
	}, dates)
}

func TestExpandCountCapsTotalOccurrences(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "FREQ=WEEKLY;BYDAY=TU;COUNT=3")

	// A window covering the full year still yields exactly 3 occurrences.
	dates := expandDates(t, series, date(2025, time.January, 1), date(2025, time.December, 31))

	assert.Equal(t, []Date{
		date(2025, time.January, 7),
		date(2025, time.January, 14),
		date(2025, time.January, 21),
	}, dates)
}

func TestExpandCountConsumedByCandidatesBeforeWindow(t *testing.T) {
	series := testSeries(date(2025, time.January, 1), "FREQ=DAILY;COUNT=5")

	// Candidates Jan 1-3 fall before the window but still consume COUNT,
	// because COUNT bounds the series' total cardinality.
	dates := expandDates(t, series, date(2025, time.January, 4), date(2025, time.January, 31))

	assert.Equal(t, []Date{
		date(2025, time.January, 4),
		date(2025, time.January, 5),
	}, dates)
}

func TestExpandUntilIsInclusiveDayBound(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "FREQ=WEEKLY;BYDAY=TU;UNTIL=20250121")

	dates := expandDates(t, series, date(2025, time.January, 1), date(2025, time.December, 31))

	assert.Equal(t, []Date{
		date(2025, time.January, 7),
		date(2025, time.January, 14),
		date(2025, time.January, 21),
	}, dates)
}

func TestExpandExceptionRoundTrip(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "FREQ=WEEKLY;BYDAY=TU")
	window := []Date{date(2025, time.January, 1), date(2025, time.January, 31)}

	excluded := date(2025, time.January, 14)
	withException, err := AddExceptionDate(series, excluded)
	require.NoError(t, err)

	dates := expandDates(t, withException, window[0], window[1])
	assert.NotContains(t, dates, excluded)
	assert.Len(t, dates, 3)

	restored := RemoveExceptionDate(withException, excluded)
	dates = expandDates(t, restored, window[0], window[1])
	assert.Contains(t, dates, excluded)
	assert.Len(t, dates, 4)
}

func TestExpandExceptionStillConsumesCount(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "FREQ=WEEKLY;BYDAY=TU;COUNT=3")
	series.Exceptions = []Date{date(2025, time.January, 14)}

	dates := expandDates(t, series, date(2025, time.January, 1), date(2025, time.December, 31))

	// The excluded Jan 14 counts as the 2nd candidate, so generation still
	// ends at Jan 21.
	assert.Equal(t, []Date{
		date(2025, time.January, 7),
		date(2025, time.January, 21),
	}, dates)
}

func TestExpandWindowBoundariesInclusive(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "FREQ=WEEKLY;BYDAY=TU")

	dates := expandDates(t, series, date(2025, time.January, 7), date(2025, time.January, 14))

	assert.Equal(t, []Date{
		date(2025, time.January, 7),
		date(2025, time.January, 14),
	}, dates)
}

func TestExpandInvertedWindow(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "FREQ=WEEKLY;BYDAY=TU")
	assert.Empty(t, expandDates(t, series, date(2025, time.February, 1), date(2025, time.January, 1)))
}

func TestExpandDegradesOnBadRules(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"malformed rule", "FREQ=WEEKLY;INTERVAL=abc"},
		{"unknown frequency", "FREQ=HOURLY"},
		{"setpos monthday conflict", "FREQ=MONTHLY;BYSETPOS=1;BYMONTHDAY=15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := testSeries(date(2025, time.January, 7), tt.text)
			// A corrupt series must degrade to an empty list, not break the
			// whole calendar view.
			assert.Empty(t, expandDates(t, series, date(2025, time.January, 1), date(2025, time.December, 31)))
		})
	}
}

func TestExpandNonRecurring(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "")

	occurrences := NewEngine(nil).Expand(series, date(2025, time.January, 1), date(2025, time.January, 31))
	require.Len(t, occurrences, 1)
	assert.False(t, occurrences[0].IsRecurringInstance)
	assert.Equal(t, date(2025, time.January, 7), occurrences[0].Date)

	assert.Empty(t, NewEngine(nil).Expand(series, date(2025, time.February, 1), date(2025, time.February, 28)))
}

func TestExpandCopiesBaseFields(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "FREQ=WEEKLY;BYDAY=TU")

	occurrences := NewEngine(nil).Expand(series, date(2025, time.January, 1), date(2025, time.January, 31))
	require.NotEmpty(t, occurrences)

	occ := occurrences[0]
	assert.Equal(t, "evt-1", occ.EventID)
	assert.Equal(t, "Board game night", occ.Title)
	assert.Equal(t, "Cafe Krone", occ.Location)
	assert.Equal(t, "social", occ.Category)
	assert.Equal(t, []string{"games", "weekly"}, occ.Tags)
	assert.True(t, occ.IsRecurringInstance)
	assert.False(t, occ.IsCancelled)

	assert.Equal(t, 19, occ.Start.Hour())
	assert.Equal(t, 2*time.Hour, occ.End.Sub(occ.Start))
}

func TestExpandPreservesWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	start := time.Date(2025, time.March, 4, 19, 0, 0, 0, loc)
	series := Series{
		EventID:  "evt-dst",
		Start:    start,
		End:      start.Add(2 * time.Hour),
		TimeZone: "Europe/Berlin",
		RuleText: "FREQ=WEEKLY;BYDAY=TU",
		Fields:   EventFields{Title: "Stammtisch"},
	}

	occurrences := NewEngine(nil).Expand(series,
		date(2025, time.March, 1), date(2025, time.April, 30))
	require.NotEmpty(t, occurrences)

	// The DST switch on March 30 must not shift the 19:00 wall-clock time.
	for _, occ := range occurrences {
		assert.Equal(t, 19, occ.Start.In(loc).Hour(), "occurrence %s", occ.Date)
		assert.Equal(t, 21, occ.End.In(loc).Hour(), "occurrence %s", occ.Date)
	}
}

func TestExpandOrderedByStartTime(t *testing.T) {
	series := testSeries(date(2025, time.January, 6), "FREQ=WEEKLY;BYDAY=MO,WE,FR")

	occurrences := NewEngine(nil).Expand(series,
		date(2025, time.January, 1), date(2025, time.March, 31))
	require.NotEmpty(t, occurrences)

	for i := 1; i < len(occurrences); i++ {
		assert.True(t, occurrences[i-1].Start.Before(occurrences[i].Start),
			"occurrences must be strictly ascending by start time")
	}
}

func TestExpandSkipsCandidatesBeforeBaseDate(t *testing.T) {
	// Base is the third Tuesday; earlier Tuesdays of the base month are
	// not part of the series.
	series := testSeries(date(2025, time.January, 21), "FREQ=WEEKLY;BYDAY=TU")

	dates := expandDates(t, series, date(2025, time.January, 1), date(2025, time.January, 31))

	assert.Equal(t, []Date{
		date(2025, time.January, 21),
		date(2025, time.January, 28),
	}, dates)
}
