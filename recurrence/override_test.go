package recurrence

import (
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOverridesCancellation(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "FREQ=WEEKLY;BYDAY=TU")
	window := []Date{date(2025, time.January, 1), date(2025, time.January, 31)}

	cancelled, err := CancelInstance(series, date(2025, time.January, 14),
		"venue flooded", date(2025, time.January, 1))
	require.NoError(t, err)

	occurrences := NewEngine(nil).Expand(cancelled, window[0], window[1])
	occurrences = ApplyOverrides(occurrences, cancelled)

	// The cancelled instance stays in the list, flagged, so the UI can
	// render the strikethrough state.
	require.Len(t, occurrences, 4)
	var found bool
	for _, occ := range occurrences {
		if occ.Date == date(2025, time.January, 14) {
			found = true
			assert.True(t, occ.IsCancelled)
			assert.Equal(t, "venue flooded", occ.CancelReason)
		} else {
			assert.False(t, occ.IsCancelled)
		}
	}
	assert.True(t, found)
}

func TestApplyOverridesChangedFields(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "FREQ=WEEKLY;BYDAY=TU")

	instance := date(2025, time.January, 14)
	newStart := time.Date(2025, time.January, 14, 20, 0, 0, 0, time.UTC)
	changed, err := SetOverride(series, Override{
		Date:     instance,
		Type:     OverrideChanged,
		Title:    mo.Some("Special games night"),
		Location: mo.Some("Community hall"),
		Start:    mo.Some(newStart),
		End:      mo.Some(newStart.Add(3 * time.Hour)),
	})
	require.NoError(t, err)

	occurrences := ApplyOverrides(
		NewEngine(nil).Expand(changed, instance, instance), changed)
	require.Len(t, occurrences, 1)

	occ := occurrences[0]
	assert.True(t, occ.IsOverridden)
	assert.Equal(t, "Special games night", occ.Title)
	assert.Equal(t, "Community hall", occ.Location)
	assert.Equal(t, newStart, occ.Start)
	// Fields the override does not carry keep their generated values.
	assert.Equal(t, "social", occ.Category)
	assert.False(t, occ.IsCancelled)
}

func TestApplyOverridesDescriptionPrecedence(t *testing.T) {
	base := testSeries(date(2025, time.January, 7), "FREQ=WEEKLY;BYDAY=TU")
	base.Fields.Description = "base description"
	instance := date(2025, time.January, 14)

	tests := []struct {
		name          string
		seriesDefault string
		override      mo.Option[string]
		expected      string
	}{
		{"override wins", "series default", mo.Some("overridden"), "overridden"},
		{"series default beats base", "series default", mo.None[string](), "series default"},
		{"base field as final fallback", "", mo.None[string](), "base description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := base
			series.DefaultDescription = tt.seriesDefault
			series, err := SetOverride(series, Override{
				Date:        instance,
				Type:        OverrideChanged,
				Description: tt.override,
			})
			require.NoError(t, err)

			occurrences := ApplyOverrides(
				NewEngine(nil).Expand(series, instance, instance), series)
			require.Len(t, occurrences, 1)
			assert.Equal(t, tt.expected, occurrences[0].Description)
		})
	}
}

func TestAddExceptionDate(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "FREQ=WEEKLY;BYDAY=TU")

	updated, err := AddExceptionDate(series, date(2025, time.January, 21))
	require.NoError(t, err)
	updated, err = AddExceptionDate(updated, date(2025, time.January, 7))
	require.NoError(t, err)

	// Kept sorted ascending regardless of insertion order.
	assert.Equal(t, []Date{
		date(2025, time.January, 7),
		date(2025, time.January, 21),
	}, updated.Exceptions)

	// The input series is unchanged; operations are pure transformations.
	assert.Empty(t, series.Exceptions)

	_, err = AddExceptionDate(updated, date(2025, time.January, 7))
	assert.ErrorIs(t, err, ErrDuplicateException)

	_, err = AddExceptionDate(series, Date{})
	assert.ErrorIs(t, err, ErrMissingInstanceDate)
}

func TestExceptionOverrideMutualExclusion(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "FREQ=WEEKLY;BYDAY=TU")
	instance := date(2025, time.January, 14)

	// An overridden date cannot become an exception.
	overridden, err := SetOverride(series, Override{
		Date:  instance,
		Type:  OverrideChanged,
		Title: mo.Some("changed"),
	})
	require.NoError(t, err)
	_, err = AddExceptionDate(overridden, instance)
	assert.ErrorIs(t, err, ErrOverrideConflict)

	// An excluded date cannot be overridden or cancelled.
	excluded, err := AddExceptionDate(series, instance)
	require.NoError(t, err)
	_, err = SetOverride(excluded, Override{Date: instance, Type: OverrideChanged})
	assert.ErrorIs(t, err, ErrExcludedInstance)
	_, err = CancelInstance(excluded, instance, "", date(2025, time.January, 1))
	assert.ErrorIs(t, err, ErrExcludedInstance)
}

func TestRemoveExceptionDateIsIdempotent(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "FREQ=WEEKLY;BYDAY=TU")
	series.Exceptions = []Date{date(2025, time.January, 14)}

	updated := RemoveExceptionDate(series, date(2025, time.January, 14))
	assert.Empty(t, updated.Exceptions)

	// Removing an absent date is a no-op, not an error.
	updated = RemoveExceptionDate(updated, date(2025, time.January, 14))
	assert.Empty(t, updated.Exceptions)
}

func TestCancelInstance(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "FREQ=WEEKLY;BYDAY=TU")
	today := date(2025, time.January, 10)

	updated, err := CancelInstance(series, date(2025, time.January, 14), "host ill", today)
	require.NoError(t, err)
	require.Len(t, updated.Overrides, 1)
	assert.Equal(t, OverrideCancelled, updated.Overrides[0].Type)
	assert.Equal(t, "host ill", updated.Overrides[0].CancelReason)

	// Cancelling today is allowed; only strictly past dates are rejected.
	_, err = CancelInstance(series, today, "", today)
	assert.NoError(t, err)

	_, err = CancelInstance(series, date(2025, time.January, 7), "", today)
	assert.ErrorIs(t, err, ErrPastInstance)

	_, err = CancelInstance(series, Date{}, "", today)
	assert.ErrorIs(t, err, ErrMissingInstanceDate)
}

func TestCancelOverwritesExistingOverride(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "FREQ=WEEKLY;BYDAY=TU")
	instance := date(2025, time.January, 14)

	changed, err := SetOverride(series, Override{
		Date:  instance,
		Type:  OverrideChanged,
		Title: mo.Some("changed"),
	})
	require.NoError(t, err)

	cancelled, err := CancelInstance(changed, instance, "called off", date(2025, time.January, 1))
	require.NoError(t, err)
	require.Len(t, cancelled.Overrides, 1)
	assert.Equal(t, OverrideCancelled, cancelled.Overrides[0].Type)
}

func TestRestoreInstance(t *testing.T) {
	series := testSeries(date(2025, time.January, 7), "FREQ=WEEKLY;BYDAY=TU")
	instance := date(2025, time.January, 14)

	cancelled, err := CancelInstance(series, instance, "", date(2025, time.January, 1))
	require.NoError(t, err)

	restored, err := RestoreInstance(cancelled, instance)
	require.NoError(t, err)
	assert.Empty(t, restored.Overrides)

	occurrences := ApplyOverrides(
		NewEngine(nil).Expand(restored, instance, instance), restored)
	require.Len(t, occurrences, 1)
	assert.False(t, occurrences[0].IsCancelled)

	_, err = RestoreInstance(series, Date{})
	assert.ErrorIs(t, err, ErrMissingInstanceDate)
}
