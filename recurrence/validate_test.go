package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []RuleIssue
	}{
		{
			name: "valid weekly rule",
			text: "FREQ=WEEKLY;BYDAY=TU;COUNT=10",
		},
		{
			name:     "missing frequency",
			text:     "COUNT=3",
			expected: []RuleIssue{IssueFrequencyMissing},
		},
		{
			name:     "unknown frequency",
			text:     "FREQ=HOURLY",
			expected: []RuleIssue{IssueFrequencyUnknown},
		},
		{
			name:     "interval too large",
			text:     "FREQ=DAILY;INTERVAL=400",
			expected: []RuleIssue{IssueIntervalOutOfRange},
		},
		{
			name:     "interval zero",
			text:     "FREQ=DAILY;INTERVAL=0",
			expected: []RuleIssue{IssueIntervalOutOfRange},
		},
		{
			name:     "count too large",
			text:     "FREQ=DAILY;COUNT=1001",
			expected: []RuleIssue{IssueCountOutOfRange},
		},
		{
			name:     "setpos zero",
			text:     "FREQ=MONTHLY;BYDAY=FR;BYSETPOS=0",
			expected: []RuleIssue{IssueSetPosOutOfRange},
		},
		{
			name:     "setpos out of range",
			text:     "FREQ=MONTHLY;BYDAY=FR;BYSETPOS=6",
			expected: []RuleIssue{IssueSetPosOutOfRange},
		},
		{
			name:     "setpos and bymonthday conflict",
			text:     "FREQ=MONTHLY;BYSETPOS=1;BYMONTHDAY=15",
			expected: []RuleIssue{IssueSetPosMonthDayConflict},
		},
		{
			name:     "multiple issues reported together",
			text:     "FREQ=SOMETIMES;INTERVAL=0;COUNT=9999",
			expected: []RuleIssue{IssueFrequencyUnknown, IssueIntervalOutOfRange, IssueCountOutOfRange},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, Validate(rule))
		})
	}
}
