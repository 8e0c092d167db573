package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/ems/internal/models"
)

var now = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func TestParseDeadline(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"15/12/2026", time.Date(2026, 12, 15, 23, 59, 59, 0, time.UTC)},
		{"2026-04-01", time.Date(2026, 4, 1, 23, 59, 59, 0, time.UTC)},
		{"2026-04-01T09:15", time.Date(2026, 4, 1, 9, 15, 0, 0, time.UTC)},
		{"today", time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)},
		{"Tomorrow", time.Date(2026, 3, 11, 23, 59, 59, 0, time.UTC)},
		{"3 days", time.Date(2026, 3, 13, 23, 59, 59, 0, time.UTC)},
		{"2d", time.Date(2026, 3, 12, 23, 59, 59, 0, time.UTC)},
		{"1 week", time.Date(2026, 3, 17, 23, 59, 59, 0, time.UTC)},
		{"5 hours", time.Date(2026, 3, 10, 19, 30, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDeadline(tc.in, now)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, tc.want.Equal(*got), "got %s", got)
		})
	}
}

func TestParseDeadlineRejects(t *testing.T) {
	got, err := ParseDeadline("", now)
	assert.NoError(t, err)
	assert.Nil(t, got)

	for _, in := range []string{"31/02/2026", "0 days", "400 days", "next tuesday", "12/13/2026"} {
		_, err := ParseDeadline(in, now)
		assert.Error(t, err, in)
	}
}

func TestFormatDeadline(t *testing.T) {
	at := func(days int) *time.Time {
		d := now.AddDate(0, 0, days)
		return &d
	}
	assert.Empty(t, FormatDeadline(nil, now))
	assert.Contains(t, FormatDeadline(at(-1), now), "OVERDUE")
	assert.Contains(t, FormatDeadline(at(0), now), "Due today")
	assert.Contains(t, FormatDeadline(at(1), now), "Due tomorrow")
	assert.Contains(t, FormatDeadline(at(3), now), "in 3 days")
	assert.Equal(t, "📅 Due 09/04/2026", FormatDeadline(at(30), now))
}

func TestParseQuickAdd(t *testing.T) {
	q := ParseQuickAdd("Ship release notes +high due:2days", now)
	assert.True(t, q.Valid())
	assert.Equal(t, "Ship release notes", q.Title)
	assert.Equal(t, models.PriorityHigh, q.Priority)
	require.NotNil(t, q.Deadline)
	assert.Equal(t, 12, q.Deadline.Day())

	q = ParseQuickAdd("Plan offsite due:1_week", now)
	require.NotNil(t, q.Deadline)
	assert.Equal(t, 17, q.Deadline.Day())
	assert.Empty(t, q.Priority)

	q = ParseQuickAdd("Fix a+b parsing +urgent due:someday", now)
	assert.False(t, q.Valid())
	assert.Len(t, q.Errors, 2)
	assert.Equal(t, "Fix a+b parsing", q.Title)

	assert.False(t, ParseQuickAdd("  +low ", now).Valid())
}
