package dateutil_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yieldcrest/invest_accrual/internal/utils/dateutil"
)

func TestStartOfUTCDay(t *testing.T) {
	testCases := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{
			name:     "midday UTC truncates to midnight",
			input:    time.Date(2025, 3, 14, 13, 45, 30, 12345, time.UTC),
			expected: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "midnight is unchanged",
			input:    time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "non-UTC zone converts before truncating",
			input:    time.Date(2025, 3, 14, 22, 0, 0, 0, time.FixedZone("UTC-5", -5*3600)),
			expected: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.expected.Equal(dateutil.StartOfUTCDay(tc.input)))
		})
	}
}

func TestNextUTCDay(t *testing.T) {
	in := time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)
	assert.True(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Equal(dateutil.NextUTCDay(in)))
}

func TestDaysBetween(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     time.Time
		expected int
	}{
		{
			name:     "same day is zero",
			a:        time.Date(2025, 6, 1, 1, 0, 0, 0, time.UTC),
			b:        time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC),
			expected: 0,
		},
		{
			name:     "consecutive days",
			a:        time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC),
			b:        time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC),
			expected: 1,
		},
		{
			name:     "multi day span ignores time of day",
			a:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			b:        time.Date(2025, 6, 4, 2, 0, 0, 0, time.UTC),
			expected: 3,
		},
		{
			name:     "negative when b precedes a",
			a:        time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
			b:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			expected: -3,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, dateutil.DaysBetween(tc.a, tc.b))
		})
	}
}

func TestSameUTCDay(t *testing.T) {
	a := time.Date(2025, 6, 1, 0, 0, 1, 0, time.UTC)
	b := time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC)
	assert.True(t, dateutil.SameUTCDay(a, b))
	assert.False(t, dateutil.SameUTCDay(a, b.Add(time.Second)))
}
