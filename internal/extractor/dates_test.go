package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)

func TestParsePostedDate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want time.Time
	}{
		{"today", now},
		{"Posted today", now},
		{"yesterday", now.AddDate(0, 0, -1)},
		{"5 days ago", now.AddDate(0, 0, -5)},
		{"Posted 6 days ago", now.AddDate(0, 0, -6)},
		{"3 hours ago", now.Add(-3 * time.Hour)},
		{"2 weeks ago", now.AddDate(0, 0, -14)},
		{"1 month ago", now.AddDate(0, -1, 0)},
		{"30+ days ago", now.AddDate(0, 0, -30)},
		{"منذ 2 يوم", now.AddDate(0, 0, -2)},
		{"منذ 4 ساعات", now.Add(-4 * time.Hour)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ParsePostedDate(tc.in, now))
		})
	}
}

func TestParsePostedDate_MonthDay(t *testing.T) {
	t.Parallel()
	require.Equal(t, time.Date(2026, 7, 9, 0, 0, 0, 0, time.UTC), ParsePostedDate("Jul 09", now))
	// A month-day after "now" belongs to the previous year.
	require.Equal(t, time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC), ParsePostedDate("Dec 24", now))
}

func TestParsePostedDate_UnknownYieldsZero(t *testing.T) {
	t.Parallel()
	require.True(t, ParsePostedDate("Recently", now).IsZero())
	require.True(t, ParsePostedDate("", now).IsZero())
	require.True(t, ParsePostedDate("some random string", now).IsZero())
}
