package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	relativeEnglish = regexp.MustCompile(`(\d+)\s+(minute|hour|day|week|month|year)s?\s+ago`)
	relativeArabic  = regexp.MustCompile(`منذ\s+(\d+)\s+(يوم|أيام|شهر|شهور|ساعة|ساعات|دقيقة|دقائق)`)
	monthDay        = regexp.MustCompile(`([A-Za-z]{3})\s+(\d{1,2})`)
)

// ParsePostedDate turns the human-readable date text that job boards render
// ("2 days ago", "yesterday", "Jul 09") into a timestamp relative to now.
// An unparseable string yields the zero time; the caller treats that as
// "date unknown", never as an extraction failure.
func ParsePostedDate(s string, now time.Time) time.Time {
	s = CleanText(s)
	if s == "" {
		return time.Time{}
	}
	lower := strings.ToLower(s)

	switch {
	case strings.Contains(lower, "today"), strings.Contains(lower, "just now"):
		return now
	case strings.Contains(lower, "yesterday"):
		return now.AddDate(0, 0, -1)
	case strings.Contains(lower, "30+ days ago"):
		return now.AddDate(0, 0, -30)
	}
	if t, ok := parseRelativeEnglish(lower, now); ok {
		return t
	}
	if t, ok := parseRelativeArabic(s, now); ok {
		return t
	}
	if t, ok := parseMonthDay(s, now); ok {
		return t
	}
	return time.Time{}
}

func parseRelativeEnglish(lower string, now time.Time) (time.Time, bool) {
	m := relativeEnglish.FindStringSubmatch(lower)
	if m == nil {
		return time.Time{}, false
	}
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	switch m[2] {
	case "minute":
		return now.Add(-time.Duration(value) * time.Minute), true
	case "hour":
		return now.Add(-time.Duration(value) * time.Hour), true
	case "day":
		return now.AddDate(0, 0, -value), true
	case "week":
		return now.AddDate(0, 0, -7*value), true
	case "month":
		return now.AddDate(0, -value, 0), true
	case "year":
		return now.AddDate(-value, 0, 0), true
	}
	return time.Time{}, false
}

func parseRelativeArabic(s string, now time.Time) (time.Time, bool) {
	m := relativeArabic.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	switch m[2] {
	case "يوم", "أيام":
		return now.AddDate(0, 0, -value), true
	case "شهر", "شهور":
		return now.AddDate(0, -value, 0), true
	case "ساعة", "ساعات":
		return now.Add(-time.Duration(value) * time.Hour), true
	case "دقيقة", "دقائق":
		return now.Add(-time.Duration(value) * time.Minute), true
	}
	return time.Time{}, false
}

func parseMonthDay(s string, now time.Time) (time.Time, bool) {
	m := monthDay.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("Jan 2 2006",
		m[1]+" "+strconv.Itoa(day)+" "+strconv.Itoa(now.Year()), now.Location())
	if err != nil {
		return time.Time{}, false
	}
	// A source never advertises a future posting; roll back a year.
	if t.After(now) {
		t = t.AddDate(-1, 0, 0)
	}
	return t, true
}
