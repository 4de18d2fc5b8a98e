package ingest

import "time"

const dayLayout = "2006-01-02"

// DayStart normalizes t to UTC midnight of its calendar day. Observation
// timestamps are always stored at this boundary.
func DayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a UTC midnight timestamp.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func FormatDay(t time.Time) string {
	return t.UTC().Format(dayLayout)
}
