package ingest

import "time"

// Chunk is one inclusive sub-range of days submitted in a single range call.
type Chunk struct {
	Start time.Time
	End   time.Time
}

// SplitIntoChunks splits [start, end] into inclusive chunks of at most
// maxMonths calendar months each, in increasing date order with no gaps or
// overlaps. Month arithmetic clamps the day-of-month to the last valid day
// of the shifted month, so Jan 31 + 1 month ends a chunk on Feb 28/29
// rather than spilling into March.
func SplitIntoChunks(start, end time.Time, maxMonths int) []Chunk {
	start = DayStart(start)
	end = DayStart(end)
	if maxMonths < 1 || start.After(end) {
		return nil
	}

	var chunks []Chunk
	cur := start
	for !cur.After(end) {
		next := addMonthsClamped(cur, maxMonths)
		chunkEnd := next.AddDate(0, 0, -1)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		chunks = append(chunks, Chunk{Start: cur, End: chunkEnd})
		cur = chunkEnd.AddDate(0, 0, 1)
	}
	return chunks
}

// addMonthsClamped shifts d by months, clamping the day-of-month to the last
// valid day of the target month instead of letting it normalize forward.
func addMonthsClamped(d time.Time, months int) time.Time {
	year, month, day := d.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, time.UTC)
}
