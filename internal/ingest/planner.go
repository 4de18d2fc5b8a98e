package ingest

import "time"

// PlanRange computes the missing day interval for one station.
//
// The start is the day after the latest stored observation, or epoch when
// the station has nothing stored yet. The end is the provider's availability
// horizon. When start is past the horizon the station is already current and
// no fetch should be issued.
func PlanRange(latest *time.Time, horizon, epoch time.Time) (start, end time.Time, ok bool) {
	end = DayStart(horizon)

	if latest == nil {
		start = DayStart(epoch)
	} else {
		start = DayStart(*latest).AddDate(0, 0, 1)
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
