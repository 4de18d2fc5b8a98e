package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPlanRange(t *testing.T) {
	epoch := day(2024, time.January, 1)
	horizon := day(2024, time.June, 15)

	t.Run("empty station starts at epoch", func(t *testing.T) {
		start, end, ok := PlanRange(nil, horizon, epoch)
		assert.True(t, ok)
		assert.Equal(t, epoch, start)
		assert.Equal(t, horizon, end)
	})

	t.Run("resumes the day after the latest stored day", func(t *testing.T) {
		latest := day(2024, time.March, 10)
		start, end, ok := PlanRange(&latest, horizon, epoch)
		assert.True(t, ok)
		assert.Equal(t, day(2024, time.March, 11), start)
		assert.Equal(t, horizon, end)
	})

	t.Run("station current through the horizon plans nothing", func(t *testing.T) {
		latest := horizon
		_, _, ok := PlanRange(&latest, horizon, epoch)
		assert.False(t, ok)
	})

	t.Run("latest past the horizon plans nothing", func(t *testing.T) {
		latest := day(2024, time.July, 1)
		_, _, ok := PlanRange(&latest, horizon, epoch)
		assert.False(t, ok)
	})

	t.Run("single missing day", func(t *testing.T) {
		latest := day(2024, time.June, 14)
		start, end, ok := PlanRange(&latest, horizon, epoch)
		assert.True(t, ok)
		assert.Equal(t, horizon, start)
		assert.Equal(t, horizon, end)
	})

	t.Run("latest with a time-of-day component is normalized", func(t *testing.T) {
		latest := time.Date(2024, time.March, 10, 17, 30, 0, 0, time.UTC)
		start, _, ok := PlanRange(&latest, horizon, epoch)
		assert.True(t, ok)
		assert.Equal(t, day(2024, time.March, 11), start)
	})
}

func TestParseDay(t *testing.T) {
	parsed, err := ParseDay("2024-02-29")
	assert.NoError(t, err)
	assert.Equal(t, day(2024, time.February, 29), parsed)

	_, err = ParseDay("2024-13-01")
	assert.Error(t, err)

	_, err = ParseDay("not-a-date")
	assert.Error(t, err)
}

func TestDayStart(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	assert.NoError(t, err)

	// 00:30 in Madrid on June 2 is still June 1 in UTC.
	local := time.Date(2024, time.June, 2, 0, 30, 0, 0, madrid)
	assert.Equal(t, day(2024, time.June, 1), DayStart(local))
}
