package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitIntoChunks(t *testing.T) {
	t.Run("range within one chunk", func(t *testing.T) {
		chunks := SplitIntoChunks(day(2024, time.January, 1), day(2024, time.March, 31), 6)
		assert.Equal(t, []Chunk{
			{Start: day(2024, time.January, 1), End: day(2024, time.March, 31)},
		}, chunks)
	})

	t.Run("year split into six month chunks", func(t *testing.T) {
		chunks := SplitIntoChunks(day(2024, time.January, 1), day(2024, time.December, 31), 6)
		assert.Equal(t, []Chunk{
			{Start: day(2024, time.January, 1), End: day(2024, time.June, 30)},
			{Start: day(2024, time.July, 1), End: day(2024, time.December, 31)},
		}, chunks)
	})

	t.Run("chunks are contiguous and ordered", func(t *testing.T) {
		start := day(2024, time.January, 15)
		end := day(2025, time.August, 3)
		chunks := SplitIntoChunks(start, end, 4)

		assert.NotEmpty(t, chunks)
		assert.Equal(t, start, chunks[0].Start)
		assert.Equal(t, end, chunks[len(chunks)-1].End)
		for i := 1; i < len(chunks); i++ {
			assert.Equal(t, chunks[i-1].End.AddDate(0, 0, 1), chunks[i].Start)
		}
		for _, c := range chunks {
			assert.False(t, c.Start.After(c.End))
		}
	})

	t.Run("month end clamps instead of normalizing", func(t *testing.T) {
		// Jan 31 + 1 month must end the chunk in February, not March 2/3.
		chunks := SplitIntoChunks(day(2024, time.January, 31), day(2024, time.April, 30), 1)
		assert.Equal(t, day(2024, time.February, 28), chunks[0].End)
		assert.Equal(t, day(2024, time.February, 29), chunks[1].Start)
	})

	t.Run("single day range", func(t *testing.T) {
		chunks := SplitIntoChunks(day(2024, time.May, 5), day(2024, time.May, 5), 6)
		assert.Equal(t, []Chunk{{Start: day(2024, time.May, 5), End: day(2024, time.May, 5)}}, chunks)
	})

	t.Run("inverted range yields nothing", func(t *testing.T) {
		assert.Nil(t, SplitIntoChunks(day(2024, time.May, 5), day(2024, time.May, 4), 6))
	})

	t.Run("non positive month budget yields nothing", func(t *testing.T) {
		assert.Nil(t, SplitIntoChunks(day(2024, time.May, 5), day(2024, time.June, 5), 0))
	})
}
