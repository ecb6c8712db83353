package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBucketStart(t *testing.T) {
	// 2026-08-19 is a Wednesday
	wed := time.Date(2026, 8, 19, 15, 42, 0, 0, time.UTC)

	assert.Equal(t, day(2026, 8, 19), BucketStart(wed, GranularityDay))
	assert.Equal(t, day(2026, 8, 17), BucketStart(wed, GranularityWeek))
	assert.Equal(t, day(2026, 8, 1), BucketStart(wed, GranularityMonth))

	t.Run("sunday belongs to the week starting the prior monday", func(t *testing.T) {
		sun := day(2026, 8, 23)
		assert.Equal(t, day(2026, 8, 17), BucketStart(sun, GranularityWeek))
	})

	t.Run("monday is its own week start", func(t *testing.T) {
		mon := day(2026, 8, 17)
		assert.Equal(t, mon, BucketStart(mon, GranularityWeek))
	})
}

func TestFillTimeSeries(t *testing.T) {
	t.Run("gaps become zero buckets", func(t *testing.T) {
		sparse := []TimeBucket{
			{PeriodStart: day(2026, 8, 1), Count: 3, Amount: decimal.NewFromInt(120), Fees: decimal.NewFromInt(4), Net: decimal.NewFromInt(116)},
			{PeriodStart: day(2026, 8, 4), Count: 1, Amount: decimal.NewFromInt(50), Fees: decimal.Zero, Net: decimal.NewFromInt(50)},
		}

		dense := FillTimeSeries(sparse, day(2026, 8, 1), day(2026, 8, 5), GranularityDay)
		require.Len(t, dense, 5)

		assert.Equal(t, int64(3), dense[0].Count)
		assert.Zero(t, dense[1].Count)
		assert.True(t, dense[1].Amount.IsZero())
		assert.Equal(t, day(2026, 8, 2), dense[1].PeriodStart)
		assert.Zero(t, dense[2].Count)
		assert.Equal(t, int64(1), dense[3].Count)
		assert.Zero(t, dense[4].Count)
	})

	t.Run("empty input fills the whole range", func(t *testing.T) {
		dense := FillTimeSeries(nil, day(2026, 8, 1), day(2026, 8, 7), GranularityDay)
		assert.Len(t, dense, 7)
		for _, b := range dense {
			assert.Zero(t, b.Count)
			assert.True(t, b.Amount.IsZero())
		}
	})

	t.Run("weekly buckets", func(t *testing.T) {
		// Aug 1 2026 is a Saturday, Aug 31 a Monday: weeks starting
		// Jul 27, Aug 3, 10, 17, 24, 31
		dense := FillTimeSeries(nil, day(2026, 8, 1), day(2026, 8, 31), GranularityWeek)
		require.Len(t, dense, 6)
		assert.Equal(t, day(2026, 7, 27), dense[0].PeriodStart)
		assert.Equal(t, day(2026, 8, 31), dense[5].PeriodStart)
	})

	t.Run("monthly buckets", func(t *testing.T) {
		dense := FillTimeSeries(nil, day(2026, 6, 15), day(2026, 8, 2), GranularityMonth)
		require.Len(t, dense, 3)
		assert.Equal(t, day(2026, 6, 1), dense[0].PeriodStart)
		assert.Equal(t, day(2026, 7, 1), dense[1].PeriodStart)
		assert.Equal(t, day(2026, 8, 1), dense[2].PeriodStart)
	})

	t.Run("inverted range is empty", func(t *testing.T) {
		dense := FillTimeSeries(nil, day(2026, 8, 5), day(2026, 8, 1), GranularityDay)
		assert.Empty(t, dense)
	})

	t.Run("single day range", func(t *testing.T) {
		dense := FillTimeSeries(nil, day(2026, 8, 5), day(2026, 8, 5), GranularityDay)
		assert.Len(t, dense, 1)
	})
}

func TestGranularityIsValid(t *testing.T) {
	assert.True(t, GranularityDay.IsValid())
	assert.True(t, GranularityWeek.IsValid())
	assert.True(t, GranularityMonth.IsValid())
	assert.False(t, Granularity("hour").IsValid())
	assert.False(t, Granularity("").IsValid())
}
