package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func days() []Day {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return []Day{
		{Date: start, TemperatureC: Float(30), PrecipitationMM: Float(4)},
		{Date: start.AddDate(0, 0, 1), PrecipitationMM: Float(1)},
		{Date: start.AddDate(0, 0, 2), TemperatureC: Float(22), TempMinC: Float(3)},
	}
}

func TestAggregates(t *testing.T) {
	d := days()

	v, ok := Max(d, Temperature, 25)
	assert.True(t, ok)
	assert.Equal(t, 30.0, v)

	v, ok = Min(d, Temperature, 25)
	assert.True(t, ok)
	assert.Equal(t, 22.0, v)

	assert.Equal(t, 5.0, Sum(d, Precipitation, 0))

	v, ok = Mean(d, Temperature)
	assert.True(t, ok)
	assert.Equal(t, 26.0, v)

	_, ok = Mean(d, Humidity)
	assert.False(t, ok)
	_, ok = Max(nil, Temperature, 25)
	assert.False(t, ok)
}

func TestLast(t *testing.T) {
	d := days()
	assert.Len(t, Last(d, 2), 2)
	assert.Equal(t, d[1].Date, Last(d, 2)[0].Date)
	assert.Len(t, Last(d, 14), 3)
}

func TestSortedAndChronological(t *testing.T) {
	d := days()
	shuffled := []Day{d[2], d[0], d[1]}
	assert.Error(t, CheckChronological(shuffled))

	sorted := Sorted(shuffled)
	assert.NoError(t, CheckChronological(sorted))
	assert.Equal(t, d, sorted)
	assert.Equal(t, d[2], shuffled[0])

	assert.NoError(t, CheckChronological(nil))
	assert.Empty(t, Sorted(nil))
}
