package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/transects/internal/survey"
	"github.com/banshee-data/transects/internal/testutil"
)

func TestAggregate_LastPositionWinsWithinSecond(t *testing.T) {
	t.Parallel()

	obs := []survey.Observation{
		testutil.GPS(testutil.At(0.1), 47.0, -122.0),
		testutil.Local(testutil.At(0.2), 1, 2, 3),
		testutil.GPS(testutil.At(0.9), 47.1, -122.1),
		testutil.Local(testutil.At(0.95), 4, 5, 6),
	}
	samples := Aggregate(obs, DefaultConfig())
	require.Len(t, samples, 1)

	s := samples[0]
	assert.Equal(t, 4, s.Messages)
	assert.InDelta(t, 47.1, s.GPSLat.V, 1e-9)
	assert.InDelta(t, -122.1, s.GPSLon.V, 1e-9)
	assert.Equal(t, survey.Some(4), s.LocalX)
	assert.Equal(t, survey.Some(5), s.LocalY)
	assert.Equal(t, survey.Some(6), s.LocalZ)
}

// Rate-like fields divide by every message in the second, including the ones
// that did not carry the field. With sparse fields this understates the true
// mean; the behaviour is kept deliberately.
func TestAggregate_RateFieldsDivideByMessageCount(t *testing.T) {
	t.Parallel()

	obs := []survey.Observation{
		testutil.Attitude(testutil.At(0.1), math.Pi/2),
		testutil.GPS(testutil.At(0.2), 47.0, -122.0),
		testutil.VFR(testutil.At(0.3), -3.0, 2.0),
		testutil.Rangefinder(testutil.At(0.4), 1.2),
	}
	samples := Aggregate(obs, DefaultConfig())
	require.Len(t, samples, 1)

	s := samples[0]
	assert.Equal(t, 4, s.Messages)
	assert.InDelta(t, 90.0/4, s.Heading.V, 1e-9)
	assert.InDelta(t, 2.0/4, s.Velocity.V, 1e-9)
	assert.InDelta(t, 1.2/4, s.Altitude.V, 1e-9)
	assert.Equal(t, survey.Some(-3.0), s.AuxAlt)
}

func TestAggregate_HoldModeCarriesLastKnownRates(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.RateFill = FillHold
	obs := []survey.Observation{
		testutil.Attitude(testutil.At(0.1), math.Pi/2),
		testutil.GPS(testutil.At(0.2), 47.0, -122.0),
		testutil.VFR(testutil.At(0.3), -3.0, 2.0),
		// Next second carries no attitude; hold mode still reports 90 degrees.
		testutil.GPS(testutil.At(1.5), 47.0, -122.0),
	}
	samples := Aggregate(obs, cfg)
	require.Len(t, samples, 2)

	assert.InDelta(t, 90.0, samples[0].Heading.V, 1e-9)
	assert.InDelta(t, 2.0/3, samples[0].Velocity.V, 1e-9)
	assert.InDelta(t, 90.0, samples[1].Heading.V, 1e-9)
	assert.InDelta(t, 2.0, samples[1].Velocity.V, 1e-9)
	assert.False(t, samples[1].Altitude.Valid)
}

func TestAggregate_PositionNotCopiedIntoLaterSecond(t *testing.T) {
	t.Parallel()

	a := New(DefaultConfig())
	a.Add(testutil.GPS(testutil.At(0.5), 47.0, -122.0))
	a.Add(testutil.EKF(testutil.At(0.6), 47.0, -122.0))
	a.Add(testutil.Local(testutil.At(1.5), 1, 0, 2))

	samples := a.Samples()
	require.Len(t, samples, 2)
	assert.True(t, samples[0].GPSLat.Valid)
	assert.True(t, samples[0].EKFLat.Valid)
	assert.False(t, samples[1].GPSLat.Valid, "GPS fix must not leak into the next second")
	assert.False(t, samples[1].EKFLat.Valid)

	last := a.LastKnown()
	assert.InDelta(t, 47.0, last.GPS.Lat, 1e-9)
	assert.Equal(t, survey.Some(1), last.LocalX)
}

func TestAggregate_DropsInvalidTimestamps(t *testing.T) {
	t.Parallel()

	a := New(DefaultConfig())
	assert.False(t, a.Add(testutil.GPS(0, 47, -122)))
	assert.False(t, a.Add(testutil.GPS(-5, 47, -122)))
	assert.False(t, a.Add(testutil.GPS(math.NaN(), 47, -122)))
	assert.False(t, a.Add(survey.Observation{Type: survey.MsgBadData, Timestamp: testutil.At(0)}))
	assert.True(t, a.Add(testutil.GPS(testutil.At(3), 47, -122)))

	assert.Equal(t, 5, a.Received())
	assert.Equal(t, 4, a.Dropped())
	assert.Len(t, a.Samples(), 1)
}

func TestAggregate_InvalidFixIgnored(t *testing.T) {
	t.Parallel()

	samples := Aggregate([]survey.Observation{
		testutil.GPS(testutil.At(0.1), 47.0, -122.0),
		testutil.GPS(testutil.At(0.5), 0, 0),
	}, DefaultConfig())
	require.Len(t, samples, 1)
	assert.InDelta(t, 47.0, samples[0].GPSLat.V, 1e-9, "a 0/0 fix does not overwrite the last valid one")
}

func TestAggregate_NoGapFilling(t *testing.T) {
	t.Parallel()

	samples := Aggregate([]survey.Observation{
		testutil.Local(testutil.At(0), 0, 0, 1),
		testutil.Local(testutil.At(5), 1, 0, 1),
		testutil.Local(testutil.At(2), 2, 0, 1),
	}, DefaultConfig())
	require.Len(t, samples, 3)
	assert.True(t, samples[0].Time.Before(samples[1].Time))
	assert.True(t, samples[1].Time.Before(samples[2].Time))
	assert.Equal(t, 5, int(samples[2].Time.Sub(samples[0].Time).Seconds()))
}

func TestAggregate_FootprintFromRangefinder(t *testing.T) {
	t.Parallel()

	samples := Aggregate([]survey.Observation{
		testutil.Rangefinder(testutil.At(0), 0.66),
		testutil.Rangefinder(testutil.At(1), -1),
	}, DefaultConfig())
	require.Len(t, samples, 2)
	assert.InDelta(t, 1.15, samples[0].Width.V, 1e-9)
	assert.InDelta(t, 0.9545, samples[0].Area.V, 1e-9)
	assert.Equal(t, survey.Some(0), samples[1].Width)
	assert.Equal(t, survey.Some(0), samples[1].Area)
}

func TestAggregate_LocalTimezone(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Location = testutil.Pacific(t)
	samples := Aggregate([]survey.Observation{testutil.Local(testutil.At(0.7), 0, 0, 0)}, cfg)
	require.Len(t, samples, 1)
	assert.Equal(t, "10:00:00", samples[0].Time.Format("15:04:05"))
	assert.Equal(t, 0, samples[0].Time.Nanosecond())
}

func TestHeadingDegrees(t *testing.T) {
	t.Parallel()

	tests := []struct {
		yaw  float64
		want float64
	}{
		{0, 0},
		{math.Pi / 2, 90},
		{math.Pi, 180},
		{-math.Pi / 2, 270},
		{2 * math.Pi, 0},
	}
	for _, tt := range tests {
		got := HeadingDegrees(tt.yaw)
		assert.InDelta(t, tt.want, got, 1e-9, "yaw=%v", tt.yaw)
		assert.True(t, got >= 0 && got < 360)
	}
}

func TestFootprint(t *testing.T) {
	t.Parallel()

	fp := DefaultConfig().Footprint
	assert.InDelta(t, 2.3, fp.Width(1.32), 1e-9)
	assert.InDelta(t, 0.9545*4, fp.Area(1.32), 1e-9)
	assert.Equal(t, 0.0, fp.Width(0))
	assert.Equal(t, 0.0, Footprint{}.Area(1))
}
