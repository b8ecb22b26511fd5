package reconstruct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/transects/internal/survey"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	samples := []survey.Sample{
		withGPS(local(0, 0, 0), 47.0, -122.0),
		local(1, 1, 0),
		local(2, 1, 1),
	}
	samples[1].Depth = survey.Some(-3.5)
	samples[2].Depth = survey.Float{}

	track, err := New(DefaultConfig()).Reconstruct(samples)
	require.NoError(t, err)

	s := Summarize(track)
	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, 3, s.Resolved)
	assert.Equal(t, survey.SourceGPS, s.SeedSource)
	assert.InDelta(t, 2.0/3, s.MeanStep, 1e-12)
	assert.InDelta(t, 1.0, s.MaxStep, 1e-12)
	assert.InDelta(t, 2.0, s.PathLength, 1e-12)
	assert.InDelta(t, 1.4142, s.Displacement.V, 1e-3)
	assert.InDelta(t, 2.0, s.GeoLength.V, 1e-2)
	assert.Equal(t, survey.Some(-3.5), s.DepthMin)
	assert.Equal(t, survey.Some(-2), s.DepthMax)
	assert.Equal(t, samples[0].Time, s.Start)
	assert.Equal(t, samples[2].Time, s.End)

	assert.InDelta(t, -122.0, s.Bound.Min.Lon(), 1e-9)
	assert.InDelta(t, 47.0, s.Bound.Min.Lat(), 1e-9)
	assert.True(t, s.Bound.Contains(s.Center))
}

func TestSummarize_Unseeded(t *testing.T) {
	t.Parallel()

	track, err := New(DefaultConfig()).Reconstruct([]survey.Sample{local(0, 0, 0), local(1, 1, 0)})
	require.ErrorIs(t, err, survey.ErrNoFix)

	s := Summarize(track)
	assert.Equal(t, 0, s.Resolved)
	assert.Equal(t, -1, s.SeedIndex)
	assert.False(t, s.Displacement.Valid)
	assert.False(t, s.GeoLength.Valid)
	assert.InDelta(t, 1.0, s.PathLength, 1e-12)
	assert.Empty(t, track.Path())
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	s := Summarize(&Track{SeedIndex: -1})
	assert.Equal(t, 0, s.Rows)
	assert.True(t, s.Start.IsZero())
}
