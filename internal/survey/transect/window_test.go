package transect

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/transects/internal/survey"
)

func TestParseClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00:00", 0, false},
		{"10:15:30", 10*3600 + 15*60 + 30, false},
		{"23:59:59", 86399, false},
		{"9:05:00", 9*3600 + 5*60, false},
		{"25:00:00", 0, true},
		{"24:00:00", 0, true},
		{"10:60:00", 0, true},
		{"10:00:60", 0, true},
		{"10:00", 0, true},
		{"", 0, true},
		{"aa:bb:cc", 0, true},
		{"-1:00:00", 0, true},
		{"+1:00:00", 0, true},
		{"10:+5:00", 0, true},
		{"10:05:+0", 0, true},
		{" 9:05:00", 0, true},
		{"100:00:00", 0, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, survey.ErrMalformedWindow))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if len(tt.in) == 8 {
				assert.Equal(t, tt.in, FormatClock(got))
			}
		})
	}
}

func TestParseBounds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Bounds{Start: "10:00:00", End: "10:15:00"}, ParseBounds(" 10:00:00 - 10:15:00 "))
	assert.Equal(t, Bounds{Start: "10:00:00"}, ParseBounds("10:00:00"))
	assert.Equal(t, "10:00:00-10:15:00", Bounds{Start: "10:00:00", End: "10:15:00"}.String())
}

func TestParseWindows_MalformedSkipped(t *testing.T) {
	t.Parallel()

	windows, errs := ParseWindows([]Bounds{
		{Start: "10:00:00", End: "10:05:00"},
		{Start: "25:00:00", End: "26:00:00"},
		{Start: "11:00:00", End: "11:30:00"},
	})
	require.Len(t, windows, 2)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], survey.ErrMalformedWindow)
	assert.Contains(t, errs[0].Error(), "transect 2")

	var we *WindowError
	require.True(t, errors.As(errs[0], &we))
	assert.Equal(t, 2, we.Index)
	assert.Equal(t, Bounds{Start: "25:00:00", End: "26:00:00"}, we.Bounds)

	assert.Equal(t, 1, windows[0].Index)
	assert.Equal(t, 3, windows[1].Index, "surviving windows keep their list position")
	assert.Equal(t, "T3 11:00:00-11:30:00", windows[1].String())
}

func TestParseWindows_DefaultFullDay(t *testing.T) {
	t.Parallel()

	windows, errs := ParseWindows(nil)
	assert.Empty(t, errs)
	require.Len(t, windows, 1)
	assert.Equal(t, DefaultWindow(), windows[0])
	assert.True(t, windows[0].Contains(0))
	assert.True(t, windows[0].Contains(86399))
}

func series(base time.Time, n int) []survey.Sample {
	out := make([]survey.Sample, n)
	for i := range out {
		out[i].Time = base.Add(time.Duration(i) * time.Second)
		out[i].Messages = 1
	}
	return out
}

func TestSlice_InclusiveBounds(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 14, 9, 59, 58, 0, time.UTC)
	samples := series(base, 10) // 09:59:58 .. 10:00:07

	w, err := ParseWindow(1, Bounds{Start: "10:00:00", End: "10:00:03"})
	require.NoError(t, err)

	got := Slice(samples, w)
	require.Len(t, got, 4)
	assert.Equal(t, "10:00:00", got[0].Time.Format("15:04:05"))
	assert.Equal(t, "10:00:03", got[3].Time.Format("15:04:05"))

	got[0].Messages = 99
	assert.Equal(t, 1, samples[2].Messages, "slice must not alias the input")
}

func TestSlice_Empty(t *testing.T) {
	t.Parallel()

	samples := series(time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC), 5)

	w, err := ParseWindow(1, Bounds{Start: "12:00:00", End: "12:30:00"})
	require.NoError(t, err)
	assert.Empty(t, Slice(samples, w))

	inverted, err := ParseWindow(2, Bounds{Start: "10:00:04", End: "10:00:00"})
	require.NoError(t, err)
	assert.Empty(t, Slice(samples, inverted))
}
