package reconstruct

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/tidwall/geodesic"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/transects/internal/survey"
)

// Summary describes a reconstructed transect.
type Summary struct {
	Start time.Time
	End   time.Time

	Rows     int
	Resolved int

	SeedSource survey.FixSource
	SeedIndex  int
	Jumps      int
	Reseeds    int

	MeanStep   float64 // mean over every row; the first row's step is 0
	MaxStep    float64
	PathLength float64 // sum of dead-reckoned steps, metres

	// Displacement is the ellipsoidal distance between the first and last
	// resolved positions.
	Displacement survey.Float
	// GeoLength is the great-circle length of the resolved polyline.
	GeoLength survey.Float

	DepthMin survey.Float
	DepthMax survey.Float

	// Bound and Center cover resolved positions only and are zero when
	// nothing resolved.
	Bound  orb.Bound
	Center orb.Point
}

// Path returns the resolved positions as a lon/lat line string.
func (t *Track) Path() orb.LineString {
	ls := make(orb.LineString, 0, len(t.Rows))
	for _, row := range t.Rows {
		if row.Resolved() {
			ls = append(ls, orb.Point{row.Lon.V, row.Lat.V})
		}
	}
	return ls
}

// Summarize computes per-transect statistics.
func Summarize(t *Track) Summary {
	s := Summary{
		Rows:       len(t.Rows),
		SeedSource: t.SeedSource,
		SeedIndex:  t.SeedIndex,
		Jumps:      t.Jumps,
		Reseeds:    t.Reseeds,
	}
	if len(t.Rows) == 0 {
		return s
	}
	s.Start = t.Rows[0].Time
	s.End = t.Rows[len(t.Rows)-1].Time

	steps := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		steps[i] = row.Step
	}
	s.MeanStep = stat.Mean(steps, nil)
	s.MaxStep = floats.Max(steps)
	s.PathLength = floats.Sum(steps)

	var depths []float64
	for _, row := range t.Rows {
		if row.Depth.IsFinite() {
			depths = append(depths, row.Depth.V)
		}
	}
	if len(depths) > 0 {
		s.DepthMin = survey.Some(floats.Min(depths))
		s.DepthMax = survey.Some(floats.Max(depths))
	}

	path := t.Path()
	s.Resolved = len(path)
	if len(path) > 0 {
		first, last := path[0], path[len(path)-1]
		var dist float64
		geodesic.WGS84.Inverse(first.Lat(), first.Lon(), last.Lat(), last.Lon(), &dist, nil, nil)
		s.Displacement = survey.Some(dist)
		s.GeoLength = survey.Some(geo.Length(path))
		s.Bound = path.Bound()
		s.Center = s.Bound.Center()
	}
	return s
}

// Log writes the summary to the diag stream.
func (s Summary) Log(label string) {
	survey.Diagf("%s: rows=%d resolved=%d seed=%s@%d jumps=%d reseeds=%d mean_step=%.3fm path=%.1fm displacement=%sm depth=[%s,%s]",
		label, s.Rows, s.Resolved, s.SeedSource, s.SeedIndex, s.Jumps, s.Reseeds,
		s.MeanStep, s.PathLength, s.Displacement.Format(1), s.DepthMin.Format(2), s.DepthMax.Format(2))
}
