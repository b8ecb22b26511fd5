// Package reconstruct converts local-frame dead-reckoning positions into
// absolute coordinates by seeded geodesic propagation.
//
// Each transect is processed on its own: the local frame is zeroed at the
// first sample, seeded from the first absolute fix (GPS, then navigation
// filter), and advanced step by step along the local displacement bearing on
// the WGS84 ellipsoid. Steps shorter than the jitter threshold do not move
// the track. Steps longer than the jump threshold are treated as a reset of
// the local frame and re-seeded from that sample's own fix.
package reconstruct

import (
	"fmt"
	"math"

	"github.com/tidwall/geodesic"

	"github.com/banshee-data/transects/internal/survey"
)

// Config holds the reconstruction thresholds.
type Config struct {
	// MinStepM is the step distance below which displacement is sensor noise.
	MinStepM float64
	// JumpThresholdM is the step distance above which the local frame is
	// assumed to have re-originated.
	JumpThresholdM float64
	// DVLScale multiplies every local displacement step before thresholding.
	DVLScale float64
}

// DefaultConfig returns the thresholds used in field surveys.
func DefaultConfig() Config {
	return Config{
		MinStepM:       0.02,
		JumpThresholdM: 5.0,
		DVLScale:       1.0,
	}
}

// Row is one reconstructed sample.
type Row struct {
	survey.Sample

	// ZeroedX and ZeroedY are the local position relative to the transect's
	// first sample, or the raw local position when zeroing was skipped.
	ZeroedX survey.Float
	ZeroedY survey.Float

	Lat survey.Float
	Lon survey.Float

	// Step is the distance moved since the previous row after scaling and
	// jitter suppression. The first row's step is 0.
	Step float64
	// Bearing is the compass bearing of the step in [0, 360), null when the
	// step is zero.
	Bearing survey.Float

	Jump     bool
	Reseeded bool
}

// Resolved reports whether the row has geographic coordinates.
func (r Row) Resolved() bool {
	return r.Lat.Valid && r.Lon.Valid
}

// Track is the reconstruction result for one transect.
type Track struct {
	Rows []Row

	Zeroed    bool
	BaselineX float64
	BaselineY float64

	Seed       survey.Fix
	SeedSource survey.FixSource
	SeedIndex  int // -1 when unseeded

	Jumps   int
	Reseeds int
}

// Seeded reports whether an absolute fix anchored the track.
func (t *Track) Seeded() bool {
	return t.SeedIndex >= 0
}

// Reconstructor runs the per-transect algorithm. It holds no state between
// calls and may be shared across goroutines.
type Reconstructor struct {
	cfg Config
	ell *geodesic.Ellipsoid
}

// New creates a Reconstructor. A non-positive DVLScale is treated as 1.
func New(cfg Config) *Reconstructor {
	if !(cfg.DVLScale > 0) {
		cfg.DVLScale = 1
	}
	return &Reconstructor{cfg: cfg, ell: geodesic.WGS84}
}

// Config returns the thresholds in use.
func (r *Reconstructor) Config() Config {
	return r.cfg
}

// Reconstruct builds the track for one transect's samples. When no sample
// carries a valid fix the track is still returned, without geographic
// coordinates, together with survey.ErrNoFix.
func (r *Reconstructor) Reconstruct(samples []survey.Sample) (*Track, error) {
	t := &Track{
		Rows:      make([]Row, len(samples)),
		SeedIndex: -1,
	}
	if len(samples) == 0 {
		return t, nil
	}
	for i, s := range samples {
		t.Rows[i].Sample = s
	}

	zero(t)
	seeded := seed(t)

	r.propagate(t)

	if !seeded {
		return t, fmt.Errorf("%d samples from %s: %w",
			len(samples), samples[0].Time.Format("15:04:05"), survey.ErrNoFix)
	}
	return t, nil
}

// zero subtracts the first sample's local position from every row. Zeroing
// is skipped entirely when the first sample has no finite local position.
func zero(t *Track) {
	first := t.Rows[0]
	t.Zeroed = first.LocalX.IsFinite() && first.LocalY.IsFinite()
	if t.Zeroed {
		t.BaselineX, t.BaselineY = first.LocalX.V, first.LocalY.V
	}
	for i := range t.Rows {
		row := &t.Rows[i]
		row.ZeroedX, row.ZeroedY = row.LocalX, row.LocalY
		if !t.Zeroed {
			continue
		}
		if row.LocalX.IsFinite() {
			row.ZeroedX = survey.Some(row.LocalX.V - t.BaselineX)
		}
		if row.LocalY.IsFinite() {
			row.ZeroedY = survey.Some(row.LocalY.V - t.BaselineY)
		}
	}
}

// seed anchors the track at the first GPS fix, else the first navigation
// filter fix, and back-fills every row up to and including it.
func seed(t *Track) bool {
	for _, source := range []survey.FixSource{survey.SourceGPS, survey.SourceEKF} {
		for i := range t.Rows {
			fix, ok := candidate(t.Rows[i].Sample, source).Fix()
			if !ok {
				continue
			}
			t.Seed, t.SeedSource, t.SeedIndex = fix, source, i
			for j := 0; j <= i; j++ {
				t.Rows[j].Lat, t.Rows[j].Lon = survey.Some(fix.Lat), survey.Some(fix.Lon)
			}
			return true
		}
	}
	return false
}

func candidate(s survey.Sample, source survey.FixSource) survey.FixCandidate {
	if source == survey.SourceEKF {
		return s.EKF()
	}
	return s.GPS()
}

// propagate walks the rows in order carrying the last resolved position.
// A step is measured between consecutive rows only; when either row lacks a
// finite local position the step is zero.
func (r *Reconstructor) propagate(t *Track) {
	var lat, lon float64
	resolved := t.Seeded()
	if resolved {
		lat, lon = t.Seed.Lat, t.Seed.Lon
	}

	for i := 1; i < len(t.Rows); i++ {
		row, prev := &t.Rows[i], &t.Rows[i-1]

		var dx, dy float64
		if hasLocal(*row) && hasLocal(*prev) {
			dx = (row.ZeroedX.V - prev.ZeroedX.V) * r.cfg.DVLScale
			dy = (row.ZeroedY.V - prev.ZeroedY.V) * r.cfg.DVLScale
		}

		dist := math.Hypot(dx, dy)
		if dist < r.cfg.MinStepM {
			dx, dy, dist = 0, 0, 0
		}
		row.Step = dist
		if dist > 0 {
			row.Bearing = survey.Some(Bearing(dx, dy))
		}
		row.Jump = dist > r.cfg.JumpThresholdM
		if row.Jump {
			t.Jumps++
		}

		switch {
		case i <= t.SeedIndex:
			// Back-filled with the seed.
		case row.Jump:
			fix, source, ok := survey.SelectFix(row.SeedCandidates()...)
			if !ok {
				survey.Opsf("reconstruct: jump of %.2fm at %s with no fix; position unresolved",
					dist, row.Time.Format("15:04:05"))
				break
			}
			lat, lon, resolved = fix.Lat, fix.Lon, true
			row.Lat, row.Lon = survey.Some(lat), survey.Some(lon)
			row.Reseeded = true
			t.Reseeds++
			survey.Diagf("reconstruct: jump of %.2fm at %s re-seeded from %s",
				dist, row.Time.Format("15:04:05"), source)
		case resolved:
			if dist > 0 {
				r.ell.Direct(lat, lon, row.Bearing.V, dist, &lat, &lon, nil)
			}
			row.Lat, row.Lon = survey.Some(lat), survey.Some(lon)
		}

		if survey.TraceEnabled() {
			survey.Tracef("reconstruct: %s dx=%.3f dy=%.3f step=%.3f bearing=%s jump=%t lat=%s lon=%s",
				row.Time.Format("15:04:05"), dx, dy, dist, row.Bearing.Format(1), row.Jump,
				row.Lat.Format(7), row.Lon.Format(7))
		}
	}
}

func hasLocal(row Row) bool {
	return row.ZeroedX.IsFinite() && row.ZeroedY.IsFinite()
}

// Bearing returns the compass bearing in [0, 360) of a North/East
// displacement: 0 is North, increasing clockwise.
func Bearing(dx, dy float64) float64 {
	b := math.Mod(math.Atan2(dy, dx)*180/math.Pi+360, 360)
	if b >= 360 {
		b = 0
	}
	return b
}
