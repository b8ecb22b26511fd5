package survey

import "math"

// CoordScale is the integer scaling of transmitted latitude/longitude (degrees x 1e7).
const CoordScale = 1e7

// Fix is an absolute geographic position in decimal degrees.
type Fix struct {
	Lat float64
	Lon float64
}

// Valid reports whether both coordinates are finite and non-zero. Receivers
// report 0/0 when they have no solution, so zero is treated as absent.
func (f Fix) Valid() bool {
	return finiteNonZero(f.Lat) && finiteNonZero(f.Lon)
}

func finiteNonZero(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v != 0
}

// FixFromScaled converts scaled integer coordinates to signed degrees.
func FixFromScaled(lat, lon float64) Fix {
	return Fix{Lat: lat / CoordScale, Lon: lon / CoordScale}
}

// FixSource identifies where an absolute position came from.
type FixSource int

const (
	SourceNone FixSource = iota
	SourceGPS
	SourceEKF
)

var fixSourceNames = [...]string{"none", "gps", "ekf"}

func (s FixSource) String() string {
	if int(s) >= 0 && int(s) < len(fixSourceNames) {
		return fixSourceNames[s]
	}
	return "unknown"
}

// FixCandidate is one entry in an ordered fallback chain.
type FixCandidate struct {
	Source FixSource
	Lat    Float
	Lon    Float
}

// Fix returns the candidate's position and whether it is valid.
func (c FixCandidate) Fix() (Fix, bool) {
	if !c.Lat.Valid || !c.Lon.Valid {
		return Fix{}, false
	}
	f := Fix{Lat: c.Lat.V, Lon: c.Lon.V}
	return f, f.Valid()
}

// SelectFix returns the first valid candidate in priority order.
func SelectFix(candidates ...FixCandidate) (Fix, FixSource, bool) {
	for _, c := range candidates {
		if f, ok := c.Fix(); ok {
			return f, c.Source, true
		}
	}
	return Fix{}, SourceNone, false
}
