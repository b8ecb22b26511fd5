// Package aggregate groups decoded telemetry into one Sample per whole second.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/banshee-data/transects/internal/survey"
)

// RateFill selects how rate-like fields are averaged within a second.
type RateFill int

const (
	// FillZero sums only readings observed in the second and divides by the
	// number of messages in the second. Messages that do not carry a field
	// contribute nothing to its sum but still count.
	FillZero RateFill = iota
	// FillHold adds the last-known value of every rate-like field once per
	// message, carrying readings forward across seconds.
	FillHold
)

func (f RateFill) String() string {
	if f == FillHold {
		return "hold"
	}
	return "zero"
}

// Footprint converts range-to-bottom into the camera image footprint using a
// reference frame measured at a known altitude.
type Footprint struct {
	RefWidthM float64
	RefAltM   float64
	RefAreaM2 float64
}

// Width returns the footprint width at alt metres, or 0 for alt <= 0.
func (f Footprint) Width(alt float64) float64 {
	if alt <= 0 || f.RefAltM <= 0 {
		return 0
	}
	return f.RefWidthM * (alt / f.RefAltM)
}

// Area returns the footprint area at alt metres, or 0 for alt <= 0.
func (f Footprint) Area(alt float64) float64 {
	if alt <= 0 || f.RefAltM <= 0 {
		return 0
	}
	r := alt / f.RefAltM
	return f.RefAreaM2 * r * r
}

// Config controls aggregation.
type Config struct {
	Location  *time.Location
	RateFill  RateFill
	Footprint Footprint
}

// DefaultConfig returns UTC, zero-fill averaging and the reference camera footprint.
func DefaultConfig() Config {
	return Config{
		Location: time.UTC,
		RateFill: FillZero,
		Footprint: Footprint{
			RefWidthM: 1.15,
			RefAltM:   0.66,
			RefAreaM2: 0.9545,
		},
	}
}

// Snapshot is the last-known value of every field, carried across seconds.
type Snapshot struct {
	GPS      survey.Fix
	EKF      survey.Fix
	LocalX   survey.Float
	LocalY   survey.Float
	LocalZ   survey.Float
	Heading  survey.Float
	Velocity survey.Float
	Altitude survey.Float
	AuxAlt   survey.Float
}

type rateSum struct {
	sum float64
	n   int // readings that contributed, not messages
}

func (r *rateSum) add(v float64) {
	r.sum += v
	r.n++
}

func (r rateSum) mean(messages int) survey.Float {
	if r.n == 0 || messages == 0 {
		return survey.Float{}
	}
	return survey.Some(r.sum / float64(messages))
}

type bucket struct {
	count  int
	sample survey.Sample

	altitude rateSum
	heading  rateSum
	velocity rateSum
	width    rateSum
	area     rateSum
}

// reading holds the rate-like values carried by a single message.
type reading struct {
	altitude survey.Float
	heading  survey.Float
	velocity survey.Float
}

// Aggregator accumulates observations into per-second buckets. It owns the
// last-known value cache for one run and is not safe for concurrent use.
type Aggregator struct {
	cfg     Config
	cur     Snapshot
	buckets map[int64]*bucket

	received int
	dropped  int
}

// New creates an Aggregator. A nil Location means UTC.
func New(cfg Config) *Aggregator {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Aggregator{
		cfg:     cfg,
		buckets: make(map[int64]*bucket),
	}
}

// Add folds one observation into its second. It returns false when the
// observation was dropped for a missing or non-positive timestamp.
func (a *Aggregator) Add(obs survey.Observation) bool {
	a.received++
	if obs.Type == survey.MsgBadData || !(obs.Timestamp > 0) || math.IsInf(obs.Timestamp, 0) {
		a.dropped++
		return false
	}

	sec := int64(math.Floor(obs.Timestamp))
	b, ok := a.buckets[sec]
	if !ok {
		b = &bucket{}
		b.sample.Time = time.Unix(sec, 0).In(a.cfg.Location)
		a.buckets[sec] = b
	}

	r := a.apply(obs, &b.sample)
	b.count++

	if a.cfg.RateFill == FillHold {
		r = reading{altitude: a.cur.Altitude, heading: a.cur.Heading, velocity: a.cur.Velocity}
	}
	if alt, ok := r.altitude.Get(); ok && r.altitude.IsFinite() {
		b.altitude.add(alt)
		b.width.add(a.cfg.Footprint.Width(alt))
		b.area.add(a.cfg.Footprint.Area(alt))
	}
	if h, ok := r.heading.Get(); ok && r.heading.IsFinite() {
		b.heading.add(h)
	}
	if v, ok := r.velocity.Get(); ok && r.velocity.IsFinite() {
		b.velocity.add(v)
	}
	return true
}

// apply updates the last-known cache from obs and writes position-like
// values observed by this message into s. It returns the rate-like readings
// the message carried.
func (a *Aggregator) apply(obs survey.Observation, s *survey.Sample) reading {
	var r reading
	switch obs.Type {
	case survey.MsgGPSRaw:
		lat, okLat := obs.Field(survey.FieldLat)
		lon, okLon := obs.Field(survey.FieldLon)
		if okLat && okLon {
			fix := survey.FixFromScaled(lat, lon)
			a.cur.GPS = fix
			if fix.Valid() {
				s.GPSLat, s.GPSLon = survey.Some(fix.Lat), survey.Some(fix.Lon)
			}
		}

	case survey.MsgGlobalPosition:
		lat, okLat := obs.Field(survey.FieldLat)
		lon, okLon := obs.Field(survey.FieldLon)
		if okLat && okLon {
			fix := survey.FixFromScaled(lat, lon)
			a.cur.EKF = fix
			if fix.Valid() {
				s.EKFLat, s.EKFLon = survey.Some(fix.Lat), survey.Some(fix.Lon)
			}
		}

	case survey.MsgLocalPosition:
		if v, ok := finiteField(obs, survey.FieldX); ok {
			a.cur.LocalX = v
			s.LocalX = v
		}
		if v, ok := finiteField(obs, survey.FieldY); ok {
			a.cur.LocalY = v
			s.LocalY = v
		}
		if v, ok := finiteField(obs, survey.FieldZ); ok {
			a.cur.LocalZ = v
			s.LocalZ = v
		}

	case survey.MsgAttitude:
		if yaw, ok := finiteField(obs, survey.FieldYaw); ok {
			h := survey.Some(HeadingDegrees(yaw.V))
			a.cur.Heading = h
			r.heading = h
		}

	case survey.MsgVFRHUD:
		if alt, ok := finiteField(obs, survey.FieldAlt); ok {
			a.cur.AuxAlt = alt
			s.AuxAlt = alt
		}
		if gs, ok := finiteField(obs, survey.FieldGroundspeed); ok {
			a.cur.Velocity = gs
			r.velocity = gs
		}

	case survey.MsgRangefinder:
		if d, ok := finiteField(obs, survey.FieldDistance); ok {
			a.cur.Altitude = d
			r.altitude = d
		}
	}
	return r
}

func finiteField(obs survey.Observation, name string) (survey.Float, bool) {
	v, ok := obs.Field(name)
	if !ok {
		return survey.Float{}, false
	}
	f := survey.Finite(v)
	return f, f.Valid
}

// HeadingDegrees converts a yaw in radians to a compass heading in [0, 360).
func HeadingDegrees(yaw float64) float64 {
	h := math.Mod(yaw*180/math.Pi+360, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}

// LastKnown returns the current value cache.
func (a *Aggregator) LastKnown() Snapshot {
	return a.cur
}

// Received returns the number of observations passed to Add.
func (a *Aggregator) Received() int { return a.received }

// Dropped returns the number of observations rejected by Add.
func (a *Aggregator) Dropped() int { return a.dropped }

// Samples returns one Sample per second that received at least one
// observation, in time order.
func (a *Aggregator) Samples() []survey.Sample {
	secs := make([]int64, 0, len(a.buckets))
	for sec := range a.buckets {
		secs = append(secs, sec)
	}
	sort.Slice(secs, func(i, j int) bool { return secs[i] < secs[j] })

	out := make([]survey.Sample, 0, len(secs))
	for _, sec := range secs {
		b := a.buckets[sec]
		s := b.sample
		s.Messages = b.count
		s.Altitude = b.altitude.mean(b.count)
		s.Heading = b.heading.mean(b.count)
		s.Velocity = b.velocity.mean(b.count)
		s.Width = b.width.mean(b.count)
		s.Area = b.area.mean(b.count)
		out = append(out, s)
	}
	return out
}

// Aggregate runs a fresh Aggregator over obs and returns its samples.
func Aggregate(obs []survey.Observation, cfg Config) []survey.Sample {
	a := New(cfg)
	for _, o := range obs {
		a.Add(o)
	}
	if a.dropped > 0 {
		survey.Opsf("aggregate: dropped %d of %d observations (bad data or missing timestamp)", a.dropped, a.received)
	}
	return a.Samples()
}
