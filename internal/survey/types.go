package survey

import (
	"math"
	"time"

	"github.com/banshee-data/transects/internal/units"
)

// MessageType is the decoded telemetry message type tag.
type MessageType string

// Message types consumed by the aggregator. Names follow the MAVLink message
// names emitted by the log decoder.
const (
	MsgGPSRaw         MessageType = "GPS_RAW_INT"
	MsgGlobalPosition MessageType = "GLOBAL_POSITION_INT"
	MsgLocalPosition  MessageType = "LOCAL_POSITION_NED"
	MsgAttitude       MessageType = "ATTITUDE"
	MsgVFRHUD         MessageType = "VFR_HUD"
	MsgRangefinder    MessageType = "RANGEFINDER"
	MsgBadData        MessageType = "BAD_DATA"
)

// Field names within decoded messages.
const (
	FieldLat         = "lat"
	FieldLon         = "lon"
	FieldX           = "x"
	FieldY           = "y"
	FieldZ           = "z"
	FieldYaw         = "yaw"
	FieldAlt         = "alt"
	FieldGroundspeed = "groundspeed"
	FieldDistance    = "distance"
)

// Observation is one decoded telemetry message. Timestamp is seconds since
// the Unix epoch on the recording clock; non-positive means missing.
type Observation struct {
	Type      MessageType
	Timestamp float64
	Fields    map[string]float64
}

// Field returns a decoded field and whether it is present.
func (o Observation) Field(name string) (float64, bool) {
	v, ok := o.Fields[name]
	return v, ok
}

// Time converts the observation timestamp to a time.Time in loc.
func (o Observation) Time(loc *time.Location) time.Time {
	sec, frac := math.Modf(o.Timestamp)
	return time.Unix(int64(sec), int64(frac*1e9)).In(loc)
}

// DepthSource records which input produced a sample's depth.
type DepthSource string

const (
	DepthUnset DepthSource = ""
	DepthAux   DepthSource = "aux"
	DepthLocal DepthSource = "local"
)

// Sample is the one-second aggregate of every observation whose timestamp
// truncates to Time.
//
// Position-like fields hold the last valid value observed within the second.
// Rate-like fields (Altitude, Heading, Velocity, Width, Area) hold the sum of
// readings divided by the number of messages in the second.
type Sample struct {
	Time     time.Time
	Messages int

	GPSLat Float
	GPSLon Float
	EKFLat Float
	EKFLon Float

	LocalX Float // metres, North-positive
	LocalY Float // metres, East-positive
	LocalZ Float // metres, Down-positive

	Altitude Float // range to bottom, metres
	Heading  Float // degrees [0, 360)
	Velocity Float // ground speed, m/s
	Width    Float // image footprint width, metres
	Area     Float // image footprint area, m^2

	AuxAlt Float // negative-down altitude from the auxiliary sensor

	Depth       Float
	DepthSource DepthSource
}

// GPS returns the sample's GPS fix as a fallback candidate.
func (s Sample) GPS() FixCandidate {
	return FixCandidate{Source: SourceGPS, Lat: s.GPSLat, Lon: s.GPSLon}
}

// EKF returns the sample's navigation-filter fix as a fallback candidate.
func (s Sample) EKF() FixCandidate {
	return FixCandidate{Source: SourceEKF, Lat: s.EKFLat, Lon: s.EKFLon}
}

// SeedCandidates returns the sample's fixes in seeding priority order.
func (s Sample) SeedCandidates() []FixCandidate {
	return []FixCandidate{s.GPS(), s.EKF()}
}

// TimeOfDay returns seconds since local midnight of the sample time.
func (s Sample) TimeOfDay() int {
	return units.SecondsOfDay(s.Time)
}
