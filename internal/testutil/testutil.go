// Package testutil provides shared test utilities and fixtures.
//
// The observation builders produce decoded telemetry messages in the same
// shape the log decoder emits, so stage tests can script a survey second by
// second without a recorded log.
package testutil

import (
	"testing"
	"time"

	"github.com/banshee-data/transects/internal/survey"
)

// Epoch is a fixed capture start used across tests:
// 2025-06-14 10:00:00 America/Los_Angeles (17:00:00 UTC).
var Epoch = time.Date(2025, time.June, 14, 17, 0, 0, 0, time.UTC)

// At returns the Unix timestamp offset seconds after Epoch.
func At(offset float64) float64 {
	return float64(Epoch.Unix()) + offset
}

// Pacific loads America/Los_Angeles or fails the test.
func Pacific(t testing.TB) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("load timezone: %v", err)
	}
	return loc
}

// GPS builds a GPS_RAW_INT observation from decimal degrees.
func GPS(ts, lat, lon float64) survey.Observation {
	return survey.Observation{
		Type:      survey.MsgGPSRaw,
		Timestamp: ts,
		Fields: map[string]float64{
			survey.FieldLat: lat * survey.CoordScale,
			survey.FieldLon: lon * survey.CoordScale,
		},
	}
}

// EKF builds a GLOBAL_POSITION_INT observation from decimal degrees.
func EKF(ts, lat, lon float64) survey.Observation {
	obs := GPS(ts, lat, lon)
	obs.Type = survey.MsgGlobalPosition
	return obs
}

// Local builds a LOCAL_POSITION_NED observation.
func Local(ts, x, y, z float64) survey.Observation {
	return survey.Observation{
		Type:      survey.MsgLocalPosition,
		Timestamp: ts,
		Fields:    map[string]float64{survey.FieldX: x, survey.FieldY: y, survey.FieldZ: z},
	}
}

// Attitude builds an ATTITUDE observation with yaw in radians.
func Attitude(ts, yaw float64) survey.Observation {
	return survey.Observation{
		Type:      survey.MsgAttitude,
		Timestamp: ts,
		Fields:    map[string]float64{survey.FieldYaw: yaw},
	}
}

// VFR builds a VFR_HUD observation (negative-down altitude, ground speed).
func VFR(ts, alt, groundspeed float64) survey.Observation {
	return survey.Observation{
		Type:      survey.MsgVFRHUD,
		Timestamp: ts,
		Fields:    map[string]float64{survey.FieldAlt: alt, survey.FieldGroundspeed: groundspeed},
	}
}

// Rangefinder builds a RANGEFINDER observation.
func Rangefinder(ts, distance float64) survey.Observation {
	return survey.Observation{
		Type:      survey.MsgRangefinder,
		Timestamp: ts,
		Fields:    map[string]float64{survey.FieldDistance: distance},
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
