package testutil

import (
	"errors"
	"testing"

	"github.com/banshee-data/transects/internal/survey"
)

func TestObservationBuilders(t *testing.T) {
	t.Parallel()

	gps := GPS(At(1), 47.5, -122.25)
	if gps.Type != survey.MsgGPSRaw {
		t.Errorf("type = %s, want %s", gps.Type, survey.MsgGPSRaw)
	}
	if got := gps.Fields[survey.FieldLat]; got != 475000000 {
		t.Errorf("scaled lat = %v, want 475000000", got)
	}

	if ekf := EKF(At(1), 47.5, -122.25); ekf.Type != survey.MsgGlobalPosition {
		t.Errorf("type = %s, want %s", ekf.Type, survey.MsgGlobalPosition)
	}

	local := Local(At(2), 1, 2, 3)
	if z, ok := local.Field(survey.FieldZ); !ok || z != 3 {
		t.Errorf("z = %v (%v), want 3", z, ok)
	}

	if At(0) != float64(Epoch.Unix()) {
		t.Errorf("At(0) = %v, want %v", At(0), Epoch.Unix())
	}
}

func TestPacific(t *testing.T) {
	t.Parallel()

	loc := Pacific(t)
	if got := Epoch.In(loc).Hour(); got != 10 {
		t.Errorf("local hour = %d, want 10", got)
	}
}

func TestAssertNoError(t *testing.T) {
	t.Parallel()
	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	t.Parallel()
	AssertError(t, errors.New("boom"))
}
