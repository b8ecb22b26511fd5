package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/transects/internal/db"
	"github.com/banshee-data/transects/internal/survey"
	"github.com/banshee-data/transects/internal/survey/reconstruct"
	"github.com/banshee-data/transects/internal/timeutil"
)

var started = time.Date(2025, 6, 14, 18, 30, 0, 0, time.UTC)

func setupStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.NewDB(filepath.Join(t.TempDir(), "survey.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return NewStore(d.DB, timeutil.NewMockClock(started))
}

func sampleTrack(t *testing.T) (*reconstruct.Track, reconstruct.Summary) {
	t.Helper()
	base := time.Date(2025, 6, 14, 17, 0, 0, 0, time.UTC)
	samples := []survey.Sample{
		{Time: base, LocalX: survey.Some(0), LocalY: survey.Some(0), LocalZ: survey.Some(2),
			GPSLat: survey.Some(47), GPSLon: survey.Some(-122), Depth: survey.Some(-2), DepthSource: survey.DepthLocal},
		{Time: base.Add(time.Second), LocalX: survey.Some(1), LocalY: survey.Some(0), LocalZ: survey.Some(2.5),
			AuxAlt: survey.Some(-2.6), Depth: survey.Some(-2.6), DepthSource: survey.DepthAux, Heading: survey.Some(12)},
	}
	track, err := reconstruct.New(reconstruct.DefaultConfig()).Reconstruct(samples)
	require.NoError(t, err)
	return track, reconstruct.Summarize(track)
}

func TestStore_RunRoundTrip(t *testing.T) {
	s := setupStore(t)

	run := &Run{LogPath: "dump.jsonl", Site: "12", Version: "dev", Observations: 10, Samples: 2}
	require.NoError(t, s.SaveRun(run))
	assert.NotEmpty(t, run.RunID)
	assert.Equal(t, started, run.StartedAt)

	got, err := s.GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, "12", got.Site)
	assert.Equal(t, 10, got.Observations)
	assert.Equal(t, "{}", string(got.ConfigJSON))
	assert.True(t, started.Equal(got.StartedAt))

	_, err = s.GetRun("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStore_TransectRoundTrip(t *testing.T) {
	s := setupStore(t)
	run := &Run{LogPath: "dump.jsonl"}
	require.NoError(t, s.SaveRun(run))

	track, sum := sampleTrack(t)
	tr := &Transect{
		RunID: run.RunID, Seq: 1, WindowStart: "10:00:00", WindowEnd: "10:15:00",
		Status: "ok", FilePath: "/out/2025_06_14_T1.csv", Summary: sum,
	}
	require.NoError(t, s.SaveTransect(tr, track.Rows))
	assert.NotEmpty(t, tr.TransectID)

	skipped := &Transect{RunID: run.RunID, Seq: 2, WindowStart: "25:00:00", WindowEnd: "26:00:00",
		Status: "malformed", Error: "bad window", Summary: reconstruct.Summary{SeedIndex: -1}}
	require.NoError(t, s.SaveTransect(skipped, nil))

	list, err := s.ListTransects(run.RunID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ok", list[0].Status)
	assert.Equal(t, 2, list[0].Summary.Rows)
	assert.Equal(t, survey.SourceGPS, list[0].Summary.SeedSource)
	assert.InDelta(t, 1.0, list[0].Summary.PathLength, 1e-9)
	assert.InDelta(t, -2.6, list[0].Summary.DepthMin.V, 1e-9)
	assert.True(t, list[0].Summary.Displacement.Valid)
	assert.Equal(t, "malformed", list[1].Status)
	assert.Equal(t, survey.SourceNone, list[1].Summary.SeedSource)
	assert.False(t, list[1].Summary.Displacement.Valid)

	rows, err := s.Rows(tr.TransectID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for i := range rows {
		want := track.Rows[i]
		assert.True(t, want.Time.Equal(rows[i].Time))
		assert.Equal(t, want.Lat, rows[i].Lat)
		assert.Equal(t, want.Lon, rows[i].Lon)
		assert.Equal(t, want.Step, rows[i].Step)
		assert.Equal(t, want.Bearing, rows[i].Bearing)
		assert.Equal(t, want.DepthSource, rows[i].DepthSource)
		assert.Equal(t, want.AuxAlt, rows[i].AuxAlt)
		assert.Equal(t, want.ZeroedX, rows[i].ZeroedX)
	}
	assert.False(t, rows[0].Bearing.Valid)

	empty, err := s.Rows(skipped.TransectID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_TransectRequiresRun(t *testing.T) {
	s := setupStore(t)
	err := s.SaveTransect(&Transect{RunID: "no-such-run", Seq: 1, Status: "ok"}, nil)
	assert.Error(t, err, "foreign key enforced")
}

func TestStore_DuplicateSeqRollsBack(t *testing.T) {
	s := setupStore(t)
	run := &Run{LogPath: "dump.jsonl"}
	require.NoError(t, s.SaveRun(run))

	track, sum := sampleTrack(t)
	require.NoError(t, s.SaveTransect(&Transect{RunID: run.RunID, Seq: 1, Status: "ok", Summary: sum}, track.Rows))

	dup := &Transect{RunID: run.RunID, Seq: 1, Status: "ok", Summary: sum}
	require.Error(t, s.SaveTransect(dup, track.Rows))

	rows, err := s.Rows(dup.TransectID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
