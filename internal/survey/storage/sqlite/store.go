// Package sqlite persists survey runs, per-transect summaries and
// reconstructed rows.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/transects/internal/survey"
	"github.com/banshee-data/transects/internal/survey/reconstruct"
	"github.com/banshee-data/transects/internal/timeutil"
)

// Run is one invocation over one telemetry log.
type Run struct {
	RunID        string
	StartedAt    time.Time
	LogPath      string
	Site         string
	Version      string
	GitSHA       string
	ConfigJSON   []byte
	Observations int
	Dropped      int
	Samples      int
}

// Transect is the stored outcome of one window.
type Transect struct {
	TransectID  string
	RunID       string
	Seq         int
	WindowStart string
	WindowEnd   string
	Status      string
	Error       string
	FilePath    string
	Summary     reconstruct.Summary
}

// Store reads and writes survey results.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewStore creates a Store. A nil clock uses the wall clock.
func NewStore(db *sql.DB, clock timeutil.Clock) *Store {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Store{db: db, clock: clock}
}

// SaveRun inserts a run, assigning RunID and StartedAt when unset.
func (s *Store) SaveRun(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.clock.Now()
	}
	if len(run.ConfigJSON) == 0 {
		run.ConfigJSON = []byte("{}")
	}
	_, err := s.db.Exec(`
		INSERT INTO survey_runs (
			run_id, started_at, log_path, site, version, git_sha,
			config_json, observations, dropped, samples
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.StartedAt.UTC().Format(time.RFC3339Nano), run.LogPath, run.Site,
		run.Version, run.GitSHA, string(run.ConfigJSON),
		run.Observations, run.Dropped, run.Samples,
	)
	if err != nil {
		return fmt.Errorf("insert survey run: %w", err)
	}
	return nil
}

// GetRun loads a run by ID.
func (s *Store) GetRun(runID string) (*Run, error) {
	r := &Run{}
	var started, cfg string
	err := s.db.QueryRow(`
		SELECT run_id, started_at, log_path, site, version, git_sha,
		       config_json, observations, dropped, samples
		FROM survey_runs WHERE run_id = ?`, runID,
	).Scan(&r.RunID, &started, &r.LogPath, &r.Site, &r.Version, &r.GitSHA,
		&cfg, &r.Observations, &r.Dropped, &r.Samples)
	if err != nil {
		return nil, fmt.Errorf("get survey run %s: %w", runID, err)
	}
	r.ConfigJSON = []byte(cfg)
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	return r, nil
}

// SaveTransect inserts a transect and its rows in one transaction. rows may
// be empty for skipped windows.
func (s *Store) SaveTransect(t *Transect, rows []reconstruct.Row) (err error) {
	if t.TransectID == "" {
		t.TransectID = uuid.New().String()
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transect tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	sum := t.Summary
	var minLat, minLon, maxLat, maxLon survey.Float
	if sum.Resolved > 0 {
		minLat, minLon = survey.Some(sum.Bound.Min.Lat()), survey.Some(sum.Bound.Min.Lon())
		maxLat, maxLon = survey.Some(sum.Bound.Max.Lat()), survey.Some(sum.Bound.Max.Lon())
	}
	_, err = tx.Exec(`
		INSERT INTO transects (
			transect_id, run_id, seq, window_start, window_end, status, error, file_path,
			row_count, resolved, seed_source, seed_index, jumps, reseeds,
			mean_step_m, path_length_m, displacement_m, depth_min_m, depth_max_m,
			min_lat, min_lon, max_lat, max_lon
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TransectID, t.RunID, t.Seq, t.WindowStart, t.WindowEnd, t.Status, t.Error, t.FilePath,
		sum.Rows, sum.Resolved, sum.SeedSource.String(), sum.SeedIndex, sum.Jumps, sum.Reseeds,
		sum.MeanStep, sum.PathLength, nullFloat(sum.Displacement), nullFloat(sum.DepthMin), nullFloat(sum.DepthMax),
		nullFloat(minLat), nullFloat(minLon), nullFloat(maxLat), nullFloat(maxLon),
	)
	if err != nil {
		return fmt.Errorf("insert transect: %w", err)
	}

	if len(rows) > 0 {
		stmt, perr := tx.Prepare(`
			INSERT INTO transect_rows (
				transect_id, seq, ts_unix, gps_lat, gps_lon, ekf_lat, ekf_lon,
				local_x, local_y, local_z, zeroed_x, zeroed_y, lat, lon,
				step_m, bearing_deg, jump, reseeded, altitude, depth, depth_source,
				heading, velocity, width, area, aux_alt
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = fmt.Errorf("prepare row insert: %w", perr)
			return err
		}
		defer stmt.Close()
		for i, r := range rows {
			_, err = stmt.Exec(
				t.TransectID, i, r.Time.Unix(),
				nullFloat(r.GPSLat), nullFloat(r.GPSLon), nullFloat(r.EKFLat), nullFloat(r.EKFLon),
				nullFloat(r.LocalX), nullFloat(r.LocalY), nullFloat(r.LocalZ),
				nullFloat(r.ZeroedX), nullFloat(r.ZeroedY), nullFloat(r.Lat), nullFloat(r.Lon),
				r.Step, nullFloat(r.Bearing), r.Jump, r.Reseeded,
				nullFloat(r.Altitude), nullFloat(r.Depth), string(r.DepthSource),
				nullFloat(r.Heading), nullFloat(r.Velocity), nullFloat(r.Width), nullFloat(r.Area),
				nullFloat(r.AuxAlt),
			)
			if err != nil {
				return fmt.Errorf("insert row %d: %w", i, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transect: %w", err)
	}
	return nil
}

// ListTransects returns a run's transects in window order. Summary carries
// the persisted statistics only.
func (s *Store) ListTransects(runID string) ([]*Transect, error) {
	rows, err := s.db.Query(`
		SELECT transect_id, run_id, seq, window_start, window_end, status, error, file_path,
		       row_count, resolved, seed_source, seed_index, jumps, reseeds,
		       mean_step_m, path_length_m, displacement_m, depth_min_m, depth_max_m
		FROM transects
		WHERE run_id = ?
		ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("list transects: %w", err)
	}
	defer rows.Close()

	var out []*Transect
	for rows.Next() {
		t := &Transect{}
		var seedSource string
		var disp, dmin, dmax sql.NullFloat64
		err := rows.Scan(
			&t.TransectID, &t.RunID, &t.Seq, &t.WindowStart, &t.WindowEnd, &t.Status, &t.Error, &t.FilePath,
			&t.Summary.Rows, &t.Summary.Resolved, &seedSource, &t.Summary.SeedIndex,
			&t.Summary.Jumps, &t.Summary.Reseeds,
			&t.Summary.MeanStep, &t.Summary.PathLength, &disp, &dmin, &dmax,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transect: %w", err)
		}
		t.Summary.SeedSource = parseFixSource(seedSource)
		t.Summary.Displacement = fromNull(disp)
		t.Summary.DepthMin = fromNull(dmin)
		t.Summary.DepthMax = fromNull(dmax)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Rows returns a transect's stored rows in order. Times are UTC.
func (s *Store) Rows(transectID string) ([]reconstruct.Row, error) {
	rows, err := s.db.Query(`
		SELECT ts_unix, gps_lat, gps_lon, ekf_lat, ekf_lon,
		       local_x, local_y, local_z, zeroed_x, zeroed_y, lat, lon,
		       step_m, bearing_deg, jump, reseeded, altitude, depth, depth_source,
		       heading, velocity, width, area, aux_alt
		FROM transect_rows
		WHERE transect_id = ?
		ORDER BY seq`, transectID)
	if err != nil {
		return nil, fmt.Errorf("list transect rows: %w", err)
	}
	defer rows.Close()

	var out []reconstruct.Row
	for rows.Next() {
		var (
			r      reconstruct.Row
			ts     int64
			source string
			f      [19]sql.NullFloat64
		)
		err := rows.Scan(&ts,
			&f[0], &f[1], &f[2], &f[3],
			&f[4], &f[5], &f[6], &f[7], &f[8], &f[9], &f[10],
			&r.Step, &f[11], &r.Jump, &r.Reseeded, &f[12], &f[13], &source,
			&f[14], &f[15], &f[16], &f[17], &f[18],
		)
		if err != nil {
			return nil, fmt.Errorf("scan transect row: %w", err)
		}
		r.Time = time.Unix(ts, 0).UTC()
		r.GPSLat, r.GPSLon, r.EKFLat, r.EKFLon = fromNull(f[0]), fromNull(f[1]), fromNull(f[2]), fromNull(f[3])
		r.LocalX, r.LocalY, r.LocalZ = fromNull(f[4]), fromNull(f[5]), fromNull(f[6])
		r.ZeroedX, r.ZeroedY = fromNull(f[7]), fromNull(f[8])
		r.Lat, r.Lon = fromNull(f[9]), fromNull(f[10])
		r.Bearing = fromNull(f[11])
		r.Altitude, r.Depth = fromNull(f[12]), fromNull(f[13])
		r.DepthSource = survey.DepthSource(source)
		r.Heading, r.Velocity = fromNull(f[14]), fromNull(f[15])
		r.Width, r.Area, r.AuxAlt = fromNull(f[16]), fromNull(f[17]), fromNull(f[18])
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullFloat(f survey.Float) sql.NullFloat64 {
	if !f.IsFinite() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f.V, Valid: true}
}

func fromNull(n sql.NullFloat64) survey.Float {
	if !n.Valid {
		return survey.Float{}
	}
	return survey.Some(n.Float64)
}

func parseFixSource(s string) survey.FixSource {
	switch s {
	case survey.SourceGPS.String():
		return survey.SourceGPS
	case survey.SourceEKF.String():
		return survey.SourceEKF
	}
	return survey.SourceNone
}
