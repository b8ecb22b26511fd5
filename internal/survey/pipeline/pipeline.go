// Package pipeline runs a decoded telemetry log through aggregation, depth
// fusion, windowing and reconstruction, and hands each transect to the
// configured sinks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/banshee-data/transects/internal/fsutil"
	"github.com/banshee-data/transects/internal/survey"
	"github.com/banshee-data/transects/internal/survey/aggregate"
	"github.com/banshee-data/transects/internal/survey/depth"
	"github.com/banshee-data/transects/internal/survey/export"
	"github.com/banshee-data/transects/internal/survey/reconstruct"
	"github.com/banshee-data/transects/internal/survey/report"
	"github.com/banshee-data/transects/internal/survey/storage/sqlite"
	"github.com/banshee-data/transects/internal/survey/transect"
)

// Status is the outcome of one transect.
type Status string

const (
	StatusOK        Status = "ok"
	StatusUnseeded  Status = "unseeded"
	StatusEmpty     Status = "empty"
	StatusMalformed Status = "malformed"
	StatusFailed    Status = "failed"
)

// Options configures a run. A nil FS disables CSV output; a nil Store
// disables persistence.
type Options struct {
	Aggregate      aggregate.Config
	Reconstruct    reconstruct.Config
	DepthThreshold float64

	FS     fsutil.FileSystem
	OutDir string
	Site   string

	// Plots writes PNG plots and an HTML chart next to each CSV.
	Plots bool

	Store *sqlite.Store
	// Run is the metadata template saved before transects are processed.
	Run sqlite.Run
}

// DefaultOptions returns stage defaults with no sinks.
func DefaultOptions() Options {
	return Options{
		Aggregate:      aggregate.DefaultConfig(),
		Reconstruct:    reconstruct.DefaultConfig(),
		DepthThreshold: depth.DefaultThreshold,
	}
}

// TransectResult is the outcome of one window.
type TransectResult struct {
	Window    transect.Window
	Status    Status
	Err       error
	Path      string
	Artifacts []string
	Track     *reconstruct.Track
	Summary   reconstruct.Summary
}

// Result is the outcome of a run.
type Result struct {
	RunID        string
	Date         time.Time
	Observations int
	Dropped      int
	Samples      int
	AuxDepth     int
	Transects    []TransectResult
}

// Written returns the number of transects that produced a table.
func (r *Result) Written() int {
	n := 0
	for _, t := range r.Transects {
		if t.Status == StatusOK || t.Status == StatusUnseeded {
			n++
		}
	}
	return n
}

// Errors returns the per-transect errors in window order.
func (r *Result) Errors() []error {
	var errs []error
	for _, t := range r.Transects {
		if t.Err != nil {
			errs = append(errs, t.Err)
		}
	}
	return errs
}

// Run processes obs over the given windows. No windows means the whole day.
// Per-transect failures are recorded in the result; the returned error is
// reserved for cancellation and failures to record the run itself.
func Run(ctx context.Context, obs []survey.Observation, bounds []transect.Bounds, opts Options) (*Result, error) {
	agg := aggregate.New(opts.Aggregate)
	for _, o := range obs {
		agg.Add(o)
	}
	samples := agg.Samples()

	res := &Result{
		Observations: agg.Received(),
		Dropped:      agg.Dropped(),
		Samples:      len(samples),
	}
	if res.Dropped > 0 {
		survey.Opsf("dropped %d of %d messages with missing timestamps", res.Dropped, res.Observations)
	}
	if len(samples) > 0 {
		res.Date = samples[len(samples)-1].Time
	}
	res.AuxDepth = depth.Fuse(samples, opts.DepthThreshold)

	if opts.Store != nil {
		run := opts.Run
		run.Observations = res.Observations
		run.Dropped = res.Dropped
		run.Samples = res.Samples
		if run.Site == "" {
			run.Site = opts.Site
		}
		if err := opts.Store.SaveRun(&run); err != nil {
			return res, fmt.Errorf("save run: %w", err)
		}
		res.RunID = run.RunID
	}

	var writer *export.Writer
	if opts.FS != nil {
		writer = export.NewWriter(opts.FS, opts.OutDir, opts.Site)
	}
	rc := reconstruct.New(opts.Reconstruct)

	windows := resolveWindows(bounds)
	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		tr := w
		if tr.Err == nil {
			tr = process(rc, writer, opts, res.Date, samples, w.Window)
		}
		if opts.Store != nil {
			if err := persist(opts.Store, res.RunID, tr); err != nil {
				survey.Opsf("%s: persist: %v", tr.Window, err)
				if tr.Err == nil {
					tr.Err = err
				}
			}
		}
		res.Transects = append(res.Transects, tr)
	}

	survey.Diagf("run: %d messages, %d samples, %d aux depths, %d/%d transects written",
		res.Observations, res.Samples, res.AuxDepth, res.Written(), len(res.Transects))
	return res, nil
}

// resolveWindows returns one result per window in the caller's order.
// Malformed windows keep their position and carry the parse error.
func resolveWindows(bounds []transect.Bounds) []TransectResult {
	windows, errs := transect.ParseWindows(bounds)
	out := make([]TransectResult, 0, len(windows)+len(errs))
	for _, w := range windows {
		out = append(out, TransectResult{Window: w})
	}
	for _, err := range errs {
		var we *transect.WindowError
		if !errors.As(err, &we) {
			continue
		}
		survey.Opsf("skipping transect %d (%s): %v", we.Index, we.Bounds, err)
		out = append(out, TransectResult{
			Window: transect.Window{Index: we.Index, Bounds: we.Bounds},
			Status: StatusMalformed,
			Err:    err,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Window.Index < out[j].Window.Index })
	return out
}

func process(rc *reconstruct.Reconstructor, writer *export.Writer, opts Options, date time.Time, samples []survey.Sample, w transect.Window) TransectResult {
	tr := TransectResult{Window: w, Status: StatusOK}

	slice := transect.Slice(samples, w)
	if len(slice) == 0 {
		tr.Status = StatusEmpty
		tr.Err = fmt.Errorf("%s: %w", w, survey.ErrEmptyWindow)
		survey.Opsf("skipping %s: no samples", w)
		return tr
	}

	track, err := rc.Reconstruct(slice)
	if err != nil {
		if !errors.Is(err, survey.ErrNoFix) {
			tr.Status = StatusFailed
			tr.Err = fmt.Errorf("%s: %w", w, err)
			return tr
		}
		tr.Status = StatusUnseeded
		tr.Err = fmt.Errorf("%s: %w", w, err)
		survey.Opsf("%s: no GPS or EKF fix, exporting local track only", w)
	}
	tr.Track = track
	tr.Summary = reconstruct.Summarize(track)
	tr.Summary.Log(w.String())

	if writer == nil {
		return tr
	}
	path, err := writer.WriteTransect(date, w.Index, track)
	if err != nil {
		tr.Status = StatusFailed
		tr.Err = fmt.Errorf("%s: %w", w, err)
		survey.Opsf("%s: export: %v", w, err)
		return tr
	}
	tr.Path = path
	survey.Diagf("%s: wrote %d rows to %s", w, len(track.Rows), path)

	if opts.Plots {
		arts, err := writeReport(opts.FS, writer.Dir(), path, w, track)
		tr.Artifacts = arts
		if err != nil {
			// Plots are QA output; the table is already in place.
			survey.Opsf("%s: report: %v", w, err)
		}
	}
	return tr
}

func writeReport(fsys fsutil.FileSystem, dir, csvPath string, w transect.Window, track *reconstruct.Track) ([]string, error) {
	prefix := strings.TrimSuffix(filepath.Base(csvPath), filepath.Ext(csvPath))
	arts, err := report.WritePlots(fsys, dir, prefix, track)
	if err != nil {
		return arts, err
	}

	htmlPath := filepath.Join(dir, prefix+".html")
	f, err := fsys.Create(htmlPath)
	if err != nil {
		return arts, fmt.Errorf("create %s: %w", htmlPath, err)
	}
	if err := report.WriteChart(f, w.String(), track); err != nil {
		f.Close()
		return arts, err
	}
	if err := f.Close(); err != nil {
		return arts, fmt.Errorf("close %s: %w", htmlPath, err)
	}
	return append(arts, htmlPath), nil
}

func persist(store *sqlite.Store, runID string, tr TransectResult) error {
	rec := &sqlite.Transect{
		RunID:       runID,
		Seq:         tr.Window.Index,
		WindowStart: tr.Window.Bounds.Start,
		WindowEnd:   tr.Window.Bounds.End,
		Status:      string(tr.Status),
		FilePath:    tr.Path,
		Summary:     tr.Summary,
	}
	if tr.Err != nil {
		rec.Error = tr.Err.Error()
	}
	var rows []reconstruct.Row
	if tr.Track != nil {
		rows = tr.Track.Rows
	}
	return store.SaveTransect(rec, rows)
}
