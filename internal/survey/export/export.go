// Package export writes reconstructed transects as CSV tables.
//
// The column names and order are consumed by downstream mapping tools and
// must not change.
package export

import (
	"encoding/csv"
	"fmt"
	"path/filepath"
	"time"

	"github.com/banshee-data/transects/internal/fsutil"
	"github.com/banshee-data/transects/internal/security"
	"github.com/banshee-data/transects/internal/survey"
	"github.com/banshee-data/transects/internal/survey/reconstruct"
)

var header = []string{
	"Date", "Time",
	"Latitude", "Longitude",
	"EKFlat", "EKFlon",
	"DVLx", "DVLy",
	"DVLlat", "DVLlon",
	"Altitude", "Depth", "Depth_Source",
	"Heading", "Velocity_mps",
	"Width", "Area_m2",
	"Distance",
	"NEDz", "VFR_alt",
}

// Header returns the CSV column names.
func Header() []string {
	return append([]string(nil), header...)
}

func num(f survey.Float) string {
	return f.Format(-1)
}

// Record encodes one row. Null and non-finite values are written as empty
// fields.
func Record(row reconstruct.Row) []string {
	return []string{
		row.Time.Format("2006-01-02"),
		row.Time.Format("15:04:05"),
		num(row.GPSLat), num(row.GPSLon),
		num(row.EKFLat), num(row.EKFLon),
		num(row.ZeroedX), num(row.ZeroedY),
		num(row.Lat), num(row.Lon),
		num(row.Altitude),
		num(row.Depth),
		string(row.DepthSource),
		num(row.Heading),
		num(row.Velocity),
		num(row.Width),
		num(row.Area),
		num(survey.Some(row.Step)),
		num(row.LocalZ),
		num(row.AuxAlt),
	}
}

// Filename returns "<YYYY_MM_DD>_<site>_T<n>.csv", omitting the site part
// when site sanitises to nothing.
func Filename(date time.Time, site string, n int) string {
	d := date.Format("2006_01_02")
	if s := security.SanitizeFilename(site); s != "" {
		return fmt.Sprintf("%s_%s_T%d.csv", d, s, n)
	}
	return fmt.Sprintf("%s_T%d.csv", d, n)
}

// Writer writes transect tables into Dir.
type Writer struct {
	fs   fsutil.FileSystem
	dir  string
	site string
}

// NewWriter returns a Writer for dir on fsys.
func NewWriter(fsys fsutil.FileSystem, dir, site string) *Writer {
	return &Writer{fs: fsys, dir: dir, site: site}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// WriteTransect writes one transect and returns the file path. The table is
// written to a temporary name and renamed into place, so a failed write never
// leaves a partial file under the final name.
func (w *Writer) WriteTransect(date time.Time, n int, track *reconstruct.Track) (string, error) {
	if err := w.fs.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(w.dir, Filename(date, w.site, n))
	if _, ok := w.fs.(fsutil.OSFileSystem); ok {
		if err := security.ValidatePathWithinDirectory(path, w.dir); err != nil {
			return "", err
		}
	}

	tmp := path + ".tmp"
	f, err := w.fs.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", tmp, err)
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		f.Close()
		w.fs.Remove(tmp)
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, row := range track.Rows {
		if err := cw.Write(Record(row)); err != nil {
			f.Close()
			w.fs.Remove(tmp)
			return "", fmt.Errorf("write row %s: %w", row.Time.Format("15:04:05"), err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		w.fs.Remove(tmp)
		return "", fmt.Errorf("flush %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		w.fs.Remove(tmp)
		return "", fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := w.fs.Rename(tmp, path); err != nil {
		w.fs.Remove(tmp)
		return "", fmt.Errorf("rename %s: %w", path, err)
	}
	return path, nil
}
