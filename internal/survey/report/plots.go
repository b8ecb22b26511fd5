// Package report renders quality-assurance artefacts for reconstructed
// transects: PNG plots and an interactive HTML page.
package report

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/transects/internal/fsutil"
	"github.com/banshee-data/transects/internal/survey/reconstruct"
)

var (
	trackColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	jumpColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	depthColor = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

// WritePlots saves "<prefix>_local.png" (zeroed dead-reckoning track, East
// against North), "<prefix>_depth.png" (depth over time) and, when any row
// resolved, "<prefix>_geo.png" (longitude against latitude) into dir. It
// returns the paths written.
func WritePlots(fsys fsutil.FileSystem, dir, prefix string, track *reconstruct.Track) ([]string, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create plot dir: %w", err)
	}

	var (
		local, geo, depth plotter.XYs
		localJumps        plotter.XYs
	)
	var t0 int64
	if len(track.Rows) > 0 {
		t0 = track.Rows[0].Time.Unix()
	}
	for _, r := range track.Rows {
		if r.ZeroedX.IsFinite() && r.ZeroedY.IsFinite() {
			pt := plotter.XY{X: r.ZeroedY.V, Y: r.ZeroedX.V}
			local = append(local, pt)
			if r.Jump {
				localJumps = append(localJumps, pt)
			}
		}
		if r.Resolved() {
			geo = append(geo, plotter.XY{X: r.Lon.V, Y: r.Lat.V})
		}
		if r.Depth.IsFinite() {
			depth = append(depth, plotter.XY{X: float64(r.Time.Unix() - t0), Y: r.Depth.V})
		}
	}

	var written []string
	save := func(p *plot.Plot, name string) error {
		path := filepath.Join(dir, prefix+name)
		wt, err := p.WriterTo(10*vg.Inch, 6*vg.Inch, "png")
		if err != nil {
			return fmt.Errorf("render %s: %w", path, err)
		}
		f, err := fsys.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if _, err := wt.WriteTo(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	pLocal := plot.New()
	pLocal.Title.Text = fmt.Sprintf("%s - Dead-reckoned track", prefix)
	pLocal.X.Label.Text = "East (m)"
	pLocal.Y.Label.Text = "North (m)"
	if err := addLine(pLocal, "track", local, trackColor); err != nil {
		return written, err
	}
	if len(localJumps) > 0 {
		sc, err := plotter.NewScatter(localJumps)
		if err != nil {
			return written, err
		}
		sc.GlyphStyle.Color = jumpColor
		sc.GlyphStyle.Radius = vg.Points(3)
		pLocal.Add(sc)
		pLocal.Legend.Add("jump", sc)
	}
	if err := save(pLocal, "_local.png"); err != nil {
		return written, err
	}

	pDepth := plot.New()
	pDepth.Title.Text = fmt.Sprintf("%s - Depth", prefix)
	pDepth.X.Label.Text = "Elapsed (s)"
	pDepth.Y.Label.Text = "Depth (m)"
	if err := addLine(pDepth, "depth", depth, depthColor); err != nil {
		return written, err
	}
	if err := save(pDepth, "_depth.png"); err != nil {
		return written, err
	}

	if len(geo) == 0 {
		return written, nil
	}
	pGeo := plot.New()
	pGeo.Title.Text = fmt.Sprintf("%s - Geodesic track", prefix)
	pGeo.X.Label.Text = "Longitude"
	pGeo.Y.Label.Text = "Latitude"
	if err := addLine(pGeo, "track", geo, trackColor); err != nil {
		return written, err
	}
	if err := save(pGeo, "_geo.png"); err != nil {
		return written, err
	}
	return written, nil
}

func addLine(p *plot.Plot, label string, pts plotter.XYs, c color.Color) error {
	if len(pts) == 0 {
		return nil
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = c
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}
