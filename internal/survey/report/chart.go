package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/transects/internal/survey"
	"github.com/banshee-data/transects/internal/survey/reconstruct"
)

// missing is how echarts marks a gap in a series.
const missing = "-"

func lineValue(f survey.Float) opts.LineData {
	if !f.IsFinite() {
		return opts.LineData{Value: missing}
	}
	return opts.LineData{Value: f.V}
}

// WriteChart renders an HTML page with depth, step distance and heading over
// time, plus the zeroed local track.
func WriteChart(w io.Writer, title string, track *reconstruct.Track) error {
	sum := reconstruct.Summarize(track)

	times := make([]string, 0, len(track.Rows))
	depth := make([]opts.LineData, 0, len(track.Rows))
	step := make([]opts.LineData, 0, len(track.Rows))
	heading := make([]opts.LineData, 0, len(track.Rows))
	local := make([]opts.ScatterData, 0, len(track.Rows))
	for _, r := range track.Rows {
		times = append(times, r.Time.Format("15:04:05"))
		depth = append(depth, lineValue(r.Depth))
		step = append(step, opts.LineData{Value: r.Step})
		heading = append(heading, lineValue(r.Heading))
		if r.ZeroedX.IsFinite() && r.ZeroedY.IsFinite() {
			local = append(local, opts.ScatterData{Value: []interface{}{r.ZeroedY.V, r.ZeroedX.V}})
		}
	}

	subtitle := fmt.Sprintf("rows=%d seed=%s jumps=%d reseeds=%d mean_step=%.2fm",
		sum.Rows, sum.SeedSource, sum.Jumps, sum.Reseeds, sum.MeanStep)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "m / deg"}),
	)
	line.SetXAxis(times).
		AddSeries("depth (m)", depth).
		AddSeries("step (m)", step).
		AddSeries("heading (deg)", heading)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "720px", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: "Local track", Subtitle: "zeroed dead reckoning"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "East (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "North (m)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("track", local, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	page := components.NewPage()
	page.AddCharts(line, scatter)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
