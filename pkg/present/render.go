package present

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/energydash/energydash/pkg/types"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when a chart has nothing to plot.
var ErrNoData = errors.New("chart has no data")

const (
	pngWidth  = 1024
	pngHeight = 400
)

func color(hex string) drawing.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return chart.ColorBlue
	}
	return drawing.ColorFromHex(hex)
}

// yRange spans every value and zero so flat series still get a usable axis.
func yRange(datasets []types.Dataset) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, ds := range datasets {
		for _, v := range ds.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

// RenderPNG draws spec as a PNG. Specs with Categories become bar charts of
// the first dataset; everything else is a time series per dataset.
func RenderPNG(w io.Writer, spec types.ChartSpec) error {
	if len(spec.Categories) > 0 {
		return renderBars(w, spec)
	}
	return renderLines(w, spec)
}

func renderLines(w io.Writer, spec types.ChartSpec) error {
	if len(spec.Labels) == 0 || len(spec.Datasets) == 0 {
		return ErrNoData
	}
	series := make([]chart.Series, 0, len(spec.Datasets))
	for _, ds := range spec.Datasets {
		if len(ds.Values) != len(spec.Labels) {
			return fmt.Errorf("dataset %q has %d values for %d labels", ds.Label, len(ds.Values), len(spec.Labels))
		}
		xs := spec.Labels
		ys := ds.Values
		// go-chart needs at least two x values
		if len(xs) == 1 {
			xs = []time.Time{xs[0], xs[0].Add(24 * time.Hour)}
			ys = []float64{ys[0], ys[0]}
		}
		series = append(series, chart.TimeSeries{
			Name:    ds.Label,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color(ds.Color),
				StrokeWidth: 2,
			},
		})
	}

	ch := chart.Chart{
		Title:  spec.Title,
		Width:  pngWidth,
		Height: pngHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 12},
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis:  chart.YAxis{Name: spec.YLabel, Range: yRange(spec.Datasets)},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart %q: %w", spec.Title, err)
	}
	return nil
}

func renderBars(w io.Writer, spec types.ChartSpec) error {
	if len(spec.Datasets) == 0 || len(spec.Datasets[0].Values) != len(spec.Categories) {
		return ErrNoData
	}
	ds := spec.Datasets[0]
	bars := make([]chart.Value, len(spec.Categories))
	for i, c := range spec.Categories {
		bars[i] = chart.Value{
			Label: c,
			Value: ds.Values[i],
			Style: chart.Style{FillColor: color(ds.Color), StrokeColor: color(ds.Color)},
		}
	}
	bc := chart.BarChart{
		Title:    spec.Title,
		Width:    pngWidth / 2,
		Height:   pngHeight,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{Name: spec.YLabel, Range: yRange(spec.Datasets)},
		Bars:  bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart %q: %w", spec.Title, err)
	}
	return nil
}
