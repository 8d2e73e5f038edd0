// Command export writes the backend's historical series to a CSV file and,
// optionally, the history charts as PNG files next to it.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/energydash/energydash/pkg/backend"
	"github.com/energydash/energydash/pkg/log"
	"github.com/energydash/energydash/pkg/present"
	"github.com/energydash/energydash/pkg/series"
	"github.com/energydash/energydash/pkg/tariff"
	"github.com/energydash/energydash/pkg/types"
	"github.com/levenlabs/go-lflag"
)

func main() {
	b := backend.Configured()
	t := tariff.Configured()
	days := 30
	lflag.JSON(&days, "days", days, "Number of days of history to export")
	out := lflag.String("out", "", "CSV output path, defaults to solar_data_<days>days.csv")
	charts := lflag.Bool("charts", false, "Also render the history charts as PNG files")
	lflag.Configure()

	ctx := context.Background()
	if days < 1 {
		log.Ctx(ctx).ErrorContext(ctx, "days must be positive", "days", days)
		os.Exit(1)
	}
	path := *out
	if path == "" {
		path = fmt.Sprintf("solar_data_%ddays.csv", days)
	}

	log.Ctx(ctx).InfoContext(ctx, "exporting series", "days", days, "path", path)
	s, err := b.SolarData(ctx, days)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to load series", "error", err)
		os.Exit(1)
	}
	if err := writeFile(path, func(f *os.File) error { return series.WriteCSV(f, s) }); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to write csv", "error", err)
		os.Exit(1)
	}

	if *charts {
		dir := filepath.Dir(path)
		specs := map[string]types.ChartSpec{
			"generation":        series.GenerationChart(s),
			"grid":              series.GridChart(s),
			"financial":         series.FinancialChart(s, t.Tariffs()),
			"actual-generation": series.ActualGenerationChart(s),
		}
		for name, spec := range specs {
			png := filepath.Join(dir, name+".png")
			if err := writeFile(png, func(f *os.File) error { return present.RenderPNG(f, spec) }); err != nil {
				log.Ctx(ctx).ErrorContext(ctx, "failed to render chart", "chart", name, "error", err)
				os.Exit(1)
			}
		}
	}
	log.Ctx(ctx).InfoContext(ctx, "export complete", "records", s.Len())
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
