package series

import (
	"slices"

	"github.com/energydash/energydash/pkg/types"
	"github.com/shopspring/decimal"
)

const (
	colorSolar      = "#FFCD56"
	colorImport     = "#FF6384"
	colorExport     = "#4BC0C0"
	colorPrediction = "#FFC107"
	colorForecast   = "#4FC3F7"

	energyLabel = "Energy (kWh)"
)

func column(s types.TimeSeries, get func(types.DailyRecord) float64) []float64 {
	out := make([]float64, len(s.Records))
	for i, r := range s.Records {
		out[i] = get(r)
	}
	return out
}

// GenerationChart plots generation against grid import and export.
func GenerationChart(s types.TimeSeries) types.ChartSpec {
	return types.ChartSpec{
		Title:  "Solar Generation vs Grid Usage",
		YLabel: energyLabel,
		Labels: s.Dates(),
		Datasets: []types.Dataset{
			{Label: "Solar Generation", Color: colorSolar, Values: column(s, func(r types.DailyRecord) float64 { return r.Generation })},
			{Label: "Grid Import", Color: colorImport, Values: column(s, func(r types.DailyRecord) float64 { return r.GridImport })},
			{Label: "Grid Export", Color: colorExport, Values: column(s, func(r types.DailyRecord) float64 { return r.GridExport })},
		},
	}
}

// GridChart plots grid import and export.
func GridChart(s types.TimeSeries) types.ChartSpec {
	return types.ChartSpec{
		Title:  "Grid Import vs Export",
		YLabel: energyLabel,
		Labels: s.Dates(),
		Datasets: []types.Dataset{
			{Label: "Grid Import", Color: colorImport, Values: column(s, func(r types.DailyRecord) float64 { return r.GridImport })},
			{Label: "Grid Export", Color: colorExport, Values: column(s, func(r types.DailyRecord) float64 { return r.GridExport })},
		},
	}
}

// FinancialChart plots the daily export income.
func FinancialChart(s types.TimeSeries, tariffs types.Tariffs) types.ChartSpec {
	rate := decimal.NewFromFloat(tariffs.ExportPerKWH)
	return types.ChartSpec{
		Title:  "Daily Financial Benefits",
		YLabel: "Amount (" + tariffs.Currency + ")",
		Labels: s.Dates(),
		Datasets: []types.Dataset{{
			Label: "Daily Financial Benefits (" + tariffs.Currency + ")",
			Color: colorExport,
			Values: column(s, func(r types.DailyRecord) float64 {
				return decimal.NewFromFloat(r.GridExport).Mul(rate).Round(2).InexactFloat64()
			}),
		}},
	}
}

// ActualGenerationChart plots measured generation for comparison with a
// prediction.
func ActualGenerationChart(s types.TimeSeries) types.ChartSpec {
	return types.ChartSpec{
		Title:  "Actual Generation",
		YLabel: energyLabel,
		Labels: s.Dates(),
		Datasets: []types.Dataset{
			{Label: "Actual Generation", Color: colorExport, Values: column(s, func(r types.DailyRecord) float64 { return r.Generation })},
		},
	}
}

// PredictionChart plots predicted daily generation in date order.
func PredictionChart(predictions []types.DailyPrediction) types.ChartSpec {
	sorted := slices.Clone(predictions)
	slices.SortStableFunc(sorted, func(a, b types.DailyPrediction) int {
		return a.Date.Compare(b.Date)
	})
	spec := types.ChartSpec{
		Title:  "Predicted Solar Generation",
		YLabel: "Generation (kWh)",
		Datasets: []types.Dataset{{
			Label:  "Predicted Generation (kWh)",
			Color:  colorPrediction,
			Values: make([]float64, 0, len(sorted)),
		}},
	}
	for _, p := range sorted {
		spec.Labels = append(spec.Labels, p.Date)
		spec.Datasets[0].Values = append(spec.Datasets[0].Values, p.Generation)
	}
	return spec
}

// ForecastChart plots the forecast temperature. Days without a temperature
// are left out.
func ForecastChart(days []types.WeatherDay) types.ChartSpec {
	spec := types.ChartSpec{
		Title:  "Weather Forecast",
		YLabel: "Temperature (°C)",
		Datasets: []types.Dataset{{
			Label: "Temperature (°C)",
			Color: colorForecast,
		}},
	}
	for _, d := range days {
		if d.Temperature == nil {
			continue
		}
		spec.Labels = append(spec.Labels, d.Date)
		spec.Datasets[0].Values = append(spec.Datasets[0].Values, *d.Temperature)
	}
	return spec
}
