package dashboard

import (
	"strconv"
	"strings"

	"github.com/energydash/energydash/pkg/series"
	"github.com/energydash/energydash/pkg/types"
	"github.com/shopspring/decimal"
)

const (
	SlotTotalGeneration    types.Slot = "total-generation"
	SlotAvgDaily           types.Slot = "avg-daily"
	SlotTotalSavings       types.Slot = "total-savings"
	SlotGreenPercentage    types.Slot = "green-percentage"
	SlotExpectedGeneration types.Slot = "expected-generation"
	SlotPotentialSavings   types.Slot = "potential-savings"
	SlotConfidenceLevel    types.Slot = "confidence-level"
	SlotWeatherForecast    types.Slot = "weather-forecast"
	SlotLastUpdate         types.Slot = "last-update"
)

var summarySlots = []types.Slot{
	SlotTotalGeneration,
	SlotAvgDaily,
	SlotTotalSavings,
	SlotGreenPercentage,
}

var predictionSlots = []types.Slot{
	SlotExpectedGeneration,
	SlotPotentialSavings,
	SlotConfidenceLevel,
}

func sentinelSlots(slots []types.Slot, sentinel string) []types.SlotValue {
	out := make([]types.SlotValue, len(slots))
	for i, s := range slots {
		out[i] = types.SlotValue{Slot: s, Text: sentinel}
	}
	return out
}

// plain formats v in its shortest form, the way the backend reported it.
func plain(v *float64, suffix string) string {
	if v == nil {
		return types.SentinelUnavailable
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + suffix
}

func fixed(v *float64, places int32, prefix, suffix string) string {
	if v == nil {
		return types.SentinelUnavailable
	}
	return prefix + decimal.NewFromFloat(*v).StringFixed(places) + suffix
}

// SummarySlots formats the analytics summary. Missing figures show N/A.
func SummarySlots(s types.AnalyticsSummary, currency string) []types.SlotValue {
	return []types.SlotValue{
		{Slot: SlotTotalGeneration, Text: plain(s.TotalGeneration, " kWh")},
		{Slot: SlotAvgDaily, Text: plain(s.AvgDaily, " kWh")},
		{Slot: SlotTotalSavings, Text: fixed(s.TotalSavings, 2, currency, "")},
		{Slot: SlotGreenPercentage, Text: plain(s.GreenPercentage, "%")},
	}
}

// PredictionSlots formats the prediction totals. Missing figures show N/A.
func PredictionSlots(p types.Predictions, currency string) []types.SlotValue {
	return []types.SlotValue{
		{Slot: SlotExpectedGeneration, Text: fixed(p.TotalGeneration, 1, "", " kWh")},
		{Slot: SlotPotentialSavings, Text: fixed(p.TotalSavings, 2, currency, "")},
		{Slot: SlotConfidenceLevel, Text: plain(p.ConfidenceLevel, "%")},
	}
}

// WeatherText renders the forecast as one line per day.
func WeatherText(f types.WeatherForecast) string {
	if len(f.Daily) == 0 {
		return types.SentinelUnavailable
	}
	lines := make([]string, len(f.Daily))
	for i, day := range f.Daily {
		conditions := day.Conditions
		if conditions == "" {
			conditions = types.SentinelUnavailable
		}
		lines[i] = day.Date.Format(series.DateLayout) + " " + plain(day.Temperature, "°C") + " " + conditions
	}
	return strings.Join(lines, "\n")
}
