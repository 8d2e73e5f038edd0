package series

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/energydash/energydash/pkg/types"
)

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
}

// ParseDate accepts the date shapes the analytics backend has emitted over
// time: a bare date, RFC3339, a naive timestamp or epoch milliseconds.
// Dates are returned at UTC midnight.
func ParseDate(v any) (time.Time, bool) {
	var t time.Time
	switch d := v.(type) {
	case string:
		s := strings.TrimSpace(d)
		parsed := false
		for _, layout := range dateLayouts {
			if p, err := time.Parse(layout, s); err == nil {
				t, parsed = p, true
				break
			}
		}
		if !parsed {
			return time.Time{}, false
		}
	case json.Number:
		ms, err := d.Int64()
		if err != nil {
			return time.Time{}, false
		}
		t = time.UnixMilli(ms)
	case float64:
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return time.Time{}, false
		}
		t = time.UnixMilli(int64(d))
	case time.Time:
		t = d
	default:
		return time.Time{}, false
	}
	y, m, day := t.UTC().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), true
}

// Number extracts a finite float from a decoded JSON value.
func Number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		p, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case float64:
		f = n
	case int:
		f = float64(n)
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// value is Number with absent or malformed treated as zero; a day with no
// battery activity is reported as null by the backend.
func value(m map[string]any, key string) float64 {
	f, _ := Number(m[key])
	return f
}

// DecodeRows converts decoded backend rows into records. Rows without a
// usable date cannot be placed on a chart and are dropped.
func DecodeRows(items []any) []types.DailyRecord {
	out := make([]types.DailyRecord, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		date, ok := ParseDate(m["date"])
		if !ok {
			continue
		}
		out = append(out, types.DailyRecord{
			Date:             date,
			Generation:       value(m, "generation"),
			GridImport:       value(m, "grid_import"),
			GridExport:       value(m, "grid_export"),
			BatteryCharge:    value(m, "battery_charge"),
			BatteryDischarge: value(m, "battery_discharge"),
		})
	}
	return out
}

// DecodePredictions converts decoded daily_predictions entries.
func DecodePredictions(items []any) []types.DailyPrediction {
	out := make([]types.DailyPrediction, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		date, ok := ParseDate(m["date"])
		if !ok {
			continue
		}
		out = append(out, types.DailyPrediction{Date: date, Generation: value(m, "generation")})
	}
	return out
}

// DecodeWeather converts decoded weather forecast days. A day without a
// temperature keeps a nil Temperature.
func DecodeWeather(items []any) []types.WeatherDay {
	out := make([]types.WeatherDay, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		date, ok := ParseDate(m["date"])
		if !ok {
			continue
		}
		day := types.WeatherDay{Date: date}
		if f, ok := Number(m["temperature"]); ok {
			day.Temperature = &f
		}
		if c, ok := m["conditions"].(string); ok {
			day.Conditions = strings.TrimSpace(c)
		}
		out = append(out, day)
	}
	return out
}
