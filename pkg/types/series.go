package types

import "time"

// DailyRecord is one day of historical energy totals in kWh.
type DailyRecord struct {
	Date             time.Time `json:"date"`
	Generation       float64   `json:"generation"`
	GridImport       float64   `json:"grid_import"`
	GridExport       float64   `json:"grid_export"`
	BatteryCharge    float64   `json:"battery_charge"`
	BatteryDischarge float64   `json:"battery_discharge"`
}

// TimeSeries is a set of DailyRecords ascending by date. A new series always
// replaces the previous one.
type TimeSeries struct {
	Records []DailyRecord `json:"records"`
}

// Len returns the number of records.
func (s TimeSeries) Len() int {
	return len(s.Records)
}

// Dates returns the record dates in order.
func (s TimeSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Date
	}
	return out
}

// Dataset is a single line/bar on a chart.
type Dataset struct {
	Label  string    `json:"label"`
	Color  string    `json:"color"`
	Values []float64 `json:"values"`
}

// ChartSpec is everything needed to (re)build a chart on a canvas. A chart
// has either date Labels (a time series) or Categories (one bar per category
// taken from the first dataset).
type ChartSpec struct {
	Title      string      `json:"title"`
	YLabel     string      `json:"yLabel"`
	Labels     []time.Time `json:"labels,omitempty"`
	Categories []string    `json:"categories,omitempty"`
	Datasets   []Dataset   `json:"datasets"`
}
