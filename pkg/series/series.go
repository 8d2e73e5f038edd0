// Package series assembles daily energy records into chart and CSV form.
package series

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/energydash/energydash/pkg/types"
)

// DateLayout is the date format used in CSV exports.
const DateLayout = time.DateOnly

// Header is the CSV column order. Downstream consumers parse positionally so
// it must not change.
var Header = []string{
	"Date",
	"Generation (kWh)",
	"Grid Import (kWh)",
	"Grid Export (kWh)",
	"Battery Charge (kWh)",
	"Battery Discharge (kWh)",
}

// Assemble returns rows sorted by date ascending. Rows sharing a date keep
// their relative order. The input slice is not modified.
func Assemble(rows []types.DailyRecord) types.TimeSeries {
	records := slices.Clone(rows)
	slices.SortStableFunc(records, func(a, b types.DailyRecord) int {
		return a.Date.Compare(b.Date)
	})
	return types.TimeSeries{Records: records}
}

// formatValue writes the shortest representation that parses back to v.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes the header and one line per record.
func WriteCSV(w io.Writer, s types.TimeSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range s.Records {
		row := []string{
			r.Date.Format(DateLayout),
			formatValue(r.Generation),
			formatValue(r.GridImport),
			formatValue(r.GridExport),
			formatValue(r.BatteryCharge),
			formatValue(r.BatteryDischarge),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ToCSV renders the series as CSV text.
func ToCSV(s types.TimeSeries) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseCSV reads a CSV produced by ToCSV. Columns are read by position and the
// header must match exactly.
func ParseCSV(b []byte) (types.TimeSeries, error) {
	cr := csv.NewReader(bytes.NewReader(b))
	cr.FieldsPerRecord = len(Header)
	lines, err := cr.ReadAll()
	if err != nil {
		return types.TimeSeries{}, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(lines) == 0 {
		return types.TimeSeries{}, fmt.Errorf("csv is missing the header")
	}
	if !slices.Equal(lines[0], Header) {
		return types.TimeSeries{}, fmt.Errorf("unexpected csv header: %v", lines[0])
	}

	records := make([]types.DailyRecord, 0, len(lines)-1)
	for i, line := range lines[1:] {
		date, err := time.Parse(DateLayout, line[0])
		if err != nil {
			return types.TimeSeries{}, fmt.Errorf("line %d: invalid date %q: %w", i+2, line[0], err)
		}
		var vals [5]float64
		for j := range vals {
			v, err := strconv.ParseFloat(line[j+1], 64)
			if err != nil {
				return types.TimeSeries{}, fmt.Errorf("line %d: invalid %s %q: %w", i+2, Header[j+1], line[j+1], err)
			}
			vals[j] = v
		}
		records = append(records, types.DailyRecord{
			Date:             date,
			Generation:       vals[0],
			GridImport:       vals[1],
			GridExport:       vals[2],
			BatteryCharge:    vals[3],
			BatteryDischarge: vals[4],
		})
	}
	return types.TimeSeries{Records: records}, nil
}
