package series

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeArray(t *testing.T, s string) []any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var out []any
	require.NoError(t, dec.Decode(&out))
	return out
}

func TestParseDate(t *testing.T) {
	want := day("2024-05-01")
	for name, in := range map[string]any{
		"date only":   "2024-05-01",
		"rfc3339":     "2024-05-01T10:00:00Z",
		"naive":       "2024-05-01T10:00:00",
		"space":       "2024-05-01 23:59:59",
		"epoch ms":    json.Number("1714557600000"),
		"epoch float": float64(1714557600000),
		"time":        time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC),
	} {
		t.Run(name, func(t *testing.T) {
			got, ok := ParseDate(in)
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}

	for name, in := range map[string]any{
		"garbage": "yesterday",
		"nil":     nil,
		"nan":     math.NaN(),
		"decimal": json.Number("1.5e400"),
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := ParseDate(in)
			assert.False(t, ok)
		})
	}
}

func TestDecodeRows(t *testing.T) {
	items := decodeArray(t, `[
		{"date": "2024-05-02", "generation": 15, "grid_import": "1.5", "grid_export": 9.75, "battery_charge": null},
		{"generation": 99},
		"not an object",
		{"date": "2024-05-01", "generation": 10.5, "grid_import": 2, "grid_export": 1, "battery_charge": 3, "battery_discharge": "abc"}
	]`)

	rows := DecodeRows(items)
	require.Len(t, rows, 2, "undated and non-object rows are dropped")
	assert.Equal(t, day("2024-05-02"), rows[0].Date)
	assert.Equal(t, 1.5, rows[0].GridImport)
	assert.Equal(t, 0.0, rows[0].BatteryCharge)
	assert.Equal(t, 10.5, rows[1].Generation)
	assert.Equal(t, 0.0, rows[1].BatteryDischarge)
}

func TestDecodePredictionsAndWeather(t *testing.T) {
	preds := DecodePredictions(decodeArray(t, `[{"date": "2024-06-02", "generation": 14.2}, {"generation": 3}]`))
	require.Len(t, preds, 1)
	assert.Equal(t, 14.2, preds[0].Generation)

	days := DecodeWeather(decodeArray(t, `[
		{"date": "2024-06-01", "temperature": 18.5, "conditions": " Sunny "},
		{"date": "2024-06-02", "temperature": null, "conditions": "Rain"}
	]`))
	require.Len(t, days, 2)
	require.NotNil(t, days[0].Temperature)
	assert.Equal(t, 18.5, *days[0].Temperature)
	assert.Equal(t, "Sunny", days[0].Conditions)
	assert.Nil(t, days[1].Temperature)
}

func TestNumber(t *testing.T) {
	f, ok := Number(json.Number("2.5"))
	assert.True(t, ok)
	assert.Equal(t, 2.5, f)

	_, ok = Number("NaN")
	assert.False(t, ok)
	_, ok = Number(true)
	assert.False(t, ok)
}
