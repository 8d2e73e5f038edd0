package dashboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/energydash/energydash/pkg/common"
	"github.com/energydash/energydash/pkg/log"
	"github.com/energydash/energydash/pkg/metrics"
	"github.com/energydash/energydash/pkg/normalize"
	"github.com/energydash/energydash/pkg/present"
	"github.com/energydash/energydash/pkg/tariff"
	"github.com/energydash/energydash/pkg/types"
	"github.com/energydash/energydash/pkg/vendor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}

const solaxSample = `{
	"success": true,
	"exception": "Query success!",
	"result": {
		"acpower": 1800,
		"yieldtoday": 10,
		"yieldtotal": 12345.6,
		"feedinpower": 500,
		"feedinenergy": 1234.5,
		"consumeenergy": 321,
		"soc": 87,
		"inverterStatus": "102",
		"uploadTime": "2024-05-01 12:34:56",
		"batPower": -1500,
		"powerdc1": 1200,
		"powerdc2": 800,
		"batStatus": 4
	}
}`

const myEnergiSample = `{
	"success": true,
	"eddi": {"charge_rate": 1500, "green_amount_today": 4.2, "grid_power": -500, "status": 99, "time": "12:00:01"}
}`

func sample(t *testing.T, body string) types.RawSample {
	var raw types.RawSample
	require.NoError(t, common.DecodeJSON(strings.NewReader(body), &raw))
	return raw
}

type fixture struct {
	dash      *Dashboard
	sink      *present.MemorySink
	telemetry *mockTelemetry
	analytics *mockAnalytics
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		sink:      present.NewMemorySink(),
		telemetry: &mockTelemetry{},
		analytics: &mockAnalytics{},
		metrics:   metrics.New(),
	}
	f.dash = New(DefaultConfig(), f.telemetry, f.analytics, tariff.New(types.DefaultTariffs()), present.New(f.sink), f.metrics)
	f.dash.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC) }
	return f
}

func (f *fixture) text(slot types.Slot) string {
	return f.sink.Slots()[slot].Text
}

func (f *fixture) scrape(t *testing.T) string {
	rec := httptest.NewRecorder()
	f.metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	return rec.Body.String()
}

func ptr(f float64) *float64 {
	return &f
}

func TestPollInverter(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		f.telemetry.On("Fetch", mock.Anything, types.VendorSolaxProxy).Return(sample(t, solaxSample), nil).Once()

		require.NoError(t, f.dash.PollInverter(context.Background()))
		assert.Equal(t, "€3.90", f.text(normalize.SlotMoneySavedToday))
		assert.Equal(t, "2.00KW", f.text(normalize.SlotSolarPower))
		assert.Equal(t, "Exporting", f.text(normalize.SlotGridDirection))
		assert.Equal(t, "Last updated: 09:30:15", f.text(SlotLastUpdate))
		assert.Equal(t, 1, f.sink.LiveCharts(CanvasPowerMix))

		r, ok := f.dash.Reading(types.VendorSolaxProxy)
		require.True(t, ok)
		assert.True(t, r.Grid.Exporting)

		body := f.scrape(t)
		assert.Contains(t, body, `energydash_chart_renders_total{canvas="power-mix-chart"} 1`)
		assert.Contains(t, body, `energydash_slot_writes_total{source="solax-proxy"} 18`)
		f.telemetry.AssertExpectations(t)
	})

	t.Run("DataEnvelope", func(t *testing.T) {
		f := newFixture(t)
		f.dash.cfg.InverterKind = types.VendorSolaxData
		f.telemetry.On("Fetch", mock.Anything, types.VendorSolaxData).
			Return(sample(t, `{"success": true, "data": {"yieldtoday": "10"}}`), nil).Once()

		require.NoError(t, f.dash.PollInverter(context.Background()))
		assert.Equal(t, "€3.90", f.text(normalize.SlotMoneySavedToday))
		assert.Equal(t, types.SentinelUnavailable, f.text(normalize.SlotSolarPower))
	})

	t.Run("TransportFailure", func(t *testing.T) {
		f := newFixture(t)
		f.telemetry.On("Fetch", mock.Anything, types.VendorSolaxProxy).Return(nil, errors.New("connection refused")).Once()

		err := f.dash.PollInverter(context.Background())
		assert.ErrorContains(t, err, "connection refused")
		for _, slot := range normalize.Slots(types.VendorSolaxProxy) {
			assert.Equal(t, types.SentinelError, f.text(slot), "slot %s", slot)
		}
		assert.Zero(t, f.sink.LiveCharts(CanvasPowerMix))
		assert.Contains(t, f.scrape(t), `energydash_sentinel_slots{sentinel="Error",source="solax-proxy"} 18`)
	})

	t.Run("RecoversAfterFailure", func(t *testing.T) {
		f := newFixture(t)
		f.telemetry.On("Fetch", mock.Anything, types.VendorSolaxProxy).Return(nil, errors.New("timeout")).Once()
		f.telemetry.On("Fetch", mock.Anything, types.VendorSolaxProxy).Return(sample(t, solaxSample), nil).Once()

		assert.Error(t, f.dash.PollInverter(context.Background()))
		require.NoError(t, f.dash.PollInverter(context.Background()))
		assert.Equal(t, "10.00kWh", f.text(normalize.SlotYieldToday))
	})

	t.Run("RepeatedPollsKeepOneChart", func(t *testing.T) {
		f := newFixture(t)
		f.telemetry.On("Fetch", mock.Anything, types.VendorSolaxProxy).Return(sample(t, solaxSample), nil).Times(3)

		for range 3 {
			require.NoError(t, f.dash.PollInverter(context.Background()))
		}
		assert.Equal(t, 1, f.sink.LiveCharts(CanvasPowerMix))
		assert.Equal(t, 2, f.sink.DestroyedCharts())
	})
}

func TestPollDevices(t *testing.T) {
	f := newFixture(t)
	f.telemetry.On("Fetch", mock.Anything, types.VendorMyEnergi).Return(sample(t, myEnergiSample), nil).Once()

	require.NoError(t, f.dash.PollDevices(context.Background()))
	assert.Equal(t, "1.50KW", f.text(normalize.SlotEddiChargeRate))
	assert.Equal(t, "Unknown (99)", f.text(normalize.SlotEddiStatus))
	assert.Equal(t, types.SentinelUnavailable, f.text(normalize.SlotZappiMode))
	assert.Equal(t, "Exporting", f.text(normalize.SlotMyEnergiGridDirection))
}

func TestGridDirectionPerSource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.telemetry.On("Fetch", mock.Anything, types.VendorSolaxProxy).Return(sample(t, solaxSample), nil).Once()
	require.NoError(t, f.dash.PollInverter(ctx))
	require.Equal(t, "Exporting", f.text(normalize.SlotGridDirection))

	t.Run("DevicesWithoutGridPower", func(t *testing.T) {
		f.telemetry.On("Fetch", mock.Anything, types.VendorMyEnergi).Return(sample(t, `{"success": true, "eddi": {"status": 3}}`), nil).Once()
		require.NoError(t, f.dash.PollDevices(ctx))
		assert.Equal(t, types.SentinelUnavailable, f.text(normalize.SlotMyEnergiGridDirection))
		assert.Equal(t, "Exporting", f.text(normalize.SlotGridDirection))
	})

	t.Run("DevicesImporting", func(t *testing.T) {
		f.telemetry.On("Fetch", mock.Anything, types.VendorMyEnergi).Return(sample(t, `{"success": true, "eddi": {"grid_power": 700}}`), nil).Once()
		require.NoError(t, f.dash.PollDevices(ctx))
		assert.Equal(t, "Importing", f.text(normalize.SlotMyEnergiGridDirection))
		assert.Equal(t, "Exporting", f.text(normalize.SlotGridDirection))
	})

	t.Run("DevicesFailing", func(t *testing.T) {
		f.telemetry.On("Fetch", mock.Anything, types.VendorMyEnergi).Return(nil, errors.New("timeout")).Once()
		assert.Error(t, f.dash.PollDevices(ctx))
		assert.Equal(t, types.SentinelError, f.text(normalize.SlotMyEnergiGridDirection))
		assert.Equal(t, "Exporting", f.text(normalize.SlotGridDirection))
	})
}

func testSeries() types.TimeSeries {
	return types.TimeSeries{Records: []types.DailyRecord{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Generation: 10.25, GridImport: 1, GridExport: 4},
		{Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Generation: 8.5, GridImport: 2.5, GridExport: 3},
	}}
}

func TestLoadAnalytics(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		f.analytics.On("AnalyticsSummary", mock.Anything, 7).Return(types.AnalyticsSummary{
			TotalGeneration: ptr(412.5),
			AvgDaily:        ptr(13.75),
			TotalSavings:    ptr(98.1),
		}, nil).Once()
		f.analytics.On("SolarData", mock.Anything, 7).Return(testSeries(), nil).Once()

		require.NoError(t, f.dash.LoadAnalytics(context.Background(), 7))
		assert.Equal(t, "412.5 kWh", f.text(SlotTotalGeneration))
		assert.Equal(t, "13.75 kWh", f.text(SlotAvgDaily))
		assert.Equal(t, "€98.10", f.text(SlotTotalSavings))
		assert.Equal(t, types.SentinelUnavailable, f.text(SlotGreenPercentage))
		for _, canvas := range []string{CanvasGeneration, CanvasGrid, CanvasFinancial, CanvasActualGeneration} {
			assert.Equal(t, 1, f.sink.LiveCharts(canvas), canvas)
		}
		assert.Equal(t, 7, f.dash.Days())
		assert.Equal(t, 2, f.dash.Series().Len())

		chart, ok := f.sink.Chart(CanvasFinancial)
		require.True(t, ok)
		assert.Equal(t, []float64{0.6, 0.45}, chart.Spec.Datasets[0].Values)
	})

	t.Run("Failure", func(t *testing.T) {
		f := newFixture(t)
		f.analytics.On("AnalyticsSummary", mock.Anything, 30).Return(types.AnalyticsSummary{}, errors.New("status 500")).Once()
		f.analytics.On("SolarData", mock.Anything, 30).Return(types.TimeSeries{}, nil).Maybe()

		err := f.dash.LoadAnalytics(context.Background(), 30)
		assert.ErrorContains(t, err, "status 500")
		for _, slot := range summarySlots {
			assert.Equal(t, types.SentinelError, f.text(slot))
		}
		assert.Zero(t, f.sink.LiveCharts(CanvasGeneration))
	})

	t.Run("FailureKeepsPeriod", func(t *testing.T) {
		f := newFixture(t)
		f.analytics.On("AnalyticsSummary", mock.Anything, 7).Return(types.AnalyticsSummary{}, nil).Once()
		f.analytics.On("SolarData", mock.Anything, 7).Return(testSeries(), nil).Once()
		require.NoError(t, f.dash.LoadAnalytics(context.Background(), 7))

		f.analytics.On("AnalyticsSummary", mock.Anything, 90).Return(types.AnalyticsSummary{}, nil).Maybe()
		f.analytics.On("SolarData", mock.Anything, 90).Return(types.TimeSeries{}, errors.New("status 502")).Once()
		assert.Error(t, f.dash.LoadAnalytics(context.Background(), 90))

		assert.Equal(t, 7, f.dash.Days(), "period stays with the series on display")
		assert.Equal(t, 2, f.dash.Series().Len())

		var buf bytes.Buffer
		require.NoError(t, f.dash.ExportCSV(&buf))
		assert.Contains(t, buf.String(), "2024-03-02")
	})

	t.Run("InvalidDays", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.dash.LoadAnalytics(context.Background(), 0), ErrInvalidDays)
		f.analytics.AssertNotCalled(t, "SolarData", mock.Anything, mock.Anything)
	})
}

func TestLoadPredictions(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		f.analytics.On("Predictions", mock.Anything, 5).Return(types.Predictions{
			TotalGeneration: ptr(55.25),
			TotalSavings:    ptr(21.5),
			ConfidenceLevel: ptr(82),
			DailyPredictions: []types.DailyPrediction{
				{Date: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Generation: 12},
				{Date: time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), Generation: 11},
			},
		}, nil).Once()

		require.NoError(t, f.dash.LoadPredictions(context.Background(), 5))
		assert.Equal(t, "55.3 kWh", f.text(SlotExpectedGeneration))
		assert.Equal(t, "€21.50", f.text(SlotPotentialSavings))
		assert.Equal(t, "82%", f.text(SlotConfidenceLevel))

		chart, ok := f.sink.Chart(CanvasPrediction)
		require.True(t, ok)
		assert.Equal(t, []float64{11, 12}, chart.Spec.Datasets[0].Values)
	})

	t.Run("Failure", func(t *testing.T) {
		f := newFixture(t)
		f.analytics.On("Predictions", mock.Anything, 5).Return(types.Predictions{}, errors.New("down")).Once()

		assert.Error(t, f.dash.LoadPredictions(context.Background(), 5))
		for _, slot := range predictionSlots {
			assert.Equal(t, types.SentinelError, f.text(slot))
		}
	})
}

func TestLoadWeather(t *testing.T) {
	f := newFixture(t)
	f.analytics.On("WeatherForecast", mock.Anything).Return(types.WeatherForecast{Daily: []types.WeatherDay{
		{Date: time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), Temperature: ptr(14.5), Conditions: "Sunny"},
		{Date: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Conditions: "Rain"},
	}}, nil).Once()

	require.NoError(t, f.dash.LoadWeather(context.Background()))
	assert.Equal(t, "2024-03-03 14.5°C Sunny\n2024-03-04 N/A Rain", f.text(SlotWeatherForecast))
	assert.Equal(t, 1, f.sink.LiveCharts(CanvasForecast))
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)
	f.analytics.On("AnalyticsSummary", mock.Anything, 30).Return(types.AnalyticsSummary{}, nil).Once()
	f.analytics.On("SolarData", mock.Anything, 30).Return(testSeries(), nil).Once()
	require.NoError(t, f.dash.LoadAnalytics(context.Background(), 30))

	var buf bytes.Buffer
	require.NoError(t, f.dash.ExportCSV(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Generation (kWh),Grid Import (kWh),Grid Export (kWh),Battery Charge (kWh),Battery Discharge (kWh)", lines[0])
	assert.Equal(t, "2024-03-01,10.25,1,4,0,0", lines[1])

	t.Run("Remote", func(t *testing.T) {
		f.analytics.On("DownloadCSV", mock.Anything, 30, mock.Anything).Run(func(args mock.Arguments) {
			io.WriteString(args.Get(2).(io.Writer), "remote")
		}).Return(nil).Once()

		var buf bytes.Buffer
		require.NoError(t, f.dash.DownloadCSV(context.Background(), &buf))
		assert.Equal(t, "remote", buf.String())
	})
}

func TestRegisterCommands(t *testing.T) {
	t.Run("Period", func(t *testing.T) {
		f := newFixture(t)
		d := present.NewDispatcher()
		f.dash.RegisterCommands(d, nil)
		assert.Equal(t, []present.Command{present.CommandPeriod, present.CommandPredict, present.CommandRefresh}, d.Commands())

		f.analytics.On("AnalyticsSummary", mock.Anything, 90).Return(types.AnalyticsSummary{}, nil).Once()
		f.analytics.On("SolarData", mock.Anything, 90).Return(testSeries(), nil).Once()
		require.NoError(t, d.Dispatch(context.Background(), present.Event{Command: present.CommandPeriod, Days: 90}))
		assert.Equal(t, 90, f.dash.Days())

		assert.ErrorIs(t, d.Dispatch(context.Background(), present.Event{Command: present.CommandPeriod}), ErrInvalidDays)
	})

	t.Run("PredictDefaultsDays", func(t *testing.T) {
		f := newFixture(t)
		d := present.NewDispatcher()
		f.dash.RegisterCommands(d, nil)

		f.analytics.On("Predictions", mock.Anything, 7).Return(types.Predictions{}, nil).Once()
		require.NoError(t, d.Dispatch(context.Background(), present.Event{Command: present.CommandPredict}))
		f.analytics.AssertExpectations(t)
	})

	t.Run("RefreshThroughPoller", func(t *testing.T) {
		f := newFixture(t)
		d := present.NewDispatcher()
		r := &mockRefresher{}
		r.On("FireAll", mock.Anything).Once()
		f.dash.RegisterCommands(d, r)

		require.NoError(t, d.Dispatch(context.Background(), present.Event{Command: present.CommandRefresh}))
		r.AssertExpectations(t)
	})
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	f.telemetry.On("Fetch", mock.Anything, types.VendorSolaxProxy).Return(sample(t, solaxSample), nil).Once()
	f.telemetry.On("Fetch", mock.Anything, types.VendorMyEnergi).Return(sample(t, myEnergiSample), nil).Once()
	f.analytics.On("AnalyticsSummary", mock.Anything, 30).Return(types.AnalyticsSummary{}, nil).Once()
	f.analytics.On("SolarData", mock.Anything, 30).Return(testSeries(), nil).Once()
	f.analytics.On("WeatherForecast", mock.Anything).Return(types.WeatherForecast{}, nil).Once()
	f.analytics.On("Predictions", mock.Anything, 7).Return(types.Predictions{}, nil).Once()

	require.NoError(t, f.dash.Refresh(context.Background()))
	f.telemetry.AssertExpectations(t)
	f.analytics.AssertExpectations(t)
}

func TestJobs(t *testing.T) {
	f := newFixture(t)
	jobs := f.dash.Jobs()
	require.Len(t, jobs, 4)
	assert.Equal(t, JobInverter, jobs[0].Name)
	assert.Equal(t, 5*time.Minute, jobs[0].Interval)
	assert.Equal(t, JobDevices, jobs[1].Name)
	assert.Equal(t, 10*time.Second, jobs[1].Interval)
}

type staticTelemetry struct {
	raw types.RawSample
	err error
}

func (s staticTelemetry) Fetch(ctx context.Context, kind types.VendorKind) (types.RawSample, error) {
	return s.raw, s.err
}

func TestChain(t *testing.T) {
	remote := staticTelemetry{raw: types.RawSample{"from": "backend"}}

	t.Run("FallsThroughUnconfigured", func(t *testing.T) {
		c := chain{&vendor.Direct{}, remote}
		raw, err := c.Fetch(context.Background(), types.VendorMyEnergi)
		require.NoError(t, err)
		assert.Equal(t, "backend", raw["from"])
	})

	t.Run("StopsOnRealError", func(t *testing.T) {
		c := chain{staticTelemetry{err: errors.New("401")}, remote}
		_, err := c.Fetch(context.Background(), types.VendorMyEnergi)
		assert.EqualError(t, err, "401")
	})

	t.Run("NothingConfigured", func(t *testing.T) {
		_, err := chain{}.Fetch(context.Background(), types.VendorSolaxProxy)
		assert.ErrorIs(t, err, vendor.ErrNotConfigured)
	})
}

func TestSummarySlots(t *testing.T) {
	got := SummarySlots(types.AnalyticsSummary{GreenPercentage: ptr(64.2)}, "£")
	assert.Equal(t, []types.SlotValue{
		{Slot: SlotTotalGeneration, Text: "N/A"},
		{Slot: SlotAvgDaily, Text: "N/A"},
		{Slot: SlotTotalSavings, Text: "N/A"},
		{Slot: SlotGreenPercentage, Text: "64.2%"},
	}, got)
}
