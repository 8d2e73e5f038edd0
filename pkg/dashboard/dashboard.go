// Package dashboard drives the display: it polls telemetry, loads the
// analytics views and pushes everything through the presenter.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/energydash/energydash/pkg/log"
	"github.com/energydash/energydash/pkg/metrics"
	"github.com/energydash/energydash/pkg/normalize"
	"github.com/energydash/energydash/pkg/poller"
	"github.com/energydash/energydash/pkg/present"
	"github.com/energydash/energydash/pkg/series"
	"github.com/energydash/energydash/pkg/types"
	"golang.org/x/sync/errgroup"
)

// Canvases the dashboard draws on.
const (
	CanvasGeneration       = "generation-chart"
	CanvasGrid             = "grid-chart"
	CanvasFinancial        = "financial-chart"
	CanvasActualGeneration = "actual-generation-chart"
	CanvasPrediction       = "prediction-chart"
	CanvasForecast         = "forecast-chart"
	CanvasPowerMix         = "power-mix-chart"
)

// Job names.
const (
	JobInverter  = "inverter"
	JobDevices   = "devices"
	JobAnalytics = "analytics"
	JobForecast  = "forecast"
)

// ErrInvalidDays is returned when a period or prediction command asks for
// fewer than one day.
var ErrInvalidDays = errors.New("days must be positive")

// Telemetry returns raw vendor envelopes.
type Telemetry interface {
	Fetch(ctx context.Context, kind types.VendorKind) (types.RawSample, error)
}

// Analytics serves the historical and forecast views.
type Analytics interface {
	SolarData(ctx context.Context, days int) (types.TimeSeries, error)
	AnalyticsSummary(ctx context.Context, days int) (types.AnalyticsSummary, error)
	Predictions(ctx context.Context, days int) (types.Predictions, error)
	WeatherForecast(ctx context.Context) (types.WeatherForecast, error)
	DownloadCSV(ctx context.Context, days int, w io.Writer) error
}

// TariffSource supplies the current tariff constants.
type TariffSource interface {
	Tariffs() types.Tariffs
}

// Refresher re-runs every poll job immediately.
type Refresher interface {
	FireAll(ctx context.Context)
}

// Config holds the dashboard's cadences and default views.
type Config struct {
	InverterKind      types.VendorKind
	InverterInterval  time.Duration
	DeviceInterval    time.Duration
	AnalyticsInterval time.Duration
	ForecastInterval  time.Duration
	AnalyticsDays     int
	PredictionDays    int
}

// DefaultConfig returns the cadences the dashboard shipped with.
func DefaultConfig() Config {
	return Config{
		InverterKind:      types.VendorSolaxProxy,
		InverterInterval:  5 * time.Minute,
		DeviceInterval:    10 * time.Second,
		AnalyticsInterval: time.Hour,
		ForecastInterval:  3 * time.Hour,
		AnalyticsDays:     30,
		PredictionDays:    7,
	}
}

// Dashboard owns the polling state. It is safe for concurrent use.
type Dashboard struct {
	cfg       Config
	telemetry Telemetry
	analytics Analytics
	tariffs   TariffSource
	presenter *present.Presenter
	metrics   *metrics.Metrics
	now       func() time.Time

	mu       sync.Mutex
	days     int
	series   types.TimeSeries
	readings map[types.VendorKind]types.Reading
}

// New returns a Dashboard. m may be nil.
func New(cfg Config, telemetry Telemetry, analytics Analytics, tariffs TariffSource, presenter *present.Presenter, m *metrics.Metrics) *Dashboard {
	return &Dashboard{
		cfg:       cfg,
		telemetry: telemetry,
		analytics: analytics,
		tariffs:   tariffs,
		presenter: presenter,
		metrics:   m,
		now:       time.Now,
		days:      cfg.AnalyticsDays,
		readings:  make(map[types.VendorKind]types.Reading),
	}
}

// Jobs returns the poll jobs: inverter and device telemetry on their own
// cadences plus the slower analytics and forecast refreshes.
func (d *Dashboard) Jobs() []poller.Job {
	return []poller.Job{
		{Name: JobInverter, Interval: d.cfg.InverterInterval, Poll: d.PollInverter},
		{Name: JobDevices, Interval: d.cfg.DeviceInterval, Poll: d.PollDevices},
		{Name: JobAnalytics, Interval: d.cfg.AnalyticsInterval, Poll: func(ctx context.Context) error {
			return d.LoadAnalytics(ctx, d.Days())
		}},
		{Name: JobForecast, Interval: d.cfg.ForecastInterval, Poll: func(ctx context.Context) error {
			return errors.Join(d.LoadWeather(ctx), d.LoadPredictions(ctx, d.cfg.PredictionDays))
		}},
	}
}

// Telemetry returns the source the dashboard polls.
func (d *Dashboard) Telemetry() Telemetry {
	return d.telemetry
}

// Days returns the analytics period currently displayed.
func (d *Dashboard) Days() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.days
}

// Series returns the last assembled time series.
func (d *Dashboard) Series() types.TimeSeries {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.series
}

// Reading returns the last reading normalized for kind.
func (d *Dashboard) Reading(kind types.VendorKind) (types.Reading, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.readings[kind]
	return r, ok
}

// PollInverter fetches and displays inverter telemetry.
func (d *Dashboard) PollInverter(ctx context.Context) error {
	return d.poll(ctx, d.cfg.InverterKind)
}

// PollDevices fetches and displays eddi and zappi telemetry.
func (d *Dashboard) PollDevices(ctx context.Context) error {
	return d.poll(ctx, types.VendorMyEnergi)
}

// poll runs one fetch-normalize-apply cycle. A failed fetch puts the Error
// sentinel on every slot of kind and is still returned so it gets counted.
func (d *Dashboard) poll(ctx context.Context, kind types.VendorKind) error {
	ctx = log.WithAttrs(ctx, slog.String("source", string(kind)))

	var reading types.Reading
	raw, fetchErr := d.telemetry.Fetch(ctx, kind)
	if fetchErr != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to fetch telemetry", slog.Any("error", fetchErr))
		reading = normalize.Failed(kind)
	} else {
		reading = normalize.Normalize(raw, kind, d.tariffs.Tariffs())
	}

	written, applyErr := d.presenter.Apply(ctx, reading)
	d.metrics.Reading(reading, written)

	var chartErr error
	if reading.PowerMix != nil {
		chartErr = d.render(ctx, CanvasPowerMix, *reading.PowerMix)
	}

	d.mu.Lock()
	d.readings[kind] = reading
	d.mu.Unlock()

	_, stampErr := d.presenter.ApplySlots(ctx, []types.SlotValue{{
		Slot: SlotLastUpdate,
		Text: "Last updated: " + d.now().Format(time.TimeOnly),
	}})

	log.Ctx(ctx).DebugContext(ctx, "telemetry applied", slog.Int("written", written))
	if fetchErr != nil {
		return fmt.Errorf("failed to fetch %s: %w", kind, fetchErr)
	}
	return errors.Join(applyErr, chartErr, stampErr)
}

func (d *Dashboard) render(ctx context.Context, canvas string, spec types.ChartSpec) error {
	if err := d.presenter.RenderChart(ctx, canvas, spec); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to render chart", slog.String("canvas", canvas), slog.Any("error", err))
		return err
	}
	d.metrics.ChartRendered(canvas)
	return nil
}

// LoadAnalytics loads the summary and series for the last days days and
// redraws the history charts. If either fetch fails the summary slots show
// the Error sentinel, and the charts, Series and Days are left as they were.
func (d *Dashboard) LoadAnalytics(ctx context.Context, days int) error {
	if days < 1 {
		return ErrInvalidDays
	}

	var summary types.AnalyticsSummary
	var ts types.TimeSeries
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = d.analytics.AnalyticsSummary(gctx, days)
		return err
	})
	g.Go(func() error {
		var err error
		ts, err = d.analytics.SolarData(gctx, days)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to load analytics", slog.Int("days", days), slog.Any("error", err))
		_, applyErr := d.presenter.ApplySlots(ctx, sentinelSlots(summarySlots, types.SentinelError))
		return errors.Join(fmt.Errorf("failed to load analytics: %w", err), applyErr)
	}

	// the period only changes together with the series it describes
	d.mu.Lock()
	d.days = days
	d.series = ts
	d.mu.Unlock()

	tariffs := d.tariffs.Tariffs()
	_, applyErr := d.presenter.ApplySlots(ctx, SummarySlots(summary, tariffs.Currency))
	errs := []error{applyErr}
	for _, c := range []struct {
		canvas string
		spec   types.ChartSpec
	}{
		{CanvasGeneration, series.GenerationChart(ts)},
		{CanvasGrid, series.GridChart(ts)},
		{CanvasFinancial, series.FinancialChart(ts, tariffs)},
		{CanvasActualGeneration, series.ActualGenerationChart(ts)},
	} {
		errs = append(errs, d.render(ctx, c.canvas, c.spec))
	}
	return errors.Join(errs...)
}

// LoadPredictions loads the generation forecast for the next days days.
func (d *Dashboard) LoadPredictions(ctx context.Context, days int) error {
	if days < 1 {
		return ErrInvalidDays
	}
	p, err := d.analytics.Predictions(ctx, days)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to load predictions", slog.Int("days", days), slog.Any("error", err))
		_, applyErr := d.presenter.ApplySlots(ctx, sentinelSlots(predictionSlots, types.SentinelError))
		return errors.Join(fmt.Errorf("failed to load predictions: %w", err), applyErr)
	}
	_, applyErr := d.presenter.ApplySlots(ctx, PredictionSlots(p, d.tariffs.Tariffs().Currency))
	return errors.Join(applyErr, d.render(ctx, CanvasPrediction, series.PredictionChart(p.DailyPredictions)))
}

// LoadWeather loads the weather forecast.
func (d *Dashboard) LoadWeather(ctx context.Context) error {
	f, err := d.analytics.WeatherForecast(ctx)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to load weather forecast", slog.Any("error", err))
		_, applyErr := d.presenter.ApplySlots(ctx, sentinelSlots([]types.Slot{SlotWeatherForecast}, types.SentinelError))
		return errors.Join(fmt.Errorf("failed to load weather forecast: %w", err), applyErr)
	}
	_, applyErr := d.presenter.ApplySlots(ctx, []types.SlotValue{{Slot: SlotWeatherForecast, Text: WeatherText(f)}})
	return errors.Join(applyErr, d.render(ctx, CanvasForecast, series.ForecastChart(f.Daily)))
}

// ExportCSV writes the displayed series as CSV.
func (d *Dashboard) ExportCSV(w io.Writer) error {
	return series.WriteCSV(w, d.Series())
}

// DownloadCSV streams the backend's export for the displayed period.
func (d *Dashboard) DownloadCSV(ctx context.Context, w io.Writer) error {
	return d.analytics.DownloadCSV(ctx, d.Days(), w)
}

// Refresh runs every poll once, concurrently, and returns the first error.
func (d *Dashboard) Refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, job := range d.Jobs() {
		g.Go(func() error {
			return job.Poll(gctx)
		})
	}
	return g.Wait()
}

// RegisterCommands subscribes the dashboard's command handlers. When r is
// nil a refresh polls inline instead of going through the poller.
func (d *Dashboard) RegisterCommands(src present.EventSource, r Refresher) {
	src.Subscribe(present.CommandPeriod, func(ctx context.Context, ev present.Event) error {
		return d.LoadAnalytics(ctx, ev.Days)
	})
	src.Subscribe(present.CommandPredict, func(ctx context.Context, ev present.Event) error {
		days := ev.Days
		if days == 0 {
			days = d.cfg.PredictionDays
		}
		return d.LoadPredictions(ctx, days)
	})
	src.Subscribe(present.CommandRefresh, func(ctx context.Context, ev present.Event) error {
		if r == nil {
			return d.Refresh(ctx)
		}
		r.FireAll(ctx)
		return nil
	})
}
