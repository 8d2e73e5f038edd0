package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/energydash/energydash/pkg/backend"
	"github.com/energydash/energydash/pkg/metrics"
	"github.com/energydash/energydash/pkg/present"
	"github.com/energydash/energydash/pkg/tariff"
	"github.com/energydash/energydash/pkg/types"
	"github.com/energydash/energydash/pkg/vendor"
	"github.com/levenlabs/go-lflag"
)

// chain asks each source in turn, moving on only when a source has no
// credentials for the requested vendor.
type chain []Telemetry

func (c chain) Fetch(ctx context.Context, kind types.VendorKind) (types.RawSample, error) {
	err := fmt.Errorf("%s: %w", kind, vendor.ErrNotConfigured)
	for _, src := range c {
		var raw types.RawSample
		raw, err = src.Fetch(ctx, kind)
		if errors.Is(err, vendor.ErrNotConfigured) {
			continue
		}
		return raw, err
	}
	return nil, err
}

// Configured registers the dashboard flags and returns a Dashboard that reads
// telemetry from the vendor clouds where credentials were given and from the
// backend otherwise.
func Configured(direct *vendor.Direct, remote *backend.Client, tariffs *tariff.Source, presenter *present.Presenter, m *metrics.Metrics) *Dashboard {
	d := New(DefaultConfig(), nil, remote, tariffs, presenter, m)
	def := d.cfg

	envelope := lflag.String("inverter-envelope", "proxy", "inverter envelope to poll from the backend (proxy or data)")
	inverterInterval := lflag.Duration("inverter-poll-interval", def.InverterInterval, "how often to poll inverter telemetry")
	deviceInterval := lflag.Duration("device-poll-interval", def.DeviceInterval, "how often to poll eddi and zappi telemetry")
	analyticsInterval := lflag.Duration("analytics-poll-interval", def.AnalyticsInterval, "how often to reload the analytics summary and charts")
	forecastInterval := lflag.Duration("forecast-poll-interval", def.ForecastInterval, "how often to reload predictions and the weather forecast")
	analyticsDays := def.AnalyticsDays
	lflag.JSON(&analyticsDays, "analytics-days", analyticsDays, "default analytics period in days")
	predictionDays := def.PredictionDays
	lflag.JSON(&predictionDays, "prediction-days", predictionDays, "default prediction horizon in days")

	lflag.Do(func() {
		switch *envelope {
		case "proxy":
			d.cfg.InverterKind = types.VendorSolaxProxy
		case "data":
			d.cfg.InverterKind = types.VendorSolaxData
		default:
			panic(fmt.Errorf("invalid inverter-envelope: %s", *envelope))
		}
		if analyticsDays < 1 || predictionDays < 1 {
			panic(ErrInvalidDays)
		}
		d.cfg.InverterInterval = *inverterInterval
		d.cfg.DeviceInterval = *deviceInterval
		d.cfg.AnalyticsInterval = *analyticsInterval
		d.cfg.ForecastInterval = *forecastInterval
		d.cfg.AnalyticsDays = analyticsDays
		d.cfg.PredictionDays = predictionDays
		d.days = analyticsDays

		if direct.Enabled() {
			d.telemetry = chain{direct, remote}
		} else {
			d.telemetry = remote
		}
	})
	return d
}
