package server

import (
	"context"
	"io"

	"github.com/energydash/energydash/pkg/types"
	"github.com/stretchr/testify/mock"
)

type mockTelemetry struct {
	mock.Mock
}

func (m *mockTelemetry) Fetch(ctx context.Context, kind types.VendorKind) (types.RawSample, error) {
	args := m.Called(ctx, kind)
	if raw := args.Get(0); raw != nil {
		return raw.(types.RawSample), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAnalytics struct {
	mock.Mock
}

func (m *mockAnalytics) SolarData(ctx context.Context, days int) (types.TimeSeries, error) {
	args := m.Called(ctx, days)
	return args.Get(0).(types.TimeSeries), args.Error(1)
}

func (m *mockAnalytics) AnalyticsSummary(ctx context.Context, days int) (types.AnalyticsSummary, error) {
	args := m.Called(ctx, days)
	return args.Get(0).(types.AnalyticsSummary), args.Error(1)
}

func (m *mockAnalytics) Predictions(ctx context.Context, days int) (types.Predictions, error) {
	args := m.Called(ctx, days)
	return args.Get(0).(types.Predictions), args.Error(1)
}

func (m *mockAnalytics) WeatherForecast(ctx context.Context) (types.WeatherForecast, error) {
	args := m.Called(ctx)
	return args.Get(0).(types.WeatherForecast), args.Error(1)
}

func (m *mockAnalytics) DownloadCSV(ctx context.Context, days int, w io.Writer) error {
	args := m.Called(ctx, days, w)
	return args.Error(0)
}
