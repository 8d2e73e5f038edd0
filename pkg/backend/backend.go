// Package backend is the client for the local analytics backend and its
// vendor telemetry proxies.
package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/energydash/energydash/pkg/common"
	"github.com/energydash/energydash/pkg/log"
	"github.com/energydash/energydash/pkg/series"
	"github.com/energydash/energydash/pkg/types"
	"github.com/levenlabs/go-lflag"
)

// Endpoints consumed from the backend.
const (
	PathSolaxProxy       = "/api/solax-proxy"
	PathSolaxData        = "/api/solax/data"
	PathMyEnergi         = "/api/myenergi/data"
	PathSolarData        = "/api/solar-data"
	PathAnalyticsSummary = "/api/analytics/summary"
	PathPredictions      = "/api/predictions"
	PathWeatherForecast  = "/api/weather-forecast"
	PathDownload         = "/api/solax-data/download"
)

// APIError is returned when the backend answers 2xx but reports failure in
// its envelope.
type APIError struct {
	Endpoint string
	Message  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend reported failure", e.Endpoint)
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}

// Client talks to the backend over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// New returns a Client for baseURL.
func New(baseURL string, client *http.Client) *Client {
	return &Client{baseURL: baseURL, client: client}
}

// Configured registers the backend flags and returns the Client.
func Configured() *Client {
	c := &Client{}
	baseURL := lflag.String("backend-url", "http://localhost:5000", "Base URL of the analytics backend")
	timeout := lflag.Duration("backend-timeout", 30*time.Second, "Timeout for requests to the analytics backend")

	lflag.Do(func() {
		if _, err := url.Parse(*baseURL); err != nil {
			panic(fmt.Errorf("failed to parse backend-url (%s): %w", *baseURL, err))
		}
		c.baseURL = *baseURL
		c.client = common.HTTPClient(*timeout)
	})
	return c
}

func (c *Client) newGetRequest(ctx context.Context, endpoint string, params url.Values) (*http.Request, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	u.Path, err = url.JoinPath(u.Path, endpoint)
	if err != nil {
		return nil, err
	}

	u.RawQuery = params.Encode()
	return http.NewRequestWithContext(ctx, "GET", u.String(), nil)
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*http.Response, error) {
	req, err := c.newGetRequest(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).DebugContext(ctx, "backend request", slog.String("url", req.URL.String()))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if err := common.CheckResponse(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, dest any) error {
	resp, err := c.get(ctx, endpoint, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := common.DecodeJSON(resp.Body, dest); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to decode backend response", slog.String("endpoint", endpoint), slog.Any("error", err))
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	return nil
}

func daysParam(days int) url.Values {
	return url.Values{"days": []string{strconv.Itoa(days)}}
}

// Fetch returns the raw telemetry envelope for kind.
func (c *Client) Fetch(ctx context.Context, kind types.VendorKind) (types.RawSample, error) {
	var endpoint string
	switch kind {
	case types.VendorSolaxProxy:
		endpoint = PathSolaxProxy
	case types.VendorSolaxData:
		endpoint = PathSolaxData
	case types.VendorMyEnergi:
		endpoint = PathMyEnergi
	default:
		return nil, fmt.Errorf("unknown vendor kind: %s", kind)
	}
	var raw types.RawSample
	if err := c.getJSON(ctx, endpoint, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// failure extracts the envelope's error message when success is not true.
func failure(endpoint string, raw map[string]any) error {
	if ok, _ := raw["success"].(bool); ok {
		return nil
	}
	msg, _ := raw["error"].(string)
	return &APIError{Endpoint: endpoint, Message: msg}
}

// SolarData returns the daily records for the last days days, sorted.
func (c *Client) SolarData(ctx context.Context, days int) (types.TimeSeries, error) {
	var raw map[string]any
	if err := c.getJSON(ctx, PathSolarData, daysParam(days), &raw); err != nil {
		return types.TimeSeries{}, err
	}
	if err := failure(PathSolarData, raw); err != nil {
		return types.TimeSeries{}, err
	}
	items, ok := raw["data"].([]any)
	if !ok {
		return types.TimeSeries{}, &APIError{Endpoint: PathSolarData, Message: "invalid data format"}
	}
	return series.Assemble(series.DecodeRows(items)), nil
}

func optional(raw map[string]any, key string) *float64 {
	if f, ok := series.Number(raw[key]); ok {
		return &f
	}
	return nil
}

// AnalyticsSummary returns the aggregate figures for the last days days.
func (c *Client) AnalyticsSummary(ctx context.Context, days int) (types.AnalyticsSummary, error) {
	var raw map[string]any
	if err := c.getJSON(ctx, PathAnalyticsSummary, daysParam(days), &raw); err != nil {
		return types.AnalyticsSummary{}, err
	}
	if err := failure(PathAnalyticsSummary, raw); err != nil {
		return types.AnalyticsSummary{}, err
	}
	return types.AnalyticsSummary{
		TotalGeneration: optional(raw, "total_generation"),
		AvgDaily:        optional(raw, "avg_daily"),
		TotalSavings:    optional(raw, "total_savings"),
		GreenPercentage: optional(raw, "green_percentage"),
	}, nil
}

// Predictions returns the generation forecast for the next days days.
func (c *Client) Predictions(ctx context.Context, days int) (types.Predictions, error) {
	var raw map[string]any
	if err := c.getJSON(ctx, PathPredictions, daysParam(days), &raw); err != nil {
		return types.Predictions{}, err
	}
	// predictions carry no success flag unless they failed
	if _, ok := raw["success"]; ok {
		if err := failure(PathPredictions, raw); err != nil {
			return types.Predictions{}, err
		}
	}
	items, _ := raw["daily_predictions"].([]any)
	return types.Predictions{
		TotalGeneration:  optional(raw, "total_generation"),
		TotalSavings:     optional(raw, "total_savings"),
		ConfidenceLevel:  optional(raw, "confidence_level"),
		DailyPredictions: series.DecodePredictions(items),
	}, nil
}

// WeatherForecast returns the daily forecast.
func (c *Client) WeatherForecast(ctx context.Context) (types.WeatherForecast, error) {
	var raw map[string]any
	if err := c.getJSON(ctx, PathWeatherForecast, nil, &raw); err != nil {
		return types.WeatherForecast{}, err
	}
	items, ok := raw["daily"].([]any)
	if !ok {
		return types.WeatherForecast{}, &APIError{Endpoint: PathWeatherForecast, Message: "missing daily forecast"}
	}
	return types.WeatherForecast{Daily: series.DecodeWeather(items)}, nil
}

// DownloadCSV streams the backend's own CSV export for the last days days
// into w.
func (c *Client) DownloadCSV(ctx context.Context, days int, w io.Writer) error {
	resp, err := c.get(ctx, PathDownload, daysParam(days))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to copy csv download: %w", err)
	}
	return nil
}
