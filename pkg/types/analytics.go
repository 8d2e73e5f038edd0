package types

import "time"

// AnalyticsSummary is the response of /api/analytics/summary.
type AnalyticsSummary struct {
	TotalGeneration *float64 `json:"total_generation"`
	AvgDaily        *float64 `json:"avg_daily"`
	TotalSavings    *float64 `json:"total_savings"`
	GreenPercentage *float64 `json:"green_percentage"`
}

// DailyPrediction is one predicted day.
type DailyPrediction struct {
	Date       time.Time `json:"date"`
	Generation float64   `json:"generation"`
}

// Predictions is the response of /api/predictions.
type Predictions struct {
	TotalGeneration  *float64          `json:"total_generation"`
	TotalSavings     *float64          `json:"total_savings"`
	ConfidenceLevel  *float64          `json:"confidence_level"`
	DailyPredictions []DailyPrediction `json:"daily_predictions"`
}

// WeatherDay is one day of forecast.
type WeatherDay struct {
	Date        time.Time `json:"date"`
	Temperature *float64  `json:"temperature"`
	Conditions  string    `json:"conditions"`
}

// WeatherForecast is the response of /api/weather-forecast.
type WeatherForecast struct {
	Daily []WeatherDay `json:"daily"`
}
