package model

import (
	"fmt"
	"strings"
	"time"
)

// ForecastModel selects the forecasting method.
type ForecastModel string

const (
	ModelARIMA                ForecastModel = "arima"
	ModelExponentialSmoothing ForecastModel = "ets"
)

// ForecastModels lists every supported model in display order.
var ForecastModels = []ForecastModel{ModelARIMA, ModelExponentialSmoothing}

// ParseForecastModel accepts the short codes and the display names.
func ParseForecastModel(s string) (ForecastModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arima":
		return ModelARIMA, nil
	case "ets", "exponential smoothing", "exponential_smoothing", "holt-winters", "holtwinters":
		return ModelExponentialSmoothing, nil
	default:
		return "", fmt.Errorf("unknown forecast model %q", s)
	}
}

// DisplayName is the human-readable model name.
func (m ForecastModel) DisplayName() string {
	switch m {
	case ModelARIMA:
		return "ARIMA"
	case ModelExponentialSmoothing:
		return "Exponential Smoothing"
	default:
		return string(m)
	}
}

const (
	MinHorizon     = 1
	MaxHorizon     = 30
	DefaultHorizon = 14
)

// ForecastPoint is a predicted price on a date.
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// BandPoint is a confidence interval on a date.
type BandPoint struct {
	Date  time.Time `json:"date"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

// ForecastResult is the output of one forecast run.
// Band95 is empty for ARIMA.
type ForecastResult struct {
	Model       ForecastModel   `json:"model"`
	Points      []ForecastPoint `json:"points"`
	Band80      []BandPoint     `json:"band80"`
	Band95      []BandPoint     `json:"band95"`
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
}

// Horizon is the number of forecast steps.
func (r *ForecastResult) Horizon() int { return len(r.Points) }
