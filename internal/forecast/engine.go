package forecast

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"TickerScope/internal/model"
)

var (
	// ErrForecastUnavailable means the chosen model could not be fitted to the history.
	ErrForecastUnavailable = errors.New("forecast unavailable")
	ErrInvalidHorizon      = errors.New("forecast horizon out of range")
	ErrUnknownModel        = errors.New("unknown forecast model")
)

// Band multipliers used by the exponential smoothing branch.
const (
	z80 = 1.28
	z95 = 1.96
)

const (
	arimaDescription = "ARIMA (Autoregressive Integrated Moving Average) is a popular time series forecasting model that uses past values to predict future values."
	etsDescription   = "Exponential Smoothing is a popular time series forecasting model that assigns exponentially decreasing weights to past observations and uses them to predict future values."
)

// Forecast fits the selected model to the closing prices of history and
// predicts horizon calendar days past the last bar.
func Forecast(history []model.OHLCV, horizon int, m model.ForecastModel) (*model.ForecastResult, error) {
	if horizon < model.MinHorizon || horizon > model.MaxHorizon {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidHorizon, horizon, model.MinHorizon, model.MaxHorizon)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: empty history", ErrForecastUnavailable)
	}

	closes := model.Closes(history)
	dates := forecastDates(history[len(history)-1].Time, horizon)
	result := &model.ForecastResult{Model: m}

	switch m {
	case model.ModelARIMA:
		fit, err := autoARIMA(closes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrForecastUnavailable, err)
		}
		mean, variance := fit.forecast(horizon)
		z := distuv.UnitNormal.Quantile(0.9)
		for i, d := range dates {
			half := z * sqrt(variance[i])
			result.Points = append(result.Points, model.ForecastPoint{Date: d, Price: mean[i]})
			result.Band80 = append(result.Band80, model.BandPoint{Date: d, Lower: mean[i] - half, Upper: mean[i] + half})
		}
		// The ARIMA branch only reports the model's own 80% interval.
		result.Band95 = []model.BandPoint{}
		result.Summary = fit.summary()
		result.Description = arimaDescription

	case model.ModelExponentialSmoothing:
		fit, err := fitHoltWinters(closes, seasonalPeriod)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrForecastUnavailable, err)
		}
		mean := fit.forecast(horizon)
		sigma := fit.residualStd()
		for i, d := range dates {
			result.Points = append(result.Points, model.ForecastPoint{Date: d, Price: mean[i]})
			result.Band80 = append(result.Band80, model.BandPoint{Date: d, Lower: mean[i] - z80*sigma, Upper: mean[i] + z80*sigma})
			result.Band95 = append(result.Band95, model.BandPoint{Date: d, Lower: mean[i] - z95*sigma, Upper: mean[i] + z95*sigma})
		}
		result.Summary = fit.summary()
		result.Description = etsDescription

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, m)
	}

	for _, p := range result.Points {
		if !finite(p.Price) {
			return nil, fmt.Errorf("%w: non-finite forecast", ErrForecastUnavailable)
		}
	}
	return result, nil
}

// forecastDates steps calendar days, weekends included, from the day after last.
func forecastDates(last time.Time, horizon int) []time.Time {
	y, mo, d := last.Date()
	dates := make([]time.Time, horizon)
	for i := range dates {
		dates[i] = time.Date(y, mo, d+i+1, 0, 0, 0, 0, last.Location())
	}
	return dates
}
