package calculator

import (
	"errors"
	"math"

	"github.com/guregu/null/v5"

	"TickerScope/internal/model"
)

// tradingDaysPerYear is the window used for the 52-week range.
const tradingDaysPerYear = 252

// Calculate52WeekRange scans the most recent 252 trading days and returns the high and low.
func Calculate52WeekRange(dailyBars []model.OHLCV) (high, low float64, err error) {
	if len(dailyBars) == 0 {
		return 0, 0, errors.New("no daily bars provided")
	}
	n := len(dailyBars)
	start := n - tradingDaysPerYear
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if dailyBars[i].High > high {
			high = dailyBars[i].High
		}
		if dailyBars[i].Low < low {
			low = dailyBars[i].Low
		}
	}
	return high, low, nil
}

// RollingMax returns the trailing-window maximum at every index; the first
// window-1 entries are invalid.
func RollingMax(values []float64, window int) []null.Float {
	return rollingExtreme(values, window, func(a, b float64) bool { return a > b })
}

// RollingMin returns the trailing-window minimum at every index; the first
// window-1 entries are invalid.
func RollingMin(values []float64, window int) []null.Float {
	return rollingExtreme(values, window, func(a, b float64) bool { return a < b })
}

func rollingExtreme(values []float64, window int, better func(a, b float64) bool) []null.Float {
	out := make([]null.Float, len(values))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		best := values[i-window+1]
		for j := i - window + 2; j <= i; j++ {
			if better(values[j], best) {
				best = values[j]
			}
		}
		out[i] = null.FloatFrom(best)
	}
	return out
}
