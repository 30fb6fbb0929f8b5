package calculator

import (
	"errors"

	"github.com/guregu/null/v5"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// RollingSMA returns, for every index, the mean of the trailing window values
// ending at that index. The first window-1 entries are invalid.
func RollingSMA(values []float64, window int) []null.Float {
	out := make([]null.Float, len(values))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		if avg, err := CalculateSMA(values[:i+1], window); err == nil {
			out[i] = null.FloatFrom(avg)
		}
	}
	return out
}
