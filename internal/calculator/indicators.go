package calculator

import "TickerScope/internal/model"

// Indicator windows, in trading days.
const (
	ShortMAWindow = 7
	LongMAWindow  = 14
	LevelWindow   = 10
)

// DeriveIndicators augments each bar with the 7/14-day moving averages of the
// close and the 10-day rolling resistance (max high) and support (min low).
// Bars must be in ascending date order.
func DeriveIndicators(bars []model.OHLCV) []model.IndicatorRow {
	closes := model.Closes(bars)
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}

	ma7 := RollingSMA(closes, ShortMAWindow)
	ma14 := RollingSMA(closes, LongMAWindow)
	resistance := RollingMax(highs, LevelWindow)
	support := RollingMin(lows, LevelWindow)

	rows := make([]model.IndicatorRow, len(bars))
	for i, b := range bars {
		rows[i] = model.IndicatorRow{
			OHLCV:        b,
			MA7:          ma7[i],
			MA14:         ma14[i],
			Resistance10: resistance[i],
			Support10:    support[i],
		}
	}
	return rows
}
