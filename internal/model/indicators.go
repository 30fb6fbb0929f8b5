package model

import "github.com/guregu/null/v5"

// IndicatorRow is one bar augmented with its rolling indicators.
// Indicator values are invalid until their window has enough history.
type IndicatorRow struct {
	OHLCV
	MA7          null.Float `json:"ma7"`
	MA14         null.Float `json:"ma14"`
	Resistance10 null.Float `json:"resistance10"`
	Support10    null.Float `json:"support10"`
}
