package dashboard

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"TickerScope/internal/model"
)

const (
	newsTimeLayout = "2006-01-02 15:04:05"
	dateLayout     = "2006-01-02"
)

// formatRow renders one profile row. A text value in a numeric row is shown
// as-is; a missing value is always "N/A".
func formatRow(r model.ProfileRow) string {
	if r.Kind == model.KindRange {
		return model.FormatRange(r.Low, r.High)
	}
	v, ok := r.Value.Float()
	if !ok {
		return r.Value.String()
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return model.NotAvailable
	}

	switch r.Kind {
	case model.KindPrice, model.KindRatio:
		return decimal.NewFromFloat(v).StringFixed(2)
	case model.KindPercent:
		return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
	case model.KindCount, model.KindMoney:
		return humanize.Comma(int64(math.Round(v)))
	default:
		return r.Value.String()
	}
}

// formatPrice renders a price with two decimals.
func formatPrice(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func formatNewsTime(t time.Time, now time.Time) (absolute, relative string) {
	return t.Format(newsTimeLayout), humanize.RelTime(t, now, "ago", "from now")
}
