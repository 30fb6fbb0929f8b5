package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// NotAvailable is how a missing metric is rendered.
const NotAvailable = "N/A"

type metricKind uint8

const (
	metricMissing metricKind = iota
	metricNumber
	metricText
)

// Metric is a single profile value: a number, a text, or not available.
// The zero value is not available.
type Metric struct {
	kind metricKind
	num  float64
	text string
}

// Missing returns the "not available" metric.
func Missing() Metric { return Metric{} }

// Number wraps a numeric metric.
func Number(v float64) Metric { return Metric{kind: metricNumber, num: v} }

// Text wraps a textual metric. An empty string is treated as not available.
func Text(s string) Metric {
	if s == "" {
		return Missing()
	}
	return Metric{kind: metricText, text: s}
}

// Available reports whether the provider supplied this metric.
func (m Metric) Available() bool { return m.kind != metricMissing }

// IsNumber reports whether the metric holds a number.
func (m Metric) IsNumber() bool { return m.kind == metricNumber }

// Float returns the numeric value and whether there was one.
func (m Metric) Float() (float64, bool) {
	if m.kind != metricNumber {
		return 0, false
	}
	return m.num, true
}

func (m Metric) String() string {
	switch m.kind {
	case metricNumber:
		return strconv.FormatFloat(m.num, 'f', -1, 64)
	case metricText:
		return m.text
	default:
		return NotAvailable
	}
}

// MarshalJSON encodes numbers as numbers, text as strings and the sentinel as "N/A".
func (m Metric) MarshalJSON() ([]byte, error) {
	switch m.kind {
	case metricNumber:
		return json.Marshal(m.num)
	case metricText:
		return json.Marshal(m.text)
	default:
		return json.Marshal(NotAvailable)
	}
}

// UnmarshalJSON accepts what MarshalJSON produces so profiles survive the cache.
func (m *Metric) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*m = Number(x)
	case string:
		if x == NotAvailable {
			*m = Missing()
		} else {
			*m = Text(x)
		}
	case nil:
		*m = Missing()
	default:
		return fmt.Errorf("metric: unsupported json value %s", string(data))
	}
	return nil
}

// FormatRange renders "low - high" with two decimals; either side may be N/A.
func FormatRange(low, high Metric) string {
	return formatBound(low) + " - " + formatBound(high)
}

func formatBound(m Metric) string {
	if v, ok := m.Float(); ok {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return m.String()
}

// CompanyProfile holds point-in-time company metadata for one ticker.
type CompanyProfile struct {
	Symbol          string `json:"symbol"`
	BusinessSummary Metric `json:"business_summary"`

	PreviousClose    Metric `json:"previous_close"`
	Open             Metric `json:"open"`
	DayLow           Metric `json:"day_low"`
	DayHigh          Metric `json:"day_high"`
	FiftyTwoWeekLow  Metric `json:"fifty_two_week_low"`
	FiftyTwoWeekHigh Metric `json:"fifty_two_week_high"`
	Volume           Metric `json:"volume"`
	AvgVolume        Metric `json:"avg_volume"`
	MarketCap        Metric `json:"market_cap"`
	TrailingEPS      Metric `json:"trailing_eps"`
	Sector           Metric `json:"sector"`
	Industry         Metric `json:"industry"`
	Beta             Metric `json:"beta"`
	PayoutRatio      Metric `json:"payout_ratio"`
	ForwardPE        Metric `json:"forward_pe"`
	PriceToSales     Metric `json:"price_to_sales"`
	PriceToBook      Metric `json:"price_to_book"`
	ProfitMargin     Metric `json:"profit_margin"`
	OperatingMargin  Metric `json:"operating_margin"`
	ReturnOnAssets   Metric `json:"return_on_assets"`
	ReturnOnEquity   Metric `json:"return_on_equity"`
	Revenue          Metric `json:"revenue"`
	GrossProfit      Metric `json:"gross_profit"`
	EBITDA           Metric `json:"ebitda"`
	NetIncome        Metric `json:"net_income"`
	TotalCash        Metric `json:"total_cash"`
	TotalDebt        Metric `json:"total_debt"`
	CurrentRatio     Metric `json:"current_ratio"`
	QuickRatio       Metric `json:"quick_ratio"`
	ShortRatio       Metric `json:"short_ratio"`
}

// MetricKind tells the presentation layer how to format a numeric row.
type MetricKind uint8

const (
	KindPlain MetricKind = iota
	KindPrice
	KindCount
	KindMoney
	KindRatio
	KindPercent
	KindRange
)

// ProfileRow is one labelled line of the overview table.
type ProfileRow struct {
	Label string
	Kind  MetricKind
	Value Metric
	// Range rows carry both bounds; Value is unused for them.
	Low, High Metric
}

// Rows returns the profile as an ordered, labelled table.
func (p *CompanyProfile) Rows() []ProfileRow {
	return []ProfileRow{
		{Label: "Previous Close", Kind: KindPrice, Value: p.PreviousClose},
		{Label: "Open", Kind: KindPrice, Value: p.Open},
		{Label: "Day's Range", Kind: KindRange, Low: p.DayLow, High: p.DayHigh},
		{Label: "52 Week Range", Kind: KindRange, Low: p.FiftyTwoWeekLow, High: p.FiftyTwoWeekHigh},
		{Label: "Volume", Kind: KindCount, Value: p.Volume},
		{Label: "Avg. Volume", Kind: KindCount, Value: p.AvgVolume},
		{Label: "Market Cap", Kind: KindMoney, Value: p.MarketCap},
		{Label: "EPS (TTM)", Kind: KindPrice, Value: p.TrailingEPS},
		{Label: "Sector", Kind: KindPlain, Value: p.Sector},
		{Label: "Industry", Kind: KindPlain, Value: p.Industry},
		{Label: "Beta", Kind: KindRatio, Value: p.Beta},
		{Label: "Payout Ratio", Kind: KindPercent, Value: p.PayoutRatio},
		{Label: "Forward P/E", Kind: KindRatio, Value: p.ForwardPE},
		{Label: "Price/Sales (TTM)", Kind: KindRatio, Value: p.PriceToSales},
		{Label: "Price/Book (MRQ)", Kind: KindRatio, Value: p.PriceToBook},
		{Label: "Profit Margin", Kind: KindPercent, Value: p.ProfitMargin},
		{Label: "Operating Margin (TTM)", Kind: KindPercent, Value: p.OperatingMargin},
		{Label: "Return on Assets (TTM)", Kind: KindPercent, Value: p.ReturnOnAssets},
		{Label: "Return on Equity (TTM)", Kind: KindPercent, Value: p.ReturnOnEquity},
		{Label: "Revenue (TTM)", Kind: KindMoney, Value: p.Revenue},
		{Label: "Gross Profit (TTM)", Kind: KindMoney, Value: p.GrossProfit},
		{Label: "EBITDA (TTM)", Kind: KindMoney, Value: p.EBITDA},
		{Label: "Net Income (TTM)", Kind: KindMoney, Value: p.NetIncome},
		{Label: "Total Cash (MRQ)", Kind: KindMoney, Value: p.TotalCash},
		{Label: "Total Debt (MRQ)", Kind: KindMoney, Value: p.TotalDebt},
		{Label: "Current Ratio (MRQ)", Kind: KindRatio, Value: p.CurrentRatio},
		{Label: "Quick Ratio (MRQ)", Kind: KindRatio, Value: p.QuickRatio},
		{Label: "Short Ratio (MRQ)", Kind: KindRatio, Value: p.ShortRatio},
	}
}

// SummaryText renders "<ticker>: <business summary>".
func (p *CompanyProfile) SummaryText() string {
	return p.Symbol + ": " + p.BusinessSummary.String()
}
