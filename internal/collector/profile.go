package collector

import (
	"strings"

	"TickerScope/internal/model"
)

// BuildProfile maps a provider info map onto a CompanyProfile. Keys that are
// missing, null or of the wrong type become model.Missing().
func BuildProfile(symbol string, info map[string]any) *model.CompanyProfile {
	num := func(key string) model.Metric {
		switch v := info[key].(type) {
		case float64:
			return model.Number(v)
		case int:
			return model.Number(float64(v))
		case int64:
			return model.Number(float64(v))
		default:
			return model.Missing()
		}
	}
	text := func(key string) model.Metric {
		if s, ok := info[key].(string); ok {
			return model.Text(strings.TrimSpace(s))
		}
		return model.Missing()
	}

	return &model.CompanyProfile{
		Symbol:           symbol,
		BusinessSummary:  text("longBusinessSummary"),
		PreviousClose:    num("regularMarketPreviousClose"),
		Open:             num("regularMarketOpen"),
		DayLow:           num("regularMarketDayLow"),
		DayHigh:          num("regularMarketDayHigh"),
		FiftyTwoWeekLow:  num("fiftyTwoWeekLow"),
		FiftyTwoWeekHigh: num("fiftyTwoWeekHigh"),
		Volume:           num("regularMarketVolume"),
		AvgVolume:        num("averageVolume10days"),
		MarketCap:        num("marketCap"),
		TrailingEPS:      num("trailingEps"),
		Sector:           text("sector"),
		Industry:         text("industry"),
		Beta:             num("beta"),
		PayoutRatio:      num("payoutRatio"),
		ForwardPE:        num("forwardPE"),
		PriceToSales:     num("priceToSalesTrailing12Months"),
		PriceToBook:      num("priceToBook"),
		ProfitMargin:     num("profitMargins"),
		OperatingMargin:  num("operatingMargins"),
		ReturnOnAssets:   num("returnOnAssets"),
		ReturnOnEquity:   num("returnOnEquity"),
		Revenue:          num("totalRevenue"),
		GrossProfit:      num("grossProfits"),
		EBITDA:           num("ebitda"),
		NetIncome:        num("netIncomeToCommon"),
		TotalCash:        num("totalCash"),
		TotalDebt:        num("totalDebt"),
		CurrentRatio:     num("currentRatio"),
		QuickRatio:       num("quickRatio"),
		ShortRatio:       num("shortRatio"),
	}
}
