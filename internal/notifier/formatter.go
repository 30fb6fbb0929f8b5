package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"TickerScope/internal/model"
)

// DigestEntry is one ticker line of the daily forecast digest.
type DigestEntry struct {
	Ticker    string
	LastClose float64
	Result    *model.ForecastResult // nil when Err is set
	Err       string
}

func price(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func change(from, to float64) string {
	if from == 0 {
		return "n/a"
	}
	pct := decimal.NewFromFloat((to - from) / from * 100).Round(1)
	if pct.IsNegative() {
		return pct.StringFixed(1) + "%"
	}
	return "+" + pct.StringFixed(1) + "%"
}

// FormatQuote renders the headline numbers of a company profile.
func FormatQuote(p *model.CompanyProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>%s</b>\n\n", html.EscapeString(p.Symbol))

	if v, ok := p.PreviousClose.Float(); ok {
		fmt.Fprintf(&b, "Previous Close: %s\n", price(v))
	} else {
		fmt.Fprintf(&b, "Previous Close: %s\n", model.NotAvailable)
	}
	fmt.Fprintf(&b, "Day's Range: %s\n", model.FormatRange(p.DayLow, p.DayHigh))
	fmt.Fprintf(&b, "52 Week Range: %s\n", model.FormatRange(p.FiftyTwoWeekLow, p.FiftyTwoWeekHigh))
	if v, ok := p.Volume.Float(); ok {
		fmt.Fprintf(&b, "Volume: %s\n", humanize.Comma(int64(v)))
	}
	if v, ok := p.MarketCap.Float(); ok {
		fmt.Fprintf(&b, "Market Cap: %s\n", humanize.Comma(int64(v)))
	}
	if p.Sector.Available() {
		fmt.Fprintf(&b, "Sector: %s\n", html.EscapeString(p.Sector.String()))
	}
	return b.String()
}

// FormatNews renders headlines with their age.
func FormatNews(ticker string, items []model.NewsItem, now time.Time) string {
	if len(items) == 0 {
		return fmt.Sprintf("📰 No recent news for %s", html.EscapeString(ticker))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📰 <b>%s news</b>\n\n", html.EscapeString(ticker))
	for _, n := range items {
		fmt.Fprintf(&b, "• <a href=\"%s\">%s</a>\n  %s, %s\n",
			html.EscapeString(n.Link), html.EscapeString(n.Title),
			html.EscapeString(n.Publisher), humanize.RelTime(n.PublishedAt, now, "ago", "from now"))
	}
	return b.String()
}

// FormatForecast renders one forecast with its final 80% interval.
func FormatForecast(ticker string, lastClose float64, res *model.ForecastResult) string {
	var b strings.Builder
	h := res.Horizon()
	fmt.Fprintf(&b, "🔮 <b>%s</b> | %s, next %d days\n\n", html.EscapeString(ticker), res.Model.DisplayName(), h)
	fmt.Fprintf(&b, "Last close: %s\n", price(lastClose))
	if h == 0 {
		return b.String()
	}

	final := res.Points[h-1]
	fmt.Fprintf(&b, "%s: %s (%s)\n", final.Date.Format("2006-01-02"), price(final.Price), change(lastClose, final.Price))
	if len(res.Band80) == h {
		band := res.Band80[h-1]
		fmt.Fprintf(&b, "80%% interval: %s - %s\n", price(band.Lower), price(band.Upper))
	}
	if len(res.Band95) == h {
		band := res.Band95[h-1]
		fmt.Fprintf(&b, "95%% interval: %s - %s\n", price(band.Lower), price(band.Upper))
	}
	fmt.Fprintf(&b, "\n<pre>%s</pre>", html.EscapeString(res.Summary))
	return b.String()
}

// FormatDigest renders the scheduled digest for all tickers.
func FormatDigest(date time.Time, m model.ForecastModel, entries []DigestEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 <b>TickerScope digest</b> | %s | %s\n\n", date.Format("2006-01-02"), m.DisplayName())
	for _, e := range entries {
		if e.Result == nil || e.Result.Horizon() == 0 {
			fmt.Fprintf(&b, "%s: ❌ %s\n", html.EscapeString(e.Ticker), html.EscapeString(e.Err))
			continue
		}
		final := e.Result.Points[e.Result.Horizon()-1]
		fmt.Fprintf(&b, "%s: %s → %s (%s) in %dd\n",
			html.EscapeString(e.Ticker), price(e.LastClose), price(final.Price),
			change(e.LastClose, final.Price), e.Result.Horizon())
	}
	return b.String()
}

// HelpText lists the supported chat commands.
func HelpText(tickers []string) string {
	return "Available commands:\n" +
		"• /quote TICKER\n" +
		"• /news TICKER\n" +
		"• /forecast TICKER [arima|ets] [days 1-30]\n" +
		"• /digest\n\n" +
		"Tickers: " + strings.Join(tickers, ", ")
}
