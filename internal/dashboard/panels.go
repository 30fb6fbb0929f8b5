package dashboard

import (
	"time"

	"github.com/guregu/null/v5"

	"TickerScope/internal/model"
	"TickerScope/internal/session"
)

// Page is what a session sees: its state plus the panel of the active tab.
type Page struct {
	Session  *session.State `json:"session"`
	Overview *OverviewPanel `json:"overview,omitempty"`
	Chart    *ChartPanel    `json:"chart,omitempty"`
	News     *NewsPanel     `json:"news,omitempty"`
	Forecast *ForecastPanel `json:"forecast,omitempty"`
}

// Row is one label/value line of a rendered table.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type OverviewPanel struct {
	Ticker  string `json:"ticker"`
	Title   string `json:"title"`
	Intro   string `json:"intro"`
	Summary string `json:"summary"`
	Rows    []Row  `json:"rows"`
	Error   string `json:"error,omitempty"`
}

// Candle is one chart row: the bar and its overlays. Overlays are null while
// their window is not yet filled.
type Candle struct {
	Date       time.Time  `json:"date"`
	Open       float64    `json:"open"`
	High       float64    `json:"high"`
	Low        float64    `json:"low"`
	Close      float64    `json:"close"`
	Volume     float64    `json:"volume"`
	MA7        null.Float `json:"ma7"`
	MA14       null.Float `json:"ma14"`
	Resistance null.Float `json:"resistance"`
	Support    null.Float `json:"support"`
}

// Overlay names a line drawn over the candles.
type Overlay struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// NoteSection is a heading with bullet lines shown under the chart.
type NoteSection struct {
	Heading string   `json:"heading"`
	Lines   []string `json:"lines"`
}

type ChartPanel struct {
	Ticker   string        `json:"ticker"`
	Title    string        `json:"title"`
	XAxis    string        `json:"x_axis"`
	YAxis    string        `json:"y_axis"`
	Candles  []Candle      `json:"candles"`
	Overlays []Overlay     `json:"overlays"`
	Notes    []NoteSection `json:"notes"`
	Error    string        `json:"error,omitempty"`
}

type NewsRow struct {
	Title     string `json:"title"`
	Publisher string `json:"publisher"`
	Link      string `json:"link"`
	Published string `json:"published"`
	Relative  string `json:"relative"`
}

type NewsPanel struct {
	Ticker string    `json:"ticker"`
	Items  []NewsRow `json:"items"`
	Error  string    `json:"error,omitempty"`
}

// ForecastPanel holds the chart series, the model text and the forecast table.
type ForecastPanel struct {
	Ticker      string                `json:"ticker"`
	Model       model.ForecastModel   `json:"model"`
	ModelName   string                `json:"model_name"`
	Horizon     int                   `json:"horizon"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Actual      []model.ForecastPoint `json:"actual"`
	Predicted   []model.ForecastPoint `json:"predicted"`
	Band80      []model.BandPoint     `json:"band80"`
	Band95      []model.BandPoint     `json:"band95"`
	Summary     string                `json:"summary"`
	Table       []Row                 `json:"table"`
	Error       string                `json:"error,omitempty"`
}

var chartOverlays = []Overlay{
	{Key: "resistance", Name: "Resistance", Color: "red"},
	{Key: "support", Name: "Support", Color: "green"},
	{Key: "ma7", Name: "7 Day Moving Average", Color: "orange"},
	{Key: "ma14", Name: "14 Day Moving Average", Color: "red"},
}

var chartNotes = []NoteSection{
	{
		Heading: "Price Components:",
		Lines: []string{
			"Candlestick chart displays the open, high, low, and close prices for each day.",
			"Support and resistance lines are dynamic and are calculated based on the highest high and lowest low of the previous 10 trading days.",
			"Moving averages smooth out the price data by calculating the average price over a specified time period.",
		},
	},
	{
		Heading: "Support and Resistance:",
		Lines: []string{
			"Support is a price level where there is buying pressure, and the price is expected to bounce back up.",
			"Resistance is a price level where there is selling pressure, and the price is expected to bounce back down.",
			"Support and resistance levels can be used to identify potential buying and selling opportunities.",
		},
	},
	{
		Heading: "Moving Averages:",
		Lines: []string{
			"Moving averages are commonly used to smooth out the price data and identify trends.",
			"The 7-day and 14-day moving averages are commonly used by traders to identify short-term and long-term trends.",
		},
	},
}
