package forecast

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerScope/internal/model"
)

func barsFromCloses(closes []float64) []model.OHLCV {
	start := time.Date(2023, 3, 1, 16, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return bars
}

func randomWalk(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	v := 100.0
	for i := range out {
		v += 0.05 + rng.NormFloat64()
		out[i] = v
	}
	return out
}

func seasonalSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 50 + 0.2*float64(i) + 3*math.Sin(2*math.Pi*float64(i)/seasonalPeriod)
	}
	return out
}

func TestForecast_DatesStartDayAfterLast(t *testing.T) {
	history := barsFromCloses(randomWalk(120, 1))
	last := history[len(history)-1].Time

	for _, m := range model.ForecastModels {
		for _, h := range []int{1, 7, 30} {
			res, err := Forecast(history, h, m)
			require.NoError(t, err, "model %s horizon %d", m, h)
			require.Len(t, res.Points, h)
			require.Len(t, res.Band80, h)

			y, mo, d := last.Date()
			assert.Equal(t, time.Date(y, mo, d+1, 0, 0, 0, 0, last.Location()), res.Points[0].Date)
			for i := 1; i < h; i++ {
				assert.True(t, res.Points[i].Date.After(res.Points[i-1].Date))
				assert.Equal(t, 24*time.Hour, res.Points[i].Date.Sub(res.Points[i-1].Date))
				assert.Equal(t, res.Points[i].Date, res.Band80[i].Date)
			}
		}
	}
}

func TestForecast_ARIMAHasNo95Band(t *testing.T) {
	res, err := Forecast(barsFromCloses(randomWalk(200, 2)), 10, model.ModelARIMA)
	require.NoError(t, err)
	assert.Empty(t, res.Band95, "ARIMA reports only its own 80% interval")
	assert.NotEmpty(t, res.Summary)
	assert.Equal(t, arimaDescription, res.Description)
	for i, b := range res.Band80 {
		assert.LessOrEqual(t, b.Lower, res.Points[i].Price)
		assert.GreaterOrEqual(t, b.Upper, res.Points[i].Price)
	}
	// The model-native interval widens with the horizon for a random walk.
	first := res.Band80[0].Upper - res.Band80[0].Lower
	lastBand := res.Band80[len(res.Band80)-1]
	assert.Greater(t, lastBand.Upper-lastBand.Lower, first)
}

func TestForecast_ETSBand95ContainsBand80(t *testing.T) {
	closes := seasonalSeries(140)
	rng := rand.New(rand.NewSource(3))
	for i := range closes {
		closes[i] += rng.NormFloat64() * 0.5
	}
	res, err := Forecast(barsFromCloses(closes), 14, model.ModelExponentialSmoothing)
	require.NoError(t, err)
	require.Len(t, res.Band95, 14)
	for i := range res.Points {
		assert.Less(t, res.Band95[i].Lower, res.Band80[i].Lower)
		assert.Greater(t, res.Band95[i].Upper, res.Band80[i].Upper)
	}
	// Bands are a constant multiple of the residual std at every step.
	w0 := res.Band80[0].Upper - res.Band80[0].Lower
	for _, b := range res.Band80 {
		assert.InDelta(t, w0, b.Upper-b.Lower, 1e-9)
	}
}

func TestForecast_ETSFlatSeriesZeroWidthBands(t *testing.T) {
	history := barsFromCloses([]float64{100, 100, 100, 100, 100})
	res, err := Forecast(history, 5, model.ModelExponentialSmoothing)
	require.NoError(t, err)
	require.Len(t, res.Points, 5)
	for i, p := range res.Points {
		assert.InDelta(t, 100.0, p.Price, 1e-9)
		assert.InDelta(t, 0, res.Band80[i].Upper-res.Band80[i].Lower, 1e-9)
		assert.InDelta(t, 0, res.Band95[i].Upper-res.Band95[i].Lower, 1e-9)
	}
}

func TestForecast_ETSTracksSeasonality(t *testing.T) {
	closes := seasonalSeries(112)
	res, err := Forecast(barsFromCloses(closes), 14, model.ModelExponentialSmoothing)
	require.NoError(t, err)
	n := len(closes)
	for i, p := range res.Points {
		want := 50 + 0.2*float64(n+i) + 3*math.Sin(2*math.Pi*float64(n+i)/seasonalPeriod)
		assert.InDelta(t, want, p.Price, 1.5)
	}
}

func TestForecast_ARIMAFlatSeries(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	res, err := Forecast(barsFromCloses(closes), 5, model.ModelARIMA)
	require.NoError(t, err)
	for _, p := range res.Points {
		assert.InDelta(t, 100.0, p.Price, 1e-6)
	}
}

func TestForecast_InvalidInput(t *testing.T) {
	history := barsFromCloses(randomWalk(50, 4))

	_, err := Forecast(history, 0, model.ModelARIMA)
	assert.True(t, errors.Is(err, ErrInvalidHorizon))
	_, err = Forecast(history, 31, model.ModelExponentialSmoothing)
	assert.True(t, errors.Is(err, ErrInvalidHorizon))

	_, err = Forecast(history, 5, model.ForecastModel("prophet"))
	assert.True(t, errors.Is(err, ErrUnknownModel))

	_, err = Forecast(nil, 5, model.ModelARIMA)
	assert.True(t, errors.Is(err, ErrForecastUnavailable))
}

func TestForecast_TooShortHistoryIsUnavailable(t *testing.T) {
	_, err := Forecast(barsFromCloses([]float64{101}), 3, model.ModelExponentialSmoothing)
	assert.True(t, errors.Is(err, ErrForecastUnavailable))

	_, err = Forecast(barsFromCloses([]float64{101, 102}), 3, model.ModelARIMA)
	assert.True(t, errors.Is(err, ErrForecastUnavailable))

	// Three prices near 100 only fit a zero-mean level model, which would forecast 0.
	_, err = Forecast(barsFromCloses([]float64{100, 101, 99}), 3, model.ModelARIMA)
	assert.True(t, errors.Is(err, ErrForecastUnavailable))
}

func TestForecast_ARIMAShortHistoryStaysNearPrices(t *testing.T) {
	res, err := Forecast(barsFromCloses([]float64{100, 101, 99, 102, 100, 101}), 3, model.ModelARIMA)
	require.NoError(t, err)
	for _, p := range res.Points {
		assert.InDelta(t, 100.5, p.Price, 5)
	}
}

func TestAutoARIMA_RandomWalkPicksLowOrder(t *testing.T) {
	lowOrder := 0
	for seed := int64(1); seed <= 20; seed++ {
		fit, err := autoARIMA(randomWalk(300, seed))
		require.NoError(t, err)
		if fit.order.p <= 1 {
			lowOrder++
		}
	}
	assert.GreaterOrEqual(t, lowOrder, 14, "random walks should mostly select p <= 1")
}

func TestFitARMA_CandidatesShareSample(t *testing.T) {
	w := randomWalk(200, 7)
	w = diff(w)
	cond := conditioningLength(len(w))
	require.Equal(t, maxP, cond)

	p0, err := fitARMA(w, w, arimaOrder{p: 0, constant: true}, cond)
	require.NoError(t, err)
	p3, err := fitARMA(w, w, arimaOrder{p: 3, constant: true}, cond)
	require.NoError(t, err)
	for i := 0; i < cond; i++ {
		assert.Zero(t, p0.resid[i])
		assert.Zero(t, p3.resid[i])
	}

	_, err = fitARMA(w, w, arimaOrder{p: 3, constant: true}, 2)
	assert.Error(t, err, "conditioning shorter than the AR order")
}

func TestMeanNearZero(t *testing.T) {
	assert.False(t, meanNearZero([]float64{100, 101, 99}))
	assert.True(t, meanNearZero([]float64{1, -1, 0.5, -0.5}))
	assert.False(t, meanNearZero([]float64{5}))
	assert.False(t, meanNearZero(nil))
}

func TestChooseDifferencing(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	noise := make([]float64, 300)
	for i := range noise {
		noise[i] = rng.NormFloat64()
	}
	assert.Equal(t, 0, chooseDifferencing(noise))

	trend := make([]float64, 300)
	for i := range trend {
		trend[i] = float64(i) + noise[i]
	}
	assert.GreaterOrEqual(t, chooseDifferencing(trend), 1)

	assert.Equal(t, 0, chooseDifferencing([]float64{5, 5, 5, 5, 5}))
}

func TestPacfToCoefficients_Stationary(t *testing.T) {
	coef := pacfToCoefficients([]float64{0.3})
	require.Len(t, coef, 1)
	assert.InDelta(t, math.Tanh(0.3), coef[0], 1e-12)

	// AR(2): stationary iff |phi2| < 1, phi1+phi2 < 1, phi2-phi1 < 1.
	for _, raw := range [][]float64{{3, -3}, {-2, 2}, {5, 5}, {0.1, -0.4}} {
		c := pacfToCoefficients(raw)
		assert.Less(t, math.Abs(c[1]), 1.0)
		assert.Less(t, c[0]+c[1], 1.0)
		assert.Less(t, c[1]-c[0], 1.0)
	}
}

func TestFitARMA_RecoversAR1(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	y := make([]float64, 600)
	for i := 1; i < len(y); i++ {
		y[i] = 0.7*y[i-1] + rng.NormFloat64()
	}
	fit, err := fitARMA(y, y, arimaOrder{p: 1, d: 0, q: 0, constant: true}, 1)
	require.NoError(t, err)
	require.Len(t, fit.ar, 1)
	assert.InDelta(t, 0.7, fit.ar[0], 0.1)
	assert.InDelta(t, 1.0, fit.sigma2, 0.25)

	auto, err := autoARIMA(y)
	require.NoError(t, err)
	assert.Contains(t, auto.summary(), "ARIMA(")
}

func TestPsiWeights_RandomWalk(t *testing.T) {
	fit := &arimaFit{order: arimaOrder{d: 1}, sigma2: 1}
	psi := fit.psiWeights(4)
	assert.Equal(t, []float64{1, 1, 1, 1}, psi)
}
