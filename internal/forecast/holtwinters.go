package forecast

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// seasonalPeriod is the season length of the exponential smoothing model, in bars.
const seasonalPeriod = 14

// holtWintersFit is an additive-trend, additive-seasonal exponential smoothing model.
type holtWintersFit struct {
	alpha, beta, gamma float64
	period             int

	initLevel, initTrend float64
	level, trend         float64
	seasonal             []float64 // seasonal[t] is the index for time t; len n+period

	observed []float64
	fitted   []float64
	sse      float64
}

type hwInit struct {
	level, trend float64
	seasonal     []float64
}

// initialState uses two full seasons when available. With less history the
// seasonal indices start at zero and the trend is the first difference.
func initialState(y []float64, m int) hwInit {
	seasonal := make([]float64, m)
	if len(y) >= 2*m {
		first := stat.Mean(y[:m], nil)
		second := stat.Mean(y[m:2*m], nil)
		for i := range seasonal {
			seasonal[i] = y[i] - first
		}
		return hwInit{level: first, trend: (second - first) / float64(m), seasonal: seasonal}
	}
	return hwInit{level: y[0], trend: y[1] - y[0], seasonal: seasonal}
}

// fitHoltWinters estimates alpha, beta <= alpha and gamma <= 1-alpha by
// minimising the in-sample sum of squared errors.
func fitHoltWinters(y []float64, m int) (*holtWintersFit, error) {
	if len(y) < 2 {
		return nil, errors.New("need at least 2 observations for exponential smoothing")
	}
	start := initialState(y, m)

	params := func(x []float64) (alpha, beta, gamma float64) {
		alpha = sigmoid(x[0])
		beta = alpha * sigmoid(x[1])
		gamma = (1 - alpha) * sigmoid(x[2])
		return alpha, beta, gamma
	}
	objective := func(x []float64) float64 {
		a, b, g := params(x)
		return runHoltWinters(y, m, a, b, g, start).sse
	}

	x0 := []float64{0, logit(0.1), logit(0.1)}
	x, _, err := minimize(objective, x0)
	if err != nil {
		return nil, fmt.Errorf("holt-winters: %w", err)
	}
	a, b, g := params(x)
	fit := runHoltWinters(y, m, a, b, g, start)
	if !finite(fit.sse) || !finite(fit.level) || !finite(fit.trend) {
		return nil, fmt.Errorf("holt-winters: %w", errNonFinite)
	}
	return fit, nil
}

func runHoltWinters(y []float64, m int, alpha, beta, gamma float64, start hwInit) *holtWintersFit {
	n := len(y)
	seasonal := make([]float64, n+m)
	copy(seasonal, start.seasonal)
	fitted := make([]float64, n)

	level, trend := start.level, start.trend
	sse := 0.0
	for t, obs := range y {
		fitted[t] = level + trend + seasonal[t]
		e := obs - fitted[t]
		sse += e * e

		prevLevel, prevTrend := level, trend
		level = alpha*(obs-seasonal[t]) + (1-alpha)*(prevLevel+prevTrend)
		trend = beta*(level-prevLevel) + (1-beta)*prevTrend
		seasonal[t+m] = gamma*(obs-prevLevel-prevTrend) + (1-gamma)*seasonal[t]
	}

	return &holtWintersFit{
		alpha:     alpha,
		beta:      beta,
		gamma:     gamma,
		period:    m,
		initLevel: start.level,
		initTrend: start.trend,
		level:     level,
		trend:     trend,
		seasonal:  seasonal,
		observed:  y,
		fitted:    fitted,
		sse:       sse,
	}
}

func (f *holtWintersFit) forecast(h int) []float64 {
	n := len(f.observed)
	out := make([]float64, h)
	for s := 1; s <= h; s++ {
		out[s-1] = f.level + float64(s)*f.trend + f.seasonal[n+(s-1)%f.period]
	}
	return out
}

// residualStd is the population standard deviation of observed minus fitted.
func (f *holtWintersFit) residualStd() float64 {
	resid := make([]float64, len(f.observed))
	for i, v := range f.observed {
		resid[i] = v - f.fitted[i]
	}
	_, std := stat.PopMeanStdDev(resid, nil)
	if !finite(std) {
		return 0
	}
	return std
}

func (f *holtWintersFit) aic() float64 {
	n := float64(len(f.observed))
	k := float64(3 + 2 + f.period)
	return n*math.Log(math.Max(f.sse/n, minSigma2)) + 2*k
}

func (f *holtWintersFit) summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Holt-Winters exponential smoothing (additive trend, additive seasonal, period %d)\n\n", f.period)
	fmt.Fprintf(&b, "  smoothing_level    %10.4f\n", f.alpha)
	fmt.Fprintf(&b, "  smoothing_trend    %10.4f\n", f.beta)
	fmt.Fprintf(&b, "  smoothing_seasonal %10.4f\n", f.gamma)
	fmt.Fprintf(&b, "  initial_level      %10.4f\n", f.initLevel)
	fmt.Fprintf(&b, "  initial_trend      %10.4f\n", f.initTrend)
	fmt.Fprintf(&b, "\nSSE = %.4f   AIC = %.2f   residual std = %.4f\n", f.sse, f.aic(), f.residualStd())
	fmt.Fprintf(&b, "Observations: %d\n", len(f.observed))
	return b.String()
}
