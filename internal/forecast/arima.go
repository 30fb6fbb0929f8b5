package forecast

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
)

const (
	maxP          = 5
	maxQ          = 5
	maxCandidates = 94
	minSigma2     = 1e-12
)

type arimaOrder struct {
	p, d, q  int
	constant bool
}

func (o arimaOrder) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.p, o.d, o.q)
}

// arimaFit is an ARMA(p,q) model fitted to the d-times differenced series.
type arimaFit struct {
	order  arimaOrder
	ar     []float64
	ma     []float64
	mu     float64
	sigma2 float64
	loglik float64
	aic    float64
	nobs   int

	y     []float64 // original observations
	w     []float64 // differenced observations
	resid []float64 // one-step residuals on the differenced scale
}

// autoARIMA picks d by repeated KPSS tests and (p, q, constant) by a stepwise
// AIC search around the best model seen so far.
func autoARIMA(y []float64) (*arimaFit, error) {
	if len(y) < 3 {
		return nil, errors.New("need at least 3 observations for ARIMA")
	}
	d := chooseDifferencing(y)
	w := y
	for i := 0; i < d; i++ {
		w = diff(w)
	}
	allowConstant := d <= 1
	// All candidates condition on the same leading values, so AICs compare one sample.
	cond := conditioningLength(len(w))
	allowZeroMean := d > 0 || meanNearZero(w)

	tried := make(map[arimaOrder]*arimaFit)
	var best *arimaFit
	try := func(o arimaOrder) bool {
		if o.p < 0 || o.q < 0 || o.p > cond || o.q > maxQ || (o.constant && !allowConstant) {
			return false
		}
		if !o.constant && !allowZeroMean {
			return false
		}
		if _, seen := tried[o]; seen || len(tried) >= maxCandidates {
			return false
		}
		fit, err := fitARMA(y, w, o, cond)
		tried[o] = fit
		if err != nil {
			return false
		}
		if best == nil || fit.aic < best.aic {
			best = fit
			return true
		}
		return false
	}

	try(arimaOrder{p: 2, d: d, q: 2, constant: allowConstant})
	try(arimaOrder{p: 0, d: d, q: 0, constant: allowConstant})
	try(arimaOrder{p: 1, d: d, q: 0, constant: allowConstant})
	try(arimaOrder{p: 0, d: d, q: 1, constant: allowConstant})
	try(arimaOrder{p: 0, d: d, q: 0, constant: false})
	if best == nil {
		return nil, errors.New("no viable ARIMA order")
	}

	for improved := true; improved; {
		improved = false
		c := best.order
		neighbours := []arimaOrder{
			{p: c.p - 1, d: d, q: c.q, constant: c.constant},
			{p: c.p + 1, d: d, q: c.q, constant: c.constant},
			{p: c.p, d: d, q: c.q - 1, constant: c.constant},
			{p: c.p, d: d, q: c.q + 1, constant: c.constant},
			{p: c.p - 1, d: d, q: c.q - 1, constant: c.constant},
			{p: c.p + 1, d: d, q: c.q + 1, constant: c.constant},
			{p: c.p - 1, d: d, q: c.q + 1, constant: c.constant},
			{p: c.p + 1, d: d, q: c.q - 1, constant: c.constant},
			{p: c.p, d: d, q: c.q, constant: !c.constant},
		}
		for _, o := range neighbours {
			if try(o) {
				improved = true
				break
			}
		}
	}
	return best, nil
}

// conditioningLength is how many leading differenced values every candidate
// conditions on. It is also the largest AR order the search may try.
func conditioningLength(n int) int {
	return min(maxP, max(0, (n-4)/4))
}

// meanNearZero reports whether the mean of x is within two standard errors of zero.
func meanNearZero(x []float64) bool {
	if len(x) < 2 {
		return len(x) == 1 && x[0] == 0
	}
	mean, std := stat.MeanStdDev(x, nil)
	return math.Abs(mean) <= 2*std/math.Sqrt(float64(len(x)))
}

// fitARMA estimates the model by conditional sum of squares over w[cond:].
// cond must be at least o.p. AR and MA coefficients are optimised through
// partial autocorrelations so every candidate is stationary and invertible.
func fitARMA(y, w []float64, o arimaOrder, cond int) (*arimaFit, error) {
	if cond < o.p {
		return nil, fmt.Errorf("%s: conditioning length %d below AR order", o, cond)
	}
	k := o.p + o.q + 1
	if o.constant {
		k++
	}
	nEff := len(w) - cond
	if nEff < k+2 {
		return nil, fmt.Errorf("%s: not enough observations", o)
	}

	x0 := make([]float64, o.p+o.q)
	if o.constant {
		x0 = append(x0, stat.Mean(w, nil))
	}
	unpack := func(x []float64) (ar, ma []float64, mu float64) {
		ar = pacfToCoefficients(x[:o.p])
		ma = pacfToCoefficients(x[o.p : o.p+o.q])
		for i := range ma {
			ma[i] = -ma[i]
		}
		if o.constant {
			mu = x[o.p+o.q]
		}
		return ar, ma, mu
	}
	objective := func(x []float64) float64 {
		ar, ma, mu := unpack(x)
		sse, _ := armaResiduals(w, ar, ma, mu, cond)
		return sse
	}

	x, sse, err := minimize(objective, x0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", o, err)
	}
	ar, ma, mu := unpack(x)
	_, resid := armaResiduals(w, ar, ma, mu, cond)

	sigma2 := math.Max(sse/float64(nEff), minSigma2)
	loglik := -0.5 * float64(nEff) * (math.Log(2*math.Pi*sigma2) + 1)
	fit := &arimaFit{
		order:  o,
		ar:     ar,
		ma:     ma,
		mu:     mu,
		sigma2: sigma2,
		loglik: loglik,
		aic:    -2*loglik + 2*float64(k),
		nobs:   len(y),
		y:      y,
		w:      w,
		resid:  resid,
	}
	if !finite(fit.aic) {
		return nil, fmt.Errorf("%s: %w", o, errNonFinite)
	}
	return fit, nil
}

// armaResiduals runs the ARMA recursion conditioned on the first start values.
// start must be at least len(ar).
func armaResiduals(w, ar, ma []float64, mu float64, start int) (float64, []float64) {
	resid := make([]float64, len(w))
	sse := 0.0
	for t := start; t < len(w); t++ {
		pred := mu
		for i, phi := range ar {
			pred += phi * (w[t-i-1] - mu)
		}
		for j, theta := range ma {
			if t-j-1 >= 0 {
				pred += theta * resid[t-j-1]
			}
		}
		resid[t] = w[t] - pred
		sse += resid[t] * resid[t]
	}
	return sse, resid
}

// pacfToCoefficients maps unconstrained values to the coefficients of a
// stationary AR polynomial via tanh and the Durbin-Levinson recursion.
func pacfToCoefficients(raw []float64) []float64 {
	n := len(raw)
	coef := make([]float64, n)
	prev := make([]float64, n)
	for k := 0; k < n; k++ {
		r := math.Tanh(raw[k])
		copy(prev, coef)
		coef[k] = r
		for j := 0; j < k; j++ {
			coef[j] = prev[j] - r*prev[k-1-j]
		}
	}
	return coef
}

// forecast returns the mean and prediction variance for steps 1..h on the original scale.
func (f *arimaFit) forecast(h int) (mean, variance []float64) {
	n := len(f.w)
	ext := make([]float64, n, n+h)
	copy(ext, f.w)
	res := make([]float64, n+h)
	copy(res, f.resid)

	wf := make([]float64, h)
	for s := 0; s < h; s++ {
		t := n + s
		pred := f.mu
		for i, phi := range f.ar {
			if t-i-1 >= 0 {
				pred += phi * (ext[t-i-1] - f.mu)
			}
		}
		for j, theta := range f.ma {
			if t-j-1 >= 0 {
				pred += theta * res[t-j-1]
			}
		}
		ext = append(ext, pred)
		wf[s] = pred
	}

	// Undo the differencing, innermost level first.
	last := make([]float64, f.order.d)
	level := f.y
	for k := 0; k < f.order.d; k++ {
		last[k] = level[len(level)-1]
		level = diff(level)
	}
	mean = make([]float64, h)
	for s, v := range wf {
		for k := f.order.d - 1; k >= 0; k-- {
			v += last[k]
			last[k] = v
		}
		mean[s] = v
	}

	psi := f.psiWeights(h)
	variance = make([]float64, h)
	acc := 0.0
	for s := 0; s < h; s++ {
		acc += psi[s] * psi[s]
		variance[s] = f.sigma2 * acc
	}
	return mean, variance
}

// psiWeights returns the MA(infinity) weights of the integrated model.
func (f *arimaFit) psiWeights(h int) []float64 {
	// poly holds 1 - phi_1 B - ... multiplied by (1-B)^d.
	poly := make([]float64, len(f.ar)+1)
	poly[0] = 1
	for i, phi := range f.ar {
		poly[i+1] = -phi
	}
	for k := 0; k < f.order.d; k++ {
		next := make([]float64, len(poly)+1)
		for i, c := range poly {
			next[i] += c
			next[i+1] -= c
		}
		poly = next
	}

	psi := make([]float64, h)
	psi[0] = 1
	for j := 1; j < h; j++ {
		v := 0.0
		if j <= len(f.ma) {
			v = f.ma[j-1]
		}
		for i := 1; i < len(poly) && i <= j; i++ {
			v += -poly[i] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}

func (f *arimaFit) summary() string {
	var b strings.Builder
	b.WriteString(f.order.String())
	switch {
	case f.order.constant && f.order.d == 0:
		b.WriteString(" with non-zero mean")
	case f.order.constant:
		b.WriteString(" with drift")
	}
	b.WriteString("\n\nCoefficients:\n")
	for i, v := range f.ar {
		fmt.Fprintf(&b, "  ar.L%-3d %12.4f\n", i+1, v)
	}
	for i, v := range f.ma {
		fmt.Fprintf(&b, "  ma.L%-3d %12.4f\n", i+1, v)
	}
	if f.order.constant {
		name := "mean"
		if f.order.d > 0 {
			name = "drift"
		}
		fmt.Fprintf(&b, "  %-7s %12.4f\n", name, f.mu)
	}
	if len(f.ar)+len(f.ma) == 0 && !f.order.constant {
		b.WriteString("  (none)\n")
	}
	fmt.Fprintf(&b, "\nsigma^2 = %.4f   log likelihood = %.2f   AIC = %.2f\n", f.sigma2, f.loglik, f.aic)
	fmt.Fprintf(&b, "Observations: %d\n", f.nobs)
	return b.String()
}
