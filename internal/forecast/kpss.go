package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// kpssCritical is the 5% critical value of the KPSS level-stationarity test.
const kpssCritical = 0.463

const maxDifferencing = 2

// kpssStatistic computes the KPSS level-stationarity statistic with a
// Bartlett-weighted long-run variance and the short lag truncation.
func kpssStatistic(x []float64) float64 {
	n := len(x)
	mean := stat.Mean(x, nil)
	resid := make([]float64, n)
	for i, v := range x {
		resid[i] = v - mean
	}

	var partial, eta float64
	for _, e := range resid {
		partial += e
		eta += partial * partial
	}
	eta /= float64(n) * float64(n)

	lags := int(math.Trunc(3 * math.Sqrt(float64(n)) / 13))
	s2 := 0.0
	for _, e := range resid {
		s2 += e * e
	}
	for s := 1; s <= lags; s++ {
		cov := 0.0
		for t := s; t < n; t++ {
			cov += resid[t] * resid[t-s]
		}
		s2 += 2 * (1 - float64(s)/float64(lags+1)) * cov
	}
	s2 /= float64(n)
	if s2 <= 0 {
		return 0
	}
	return eta / s2
}

// chooseDifferencing returns how many times x must be differenced before the
// KPSS test stops rejecting stationarity.
func chooseDifferencing(x []float64) int {
	d := 0
	for d < maxDifferencing && len(x) > 3 && !isConstant(x) {
		if kpssStatistic(x) < kpssCritical {
			break
		}
		x = diff(x)
		d++
	}
	return d
}
