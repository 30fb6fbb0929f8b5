package forecast

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/optimize"
)

var errNonFinite = errors.New("objective did not converge to a finite value")

const (
	maxIterations  = 2000
	maxEvaluations = 8000
)

// minimize runs Nelder-Mead from x0. A problem with no parameters is simply evaluated.
func minimize(f func(x []float64) float64, x0 []float64) ([]float64, float64, error) {
	if len(x0) == 0 {
		v := f(nil)
		if !finite(v) {
			return nil, v, errNonFinite
		}
		return nil, v, nil
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			v := f(x)
			if math.IsNaN(v) {
				return math.Inf(1)
			}
			return v
		},
	}
	settings := &optimize.Settings{
		MajorIterations: maxIterations,
		FuncEvaluations: maxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 100,
		},
	}
	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if res == nil {
		if err == nil {
			err = errNonFinite
		}
		return nil, math.NaN(), err
	}
	// Hitting an iteration limit still leaves a usable best point.
	if !finite(res.F) {
		return nil, res.F, errNonFinite
	}
	return res.X, res.F, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func sqrt(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

func diff(x []float64) []float64 {
	if len(x) < 2 {
		return nil
	}
	out := make([]float64, len(x)-1)
	for i := 1; i < len(x); i++ {
		out[i-1] = x[i] - x[i-1]
	}
	return out
}

func isConstant(x []float64) bool {
	if len(x) == 0 {
		return true
	}
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}
