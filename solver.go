package returns

import (
	"errors"
	"math"
)

// This file implements the internal rate of return (IRR/XIRR) solver: a
// Newton-Raphson root finder specialized to the discounted-cashflow equation
//
//	f(r) = Σ cf_i / (1+r)^(Δdays_i/365)
//
// where Δdays_i is the number of days between entry i and the earliest entry
// of the series. The root r is the annualized rate making the net present
// value of the series zero.

var (
	// ErrNoCashflows is returned when the solver is invoked with no cashflows.
	ErrNoCashflows = errors.New("no cashflows to solve")
	// ErrNonConvergent is returned when the iteration cap is exceeded or the
	// candidate rate leaves the admissible range.
	ErrNonConvergent = errors.New("rate of return does not converge")
)

const (
	solverAbsTol        = 1e-4
	solverRelTol        = 1e-4
	solverMaxIterations = 50
	solverDamping       = 0.70
	// A rate below -100% or above +1000% is nonsensical for this domain.
	solverDivergeLow  = -1.0
	solverDivergeHigh = 10.0

	daysPerYear = 365.0
)

// Solve computes the annualized internal rate of return of the series, as a
// ratio (0.05 means +5% per year). It is a pure function of its input.
func Solve(series CashflowSeries) (float64, error) {
	anchor, ok := series.Earliest()
	if !ok {
		return 0, ErrNoCashflows
	}

	// Pre-compute the year offsets once; the closures are evaluated on every
	// Newton step.
	years := make([]float64, len(series))
	amounts := make([]float64, len(series))
	for i, e := range series {
		years[i] = float64(e.Date.Sub(anchor)) / daysPerYear
		amounts[i] = e.Amount.AsFloat()
	}

	f := func(rate float64) float64 {
		var sum float64
		for i := range amounts {
			sum += amounts[i] / math.Pow(1+rate, years[i])
		}
		return sum
	}
	df := func(rate float64) float64 {
		var sum float64
		for i := range amounts {
			sum += -years[i] * amounts[i] / math.Pow(1+rate, years[i]+1)
		}
		return sum
	}

	return newtonSolve(f, df, 0)
}

// RateOfReturn is Solve scaled to a displayable percentage.
func RateOfReturn(series CashflowSeries) (Percent, error) {
	rate, err := Solve(series)
	if err != nil {
		return 0, err
	}
	return Percent(rate * 100), nil
}

// newtonSolve runs a damped Newton-Raphson iteration from x0.
//
// The loop continues while |Δ| > absTol OR |Δ| > relTol*|x|: it stops only
// once both bounds are met. A zero derivative perturbs the candidate by
// +absTol instead of failing.
func newtonSolve(f, df func(float64) float64, x0 float64) (float64, error) {
	lastX := x0
	nextX := lastX + 10.0*solverAbsTol
	it := 0
	for math.Abs(lastX-nextX) > solverAbsTol || math.Abs(lastX-nextX) > solverRelTol*math.Abs(lastX) {
		it++
		if it > solverMaxIterations {
			return 0, ErrNonConvergent
		}
		y := f(nextX)
		lastX = nextX
		if nextX > solverDivergeHigh || nextX < solverDivergeLow {
			return 0, ErrNonConvergent
		}
		if d := df(nextX); d == 0 {
			nextX = lastX + solverAbsTol
		} else {
			nextX = lastX - solverDamping*y/d
		}
	}
	return nextX, nil
}
