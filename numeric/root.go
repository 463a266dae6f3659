package numeric

import (
	"fmt"
	"math"
)

// RootSettings bounds the 1-D root search.
type RootSettings struct {
	// Tolerance is the absolute residual accepted as a root.
	Tolerance float64
	// MaxIterations caps the Newton iterations.
	MaxIterations int
	// DampingFactor limits each step to DampingFactor * max(|x|, 1).
	DampingFactor float64
	// DerivativeThreshold stops the iteration when |f'(x)| falls below it.
	DerivativeThreshold float64
}

// DefaultRootSettings mirrors the defaults in config.DefaultSolver.
var DefaultRootSettings = RootSettings{
	Tolerance:           1e-12,
	MaxIterations:       100,
	DampingFactor:       0.5,
	DerivativeThreshold: 1e-15,
}

// Bracket is the open interval a root must lie in.
type Bracket struct {
	Lo, Hi float64
}

// Objective returns f(x) and f'(x).
type Objective func(x float64) (f, df float64)

// ConvergenceError reports a root search that hit its iteration cap or a flat derivative.
type ConvergenceError struct {
	Iterations int
	Last       float64
	Residual   float64
	Reason     string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("root search did not converge after %d iterations (%s; x=%.12g, residual=%.3g)",
		e.Iterations, e.Reason, e.Last, e.Residual)
}

// Root is a converged root together with the work it took.
type Root struct {
	X          float64
	Residual   float64
	Iterations int
}

// SolveRoot runs a damped Newton iteration from guess, falling back to
// bisection toward the bracket whenever a step leaves it.
func SolveRoot(fn Objective, guess float64, b Bracket, s RootSettings) (Root, error) {
	x := guess
	if x <= b.Lo || x >= b.Hi {
		x = 0.5 * (b.Lo + b.Hi)
	}

	residual := math.NaN()
	reason := "iteration cap reached"
	iters := 0
	for iter := 1; iter <= s.MaxIterations; iter++ {
		iters = iter
		f, df := fn(x)

		// Robust checks for NaN/Inf: retreat toward the bracket midpoint.
		if math.IsNaN(f) || math.IsInf(f, 0) || math.IsNaN(df) || math.IsInf(df, 0) {
			x = 0.5 * (x + 0.5*(b.Lo+b.Hi))
			continue
		}
		residual = f

		if math.Abs(f) < s.Tolerance {
			return Root{X: x, Residual: f, Iterations: iter}, nil
		}

		if math.Abs(df) < s.DerivativeThreshold {
			reason = "derivative vanished"
			break
		}

		delta := f / df

		// Damping
		maxStep := s.DampingFactor * math.Max(math.Abs(x), 1)
		if s.DampingFactor > 0 && math.Abs(delta) > maxStep {
			delta = math.Copysign(maxStep, delta)
		}

		next := x - delta
		switch {
		case next <= b.Lo:
			next = 0.5 * (x + b.Lo)
		case next >= b.Hi:
			next = 0.5 * (x + b.Hi)
		}
		x = next
	}

	return Root{}, &ConvergenceError{
		Iterations: iters,
		Last:       x,
		Residual:   residual,
		Reason:     reason,
	}
}
