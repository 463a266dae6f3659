package curve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/meenmo/curvekit/numeric"
)

// Interpolation selects both the quantity stored at the pillars and the law
// used between them.
type Interpolation string

const (
	// LogLinear stores discount factors and interpolates log(DF) linearly,
	// i.e. piecewise-flat instantaneous forwards.
	LogLinear Interpolation = "LogLinear"
	// Linear stores continuously-compounded zero rates and interpolates them linearly.
	Linear Interpolation = "Linear"
)

// ParseInterpolation validates an interpolation name.
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "loglinear", "log-linear", "loglineardiscount":
		return LogLinear, nil
	case "linear", "linearzero":
		return Linear, nil
	}
	return "", fmt.Errorf("unknown interpolation %q", s)
}

// Valid reports whether i is a member of the enumeration.
func (i Interpolation) Valid() bool {
	return i == LogLinear || i == Linear
}

// StoresDiscountFactors reports whether pillar values are discount factors
// (as opposed to zero rates).
func (i Interpolation) StoresDiscountFactors() bool {
	return i == LogLinear
}

// EntityType is the role a curve plays in valuation.
type EntityType string

const (
	Discount EntityType = "Discount"
	Forward  EntityType = "Forward"
)

// ParseEntityType validates an entity type name.
func ParseEntityType(s string) (EntityType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "discount":
		return Discount, nil
	case "forward", "projection":
		return Forward, nil
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// Valid reports whether e is a member of the enumeration.
func (e EntityType) Valid() bool {
	return e == Discount || e == Forward
}

// segment returns i such that [pillars[i], pillars[i+1]] is the interval used
// for t, clamped to the first and last intervals.
func segment(pillars []float64, t float64) int {
	idx := sort.SearchFloat64s(pillars, t)
	i := idx - 1
	if i < 0 {
		i = 0
	}
	if i > len(pillars)-2 {
		i = len(pillars) - 2
	}
	return i
}

// DiscountAt evaluates the interpolation law at time t. It is generic over the
// arithmetic so the calibrators can run the exact same law on a
// differentiation tape. Beyond the last pillar the law is extended in its
// natural terms: the last forward rate for LogLinear, the last zero rate for
// Linear.
func DiscountAt[V any](ops numeric.Arithmetic[V], interp Interpolation, pillars []float64, values []V, t float64) V {
	n := len(pillars)
	if n == 0 {
		return ops.Const(1)
	}

	if interp == Linear {
		return ops.Exp(ops.Scale(zeroAt(ops, pillars, values, t), -t))
	}

	// LogLinear on discount factors.
	if n == 1 || t <= pillars[0] {
		return values[0]
	}
	i := segment(pillars, t)
	t0, t1 := pillars[i], pillars[i+1]
	switch t {
	case t0:
		return values[i]
	case t1:
		return values[i+1]
	}
	w := (t - t0) / (t1 - t0)
	logDF := ops.Add(ops.Scale(ops.Log(values[i]), 1-w), ops.Scale(ops.Log(values[i+1]), w))
	return ops.Exp(logDF)
}

func zeroAt[V any](ops numeric.Arithmetic[V], pillars []float64, values []V, t float64) V {
	n := len(pillars)
	if t <= pillars[0] {
		return values[0]
	}
	if t >= pillars[n-1] {
		return values[n-1]
	}
	i := segment(pillars, t)
	t0, t1 := pillars[i], pillars[i+1]
	if t == t1 {
		return values[i+1]
	}
	w := (t - t0) / (t1 - t0)
	return ops.Add(ops.Scale(values[i], 1-w), ops.Scale(values[i+1], w))
}
