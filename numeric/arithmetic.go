// Package numeric holds the small numerical kernel shared by the curve
// interpolation, the instrument valuation and the calibrators.
package numeric

import "math"

// Arithmetic abstracts the operations a pricing formula needs so the same
// formula can run on plain floats or on a differentiation tape.
type Arithmetic[V any] interface {
	Const(x float64) V
	Add(a, b V) V
	Sub(a, b V) V
	Mul(a, b V) V
	Div(a, b V) V
	Scale(a V, k float64) V
	Exp(a V) V
	Log(a V) V
	Value(a V) float64
}

// Float is the plain float64 implementation of Arithmetic.
type Float struct{}

func (Float) Const(x float64) float64            { return x }
func (Float) Add(a, b float64) float64           { return a + b }
func (Float) Sub(a, b float64) float64           { return a - b }
func (Float) Mul(a, b float64) float64           { return a * b }
func (Float) Div(a, b float64) float64           { return a / b }
func (Float) Scale(a float64, k float64) float64 { return a * k }
func (Float) Exp(a float64) float64              { return math.Exp(a) }
func (Float) Log(a float64) float64              { return math.Log(a) }
func (Float) Value(a float64) float64            { return a }

// Sum adds a slice of values.
func Sum[V any](ops Arithmetic[V], xs []V) V {
	acc := ops.Const(0)
	for _, x := range xs {
		acc = ops.Add(acc, x)
	}
	return acc
}
