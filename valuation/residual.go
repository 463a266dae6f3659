package valuation

import (
	"fmt"
	"time"

	"github.com/meenmo/curvekit/curve"
	"github.com/meenmo/curvekit/definition"
	"github.com/meenmo/curvekit/numeric"
)

// Curve is anything that returns discount factors in the arithmetic V.
type Curve[V any] interface {
	DF(d time.Time) V
}

type lifted[V any] struct {
	ops numeric.Arithmetic[V]
	c   *curve.Curve
}

func (l lifted[V]) DF(d time.Time) V { return l.ops.Const(l.c.DF(d)) }

// Lift exposes a calibrated curve as a constant in the arithmetic V.
func Lift[V any](ops numeric.Arithmetic[V], c *curve.Curve) Curve[V] {
	return lifted[V]{ops: ops, c: c}
}

// Residual returns the signed PV deviation from par per unit notional:
//
//	Deposit: P(s) - (1 + q*tau) * P(e)
//	OIS:     sum D(pay) * [(P(s)/P(e) - 1) - q*tau]
//	Swap:    sum_float D(pay) * (P(s)/P(e) - 1) - q * sum_fixed tau * D(pay)
//
// P is the projection curve and D the discount curve.
func Residual[V any](ops numeric.Arithmetic[V], h *Helper, projection, discount Curve[V]) V {
	switch h.Type {
	case definition.Deposit:
		p := h.Float[0]
		grown := ops.Scale(projection.DF(p.End), 1+h.Quote*p.Accrual)
		return ops.Sub(projection.DF(p.Start), grown)
	case definition.OIS:
		acc := ops.Const(0)
		for _, p := range h.Float {
			floating := ops.Sub(ops.Div(projection.DF(p.Start), projection.DF(p.End)), ops.Const(1))
			net := ops.Sub(floating, ops.Const(h.Quote*p.Accrual))
			acc = ops.Add(acc, ops.Mul(discount.DF(p.Pay), net))
		}
		return acc
	case definition.Swap:
		floatPV := ops.Const(0)
		for _, p := range h.Float {
			floating := ops.Sub(ops.Div(projection.DF(p.Start), projection.DF(p.End)), ops.Const(1))
			floatPV = ops.Add(floatPV, ops.Mul(discount.DF(p.Pay), floating))
		}
		annuity := ops.Const(0)
		for _, p := range h.Fixed {
			annuity = ops.Add(annuity, ops.Scale(discount.DF(p.Pay), p.Accrual))
		}
		return ops.Sub(floatPV, ops.Scale(annuity, h.Quote))
	}
	panic(fmt.Sprintf("valuation: unsupported instrument type %q", h.Type))
}

// Evaluate prices h against the curve under construction, discounting on the
// helper's exogenous curve when it has one.
func Evaluate[V any](ops numeric.Arithmetic[V], h *Helper, projection Curve[V]) V {
	discount := projection
	if h.Discount != nil {
		discount = Lift(ops, h.Discount)
	}
	return Residual(ops, h, projection, discount)
}

// ParRate reprices h on calibrated curves and returns the rate that would
// zero its residual. discount may be nil for self-discounting.
func ParRate(h *Helper, projection, discount *curve.Curve) float64 {
	if discount == nil {
		discount = projection
	}
	switch h.Type {
	case definition.Deposit:
		p := h.Float[0]
		return (projection.DF(p.Start)/projection.DF(p.End) - 1) / p.Accrual
	case definition.OIS:
		var num, den float64
		for _, p := range h.Float {
			df := discount.DF(p.Pay)
			num += df * (projection.DF(p.Start)/projection.DF(p.End) - 1)
			den += df * p.Accrual
		}
		return num / den
	case definition.Swap:
		var num, den float64
		for _, p := range h.Float {
			num += discount.DF(p.Pay) * (projection.DF(p.Start)/projection.DF(p.End) - 1)
		}
		for _, p := range h.Fixed {
			den += discount.DF(p.Pay) * p.Accrual
		}
		return num / den
	}
	panic(fmt.Sprintf("valuation: unsupported instrument type %q", h.Type))
}
