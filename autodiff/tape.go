// Package autodiff implements reverse-mode automatic differentiation over a
// flat tape. A Tape satisfies numeric.Arithmetic[Var], so any formula written
// against that interface can be evaluated and differentiated exactly.
package autodiff

import "math"

// Var is a handle to a value recorded on a Tape.
type Var struct {
	id int
}

type node struct {
	value    float64
	parents  [2]int
	partials [2]float64
	arity    int
}

// Tape records every operation so the adjoints can be swept backwards.
// A Tape is not safe for concurrent use.
type Tape struct {
	nodes []node
}

// NewTape returns an empty tape.
func NewTape() *Tape {
	return &Tape{nodes: make([]node, 0, 256)}
}

func (t *Tape) push(n node) Var {
	t.nodes = append(t.nodes, n)
	return Var{id: len(t.nodes) - 1}
}

func (t *Tape) unary(value float64, a Var, da float64) Var {
	return t.push(node{value: value, parents: [2]int{a.id}, partials: [2]float64{da}, arity: 1})
}

func (t *Tape) binary(value float64, a Var, da float64, b Var, db float64) Var {
	return t.push(node{value: value, parents: [2]int{a.id, b.id}, partials: [2]float64{da, db}, arity: 2})
}

// Variable records an independent input.
func (t *Tape) Variable(x float64) Var {
	return t.push(node{value: x})
}

// Variables records one independent input per element of xs.
func (t *Tape) Variables(xs []float64) []Var {
	out := make([]Var, len(xs))
	for i, x := range xs {
		out[i] = t.Variable(x)
	}
	return out
}

// Len is the number of recorded nodes.
func (t *Tape) Len() int {
	return len(t.nodes)
}

func (t *Tape) Const(x float64) Var {
	return t.push(node{value: x})
}

func (t *Tape) Value(a Var) float64 {
	return t.nodes[a.id].value
}

func (t *Tape) Add(a, b Var) Var {
	return t.binary(t.Value(a)+t.Value(b), a, 1, b, 1)
}

func (t *Tape) Sub(a, b Var) Var {
	return t.binary(t.Value(a)-t.Value(b), a, 1, b, -1)
}

func (t *Tape) Mul(a, b Var) Var {
	va, vb := t.Value(a), t.Value(b)
	return t.binary(va*vb, a, vb, b, va)
}

func (t *Tape) Div(a, b Var) Var {
	va, vb := t.Value(a), t.Value(b)
	return t.binary(va/vb, a, 1/vb, b, -va/(vb*vb))
}

func (t *Tape) Scale(a Var, k float64) Var {
	return t.unary(t.Value(a)*k, a, k)
}

func (t *Tape) Exp(a Var) Var {
	v := math.Exp(t.Value(a))
	return t.unary(v, a, v)
}

func (t *Tape) Log(a Var) Var {
	va := t.Value(a)
	return t.unary(math.Log(va), a, 1/va)
}

// Gradient sweeps the tape backwards from out and returns d(out)/d(wrt[i]).
func (t *Tape) Gradient(out Var, wrt []Var) []float64 {
	adj := make([]float64, out.id+1)
	adj[out.id] = 1
	for i := out.id; i >= 0; i-- {
		a := adj[i]
		if a == 0 {
			continue
		}
		n := &t.nodes[i]
		for k := 0; k < n.arity; k++ {
			adj[n.parents[k]] += a * n.partials[k]
		}
	}

	grad := make([]float64, len(wrt))
	for i, w := range wrt {
		if w.id <= out.id {
			grad[i] = adj[w.id]
		}
	}
	return grad
}
