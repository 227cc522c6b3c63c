// Package nn implements the small three-layer feed-forward networks used
// by the charge and monoisotope determinators, and a modernc.org/kv-backed
// repository for their weights.
package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Weights holds the parameters of one three-layer network: two ReLU
// hidden layers followed by a sigmoid output layer, per spec.md §4.C/§4.D.
type Weights struct {
	W1, W2, W3 *mat.Dense
	B1, B2, B3 *mat.VecDense
}

// Net is a read-only, shared-after-construction feed-forward network.
type Net struct {
	w Weights
}

// NewNet wraps a Weights value as a Net.
func NewNet(w Weights) *Net {
	return &Net{w: w}
}

// Forward runs the three-layer forward pass: (W1*x+b1) ReLU,
// (W2*x+b2) ReLU, (W3*x+b3) sigmoid.
func (n *Net) Forward(x []float64) []float64 {
	in := mat.NewVecDense(len(x), x)

	h1 := affine(n.w.W1, n.w.B1, in)
	relu(h1)

	h2 := affine(n.w.W2, n.w.B2, h1)
	relu(h2)

	out := affine(n.w.W3, n.w.B3, h2)
	sigmoid(out)

	res := make([]float64, out.Len())
	for i := range res {
		res[i] = out.AtVec(i)
	}
	return res
}

func affine(w *mat.Dense, b *mat.VecDense, x *mat.VecDense) *mat.VecDense {
	r, _ := w.Dims()
	out := mat.NewVecDense(r, nil)
	out.MulVec(w, x)
	out.AddVec(out, b)
	return out
}

func relu(v *mat.VecDense) {
	for i := 0; i < v.Len(); i++ {
		if v.AtVec(i) < 0 {
			v.SetVec(i, 0)
		}
	}
}

func sigmoid(v *mat.VecDense) {
	for i := 0; i < v.Len(); i++ {
		v.SetVec(i, 1/(1+math.Exp(-v.AtVec(i))))
	}
}

// ArgMax returns the index of the largest element of v, with ties broken
// toward the smaller index.
func ArgMax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
