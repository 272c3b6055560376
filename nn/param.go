// Package nn provides the building blocks shared by the classifiers:
// layers with explicit forward and backward passes, a numerically stable
// cross-entropy loss, and an AdamW optimizer. All layers take a seeded
// *rand.Rand at construction so runs are reproducible.
package nn

import (
	"math"
	"math/rand"
)

// Param is one learnable tensor, stored flat. Name identifies the tensor in
// state dictionaries; W and Grad always have equal length. Fields are
// exported for gob encoding.
type Param struct {
	Name string
	W    []float64
	Grad []float64
}

// NewParam allocates a zero-initialized parameter.
func NewParam(name string, size int) *Param {
	return &Param{
		Name: name,
		W:    make([]float64, size),
		Grad: make([]float64, size),
	}
}

// ZeroGrad clears the accumulated gradient.
func (p *Param) ZeroGrad() {
	for i := range p.Grad {
		p.Grad[i] = 0
	}
}

// xavierUniform fills w from U(-limit, limit) with limit = sqrt(6/(fanIn+fanOut)).
func xavierUniform(rng *rand.Rand, w []float64, fanIn, fanOut int) {
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * limit
	}
}

// normalInit fills w from N(0, std^2).
func normalInit(rng *rand.Rand, w []float64, std float64) {
	for i := range w {
		w[i] = rng.NormFloat64() * std
	}
}
