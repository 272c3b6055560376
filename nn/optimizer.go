package nn

import "math"

// AdamW is Adam with decoupled weight decay. Moment buffers are allocated
// per parameter at construction.
type AdamW struct {
	LR          float64
	Beta1       float64
	Beta2       float64
	Eps         float64
	WeightDecay float64

	params []*Param
	step   int
	m      [][]float64
	v      [][]float64
}

// NewAdamW creates an optimizer over params with the usual defaults
// (beta1=0.9, beta2=0.999, eps=1e-8, weight decay 0.01).
func NewAdamW(params []*Param, lr float64) *AdamW {
	o := &AdamW{
		LR:          lr,
		Beta1:       0.9,
		Beta2:       0.999,
		Eps:         1e-8,
		WeightDecay: 0.01,
		params:      params,
		m:           make([][]float64, len(params)),
		v:           make([][]float64, len(params)),
	}
	for i, p := range params {
		o.m[i] = make([]float64, len(p.W))
		o.v[i] = make([]float64, len(p.W))
	}
	return o
}

// ZeroGrad clears all parameter gradients.
func (o *AdamW) ZeroGrad() {
	for _, p := range o.params {
		p.ZeroGrad()
	}
}

// Step applies one update from the accumulated gradients. Weight decay is
// applied directly to the weights, not through the moments.
func (o *AdamW) Step() {
	o.step++
	bc1 := 1 - math.Pow(o.Beta1, float64(o.step))
	bc2 := 1 - math.Pow(o.Beta2, float64(o.step))

	for i, p := range o.params {
		m := o.m[i]
		v := o.v[i]
		for j, g := range p.Grad {
			p.W[j] -= o.LR * o.WeightDecay * p.W[j]

			m[j] = o.Beta1*m[j] + (1-o.Beta1)*g
			v[j] = o.Beta2*v[j] + (1-o.Beta2)*g*g
			mhat := m[j] / bc1
			vhat := v[j] / bc2
			p.W[j] -= o.LR * mhat / (math.Sqrt(vhat) + o.Eps)
		}
	}
}
