package nn

import (
	"math"
	"math/rand"
)

// Embedding is a lookup table from integer ids to dense vectors.
// Initialized from N(0, 0.02^2).
type Embedding struct {
	NumEmbeddings int
	Dim           int
	Weight        *Param

	ids [][]int
}

// NewEmbedding creates an embedding table with numEmbeddings rows of dim
// columns.
func NewEmbedding(name string, numEmbeddings, dim int, rng *rand.Rand) *Embedding {
	e := &Embedding{
		NumEmbeddings: numEmbeddings,
		Dim:           dim,
		Weight:        NewParam(name, numEmbeddings*dim),
	}
	normalInit(rng, e.Weight.W, 0.02)
	return e
}

// Forward looks up one vector per id. Output shape is batch x seq x dim.
func (e *Embedding) Forward(ids [][]int) [][][]float64 {
	e.ids = ids
	out := make([][][]float64, len(ids))
	for b, row := range ids {
		seq := make([][]float64, len(row))
		for t, id := range row {
			v := make([]float64, e.Dim)
			copy(v, e.Weight.W[id*e.Dim:(id+1)*e.Dim])
			seq[t] = v
		}
		out[b] = seq
	}
	return out
}

// Backward scatter-adds the upstream gradient into the rows that were
// looked up. Repeated ids accumulate.
func (e *Embedding) Backward(dOut [][][]float64) {
	for b, row := range e.ids {
		for t, id := range row {
			g := e.Weight.Grad[id*e.Dim : (id+1)*e.Dim]
			for k, d := range dOut[b][t] {
				g[k] += d
			}
		}
	}
}

// Parameters returns the embedding table.
func (e *Embedding) Parameters() []*Param { return []*Param{e.Weight} }

// Linear is a fully connected layer y = xW^T + b over rows of features.
// Weight is laid out row-major as Out x In.
type Linear struct {
	In, Out int
	Weight  *Param
	Bias    *Param

	x [][]float64
}

// NewLinear creates a linear layer with Xavier-uniform weights and zero bias.
func NewLinear(name string, in, out int, rng *rand.Rand) *Linear {
	l := &Linear{
		In:     in,
		Out:    out,
		Weight: NewParam(name+".weight", out*in),
		Bias:   NewParam(name+".bias", out),
	}
	xavierUniform(rng, l.Weight.W, in, out)
	return l
}

// Forward applies the layer to each row of x. Rows must have length In.
func (l *Linear) Forward(x [][]float64) [][]float64 {
	l.x = x
	out := make([][]float64, len(x))
	for r, row := range x {
		y := make([]float64, l.Out)
		for o := 0; o < l.Out; o++ {
			w := l.Weight.W[o*l.In : (o+1)*l.In]
			s := l.Bias.W[o]
			for i, v := range row {
				s += w[i] * v
			}
			y[o] = s
		}
		out[r] = y
	}
	return out
}

// Backward accumulates weight and bias gradients from the cached input and
// returns the gradient with respect to x.
func (l *Linear) Backward(dOut [][]float64) [][]float64 {
	dx := make([][]float64, len(l.x))
	for r, row := range l.x {
		d := dOut[r]
		dxr := make([]float64, l.In)
		for o := 0; o < l.Out; o++ {
			g := d[o]
			l.Bias.Grad[o] += g
			w := l.Weight.W[o*l.In : (o+1)*l.In]
			wg := l.Weight.Grad[o*l.In : (o+1)*l.In]
			for i, v := range row {
				wg[i] += g * v
				dxr[i] += g * w[i]
			}
		}
		dx[r] = dxr
	}
	return dx
}

// Parameters returns weight and bias.
func (l *Linear) Parameters() []*Param { return []*Param{l.Weight, l.Bias} }

// LayerNorm normalizes each row to zero mean and unit variance, then applies
// a learned elementwise scale and shift.
type LayerNorm struct {
	Dim   int
	Eps   float64
	Gamma *Param
	Beta  *Param

	xhat   [][]float64
	invStd []float64
}

// NewLayerNorm creates a layer norm with gamma=1, beta=0.
func NewLayerNorm(name string, dim int) *LayerNorm {
	ln := &LayerNorm{
		Dim:   dim,
		Eps:   1e-12,
		Gamma: NewParam(name+".gamma", dim),
		Beta:  NewParam(name+".beta", dim),
	}
	for i := range ln.Gamma.W {
		ln.Gamma.W[i] = 1
	}
	return ln
}

// Forward normalizes each row of x.
func (ln *LayerNorm) Forward(x [][]float64) [][]float64 {
	ln.xhat = make([][]float64, len(x))
	ln.invStd = make([]float64, len(x))
	out := make([][]float64, len(x))
	n := float64(ln.Dim)
	for r, row := range x {
		mean := 0.0
		for _, v := range row {
			mean += v
		}
		mean /= n
		variance := 0.0
		for _, v := range row {
			d := v - mean
			variance += d * d
		}
		variance /= n
		inv := 1.0 / math.Sqrt(variance+ln.Eps)
		ln.invStd[r] = inv

		xhat := make([]float64, ln.Dim)
		y := make([]float64, ln.Dim)
		for i, v := range row {
			xhat[i] = (v - mean) * inv
			y[i] = xhat[i]*ln.Gamma.W[i] + ln.Beta.W[i]
		}
		ln.xhat[r] = xhat
		out[r] = y
	}
	return out
}

// Backward accumulates gamma/beta gradients and returns dX.
func (ln *LayerNorm) Backward(dOut [][]float64) [][]float64 {
	dx := make([][]float64, len(dOut))
	n := float64(ln.Dim)
	for r, d := range dOut {
		xhat := ln.xhat[r]
		inv := ln.invStd[r]

		// Per-row reductions of dxhat and dxhat*xhat.
		sumD := 0.0
		sumDX := 0.0
		dxhat := make([]float64, ln.Dim)
		for i, g := range d {
			ln.Gamma.Grad[i] += g * xhat[i]
			ln.Beta.Grad[i] += g
			dxhat[i] = g * ln.Gamma.W[i]
			sumD += dxhat[i]
			sumDX += dxhat[i] * xhat[i]
		}

		dxr := make([]float64, ln.Dim)
		for i := range dxhat {
			dxr[i] = inv * (dxhat[i] - sumD/n - xhat[i]*sumDX/n)
		}
		dx[r] = dxr
	}
	return dx
}

// Parameters returns gamma and beta.
func (ln *LayerNorm) Parameters() []*Param { return []*Param{ln.Gamma, ln.Beta} }

// Dropout zeroes activations with probability P during training and scales
// the survivors by 1/(1-P). In evaluation mode it is the identity.
type Dropout struct {
	P float64

	rng      *rand.Rand
	training bool
	mask     [][]float64
}

// NewDropout creates a dropout layer with drop probability p.
func NewDropout(p float64, rng *rand.Rand) *Dropout {
	return &Dropout{P: p, rng: rng}
}

// SetTraining toggles between training and evaluation behavior.
func (d *Dropout) SetTraining(training bool) { d.training = training }

// Forward applies the dropout mask to each row of x.
func (d *Dropout) Forward(x [][]float64) [][]float64 {
	if !d.training || d.P == 0 {
		d.mask = nil
		return x
	}
	scale := 1.0 / (1.0 - d.P)
	d.mask = make([][]float64, len(x))
	out := make([][]float64, len(x))
	for r, row := range x {
		m := make([]float64, len(row))
		y := make([]float64, len(row))
		for i, v := range row {
			if d.rng.Float64() >= d.P {
				m[i] = scale
				y[i] = v * scale
			}
		}
		d.mask[r] = m
		out[r] = y
	}
	return out
}

// Backward routes the gradient through the mask used in the last Forward.
func (d *Dropout) Backward(dOut [][]float64) [][]float64 {
	if d.mask == nil {
		return dOut
	}
	dx := make([][]float64, len(dOut))
	for r, row := range dOut {
		dxr := make([]float64, len(row))
		for i, g := range row {
			dxr[i] = g * d.mask[r][i]
		}
		dx[r] = dxr
	}
	return dx
}

// ReLU is the rectified linear activation.
type ReLU struct {
	mask [][]bool
}

// Forward zeroes negative entries.
func (a *ReLU) Forward(x [][]float64) [][]float64 {
	a.mask = make([][]bool, len(x))
	out := make([][]float64, len(x))
	for r, row := range x {
		m := make([]bool, len(row))
		y := make([]float64, len(row))
		for i, v := range row {
			if v > 0 {
				m[i] = true
				y[i] = v
			}
		}
		a.mask[r] = m
		out[r] = y
	}
	return out
}

// Backward passes gradient only where the input was positive.
func (a *ReLU) Backward(dOut [][]float64) [][]float64 {
	dx := make([][]float64, len(dOut))
	for r, row := range dOut {
		dxr := make([]float64, len(row))
		for i, g := range row {
			if a.mask[r][i] {
				dxr[i] = g
			}
		}
		dx[r] = dxr
	}
	return dx
}

const geluC = 0.7978845608028654 // sqrt(2/pi)
const geluA = 0.044715

// GELU is the Gaussian error linear unit, tanh approximation.
type GELU struct {
	x [][]float64
}

// Forward applies 0.5*x*(1+tanh(sqrt(2/pi)*(x+0.044715*x^3))).
func (a *GELU) Forward(x [][]float64) [][]float64 {
	a.x = x
	out := make([][]float64, len(x))
	for r, row := range x {
		y := make([]float64, len(row))
		for i, v := range row {
			u := geluC * (v + geluA*v*v*v)
			y[i] = 0.5 * v * (1 + math.Tanh(u))
		}
		out[r] = y
	}
	return out
}

// Backward applies the analytic derivative of the tanh approximation.
func (a *GELU) Backward(dOut [][]float64) [][]float64 {
	dx := make([][]float64, len(dOut))
	for r, row := range dOut {
		dxr := make([]float64, len(row))
		for i, g := range row {
			v := a.x[r][i]
			u := geluC * (v + geluA*v*v*v)
			t := math.Tanh(u)
			du := geluC * (1 + 3*geluA*v*v)
			dxr[i] = g * (0.5*(1+t) + 0.5*v*(1-t*t)*du)
		}
		dx[r] = dxr
	}
	return dx
}

// Tanh is the hyperbolic tangent activation.
type Tanh struct {
	y [][]float64
}

// Forward applies tanh elementwise and caches the output.
func (a *Tanh) Forward(x [][]float64) [][]float64 {
	a.y = make([][]float64, len(x))
	for r, row := range x {
		y := make([]float64, len(row))
		for i, v := range row {
			y[i] = math.Tanh(v)
		}
		a.y[r] = y
	}
	return a.y
}

// Backward uses d tanh(x)/dx = 1 - tanh(x)^2.
func (a *Tanh) Backward(dOut [][]float64) [][]float64 {
	dx := make([][]float64, len(dOut))
	for r, row := range dOut {
		dxr := make([]float64, len(row))
		for i, g := range row {
			y := a.y[r][i]
			dxr[i] = g * (1 - y*y)
		}
		dx[r] = dxr
	}
	return dx
}
