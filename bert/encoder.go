package bert

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/YuminosukeSato/tagtext/nn"
)

// maskedBias is added to attention scores at padded key positions so their
// post-softmax weight vanishes.
const maskedBias = -1e9

// TransformerLayer is one pre-activation block: multi-head self-attention
// with residual and layer norm, then a GELU feed-forward with residual and
// layer norm. Activations flow as flattened (batch*seq) rows.
type TransformerLayer struct {
	cfg Config

	query  *nn.Linear
	key    *nn.Linear
	value  *nn.Linear
	output *nn.Linear

	attnNorm *nn.LayerNorm
	attnDrop *nn.Dropout

	ffIn   *nn.Linear
	ffAct  *nn.GELU
	ffOut  *nn.Linear
	ffNorm *nn.LayerNorm
	ffDrop *nn.Dropout

	// Forward caches for the backward pass.
	x     [][]float64
	q     [][]float64
	k     [][]float64
	v     [][]float64
	probs [][][]float64 // one T x T matrix per (example, head)
	y1    [][]float64
	batch int
	seq   int
}

// NewTransformerLayer creates layer number idx of the stack.
func NewTransformerLayer(cfg Config, idx int, rng *rand.Rand) *TransformerLayer {
	prefix := fmt.Sprintf("encoder.%d", idx)
	h := cfg.HiddenSize
	return &TransformerLayer{
		cfg:      cfg,
		query:    nn.NewLinear(prefix+".attn.query", h, h, rng),
		key:      nn.NewLinear(prefix+".attn.key", h, h, rng),
		value:    nn.NewLinear(prefix+".attn.value", h, h, rng),
		output:   nn.NewLinear(prefix+".attn.output", h, h, rng),
		attnNorm: nn.NewLayerNorm(prefix+".attn.norm", h),
		attnDrop: nn.NewDropout(cfg.Dropout, rng),
		ffIn:     nn.NewLinear(prefix+".ff.in", h, cfg.FFSize, rng),
		ffAct:    &nn.GELU{},
		ffOut:    nn.NewLinear(prefix+".ff.out", cfg.FFSize, h, rng),
		ffNorm:   nn.NewLayerNorm(prefix+".ff.norm", h),
		ffDrop:   nn.NewDropout(cfg.Dropout, rng),
	}
}

// Forward runs the layer over flattened rows. mask marks real tokens with 1
// and padding with 0; padded key positions receive maskedBias before the
// attention softmax.
func (l *TransformerLayer) Forward(x [][]float64, mask [][]int, batch, seq int) [][]float64 {
	l.x = x
	l.batch = batch
	l.seq = seq

	l.q = l.query.Forward(x)
	l.k = l.key.Forward(x)
	l.v = l.value.Forward(x)

	heads := l.cfg.NumHeads
	dk := l.cfg.HiddenSize / heads
	scale := 1.0 / math.Sqrt(float64(dk))

	l.probs = make([][][]float64, batch*heads)
	ctx := make([][]float64, batch*seq)
	for i := range ctx {
		ctx[i] = make([]float64, l.cfg.HiddenSize)
	}

	for b := 0; b < batch; b++ {
		for a := 0; a < heads; a++ {
			off := a * dk
			probs := make([][]float64, seq)
			for ti := 0; ti < seq; ti++ {
				qi := l.q[b*seq+ti][off : off+dk]
				scores := make([]float64, seq)
				for tj := 0; tj < seq; tj++ {
					kj := l.k[b*seq+tj][off : off+dk]
					s := 0.0
					for d := 0; d < dk; d++ {
						s += qi[d] * kj[d]
					}
					s *= scale
					if mask[b][tj] == 0 {
						s += maskedBias
					}
					scores[tj] = s
				}
				probs[ti] = softmaxRow(scores)
			}
			l.probs[b*heads+a] = probs

			for ti := 0; ti < seq; ti++ {
				out := ctx[b*seq+ti][off : off+dk]
				for tj := 0; tj < seq; tj++ {
					p := probs[ti][tj]
					if p == 0 {
						continue
					}
					vj := l.v[b*seq+tj][off : off+dk]
					for d := 0; d < dk; d++ {
						out[d] += p * vj[d]
					}
				}
			}
		}
	}

	attnOut := l.attnDrop.Forward(l.output.Forward(ctx))
	r1 := addRows(x, attnOut)
	l.y1 = l.attnNorm.Forward(r1)

	ff := l.ffDrop.Forward(l.ffOut.Forward(l.ffAct.Forward(l.ffIn.Forward(l.y1))))
	return l.ffNorm.Forward(addRows(l.y1, ff))
}

// Backward propagates the upstream gradient through the whole layer and
// returns the gradient with respect to the layer input.
func (l *TransformerLayer) Backward(dOut [][]float64) [][]float64 {
	dr2 := l.ffNorm.Backward(dOut)

	dff := l.ffIn.Backward(l.ffAct.Backward(l.ffOut.Backward(l.ffDrop.Backward(dr2))))
	dy1 := addRows(dr2, dff)

	dr1 := l.attnNorm.Backward(dy1)
	dCtx := l.output.Backward(l.attnDrop.Backward(dr1))

	heads := l.cfg.NumHeads
	dk := l.cfg.HiddenSize / heads
	scale := 1.0 / math.Sqrt(float64(dk))

	dq := zeroRows(l.batch*l.seq, l.cfg.HiddenSize)
	dkm := zeroRows(l.batch*l.seq, l.cfg.HiddenSize)
	dv := zeroRows(l.batch*l.seq, l.cfg.HiddenSize)

	for b := 0; b < l.batch; b++ {
		for a := 0; a < heads; a++ {
			off := a * dk
			probs := l.probs[b*heads+a]
			for ti := 0; ti < l.seq; ti++ {
				dctx := dCtx[b*l.seq+ti][off : off+dk]

				// dprobs and dV from ctx = probs * V.
				dprobs := make([]float64, l.seq)
				for tj := 0; tj < l.seq; tj++ {
					vj := l.v[b*l.seq+tj][off : off+dk]
					s := 0.0
					for d := 0; d < dk; d++ {
						s += dctx[d] * vj[d]
					}
					dprobs[tj] = s

					dvj := dv[b*l.seq+tj][off : off+dk]
					p := probs[ti][tj]
					for d := 0; d < dk; d++ {
						dvj[d] += p * dctx[d]
					}
				}

				// Softmax backward for the score row.
				dot := 0.0
				for tj := 0; tj < l.seq; tj++ {
					dot += dprobs[tj] * probs[ti][tj]
				}
				qi := l.q[b*l.seq+ti][off : off+dk]
				dqi := dq[b*l.seq+ti][off : off+dk]
				for tj := 0; tj < l.seq; tj++ {
					dscore := probs[ti][tj] * (dprobs[tj] - dot) * scale
					if dscore == 0 {
						continue
					}
					kj := l.k[b*l.seq+tj][off : off+dk]
					dkj := dkm[b*l.seq+tj][off : off+dk]
					for d := 0; d < dk; d++ {
						dqi[d] += dscore * kj[d]
						dkj[d] += dscore * qi[d]
					}
				}
			}
		}
	}

	dx := addRows(dr1, l.query.Backward(dq))
	dx = addRows(dx, l.key.Backward(dkm))
	dx = addRows(dx, l.value.Backward(dv))
	return dx
}

// SetTraining toggles the layer's dropouts.
func (l *TransformerLayer) SetTraining(training bool) {
	l.attnDrop.SetTraining(training)
	l.ffDrop.SetTraining(training)
}

// Parameters returns all learnable tensors of the layer.
func (l *TransformerLayer) Parameters() []*nn.Param {
	var params []*nn.Param
	params = append(params, l.query.Parameters()...)
	params = append(params, l.key.Parameters()...)
	params = append(params, l.value.Parameters()...)
	params = append(params, l.output.Parameters()...)
	params = append(params, l.attnNorm.Parameters()...)
	params = append(params, l.ffIn.Parameters()...)
	params = append(params, l.ffOut.Parameters()...)
	params = append(params, l.ffNorm.Parameters()...)
	return params
}

// Encoder stacks NumLayers transformer layers.
type Encoder struct {
	layers []*TransformerLayer
}

// NewEncoder builds the layer stack.
func NewEncoder(cfg Config, rng *rand.Rand) *Encoder {
	layers := make([]*TransformerLayer, cfg.NumLayers)
	for i := range layers {
		layers[i] = NewTransformerLayer(cfg, i, rng)
	}
	return &Encoder{layers: layers}
}

// Forward runs all layers in order.
func (e *Encoder) Forward(rows [][]float64, mask [][]int, batch, seq int) [][]float64 {
	for _, l := range e.layers {
		rows = l.Forward(rows, mask, batch, seq)
	}
	return rows
}

// Backward runs all layers in reverse order.
func (e *Encoder) Backward(dOut [][]float64) [][]float64 {
	for i := len(e.layers) - 1; i >= 0; i-- {
		dOut = e.layers[i].Backward(dOut)
	}
	return dOut
}

// SetTraining toggles dropout in every layer.
func (e *Encoder) SetTraining(training bool) {
	for _, l := range e.layers {
		l.SetTraining(training)
	}
}

// Parameters returns the parameters of every layer.
func (e *Encoder) Parameters() []*nn.Param {
	var params []*nn.Param
	for _, l := range e.layers {
		params = append(params, l.Parameters()...)
	}
	return params
}

func softmaxRow(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	out := make([]float64, len(scores))
	sum := 0.0
	for i, s := range scores {
		out[i] = math.Exp(s - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func addRows(a, b [][]float64) [][]float64 {
	out := make([][]float64, len(a))
	for r := range a {
		row := make([]float64, len(a[r]))
		for i := range row {
			row[i] = a[r][i] + b[r][i]
		}
		out[r] = row
	}
	return out
}

func zeroRows(n, dim int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, dim)
	}
	return out
}
