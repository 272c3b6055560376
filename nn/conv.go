package nn

import "math/rand"

// Conv1D slides a width-w window over the time axis of a sequence of
// feature vectors, producing OutChannels values per valid position. Weight
// is laid out row-major as OutChannels x (Width*InDim).
type Conv1D struct {
	Width       int
	InDim       int
	OutChannels int
	Weight      *Param
	Bias        *Param

	x [][][]float64
}

// NewConv1D creates a convolution with Xavier-uniform weights.
func NewConv1D(name string, width, inDim, outChannels int, rng *rand.Rand) *Conv1D {
	c := &Conv1D{
		Width:       width,
		InDim:       inDim,
		OutChannels: outChannels,
		Weight:      NewParam(name+".weight", outChannels*width*inDim),
		Bias:        NewParam(name+".bias", outChannels),
	}
	xavierUniform(rng, c.Weight.W, width*inDim, outChannels)
	return c
}

// Forward convolves each sequence in the batch. Input is batch x T x InDim;
// output is batch x (T-Width+1) x OutChannels. Sequences shorter than Width
// produce zero positions.
func (c *Conv1D) Forward(x [][][]float64) [][][]float64 {
	c.x = x
	span := c.Width * c.InDim
	out := make([][][]float64, len(x))
	for b, seq := range x {
		outLen := len(seq) - c.Width + 1
		if outLen < 0 {
			outLen = 0
		}
		rows := make([][]float64, outLen)
		for t := 0; t < outLen; t++ {
			y := make([]float64, c.OutChannels)
			for o := 0; o < c.OutChannels; o++ {
				w := c.Weight.W[o*span : (o+1)*span]
				s := c.Bias.W[o]
				for k := 0; k < c.Width; k++ {
					row := seq[t+k]
					wk := w[k*c.InDim : (k+1)*c.InDim]
					for i, v := range row {
						s += wk[i] * v
					}
				}
				y[o] = s
			}
			rows[t] = y
		}
		out[b] = rows
	}
	return out
}

// Backward accumulates weight and bias gradients and returns the gradient
// with respect to the cached input, shaped like it.
func (c *Conv1D) Backward(dOut [][][]float64) [][][]float64 {
	span := c.Width * c.InDim
	dx := make([][][]float64, len(c.x))
	for b, seq := range c.x {
		dseq := make([][]float64, len(seq))
		for t := range dseq {
			dseq[t] = make([]float64, c.InDim)
		}
		for t, d := range dOut[b] {
			for o, g := range d {
				c.Bias.Grad[o] += g
				w := c.Weight.W[o*span : (o+1)*span]
				wg := c.Weight.Grad[o*span : (o+1)*span]
				for k := 0; k < c.Width; k++ {
					row := seq[t+k]
					drow := dseq[t+k]
					wk := w[k*c.InDim : (k+1)*c.InDim]
					wgk := wg[k*c.InDim : (k+1)*c.InDim]
					for i, v := range row {
						wgk[i] += g * v
						drow[i] += g * wk[i]
					}
				}
			}
		}
		dx[b] = dseq
	}
	return dx
}

// Parameters returns weight and bias.
func (c *Conv1D) Parameters() []*Param { return []*Param{c.Weight, c.Bias} }

// MaxPool1D takes the maximum over the time axis per channel, caching the
// winning positions for the backward pass.
type MaxPool1D struct {
	argmax [][]int
	inLens []int
}

// Forward reduces batch x T x C to batch x C. Every sequence must have at
// least one position.
func (p *MaxPool1D) Forward(x [][][]float64) [][]float64 {
	p.argmax = make([][]int, len(x))
	p.inLens = make([]int, len(x))
	out := make([][]float64, len(x))
	for b, seq := range x {
		channels := len(seq[0])
		best := make([]float64, channels)
		arg := make([]int, channels)
		copy(best, seq[0])
		for t := 1; t < len(seq); t++ {
			for ch, v := range seq[t] {
				if v > best[ch] {
					best[ch] = v
					arg[ch] = t
				}
			}
		}
		p.argmax[b] = arg
		p.inLens[b] = len(seq)
		out[b] = best
	}
	return out
}

// Backward routes each channel's gradient to the position that won the max.
func (p *MaxPool1D) Backward(dOut [][]float64) [][][]float64 {
	dx := make([][][]float64, len(dOut))
	for b, d := range dOut {
		dseq := make([][]float64, p.inLens[b])
		for t := range dseq {
			dseq[t] = make([]float64, len(d))
		}
		for ch, g := range d {
			dseq[p.argmax[b][ch]][ch] = g
		}
		dx[b] = dseq
	}
	return dx
}
