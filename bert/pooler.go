package bert

import (
	"math/rand"

	"github.com/YuminosukeSato/tagtext/nn"
)

// Pooler maps the hidden state of each sequence-start token through a dense
// layer and tanh, yielding one vector per example.
type Pooler struct {
	dense *nn.Linear
	act   *nn.Tanh

	batch, seq int
	hidden     int
}

// NewPooler creates the pooler head.
func NewPooler(cfg Config, rng *rand.Rand) *Pooler {
	return &Pooler{
		dense:  nn.NewLinear("pooler.dense", cfg.HiddenSize, cfg.HiddenSize, rng),
		act:    &nn.Tanh{},
		hidden: cfg.HiddenSize,
	}
}

// Forward extracts row b*seq for every example b from the flattened encoder
// output and applies dense + tanh. Output is batch x HiddenSize.
func (p *Pooler) Forward(rows [][]float64, batch, seq int) [][]float64 {
	p.batch = batch
	p.seq = seq
	first := make([][]float64, batch)
	for b := 0; b < batch; b++ {
		first[b] = rows[b*seq]
	}
	return p.act.Forward(p.dense.Forward(first))
}

// Backward returns a gradient shaped like the flattened encoder output,
// nonzero only at the sequence-start rows.
func (p *Pooler) Backward(dOut [][]float64) [][]float64 {
	dFirst := p.dense.Backward(p.act.Backward(dOut))
	dRows := zeroRows(p.batch*p.seq, p.hidden)
	for b := 0; b < p.batch; b++ {
		dRows[b*p.seq] = dFirst[b]
	}
	return dRows
}

// Parameters returns the dense layer parameters.
func (p *Pooler) Parameters() []*nn.Param { return p.dense.Parameters() }
