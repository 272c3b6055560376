package models

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tagtext/dataset"
	"github.com/YuminosukeSato/tagtext/nn"
	"github.com/YuminosukeSato/tagtext/pkg/errors"
)

// CNNConfig holds the convolutional baseline hyperparameters.
type CNNConfig struct {
	VocabSize  int
	EmbedDim   int
	Widths     []int
	NumFilters int
	NumLabels  int
	Dropout    float64
}

// DefaultCNNConfig returns the baseline setup: 768-dim embeddings, window
// widths 2, 3 and 4 with 100 filters each, dropout 0.3.
func DefaultCNNConfig(vocabSize, numLabels int) CNNConfig {
	return CNNConfig{
		VocabSize:  vocabSize,
		EmbedDim:   768,
		Widths:     []int{2, 3, 4},
		NumFilters: 100,
		NumLabels:  numLabels,
		Dropout:    headDropout,
	}
}

// Validate checks the configuration.
func (c CNNConfig) Validate() error {
	if c.VocabSize <= 0 {
		return errors.NewValidationError("VocabSize", "must be positive", c.VocabSize)
	}
	if c.EmbedDim <= 0 {
		return errors.NewValidationError("EmbedDim", "must be positive", c.EmbedDim)
	}
	if len(c.Widths) == 0 {
		return errors.NewValidationError("Widths", "need at least one window width", c.Widths)
	}
	for _, w := range c.Widths {
		if w <= 0 {
			return errors.NewValidationError("Widths", "widths must be positive", w)
		}
	}
	if c.NumFilters <= 0 {
		return errors.NewValidationError("NumFilters", "must be positive", c.NumFilters)
	}
	if c.NumLabels <= 0 {
		return errors.NewValidationError("NumLabels", "must be positive", c.NumLabels)
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return errors.NewValidationError("Dropout", "must be in [0, 1)", c.Dropout)
	}
	return nil
}

// CNNClassifier embeds tokens, convolves with several window widths, takes
// the max over time per filter, concatenates, and classifies through
// dropout and a linear head. The loss consumes raw logits.
type CNNClassifier struct {
	cfg CNNConfig

	embed *nn.Embedding
	convs []*nn.Conv1D
	relus []*nn.ReLU
	pools []*nn.MaxPool1D
	drop  *nn.Dropout
	head  *nn.Linear

	dLogits [][]float64
	seqLens []int
}

// NewCNNClassifier validates cfg and builds the model with seeded
// initialization.
func NewCNNClassifier(cfg CNNConfig, rng *rand.Rand) (*CNNClassifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &CNNClassifier{
		cfg:   cfg,
		embed: nn.NewEmbedding("embed", cfg.VocabSize, cfg.EmbedDim, rng),
		drop:  nn.NewDropout(cfg.Dropout, rng),
		head:  nn.NewLinear("classifier", len(cfg.Widths)*cfg.NumFilters, cfg.NumLabels, rng),
	}
	for _, w := range cfg.Widths {
		name := fmt.Sprintf("conv%d", w)
		m.convs = append(m.convs, nn.NewConv1D(name, w, cfg.EmbedDim, cfg.NumFilters, rng))
		m.relus = append(m.relus, &nn.ReLU{})
		m.pools = append(m.pools, &nn.MaxPool1D{})
	}
	return m, nil
}

// Name returns the CLI model name.
func (m *CNNClassifier) Name() string { return NameCNN }

// Forward runs the model over one batch. The sequences must be at least as
// long as the widest convolution window.
func (m *CNNClassifier) Forward(batch *dataset.Batch, labels []int) (float64, *mat.Dense, error) {
	m.dLogits = nil
	n := batch.Size()
	if n == 0 {
		return 0, nil, errors.WithStack(errors.ErrEmptyData)
	}
	seq := len(batch.InputIDs[0])
	for _, w := range m.cfg.Widths {
		if seq < w {
			return 0, nil, errors.NewDimensionError("CNNClassifier.Forward", w, seq, 1)
		}
	}

	emb := m.embed.Forward(batch.InputIDs)

	features := make([][]float64, n)
	for b := range features {
		features[b] = make([]float64, 0, len(m.convs)*m.cfg.NumFilters)
	}
	for i, conv := range m.convs {
		out := conv.Forward(emb)
		rows, batchLen := flattenSeq(out)
		rows = m.relus[i].Forward(rows)
		pooled := m.pools[i].Forward(unflattenSeq(rows, batchLen))
		for b := range features {
			features[b] = append(features[b], pooled[b]...)
		}
	}

	logits := m.head.Forward(m.drop.Forward(features))
	dense := denseFromRows(logits)
	if labels == nil {
		return 0, dense, nil
	}

	loss, dLogits, err := nn.CrossEntropy(logits, labels)
	if err != nil {
		return 0, nil, err
	}
	m.dLogits = dLogits
	return loss, dense, nil
}

// Backward propagates the cached loss gradient back to the embedding table.
func (m *CNNClassifier) Backward() error {
	if m.dLogits == nil {
		return errors.NewModelError("Backward", "no cached loss gradient; call Forward with labels first", nil)
	}
	dFeatures := m.drop.Backward(m.head.Backward(m.dLogits))

	var dEmb [][][]float64
	for i := range m.convs {
		// Slice this branch's channels out of the concatenated features.
		off := i * m.cfg.NumFilters
		dPooled := make([][]float64, len(dFeatures))
		for b, row := range dFeatures {
			dPooled[b] = row[off : off+m.cfg.NumFilters]
		}

		d3 := m.pools[i].Backward(dPooled)
		rows, batchLen := flattenSeq(d3)
		rows = m.relus[i].Backward(rows)
		dBranch := m.convs[i].Backward(unflattenSeq(rows, batchLen))

		if dEmb == nil {
			dEmb = dBranch
		} else {
			for b := range dEmb {
				for t := range dEmb[b] {
					for k := range dEmb[b][t] {
						dEmb[b][t][k] += dBranch[b][t][k]
					}
				}
			}
		}
	}
	m.embed.Backward(dEmb)
	m.dLogits = nil
	return nil
}

// Parameters returns every learnable tensor.
func (m *CNNClassifier) Parameters() []*nn.Param {
	params := m.embed.Parameters()
	for _, conv := range m.convs {
		params = append(params, conv.Parameters()...)
	}
	params = append(params, m.head.Parameters()...)
	return params
}

// SetTraining toggles the head dropout.
func (m *CNNClassifier) SetTraining(training bool) { m.drop.SetTraining(training) }

// Snapshot captures the configuration and weights for persistence.
func (m *CNNClassifier) Snapshot() *Snapshot {
	cfg := m.cfg
	cfg.Widths = append([]int(nil), m.cfg.Widths...)
	return &Snapshot{
		Name:      NameCNN,
		CNN:       &cfg,
		NumLabels: cfg.NumLabels,
		State:     stateDict(m.Parameters()),
	}
}

// flattenSeq stacks batch x T x C into (batch*T) x C rows. All sequences in
// a batch share the same length.
func flattenSeq(x [][][]float64) ([][]float64, []int) {
	lens := make([]int, len(x))
	total := 0
	for b, seq := range x {
		lens[b] = len(seq)
		total += len(seq)
	}
	rows := make([][]float64, 0, total)
	for _, seq := range x {
		rows = append(rows, seq...)
	}
	return rows, lens
}

// unflattenSeq is the inverse of flattenSeq.
func unflattenSeq(rows [][]float64, lens []int) [][][]float64 {
	out := make([][][]float64, len(lens))
	pos := 0
	for b, n := range lens {
		out[b] = rows[pos : pos+n]
		pos += n
	}
	return out
}
