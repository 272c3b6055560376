package models

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tagtext/bert"
	"github.com/YuminosukeSato/tagtext/dataset"
	"github.com/YuminosukeSato/tagtext/nn"
	"github.com/YuminosukeSato/tagtext/pkg/errors"
)

// headDropout is the drop probability in front of both classification heads.
const headDropout = 0.3

// BertClassifier runs the fused-embedding encoder, pools the
// sequence-start token, and classifies it through dropout and a linear
// head.
type BertClassifier struct {
	cfg       bert.Config
	numLabels int

	embeddings *bert.Embeddings
	encoder    *bert.Encoder
	pooler     *bert.Pooler
	drop       *nn.Dropout
	head       *nn.Linear

	dLogits [][]float64
}

// NewBertClassifier validates cfg and builds the model with seeded
// initialization.
func NewBertClassifier(cfg bert.Config, numLabels int, rng *rand.Rand) (*BertClassifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if numLabels <= 0 {
		return nil, errors.NewValidationError("numLabels", "must be positive", numLabels)
	}
	return &BertClassifier{
		cfg:        cfg,
		numLabels:  numLabels,
		embeddings: bert.NewEmbeddings(cfg, rng),
		encoder:    bert.NewEncoder(cfg, rng),
		pooler:     bert.NewPooler(cfg, rng),
		drop:       nn.NewDropout(headDropout, rng),
		head:       nn.NewLinear("classifier", cfg.HiddenSize, numLabels, rng),
	}, nil
}

// Name returns the CLI model name.
func (m *BertClassifier) Name() string { return NameBert }

// Forward runs the full model over one batch. TagIDs may be nil, in which
// case the tag table contributes its padding row everywhere.
func (m *BertClassifier) Forward(batch *dataset.Batch, labels []int) (float64, *mat.Dense, error) {
	m.dLogits = nil
	n := batch.Size()
	if n == 0 {
		return 0, nil, errors.WithStack(errors.ErrEmptyData)
	}
	seq := len(batch.InputIDs[0])

	rows := m.embeddings.Forward(batch.InputIDs, batch.TagIDs)
	rows = m.encoder.Forward(rows, batch.AttentionMask, n, seq)
	pooled := m.pooler.Forward(rows, n, seq)
	logits := m.head.Forward(m.drop.Forward(pooled))

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

// Backward propagates the cached loss gradient through the whole network.
func (m *BertClassifier) Backward() error {
	if m.dLogits == nil {
		return errors.NewModelError("Backward", "no cached loss gradient; call Forward with labels first", nil)
	}
	d := m.drop.Backward(m.head.Backward(m.dLogits))
	dRows := m.pooler.Backward(d)
	dRows = m.encoder.Backward(dRows)
	m.embeddings.Backward(dRows)
	m.dLogits = nil
	return nil
}

// Parameters returns every learnable tensor.
func (m *BertClassifier) Parameters() []*nn.Param {
	var params []*nn.Param
	params = append(params, m.embeddings.Parameters()...)
	params = append(params, m.encoder.Parameters()...)
	params = append(params, m.pooler.Parameters()...)
	params = append(params, m.head.Parameters()...)
	return params
}

// SetTraining toggles every dropout in the model.
func (m *BertClassifier) SetTraining(training bool) {
	m.embeddings.SetTraining(training)
	m.encoder.SetTraining(training)
	m.drop.SetTraining(training)
}

// Snapshot captures the configuration and weights for persistence.
func (m *BertClassifier) Snapshot() *Snapshot {
	cfg := m.cfg
	return &Snapshot{
		Name:      NameBert,
		Bert:      &cfg,
		NumLabels: m.numLabels,
		State:     stateDict(m.Parameters()),
	}
}
