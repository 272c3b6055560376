// Package models provides the trainable classifiers: a BERT-style model
// with POS-tag fusion and a convolutional baseline. Both expose the same
// Classifier contract so the trainer and predictor stay model-agnostic.
package models

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tagtext/dataset"
	"github.com/YuminosukeSato/tagtext/nn"
	"github.com/YuminosukeSato/tagtext/pkg/errors"
)

// Model name enum shared with the CLI.
const (
	NameBert = "baseline_bert"
	NameCNN  = "cnn"
	NameLSTM = "lstm"
)

// Classifier is the contract every trainable model satisfies. Forward with
// non-nil labels computes the loss and caches the logit gradient for the
// following Backward; with nil labels it only produces logits.
type Classifier interface {
	Forward(batch *dataset.Batch, labels []int) (loss float64, logits *mat.Dense, err error)
	Backward() error
	Parameters() []*nn.Param
	SetTraining(training bool)
	Name() string
	Snapshot() *Snapshot
}

// denseFromRows copies row-major 2D data into a gonum matrix.
func denseFromRows(rows [][]float64) *mat.Dense {
	if len(rows) == 0 {
		return &mat.Dense{}
	}
	cols := len(rows[0])
	flat := make([]float64, 0, len(rows)*cols)
	for _, row := range rows {
		flat = append(flat, row...)
	}
	return mat.NewDense(len(rows), cols, flat)
}

// stateDict flattens parameters into a name-keyed map of weight copies.
func stateDict(params []*nn.Param) map[string][]float64 {
	state := make(map[string][]float64, len(params))
	for _, p := range params {
		w := make([]float64, len(p.W))
		copy(w, p.W)
		state[p.Name] = w
	}
	return state
}

// loadStateDict restores weights by name, requiring an exact match of
// parameter names and sizes.
func loadStateDict(params []*nn.Param, state map[string][]float64) error {
	if len(state) != len(params) {
		return errors.NewDimensionError("loadStateDict", len(params), len(state), 0)
	}
	for _, p := range params {
		w, ok := state[p.Name]
		if !ok {
			return errors.NewValidationError("state", "missing parameter", p.Name)
		}
		if len(w) != len(p.W) {
			return errors.NewDimensionError("loadStateDict "+p.Name, len(p.W), len(w), 0)
		}
		copy(p.W, w)
	}
	return nil
}
