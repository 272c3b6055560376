package models

import (
	"math/rand"

	"github.com/YuminosukeSato/tagtext/pkg/errors"
)

// NewLSTMClassifier is a placeholder for the recurrent baseline. The model
// name is accepted by the CLI for compatibility but no implementation
// exists yet.
func NewLSTMClassifier(_ int, _ int, _ *rand.Rand) (Classifier, error) {
	return nil, errors.Wrap(errors.ErrNotImplemented, "lstm classifier")
}
