package models

import (
	"math/rand"

	"github.com/YuminosukeSato/tagtext/bert"
	"github.com/YuminosukeSato/tagtext/pkg/errors"
)

// Snapshot is the gob-encodable persistence form of a classifier: its name,
// the configuration needed to rebuild it, and the flat weight state keyed
// by parameter name. Exactly one of Bert and CNN is set.
type Snapshot struct {
	Name      string
	Bert      *bert.Config
	CNN       *CNNConfig
	NumLabels int
	State     map[string][]float64
}

// FromSnapshot rebuilds a classifier and restores its weights. The rng only
// seeds the throwaway initialization; every weight is overwritten from the
// state dictionary.
func FromSnapshot(s *Snapshot, rng *rand.Rand) (Classifier, error) {
	switch s.Name {
	case NameBert:
		if s.Bert == nil {
			return nil, errors.NewValidationError("snapshot", "missing encoder configuration", s.Name)
		}
		m, err := NewBertClassifier(*s.Bert, s.NumLabels, rng)
		if err != nil {
			return nil, err
		}
		if err := loadStateDict(m.Parameters(), s.State); err != nil {
			return nil, err
		}
		return m, nil
	case NameCNN:
		if s.CNN == nil {
			return nil, errors.NewValidationError("snapshot", "missing convolution configuration", s.Name)
		}
		m, err := NewCNNClassifier(*s.CNN, rng)
		if err != nil {
			return nil, err
		}
		if err := loadStateDict(m.Parameters(), s.State); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, errors.NewValidationError("snapshot", "unknown model name", s.Name)
	}
}
