// Package bert implements a small BERT-style transformer encoder with
// explicit forward and backward passes: fused input embeddings (word,
// position, segment and POS tag), stacked self-attention layers, and a
// pooler over the sequence-start token.
package bert

import (
	"github.com/YuminosukeSato/tagtext/pkg/errors"
)

// Config holds the encoder hyperparameters.
type Config struct {
	VocabSize    int
	HiddenSize   int
	NumLayers    int
	NumHeads     int
	FFSize       int
	MaxLen       int
	NumSegments  int
	TagVocabSize int
	Dropout      float64
}

// DefaultConfig returns a compact encoder that trains from scratch in
// reasonable time. VocabSize and TagVocabSize must still be set from the
// fitted vocabularies.
func DefaultConfig() Config {
	return Config{
		HiddenSize:  128,
		NumLayers:   2,
		NumHeads:    4,
		FFSize:      512,
		MaxLen:      128,
		NumSegments: 2,
		Dropout:     0.1,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.VocabSize <= 0 {
		return errors.NewValidationError("VocabSize", "must be positive", c.VocabSize)
	}
	if c.TagVocabSize <= 0 {
		return errors.NewValidationError("TagVocabSize", "must be positive", c.TagVocabSize)
	}
	if c.HiddenSize <= 0 {
		return errors.NewValidationError("HiddenSize", "must be positive", c.HiddenSize)
	}
	if c.NumHeads <= 0 || c.HiddenSize%c.NumHeads != 0 {
		return errors.NewValidationError("NumHeads", "must divide HiddenSize", c.NumHeads)
	}
	if c.NumLayers <= 0 {
		return errors.NewValidationError("NumLayers", "must be positive", c.NumLayers)
	}
	if c.FFSize <= 0 {
		return errors.NewValidationError("FFSize", "must be positive", c.FFSize)
	}
	if c.MaxLen <= 0 {
		return errors.NewValidationError("MaxLen", "must be positive", c.MaxLen)
	}
	if c.NumSegments <= 0 {
		return errors.NewValidationError("NumSegments", "must be positive", c.NumSegments)
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return errors.NewValidationError("Dropout", "must be in [0, 1)", c.Dropout)
	}
	return nil
}
