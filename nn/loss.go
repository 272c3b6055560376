package nn

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/tagtext/pkg/errors"
)

// Softmax returns row-wise softmax probabilities, shifted by the row max
// for stability.
func Softmax(logits [][]float64) [][]float64 {
	out := make([][]float64, len(logits))
	for r, row := range logits {
		max := floats.Max(row)
		p := make([]float64, len(row))
		sum := 0.0
		for i, v := range row {
			p[i] = math.Exp(v - max)
			sum += p[i]
		}
		for i := range p {
			p[i] /= sum
		}
		out[r] = p
	}
	return out
}

// CrossEntropy computes the mean negative log-likelihood of the labels under
// the row-wise softmax of logits, via log-sum-exp. It returns the loss and
// the gradient with respect to the logits, already divided by the batch
// size.
func CrossEntropy(logits [][]float64, labels []int) (float64, [][]float64, error) {
	if len(logits) == 0 {
		return 0, nil, errors.WithStack(errors.ErrEmptyData)
	}
	if len(logits) != len(labels) {
		return 0, nil, errors.NewDimensionError("CrossEntropy", len(logits), len(labels), 0)
	}

	n := float64(len(logits))
	loss := 0.0
	dLogits := make([][]float64, len(logits))
	for r, row := range logits {
		label := labels[r]
		if label < 0 || label >= len(row) {
			return 0, nil, errors.NewValidationError("label", "out of range for logit width", label)
		}
		lse := floats.LogSumExp(row)
		loss += lse - row[label]

		d := make([]float64, len(row))
		for i, v := range row {
			d[i] = math.Exp(v-lse) / n
		}
		d[label] -= 1.0 / n
		dLogits[r] = d
	}
	return loss / n, dLogits, nil
}

// Argmax returns the index of the largest logit in each row.
func Argmax(logits [][]float64) []int {
	out := make([]int, len(logits))
	for r, row := range logits {
		out[r] = floats.MaxIdx(row)
	}
	return out
}
