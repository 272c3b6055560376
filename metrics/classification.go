// Package metrics implements the evaluation metrics used by the training
// and prediction drivers: accuracy, macro-averaged precision/recall/F1, the
// confusion matrix, and a per-class text report.
package metrics

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tagtext/pkg/errors"
)

// Accuracy computes the fraction of exact matches.
func Accuracy(yTrue, yPred []int) (float64, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty input")
	}
	if len(yPred) != n {
		return 0, errors.NewDimensionError("Accuracy", n, len(yPred), 0)
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ConfusionMatrix returns an numClasses x numClasses matrix where entry
// (i, j) counts samples of true class i predicted as class j.
func ConfusionMatrix(yTrue, yPred []int, numClasses int) (*mat.Dense, error) {
	n := len(yTrue)
	if n == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "empty input")
	}
	if len(yPred) != n {
		return nil, errors.NewDimensionError("ConfusionMatrix", n, len(yPred), 0)
	}
	if numClasses <= 0 {
		return nil, errors.NewValidationError("numClasses", "must be positive", numClasses)
	}

	cm := mat.NewDense(numClasses, numClasses, nil)
	for i := range yTrue {
		if yTrue[i] < 0 || yTrue[i] >= numClasses {
			return nil, errors.NewValidationError("yTrue", "label out of range", yTrue[i])
		}
		if yPred[i] < 0 || yPred[i] >= numClasses {
			return nil, errors.NewValidationError("yPred", "label out of range", yPred[i])
		}
		cm.Set(yTrue[i], yPred[i], cm.At(yTrue[i], yPred[i])+1)
	}
	return cm, nil
}

// classStats holds per-class precision, recall, F1 and support derived from
// a confusion matrix row/column.
type classStats struct {
	precision float64
	recall    float64
	f1        float64
	support   int
}

func perClassStats(cm *mat.Dense, numClasses int) []classStats {
	stats := make([]classStats, numClasses)
	for c := 0; c < numClasses; c++ {
		tp := cm.At(c, c)
		var predicted, actual float64
		for k := 0; k < numClasses; k++ {
			predicted += cm.At(k, c)
			actual += cm.At(c, k)
		}

		s := classStats{support: int(actual)}
		if predicted == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("precision", fmt.Sprintf("no predicted samples for class %d", c), 0))
		} else {
			s.precision = tp / predicted
		}
		if actual == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("recall", fmt.Sprintf("no true samples for class %d", c), 0))
		} else {
			s.recall = tp / actual
		}
		if s.precision+s.recall > 0 {
			s.f1 = 2 * s.precision * s.recall / (s.precision + s.recall)
		}
		stats[c] = s
	}
	return stats
}

// PrecisionRecallF1Macro computes unweighted class means of precision,
// recall and F1. Classes with no predicted or no true samples contribute 0
// to the corresponding mean and raise an UndefinedMetricWarning.
func PrecisionRecallF1Macro(yTrue, yPred []int, numClasses int) (precision, recall, f1 float64, err error) {
	cm, err := ConfusionMatrix(yTrue, yPred, numClasses)
	if err != nil {
		return 0, 0, 0, err
	}

	stats := perClassStats(cm, numClasses)
	for _, s := range stats {
		precision += s.precision
		recall += s.recall
		f1 += s.f1
	}
	n := float64(numClasses)
	return precision / n, recall / n, f1 / n, nil
}

// ClassificationReport renders a per-class precision/recall/F1/support
// table with macro averages and overall accuracy.
func ClassificationReport(yTrue, yPred []int, numClasses int) (string, error) {
	cm, err := ConfusionMatrix(yTrue, yPred, numClasses)
	if err != nil {
		return "", err
	}
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return "", err
	}

	stats := perClassStats(cm, numClasses)

	var b strings.Builder
	fmt.Fprintf(&b, "%12s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support")
	b.WriteByte('\n')

	var sumP, sumR, sumF float64
	for c, s := range stats {
		fmt.Fprintf(&b, "%12d %10.4f %10.4f %10.4f %10d\n", c, s.precision, s.recall, s.f1, s.support)
		sumP += s.precision
		sumR += s.recall
		sumF += s.f1
	}
	n := float64(numClasses)

	b.WriteByte('\n')
	fmt.Fprintf(&b, "%12s %10s %10s %10.4f %10d\n", "accuracy", "", "", acc, len(yTrue))
	fmt.Fprintf(&b, "%12s %10.4f %10.4f %10.4f %10d\n", "macro avg", sumP/n, sumR/n, sumF/n, len(yTrue))
	return b.String(), nil
}
