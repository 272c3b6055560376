package metrics

import (
	"math"
	"strings"
	"testing"

	tterrors "github.com/YuminosukeSato/tagtext/pkg/errors"
)

const tolerance = 1e-6

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []int
		yPred   []int
		want    float64
		wantErr bool
	}{
		{
			name:  "perfect",
			yTrue: []int{0, 1, 2},
			yPred: []int{0, 1, 2},
			want:  1.0,
		},
		{
			name:  "half right",
			yTrue: []int{0, 1, 2, 0},
			yPred: []int{0, 2, 2, 1},
			want:  0.5,
		},
		{
			name:    "empty",
			yTrue:   nil,
			yPred:   nil,
			wantErr: true,
		},
		{
			name:    "length mismatch",
			yTrue:   []int{0, 1},
			yPred:   []int{0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Accuracy(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Accuracy() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("Accuracy() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestConfusionMatrix(t *testing.T) {
	cm, err := ConfusionMatrix([]int{0, 0, 1, 2, 2}, []int{0, 1, 1, 2, 0}, 3)
	if err != nil {
		t.Fatalf("ConfusionMatrix: %v", err)
	}

	want := [][]float64{
		{1, 1, 0},
		{0, 1, 0},
		{1, 0, 1},
	}
	for i := range want {
		for j := range want[i] {
			if cm.At(i, j) != want[i][j] {
				t.Errorf("cm[%d][%d] = %f, want %f", i, j, cm.At(i, j), want[i][j])
			}
		}
	}
}

func TestConfusionMatrixRejectsOutOfRangeLabels(t *testing.T) {
	if _, err := ConfusionMatrix([]int{0, 3}, []int{0, 1}, 3); err == nil {
		t.Error("expected error for out-of-range true label")
	}
	if _, err := ConfusionMatrix([]int{0, 1}, []int{0, -1}, 3); err == nil {
		t.Error("expected error for negative predicted label")
	}
}

func TestPrecisionRecallF1Macro(t *testing.T) {
	// Class 0: tp=2, fp=1, fn=0 -> p=2/3, r=1.
	// Class 1: tp=1, fp=0, fn=1 -> p=1, r=1/2.
	yTrue := []int{0, 0, 1, 1}
	yPred := []int{0, 0, 1, 0}

	p, r, f1, err := PrecisionRecallF1Macro(yTrue, yPred, 2)
	if err != nil {
		t.Fatalf("PrecisionRecallF1Macro: %v", err)
	}

	wantP := (2.0/3.0 + 1.0) / 2
	wantR := (1.0 + 0.5) / 2
	f0 := 2 * (2.0 / 3.0) * 1.0 / (2.0/3.0 + 1.0)
	f1c := 2 * 1.0 * 0.5 / 1.5
	wantF := (f0 + f1c) / 2

	if math.Abs(p-wantP) > tolerance {
		t.Errorf("precision = %f, want %f", p, wantP)
	}
	if math.Abs(r-wantR) > tolerance {
		t.Errorf("recall = %f, want %f", r, wantR)
	}
	if math.Abs(f1-wantF) > tolerance {
		t.Errorf("f1 = %f, want %f", f1, wantF)
	}
}

func TestMacroWarnsOnUndefinedClasses(t *testing.T) {
	var warnings []error
	tterrors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer tterrors.SetWarningHandler(nil)

	// Class 2 never appears in yPred: its precision is undefined and
	// contributes 0 to the macro mean.
	yTrue := []int{0, 1, 2}
	yPred := []int{0, 1, 0}

	p, _, _, err := PrecisionRecallF1Macro(yTrue, yPred, 3)
	if err != nil {
		t.Fatalf("PrecisionRecallF1Macro: %v", err)
	}

	wantP := (0.5 + 1.0 + 0.0) / 3
	if math.Abs(p-wantP) > tolerance {
		t.Errorf("precision = %f, want %f", p, wantP)
	}
	if len(warnings) == 0 {
		t.Fatal("expected an UndefinedMetricWarning")
	}
	var umw *tterrors.UndefinedMetricWarning
	if !tterrors.As(warnings[0], &umw) {
		t.Errorf("warning type = %T, want *UndefinedMetricWarning", warnings[0])
	}
}

func TestClassificationReport(t *testing.T) {
	yTrue := []int{0, 0, 1, 1, 2}
	yPred := []int{0, 1, 1, 1, 2}

	report, err := ClassificationReport(yTrue, yPred, 3)
	if err != nil {
		t.Fatalf("ClassificationReport: %v", err)
	}

	for _, want := range []string{"precision", "recall", "f1-score", "support", "accuracy", "macro avg"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
	// Accuracy 4/5.
	if !strings.Contains(report, "0.8000") {
		t.Errorf("report missing accuracy 0.8000:\n%s", report)
	}
}
