package dataset

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/tagtext/tokenize"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func testTokenizer(t *testing.T, maxLen int) *tokenize.Tokenizer {
	t.Helper()
	vocab := tokenize.BuildVocab([]string{"good movie", "bad movie", "ok movie"})
	tok, err := tokenize.NewTokenizerFromVocab(vocab, maxLen)
	if err != nil {
		t.Fatalf("NewTokenizerFromVocab: %v", err)
	}
	return tok
}

func TestReadCSV(t *testing.T) {
	path := writeCSV(t, "text,label\ngood movie,1\nbad movie,0\nok movie,2\n")

	examples, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(examples) != 3 {
		t.Fatalf("len = %d, want 3", len(examples))
	}
	if examples[0].Text != "good movie" || examples[0].Label != 1 {
		t.Errorf("examples[0] = %+v, want {good movie 1}", examples[0])
	}
	if examples[2].Label != 2 {
		t.Errorf("examples[2].Label = %d, want 2", examples[2].Label)
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "header only", content: "text,label\n"},
		{name: "empty file", content: ""},
		{name: "bad label", content: "text,label\ngood movie,positive\n"},
		{name: "wrong column count", content: "text,label\ngood movie\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, tt.content)
			if _, err := ReadCSV(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestNewDatasetFixedLength(t *testing.T) {
	examples := []LabeledExample{
		{Text: "good movie", Label: 1},
		{Text: "bad movie", Label: 0},
		{Text: "ok movie", Label: 2},
	}
	tok := testTokenizer(t, 16)

	ds, err := NewDataset(examples, tok)
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	if ds.Len() != 3 {
		t.Fatalf("Len = %d, want 3", ds.Len())
	}
	for i := 0; i < ds.Len(); i++ {
		if len(ds.InputIDs[i]) != 16 {
			t.Errorf("row %d: len(InputIDs) = %d, want 16", i, len(ds.InputIDs[i]))
		}
		if len(ds.AttentionMask[i]) != 16 {
			t.Errorf("row %d: len(AttentionMask) = %d, want 16", i, len(ds.AttentionMask[i]))
		}
	}
	if got := ds.NumClasses(); got != 3 {
		t.Errorf("NumClasses = %d, want 3", got)
	}
}

func TestLoaderBatchesInOrder(t *testing.T) {
	examples := []LabeledExample{
		{Text: "good movie", Label: 0},
		{Text: "bad movie", Label: 1},
		{Text: "ok movie", Label: 2},
		{Text: "good movie", Label: 3},
		{Text: "bad movie", Label: 4},
	}
	ds, err := NewDataset(examples, testTokenizer(t, 8))
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}

	loader, err := NewLoader(ds, 2, false, nil)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if loader.NumBatches() != 3 {
		t.Errorf("NumBatches = %d, want 3", loader.NumBatches())
	}

	batches := loader.Batches()
	if len(batches) != 3 {
		t.Fatalf("len(batches) = %d, want 3", len(batches))
	}
	// Without shuffling, labels come back in CSV order.
	var labels []int
	for _, b := range batches {
		labels = append(labels, b.Labels...)
	}
	for i, l := range labels {
		if l != i {
			t.Errorf("labels[%d] = %d, want %d", i, l, i)
		}
	}
	if batches[2].Size() != 1 {
		t.Errorf("last batch size = %d, want 1", batches[2].Size())
	}
}

func TestLoaderShuffleDeterministic(t *testing.T) {
	examples := make([]LabeledExample, 20)
	for i := range examples {
		examples[i] = LabeledExample{Text: "good movie", Label: i}
	}
	ds, err := NewDataset(examples, testTokenizer(t, 8))
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}

	order := func(seed int64) []int {
		loader, err := NewLoader(ds, 4, true, rand.New(rand.NewSource(seed)))
		if err != nil {
			t.Fatalf("NewLoader: %v", err)
		}
		var labels []int
		for _, b := range loader.Batches() {
			labels = append(labels, b.Labels...)
		}
		return labels
	}

	a, b := order(2020), order(2020)
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if !same {
		t.Error("same seed must produce the same order")
	}

	c := order(7)
	diff := false
	for i := range a {
		if a[i] != c[i] {
			diff = true
			break
		}
	}
	if !diff {
		t.Error("different seeds should produce different orders")
	}
}

func TestSetTagIDs(t *testing.T) {
	examples := []LabeledExample{
		{Text: "good movie", Label: 0},
		{Text: "bad movie", Label: 1},
	}
	ds, err := NewDataset(examples, testTokenizer(t, 8))
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}

	good := [][]int{make([]int, 8), make([]int, 8)}
	if err := ds.SetTagIDs(good); err != nil {
		t.Errorf("SetTagIDs: %v", err)
	}

	if err := ds.SetTagIDs([][]int{make([]int, 8)}); err == nil {
		t.Error("expected row-count mismatch error")
	}
	if err := ds.SetTagIDs([][]int{make([]int, 8), make([]int, 4)}); err == nil {
		t.Error("expected row-length mismatch error")
	}

	loader, err := NewLoader(ds, 2, false, nil)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	batches := loader.Batches()
	if batches[0].TagIDs == nil {
		t.Error("expected TagIDs on batch when dataset has annotations")
	}
}
