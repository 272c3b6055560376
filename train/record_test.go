package train

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/tagtext/models"
	"github.com/YuminosukeSato/tagtext/pkg/log"
)

func testSnapshot(t *testing.T) *models.Snapshot {
	t.Helper()
	cfg := models.CNNConfig{
		VocabSize:  10,
		EmbedDim:   4,
		Widths:     []int{2},
		NumFilters: 3,
		NumLabels:  2,
		Dropout:    0,
	}
	m, err := models.NewCNNClassifier(cfg, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewCNNClassifier: %v", err)
	}
	return m.Snapshot()
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	return data
}

func TestLoadResultMissingFileMeansNoPrior(t *testing.T) {
	r, err := LoadResult(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadResult: %v", err)
	}
	if r != nil {
		t.Errorf("result = %+v, want nil for missing file", r)
	}
}

func TestUpdateBestFirstWrite(t *testing.T) {
	dir := t.TempDir()
	snap := testSnapshot(t)
	logger := log.NewTestLogger(log.LevelInfo)

	replaced, err := UpdateBest(snap, Result{Acc: 0.5, F1: 0.4}, dir, dir, logger)
	if err != nil {
		t.Fatalf("UpdateBest: %v", err)
	}
	if !replaced {
		t.Error("first evaluation must always persist")
	}

	if _, err := os.Stat(CheckpointPath(dir, snap.Name)); err != nil {
		t.Errorf("checkpoint missing: %v", err)
	}
	r, err := LoadResult(ResultPath(dir, snap.Name))
	if err != nil {
		t.Fatalf("LoadResult: %v", err)
	}
	if r == nil || r.F1 != 0.4 {
		t.Errorf("persisted result = %+v, want F1 0.4", r)
	}
}

func TestUpdateBestImprovementReplacesPair(t *testing.T) {
	dir := t.TempDir()
	snap := testSnapshot(t)
	logger := log.NewTestLogger(log.LevelInfo)

	if _, err := UpdateBest(snap, Result{F1: 0.4}, dir, dir, logger); err != nil {
		t.Fatalf("UpdateBest: %v", err)
	}
	replaced, err := UpdateBest(snap, Result{F1: 0.6, Acc: 0.7}, dir, dir, logger)
	if err != nil {
		t.Fatalf("UpdateBest: %v", err)
	}
	if !replaced {
		t.Error("strictly better F1 must replace the pair")
	}
	r, _ := LoadResult(ResultPath(dir, snap.Name))
	if r.F1 != 0.6 {
		t.Errorf("persisted F1 = %f, want 0.6", r.F1)
	}
}

func TestUpdateBestNonImprovementLeavesFilesByteIdentical(t *testing.T) {
	dir := t.TempDir()
	snap := testSnapshot(t)
	logger := log.NewTestLogger(log.LevelInfo)

	if _, err := UpdateBest(snap, Result{Acc: 0.95, F1: 0.9}, dir, dir, logger); err != nil {
		t.Fatalf("UpdateBest: %v", err)
	}
	ckptBefore := readFile(t, CheckpointPath(dir, snap.Name))
	resultBefore := readFile(t, ResultPath(dir, snap.Name))

	// Equal F1 is not an improvement: comparison is strict.
	for _, f1 := range []float64{0.5, 0.9} {
		replaced, err := UpdateBest(snap, Result{Acc: 0.99, F1: f1}, dir, dir, logger)
		if err != nil {
			t.Fatalf("UpdateBest(f1=%f): %v", f1, err)
		}
		if replaced {
			t.Errorf("f1=%f replaced a persisted best of 0.9", f1)
		}
	}

	ckptAfter := readFile(t, CheckpointPath(dir, snap.Name))
	resultAfter := readFile(t, ResultPath(dir, snap.Name))
	if string(ckptBefore) != string(ckptAfter) {
		t.Error("checkpoint changed after non-improving evaluations")
	}
	if string(resultBefore) != string(resultAfter) {
		t.Error("result changed after non-improving evaluations")
	}
}

func TestUpdateBestLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	snap := testSnapshot(t)

	if _, err := UpdateBest(snap, Result{F1: 0.3}, dir, dir, log.NewTestLogger(log.LevelInfo)); err != nil {
		t.Fatalf("UpdateBest: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory has %v, want exactly checkpoint and result", names)
	}
}
