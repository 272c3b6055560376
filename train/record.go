// Package train implements the experiment drivers: the vocabulary
// annotation pass, the epoch loop with checkpoint-on-improvement, learning
// curves, and prediction from a persisted checkpoint.
package train

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/tagtext/core/model"
	"github.com/YuminosukeSato/tagtext/models"
	"github.com/YuminosukeSato/tagtext/pkg/errors"
	"github.com/YuminosukeSato/tagtext/pkg/log"
)

// Result is the evaluation record persisted next to the best checkpoint.
type Result struct {
	Acc       float64 `json:"acc"`
	F1        float64 `json:"f1"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// ResultPath returns the best-result file for a model name.
func ResultPath(logDir, modelName string) string {
	return filepath.Join(logDir, "best_"+modelName+"_result.json")
}

// CheckpointPath returns the best-checkpoint file for a model name.
func CheckpointPath(savePath, modelName string) string {
	return filepath.Join(savePath, "best_"+modelName+"_model.gob")
}

// LoadResult reads a persisted result. A missing file means no prior best
// and returns (nil, nil).
func LoadResult(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return &r, nil
}

// UpdateBest replaces the checkpoint/result pair when result strictly
// improves on the persisted F1. The two files are written via temp file and
// rename so a non-improving epoch leaves both untouched and a crash cannot
// leave a torn pair. Returns whether the pair was replaced.
func UpdateBest(snap *models.Snapshot, result Result, savePath, logDir string, logger log.Logger) (bool, error) {
	resultPath := ResultPath(logDir, snap.Name)
	ckptPath := CheckpointPath(savePath, snap.Name)

	prior, err := LoadResult(resultPath)
	if err != nil {
		return false, err
	}
	if prior != nil && result.F1 <= prior.F1 {
		logger.Info("no improvement, keeping previous best",
			log.F1Key, result.F1,
			"best_f1", prior.F1,
		)
		return false, nil
	}

	if err := os.MkdirAll(savePath, 0o755); err != nil {
		return false, errors.NewCheckpointError(savePath, "mkdir", err)
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return false, errors.NewCheckpointError(logDir, "mkdir", err)
	}

	// Checkpoint first, result last: an interrupted update can leave a new
	// checkpoint with the old result, never the reverse, so the persisted F1
	// never overstates the persisted weights.
	if err := model.SaveModelAtomic(snap, ckptPath); err != nil {
		return false, errors.NewCheckpointError(ckptPath, "save", err)
	}
	if err := writeJSONAtomic(resultPath, result); err != nil {
		return false, err
	}

	logger.Info("new best checkpoint",
		log.F1Key, result.F1,
		log.AccuracyKey, result.Acc,
		log.CheckpointKey, ckptPath,
		log.ResultKey, resultPath,
	)
	return true, nil
}

func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal %s", path)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return errors.Wrapf(err, "create temp for %s", path)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "close %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "rename to %s", path)
	}
	return nil
}
