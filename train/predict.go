package train

import (
	"math/rand"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/tagtext/core/model"
	"github.com/YuminosukeSato/tagtext/dataset"
	"github.com/YuminosukeSato/tagtext/metrics"
	"github.com/YuminosukeSato/tagtext/models"
	"github.com/YuminosukeSato/tagtext/nn"
	"github.com/YuminosukeSato/tagtext/pkg/errors"
	"github.com/YuminosukeSato/tagtext/pkg/log"
	"github.com/YuminosukeSato/tagtext/postag"
	"github.com/YuminosukeSato/tagtext/tokenize"
)

// Predict loads the best checkpoint for cfg.ModelName, runs it over the
// test split in CSV order, and returns the classification report. A
// missing checkpoint is an error: predicting with fresh weights would
// silently produce garbage.
func Predict(cfg Config, logger log.Logger) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if logger == nil {
		logger = log.GetLoggerWithName("predict")
	}
	logger = logger.With(log.ModelNameKey, cfg.ModelName)

	ckptPath := CheckpointPath(cfg.SavePath, cfg.ModelName)
	if _, err := os.Stat(ckptPath); err != nil {
		return "", errors.NewCheckpointError(ckptPath, "stat", err)
	}

	var snap models.Snapshot
	if err := model.LoadModel(&snap, ckptPath); err != nil {
		return "", errors.NewCheckpointError(ckptPath, "load", err)
	}
	clf, err := models.FromSnapshot(&snap, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return "", err
	}
	clf.SetTraining(false)

	tok, err := tokenize.NewTokenizer(filepath.Join(cfg.DataDir, wordVocabFile), cfg.MaxLen)
	if err != nil {
		return "", err
	}
	var tags *postag.TagVocab
	if cfg.ModelName == models.NameBert {
		tags, err = postag.LoadTagVocab(filepath.Join(cfg.DataDir, tagVocabFile))
		if err != nil {
			return "", err
		}
	}
	testDS, err := loadSplit(cfg.DataDir, "test", tok, tags)
	if err != nil {
		return "", err
	}
	loader, err := dataset.NewLoader(testDS, cfg.BatchSize, false, nil)
	if err != nil {
		return "", err
	}

	golds := make([]int, 0, testDS.Len())
	preds := make([]int, 0, testDS.Len())
	for _, batch := range loader.Batches() {
		b := batch
		_, logits, err := clf.Forward(&b, nil)
		if err != nil {
			return "", err
		}
		rows, cols := logits.Dims()
		logitRows := make([][]float64, rows)
		for r := 0; r < rows; r++ {
			row := make([]float64, cols)
			for c := 0; c < cols; c++ {
				row[c] = logits.At(r, c)
			}
			logitRows[r] = row
		}
		preds = append(preds, nn.Argmax(logitRows)...)
		golds = append(golds, b.Labels...)
	}

	report, err := metrics.ClassificationReport(golds, preds, snap.NumLabels)
	if err != nil {
		return "", err
	}

	acc, _ := metrics.Accuracy(golds, preds)
	logger.Info("prediction finished",
		log.SamplesKey, len(golds),
		log.AccuracyKey, acc,
		log.CheckpointKey, ckptPath,
	)
	return report, nil
}
