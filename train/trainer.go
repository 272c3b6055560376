package train

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/gosuri/uiprogress"

	"github.com/YuminosukeSato/tagtext/bert"
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

// Config holds the experiment settings. The zero value is not usable; fill
// it from the CLI flags or DefaultConfig.
type Config struct {
	DataDir   string
	SavePath  string
	LogDir    string
	ModelName string

	BatchSize int
	Epochs    int
	MaxLen    int
	LR        float64
	Seed      int64

	// ShowProgress draws a terminal bar per epoch. Off in tests.
	ShowProgress bool
}

// DefaultConfig mirrors the CLI defaults.
func DefaultConfig() Config {
	return Config{
		SavePath:  "./out_models/",
		LogDir:    "./log",
		ModelName: models.NameCNN,
		BatchSize: 768,
		Epochs:    20,
		MaxLen:    tokenize.DefaultMaxLen,
		LR:        2e-4,
		Seed:      2020,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.NewValidationError("DataDir", "required", c.DataDir)
	}
	if c.BatchSize <= 0 {
		return errors.NewValidationError("BatchSize", "must be positive", c.BatchSize)
	}
	if c.Epochs <= 0 {
		return errors.NewValidationError("Epochs", "must be positive", c.Epochs)
	}
	if c.MaxLen < 4 {
		return errors.NewValidationError("MaxLen", "must be at least 4", c.MaxLen)
	}
	if c.LR <= 0 {
		return errors.NewValidationError("LR", "must be positive", c.LR)
	}
	switch c.ModelName {
	case models.NameBert, models.NameCNN, models.NameLSTM:
	default:
		return errors.NewValidationError("ModelName", "unknown model", c.ModelName)
	}
	return nil
}

// Trainer owns one training run: the model, its optimizer, and the train
// and dev loaders.
type Trainer struct {
	cfg    Config
	logger log.Logger

	model models.Classifier
	opt   *nn.AdamW
	state *model.StateManager

	trainLoader *dataset.Loader
	devLoader   *dataset.Loader
	numClasses  int

	trainLosses []float64
	devF1s      []float64
}

// NewTrainer loads the vocabularies and splits, builds the requested model
// with seeded initialization, and wires the optimizer.
func NewTrainer(cfg Config, logger log.Logger) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.GetLoggerWithName("train")
	}
	logger = logger.With(log.ModelNameKey, cfg.ModelName, log.SeedKey, cfg.Seed)

	rng := rand.New(rand.NewSource(cfg.Seed))

	tok, err := tokenize.NewTokenizer(filepath.Join(cfg.DataDir, wordVocabFile), cfg.MaxLen)
	if err != nil {
		return nil, err
	}

	// Only the fusion model consumes POS-tag annotations.
	var tags *postag.TagVocab
	if cfg.ModelName == models.NameBert {
		tags, err = postag.LoadTagVocab(filepath.Join(cfg.DataDir, tagVocabFile))
		if err != nil {
			return nil, err
		}
	}

	trainDS, err := loadSplit(cfg.DataDir, "train", tok, tags)
	if err != nil {
		return nil, err
	}
	devDS, err := loadSplit(cfg.DataDir, "dev", tok, tags)
	if err != nil {
		return nil, err
	}
	numClasses := trainDS.NumClasses()

	clf, err := buildModel(cfg.ModelName, tok, tags, numClasses, cfg.MaxLen, rng)
	if err != nil {
		return nil, err
	}

	state := model.NewStateManager()
	state.SetDimensions(numClasses, trainDS.Len())

	trainLoader, err := dataset.NewLoader(trainDS, cfg.BatchSize, true, rng)
	if err != nil {
		return nil, err
	}
	devLoader, err := dataset.NewLoader(devDS, cfg.BatchSize, false, nil)
	if err != nil {
		return nil, err
	}

	logger.Info("trainer ready",
		log.SamplesKey, trainDS.Len(),
		log.VocabSizeKey, tok.VocabSize(),
		log.BatchSizeKey, cfg.BatchSize,
		log.LRKey, cfg.LR,
		"num_classes", numClasses,
	)

	return &Trainer{
		cfg:         cfg,
		logger:      logger,
		model:       clf,
		opt:         nn.NewAdamW(clf.Parameters(), cfg.LR),
		state:       state,
		trainLoader: trainLoader,
		devLoader:   devLoader,
		numClasses:  numClasses,
	}, nil
}

func buildModel(name string, tok *tokenize.Tokenizer, tags *postag.TagVocab, numClasses, maxLen int, rng *rand.Rand) (models.Classifier, error) {
	switch name {
	case models.NameBert:
		cfg := bert.DefaultConfig()
		cfg.VocabSize = tok.VocabSize()
		cfg.MaxLen = maxLen
		cfg.TagVocabSize = tags.Len()
		return models.NewBertClassifier(cfg, numClasses, rng)
	case models.NameCNN:
		return models.NewCNNClassifier(models.DefaultCNNConfig(tok.VocabSize(), numClasses), rng)
	case models.NameLSTM:
		return models.NewLSTMClassifier(tok.VocabSize(), numClasses, rng)
	default:
		return nil, errors.NewValidationError("ModelName", "unknown model", name)
	}
}

// Run executes all epochs. After each epoch the model is evaluated on the
// dev split and the best checkpoint/result pair is conditionally replaced.
// The returned result is the best seen during this run.
func (t *Trainer) Run() (*Result, error) {
	var best *Result
	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		start := time.Now()
		trainLoss, err := t.trainEpoch(epoch)
		if err != nil {
			return nil, err
		}
		t.trainLosses = append(t.trainLosses, trainLoss)

		result, _, err := t.Evaluate(t.devLoader)
		if err != nil {
			return nil, err
		}
		t.devF1s = append(t.devF1s, result.F1)

		t.logger.Info("epoch finished",
			log.EpochKey, epoch,
			log.LossKey, trainLoss,
			log.F1Key, result.F1,
			log.AccuracyKey, result.Acc,
			log.DurationSecondsKey, time.Since(start).Seconds(),
		)

		if _, err := UpdateBest(t.model.Snapshot(), *result, t.cfg.SavePath, t.cfg.LogDir, t.logger); err != nil {
			return nil, err
		}
		if best == nil || result.F1 > best.F1 {
			best = result
		}
	}

	if err := SaveCurves(filepath.Join(t.cfg.LogDir, "curves.png"), t.trainLosses, t.devF1s); err != nil {
		// Curves are a convenience artifact; a failed render does not fail
		// the run.
		t.logger.Warn("could not render learning curves", "error", err)
	}
	return best, nil
}

// trainEpoch runs one shuffled pass and returns the mean batch loss.
func (t *Trainer) trainEpoch(epoch int) (float64, error) {
	t.model.SetTraining(true)
	batches := t.trainLoader.Batches()

	var bar *uiprogress.Bar
	if t.cfg.ShowProgress {
		uiprogress.Start()
		bar = uiprogress.AddBar(len(batches))
		bar.AppendCompleted()
		bar.PrependFunc(func(*uiprogress.Bar) string {
			return fmt.Sprintf("epoch %d", epoch)
		})
		defer uiprogress.Stop()
	}

	total := 0.0
	for i, batch := range batches {
		t.opt.ZeroGrad()
		b := batch
		loss, _, err := t.model.Forward(&b, b.Labels)
		if err != nil {
			return 0, err
		}
		if err := t.model.Backward(); err != nil {
			return 0, err
		}
		t.opt.Step()
		total += loss

		t.logger.Debug("batch",
			log.EpochKey, epoch,
			log.BatchKey, i,
			log.LossKey, loss,
		)
		if bar != nil {
			bar.Incr()
		}
	}
	t.state.SetFitted()
	return total / float64(len(batches)), nil
}

// Evaluate runs the model over a loader without dropout. Per-batch metrics
// are logged as running information; the returned result is computed once
// over the full split and is the authoritative record. The predictions are
// returned alongside for reporting.
func (t *Trainer) Evaluate(loader *dataset.Loader) (*Result, []int, error) {
	if err := t.state.RequireFitted(t.cfg.ModelName, "Evaluate"); err != nil {
		return nil, nil, err
	}
	t.model.SetTraining(false)
	defer t.model.SetTraining(true)

	golds := make([]int, 0, loader.Len())
	preds := make([]int, 0, loader.Len())

	for i, batch := range loader.Batches() {
		b := batch
		_, logits, err := t.model.Forward(&b, nil)
		if err != nil {
			return nil, nil, err
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
		batchPreds := nn.Argmax(logitRows)
		preds = append(preds, batchPreds...)
		golds = append(golds, b.Labels...)

		if acc, err := metrics.Accuracy(b.Labels, batchPreds); err == nil {
			t.logger.Debug("eval batch", log.BatchKey, i, log.AccuracyKey, acc)
		}
	}

	acc, err := metrics.Accuracy(golds, preds)
	if err != nil {
		return nil, nil, err
	}
	p, r, f1, err := metrics.PrecisionRecallF1Macro(golds, preds, t.numClasses)
	if err != nil {
		return nil, nil, err
	}
	return &Result{Acc: acc, F1: f1, Precision: p, Recall: r}, preds, nil
}

// Model exposes the classifier, mainly for the end-of-run test prediction.
func (t *Trainer) Model() models.Classifier { return t.model }

// NumClasses returns the class count inferred from the train split.
func (t *Trainer) NumClasses() int { return t.numClasses }
