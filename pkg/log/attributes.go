package log

// Attribute keys shared across the pipeline. Keeping field names in one
// place makes log output greppable across annotation, training, and
// prediction runs.

// Model and run identification.
const (
	// ModelNameKey identifies the classifier variant (baseline_bert, cnn).
	ModelNameKey = "model.name"

	// ComponentKey identifies the package emitting the record.
	ComponentKey = "component"

	// OperationKey names the operation being performed (annotate, train,
	// evaluate, predict, checkpoint).
	OperationKey = "operation"

	// SeedKey records the random seed of the run.
	SeedKey = "run.seed"
)

// Data attributes.
const (
	// SplitKey names the dataset split (train, dev, test).
	SplitKey = "data.split"

	// SamplesKey is the number of examples processed.
	SamplesKey = "data.samples"

	// SkippedKey is the number of rows skipped during annotation.
	SkippedKey = "data.skipped"

	// BatchSizeKey is the mini-batch size.
	BatchSizeKey = "data.batch_size"

	// BatchKey is the index of the current mini-batch.
	BatchKey = "data.batch"

	// MaxLenKey is the fixed tokenized sequence length.
	MaxLenKey = "data.max_len"

	// VocabSizeKey is the size of a vocabulary (token or POS tag).
	VocabSizeKey = "data.vocab_size"
)

// Training and evaluation attributes.
const (
	// EpochKey is the current epoch number.
	EpochKey = "train.epoch"

	// LossKey is a loss value (running or epoch mean).
	LossKey = "train.loss"

	// LRKey is the optimizer learning rate.
	LRKey = "train.lr"

	// AccuracyKey is classification accuracy.
	AccuracyKey = "metrics.acc"

	// F1Key is macro-averaged F1.
	F1Key = "metrics.f1"

	// PrecisionKey is macro-averaged precision.
	PrecisionKey = "metrics.precision"

	// RecallKey is macro-averaged recall.
	RecallKey = "metrics.recall"

	// DurationSecondsKey is wall-clock time of a phase in seconds.
	DurationSecondsKey = "perf.duration_seconds"
)

// Artifact attributes.
const (
	// PathKey is a file path being read or written.
	PathKey = "artifact.path"

	// CheckpointKey is the checkpoint file path.
	CheckpointKey = "artifact.checkpoint"

	// ResultKey is the best-result record path.
	ResultKey = "artifact.result"
)
