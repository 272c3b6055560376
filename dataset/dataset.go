// Package dataset loads labeled CSV splits, tokenizes them into
// fixed-length model inputs, and serves shuffled or in-order mini-batches.
package dataset

import (
	"encoding/csv"
	"io"
	"math/rand"
	"os"
	"strconv"

	"github.com/YuminosukeSato/tagtext/core/parallel"
	"github.com/YuminosukeSato/tagtext/pkg/errors"
	"github.com/YuminosukeSato/tagtext/tokenize"
)

// LabeledExample is one raw CSV row: a text and its integer class id.
// Immutable once read.
type LabeledExample struct {
	Text  string
	Label int
}

// ReadCSV reads a two-column (text,label) CSV file. A header row is
// required and skipped.
func ReadCSV(path string) ([]LabeledExample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 2

	// Header row.
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, errors.NewValueError("ReadCSV", "missing header row in "+path)
		}
		return nil, errors.Wrapf(err, "read header of %s", path)
	}

	var examples []LabeledExample
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read row %d of %s", len(examples)+2, path)
		}
		label, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, errors.NewValidationError("label", "must be an integer class id", record[1])
		}
		examples = append(examples, LabeledExample{Text: record[0], Label: label})
	}

	if len(examples) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "%s", path)
	}
	return examples, nil
}

// parallelThreshold is the dataset size above which tokenization fans out
// across CPU cores.
const parallelThreshold = 256

// Dataset holds tokenized examples for one split. TagIDs is optional; when
// present it is row-aligned with the examples.
type Dataset struct {
	InputIDs      [][]int
	AttentionMask [][]int
	TagIDs        [][]int
	Labels        []int
}

// NewDataset tokenizes all examples with tok. Tokenization is independent
// per row, so large splits are processed in parallel.
func NewDataset(examples []LabeledExample, tok *tokenize.Tokenizer) (*Dataset, error) {
	if len(examples) == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}

	ds := &Dataset{
		InputIDs:      make([][]int, len(examples)),
		AttentionMask: make([][]int, len(examples)),
		Labels:        make([]int, len(examples)),
	}

	parallel.ParallelizeWithThreshold(len(examples), parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			enc := tok.Encode(examples[i].Text)
			ds.InputIDs[i] = enc.InputIDs
			ds.AttentionMask[i] = enc.AttentionMask
			ds.Labels[i] = examples[i].Label
		}
	})

	return ds, nil
}

// SetTagIDs attaches row-aligned POS-tag id sequences. Each row must have
// the same fixed length as the token ids.
func (d *Dataset) SetTagIDs(tagIDs [][]int) error {
	if len(tagIDs) != len(d.Labels) {
		return errors.NewDimensionError("SetTagIDs", len(d.Labels), len(tagIDs), 0)
	}
	for i, row := range tagIDs {
		if len(row) != len(d.InputIDs[i]) {
			return errors.NewDimensionError("SetTagIDs", len(d.InputIDs[i]), len(row), 1)
		}
	}
	d.TagIDs = tagIDs
	return nil
}

// Len returns the number of examples.
func (d *Dataset) Len() int { return len(d.Labels) }

// NumClasses returns 1 + the maximum label value.
func (d *Dataset) NumClasses() int {
	max := 0
	for _, l := range d.Labels {
		if l > max {
			max = l
		}
	}
	return max + 1
}

// Batch is one mini-batch of model inputs. TagIDs is nil when the dataset
// carries no POS annotations.
type Batch struct {
	InputIDs      [][]int
	AttentionMask [][]int
	TagIDs        [][]int
	Labels        []int
}

// Size returns the number of examples in the batch.
func (b *Batch) Size() int { return len(b.Labels) }

// Loader serves mini-batches over a dataset. With shuffling enabled the
// order is re-drawn from the seeded source on every pass.
type Loader struct {
	ds        *Dataset
	batchSize int
	shuffle   bool
	rng       *rand.Rand
}

// NewLoader creates a batch loader. The rng is only consulted when shuffle
// is true; evaluation and test loaders pass shuffle=false and keep CSV
// order.
func NewLoader(ds *Dataset, batchSize int, shuffle bool, rng *rand.Rand) (*Loader, error) {
	if batchSize <= 0 {
		return nil, errors.NewValidationError("batchSize", "must be positive", batchSize)
	}
	if shuffle && rng == nil {
		return nil, errors.NewValidationError("rng", "required when shuffle is enabled", nil)
	}
	return &Loader{ds: ds, batchSize: batchSize, shuffle: shuffle, rng: rng}, nil
}

// NumBatches returns the number of batches per pass (ceiling division).
func (l *Loader) NumBatches() int {
	return (l.ds.Len() + l.batchSize - 1) / l.batchSize
}

// Len returns the number of underlying examples.
func (l *Loader) Len() int { return l.ds.Len() }

// Batches returns one full pass over the dataset as a slice of batches.
func (l *Loader) Batches() []Batch {
	n := l.ds.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if l.shuffle {
		l.rng.Shuffle(n, func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	batches := make([]Batch, 0, l.NumBatches())
	for start := 0; start < n; start += l.batchSize {
		end := start + l.batchSize
		if end > n {
			end = n
		}
		b := Batch{
			InputIDs:      make([][]int, 0, end-start),
			AttentionMask: make([][]int, 0, end-start),
			Labels:        make([]int, 0, end-start),
		}
		if l.ds.TagIDs != nil {
			b.TagIDs = make([][]int, 0, end-start)
		}
		for _, idx := range order[start:end] {
			b.InputIDs = append(b.InputIDs, l.ds.InputIDs[idx])
			b.AttentionMask = append(b.AttentionMask, l.ds.AttentionMask[idx])
			b.Labels = append(b.Labels, l.ds.Labels[idx])
			if l.ds.TagIDs != nil {
				b.TagIDs = append(b.TagIDs, l.ds.TagIDs[idx])
			}
		}
		batches = append(batches, b)
	}
	return batches
}
