package postag

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/tagtext/dataset"
	"github.com/YuminosukeSato/tagtext/pkg/errors"
	"github.com/YuminosukeSato/tagtext/pkg/log"
)

// Annotator runs the POS tagger over labeled splits and accumulates the
// global tag vocabulary and maximum position. Accumulation state lives on
// the struct and is carried across ProcessSplit calls for all splits of a
// run; the vocabularies are written once at the end via WriteVocabs.
type Annotator struct {
	tagger *Tagger
	logger log.Logger

	maxPos int
	tagSet map[string]struct{}
}

// NewAnnotator creates an annotator with the tag set pre-seeded with the
// padding and fallback markers.
func NewAnnotator(logger log.Logger) *Annotator {
	if logger == nil {
		logger = log.GetLoggerWithName("postag")
	}
	return &Annotator{
		tagger: NewTagger(),
		logger: logger,
		maxPos: 0,
		tagSet: map[string]struct{}{
			PadTag: {},
			UnkTag: {},
		},
	}
}

// SplitName derives the split name from a CSV path: "train_data.csv"
// becomes "train".
func SplitName(csvPath string) string {
	base := filepath.Base(csvPath)
	return strings.TrimSuffix(base, "_data.csv")
}

// ProcessSplit reads all rows of one split, tags each text, and writes the
// split's position and tag annotation files ({split}_pos.json and
// {split}_postag.json, index-keyed). Rows whose tagging fails are logged
// and skipped; their indices are absent from the output maps. Returns the
// number of processed and skipped rows.
func (a *Annotator) ProcessSplit(csvPath, outDir string) (processed, skipped int, err error) {
	split := SplitName(csvPath)
	a.logger.Info("processing split", log.SplitKey, split, log.PathKey, csvPath)

	examples, err := dataset.ReadCSV(csvPath)
	if err != nil {
		return 0, 0, err
	}

	positions := make(map[string][]int)
	tags := make(map[string][]string)

	for i, ex := range examples {
		tokens, tagErr := a.tagger.Tag(ex.Text)
		if tagErr != nil {
			errors.Warn(errors.NewSkippedRowWarning(split, i, tagErr))
			skipped++
			continue
		}

		key := strconv.Itoa(i)
		rowTags := make([]string, len(tokens))
		rowPos := make([]int, len(tokens))
		for j, tok := range tokens {
			rowTags[j] = tok.Tag
			rowPos[j] = j
			a.tagSet[tok.Tag] = struct{}{}
		}
		tags[key] = rowTags
		positions[key] = rowPos

		if len(tokens)-1 > a.maxPos {
			a.maxPos = len(tokens) - 1
		}
		processed++
	}

	if err := writeJSON(filepath.Join(outDir, split+"_pos.json"), positions); err != nil {
		return processed, skipped, err
	}
	if err := writeJSON(filepath.Join(outDir, split+"_postag.json"), tags); err != nil {
		return processed, skipped, err
	}

	a.logger.Info("split annotated",
		log.SplitKey, split,
		log.SamplesKey, processed,
		log.SkippedKey, skipped,
	)
	return processed, skipped, nil
}

// MaxPos returns the largest zero-based position seen so far.
func (a *Annotator) MaxPos() int { return a.maxPos }

// Tags returns the accumulated tag vocabulary in sorted order.
// Sorting makes tag-id assignment reproducible across runs.
func (a *Annotator) Tags() []string {
	tags := make([]string, 0, len(a.tagSet))
	for tag := range a.tagSet {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// WriteVocabs persists the position vocabulary (integers 0..maxPos, one per
// line) and the sorted tag vocabulary.
func (a *Annotator) WriteVocabs(outDir string) error {
	var sb strings.Builder
	for i := 0; i <= a.maxPos; i++ {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strconv.Itoa(i))
	}
	posPath := filepath.Join(outDir, "pos_vocab.txt")
	if err := os.WriteFile(posPath, []byte(sb.String()), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", posPath)
	}

	tagPath := filepath.Join(outDir, "postag_vocab.txt")
	if err := os.WriteFile(tagPath, []byte(strings.Join(a.Tags(), "\n")), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", tagPath)
	}

	a.logger.Info("vocabularies written",
		log.PathKey, outDir,
		log.VocabSizeKey, len(a.tagSet),
		"max_pos", a.maxPos,
	)
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
