package postag

import (
	"bufio"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/tagtext/pkg/errors"
)

// Vocabulary markers. PadTag fills positions beyond the tagged tokens;
// UnkTag is the explicit fallback for tags absent from the persisted
// vocabulary, so an out-of-vocabulary tag is never silently dropped.
const (
	PadTag = "[PAD]"
	UnkTag = "[UNK]"
)

// TagVocab maps POS tags to embedding-table ids. Ids follow the persisted
// file order, which WriteVocabs guarantees is sorted.
type TagVocab struct {
	tags  []string
	index map[string]int
}

// NewTagVocab builds a vocabulary from an ordered tag list. The list must
// contain the padding and fallback markers and no duplicates.
func NewTagVocab(tags []string) (*TagVocab, error) {
	index := make(map[string]int, len(tags))
	for i, tag := range tags {
		if _, dup := index[tag]; dup {
			return nil, errors.NewVocabularyError("", "duplicate tag "+tag)
		}
		index[tag] = i
	}
	if _, ok := index[PadTag]; !ok {
		return nil, errors.NewVocabularyError("", "missing padding marker "+PadTag)
	}
	if _, ok := index[UnkTag]; !ok {
		return nil, errors.NewVocabularyError("", "missing fallback marker "+UnkTag)
	}
	return &TagVocab{tags: append([]string(nil), tags...), index: index}, nil
}

// LoadTagVocab reads a newline-delimited tag vocabulary file.
func LoadTagVocab(path string) (*TagVocab, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewVocabularyError(path, err.Error())
	}
	defer file.Close()

	var tags []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		tags = append(tags, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewVocabularyError(path, err.Error())
	}

	v, err := NewTagVocab(tags)
	if err != nil {
		return nil, errors.Wrapf(err, "vocabulary %s", path)
	}
	return v, nil
}

// Len returns the vocabulary size. The tag embedding table must have
// exactly this many rows.
func (v *TagVocab) Len() int { return len(v.tags) }

// PadID returns the id of the padding marker.
func (v *TagVocab) PadID() int { return v.index[PadTag] }

// UnkID returns the id of the fallback marker.
func (v *TagVocab) UnkID() int { return v.index[UnkTag] }

// ID returns the id for a tag, falling back to the unknown marker for
// tags outside the vocabulary.
func (v *TagVocab) ID(tag string) int {
	if id, ok := v.index[tag]; ok {
		return id
	}
	return v.index[UnkTag]
}

// LoadAnnotations reads an index-keyed {split}_postag.json file produced by
// the annotator. Gaps from skipped rows are preserved: absent indices are
// simply missing from the returned map.
func LoadAnnotations(path string) (map[int][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}

	out := make(map[int][]string, len(raw))
	for key, tags := range raw {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, errors.NewValidationError("annotation key", "must be an integer row index", key)
		}
		out[idx] = tags
	}
	return out, nil
}

// IDRows converts annotations into fixed-length tag-id rows aligned with
// tokenized inputs: position 0 pads for the sequence-start token, then one
// id per tagged word, truncated and padded to maxLen. Rows skipped during
// annotation come back as all-padding.
func (v *TagVocab) IDRows(annotations map[int][]string, numRows, maxLen int) [][]int {
	rows := make([][]int, numRows)
	for i := 0; i < numRows; i++ {
		row := make([]int, maxLen)
		for j := range row {
			row[j] = v.PadID()
		}
		if tags, ok := annotations[i]; ok {
			for j, tag := range tags {
				if j+1 >= maxLen {
					break
				}
				row[j+1] = v.ID(tag)
			}
		}
		rows[i] = row
	}
	return rows
}
