package train

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/YuminosukeSato/tagtext/dataset"
	"github.com/YuminosukeSato/tagtext/pkg/errors"
	"github.com/YuminosukeSato/tagtext/pkg/log"
	"github.com/YuminosukeSato/tagtext/postag"
	"github.com/YuminosukeSato/tagtext/tokenize"
)

// File names inside the data directory.
const (
	wordVocabFile = "vocab.txt"
	tagVocabFile  = "postag_vocab.txt"
)

func splitCSV(dataDir, split string) string {
	return filepath.Join(dataDir, split+"_data.csv")
}

// loadSplit reads one split, tokenizes it, and attaches POS-tag id rows
// when a tag vocabulary is given. Rows skipped at annotation time come back
// all-padding, matching the annotator's output.
func loadSplit(dataDir, split string, tok *tokenize.Tokenizer, tags *postag.TagVocab) (*dataset.Dataset, error) {
	examples, err := dataset.ReadCSV(splitCSV(dataDir, split))
	if err != nil {
		return nil, err
	}
	ds, err := dataset.NewDataset(examples, tok)
	if err != nil {
		return nil, err
	}

	if tags != nil {
		annotations, err := postag.LoadAnnotations(filepath.Join(dataDir, split+"_postag.json"))
		if err != nil {
			return nil, err
		}
		rows := tags.IDRows(annotations, ds.Len(), tok.MaxLen())
		if err := ds.SetTagIDs(rows); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// Annotate runs the POS tagger over the train, dev and test splits of
// dataDir, writes the annotation files and both tag vocabularies, and
// builds the word vocabulary from the train split.
func Annotate(dataDir string, logger log.Logger) error {
	annotator := postag.NewAnnotator(logger)
	for _, split := range []string{"train", "dev", "test"} {
		processed, skipped, err := annotator.ProcessSplit(splitCSV(dataDir, split), dataDir)
		if err != nil {
			return err
		}
		logger.Info("split done",
			log.SplitKey, split,
			log.SamplesKey, processed,
			log.SkippedKey, skipped,
		)
	}
	if err := annotator.WriteVocabs(dataDir); err != nil {
		return err
	}

	examples, err := dataset.ReadCSV(splitCSV(dataDir, "train"))
	if err != nil {
		return err
	}
	texts := make([]string, len(examples))
	for i, ex := range examples {
		texts[i] = ex.Text
	}
	vocab := tokenize.BuildVocab(texts)
	vocabPath := filepath.Join(dataDir, wordVocabFile)
	if err := os.WriteFile(vocabPath, []byte(strings.Join(vocab, "\n")), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", vocabPath)
	}

	logger.Info("word vocabulary written",
		log.PathKey, vocabPath,
		log.VocabSizeKey, len(vocab),
	)
	return nil
}
