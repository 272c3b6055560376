// Package tagtext is a text-classification experiment toolkit built
// around POS-tag embedding fusion.
//
// The pipeline runs in three stages over CSV splits
// ({train,dev,test}_data.csv with text,label columns):
//
//   - annotate: POS-tag every row, persist per-split position and tag
//     annotations, and build the position, tag and word vocabularies.
//   - train: fit either a small transformer encoder whose input
//     embeddings fuse word, position, segment and POS-tag vectors, or a
//     convolutional baseline; after every epoch the dev split is
//     evaluated and the best checkpoint/result pair is replaced only on
//     a strict macro-F1 improvement.
//   - predict: load the best checkpoint and report per-class metrics on
//     the test split.
//
// See cmd/tagtext for the command-line entry point.
package tagtext
