package model

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// SaveModel writes a gob-encoded model to a file.
//
// Example:
//
//	clf := models.NewCNNClassifier(...)
//	// ... training ...
//	err := model.SaveModel(clf.StateDict(), "best_cnn_model.gob")
func SaveModel(model interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(model); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	return nil
}

// LoadModel reads a gob-encoded model from a file into model, which must be
// a pointer.
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(model); err != nil {
		return fmt.Errorf("failed to decode model: %w", err)
	}

	return nil
}

// SaveModelAtomic writes a gob-encoded model to filename via a temporary
// file in the same directory followed by a rename. Readers never observe a
// partially written checkpoint.
func SaveModelAtomic(model interface{}, filename string) error {
	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, filepath.Base(filename)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	encoder := gob.NewEncoder(tmp)
	if err := encoder.Encode(model); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, filename); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// SaveModelToWriter writes a gob-encoded model to w.
func SaveModelToWriter(model interface{}, w io.Writer) error {
	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(model); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// LoadModelFromReader reads a gob-encoded model from r into model, which
// must be a pointer.
func LoadModelFromReader(model interface{}, r io.Reader) error {
	decoder := gob.NewDecoder(r)
	if err := decoder.Decode(model); err != nil {
		return fmt.Errorf("failed to decode model: %w", err)
	}
	return nil
}
