// Package model provides shared state management and persistence for
// tagtext classifiers.
package model

import (
	"sync"

	"github.com/YuminosukeSato/tagtext/pkg/errors"
)

// StateManager tracks the fitted state of a model in a thread-safe manner.
// Classifiers embed it by composition; fields are public for gob encoding.
type StateManager struct {
	Fitted bool
	mu     sync.RWMutex

	// Dimensions seen during training, public for gob encoding.
	NClasses int
	NSamples int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{
		Fitted: false,
	}
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the model as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
}

// Reset resets the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NClasses = 0
	s.NSamples = 0
}

// SetDimensions records the number of classes and samples seen in training.
func (s *StateManager) SetDimensions(nClasses, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NClasses = nClasses
	s.NSamples = nSamples
}

// GetDimensions returns the number of classes and samples seen in training.
func (s *StateManager) GetDimensions() (nClasses, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NClasses, s.NSamples
}

// RequireFitted returns a NotFittedError if the model has not been fitted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}
