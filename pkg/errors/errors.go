// Package errors provides the error and warning system used across tagtext.
// It exposes structured error types for the common failure modes of the
// pipeline (unfitted models, dimension mismatches, out-of-vocabulary tags,
// missing checkpoints) on top of github.com/cockroachdb/errors, so every
// error carries a stack trace and can be logged as a structured object.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("tagtext-warning: %v\n", w)
	}
	// zerolog-backed warn function, injected lazily to avoid an import cycle
	// with pkg/log.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler sets the warning handler for the whole library.
// This controls how warnings such as UndefinedMetricWarning are processed.
//
// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // ignore warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs the zerolog warn function (avoids import cycle).
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning. If a zerolog function has been installed it is
// preferred; otherwise the plain handler is used.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Warning types
//
// ===========================================================================

// UndefinedMetricWarning is raised when an evaluation metric cannot be
// computed, e.g. precision for a class that received no predictions.
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64 // the value returned under this condition
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s.", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning creates a new UndefinedMetricWarning.
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// SkippedRowWarning is raised when a data row cannot be annotated and is
// dropped from the generated artifacts. Later consumers must tolerate the
// resulting gap in the index-keyed annotation files.
type SkippedRowWarning struct {
	Split string
	Row   int
	Err   error
}

func (w *SkippedRowWarning) Error() string {
	return fmt.Sprintf("row %d of split %q skipped: %v", w.Row, w.Split, w.Err)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *SkippedRowWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("split", w.Split).
		Int("row", w.Row).
		AnErr("cause", w.Err).
		Str("type", "SkippedRowWarning")
}

// NewSkippedRowWarning creates a new SkippedRowWarning.
func NewSkippedRowWarning(split string, row int, err error) *SkippedRowWarning {
	return &SkippedRowWarning{Split: split, Row: row, Err: err}
}

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// NotFittedError is returned when Predict or Evaluate is called on a model
// that has not been trained.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("tagtext: %s: this model is not fitted yet. Train it before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace attached.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError is returned when an input does not have the expected shape.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows/sequence, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("tagtext: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError is returned when a parameter fails validation.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tagtext: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace attached.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError is returned when an argument has an invalid or unusable value.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("tagtext: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError is a general error around model construction or execution.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tagtext: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("tagtext: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a ModelError with a stack trace attached.
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// VocabularyError is returned when a vocabulary file is malformed or a
// lookup cannot be resolved even through the fallback token.
type VocabularyError struct {
	Path   string
	Reason string
}

func (e *VocabularyError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("tagtext: vocabulary %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("tagtext: vocabulary: %s", e.Reason)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *VocabularyError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		Str("reason", e.Reason).
		Str("type", "VocabularyError")
}

// NewVocabularyError creates a VocabularyError with a stack trace attached.
func NewVocabularyError(path, reason string) error {
	err := &VocabularyError{Path: path, Reason: reason}
	return errors.WithStack(err)
}

// CheckpointError is returned when a model checkpoint cannot be read or
// written. A missing checkpoint at prediction time is an error, never a
// silent fallback to in-memory weights.
type CheckpointError struct {
	Path string
	Op   string // "load" or "save"
	Err  error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("tagtext: checkpoint %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *CheckpointError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *CheckpointError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		Str("operation", e.Op).
		AnErr("cause", e.Err).
		Str("type", "CheckpointError")
}

// NewCheckpointError creates a CheckpointError with a stack trace attached.
func NewCheckpointError(path, op string, err error) error {
	ckptErr := &CheckpointError{Path: path, Op: op, Err: err}
	return errors.WithStack(ckptErr)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates an error with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common error variables
//
// ===========================================================================

var (
	// ErrNotImplemented signals a model variant accepted by the CLI but not
	// built in this repository.
	ErrNotImplemented = New("not implemented")

	// ErrEmptyData signals an empty dataset or batch.
	ErrEmptyData = New("empty data")
)
