package dao

import (
	"errors"
	"fmt"
)

var (
	// ErrIO is matched by every failure of the underlying store.
	ErrIO = errors.New("store i/o failure")
	// ErrIllegalArgument is returned when a call is rejected because of its arguments.
	ErrIllegalArgument = errors.New("illegal argument")
	// ErrIllegalState is returned when a call is not supported by the DAO configuration.
	ErrIllegalState = errors.New("illegal state")
	// ErrPartialWrite is matched by failures that happened after the primary write succeeded.
	ErrPartialWrite = errors.New("partial write")
	// ErrCorruptReverseIndex is returned when a reverse index entry has no primary row key.
	ErrCorruptReverseIndex = errors.New("corrupt reverse index entry")
)

// IOError is a failure of a store call. It matches ErrIO and the
// error returned by the store.
type IOError struct {
	// Op is the store call that failed.
	Op string
	// Table is the name of the table the call was issued to.
	Table string
	// Err is the error returned by the store.
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %s", e.Op, e.Table, e.Err)
}

// Unwrap returns ErrIO and the store error.
func (e *IOError) Unwrap() []error {
	return []error{ErrIO, e.Err}
}

func errIO(op, tableName string, err error) *IOError {
	return &IOError{Op: op, Table: tableName, Err: err}
}

// Step is a secondary write following a primary write.
type Step string

const (
	// StepCounter increments the row counter of the primary table.
	StepCounter Step = "counter"
	// StepReverseIndex writes the reverse index entries.
	StepReverseIndex Step = "reverse index"
	// StepReverseCounter increments the row counter of the reverse index.
	StepReverseCounter Step = "reverse counter"
)

// PartialWriteError is returned when the primary rows were written but a
// later step failed. Completed steps are not rolled back, so retrying the
// put can count or index the same rows twice.
type PartialWriteError struct {
	// Step is the step that failed.
	Step Step
	// Err is the failure of the step.
	Err error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("primary rows written, %s step failed: %s", e.Step, e.Err)
}

// Unwrap returns ErrPartialWrite and the step failure.
func (e *PartialWriteError) Unwrap() []error {
	return []error{ErrPartialWrite, e.Err}
}

// CodecError is a failure of the entity codec.
type CodecError struct {
	// Op is the codec operation that failed.
	Op string
	// Err is the error returned by the codec.
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("failed to %s: %s", e.Op, e.Err)
}

// Unwrap returns the codec error.
func (e *CodecError) Unwrap() error {
	return e.Err
}

func illegalArgument(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrIllegalArgument}, args...)...)
}

func illegalState(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrIllegalState}, args...)...)
}
