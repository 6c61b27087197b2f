package marshaller

import (
	"fmt"
)

const (
	formatYAML    = "yaml"
	formatMsgpack = "msgpack"
)

// MarshalError represents an error when marshalling fails.
type MarshalError struct {
	// Format is the serialization format, "yaml" or "msgpack".
	Format string
	parent error
}

func errMarshal(format string, parent error) error {
	if parent == nil {
		return nil
	}

	return MarshalError{Format: format, parent: parent}
}

// Unwrap returns the underlying error that caused the marshalling failure.
func (e MarshalError) Unwrap() error {
	return e.parent
}

func (e MarshalError) Error() string {
	return fmt.Sprintf("failed to marshal %s value: %s", e.Format, e.parent)
}

// UnmarshalError represents an error when unmarshalling fails.
type UnmarshalError struct {
	// Format is the serialization format, "yaml" or "msgpack".
	Format string
	parent error
}

func errUnmarshal(format string, parent error) error {
	if parent == nil {
		return nil
	}

	return UnmarshalError{Format: format, parent: parent}
}

// Unwrap returns the underlying error that caused the unmarshalling failure.
func (e UnmarshalError) Unwrap() error {
	return e.parent
}

func (e UnmarshalError) Error() string {
	return fmt.Sprintf("failed to unmarshal %s value: %s", e.Format, e.parent)
}
