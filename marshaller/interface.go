// Package marshaller provides typed serialization of domain objects into
// cell values.
package marshaller

// TypedMarshaller is a generic interface for typed marshalling operations.
type TypedMarshaller[T any] interface {
	Marshal(data T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
}

func zero[T any]() T {
	var out T
	return out
}
