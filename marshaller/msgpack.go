package marshaller

import (
	"github.com/vmihailenco/msgpack/v5"
)

// TypedMsgpackMarshaller is a generic MessagePack marshaller for typed objects.
// It is more compact than YAML and keeps byte slices as binary values.
type TypedMsgpackMarshaller[T any] struct{}

var _ TypedMarshaller[struct{}] = TypedMsgpackMarshaller[struct{}]{}

// NewTypedMsgpackMarshaller creates a new TypedMsgpackMarshaller for the specified type.
func NewTypedMsgpackMarshaller[T any]() TypedMsgpackMarshaller[T] {
	return TypedMsgpackMarshaller[T]{}
}

// Marshal serializes the typed data to MessagePack format.
func (m TypedMsgpackMarshaller[T]) Marshal(data T) ([]byte, error) {
	marshalled, err := msgpack.Marshal(data)
	if err != nil {
		return []byte{}, errMarshal(formatMsgpack, err)
	}

	return marshalled, nil
}

// Unmarshal deserializes MessagePack data into a typed object.
func (m TypedMsgpackMarshaller[T]) Unmarshal(data []byte) (T, error) {
	var out T

	err := msgpack.Unmarshal(data, &out)
	if err != nil {
		return zero[T](), errUnmarshal(formatMsgpack, err)
	}

	return out, nil
}
