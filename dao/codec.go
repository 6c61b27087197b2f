package dao

import (
	"github.com/tarantool/go-tablestore/filter"
	"github.com/tarantool/go-tablestore/row"
)

// Codec converts domain keys and objects of one entity type to rows.
// Row keys must be order-preserving: pagination returns objects in row key
// order. Reverse row keys must invert that order.
type Codec[K, V any] interface {
	// RowKey encodes a key into the row key of the primary table.
	RowKey(key K) []byte
	// RowKeyOf returns the row key of an object.
	RowKeyOf(object V) []byte
	// Row encodes an object into a row keyed by RowKeyOf(object).
	Row(object V) (row.Row, error)
	// Object decodes a row of the primary table.
	Object(r row.Row) (V, error)
	// ReverseRowKey encodes a key into the row key of the reverse index.
	ReverseRowKey(key K) []byte
	// ReverseRowKeyOf returns the reverse row key of an object.
	ReverseRowKeyOf(object V) []byte
	// PrefixFilter returns the filter restricting a forward scan to the
	// keys sharing the prefix of key, or nil if keys have no prefix.
	PrefixFilter(key K) filter.Filter
}

// ReversePrefixer is implemented by codecs whose reverse keys keep a
// prefix. Backward scans use it to stay inside the prefix of the key.
type ReversePrefixer[K any] interface {
	// ReversePrefixFilter returns the filter restricting a reverse index
	// scan to the reverse keys sharing the prefix of key, or nil.
	ReversePrefixFilter(key K) filter.Filter
}
