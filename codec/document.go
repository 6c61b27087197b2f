// Package codec provides reusable row codecs for DAOs.
//
// A Document stores a whole object in one cell. Optional checksums and
// signatures are stored next to it, one cell per algorithm, and checked
// every time the object is read back.
package codec

import (
	"bytes"
	"fmt"

	"github.com/tarantool/go-tablestore/crypto"
	"github.com/tarantool/go-tablestore/filter"
	"github.com/tarantool/go-tablestore/hasher"
	"github.com/tarantool/go-tablestore/marshaller"
	"github.com/tarantool/go-tablestore/row"
	"github.com/tarantool/go-tablestore/rowkey"
)

var (
	// DocumentFamily is the column family of the document cell.
	DocumentFamily = []byte("d") //nolint:gochecknoglobals
	// DocumentQualifier is the qualifier of the document cell.
	DocumentQualifier = []byte("v") //nolint:gochecknoglobals
	// HashFamily holds one checksum per hasher, qualified by hasher name.
	HashFamily = []byte("h") //nolint:gochecknoglobals
	// SignatureFamily holds one signature per signer, qualified by signer name.
	SignatureFamily = []byte("s") //nolint:gochecknoglobals
)

// Document is a codec storing objects through a typed marshaller. Reverse
// row keys are the bitwise complement of row keys. Use NewDocumentBuilder
// to create one.
type Document[K, V any] struct {
	rowKey     func(key K) []byte
	keyOf      func(object V) K
	prefix     func(key K) []byte
	marshaller marshaller.TypedMarshaller[V]
	hashers    []hasher.Hasher
	signers    []crypto.Signer
	verifiers  []crypto.Verifier
}

// RowKey returns the row key of key.
func (d *Document[K, V]) RowKey(key K) []byte {
	return d.rowKey(key)
}

// RowKeyOf returns the row key of object.
func (d *Document[K, V]) RowKeyOf(object V) []byte {
	return d.rowKey(d.keyOf(object))
}

// Row marshals object into the document cell and adds its checksums and
// signatures.
func (d *Document[K, V]) Row(object V) (row.Row, error) {
	data, err := d.marshaller.Marshal(object)
	if err != nil {
		return row.Row{}, fmt.Errorf("failed to marshal document: %w", err)
	}

	r := row.New(d.RowKeyOf(object))
	r.AddColumn(DocumentFamily, DocumentQualifier, data)

	for _, h := range d.hashers {
		sum, err := h.Hash(data)
		if err != nil {
			return row.Row{}, fmt.Errorf("failed to calculate %s hash: %w", h.Name(), err)
		}

		r.AddColumn(HashFamily, []byte(h.Name()), sum)
	}

	for _, s := range d.signers {
		signature, err := s.Sign(data)
		if err != nil {
			return row.Row{}, fmt.Errorf("failed to sign with %s: %w", s.Name(), err)
		}

		r.AddColumn(SignatureFamily, []byte(s.Name()), signature)
	}

	return r, nil
}

// Object validates the document cell of r and unmarshals it.
func (d *Document[K, V]) Object(r row.Row) (V, error) {
	var zero V

	cell, ok := r.Cell(DocumentFamily, DocumentQualifier)
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrMissingDocument, r.Key)
	}

	err := d.validate(r, cell.Value)
	if err != nil {
		return zero, err
	}

	object, err := d.marshaller.Unmarshal(cell.Value)
	if err != nil {
		return zero, fmt.Errorf("failed to unmarshal document %q: %w", r.Key, err)
	}

	return object, nil
}

func (d *Document[K, V]) validate(r row.Row, data []byte) error {
	for _, h := range d.hashers {
		stored, ok := r.Cell(HashFamily, []byte(h.Name()))
		if !ok {
			return &ValidationError{Key: r.Key, Algorithm: h.Name(), Err: ErrMissingHash}
		}

		sum, err := h.Hash(data)
		if err != nil {
			return fmt.Errorf("failed to calculate %s hash: %w", h.Name(), err)
		}

		if !bytes.Equal(sum, stored.Value) {
			return &ValidationError{Key: r.Key, Algorithm: h.Name(), Err: ErrHashMismatch}
		}
	}

	for _, v := range d.verifiers {
		signature, ok := r.Cell(SignatureFamily, []byte(v.Name()))
		if !ok {
			return &ValidationError{Key: r.Key, Algorithm: v.Name(), Err: ErrMissingSignature}
		}

		err := v.Verify(data, signature.Value)
		if err != nil {
			return &ValidationError{
				Key:       r.Key,
				Algorithm: v.Name(),
				Err:       fmt.Errorf("%w: %w", ErrSignatureFailed, err),
			}
		}
	}

	return nil
}

// ReverseRowKey returns the reverse row key of key.
func (d *Document[K, V]) ReverseRowKey(key K) []byte {
	return rowkey.Invert(d.rowKey(key))
}

// ReverseRowKeyOf returns the reverse row key of object.
func (d *Document[K, V]) ReverseRowKeyOf(object V) []byte {
	return d.ReverseRowKey(d.keyOf(object))
}

// PrefixFilter returns the prefix filter of key, nil without a prefix.
func (d *Document[K, V]) PrefixFilter(key K) filter.Filter {
	if d.prefix == nil {
		return nil
	}

	return filter.Prefix(d.prefix(key))
}

// ReversePrefixFilter returns the prefix filter of key in reverse key
// space, nil without a prefix.
func (d *Document[K, V]) ReversePrefixFilter(key K) filter.Filter {
	if d.prefix == nil {
		return nil
	}

	return filter.Prefix(rowkey.Invert(d.prefix(key)))
}
