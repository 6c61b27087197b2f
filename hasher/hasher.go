// Package hasher provides the checksum functions used to protect stored
// documents.
package hasher

import (
	"crypto/sha1" //nolint:gosec
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
)

// ErrDataIsNil is returned if the passed data is nil.
var ErrDataIsNil = errors.New("data is nil")

// Hasher computes a checksum of a document. Names identify hashers in
// stored rows, so two hashers with the same name must be interchangeable.
type Hasher interface {
	Name() string
	Hash(data []byte) ([]byte, error)
}

// hashHasher creates a fresh hash.Hash per call and is safe for concurrent use.
type hashHasher struct {
	name string
	new  func() hash.Hash
}

// NewSHA256Hasher creates a SHA-256 hasher.
func NewSHA256Hasher() Hasher {
	return hashHasher{name: "sha256", new: sha256.New}
}

// NewSHA1Hasher creates a SHA-1 hasher.
func NewSHA1Hasher() Hasher {
	return hashHasher{name: "sha1", new: sha1.New}
}

// NewCRC32Hasher creates a CRC-32 hasher with the Castagnoli polynomial.
func NewCRC32Hasher() Hasher {
	table := crc32.MakeTable(crc32.Castagnoli)

	return hashHasher{name: "crc32c", new: func() hash.Hash { return crc32.New(table) }}
}

// Name implements Hasher interface.
func (h hashHasher) Name() string {
	return h.name
}

// Hash implements Hasher interface.
func (h hashHasher) Hash(data []byte) ([]byte, error) {
	if data == nil {
		return nil, ErrDataIsNil
	}

	digest := h.new()

	n, err := digest.Write(data)
	if n < len(data) || err != nil {
		return nil, fmt.Errorf("failed to write data: %w", err)
	}

	return digest.Sum(nil), nil
}
