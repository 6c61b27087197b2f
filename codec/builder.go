package codec

import (
	"slices"

	"github.com/tarantool/go-tablestore/crypto"
	"github.com/tarantool/go-tablestore/hasher"
	"github.com/tarantool/go-tablestore/marshaller"
)

// DocumentBuilder configures a Document codec. Builders are values: every
// With method returns a modified copy.
type DocumentBuilder[K, V any] struct {
	rowKey     func(key K) []byte
	keyOf      func(object V) K
	prefix     func(key K) []byte
	marshaller marshaller.TypedMarshaller[V]
	hashers    []hasher.Hasher
	signers    []crypto.Signer
	verifiers  []crypto.Verifier
}

// NewDocumentBuilder creates a builder from the key function and the key
// extractor of V. The key function must be order-preserving and
// prefix-free, for instance a rowkey composite. Documents are encoded with
// msgpack unless WithMarshaller is used.
func NewDocumentBuilder[K, V any](rowKey func(key K) []byte, keyOf func(object V) K) DocumentBuilder[K, V] {
	return DocumentBuilder[K, V]{
		rowKey:     rowKey,
		keyOf:      keyOf,
		prefix:     nil,
		marshaller: marshaller.NewTypedMsgpackMarshaller[V](),
		hashers:    []hasher.Hasher{},
		signers:    []crypto.Signer{},
		verifiers:  []crypto.Verifier{},
	}
}

func (b DocumentBuilder[K, V]) copy() DocumentBuilder[K, V] {
	return DocumentBuilder[K, V]{
		rowKey:     b.rowKey,
		keyOf:      b.keyOf,
		prefix:     b.prefix,
		marshaller: b.marshaller,
		hashers:    slices.Clone(b.hashers),
		signers:    slices.Clone(b.signers),
		verifiers:  slices.Clone(b.verifiers),
	}
}

// WithMarshaller sets the document marshaller.
func (b DocumentBuilder[K, V]) WithMarshaller(m marshaller.TypedMarshaller[V]) DocumentBuilder[K, V] {
	out := b.copy()
	out.marshaller = m

	return out
}

// WithPrefix sets the row key prefix of a key. Pages started from a key
// stay inside its prefix in both directions.
func (b DocumentBuilder[K, V]) WithPrefix(prefix func(key K) []byte) DocumentBuilder[K, V] {
	out := b.copy()
	out.prefix = prefix

	return out
}

// WithHasher stores a checksum of every document and verifies it on read.
func (b DocumentBuilder[K, V]) WithHasher(h hasher.Hasher) DocumentBuilder[K, V] {
	out := b.copy()
	out.hashers = append(out.hashers, h)

	return out
}

// WithSigner signs every document written.
func (b DocumentBuilder[K, V]) WithSigner(signer crypto.Signer) DocumentBuilder[K, V] {
	out := b.copy()
	out.signers = append(out.signers, signer)

	return out
}

// WithVerifier verifies the signature of every document read.
func (b DocumentBuilder[K, V]) WithVerifier(verifier crypto.Verifier) DocumentBuilder[K, V] {
	out := b.copy()
	out.verifiers = append(out.verifiers, verifier)

	return out
}

// WithSignerVerifier signs documents on write and verifies them on read.
func (b DocumentBuilder[K, V]) WithSignerVerifier(sv crypto.SignerVerifier) DocumentBuilder[K, V] {
	return b.WithSigner(sv).WithVerifier(sv)
}

// Build creates the codec.
func (b DocumentBuilder[K, V]) Build() *Document[K, V] {
	cfg := b.copy()

	return &Document[K, V]{
		rowKey:     cfg.rowKey,
		keyOf:      cfg.keyOf,
		prefix:     cfg.prefix,
		marshaller: cfg.marshaller,
		hashers:    cfg.hashers,
		signers:    cfg.signers,
		verifiers:  cfg.verifiers,
	}
}
