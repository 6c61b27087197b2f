package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingDocument is returned when a row has no document cell.
	ErrMissingDocument = errors.New("row has no document cell")
	// ErrMissingHash is returned when a row lacks the checksum of a configured hasher.
	ErrMissingHash = errors.New("missing document hash")
	// ErrHashMismatch is returned when a stored checksum doesn't match the document.
	ErrHashMismatch = errors.New("hash mismatch")
	// ErrMissingSignature is returned when a row lacks the signature of a configured verifier.
	ErrMissingSignature = errors.New("missing document signature")
	// ErrSignatureFailed is returned when signature verification fails.
	ErrSignatureFailed = errors.New("signature verification failed")
)

// ValidationError is returned by Object for rows failing integrity checks.
type ValidationError struct {
	// Key is the row key of the rejected row.
	Key []byte
	// Algorithm is the name of the hasher or verifier that rejected the row.
	Algorithm string
	// Err is ErrMissingHash, ErrHashMismatch, ErrMissingSignature or an
	// error wrapping ErrSignatureFailed.
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document %q failed %s validation: %s", e.Key, e.Algorithm, e.Err)
}

// Unwrap returns the validation failure.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
