// Package crypto provides document signing for tables that must detect
// tampered rows.
package crypto

// Signer signs documents before they are written.
type Signer interface {
	// Name returns name of the crypto algorithm, used by signer.
	Name() string
	// Sign returns signature for passed data.
	Sign(data []byte) ([]byte, error)
}

// Verifier checks the signature of documents read back.
type Verifier interface {
	// Name returns name of the crypto algorithm, used by verifier.
	Name() string
	// Verify checks data and signature mapping.
	Verify(data []byte, signature []byte) error
}

// SignerVerifier common interface.
type SignerVerifier interface {
	Signer
	Verifier
}
