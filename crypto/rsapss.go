package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/tarantool/go-tablestore/hasher"
)

var (
	// ErrNoPrivateKey is returned by Sign when only a public key is set.
	ErrNoPrivateKey = errors.New("private key is not set")
	// ErrNoPublicKey is returned by Verify when no public key is set.
	ErrNoPublicKey = errors.New("public key is not set")
)

// RSAPSS signs SHA-256 digests with RSASSA-PSS.
type RSAPSS struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	hasher     hasher.Hasher
}

// NewRSAPSS creates a signer and verifier. Writers need the private key,
// readers only the public one; the public key defaults to the public part
// of the private key.
func NewRSAPSS(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey) RSAPSS {
	if publicKey == nil && privateKey != nil {
		publicKey = &privateKey.PublicKey
	}

	return RSAPSS{
		privateKey: privateKey,
		publicKey:  publicKey,
		hasher:     hasher.NewSHA256Hasher(),
	}
}

// Name implements SignerVerifier interface.
func (r RSAPSS) Name() string {
	return "RSASSA-PSS"
}

func (r RSAPSS) options() *rsa.PSSOptions {
	return &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       crypto.SHA256,
	}
}

// Sign generates SHA-256 digest and signs it using RSASSA-PSS.
func (r RSAPSS) Sign(data []byte) ([]byte, error) {
	if r.privateKey == nil {
		return nil, ErrNoPrivateKey
	}

	digest, err := r.hasher.Hash(data)
	if err != nil {
		return nil, fmt.Errorf("failed to get hash: %w", err)
	}

	signature, err := rsa.SignPSS(rand.Reader, r.privateKey, crypto.SHA256, digest, r.options())
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	return signature, nil
}

// Verify compares data with signature.
func (r RSAPSS) Verify(data []byte, signature []byte) error {
	if r.publicKey == nil {
		return ErrNoPublicKey
	}

	digest, err := r.hasher.Hash(data)
	if err != nil {
		return fmt.Errorf("failed to get hash: %w", err)
	}

	err = rsa.VerifyPSS(r.publicKey, crypto.SHA256, digest, signature, r.options())
	if err != nil {
		return fmt.Errorf("failed to verify: %w", err)
	}

	return nil
}
