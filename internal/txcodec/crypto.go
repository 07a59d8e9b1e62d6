package txcodec

import (
	"crypto/ed25519"

	"golang.org/x/crypto/sha3"
)

// Hasher computes a transaction's content hash. The core never
// recomputes signatures or hashes on its own; it is handed one of
// these by the caller that assembled the blob (§1's "out of scope:
// cryptographic primitives").
type Hasher interface {
	Hash(canonical []byte) Hash32
}

// Verifier checks a signature against a public key and message.
type Verifier interface {
	Verify(pub PubKey, message, sig []byte) bool
}

// SHA3Hasher is the default Hasher, grounded on SHA3-256.
type SHA3Hasher struct{}

func (SHA3Hasher) Hash(canonical []byte) Hash32 {
	return Hash32(sha3.Sum256(canonical))
}

// Ed25519Verifier is the default Verifier.
type Ed25519Verifier struct{}

func (Ed25519Verifier) Verify(pub PubKey, message, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), message, sig)
}

// VerifyHash reports whether a parsed transaction's embedded hash
// matches H(canonical(T)) as computed by h. The log's append path does
// not call it: the core trusts the embedded hash as delivered and never
// recomputes hashes or signatures (§6).
func VerifyHash(h Hasher, t *Transaction) error {
	// The hash covers the envelope sans the Hash field itself, so we
	// hash a copy with Hash zeroed to avoid a circular definition.
	clone := *t
	clone.Hash = Hash32{}
	blob, err := EncodeTransaction(&clone)
	if err != nil {
		return err
	}
	if h.Hash(blob) != t.Hash {
		return ErrHashMismatch
	}
	return nil
}
