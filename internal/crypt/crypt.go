// Package crypt wraps the hashing, key derivation, key stretching, and random
// generation primitives behind small fixed interfaces, so the protocol logic
// never touches a concrete back-end directly.
package crypt

import (
	"crypto"
	"crypto/hmac"
	cryptorand "crypto/rand"
	"fmt"

	"github.com/bytemare/hash"
	"github.com/bytemare/ksf"
)

// RandomBytes returns length random bytes (wrapper for crypto/rand).
func RandomBytes(length int) []byte {
	r := make([]byte, length)
	if _, err := cryptorand.Read(r); err != nil {
		// We can as well not panic and try again in a loop.
		panic(fmt.Errorf("unexpected error in generating random bytes: %w", err))
	}

	return r
}

// Xor returns a XOR b. Lengths must match.
func Xor(a, b []byte) []byte {
	if len(a) != len(b) {
		panic("internal error: xor input length mismatch")
	}

	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}

	return out
}

// NewKDF returns a newly instantiated KDF.
func NewKDF(id crypto.Hash) *KDF {
	return &KDF{h: hash.FromCrypto(id).GetHashFunction()}
}

// KDF wraps a hash function and exposes HKDF methods.
type KDF struct {
	h *hash.Fixed
}

// Extract exposes an Extract only KDF method.
func (k *KDF) Extract(salt, ikm []byte) []byte {
	return k.h.HKDFExtract(ikm, salt)
}

// Expand exposes an Expand only KDF method.
func (k *KDF) Expand(key, info []byte, length int) []byte {
	return k.h.HKDFExpand(key, info, length)
}

// Size returns the output size of the Extract method.
func (k *KDF) Size() int {
	return k.h.Size()
}

// NewMac returns a newly instantiated Mac.
func NewMac(id crypto.Hash) *Mac {
	return &Mac{h: hash.FromCrypto(id).GetHashFunction()}
}

// Mac wraps a hash function and exposes Message Authentication Code methods.
type Mac struct {
	h *hash.Fixed
}

// Equal returns a constant-time comparison of the inputs.
func (m *Mac) Equal(a, b []byte) bool {
	return hmac.Equal(a, b)
}

// MAC computes a MAC over the message using key.
func (m *Mac) MAC(key, message []byte) []byte {
	return m.h.Hmac(message, key)
}

// Size returns the MAC's output length.
func (m *Mac) Size() int {
	return m.h.Size()
}

// Hash wraps a running hash state. Instances are single-use: callers must
// obtain a fresh one per transcript.
type Hash struct {
	h *hash.Fixed
}

// NewHash returns a newly instantiated Hash.
func NewHash(id crypto.Hash) *Hash {
	return &Hash{h: hash.FromCrypto(id).GetHashFunction()}
}

// Size returns the output size of the hashing function.
func (h *Hash) Size() int {
	return h.h.Size()
}

// Sum returns the current hash of the running state.
func (h *Hash) Sum() []byte {
	return h.h.Sum(nil)
}

// Write adds input to the running state.
func (h *Hash) Write(p []byte) {
	_, _ = h.h.Write(p)
}

// NewKSF returns a newly instantiated key stretching function. A zero
// identifier yields the identity KSF, for use in tests only.
func NewKSF(id ksf.Identifier) *KSF {
	if id == 0 {
		return &KSF{&IdentityKSF{}}
	}

	return &KSF{id.Get()}
}

// KSF wraps a key stretching function and exposes its functions.
type KSF struct {
	ksfInterface
}

type ksfInterface interface {
	// Harden applies the key derivation function to the input password and salt.
	Harden(password, salt []byte, length int) []byte

	// Parameterize replaces the function's work factors with the new ones.
	Parameterize(parameters ...int)
}

// IdentityKSF represents a KSF with no operations.
type IdentityKSF struct{}

// Harden returns the password as is.
func (i IdentityKSF) Harden(password, _ []byte, _ int) []byte {
	return password
}

// Parameterize applies KSF parameters if defined.
func (i IdentityKSF) Parameterize(_ ...int) {
	// no-op
}
