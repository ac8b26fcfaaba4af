// Package internal provides the shared protocol configuration and helpers that
// are not part of the public API.
package internal

import (
	"crypto"

	group "github.com/bytemare/crypto"

	"github.com/dirauth/dirauth/internal/crypt"
	"github.com/dirauth/dirauth/internal/encoding"
	"github.com/dirauth/dirauth/internal/oprf"
	"github.com/dirauth/dirauth/internal/tag"
)

// SeedLength is the length of seeds used for key derivation.
const SeedLength = 32

// Configuration is the internal representation of a protocol configuration,
// with all primitives instantiated. It is safe for concurrent use: the KDF and
// MAC wrappers are one-shot, and transcript hashes are created per operation
// with NewHash.
type Configuration struct {
	KDF          *crypt.KDF
	MAC          *crypt.Mac
	KSF          *crypt.KSF
	KSFSalt      []byte
	OPRF         oprf.Suite
	Group        group.Group
	HashID       crypto.Hash
	NonceLen     int
	EnvelopeSize int
	Context      []byte
}

// NewHash returns a fresh transcript hash state.
func (c *Configuration) NewHash() *crypt.Hash {
	return crypt.NewHash(c.HashID)
}

// HashSize returns the output size of the transcript hash.
func (c *Configuration) HashSize() int {
	return crypt.NewHash(c.HashID).Size()
}

// PointLength returns the encoded length of a group element.
func (c *Configuration) PointLength() int {
	return encoding.PointLength[c.Group]
}

// XorResponse expands the key and nonce into a pad and XORs it with in. It is
// its own inverse, and is used to mask and unmask the credential response.
func (c *Configuration) XorResponse(key, nonce, in []byte) []byte {
	pad := c.KDF.Expand(key, encoding.SuffixString(nonce, tag.CredentialResponsePad), len(in))
	return crypt.Xor(pad, in)
}

// RandomizedPassword derives the password-derived key material from the OPRF
// output: the memory-hard KSF output is appended to the OPRF output, and the
// concatenation is run through the extractor.
func (c *Configuration) RandomizedPassword(oprfOutput []byte) []byte {
	hardened := c.KSF.Harden(oprfOutput, c.KSFSalt, c.KDF.Size())
	return c.KDF.Extract(nil, encoding.Concat(oprfOutput, hardened))
}
