// Package oprf implements the oblivious pseudorandom function at the heart of
// the credential derivation: the client blinds its password, the server
// evaluates the blinded element under a secret key, and the client unblinds
// the result, so neither side learns the other's input.
package oprf

import (
	"crypto"

	group "github.com/bytemare/crypto"

	"github.com/dirauth/dirauth/internal/encoding"
	"github.com/dirauth/dirauth/internal/tag"
)

// Suite identifies an OPRF cipher suite over a prime-order group.
type Suite group.Group

const (
	// RistrettoSha512 is the suite over the ristretto255 group with SHA-512.
	RistrettoSha512 = Suite(group.Ristretto255Sha512)

	// P256Sha256 is the suite over the NIST P-256 group with SHA-256.
	P256Sha256 = Suite(group.P256Sha256)

	// P384Sha384 is the suite over the NIST P-384 group with SHA-384.
	P384Sha384 = Suite(group.P384Sha384)

	// P521Sha512 is the suite over the NIST P-521 group with SHA-512.
	P521Sha512 = Suite(group.P521Sha512)
)

var suiteToHash = map[Suite]crypto.Hash{
	RistrettoSha512: crypto.SHA512,
	P256Sha256:      crypto.SHA256,
	P384Sha384:      crypto.SHA384,
	P521Sha512:      crypto.SHA512,
}

// FromGroup returns the OPRF suite matching the given group.
func FromGroup(g group.Group) Suite {
	return Suite(g)
}

// Group returns the suite's underlying group.
func (s Suite) Group() group.Group {
	return group.Group(s)
}

// Available returns whether the suite is supported.
func (s Suite) Available() bool {
	_, ok := suiteToHash[s]
	return ok
}

func (s Suite) contextString() []byte {
	v := []byte(tag.OPRFVersion)
	ctx := make([]byte, 0, len(v)+2)
	ctx = append(ctx, v...)
	ctx = append(ctx, encoding.I2OSP(int(s), 2)...)

	return ctx
}

func (s Suite) dst(prefix string) []byte {
	p := []byte(prefix)
	ctx := s.contextString()
	dst := make([]byte, 0, len(p)+len(ctx))
	dst = append(dst, p...)
	dst = append(dst, ctx...)

	return dst
}

// DeriveKey maps a seed to a non-zero scalar usable as an OPRF key or a
// private key, under the given domain-separation tag.
func (s Suite) DeriveKey(seed, dst []byte) *group.Scalar {
	for counter := 0; ; counter++ {
		k := s.Group().HashToScalar(encoding.Concat(seed, encoding.I2OSP(counter, 1)), dst)
		if !k.IsZero() {
			return k
		}
	}
}

// Evaluate evaluates the blinded element under the given key.
func (s Suite) Evaluate(key *group.Scalar, blinded *group.Element) *group.Element {
	return blinded.Copy().Multiply(key)
}

func (s Suite) hash(input ...[]byte) []byte {
	h := suiteToHash[s].New()

	for _, i := range input {
		_, _ = h.Write(i)
	}

	return h.Sum(nil)
}

func (s Suite) hashTranscript(input, unblinded []byte) []byte {
	encInput := encoding.EncodeVector(input)
	encElement := encoding.EncodeVector(unblinded)
	encDST := encoding.EncodeVector(s.dst(tag.OPRFFinalize))

	return s.hash(encInput, encElement, encDST)
}
