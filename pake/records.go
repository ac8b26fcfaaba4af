package pake

import (
	group "github.com/bytemare/crypto"

	"github.com/dirauth/dirauth/internal/encoding"
)

// Record is the per-user credential record the server stores in place of a
// password hash: the client's long-term public key, the masking key hiding
// the credential response from outsiders, and the sealed envelope. It is
// opaque to the storage layer and must round-trip byte-exact.
type Record struct {
	ClientPublicKey *group.Element
	MaskingKey      []byte
	Envelope        []byte

	g Group
}

// Serialize returns the record as clientPublicKey || maskingKey || envelope.
func (r *Record) Serialize() []byte {
	return encoding.Concat3(
		encoding.SerializePoint(r.ClientPublicKey, r.g),
		r.MaskingKey,
		r.Envelope,
	)
}
