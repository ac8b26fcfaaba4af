package pake

import (
	group "github.com/bytemare/crypto"

	"github.com/dirauth/dirauth/internal/encoding"
)

// The wire format of every message is a fixed-layout concatenation of group
// element encodings and fixed-size byte fields; all lengths are implied by the
// configuration. Messages are immutable once constructed: build them through
// the Client, the Server, or the Deserializer.

// RegistrationRequest is the first registration message, carrying the blinded
// password representative.
type RegistrationRequest struct {
	BlindedMessage *group.Element

	g Group
}

// Serialize returns the byte encoding of the message.
func (m *RegistrationRequest) Serialize() []byte {
	return encoding.SerializePoint(m.BlindedMessage, m.g)
}

// RegistrationResponse is the server's reply, carrying the evaluated element
// and the server's public key.
type RegistrationResponse struct {
	EvaluatedMessage *group.Element
	ServerPublicKey  *group.Element

	g Group
}

// Serialize returns the byte encoding of the message.
func (m *RegistrationResponse) Serialize() []byte {
	return encoding.Concat(
		encoding.SerializePoint(m.EvaluatedMessage, m.g),
		encoding.SerializePoint(m.ServerPublicKey, m.g),
	)
}

// RegistrationUpload is the final registration message: the finished
// credential record the server persists. Its layout is identical to the
// stored Record.
type RegistrationUpload = Record

// CredentialRequest is the first login message: the blinded password
// representative plus the client's ephemeral key exchange share.
type CredentialRequest struct {
	BlindedMessage *group.Element
	ClientNonce    []byte
	ClientKeyshare *group.Element

	g Group
}

// Serialize returns the byte encoding of the message.
func (m *CredentialRequest) Serialize() []byte {
	return encoding.Concat3(
		encoding.SerializePoint(m.BlindedMessage, m.g),
		m.ClientNonce,
		encoding.SerializePoint(m.ClientKeyshare, m.g),
	)
}

// CredentialResponse is the server's login reply: the evaluated element, the
// masked credential material, the server's ephemeral share, and the server's
// transcript MAC proving possession of the matching record.
type CredentialResponse struct {
	EvaluatedMessage *group.Element
	MaskingNonce     []byte
	MaskedResponse   []byte
	ServerNonce      []byte
	ServerKeyshare   *group.Element
	ServerMac        []byte

	g Group
}

// serializeCore returns the message without the trailing server MAC; this is
// the portion covered by the key exchange transcript.
func (m *CredentialResponse) serializeCore() []byte {
	return encoding.Concatenate(
		encoding.SerializePoint(m.EvaluatedMessage, m.g),
		m.MaskingNonce,
		m.MaskedResponse,
		m.ServerNonce,
		encoding.SerializePoint(m.ServerKeyshare, m.g),
	)
}

// Serialize returns the byte encoding of the message.
func (m *CredentialResponse) Serialize() []byte {
	return encoding.Concat(m.serializeCore(), m.ServerMac)
}

// CredentialFinalization is the last login message: the client's transcript
// MAC proving shared-key agreement.
type CredentialFinalization struct {
	ClientMac []byte
}

// Serialize returns the byte encoding of the message.
func (m *CredentialFinalization) Serialize() []byte {
	out := make([]byte, len(m.ClientMac))
	copy(out, m.ClientMac)

	return out
}
