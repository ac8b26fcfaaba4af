// Package tag provides the static domain-separation strings used throughout
// the protocol. Changing any of these breaks compatibility with previously
// registered credentials.
package tag

const (
	// OPRF tags.

	// OPRFVersion prefixes the OPRF context string.
	OPRFVersion = "DirAuthOPRF1-"

	// OPRFPointPrefix is the DST prefix for hashing passwords to group elements.
	OPRFPointPrefix = "HashToGroup-"

	// OPRFFinalize is the DST suffix used in the client transcript.
	OPRFFinalize = "Finalize-"

	// Envelope tags.

	// AuthKey is the envelope MAC key's KDF dst.
	AuthKey = "AuthKey"

	// ExportKey is the export key's KDF dst.
	ExportKey = "ExportKey"

	// MaskingKey is the masking key's KDF dst.
	MaskingKey = "MaskingKey"

	// ExpandPrivateKey is the client private key seed KDF dst.
	ExpandPrivateKey = "PrivateKey"

	// DeriveAuthKeyPair is the client key pair hash-to-scalar dst.
	DeriveAuthKeyPair = "DirAuth-DeriveAuthKeyPair"

	// Key exchange tags.

	// VersionTag prefixes the key exchange transcript.
	VersionTag = "DirAuthv1"

	// LabelPrefix is the key schedule KDF dst prefix.
	LabelPrefix = "DirAuth-"

	// Handshake is the handshake secret dst.
	Handshake = "HandshakeSecret"

	// SessionKey is the session secret dst.
	SessionKey = "SessionKey"

	// MacServer is the server MAC key KDF dst.
	MacServer = "ServerMAC"

	// MacClient is the client MAC key KDF dst.
	MacClient = "ClientMAC"

	// Server tags.

	// CredentialResponsePad expands the masking key into the response pad.
	CredentialResponsePad = "CredentialResponsePad"

	// ExpandOPRF expands the server OPRF seed into a per-user OPRF key seed.
	ExpandOPRF = "OprfKey"

	// ExpandServerPrivateKey derives the server private key from a master seed.
	ExpandServerPrivateKey = "ServerPrivateKey"

	// ExpandOPRFSeed derives the server OPRF seed from a master seed.
	ExpandOPRFSeed = "OprfSeed"

	// DeriveKeyPair is the server OPRF key hash-to-scalar dst.
	DeriveKeyPair = "DirAuth-DeriveKeyPair"

	// Unknown-user masking tags. The fake record is a pure function of the
	// server OPRF seed and the username.

	// FakeMaskingKey derives the masking key of a fake record.
	FakeMaskingKey = "FakeMaskingKey"

	// FakeClientKey derives the public key of a fake record.
	FakeClientKey = "FakeClientKey"

	// FakeEnvelope derives the envelope filler of a fake record.
	FakeEnvelope = "FakeEnvelope"
)
