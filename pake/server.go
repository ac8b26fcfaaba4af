package pake

import (
	group "github.com/bytemare/crypto"

	"github.com/dirauth/dirauth/internal"
	"github.com/dirauth/dirauth/internal/ake"
	"github.com/dirauth/dirauth/internal/crypt"
	"github.com/dirauth/dirauth/internal/encoding"
	"github.com/dirauth/dirauth/internal/tag"
)

// Server runs the server side of the protocol. It holds only long-term key
// material; all per-attempt state is returned to the caller in a LoginState,
// so one Server instance serves concurrent attempts.
type Server struct {
	conf           *internal.Configuration
	privateKey     *group.Scalar
	publicKeyBytes []byte
	oprfSeed       []byte
}

// PublicKey returns the encoded server public key.
func (s *Server) PublicKey() []byte {
	out := make([]byte, len(s.publicKeyBytes))
	copy(out, s.publicKeyBytes)

	return out
}

// oprfKey derives the per-user OPRF key from the server seed, so no per-user
// OPRF secret is ever stored.
func (s *Server) oprfKey(username []byte) *group.Scalar {
	seed := s.conf.KDF.Expand(s.oprfSeed, encoding.SuffixString(username, tag.ExpandOPRF), internal.SeedLength)
	return s.conf.OPRF.DeriveKey(seed, []byte(tag.DeriveKeyPair))
}

// RegistrationResponse evaluates the blinded element of the request under the
// user's OPRF key and returns the response.
func (s *Server) RegistrationResponse(req *RegistrationRequest, username []byte) *RegistrationResponse {
	evaluated := s.conf.OPRF.Evaluate(s.oprfKey(username), req.BlindedMessage)

	serverPublicKey := s.conf.Group.NewElement()
	// The encoding is the server's own key; it always decodes.
	_ = serverPublicKey.Decode(s.publicKeyBytes)

	return &RegistrationResponse{
		EvaluatedMessage: evaluated,
		ServerPublicKey:  serverPublicKey,
		g:                s.conf.Group,
	}
}

// LoginState is the server's per-attempt ephemeral secret state: the client
// MAC the finalization must carry, and the session key released on success.
// It must be consumed at most once and discarded after use or expiry.
type LoginState struct {
	ExpectedMac []byte
	SessionKey  []byte
}

// LoginResponse runs the server side of the login exchange against the user's
// record and returns the credential response plus the ephemeral state the
// caller must stash until finalization. Running it against a fake record (see
// FakeRecord) is indistinguishable from the real flow.
func (s *Server) LoginResponse(
	req *CredentialRequest,
	record *Record,
	username []byte,
) (*CredentialResponse, *LoginState) {
	evaluated := s.conf.OPRF.Evaluate(s.oprfKey(username), req.BlindedMessage)

	maskingNonce := crypt.RandomBytes(s.conf.NonceLen)
	response := encoding.Concat(s.publicKeyBytes, record.Envelope)
	maskedResponse := s.conf.XorResponse(record.MaskingKey, maskingNonce, response)

	esk, epk := ake.KeyGen(s.conf.Group)

	ikm := ake.Ikm3DH(
		esk, req.ClientKeyshare,
		s.privateKey, req.ClientKeyshare,
		esk, record.ClientPublicKey,
	)

	resp := &CredentialResponse{
		EvaluatedMessage: evaluated,
		MaskingNonce:     maskingNonce,
		MaskedResponse:   maskedResponse,
		ServerNonce:      crypt.RandomBytes(s.conf.NonceLen),
		ServerKeyshare:   epk,
		g:                s.conf.Group,
	}

	identities := &ake.Identities{Client: username, Server: s.publicKeyBytes}
	sessionKey, serverMac, expectedClientMac := ake.Core(
		s.conf, identities, ikm, req.Serialize(), resp.serializeCore())

	resp.ServerMac = serverMac

	return resp, &LoginState{ExpectedMac: expectedClientMac, SessionKey: sessionKey}
}

// LoginFinish verifies the client's proof against the stashed state in
// constant time. On success it returns the shared session key; on mismatch it
// returns ErrAuthentication, regardless of why the proof differs.
func (s *Server) LoginFinish(state *LoginState, fin *CredentialFinalization) ([]byte, error) {
	if !s.conf.MAC.Equal(state.ExpectedMac, fin.ClientMac) {
		return nil, ErrAuthentication
	}

	return state.SessionKey, nil
}

// FakeRecord deterministically derives a syntactically valid credential
// record for an unregistered username, as a pure function of the server OPRF
// seed and the username. Serving logins from it keeps response shape and
// timing identical to the real flow while guaranteeing finalization fails,
// which prevents user enumeration.
func (s *Server) FakeRecord(username []byte) *Record {
	pkSeed := s.conf.KDF.Expand(s.oprfSeed, encoding.SuffixString(username, tag.FakeClientKey), internal.SeedLength)
	sk := s.conf.OPRF.DeriveKey(pkSeed, []byte(tag.DeriveAuthKeyPair))

	return &Record{
		ClientPublicKey: s.conf.Group.Base().Multiply(sk),
		MaskingKey: s.conf.KDF.Expand(s.oprfSeed,
			encoding.SuffixString(username, tag.FakeMaskingKey), s.conf.HashSize()),
		Envelope: s.conf.KDF.Expand(s.oprfSeed,
			encoding.SuffixString(username, tag.FakeEnvelope), s.conf.EnvelopeSize),
		g: s.conf.Group,
	}
}
