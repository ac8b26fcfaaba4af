package pake

import (
	"errors"

	group "github.com/bytemare/crypto"

	"github.com/dirauth/dirauth/internal"
	"github.com/dirauth/dirauth/internal/ake"
	"github.com/dirauth/dirauth/internal/crypt"
	"github.com/dirauth/dirauth/internal/encoding"
	"github.com/dirauth/dirauth/internal/envelope"
	"github.com/dirauth/dirauth/internal/oprf"
)

// ErrAuthentication indicates the peer could not be authenticated. It covers
// every failure cause (wrong password, unknown user, tampered message) with a
// single undifferentiated error.
var ErrAuthentication = errors.New("authentication failed")

var errClientState = errors.New("client state does not match the operation")

// Client drives the client side of one registration or one login attempt. It
// holds the per-attempt blinding and ephemeral key exchange state and must not
// be reused across attempts.
type Client struct {
	conf *internal.Configuration
	oprf *oprf.Client

	esk        *group.Scalar
	epk        *group.Element
	serialized []byte
}

// RegistrationInit blinds the password and returns the registration request.
func (c *Client) RegistrationInit(password []byte) *RegistrationRequest {
	return &RegistrationRequest{
		BlindedMessage: c.oprf.Blind(password),
		g:              c.conf.Group,
	}
}

// RegistrationFinalize unblinds the server's evaluation, derives the
// credential material, and returns the upload to send to the server along
// with the export key for client-side use.
func (c *Client) RegistrationFinalize(
	resp *RegistrationResponse,
	username []byte,
) (*RegistrationUpload, []byte, error) {
	randomizedPwd := c.conf.RandomizedPassword(c.oprf.Finalize(resp.EvaluatedMessage))
	serverPublicKey := encoding.SerializePoint(resp.ServerPublicKey, c.conf.Group)

	creds := &envelope.Credentials{ClientIdentity: username, ServerIdentity: serverPublicKey}
	env, clientPublicKey, maskingKey, exportKey := envelope.Seal(c.conf, randomizedPwd, serverPublicKey, creds)

	return &RegistrationUpload{
		ClientPublicKey: clientPublicKey,
		MaskingKey:      maskingKey,
		Envelope:        env.Serialize(),
		g:               c.conf.Group,
	}, exportKey, nil
}

// LoginInit blinds the password, generates the ephemeral key exchange share,
// and returns the credential request.
func (c *Client) LoginInit(password []byte) *CredentialRequest {
	c.esk, c.epk = ake.KeyGen(c.conf.Group)

	req := &CredentialRequest{
		BlindedMessage: c.oprf.Blind(password),
		ClientNonce:    crypt.RandomBytes(c.conf.NonceLen),
		ClientKeyshare: c.epk,
		g:              c.conf.Group,
	}
	c.serialized = req.Serialize()

	return req
}

// LoginFinalize recovers the credential material from the response, verifies
// the server's proof of possession of the matching record, and returns the
// finalization message, the shared session key, and the export key. Any
// mismatch yields ErrAuthentication with no further detail.
func (c *Client) LoginFinalize(
	resp *CredentialResponse,
	username []byte,
) (*CredentialFinalization, []byte, []byte, error) {
	if c.esk == nil || c.serialized == nil {
		return nil, nil, nil, errClientState
	}

	randomizedPwd := c.conf.RandomizedPassword(c.oprf.Finalize(resp.EvaluatedMessage))

	maskingKey := envelope.MaskingKey(c.conf, randomizedPwd)
	unmasked := c.conf.XorResponse(maskingKey, resp.MaskingNonce, resp.MaskedResponse)

	serverPublicKeyBytes := unmasked[:c.conf.PointLength()]
	env := envelope.Deserialize(c.conf, unmasked[c.conf.PointLength():])

	serverPublicKey := c.conf.Group.NewElement()
	if err := serverPublicKey.Decode(serverPublicKeyBytes); err != nil {
		return nil, nil, nil, ErrAuthentication
	}

	if serverPublicKey.IsIdentity() {
		return nil, nil, nil, ErrAuthentication
	}

	creds := &envelope.Credentials{ClientIdentity: username, ServerIdentity: serverPublicKeyBytes}

	clientSecretKey, _, exportKey, err := envelope.Open(c.conf, randomizedPwd, serverPublicKeyBytes, creds, env)
	if err != nil {
		return nil, nil, nil, ErrAuthentication
	}

	ikm := ake.Ikm3DH(
		c.esk, resp.ServerKeyshare,
		c.esk, serverPublicKey,
		clientSecretKey, resp.ServerKeyshare,
	)

	identities := &ake.Identities{Client: username, Server: serverPublicKeyBytes}
	sessionKey, expectedServerMac, clientMac := ake.Core(c.conf, identities, ikm, c.serialized, resp.serializeCore())

	if !c.conf.MAC.Equal(expectedServerMac, resp.ServerMac) {
		return nil, nil, nil, ErrAuthentication
	}

	return &CredentialFinalization{ClientMac: clientMac}, sessionKey, exportKey, nil
}
