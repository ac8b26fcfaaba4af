// Package envelope implements the credential envelope: sealing derives the
// client's long-term key pair and an authentication tag from the randomized
// password, and opening recovers the key pair only if the same password
// produced the same randomized value.
package envelope

import (
	"errors"

	group "github.com/bytemare/crypto"

	"github.com/dirauth/dirauth/internal"
	"github.com/dirauth/dirauth/internal/crypt"
	"github.com/dirauth/dirauth/internal/encoding"
	"github.com/dirauth/dirauth/internal/tag"
)

// ErrEnvelopeAuth indicates the envelope authentication tag did not verify,
// i.e. the password does not match the registered credential.
var ErrEnvelopeAuth = errors.New("envelope authentication failed")

// Envelope is the sealed credential blob stored in the registration record.
type Envelope struct {
	Nonce   []byte
	AuthTag []byte
}

// Serialize returns the envelope as nonce || authTag.
func (e *Envelope) Serialize() []byte {
	return encoding.Concat(e.Nonce, e.AuthTag)
}

// Deserialize splits a serialized envelope of the configured size.
func Deserialize(conf *internal.Configuration, in []byte) *Envelope {
	return &Envelope{
		Nonce:   in[:conf.NonceLen],
		AuthTag: in[conf.NonceLen:],
	}
}

// Credentials are the cleartext values bound into the authentication tag.
type Credentials struct {
	ClientIdentity []byte
	ServerIdentity []byte
}

func cleartext(serverPublicKey []byte, creds *Credentials) []byte {
	return encoding.Concat3(
		encoding.EncodeVector(serverPublicKey),
		encoding.EncodeVector(creds.ClientIdentity),
		encoding.EncodeVector(creds.ServerIdentity),
	)
}

func deriveAuthKeyPair(conf *internal.Configuration, randomizedPwd, nonce []byte) (*group.Scalar, *group.Element) {
	seed := conf.KDF.Expand(randomizedPwd, encoding.SuffixString(nonce, tag.ExpandPrivateKey), internal.SeedLength)
	sk := conf.OPRF.DeriveKey(seed, []byte(tag.DeriveAuthKeyPair))

	return sk, conf.Group.Base().Multiply(sk)
}

func authKey(conf *internal.Configuration, randomizedPwd, nonce []byte) []byte {
	return conf.KDF.Expand(randomizedPwd, encoding.SuffixString(nonce, tag.AuthKey), conf.KDF.Size())
}

// ExportKey derives the client-side export key bound to the envelope nonce.
func ExportKey(conf *internal.Configuration, randomizedPwd, nonce []byte) []byte {
	return conf.KDF.Expand(randomizedPwd, encoding.SuffixString(nonce, tag.ExportKey), conf.KDF.Size())
}

// MaskingKey derives the record's masking key from the randomized password.
func MaskingKey(conf *internal.Configuration, randomizedPwd []byte) []byte {
	return conf.KDF.Expand(randomizedPwd, []byte(tag.MaskingKey), conf.HashSize())
}

// Seal creates an envelope over the randomized password, returning the
// client's public key, the record masking key, and the export key.
func Seal(
	conf *internal.Configuration,
	randomizedPwd, serverPublicKey []byte,
	creds *Credentials,
) (env *Envelope, clientPublicKey *group.Element, maskingKey, exportKey []byte) {
	nonce := crypt.RandomBytes(conf.NonceLen)
	auth := authKey(conf, randomizedPwd, nonce)
	_, clientPublicKey = deriveAuthKeyPair(conf, randomizedPwd, nonce)

	ctc := cleartext(serverPublicKey, creds)
	authTag := conf.MAC.MAC(auth, encoding.Concat(nonce, ctc))

	env = &Envelope{Nonce: nonce, AuthTag: authTag}

	return env, clientPublicKey, MaskingKey(conf, randomizedPwd), ExportKey(conf, randomizedPwd, nonce)
}

// Open verifies the envelope against the randomized password and recovers the
// client's key pair and export key. A tag mismatch yields ErrEnvelopeAuth.
func Open(
	conf *internal.Configuration,
	randomizedPwd, serverPublicKey []byte,
	creds *Credentials,
	env *Envelope,
) (clientSecretKey *group.Scalar, clientPublicKey *group.Element, exportKey []byte, err error) {
	auth := authKey(conf, randomizedPwd, env.Nonce)
	ctc := cleartext(serverPublicKey, creds)
	expected := conf.MAC.MAC(auth, encoding.Concat(env.Nonce, ctc))

	if !conf.MAC.Equal(expected, env.AuthTag) {
		return nil, nil, nil, ErrEnvelopeAuth
	}

	clientSecretKey, clientPublicKey = deriveAuthKeyPair(conf, randomizedPwd, env.Nonce)

	return clientSecretKey, clientPublicKey, ExportKey(conf, randomizedPwd, env.Nonce), nil
}
