// Package ake implements the 3DH authenticated key exchange: the transcript
// preamble, the key schedule, and the MAC derivation shared by the client and
// server sides of a login.
package ake

import (
	group "github.com/bytemare/crypto"

	"github.com/dirauth/dirauth/internal"
	"github.com/dirauth/dirauth/internal/crypt"
	"github.com/dirauth/dirauth/internal/encoding"
	"github.com/dirauth/dirauth/internal/oprf"
	"github.com/dirauth/dirauth/internal/tag"
)

// Identities holds the client and server identities bound into the transcript.
type Identities struct {
	Client []byte
	Server []byte
}

// KeyGen returns a fresh ephemeral key pair.
func KeyGen(g group.Group) (*group.Scalar, *group.Element) {
	seed := crypt.RandomBytes(internal.SeedLength)
	sk := oprf.FromGroup(g).DeriveKey(seed, []byte(tag.DeriveKeyPair))

	return sk, g.Base().Multiply(sk)
}

func diffieHellman(s *group.Scalar, e *group.Element) *group.Element {
	return e.Copy().Multiply(s)
}

// Ikm3DH computes the 3DH input key material from the three scalar/element
// pairs, in the caller's view order.
func Ikm3DH(
	s1 *group.Scalar, p1 *group.Element,
	s2 *group.Scalar, p2 *group.Element,
	s3 *group.Scalar, p3 *group.Element,
) []byte {
	e1 := diffieHellman(s1, p1).Encode()
	e2 := diffieHellman(s2, p2).Encode()
	e3 := diffieHellman(s3, p3).Encode()

	return encoding.Concat3(e1, e2, e3)
}

func buildLabel(length int, label, context []byte) []byte {
	return encoding.Concat3(
		encoding.I2OSP(length, 2),
		encoding.EncodeVectorLen(append([]byte(tag.LabelPrefix), label...), 1),
		encoding.EncodeVectorLen(context, 1))
}

func expandLabel(h *crypt.KDF, secret, label, context []byte) []byte {
	hkdfLabel := buildLabel(h.Size(), label, context)
	return h.Expand(secret, hkdfLabel, h.Size())
}

func deriveKeys(h *crypt.KDF, ikm, context []byte) (serverMacKey, clientMacKey, sessionSecret []byte) {
	prk := h.Extract(nil, ikm)
	handshakeSecret := expandLabel(h, prk, []byte(tag.Handshake), context)
	sessionSecret = expandLabel(h, prk, []byte(tag.SessionKey), context)
	serverMacKey = expandLabel(h, handshakeSecret, []byte(tag.MacServer), nil)
	clientMacKey = expandLabel(h, handshakeSecret, []byte(tag.MacClient), nil)

	return serverMacKey, clientMacKey, sessionSecret
}

// Core runs the shared key schedule over the transcript. The request is the
// full serialized credential request; responseCore is the serialized
// credential response without the trailing server MAC. Both sides compute the
// same three outputs and each verifies the peer's MAC in constant time.
func Core(
	conf *internal.Configuration,
	identities *Identities,
	ikm, request, responseCore []byte,
) (sessionKey, serverMac, clientMac []byte) {
	h := conf.NewHash()
	for _, part := range [][]byte{
		[]byte(tag.VersionTag),
		encoding.EncodeVector(conf.Context),
		encoding.EncodeVector(identities.Client),
		request,
		encoding.EncodeVector(identities.Server),
		responseCore,
	} {
		h.Write(part)
	}

	preamble := h.Sum()

	serverMacKey, clientMacKey, sessionKey := deriveKeys(conf.KDF, ikm, preamble)
	serverMac = conf.MAC.MAC(serverMacKey, preamble)
	h.Write(serverMac)
	clientMac = conf.MAC.MAC(clientMacKey, h.Sum())

	return sessionKey, serverMac, clientMac
}
