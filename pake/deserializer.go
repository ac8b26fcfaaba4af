package pake

import (
	"errors"

	group "github.com/bytemare/crypto"

	"github.com/dirauth/dirauth/internal"
)

// Message decoding errors. Every decoder rejects length mismatches, invalid
// point encodings, and the identity element before the message reaches any
// secret-dependent computation.
var (
	ErrInvalidMessageLength  = errors.New("invalid message length for the configuration")
	ErrInvalidBlindedData    = errors.New("blinded data is an invalid point")
	ErrInvalidEvaluatedData  = errors.New("invalid OPRF evaluation")
	ErrInvalidClientKeyshare = errors.New("invalid ephemeral client public key")
	ErrInvalidServerKeyshare = errors.New("invalid ephemeral server public key")
	ErrInvalidServerPK       = errors.New("invalid server public key")
	ErrInvalidClientPK       = errors.New("invalid client public key")
)

// Deserializer decodes wire messages and stored records for one configuration.
type Deserializer struct {
	conf *internal.Configuration
}

func (d *Deserializer) decodePoint(input []byte, wrap error) (*group.Element, error) {
	e := d.conf.Group.NewElement()
	if err := e.Decode(input); err != nil {
		return nil, wrap
	}

	// The identity element would void the contribution of the peer's secret;
	// it must never enter the protocol math.
	if e.IsIdentity() {
		return nil, wrap
	}

	return e, nil
}

// RegistrationRequest decodes a serialized RegistrationRequest.
func (d *Deserializer) RegistrationRequest(input []byte) (*RegistrationRequest, error) {
	if len(input) != d.conf.PointLength() {
		return nil, ErrInvalidMessageLength
	}

	blinded, err := d.decodePoint(input, ErrInvalidBlindedData)
	if err != nil {
		return nil, err
	}

	return &RegistrationRequest{BlindedMessage: blinded, g: d.conf.Group}, nil
}

// RegistrationResponse decodes a serialized RegistrationResponse.
func (d *Deserializer) RegistrationResponse(input []byte) (*RegistrationResponse, error) {
	p := d.conf.PointLength()
	if len(input) != 2*p {
		return nil, ErrInvalidMessageLength
	}

	evaluated, err := d.decodePoint(input[:p], ErrInvalidEvaluatedData)
	if err != nil {
		return nil, err
	}

	pks, err := d.decodePoint(input[p:], ErrInvalidServerPK)
	if err != nil {
		return nil, err
	}

	return &RegistrationResponse{
		EvaluatedMessage: evaluated,
		ServerPublicKey:  pks,
		g:                d.conf.Group,
	}, nil
}

func (d *Deserializer) recordLength() int {
	return d.conf.PointLength() + d.conf.HashSize() + d.conf.EnvelopeSize
}

// Record decodes a stored credential record. RegistrationUpload shares the
// same layout.
func (d *Deserializer) Record(input []byte) (*Record, error) {
	if len(input) != d.recordLength() {
		return nil, ErrInvalidMessageLength
	}

	p := d.conf.PointLength()

	pkc, err := d.decodePoint(input[:p], ErrInvalidClientPK)
	if err != nil {
		return nil, err
	}

	maskingKey := make([]byte, d.conf.HashSize())
	copy(maskingKey, input[p:p+d.conf.HashSize()])

	env := make([]byte, d.conf.EnvelopeSize)
	copy(env, input[p+d.conf.HashSize():])

	return &Record{
		ClientPublicKey: pkc,
		MaskingKey:      maskingKey,
		Envelope:        env,
		g:               d.conf.Group,
	}, nil
}

// RegistrationUpload decodes a serialized RegistrationUpload.
func (d *Deserializer) RegistrationUpload(input []byte) (*RegistrationUpload, error) {
	return d.Record(input)
}

// CredentialRequest decodes a serialized CredentialRequest.
func (d *Deserializer) CredentialRequest(input []byte) (*CredentialRequest, error) {
	p := d.conf.PointLength()
	if len(input) != 2*p+d.conf.NonceLen {
		return nil, ErrInvalidMessageLength
	}

	blinded, err := d.decodePoint(input[:p], ErrInvalidBlindedData)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, d.conf.NonceLen)
	copy(nonce, input[p:p+d.conf.NonceLen])

	keyshare, err := d.decodePoint(input[p+d.conf.NonceLen:], ErrInvalidClientKeyshare)
	if err != nil {
		return nil, err
	}

	return &CredentialRequest{
		BlindedMessage: blinded,
		ClientNonce:    nonce,
		ClientKeyshare: keyshare,
		g:              d.conf.Group,
	}, nil
}

func (d *Deserializer) maskedResponseLength() int {
	return d.conf.PointLength() + d.conf.EnvelopeSize
}

// CredentialResponse decodes a serialized CredentialResponse.
func (d *Deserializer) CredentialResponse(input []byte) (*CredentialResponse, error) {
	p := d.conf.PointLength()
	n := d.conf.NonceLen
	masked := d.maskedResponseLength()

	if len(input) != p+n+masked+n+p+d.conf.MAC.Size() {
		return nil, ErrInvalidMessageLength
	}

	evaluated, err := d.decodePoint(input[:p], ErrInvalidEvaluatedData)
	if err != nil {
		return nil, err
	}

	offset := p
	maskingNonce := make([]byte, n)
	copy(maskingNonce, input[offset:offset+n])
	offset += n

	maskedResponse := make([]byte, masked)
	copy(maskedResponse, input[offset:offset+masked])
	offset += masked

	serverNonce := make([]byte, n)
	copy(serverNonce, input[offset:offset+n])
	offset += n

	keyshare, err := d.decodePoint(input[offset:offset+p], ErrInvalidServerKeyshare)
	if err != nil {
		return nil, err
	}
	offset += p

	mac := make([]byte, d.conf.MAC.Size())
	copy(mac, input[offset:])

	return &CredentialResponse{
		EvaluatedMessage: evaluated,
		MaskingNonce:     maskingNonce,
		MaskedResponse:   maskedResponse,
		ServerNonce:      serverNonce,
		ServerKeyshare:   keyshare,
		ServerMac:        mac,
		g:                d.conf.Group,
	}, nil
}

// CredentialFinalization decodes a serialized CredentialFinalization.
func (d *Deserializer) CredentialFinalization(input []byte) (*CredentialFinalization, error) {
	if len(input) != d.conf.MAC.Size() {
		return nil, ErrInvalidMessageLength
	}

	mac := make([]byte, d.conf.MAC.Size())
	copy(mac, input)

	return &CredentialFinalization{ClientMac: mac}, nil
}
