// Package pake implements the password-authenticated mutual authentication
// protocol: a client proves knowledge of a password to a server without ever
// transmitting the password or a dictionary-attackable derivative of it, and
// both sides derive a fresh shared session key on success.
//
// The protocol is an OPRF-based design: registration produces an opaque
// credential record the server stores in place of a password hash, and login
// runs a 3DH key exchange authenticated by keys recoverable only with the
// password. Server compromise exposes nothing that can be attacked offline
// cheaper than the configured memory-hard key stretching function.
package pake

import (
	"crypto"
	"errors"

	group "github.com/bytemare/crypto"
	"github.com/bytemare/ksf"

	"github.com/dirauth/dirauth/internal"
	"github.com/dirauth/dirauth/internal/crypt"
	"github.com/dirauth/dirauth/internal/encoding"
	"github.com/dirauth/dirauth/internal/oprf"
	"github.com/dirauth/dirauth/internal/tag"
)

// Group identifies the prime-order group the protocol runs over.
type Group = group.Group

// Available groups.
const (
	Ristretto255Sha512 = group.Ristretto255Sha512
	P256Sha256         = group.P256Sha256
	P384Sha384         = group.P384Sha384
	P521Sha512         = group.P521Sha512
)

// NonceLength is the default length of protocol nonces.
const NonceLength = 32

var (
	errInvalidGroup   = errors.New("unsupported group")
	errInvalidKSF     = errors.New("unsupported key stretching function")
	errPrivateKey     = errors.New("invalid server private key")
	errZeroPrivateKey = errors.New("server private key is zero")
	errOPRFSeed       = errors.New("OPRF seed must not be empty")
)

// Configuration collects the protocol parameters. The zero value is not
// usable; start from DefaultConfiguration. Both peers must use identical
// configurations, and changing any field invalidates previously registered
// credentials.
type Configuration struct {
	// Group is the prime-order group for the OPRF and the key exchange.
	Group Group

	// KDF, MAC, and Hash identify the hash primitive backing key derivation,
	// message authentication, and the transcript hash.
	KDF  crypto.Hash
	MAC  crypto.Hash
	Hash crypto.Hash

	// KSF is the memory-hard key stretching function applied to the OPRF
	// output, with optional work-factor overrides (for Argon2id: time,
	// memory in KiB, parallelism) and salt.
	KSF           ksf.Identifier
	KSFParameters []int
	KSFSalt       []byte

	// NonceLen is the length of protocol nonces.
	NonceLen int

	// Context is an optional application-supplied domain separation string.
	Context []byte
}

// DefaultConfiguration returns the recommended configuration: ristretto255
// with SHA-512 and Argon2id.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		Group:    Ristretto255Sha512,
		KDF:      crypto.SHA512,
		MAC:      crypto.SHA512,
		Hash:     crypto.SHA512,
		KSF:      ksf.Argon2id,
		NonceLen: NonceLength,
	}
}

func (c *Configuration) toInternal() (*internal.Configuration, error) {
	if _, ok := encoding.PointLength[c.Group]; !ok {
		return nil, errInvalidGroup
	}

	suite := oprf.FromGroup(c.Group)
	if !suite.Available() {
		return nil, errInvalidGroup
	}

	switch c.KSF {
	case 0, ksf.Argon2id, ksf.Scrypt, ksf.PBKDF2Sha512:
	default:
		return nil, errInvalidKSF
	}

	stretch := crypt.NewKSF(c.KSF)
	if len(c.KSFParameters) != 0 {
		stretch.Parameterize(c.KSFParameters...)
	}

	mac := crypt.NewMac(c.MAC)

	return &internal.Configuration{
		KDF:          crypt.NewKDF(c.KDF),
		MAC:          mac,
		KSF:          stretch,
		KSFSalt:      c.KSFSalt,
		OPRF:         suite,
		Group:        c.Group,
		HashID:       c.Hash,
		NonceLen:     c.NonceLen,
		EnvelopeSize: c.NonceLen + mac.Size(),
		Context:      c.Context,
	}, nil
}

// Deserializer returns a message deserializer for the configuration.
func (c *Configuration) Deserializer() (*Deserializer, error) {
	conf, err := c.toInternal()
	if err != nil {
		return nil, err
	}

	return &Deserializer{conf: conf}, nil
}

// Client returns a protocol client. A client holds per-attempt state and must
// not be reused across registration or login attempts.
func (c *Configuration) Client() (*Client, error) {
	conf, err := c.toInternal()
	if err != nil {
		return nil, err
	}

	return &Client{conf: conf, oprf: conf.OPRF.Client()}, nil
}

// Server returns a protocol server operating with the given key material. The
// server is stateless across attempts and safe for concurrent use.
func (c *Configuration) Server(km *KeyMaterial) (*Server, error) {
	conf, err := c.toInternal()
	if err != nil {
		return nil, err
	}

	if len(km.OPRFSeed) == 0 {
		return nil, errOPRFSeed
	}

	sk := conf.Group.NewScalar()
	if err := sk.Decode(km.PrivateKey); err != nil {
		return nil, errPrivateKey
	}

	if sk.IsZero() {
		return nil, errZeroPrivateKey
	}

	return &Server{
		conf:           conf,
		privateKey:     sk,
		publicKeyBytes: encoding.SerializePoint(conf.Group.Base().Multiply(sk), conf.Group),
		oprfSeed:       km.OPRFSeed,
	}, nil
}

// KeyMaterial holds the server's long-term secrets: the private key for the
// key exchange and the seed all per-user OPRF keys are derived from. These
// values are not client specific and must be stable across restarts.
type KeyMaterial struct {
	PrivateKey []byte
	PublicKey  []byte
	OPRFSeed   []byte
}

// KeyGen returns a fresh random private/public key pair for the configured
// group.
func (c *Configuration) KeyGen() (privateKey, publicKey []byte) {
	sk := c.Group.NewScalar().Random()
	pk := c.Group.Base().Multiply(sk)

	return encoding.SerializeScalar(sk, c.Group), encoding.SerializePoint(pk, c.Group)
}

// GenerateOPRFSeed returns a fresh random OPRF seed.
func (c *Configuration) GenerateOPRFSeed() []byte {
	return crypt.RandomBytes(internal.SeedLength)
}

// DeriveKeyMaterial deterministically derives the full server key material
// from a single secret seed, so a deployment only has to persist one value.
func (c *Configuration) DeriveKeyMaterial(seed []byte) (*KeyMaterial, error) {
	conf, err := c.toInternal()
	if err != nil {
		return nil, err
	}

	if len(seed) == 0 {
		return nil, errOPRFSeed
	}

	skSeed := conf.KDF.Expand(seed, []byte(tag.ExpandServerPrivateKey), internal.SeedLength)
	sk := conf.OPRF.DeriveKey(skSeed, []byte(tag.DeriveKeyPair))
	pk := conf.Group.Base().Multiply(sk)

	return &KeyMaterial{
		PrivateKey: encoding.SerializeScalar(sk, c.Group),
		PublicKey:  encoding.SerializePoint(pk, c.Group),
		OPRFSeed:   conf.KDF.Expand(seed, []byte(tag.ExpandOPRFSeed), internal.SeedLength),
	}, nil
}
