package dirauth

import (
	"errors"
	"time"

	"github.com/dirauth/dirauth/pake"
)

// Defaults applied by Config.withDefaults.
const (
	DefaultSessionTTL      = 2 * time.Minute
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultIssuer          = "dirauth"
)

var (
	errNoKeyMaterial = errors.New("either KeyMaterial or KeyMaterialSeed must be set")
	errNoTokenSecret = errors.New("TokenSecret must be set")
)

// Config assembles an Authenticator. Suite, key material, and token secret
// must be stable across restarts; everything else has working defaults.
type Config struct {
	// Suite is the protocol configuration. Nil selects
	// pake.DefaultConfiguration.
	Suite *pake.Configuration

	// KeyMaterial is the server's long-term protocol key material. If nil, it
	// is derived from KeyMaterialSeed.
	KeyMaterial *pake.KeyMaterial

	// KeyMaterialSeed deterministically derives the key material when
	// KeyMaterial is nil.
	KeyMaterialSeed []byte

	// TokenSecret is the root secret the token signing keys are expanded from.
	TokenSecret []byte

	// Issuer is the issuer claim stamped into tokens.
	Issuer string

	// SessionTTL bounds the time between the start and finish calls of one
	// registration or login exchange.
	SessionTTL time.Duration

	// AccessTokenTTL and RefreshTokenTTL are the token lifetimes.
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

func (c *Config) withDefaults() *Config {
	out := *c

	if out.Suite == nil {
		out.Suite = pake.DefaultConfiguration()
	}

	if out.Issuer == "" {
		out.Issuer = DefaultIssuer
	}

	if out.SessionTTL == 0 {
		out.SessionTTL = DefaultSessionTTL
	}

	if out.AccessTokenTTL == 0 {
		out.AccessTokenTTL = DefaultAccessTokenTTL
	}

	if out.RefreshTokenTTL == 0 {
		out.RefreshTokenTTL = DefaultRefreshTokenTTL
	}

	return &out
}

func (c *Config) validate() error {
	if c.KeyMaterial == nil && len(c.KeyMaterialSeed) == 0 {
		return errNoKeyMaterial
	}

	if len(c.TokenSecret) == 0 {
		return errNoTokenSecret
	}

	return nil
}
