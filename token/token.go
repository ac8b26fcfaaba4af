// Package token issues and verifies the session tokens handed out after a
// successful login: a short-lived access token and a longer-lived refresh
// token, both HMAC-signed JWTs. The two signing keys are expanded from a
// single secret under distinct labels, so an access token can never verify
// as a refresh token or vice versa.
package token

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dirauth/dirauth/internal/crypt"
)

// Verification errors.
var (
	ErrMalformed        = errors.New("malformed token")
	ErrExpired          = errors.New("token expired")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrTypeMismatch     = errors.New("token type mismatch")
	ErrRevoked          = errors.New("token revoked")
)

// Type tags a token as access or refresh. The tag is carried in the claims
// and bound into the signature through the per-type signing key.
type Type string

// Token types.
const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Claims is the registered claim set plus the token type tag.
type Claims struct {
	jwt.RegisteredClaims

	TokenType Type `json:"typ"`
}

// Pair is the result of a successful login or refresh.
type Pair struct {
	Access  string
	Refresh string
}

// RevocationHorizon reports the cutoff before which a subject's refresh
// tokens are no longer honored. Implementations typically back this with a
// per-user "logged out everywhere at" timestamp.
type RevocationHorizon interface {
	LastRevokedBefore(ctx context.Context, subject string) (time.Time, error)
}

const (
	labelAccessKey  = "DirAuth-TokenKey-Access"
	labelRefreshKey = "DirAuth-TokenKey-Refresh"

	keyLength = 32
)

// Issuer signs and verifies token pairs for one deployment secret.
type Issuer struct {
	issuer     string
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewIssuer derives the two signing keys from secret and returns an Issuer.
// The same secret always yields the same keys, so tokens survive restarts.
func NewIssuer(secret []byte, issuer string, accessTTL, refreshTTL time.Duration) *Issuer {
	kdf := crypt.NewKDF(crypto.SHA256)
	prk := kdf.Extract(nil, secret)

	return &Issuer{
		issuer:     issuer,
		accessKey:  kdf.Expand(prk, []byte(labelAccessKey), keyLength),
		refreshKey: kdf.Expand(prk, []byte(labelRefreshKey), keyLength),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (i *Issuer) keyFor(t Type) ([]byte, error) {
	switch t {
	case TypeAccess:
		return i.accessKey, nil
	case TypeRefresh:
		return i.refreshKey, nil
	default:
		return nil, ErrTypeMismatch
	}
}

func (i *Issuer) sign(subject string, t Type, ttl time.Duration, now time.Time) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		TokenType: t,
	}

	key, err := i.keyFor(t)
	if err != nil {
		return "", err
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", t, err)
	}

	return signed, nil
}

// Issue returns a fresh access/refresh pair for subject, valid from now.
func (i *Issuer) Issue(subject string, now time.Time) (*Pair, error) {
	access, err := i.sign(subject, TypeAccess, i.accessTTL, now)
	if err != nil {
		return nil, err
	}

	refresh, err := i.sign(subject, TypeRefresh, i.refreshTTL, now)
	if err != nil {
		return nil, err
	}

	return &Pair{Access: access, Refresh: refresh}, nil
}

// Verify parses and validates raw as a token of the wanted type and returns
// its claims. The signing key is selected by the claimed type, so a token of
// the wrong type fails with ErrTypeMismatch rather than a signature error.
func (i *Issuer) Verify(raw string, now time.Time, want Type) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		key, keyErr := i.keyFor(claims.TokenType)
		if keyErr != nil {
			return nil, keyErr
		}

		return key, nil
	},
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
	)

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrSignatureInvalid
	case errors.Is(err, ErrTypeMismatch):
		return nil, ErrTypeMismatch
	default:
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if claims.TokenType != want {
		return nil, ErrTypeMismatch
	}

	return claims, nil
}

// Refresh validates raw as a refresh token, checks it against the revocation
// horizon, and rotates it into a fresh pair. A nil horizon skips the
// revocation check.
func (i *Issuer) Refresh(ctx context.Context, raw string, now time.Time, horizon RevocationHorizon) (*Pair, error) {
	claims, err := i.Verify(raw, now, TypeRefresh)
	if err != nil {
		return nil, err
	}

	if horizon != nil {
		cutoff, err := horizon.LastRevokedBefore(ctx, claims.Subject)
		if err != nil {
			return nil, fmt.Errorf("querying revocation horizon: %w", err)
		}

		if claims.IssuedAt != nil && claims.IssuedAt.Time.Before(cutoff) {
			return nil, ErrRevoked
		}
	}

	return i.Issue(claims.Subject, now)
}
