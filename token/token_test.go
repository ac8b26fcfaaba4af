package token

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func testIssuer() *Issuer {
	return NewIssuer(testSecret, "dirauth-test", 15*time.Minute, 7*24*time.Hour)
}

func TestIssueAndVerify(t *testing.T) {
	i := testIssuer()
	now := time.Now()

	pair, err := i.Issue("alice", now)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	claims, err := i.Verify(pair.Access, now.Add(time.Minute), TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, TypeAccess, claims.TokenType)
	assert.Equal(t, "dirauth-test", claims.Issuer)

	claims, err = i.Verify(pair.Refresh, now.Add(time.Minute), TypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, TypeRefresh, claims.TokenType)
}

func TestVerifyExpired(t *testing.T) {
	i := testIssuer()
	now := time.Now()

	pair, err := i.Issue("alice", now)
	require.NoError(t, err)

	_, err = i.Verify(pair.Access, now.Add(16*time.Minute), TypeAccess)
	assert.ErrorIs(t, err, ErrExpired)

	_, err = i.Verify(pair.Refresh, now.Add(8*24*time.Hour), TypeRefresh)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyTypeMismatch(t *testing.T) {
	i := testIssuer()
	now := time.Now()

	pair, err := i.Issue("alice", now)
	require.NoError(t, err)

	_, err = i.Verify(pair.Refresh, now, TypeAccess)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = i.Verify(pair.Access, now, TypeRefresh)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestVerifyTamperedSignature(t *testing.T) {
	i := testIssuer()
	now := time.Now()

	pair, err := i.Issue("alice", now)
	require.NoError(t, err)

	// Change one character inside the signature segment.
	raw := []byte(pair.Access)
	pos := len(raw) - 10

	if raw[pos] == 'A' {
		raw[pos] = 'B'
	} else {
		raw[pos] = 'A'
	}

	_, err = i.Verify(string(raw), now, TypeAccess)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyWrongSecret(t *testing.T) {
	now := time.Now()

	pair, err := testIssuer().Issue("alice", now)
	require.NoError(t, err)

	other := NewIssuer([]byte("another secret entirely, 32 byte"), "dirauth-test", time.Minute, time.Hour)

	_, err = other.Verify(pair.Access, now, TypeAccess)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyMalformed(t *testing.T) {
	i := testIssuer()
	now := time.Now()

	for _, raw := range []string{"", "garbage", "a.b.c", strings.Repeat("x", 512)} {
		_, err := i.Verify(raw, now, TypeAccess)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", raw)
	}
}

type fixedHorizon struct {
	cutoff time.Time
	err    error
}

func (f fixedHorizon) LastRevokedBefore(context.Context, string) (time.Time, error) {
	return f.cutoff, f.err
}

func TestRefreshRotates(t *testing.T) {
	i := testIssuer()
	now := time.Now()

	pair, err := i.Issue("alice", now)
	require.NoError(t, err)

	later := now.Add(time.Hour)

	rotated, err := i.Refresh(context.Background(), pair.Refresh, later, nil)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Refresh, rotated.Refresh)

	claims, err := i.Verify(rotated.Access, later, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	i := testIssuer()
	now := time.Now()

	pair, err := i.Issue("alice", now)
	require.NoError(t, err)

	_, err = i.Refresh(context.Background(), pair.Access, now, nil)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestRefreshHonorsRevocationHorizon(t *testing.T) {
	i := testIssuer()
	now := time.Now()

	pair, err := i.Issue("alice", now)
	require.NoError(t, err)

	// Revocation after issuance invalidates the token.
	horizon := fixedHorizon{cutoff: now.Add(time.Minute)}

	_, err = i.Refresh(context.Background(), pair.Refresh, now.Add(2*time.Minute), horizon)
	assert.ErrorIs(t, err, ErrRevoked)

	// Revocation before issuance does not.
	horizon = fixedHorizon{cutoff: now.Add(-time.Minute)}

	_, err = i.Refresh(context.Background(), pair.Refresh, now.Add(2*time.Minute), horizon)
	assert.NoError(t, err)
}

func TestRefreshHorizonError(t *testing.T) {
	i := testIssuer()
	now := time.Now()

	pair, err := i.Issue("alice", now)
	require.NoError(t, err)

	horizonErr := errors.New("database down")

	_, err = i.Refresh(context.Background(), pair.Refresh, now, fixedHorizon{err: horizonErr})
	assert.ErrorIs(t, err, horizonErr)
}

func TestKeySeparation(t *testing.T) {
	i := testIssuer()

	assert.NotEqual(t, i.accessKey, i.refreshKey)

	// The same secret yields the same keys across instances.
	other := testIssuer()
	assert.Equal(t, i.accessKey, other.accessKey)
	assert.Equal(t, i.refreshKey, other.refreshKey)
}
