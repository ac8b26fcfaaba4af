package dirauth_test

import (
	"bytes"
	"context"
	"crypto"
	"errors"
	"testing"
	"time"

	"github.com/dirauth/dirauth"
	"github.com/dirauth/dirauth/pake"
	"github.com/dirauth/dirauth/store"
	"github.com/dirauth/dirauth/token"
)

func testSuite() *pake.Configuration {
	c := pake.DefaultConfiguration()
	c.KDF, c.MAC, c.Hash = crypto.SHA512, crypto.SHA512, crypto.SHA512
	c.KSF = 0

	return c
}

type env struct {
	auth  *dirauth.Authenticator
	suite *pake.Configuration
	des   *pake.Deserializer
	creds *store.MemStore
	now   time.Time
}

func newEnv(t *testing.T, opts ...dirauth.Option) *env {
	t.Helper()

	suite := testSuite()

	des, err := suite.Deserializer()
	if err != nil {
		t.Fatalf("building deserializer: %v", err)
	}

	e := &env{
		suite: suite,
		des:   des,
		creds: store.NewMemStore(),
		now:   time.Now(),
	}

	cfg := dirauth.Config{
		Suite:           suite,
		KeyMaterialSeed: bytes.Repeat([]byte{42}, 32),
		TokenSecret:     []byte("0123456789abcdef0123456789abcdef"),
	}

	opts = append(opts, dirauth.WithClock(func() time.Time { return e.now }))

	e.auth, err = dirauth.New(cfg, e.creds, opts...)
	if err != nil {
		t.Fatalf("building authenticator: %v", err)
	}

	t.Cleanup(e.auth.Close)

	return e
}

func (e *env) register(t *testing.T, username, password string) {
	t.Helper()

	client, err := e.suite.Client()
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	start, err := e.auth.RegistrationStart(context.Background(), username,
		client.RegistrationInit([]byte(password)).Serialize())
	if err != nil {
		t.Fatalf("registration start: %v", err)
	}

	resp, err := e.des.RegistrationResponse(start.Message)
	if err != nil {
		t.Fatalf("decoding registration response: %v", err)
	}

	upload, _, err := client.RegistrationFinalize(resp, []byte(username))
	if err != nil {
		t.Fatalf("finalizing registration: %v", err)
	}

	if err := e.auth.RegistrationFinish(context.Background(), start.SessionID, upload.Serialize()); err != nil {
		t.Fatalf("registration finish: %v", err)
	}
}

// login runs the client side of a login and returns the service result plus
// the client's view of the session key.
func (e *env) login(t *testing.T, username, password string) (*dirauth.LoginResult, []byte, error) {
	t.Helper()

	client, err := e.suite.Client()
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	start, err := e.auth.LoginStart(context.Background(), username,
		client.LoginInit([]byte(password)).Serialize())
	if err != nil {
		return nil, nil, err
	}

	resp, err := e.des.CredentialResponse(start.Message)
	if err != nil {
		t.Fatalf("decoding credential response: %v", err)
	}

	fin, clientKey, _, err := client.LoginFinalize(resp, []byte(username))
	if err != nil {
		// Mirror what a real client does on a failed exchange: send nothing,
		// or garbage. Sending the empty proof exercises the server path.
		_, finishErr := e.auth.LoginFinish(context.Background(), start.SessionID, make([]byte, 64))
		return nil, nil, finishErr
	}

	result, err := e.auth.LoginFinish(context.Background(), start.SessionID, fin.Serialize())
	if err != nil {
		return nil, nil, err
	}

	return result, clientKey, nil
}

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice", "hunter2 but longer")

	result, clientKey, err := e.login(t, "alice", "hunter2 but longer")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if !bytes.Equal(result.SessionKey, clientKey) {
		t.Fatal("client and server session keys differ")
	}

	subject, err := e.auth.VerifyAccess(result.Tokens.Access)
	if err != nil {
		t.Fatalf("verifying access token: %v", err)
	}

	if subject != "alice" {
		t.Fatalf("subject = %q, want alice", subject)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice", "right password")

	_, _, err := e.login(t, "alice", "wrong password")
	if !errors.Is(err, dirauth.ErrAuthenticationFailed) {
		t.Fatalf("got %v, want ErrAuthenticationFailed", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	e := newEnv(t)

	// No registration at all: the exchange must complete and fail exactly
	// like a wrong password.
	_, _, err := e.login(t, "nobody", "any password")
	if !errors.Is(err, dirauth.ErrAuthenticationFailed) {
		t.Fatalf("got %v, want ErrAuthenticationFailed", err)
	}
}

func TestLoginSessionReplay(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice", "password")

	client, err := e.suite.Client()
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	start, err := e.auth.LoginStart(context.Background(), "alice",
		client.LoginInit([]byte("password")).Serialize())
	if err != nil {
		t.Fatalf("login start: %v", err)
	}

	resp, err := e.des.CredentialResponse(start.Message)
	if err != nil {
		t.Fatalf("decoding credential response: %v", err)
	}

	fin, _, _, err := client.LoginFinalize(resp, []byte("alice"))
	if err != nil {
		t.Fatalf("finalizing login: %v", err)
	}

	if _, err := e.auth.LoginFinish(context.Background(), start.SessionID, fin.Serialize()); err != nil {
		t.Fatalf("login finish: %v", err)
	}

	// The session was consumed; replaying the same finalization must fail.
	if _, err := e.auth.LoginFinish(context.Background(), start.SessionID, fin.Serialize()); !errors.Is(err, dirauth.ErrUnknownSession) {
		t.Fatalf("got %v, want ErrUnknownSession", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	suite := testSuite()

	auth, err := dirauth.New(dirauth.Config{
		Suite:           suite,
		KeyMaterialSeed: bytes.Repeat([]byte{42}, 32),
		TokenSecret:     []byte("0123456789abcdef0123456789abcdef"),
		SessionTTL:      10 * time.Millisecond,
	}, store.NewMemStore())
	if err != nil {
		t.Fatalf("building authenticator: %v", err)
	}
	defer auth.Close()

	client, err := suite.Client()
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	start, err := auth.LoginStart(context.Background(), "alice",
		client.LoginInit([]byte("password")).Serialize())
	if err != nil {
		t.Fatalf("login start: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if _, err := auth.LoginFinish(context.Background(), start.SessionID, make([]byte, 64)); !errors.Is(err, dirauth.ErrUnknownSession) {
		t.Fatalf("got %v, want ErrUnknownSession", err)
	}
}

func TestSessionKindMismatch(t *testing.T) {
	e := newEnv(t)

	client, err := e.suite.Client()
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	start, err := e.auth.RegistrationStart(context.Background(), "alice",
		client.RegistrationInit([]byte("password")).Serialize())
	if err != nil {
		t.Fatalf("registration start: %v", err)
	}

	// A registration session cannot finish a login.
	if _, err := e.auth.LoginFinish(context.Background(), start.SessionID, make([]byte, 64)); !errors.Is(err, dirauth.ErrUnknownSession) {
		t.Fatalf("got %v, want ErrUnknownSession", err)
	}
}

func TestInvalidMessages(t *testing.T) {
	e := newEnv(t)

	if _, err := e.auth.RegistrationStart(context.Background(), "alice", []byte("junk")); !errors.Is(err, dirauth.ErrInvalidMessage) {
		t.Fatalf("got %v, want ErrInvalidMessage", err)
	}

	if _, err := e.auth.LoginStart(context.Background(), "alice", []byte("junk")); !errors.Is(err, dirauth.ErrInvalidMessage) {
		t.Fatalf("got %v, want ErrInvalidMessage", err)
	}
}

func TestTokenLifecycle(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice", "password")

	result, _, err := e.login(t, "alice", "password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Access token expires; the refresh token still rotates into a new pair.
	e.now = e.now.Add(time.Hour)

	if _, err := e.auth.VerifyAccess(result.Tokens.Access); !errors.Is(err, dirauth.ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}

	pair, err := e.auth.Refresh(context.Background(), result.Tokens.Refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	subject, err := e.auth.VerifyAccess(pair.Access)
	if err != nil {
		t.Fatalf("verifying refreshed access token: %v", err)
	}

	if subject != "alice" {
		t.Fatalf("subject = %q, want alice", subject)
	}

	// A refresh token never authorizes as an access token.
	if _, err := e.auth.VerifyAccess(pair.Refresh); !errors.Is(err, dirauth.ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid", err)
	}
}

type revokeAll struct{ at time.Time }

func (r revokeAll) LastRevokedBefore(context.Context, string) (time.Time, error) {
	return r.at, nil
}

func TestRefreshRevoked(t *testing.T) {
	var horizon revokeAll

	e := newEnv(t, dirauth.WithRevocationHorizon(&horizon))
	e.register(t, "alice", "password")

	result, _, err := e.login(t, "alice", "password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	horizon.at = e.now.Add(time.Minute)
	e.now = e.now.Add(2 * time.Minute)

	if _, err := e.auth.Refresh(context.Background(), result.Tokens.Refresh); !errors.Is(err, dirauth.ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
}

type faultyStore struct {
	store.CredentialStore

	err error
}

func (f *faultyStore) GetRecord(context.Context, string) ([]byte, error) {
	return nil, f.err
}

func (f *faultyStore) PutRecord(context.Context, string, []byte) error {
	return f.err
}

func TestStoreFailure(t *testing.T) {
	suite := testSuite()

	faulty := &faultyStore{err: errors.New("connection refused")}

	auth, err := dirauth.New(dirauth.Config{
		Suite:           suite,
		KeyMaterialSeed: bytes.Repeat([]byte{42}, 32),
		TokenSecret:     []byte("0123456789abcdef0123456789abcdef"),
	}, faulty)
	if err != nil {
		t.Fatalf("building authenticator: %v", err)
	}
	defer auth.Close()

	client, err := suite.Client()
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	if _, err := auth.LoginStart(context.Background(), "alice",
		client.LoginInit([]byte("password")).Serialize()); !errors.Is(err, dirauth.ErrStoreUnavailable) {
		t.Fatalf("got %v, want ErrStoreUnavailable", err)
	}
}

func TestConfigValidation(t *testing.T) {
	creds := store.NewMemStore()

	if _, err := dirauth.New(dirauth.Config{TokenSecret: []byte("secret")}, creds); err == nil {
		t.Fatal("expected error without key material")
	}

	if _, err := dirauth.New(dirauth.Config{KeyMaterialSeed: []byte("seed")}, creds); err == nil {
		t.Fatal("expected error without token secret")
	}
}

var _ token.RevocationHorizon = revokeAll{}
