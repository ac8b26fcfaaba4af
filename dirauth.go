package dirauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dirauth/dirauth/pake"
	"github.com/dirauth/dirauth/session"
	"github.com/dirauth/dirauth/store"
	"github.com/dirauth/dirauth/token"
)

// Authenticator ties the protocol engine, the ephemeral exchange store, the
// credential store, and the token issuer into the service-facing operations.
// It is safe for concurrent use.
type Authenticator struct {
	server   *pake.Server
	des      *pake.Deserializer
	sessions *session.Store
	tokens   *token.Issuer
	creds    store.CredentialStore
	horizon  token.RevocationHorizon
	log      *slog.Logger
	now      func() time.Time
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithLogger sets the logger for internal diagnostics. Diagnostics never leak
// into returned errors.
func WithLogger(log *slog.Logger) Option {
	return func(a *Authenticator) {
		a.log = log
	}
}

// WithRevocationHorizon enables the refresh-token revocation check.
func WithRevocationHorizon(h token.RevocationHorizon) Option {
	return func(a *Authenticator) {
		a.horizon = h
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

// New assembles an Authenticator from the configuration and the credential
// store.
func New(cfg Config, creds store.CredentialStore, opts ...Option) (*Authenticator, error) {
	c := cfg.withDefaults()

	if err := c.validate(); err != nil {
		return nil, err
	}

	km := c.KeyMaterial
	if km == nil {
		derived, err := c.Suite.DeriveKeyMaterial(c.KeyMaterialSeed)
		if err != nil {
			return nil, fmt.Errorf("deriving key material: %w", err)
		}

		km = derived
	}

	server, err := c.Suite.Server(km)
	if err != nil {
		return nil, fmt.Errorf("building protocol server: %w", err)
	}

	des, err := c.Suite.Deserializer()
	if err != nil {
		return nil, fmt.Errorf("building deserializer: %w", err)
	}

	a := &Authenticator{
		server:   server,
		des:      des,
		sessions: session.New(c.SessionTTL, session.WithJanitor(c.SessionTTL)),
		tokens:   token.NewIssuer(c.TokenSecret, c.Issuer, c.AccessTokenTTL, c.RefreshTokenTTL),
		creds:    creds,
		log:      slog.Default(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// Close releases background resources.
func (a *Authenticator) Close() {
	a.sessions.Close()
}

// StartResponse carries the session identifier binding the two round trips of
// an exchange, and the protocol message to relay to the client.
type StartResponse struct {
	SessionID string
	Message   []byte
}

// RegistrationStart begins a registration exchange for username. The returned
// message goes back to the client; the session identifier must accompany the
// client's upload in RegistrationFinish.
func (a *Authenticator) RegistrationStart(_ context.Context, username string, request []byte) (*StartResponse, error) {
	req, err := a.des.RegistrationRequest(request)
	if err != nil {
		a.log.Debug("rejecting registration request", "user", username, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	resp := a.server.RegistrationResponse(req, []byte(username))

	id := session.NewID()
	a.sessions.Put(id, session.State{Kind: session.KindRegistration, Username: username})

	return &StartResponse{SessionID: id, Message: resp.Serialize()}, nil
}

// RegistrationFinish consumes the session and persists the client's credential
// record. The username is taken from the session, not from the caller, so an
// upload cannot be replayed against another account.
func (a *Authenticator) RegistrationFinish(ctx context.Context, sessionID string, upload []byte) error {
	st, ok := a.sessions.Take(sessionID)
	if !ok || st.Kind != session.KindRegistration {
		return ErrUnknownSession
	}

	record, err := a.des.RegistrationUpload(upload)
	if err != nil {
		a.log.Debug("rejecting registration upload", "user", st.Username, "err", err)
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	if err := a.creds.PutRecord(ctx, st.Username, record.Serialize()); err != nil {
		a.log.Error("storing credential record", "user", st.Username, "err", err)
		return ErrStoreUnavailable
	}

	a.log.Info("registered credential record", "user", st.Username)

	return nil
}

// loginRecord loads the user's credential record, falling back to a
// deterministic fake record for unknown users so the response is
// indistinguishable from the real flow.
func (a *Authenticator) loginRecord(ctx context.Context, username string) (*pake.Record, error) {
	blob, err := a.creds.GetRecord(ctx, username)

	switch {
	case errors.Is(err, store.ErrNotFound):
		return a.server.FakeRecord([]byte(username)), nil
	case err != nil:
		a.log.Error("loading credential record", "user", username, "err", err)
		return nil, ErrStoreUnavailable
	}

	record, err := a.des.Record(blob)
	if err != nil {
		// A stored record that does not decode is corruption, not a protocol
		// failure.
		a.log.Error("stored credential record does not decode", "user", username, "err", err)
		return nil, ErrStoreUnavailable
	}

	return record, nil
}

// LoginStart begins a login exchange for username. Unknown usernames are
// served from a fake record and fail only at LoginFinish.
func (a *Authenticator) LoginStart(ctx context.Context, username string, request []byte) (*StartResponse, error) {
	req, err := a.des.CredentialRequest(request)
	if err != nil {
		a.log.Debug("rejecting credential request", "user", username, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	record, err := a.loginRecord(ctx, username)
	if err != nil {
		return nil, err
	}

	resp, state := a.server.LoginResponse(req, record, []byte(username))

	id := session.NewID()
	a.sessions.Put(id, session.State{
		Kind:        session.KindLogin,
		Username:    username,
		ExpectedMac: state.ExpectedMac,
		SessionKey:  state.SessionKey,
	})

	return &StartResponse{SessionID: id, Message: resp.Serialize()}, nil
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Username   string
	Tokens     *token.Pair
	SessionKey []byte
}

// LoginFinish consumes the session and verifies the client's proof. On
// success it returns the token pair and the protocol session key; every
// failure mode past the session lookup yields ErrAuthenticationFailed.
func (a *Authenticator) LoginFinish(_ context.Context, sessionID string, finalization []byte) (*LoginResult, error) {
	st, ok := a.sessions.Take(sessionID)
	if !ok || st.Kind != session.KindLogin {
		return nil, ErrUnknownSession
	}

	fin, err := a.des.CredentialFinalization(finalization)
	if err != nil {
		a.log.Debug("rejecting credential finalization", "user", st.Username, "err", err)
		return nil, ErrAuthenticationFailed
	}

	sessionKey, err := a.server.LoginFinish(&pake.LoginState{
		ExpectedMac: st.ExpectedMac,
		SessionKey:  st.SessionKey,
	}, fin)
	if err != nil {
		a.log.Info("login failed", "user", st.Username)
		return nil, ErrAuthenticationFailed
	}

	pair, err := a.tokens.Issue(st.Username, a.now())
	if err != nil {
		a.log.Error("issuing tokens", "user", st.Username, "err", err)
		return nil, ErrAuthenticationFailed
	}

	a.log.Info("login succeeded", "user", st.Username)

	return &LoginResult{Username: st.Username, Tokens: pair, SessionKey: sessionKey}, nil
}

// VerifyAccess validates an access token and returns the subject it was
// issued to.
func (a *Authenticator) VerifyAccess(raw string) (string, error) {
	claims, err := a.tokens.Verify(raw, a.now(), token.TypeAccess)
	if err != nil {
		return "", mapTokenError(err)
	}

	return claims.Subject, nil
}

// Refresh rotates a refresh token into a fresh token pair, honoring the
// revocation horizon if one is configured.
func (a *Authenticator) Refresh(ctx context.Context, raw string) (*token.Pair, error) {
	pair, err := a.tokens.Refresh(ctx, raw, a.now(), a.horizon)
	if err != nil {
		return nil, mapTokenError(err)
	}

	return pair, nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired), errors.Is(err, token.ErrRevoked):
		return ErrTokenExpired
	default:
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
}
