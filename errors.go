package dirauth

import "errors"

// Service errors. Every authentication failure surfaces as the single
// ErrAuthenticationFailed, whatever its cause, so a network peer cannot
// distinguish a wrong password from an unknown user or a tampered message.
var (
	// ErrInvalidMessage is returned when an incoming protocol message does not
	// decode under the configured suite.
	ErrInvalidMessage = errors.New("invalid protocol message")

	// ErrUnknownSession is returned when a finish call references a session
	// that does not exist, was already consumed, or expired.
	ErrUnknownSession = errors.New("unknown or expired session")

	// ErrAuthenticationFailed is the unified login failure.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrTokenExpired is returned when a presented token is past its lifetime
	// or its refresh lineage was revoked.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned when a presented token is malformed, carries
	// a bad signature, or is of the wrong type for the operation.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrStoreUnavailable is returned when the credential store fails or
	// returns a record that does not decode.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)
