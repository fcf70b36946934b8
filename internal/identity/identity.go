// Package identity wraps the hosted identity provider the session manager
// authenticates against. The session manager only ever talks to the Provider
// contract, so the backing service can be swapped without touching the store.
package identity

import (
	"context"
	"errors"
	"fmt"
)

// Code is a stable machine-readable classification of a provider failure.
// The session manager maps these to user-facing auth errors.
type Code string

const (
	CodeDuplicateIdentity Code = "duplicate-identity"
	CodeWeakCredential    Code = "weak-credential"
	CodeInvalidIdentity   Code = "invalid-identity"
	CodeTooManyAttempts   Code = "too-many-attempts"
	CodeNotFound          Code = "not-found"
	CodeWrongCredential   Code = "wrong-credential"
	CodeInvalidToken      Code = "invalid-token"
	CodeUnknown           Code = "unknown"
)

// Error is a provider failure carrying a stable code.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity: %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("identity: %s", e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates an Error with the given code.
func NewError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// CodeOf extracts the code from an error, returning CodeUnknown for anything
// that is not a provider Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Subject is an authenticated identity: the provider's stable id for the
// account, the email it was registered with, and a session token.
type Subject struct {
	UserID string
	Email  string
	Token  string
}

// Provider is the hosted identity service contract.
//
// Implementations are stateful in the style of a client-side auth SDK: they
// hold the current session and fire registered session-change listeners
// whenever it changes (sign-up, sign-in, sign-out). Registering a listener
// fires it immediately with the current session so late subscribers observe
// a restored session.
type Provider interface {
	// CreateAccount registers a new identity and starts a session for it.
	CreateAccount(ctx context.Context, email, password string) (*Subject, error)
	// VerifyCredentials authenticates an existing identity and starts a
	// session for it.
	VerifyCredentials(ctx context.Context, email, password string) (*Subject, error)
	// EndSession terminates the current session, if any.
	EndSession(ctx context.Context) error
	// SendPasswordReset dispatches a password-reset message to the identity's
	// registered email.
	SendPasswordReset(ctx context.Context, email string) error
	// CompletePasswordReset consumes a token from SendPasswordReset and sets
	// a new password for the account it names. It does not start a session;
	// the user signs in with the new password.
	CompletePasswordReset(ctx context.Context, token, newPassword string) error
	// OnSessionChange registers a listener invoked with the current subject
	// (nil when signed out) on every session change, and immediately upon
	// registration. It returns an unsubscribe function.
	OnSessionChange(fn func(subject *Subject)) func()
}

// ResetMailer delivers password-reset messages. Wired to the background
// email worker in production and to a direct sender or mock in tests.
type ResetMailer interface {
	DeliverPasswordReset(ctx context.Context, email, token string) error
}
