package auth

import (
	"errors"
	"fmt"
)

// Kind classifies terminal login failures.
type Kind string

const (
	KindInvalidCredentials    Kind = "invalid_credentials"
	KindSignInFailed          Kind = "sign_in_failed"
	KindIdentityUnrecoverable Kind = "identity_unrecoverable"
	KindProfileUnresolvable   Kind = "profile_unresolvable"
	KindServiceUnavailable    Kind = "service_unavailable"
)

// Underlying causes surfaced inside *Error.
var (
	PasswordMismatchErr = errors.New("identifier or password not recognised")
	BindingMismatchErr  = errors.New("profile bound to a different credential identity")
	ProfileMissingErr   = errors.New("profile row missing after binding")
	RepairDeclinedErr   = errors.New("credential repair declined by profile store")
	RepairExhaustedErr  = errors.New("repair rounds exhausted; manual credential reset required")
)

// Error is a terminal login failure carrying its classification and the last
// underlying cause, so callers can present an actionable message.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the classification of err, or "" when err did not come from
// the login protocol.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

func terminal(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}
