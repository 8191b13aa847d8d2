package credentials

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidSignIn is the "invalid credential" class of sign-in failure.
	// A record provisioned moments earlier may not yet be visible to the
	// sign-in path, so callers may retry this class with backoff.
	ErrInvalidSignIn = errors.New("credential service rejected sign in")

	// ErrUnavailable is the hard-failure class (network, 5xx). Never retried.
	ErrUnavailable = errors.New("credential service unavailable")
)

// Session is issued by the credential service on successful sign-in. It is
// never persisted here; its lifetime belongs to the credential service.
type Session struct {
	IdentityID   string    `json:"identity_id"` // Store-native identity id (token subject)
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Binding is the result of the claim-or-verify operation.
type Binding struct {
	Bound              bool
	ExistingIdentityID string // identity currently bound to the profile, "" when none
}

// Store is the credential service as seen by the login protocol.
//
// ClaimOrVerifyBinding must be atomic and idempotent at the store layer: with
// no prior binding it claims identityID and reports Bound=true; with a prior
// binding it reports Bound = (existing == identityID) without side effects.
type Store interface {
	SignIn(ctx context.Context, loginIdentity, password string) (*Session, error)
	ClaimOrVerifyBinding(ctx context.Context, profileID int64, identityID string) (*Binding, error)
}
