package profiles

import (
	"context"
	"errors"
)

// ErrRepairNotSupported is returned by RepairCredential when the store has no
// repair entry point (e.g. the SQL function was never installed).
var ErrRepairNotSupported = errors.New("credential repair not supported by profile store")

// Verification is the profile store's answer to a password check.
type Verification struct {
	ProfileID           int64
	Username            string
	CachedLoginIdentity string // empty when the store has not cached one
}

// RepairOutcome reports the result of a server-side credential re-provision.
type RepairOutcome struct {
	Bound         bool
	LoginIdentity string // empty when the store did not derive a new identity
}

// Store is the profile store's query surface as seen by the login protocol.
// VerifyPassword and GetByID report "no row" as (nil, nil); errors are
// reserved for store failures.
type Store interface {
	VerifyPassword(ctx context.Context, identifier, password string) (*Verification, error)
	RepairCredential(ctx context.Context, identifier, password string) (*RepairOutcome, error)
	GetByID(ctx context.Context, id int64) (*Profile, error)
}
