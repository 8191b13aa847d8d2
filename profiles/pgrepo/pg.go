package pgrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/gradebook-hq/go-auth-bridge/profiles"
)

// pgUndefinedFunction is SQLSTATE 42883: the repair entry point was never
// installed in this database.
const pgUndefinedFunction = "42883"

// NewPool creates a PostgreSQL connection pool for the profile store.
func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, errors.Wrap(err, "[NewPool] parse config")
	}

	poolConfig.MaxConns = 20
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "[NewPool] create pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "[NewPool] ping db")
	}

	return pool, nil
}

var _ profiles.Store = (*ProfileStore)(nil)

// ProfileStore is the Postgres-backed profile store. Password hashes never
// leave this adapter; the login protocol above only sees the verification
// result.
type ProfileStore struct {
	db *pgxpool.Pool
}

func NewProfileStore(db *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{db: db}
}

// VerifyPassword checks identifier/password against the profiles table and
// returns (nil, nil) when no profile matches or the password is wrong.
func (r *ProfileStore) VerifyPassword(ctx context.Context, identifier, password string) (*profiles.Verification, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, username, canonical_login_identity, password_hash
		 FROM profiles
		 WHERE lower(username) = lower($1)`,
		identifier)

	var (
		verification profiles.Verification
		cached       *string
		passwordHash string
	)
	err := row.Scan(&verification.ProfileID, &verification.Username, &cached, &passwordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "[ProfileStore.VerifyPassword] query")
	}

	if !profiles.CheckPasswordHash(password, passwordHash) {
		return nil, nil
	}
	if cached != nil {
		verification.CachedLoginIdentity = *cached
	}
	return &verification, nil
}

// RepairCredential calls the store-side repair entry point, which re-derives
// or re-creates the credential record and the profile's binding fields in one
// transaction. A database without the function reports ErrRepairNotSupported.
func (r *ProfileStore) RepairCredential(ctx context.Context, identifier, password string) (*profiles.RepairOutcome, error) {
	row := r.db.QueryRow(ctx,
		`SELECT bound, login_identity FROM repair_profile_credential($1, $2)`,
		identifier, password)

	var (
		outcome       profiles.RepairOutcome
		loginIdentity *string
	)
	err := row.Scan(&outcome.Bound, &loginIdentity)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedFunction {
			return nil, profiles.ErrRepairNotSupported
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return &profiles.RepairOutcome{Bound: false}, nil
		}
		return nil, errors.Wrap(err, "[ProfileStore.RepairCredential] query")
	}

	if loginIdentity != nil {
		outcome.LoginIdentity = *loginIdentity
	}
	return &outcome, nil
}

// GetByID returns the profile row, or (nil, nil) when it does not exist.
func (r *ProfileStore) GetByID(ctx context.Context, id int64) (*profiles.Profile, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, username, display_name, role, canonical_login_identity, linked_credential_id
		 FROM profiles
		 WHERE id = $1`,
		id)

	var p profiles.Profile
	err := row.Scan(&p.ID, &p.Username, &p.DisplayName, &p.Role, &p.CanonicalLoginIdentity, &p.LinkedCredentialID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "[ProfileStore.GetByID] query")
	}
	return &p, nil
}
