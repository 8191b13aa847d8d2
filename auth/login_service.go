package auth

import (
	"context"
	goerrors "errors"
	"time"

	"github.com/pkg/errors"

	"github.com/gradebook-hq/go-auth-bridge/credentials"
	"github.com/gradebook-hq/go-auth-bridge/profiles"
)

// DefaultRepairBudget is the maximum number of repair rounds per login
// invocation. A failure after the budget is spent is terminal: the account
// needs out-of-band administrative intervention, and looping further would
// only mask that.
const DefaultRepairBudget = 2

// DefaultLoginDomain is the local-domain suffix appended to derived login
// identities.
const DefaultLoginDomain = "accounts.local"

// Stores holds the two external stores the login protocol reconciles.
type Stores struct {
	Profiles    profiles.Store    // Application-owned profile store
	Credentials credentials.Store // Credential service of record
}

// LoginResult is the bound (profile, session) pair handed to callers.
type LoginResult struct {
	Profile *profiles.Profile
	Session *credentials.Session

	// RepairRounds is how many repair rounds this invocation spent.
	RepairRounds int
}

// LoginService turns a raw (identifier, password) pair into a verified,
// correctly-linked session, self-healing drift between the profile store and
// the credential service under a bounded number of repair rounds. A single
// invocation runs sequentially; concurrent invocations are safe because the
// only shared state is in the stores, and ClaimOrVerifyBinding is atomic
// there.
type LoginService struct {
	stores       Stores
	schedule     []time.Duration
	repairBudget int
	loginDomain  string
	sleep        SleepFunc
}

// LoginServiceOption defines a function type to modify the LoginService instance.
type LoginServiceOption func(*LoginService)

// WithBackoffSchedule overrides the sign-in retry schedule.
func WithBackoffSchedule(schedule []time.Duration) LoginServiceOption {
	return func(s *LoginService) {
		s.schedule = schedule
	}
}

// WithRepairBudget overrides the per-invocation repair round budget.
func WithRepairBudget(rounds int) LoginServiceOption {
	return func(s *LoginService) {
		s.repairBudget = rounds
	}
}

// WithLoginDomain overrides the domain suffix for derived login identities.
func WithLoginDomain(domain string) LoginServiceOption {
	return func(s *LoginService) {
		s.loginDomain = domain
	}
}

// WithSleep sets the sleep function (primarily for testing)
func WithSleep(sleep SleepFunc) LoginServiceOption {
	return func(s *LoginService) {
		s.sleep = sleep
	}
}

// NewLoginService initializes a LoginService with required store dependencies.
// Optional configuration can be provided via options (e.g., WithSleep for testing).
func NewLoginService(stores Stores, options ...LoginServiceOption) (*LoginService, error) {
	if stores.Profiles == nil {
		return nil, errors.New("[NewLoginService] Profiles store is required")
	}
	if stores.Credentials == nil {
		return nil, errors.New("[NewLoginService] Credentials store is required")
	}

	service := &LoginService{
		stores:       stores,
		schedule:     DefaultBackoffSchedule,
		repairBudget: DefaultRepairBudget,
		loginDomain:  DefaultLoginDomain,
		sleep:        sleepContext,
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// Login authenticates identifier/password against the profile store, acquires
// a session from the credential service, and confirms the profile↔identity
// binding before returning. Password verification happens exactly once, up
// front: the credential service may hold a stale password until repair
// completes, so a sign-in there is never a substitute for the profile store's
// check.
func (s *LoginService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	verified, err := s.stores.Profiles.VerifyPassword(ctx, identifier, password)
	if err != nil {
		return nil, terminal(KindServiceUnavailable, errors.Wrap(err, "[LoginService.Login] VerifyPassword"))
	}
	if verified == nil {
		return nil, terminal(KindInvalidCredentials, PasswordMismatchErr)
	}

	fallbackIdentity := DeriveLoginIdentity(verified.Username, s.loginDomain)
	loginIdentity := verified.CachedLoginIdentity
	if loginIdentity == "" {
		loginIdentity = fallbackIdentity
	}

	rounds := 0
	for {
		session, signInErr := s.acquireSession(ctx, loginIdentity, password)
		if signInErr != nil {
			if signInErr.Kind != KindSignInFailed {
				return nil, signInErr
			}
			// Sign-in exhausted its schedule: the credential record is
			// missing or holds a stale password. Re-provision and go again.
			loginIdentity, err = s.repair(ctx, identifier, password, fallbackIdentity,
				&rounds, KindSignInFailed, KindIdentityUnrecoverable, signInErr.Err)
			if err != nil {
				return nil, err
			}
			continue
		}

		binding, err := s.stores.Credentials.ClaimOrVerifyBinding(ctx, verified.ProfileID, session.IdentityID)
		if err != nil {
			return nil, terminal(KindServiceUnavailable, errors.Wrap(err, "[LoginService.Login] ClaimOrVerifyBinding"))
		}
		if !binding.Bound {
			// MISMATCHED drift: the profile is bound to some other identity.
			loginIdentity, err = s.repair(ctx, identifier, password, fallbackIdentity,
				&rounds, KindIdentityUnrecoverable, KindIdentityUnrecoverable, BindingMismatchErr)
			if err != nil {
				return nil, err
			}
			continue
		}

		profile, err := s.stores.Profiles.GetByID(ctx, verified.ProfileID)
		if err != nil {
			return nil, terminal(KindServiceUnavailable, errors.Wrap(err, "[LoginService.Login] GetByID"))
		}
		if profile == nil {
			// Profile row vanished after a confirmed binding. Treated as its
			// own bounded repair branch, reported as unresolvable rather than
			// unrecoverable when the budget is gone.
			loginIdentity, err = s.repair(ctx, identifier, password, fallbackIdentity,
				&rounds, KindProfileUnresolvable, KindProfileUnresolvable, ProfileMissingErr)
			if err != nil {
				return nil, err
			}
			continue
		}

		return &LoginResult{Profile: profile, Session: session, RepairRounds: rounds}, nil
	}
}

// acquireSession attempts sign-in once and retries the invalid-credential
// class on the backoff schedule. Hard failures propagate immediately. The
// returned error is always a classified *Error.
func (s *LoginService) acquireSession(ctx context.Context, loginIdentity, password string) (*credentials.Session, *Error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		session, err := s.stores.Credentials.SignIn(ctx, loginIdentity, password)
		if err == nil {
			return session, nil
		}
		if !goerrors.Is(err, credentials.ErrInvalidSignIn) {
			return nil, terminal(KindServiceUnavailable, errors.Wrap(err, "[LoginService.acquireSession] SignIn"))
		}
		lastErr = err
		if attempt >= len(s.schedule) {
			break
		}
		if err := s.sleep(ctx, s.schedule[attempt]); err != nil {
			return nil, terminal(KindServiceUnavailable, errors.Wrap(err, "[LoginService.acquireSession] interrupted"))
		}
	}
	return nil, terminal(KindSignInFailed, lastErr)
}

// repair spends one repair round: the profile store re-provisions the
// credential record server-side and may hand back a fresh canonical login
// identity. declineKind is returned when the store declines the repair,
// exhaustKind when the round budget is already spent. cause is the failure
// that forced the repair.
func (s *LoginService) repair(ctx context.Context, identifier, password, fallbackIdentity string,
	rounds *int, declineKind, exhaustKind Kind, cause error) (string, error) {
	if *rounds >= s.repairBudget {
		return "", terminal(exhaustKind, goerrors.Join(RepairExhaustedErr, cause))
	}
	*rounds++

	outcome, err := s.stores.Profiles.RepairCredential(ctx, identifier, password)
	if err != nil {
		if goerrors.Is(err, profiles.ErrRepairNotSupported) {
			return "", terminal(declineKind, goerrors.Join(RepairDeclinedErr, cause))
		}
		return "", terminal(KindServiceUnavailable, errors.Wrap(err, "[LoginService.repair] RepairCredential"))
	}
	if !outcome.Bound {
		return "", terminal(declineKind, goerrors.Join(RepairDeclinedErr, cause))
	}

	if outcome.LoginIdentity != "" {
		return outcome.LoginIdentity, nil
	}
	return fallbackIdentity, nil
}
