package storefake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gradebook-hq/go-auth-bridge/credentials"
)

var _ credentials.Store = (*FakeCredentialStore)(nil)

type account struct {
	password   string
	identityID string
}

// FakeCredentialStore mimics the credential service: accounts keyed by login
// identity, an atomic claim-or-verify binding table, and a queue of scripted
// sign-in failures so tests can replay eventual-consistency lag.
type FakeCredentialStore struct {
	lock       sync.Mutex
	accounts   map[string]*account
	bindings   map[int64]string
	signInErrs []error

	signInCalls int
	claimCalls  int
}

func NewFakeCredentialStore() *FakeCredentialStore {
	return &FakeCredentialStore{
		accounts: make(map[string]*account),
		bindings: make(map[int64]string),
	}
}

// SetAccount provisions an account and returns its store-native identity id.
func (cs *FakeCredentialStore) SetAccount(loginIdentity, password string) string {
	cs.lock.Lock()
	defer cs.lock.Unlock()
	identityID := uuid.New().String()
	cs.accounts[loginIdentity] = &account{password: password, identityID: identityID}
	return identityID
}

// RemoveAccount drops the account, as if it was never provisioned.
func (cs *FakeCredentialStore) RemoveAccount(loginIdentity string) {
	cs.lock.Lock()
	defer cs.lock.Unlock()
	delete(cs.accounts, loginIdentity)
}

// Bind presets a binding, bypassing the claim path.
func (cs *FakeCredentialStore) Bind(profileID int64, identityID string) {
	cs.lock.Lock()
	defer cs.lock.Unlock()
	cs.bindings[profileID] = identityID
}

// Unbind clears a binding, as the server-side repair path would.
func (cs *FakeCredentialStore) Unbind(profileID int64) {
	cs.lock.Lock()
	defer cs.lock.Unlock()
	delete(cs.bindings, profileID)
}

// BindingFor reports the bound identity for profileID, "" when unbound.
func (cs *FakeCredentialStore) BindingFor(profileID int64) string {
	cs.lock.Lock()
	defer cs.lock.Unlock()
	return cs.bindings[profileID]
}

// QueueSignInErr makes the next SignIn calls fail with err, in order, before
// the account table is consulted.
func (cs *FakeCredentialStore) QueueSignInErr(errs ...error) {
	cs.lock.Lock()
	defer cs.lock.Unlock()
	cs.signInErrs = append(cs.signInErrs, errs...)
}

func (cs *FakeCredentialStore) SignInCalls() int {
	cs.lock.Lock()
	defer cs.lock.Unlock()
	return cs.signInCalls
}

func (cs *FakeCredentialStore) ClaimCalls() int {
	cs.lock.Lock()
	defer cs.lock.Unlock()
	return cs.claimCalls
}

func (cs *FakeCredentialStore) SignIn(_ context.Context, loginIdentity, password string) (*credentials.Session, error) {
	cs.lock.Lock()
	defer cs.lock.Unlock()
	cs.signInCalls++

	if len(cs.signInErrs) > 0 {
		err := cs.signInErrs[0]
		cs.signInErrs = cs.signInErrs[1:]
		return nil, err
	}

	acc, ok := cs.accounts[loginIdentity]
	if !ok || acc.password != password {
		return nil, errors.Wrap(credentials.ErrInvalidSignIn, "fake sign in")
	}
	return &credentials.Session{
		IdentityID:  acc.identityID,
		AccessToken: fmt.Sprintf("fake-access-token-%d", cs.signInCalls),
		TokenType:   "bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

func (cs *FakeCredentialStore) ClaimOrVerifyBinding(_ context.Context, profileID int64, identityID string) (*credentials.Binding, error) {
	cs.lock.Lock()
	defer cs.lock.Unlock()
	cs.claimCalls++

	existing, ok := cs.bindings[profileID]
	if !ok {
		cs.bindings[profileID] = identityID
		return &credentials.Binding{Bound: true, ExistingIdentityID: identityID}, nil
	}
	return &credentials.Binding{Bound: existing == identityID, ExistingIdentityID: existing}, nil
}
