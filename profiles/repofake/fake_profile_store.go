package repofake

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/gradebook-hq/go-auth-bridge/profiles"
)

var _ profiles.Store = (*FakeProfileStore)(nil)

// RepairFunc lets a test script the repair entry point, including mutating a
// fake credential store to mimic server-side re-provisioning.
type RepairFunc func(identifier, password string) (*profiles.RepairOutcome, error)

// FakeProfileStore keeps the verification entry point separate from the
// profile rows, so tests can express the drift where a password check still
// succeeds while the row itself is gone.
type FakeProfileStore struct {
	lock          sync.Mutex
	verifications map[int64]*profiles.Verification
	passwords     map[int64]string // profile id -> bcrypt hash
	rows          map[int64]*profiles.Profile
	repairFunc    RepairFunc

	verifyCalls  int
	repairCalls  int
	getByIDCalls int
}

func NewFakeProfileStore() *FakeProfileStore {
	return &FakeProfileStore{
		verifications: make(map[int64]*profiles.Verification),
		passwords:     make(map[int64]string),
		rows:          make(map[int64]*profiles.Profile),
	}
}

// AddProfile stores a profile row, its password, and its verification entry.
func (ps *FakeProfileStore) AddProfile(profile *profiles.Profile, password string) error {
	hash, err := profiles.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "AddProfile HashPassword")
	}

	verification := &profiles.Verification{ProfileID: profile.ID, Username: profile.Username}
	if profile.CanonicalLoginIdentity != nil {
		verification.CachedLoginIdentity = *profile.CanonicalLoginIdentity
	}

	ps.lock.Lock()
	defer ps.lock.Unlock()
	ps.rows[profile.ID] = profile
	ps.passwords[profile.ID] = hash
	ps.verifications[profile.ID] = verification
	return nil
}

// Remove deletes only the profile row. The verification entry stays, so a
// password check can still succeed against the missing row.
func (ps *FakeProfileStore) Remove(id int64) {
	ps.lock.Lock()
	defer ps.lock.Unlock()
	delete(ps.rows, id)
}

// Restore puts a previously removed profile row back.
func (ps *FakeProfileStore) Restore(profile *profiles.Profile) {
	ps.lock.Lock()
	defer ps.lock.Unlock()
	ps.rows[profile.ID] = profile
}

// SetRepairFunc scripts RepairCredential. Unset, repair reports not supported.
func (ps *FakeProfileStore) SetRepairFunc(fn RepairFunc) {
	ps.lock.Lock()
	defer ps.lock.Unlock()
	ps.repairFunc = fn
}

func (ps *FakeProfileStore) VerifyCalls() int {
	ps.lock.Lock()
	defer ps.lock.Unlock()
	return ps.verifyCalls
}

func (ps *FakeProfileStore) RepairCalls() int {
	ps.lock.Lock()
	defer ps.lock.Unlock()
	return ps.repairCalls
}

func (ps *FakeProfileStore) GetByIDCalls() int {
	ps.lock.Lock()
	defer ps.lock.Unlock()
	return ps.getByIDCalls
}

func (ps *FakeProfileStore) VerifyPassword(_ context.Context, identifier, password string) (*profiles.Verification, error) {
	ps.lock.Lock()
	defer ps.lock.Unlock()
	ps.verifyCalls++

	for id, verification := range ps.verifications {
		if !strings.EqualFold(verification.Username, identifier) {
			continue
		}
		if !profiles.CheckPasswordHash(password, ps.passwords[id]) {
			return nil, nil
		}
		v := *verification
		return &v, nil
	}
	return nil, nil
}

func (ps *FakeProfileStore) RepairCredential(_ context.Context, identifier, password string) (*profiles.RepairOutcome, error) {
	ps.lock.Lock()
	fn := ps.repairFunc
	ps.repairCalls++
	ps.lock.Unlock()

	if fn == nil {
		return nil, profiles.ErrRepairNotSupported
	}
	return fn(identifier, password)
}

func (ps *FakeProfileStore) GetByID(_ context.Context, id int64) (*profiles.Profile, error) {
	ps.lock.Lock()
	defer ps.lock.Unlock()
	ps.getByIDCalls++

	row, ok := ps.rows[id]
	if !ok {
		return nil, nil
	}
	return row, nil
}
