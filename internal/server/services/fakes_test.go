package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/democracy365/internal/common"
	"github.com/dmitrijs2005/democracy365/internal/dbx"
	"github.com/dmitrijs2005/democracy365/internal/server/models"
	"github.com/dmitrijs2005/democracy365/internal/server/notify"
	"github.com/dmitrijs2005/democracy365/internal/server/repositories/procedures"
	"github.com/dmitrijs2005/democracy365/internal/server/repositories/users"
)

// --- connection ---

type fakeAcquirer struct {
	db    *sql.DB
	err   error
	calls int
}

func (f *fakeAcquirer) Acquire(ctx context.Context) (*sql.DB, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.db, nil
}

// --- users repository ---

type fakeUsersRepo struct {
	mu      sync.Mutex
	nextID  int64
	byEmail map[string]*models.User
	creds   map[int64]*models.Credentials

	getErr    error
	createErr error
	// raceOnCreate simulates a concurrent insert winning the race: the row
	// appears but Create reports a duplicate.
	raceOnCreate bool

	getCalls    int
	createCalls int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{
		nextID:  100,
		byEmail: map[string]*models.User{},
		creds:   map[int64]*models.Credentials{},
	}
}

func (f *fakeUsersRepo) insert(email, code string, ts time.Time) *models.User {
	f.nextID++
	u := &models.User{ID: f.nextID, EmailAddress: email, SigninCode: code}
	f.byEmail[email] = u
	f.creds[u.ID] = &models.Credentials{SigninCode: code, SignoutTS: ts}
	return u
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.E(common.KindNotFound, "fake.GetByEmail", nil)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) GetCredentials(ctx context.Context, userID int64) (*models.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.creds[userID]
	if !ok {
		return nil, common.E(common.KindNotFound, "fake.GetCredentials", nil)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeUsersRepo) Create(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	if f.raceOnCreate {
		f.insert(email, "RACE22", time.Now())
		return common.E(common.KindDuplicateIdentity, "fake.Create", nil)
	}
	if _, ok := f.byEmail[email]; ok {
		return common.E(common.KindDuplicateIdentity, "fake.Create", nil)
	}
	f.insert(email, "NEW234", time.Now())
	return nil
}

func (f *fakeUsersRepo) setCredentials(userID int64, code string, ts time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds[userID] = &models.Credentials{SigninCode: code, SignoutTS: ts}
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	// handles records what each Users call was bound to.
	handles []dbx.DBTX
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository {
	m.handles = append(m.handles, db)
	return m.u
}

func (m *fakeRepoManager) Procedures(db dbx.DBTX) procedures.Repository {
	return nil
}

// --- notifier ---

type fakeNotifier struct {
	sent []notify.Message
	err  error
}

func (f *fakeNotifier) Send(ctx context.Context, msg notify.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

// --- signer ---

type fakeSigner struct {
	signCalls   int
	verifyCalls int
	signErr     error
	verifyErr   error
}

// The fake "signature" is the message itself, reversed.
func (f *fakeSigner) Sign(ctx context.Context, keyID string, msg []byte) ([]byte, error) {
	f.signCalls++
	if f.signErr != nil {
		return nil, f.signErr
	}
	return reverse(msg), nil
}

func (f *fakeSigner) Verify(ctx context.Context, keyID string, msg, sig []byte) (bool, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return false, f.verifyErr
	}
	return string(reverse(msg)) == string(sig), nil
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}

var errBoom = errors.New("boom")
