package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/baechuer/contacts-api/internal/domain"
)

/*
Shared audit capture
*/

type auditEntry struct {
	action string
	fields map[string]string
}

/*
Fakes for ports
*/

type fakeUserRepo struct {
	mu sync.Mutex

	byID map[string]domain.User

	// injected errors (if set, method returns error)
	findErr   error
	createErr error
	updateErr error

	createCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]domain.User{}}
}

func (f *fakeUserRepo) put(u domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.ID] = u
}

func (f *fakeUserRepo) get(id string) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

func (f *fakeUserRepo) findBy(match func(domain.User) bool) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return domain.User{}, f.findErr
	}
	for _, u := range f.byID {
		if match(u) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrAccountNotFound()
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return f.findBy(func(u domain.User) bool { return u.Email == email })
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (domain.User, error) {
	return f.findBy(func(u domain.User) bool { return u.ID == id })
}

func (f *fakeUserRepo) FindByVerificationToken(ctx context.Context, token string) (domain.User, error) {
	return f.findBy(func(u domain.User) bool { return u.VerificationToken != "" && u.VerificationToken == token })
}

func (f *fakeUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	if f.createErr != nil {
		return domain.User{}, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.User{}, domain.ErrEmailInUse()
		}
	}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) update(id string, fn func(*domain.User)) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return domain.User{}, f.updateErr
	}
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrAccountNotFound()
	}
	fn(&u)
	f.byID[id] = u
	return u, nil
}

func (f *fakeUserRepo) UpdateSessionToken(ctx context.Context, id, token string) (domain.User, error) {
	return f.update(id, func(u *domain.User) { u.SessionToken = token })
}

func (f *fakeUserRepo) MarkVerified(ctx context.Context, id string) (domain.User, error) {
	return f.update(id, func(u *domain.User) {
		u.Verified = true
		u.VerificationToken = ""
	})
}

func (f *fakeUserRepo) UpdateSubscription(ctx context.Context, id string, tier domain.Subscription) (domain.User, error) {
	return f.update(id, func(u *domain.User) { u.Subscription = tier })
}

func (f *fakeUserRepo) UpdateAvatar(ctx context.Context, id, avatarURL string) (domain.User, error) {
	return f.update(id, func(u *domain.User) { u.AvatarURL = avatarURL })
}

// fakeHasher: hash = "hash:" + pw
type fakeHasher struct {
	hashFn   func(pw string) (string, error)
	verifyFn func(pw, hash string) (bool, error)
}

func (h *fakeHasher) Hash(pw string) (string, error) {
	if h.hashFn != nil {
		return h.hashFn(pw)
	}
	return "hash:" + pw, nil
}

func (h *fakeHasher) Verify(pw, hash string) (bool, error) {
	if h.verifyFn != nil {
		return h.verifyFn(pw, hash)
	}
	if !strings.HasPrefix(hash, "hash:") {
		return false, domain.ErrMalformedHash(errors.New("bad prefix"))
	}
	return hash == "hash:"+pw, nil
}

// fakeSigner: token = "tok.<uid>.<n>"
type fakeSigner struct {
	mu      sync.Mutex
	n       int
	issueFn func(uid string) (string, error)
}

func (s *fakeSigner) Issue(uid string) (string, error) {
	if s.issueFn != nil {
		return s.issueFn(uid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("tok.%s.%d", uid, s.n), nil
}

func (s *fakeSigner) Verify(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] != "tok" {
		return "", domain.ErrInvalidToken()
	}
	return parts[1], nil
}

type fakeVTokens struct {
	mu  sync.Mutex
	n   int
	err error
}

func (g *fakeVTokens) Generate() (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("vt-%d", g.n), nil
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *fakeMailer) all() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

// syncDispatcher runs jobs inline so tests can assert on mail side effects.
type syncDispatcher struct {
	closed bool
}

func (d *syncDispatcher) Submit(job func()) bool {
	if d.closed {
		return false
	}
	job()
	return true
}

type testDeps struct {
	users    *fakeUserRepo
	hasher   *fakeHasher
	signer   *fakeSigner
	vtokens  *fakeVTokens
	mailer   *fakeMailer
	dispatch *syncDispatcher

	auditMu sync.Mutex
	audits  []auditEntry
}

func (d *testDeps) auditActions() []string {
	d.auditMu.Lock()
	defer d.auditMu.Unlock()
	out := make([]string, 0, len(d.audits))
	for _, a := range d.audits {
		out = append(out, a.action)
	}
	return out
}

func newSvcForTest(t *testing.T) (*Service, *testDeps) {
	t.Helper()

	d := &testDeps{
		users:    newFakeUserRepo(),
		hasher:   &fakeHasher{},
		signer:   &fakeSigner{},
		vtokens:  &fakeVTokens{},
		mailer:   &fakeMailer{},
		dispatch: &syncDispatcher{},
	}

	svc := NewService(d.users, d.hasher, d.signer, d.vtokens, d.mailer, d.dispatch, Config{
		PublicBaseURL: "http://localhost:3000/",
	}).WithAudit(func(ctx context.Context, action string, fields map[string]string) {
		d.auditMu.Lock()
		defer d.auditMu.Unlock()
		d.audits = append(d.audits, auditEntry{action: action, fields: fields})
	})

	return svc, d
}

// seedUser stores a user whose password is pw.
func seedUser(d *testDeps, id, email, pw string, verified bool) domain.User {
	u := domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: "hash:" + pw,
		Verified:     verified,
		Subscription: domain.SubscriptionStarter,
	}
	if !verified {
		u.VerificationToken = "vt-" + id
	}
	d.users.put(u)
	return u
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
