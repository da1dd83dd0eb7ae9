package memory

import (
	"context"
	"sync"
	"time"

	"github.com/baechuer/contacts-api/internal/domain"
)

// UserRepo is an in-process AccountStore for dev and tests.
// The mutex makes every call an atomic point operation.
type UserRepo struct {
	mu       sync.RWMutex
	byID     map[string]domain.User
	byEmail  map[string]string // email -> userID
	byVToken map[string]string // verification token -> userID
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:     make(map[string]domain.User),
		byEmail:  make(map[string]string),
		byVToken: make(map[string]string),
	}
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrAccountNotFound()
	}
	return r.byID[id], nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, domain.ErrAccountNotFound()
	}
	return u, nil
}

func (r *UserRepo) FindByVerificationToken(ctx context.Context, token string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byVToken[token]
	if !ok || token == "" {
		return domain.User{}, domain.ErrAccountNotFound()
	}
	return r.byID[id], nil
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[u.Email]; exists {
		return domain.User{}, domain.ErrEmailInUse()
	}
	if u.ID == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}
	if u.Subscription == "" {
		u.Subscription = domain.DefaultSubscription
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	if u.VerificationToken != "" {
		r.byVToken[u.VerificationToken] = u.ID
	}
	return u, nil
}

func (r *UserRepo) update(id string, fn func(u *domain.User)) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, domain.ErrAccountNotFound()
	}
	fn(&u)
	r.byID[id] = u
	return u, nil
}

func (r *UserRepo) UpdateSessionToken(ctx context.Context, id, token string) (domain.User, error) {
	return r.update(id, func(u *domain.User) { u.SessionToken = token })
}

func (r *UserRepo) MarkVerified(ctx context.Context, id string) (domain.User, error) {
	return r.update(id, func(u *domain.User) {
		delete(r.byVToken, u.VerificationToken)
		u.Verified = true
		u.VerificationToken = ""
	})
}

func (r *UserRepo) UpdateSubscription(ctx context.Context, id string, tier domain.Subscription) (domain.User, error) {
	return r.update(id, func(u *domain.User) { u.Subscription = tier })
}

func (r *UserRepo) UpdateAvatar(ctx context.Context, id, avatarURL string) (domain.User, error) {
	return r.update(id, func(u *domain.User) { u.AvatarURL = avatarURL })
}
