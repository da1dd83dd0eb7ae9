package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/baechuer/contacts-api/internal/domain"
)

type ContactRepo struct {
	mu   sync.RWMutex
	byID map[string]domain.Contact
}

func NewContactRepo() *ContactRepo {
	return &ContactRepo{byID: make(map[string]domain.Contact)}
}

// owned must be called with r.mu held.
func (r *ContactRepo) owned(ownerID, id string) (domain.Contact, bool) {
	c, ok := r.byID[id]
	if !ok || c.OwnerID != ownerID {
		return domain.Contact{}, false
	}
	return c, true
}

// List returns the owner's contacts ordered by creation time, then id.
func (r *ContactRepo) List(ctx context.Context, ownerID string, f domain.ContactFilter) ([]domain.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Contact, 0)
	for _, c := range r.byID {
		if c.OwnerID != ownerID {
			continue
		}
		if f.Favorite != nil && c.Favorite != *f.Favorite {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	if f.Limit <= 0 {
		return out, nil
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * f.Limit
	if start >= len(out) {
		return []domain.Contact{}, nil
	}
	end := start + f.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (r *ContactRepo) Get(ctx context.Context, ownerID, id string) (domain.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.owned(ownerID, id)
	if !ok {
		return domain.Contact{}, domain.ErrContactNotFound()
	}
	return c, nil
}

func (r *ContactRepo) Create(ctx context.Context, c domain.Contact) (domain.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" {
		return domain.Contact{}, domain.ErrMissingField("id")
	}
	r.byID[c.ID] = c
	return c, nil
}

func (r *ContactRepo) Update(ctx context.Context, c domain.Contact) (domain.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.owned(c.OwnerID, c.ID)
	if !ok {
		return domain.Contact{}, domain.ErrContactNotFound()
	}
	c.CreatedAt = prev.CreatedAt
	r.byID[c.ID] = c
	return c, nil
}

func (r *ContactRepo) Delete(ctx context.Context, ownerID, id string) (domain.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.owned(ownerID, id)
	if !ok {
		return domain.Contact{}, domain.ErrContactNotFound()
	}
	delete(r.byID, id)
	return c, nil
}

func (r *ContactRepo) SetFavorite(ctx context.Context, ownerID, id string, favorite bool) (domain.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.owned(ownerID, id)
	if !ok {
		return domain.Contact{}, domain.ErrContactNotFound()
	}
	c.Favorite = favorite
	r.byID[id] = c
	return c, nil
}
