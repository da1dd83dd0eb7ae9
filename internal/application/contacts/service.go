package contacts

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/contacts-api/internal/domain"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Service struct {
	store ContactStore
	now   func() time.Time
}

func NewService(store ContactStore) *Service {
	return &Service{store: store, now: time.Now}
}

// Input carries user-supplied fields. Nil pointers mean "not provided".
type Input struct {
	Name     *string
	Email    *string
	Phone    *string
	Favorite *bool
}

func (in Input) empty() bool {
	return in.Name == nil && in.Email == nil && in.Phone == nil && in.Favorite == nil
}

func (s *Service) List(ctx context.Context, ownerID string, f domain.ContactFilter) ([]domain.Contact, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	out, err := s.store.List(ctx, ownerID, f)
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (domain.Contact, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Contact{}, domain.ErrContactNotFound()
	}
	c, err := s.store.Get(ctx, ownerID, id)
	return c, storeErr(err)
}

func (s *Service) Create(ctx context.Context, ownerID string, in Input) (domain.Contact, error) {
	name, email, phone := trimmed(in.Name), trimmed(in.Email), trimmed(in.Phone)
	switch {
	case name == "":
		return domain.Contact{}, domain.ErrMissingField("name")
	case email == "":
		return domain.Contact{}, domain.ErrMissingField("email")
	case phone == "":
		return domain.Contact{}, domain.ErrMissingField("phone")
	}

	now := s.now().UTC()
	c := domain.Contact{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		Email:     email,
		Phone:     phone,
		Favorite:  in.Favorite != nil && *in.Favorite,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.store.Create(ctx, c)
	return created, storeErr(err)
}

// Update applies the provided fields on top of the stored contact.
func (s *Service) Update(ctx context.Context, ownerID, id string, in Input) (domain.Contact, error) {
	if in.empty() {
		return domain.Contact{}, domain.ErrMissingField("name/email/phone/favorite")
	}

	c, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return domain.Contact{}, err
	}

	if in.Name != nil {
		if c.Name = trimmed(in.Name); c.Name == "" {
			return domain.Contact{}, domain.ErrInvalidField("name", "empty")
		}
	}
	if in.Email != nil {
		if c.Email = trimmed(in.Email); c.Email == "" {
			return domain.Contact{}, domain.ErrInvalidField("email", "empty")
		}
	}
	if in.Phone != nil {
		if c.Phone = trimmed(in.Phone); c.Phone == "" {
			return domain.Contact{}, domain.ErrInvalidField("phone", "empty")
		}
	}
	if in.Favorite != nil {
		c.Favorite = *in.Favorite
	}
	c.UpdatedAt = s.now().UTC()

	updated, err := s.store.Update(ctx, c)
	return updated, storeErr(err)
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) (domain.Contact, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Contact{}, domain.ErrContactNotFound()
	}
	c, err := s.store.Delete(ctx, ownerID, id)
	return c, storeErr(err)
}

func (s *Service) SetFavorite(ctx context.Context, ownerID, id string, favorite *bool) (domain.Contact, error) {
	if favorite == nil {
		return domain.Contact{}, domain.ErrMissingField("favorite")
	}
	if strings.TrimSpace(id) == "" {
		return domain.Contact{}, domain.ErrContactNotFound()
	}
	c, err := s.store.SetFavorite(ctx, ownerID, id, *favorite)
	return c, storeErr(err)
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if domain.CodeOf(err) != "" {
		return err
	}
	return domain.ErrStoreUnavailable(err)
}
