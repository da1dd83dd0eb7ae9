package contacts

import (
	"context"

	"github.com/baechuer/contacts-api/internal/domain"
)

/*
ContactStore
------------
Every lookup and mutation is scoped by owner id. A contact that exists but
belongs to someone else is reported exactly like a missing one
(domain.ErrContactNotFound).
*/
type ContactStore interface {
	List(ctx context.Context, ownerID string, f domain.ContactFilter) ([]domain.Contact, error)
	Get(ctx context.Context, ownerID, id string) (domain.Contact, error)
	Create(ctx context.Context, c domain.Contact) (domain.Contact, error)
	Update(ctx context.Context, c domain.Contact) (domain.Contact, error)
	Delete(ctx context.Context, ownerID, id string) (domain.Contact, error)
	SetFavorite(ctx context.Context, ownerID, id string, favorite bool) (domain.Contact, error)
}
