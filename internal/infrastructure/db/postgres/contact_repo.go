package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/contacts-api/internal/domain"
)

type ContactRepo struct {
	db *sql.DB
}

func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{db: db}
}

const contactColumns = `id, owner_id, name, email, phone, favorite, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(s rowScanner) (domain.Contact, error) {
	var c domain.Contact
	err := s.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone, &c.Favorite, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *ContactRepo) one(ctx context.Context, q string, args ...any) (domain.Contact, error) {
	c, err := scanContact(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Contact{}, domain.ErrContactNotFound()
		}
		return domain.Contact{}, domain.ErrStoreUnavailable(err)
	}
	return c, nil
}

// validIDs guards the uuid columns; anything else cannot exist.
func validIDs(ids ...string) bool {
	for _, id := range ids {
		if uuid.Validate(id) != nil {
			return false
		}
	}
	return true
}

func (r *ContactRepo) List(ctx context.Context, ownerID string, f domain.ContactFilter) ([]domain.Contact, error) {
	if !validIDs(ownerID) {
		return []domain.Contact{}, nil
	}

	var fav sql.NullBool
	if f.Favorite != nil {
		fav = sql.NullBool{Bool: *f.Favorite, Valid: true}
	}
	limit := sql.NullInt64{}
	offset := 0
	if f.Limit > 0 {
		limit = sql.NullInt64{Int64: int64(f.Limit), Valid: true}
		if f.Page > 1 {
			offset = (f.Page - 1) * f.Limit
		}
	}

	const q = `
SELECT ` + contactColumns + `
FROM contacts
WHERE owner_id = $1 AND ($2::boolean IS NULL OR favorite = $2)
ORDER BY created_at, id
LIMIT $3 OFFSET $4;
`
	rows, err := r.db.QueryContext(ctx, q, ownerID, fav, limit, offset)
	if err != nil {
		return nil, domain.ErrStoreUnavailable(err)
	}
	defer rows.Close()

	out := make([]domain.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, domain.ErrStoreUnavailable(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrStoreUnavailable(err)
	}
	return out, nil
}

func (r *ContactRepo) Get(ctx context.Context, ownerID, id string) (domain.Contact, error) {
	if !validIDs(ownerID, id) {
		return domain.Contact{}, domain.ErrContactNotFound()
	}
	return r.one(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND owner_id = $2;`, id, ownerID)
}

func (r *ContactRepo) Create(ctx context.Context, c domain.Contact) (domain.Contact, error) {
	if !validIDs(c.ID, c.OwnerID) {
		return domain.Contact{}, domain.ErrInvalidField("id", "not a uuid")
	}
	const q = `
INSERT INTO contacts (id, owner_id, name, email, phone, favorite, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING ` + contactColumns + `;`
	return r.one(ctx, q, c.ID, c.OwnerID, c.Name, c.Email, c.Phone, c.Favorite, c.CreatedAt, c.UpdatedAt)
}

func (r *ContactRepo) Update(ctx context.Context, c domain.Contact) (domain.Contact, error) {
	if !validIDs(c.ID, c.OwnerID) {
		return domain.Contact{}, domain.ErrContactNotFound()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}
	const q = `
UPDATE contacts
SET name = $3, email = $4, phone = $5, favorite = $6, updated_at = $7
WHERE id = $1 AND owner_id = $2
RETURNING ` + contactColumns + `;`
	return r.one(ctx, q, c.ID, c.OwnerID, c.Name, c.Email, c.Phone, c.Favorite, c.UpdatedAt)
}

func (r *ContactRepo) Delete(ctx context.Context, ownerID, id string) (domain.Contact, error) {
	if !validIDs(ownerID, id) {
		return domain.Contact{}, domain.ErrContactNotFound()
	}
	return r.one(ctx, `DELETE FROM contacts WHERE id = $1 AND owner_id = $2 RETURNING `+contactColumns+`;`, id, ownerID)
}

func (r *ContactRepo) SetFavorite(ctx context.Context, ownerID, id string, favorite bool) (domain.Contact, error) {
	if !validIDs(ownerID, id) {
		return domain.Contact{}, domain.ErrContactNotFound()
	}
	const q = `
UPDATE contacts SET favorite = $3, updated_at = now()
WHERE id = $1 AND owner_id = $2
RETURNING ` + contactColumns + `;`
	return r.one(ctx, q, id, ownerID, favorite)
}
