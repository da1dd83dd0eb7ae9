package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/baechuer/contacts-api/internal/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// ---------- helpers ----------

func (r *UserRepo) scanUserRow(row *sql.Row) (userRow, error) {
	var ur userRow
	err := row.Scan(
		&ur.ID,
		&ur.Email,
		&ur.PasswordHash,
		&ur.SessionToken,
		&ur.Verified,
		&ur.VerificationToken,
		&ur.Subscription,
		&ur.AvatarURL,
		&ur.CreatedAt,
	)
	return ur, err
}

// one runs a single-row query and maps the result onto the AccountStore contract.
func (r *UserRepo) one(ctx context.Context, q string, args ...any) (domain.User, error) {
	ur, err := r.scanUserRow(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrAccountNotFound()
		}
		return domain.User{}, domain.ErrStoreUnavailable(err)
	}
	return toDomainUser(ur), nil
}

// ---------- auth.AccountStore ----------

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	if email == "" {
		return domain.User{}, domain.ErrAccountNotFound()
	}
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1;`, email)
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (domain.User, error) {
	// a non-uuid id can never match and would make postgres raise a cast error
	if uuid.Validate(id) != nil {
		return domain.User{}, domain.ErrAccountNotFound()
	}
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1;`, id)
}

func (r *UserRepo) FindByVerificationToken(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, domain.ErrAccountNotFound()
	}
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE verification_token = $1 LIMIT 1;`, token)
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	if u.ID == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}
	if u.Email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}
	if u.PasswordHash == "" {
		return domain.User{}, domain.ErrMissingField("password_hash")
	}
	if u.Subscription == "" {
		u.Subscription = domain.DefaultSubscription
	}

	const q = `
INSERT INTO users (id, email, password_hash, session_token, verified, verification_token, subscription, avatar_url)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING ` + userColumns + `;`

	ur, err := r.scanUserRow(r.db.QueryRowContext(ctx, q,
		u.ID, u.Email, u.PasswordHash, nullable(u.SessionToken),
		u.Verified, nullable(u.VerificationToken), string(u.Subscription), u.AvatarURL,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrEmailInUse()
		}
		return domain.User{}, domain.ErrStoreUnavailable(err)
	}
	return toDomainUser(ur), nil
}

func (r *UserRepo) UpdateSessionToken(ctx context.Context, id, token string) (domain.User, error) {
	if uuid.Validate(id) != nil {
		return domain.User{}, domain.ErrAccountNotFound()
	}
	return r.one(ctx,
		`UPDATE users SET session_token = $2 WHERE id = $1 RETURNING `+userColumns+`;`,
		id, nullable(token),
	)
}

func (r *UserRepo) MarkVerified(ctx context.Context, id string) (domain.User, error) {
	if uuid.Validate(id) != nil {
		return domain.User{}, domain.ErrAccountNotFound()
	}
	return r.one(ctx,
		`UPDATE users SET verified = TRUE, verification_token = NULL WHERE id = $1 RETURNING `+userColumns+`;`,
		id,
	)
}

func (r *UserRepo) UpdateSubscription(ctx context.Context, id string, tier domain.Subscription) (domain.User, error) {
	if uuid.Validate(id) != nil {
		return domain.User{}, domain.ErrAccountNotFound()
	}
	return r.one(ctx,
		`UPDATE users SET subscription = $2 WHERE id = $1 RETURNING `+userColumns+`;`,
		id, string(tier),
	)
}

func (r *UserRepo) UpdateAvatar(ctx context.Context, id, avatarURL string) (domain.User, error) {
	if uuid.Validate(id) != nil {
		return domain.User{}, domain.ErrAccountNotFound()
	}
	return r.one(ctx,
		`UPDATE users SET avatar_url = $2 WHERE id = $1 RETURNING `+userColumns+`;`,
		id, avatarURL,
	)
}
