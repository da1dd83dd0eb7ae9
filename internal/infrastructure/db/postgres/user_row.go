package postgres

import (
	"database/sql"
	"time"

	"github.com/baechuer/contacts-api/internal/domain"
)

type userRow struct {
	ID                string
	Email             string
	PasswordHash      string
	SessionToken      sql.NullString
	Verified          bool
	VerificationToken sql.NullString
	Subscription      string
	AvatarURL         string
	CreatedAt         time.Time
}

const userColumns = `id, email, password_hash, session_token, verified, verification_token, subscription, avatar_url, created_at`

func toDomainUser(ur userRow) domain.User {
	return domain.User{
		ID:                ur.ID,
		Email:             ur.Email,
		PasswordHash:      ur.PasswordHash,
		SessionToken:      ur.SessionToken.String,
		Verified:          ur.Verified,
		VerificationToken: ur.VerificationToken.String,
		Subscription:      domain.Subscription(ur.Subscription),
		AvatarURL:         ur.AvatarURL,
		CreatedAt:         ur.CreatedAt,
	}
}

// nullable maps the domain's "" to SQL NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
