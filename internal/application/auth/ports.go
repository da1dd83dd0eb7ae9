package auth

import (
	"context"

	"github.com/baechuer/contacts-api/internal/domain"
)

/*
AccountStore
------------
Persistence port for user accounts.
Only describes WHAT the auth core needs, not HOW it's stored.

Lookups return domain.ErrAccountNotFound when nothing matches.
Create returns domain.ErrEmailInUse when the email is taken.
Every call is an atomic point operation on a single account record;
failures of the backing engine surface as domain.ErrStoreUnavailable.
*/
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
	FindByVerificationToken(ctx context.Context, token string) (domain.User, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)

	// UpdateSessionToken overwrites the session token; "" clears it.
	UpdateSessionToken(ctx context.Context, id, token string) (domain.User, error)
	// MarkVerified sets verified=true and clears the verification token.
	MarkVerified(ctx context.Context, id string) (domain.User, error)
	UpdateSubscription(ctx context.Context, id string, tier domain.Subscription) (domain.User, error)
	UpdateAvatar(ctx context.Context, id, avatarURL string) (domain.User, error)
}

/*
PasswordHasher
--------------
Abstracts the adaptive one-way function.
Verify returns (false, nil) on mismatch and domain.ErrMalformedHash
only when the stored hash cannot be parsed.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

/*
TokenIssuer
-----------
Issues and verifies bearer tokens bound to a user id.
Verify collapses every failure into domain.ErrInvalidToken.
*/
type TokenIssuer interface {
	Issue(userID string) (string, error)
	Verify(token string) (userID string, err error)
}

// VerificationTokenGenerator produces unguessable one-time email tokens.
type VerificationTokenGenerator interface {
	Generate() (string, error)
}

/*
Mailer
------
Outbound mail collaborator (SMTP, message queue, or log sink).
The core never waits on it for its own success determination.
*/
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Dispatcher runs fire-and-forget jobs off the request path.
// Submit reports false when the job was dropped (e.g. during shutdown).
type Dispatcher interface {
	Submit(job func()) bool
}
