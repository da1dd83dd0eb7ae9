package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/baechuer/contacts-api/internal/domain"
)

// Register creates an unverified account and fires the verification mail.
// A mail failure never rolls the account back; the user can ask for a resend.
func (s *Service) Register(ctx context.Context, email, password string) (RegisterResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return RegisterResult{}, domain.ErrInvalidField("email/password", "empty")
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		s.audit(ctx, "register_conflict", map[string]string{"email": email})
		return RegisterResult{}, domain.ErrEmailInUse()
	case !domain.Is(err, domain.CodeAccountNotFound):
		return RegisterResult{}, storeErr(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return RegisterResult{}, domain.ErrHashFailed(err)
	}

	vtoken, err := s.vtokens.Generate()
	if err != nil {
		return RegisterResult{}, domain.ErrRandomFailed(err)
	}

	u := domain.User{
		ID:                uuid.NewString(),
		Email:             email,
		PasswordHash:      hash,
		Verified:          false,
		VerificationToken: vtoken,
		Subscription:      domain.DefaultSubscription,
	}

	// Create still reports EmailInUse if a concurrent register won the race.
	created, err := s.users.Create(ctx, u)
	if err != nil {
		return RegisterResult{}, storeErr(err)
	}

	s.audit(ctx, "register", map[string]string{"user_id": created.ID, "email": created.Email})
	s.sendVerification(ctx, created.Email, created.VerificationToken)

	return RegisterResult{User: created, Subscription: created.Subscription}, nil
}
