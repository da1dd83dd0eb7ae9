package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/baechuer/contacts-api/internal/domain"
)

// RequestVerification resends the verification mail with the stored token.
// The token is never regenerated, so links from earlier mails keep working.
func (s *Service) RequestVerification(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.ErrMissingField("email")
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return storeErr(err)
	}

	if u.Verified {
		return domain.ErrAlreadyVerified()
	}
	if u.VerificationToken == "" {
		return domain.ErrInternal(errors.New("unverified account has no verification token"))
	}

	s.audit(ctx, "verification_requested", map[string]string{"user_id": u.ID, "email": u.Email})
	s.sendVerification(ctx, u.Email, u.VerificationToken)
	return nil
}

// RedeemVerification marks the token's owner verified and consumes the token.
// A consumed token is no longer found, so a second call is AccountNotFound.
func (s *Service) RedeemVerification(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ErrAccountNotFound()
	}

	u, err := s.users.FindByVerificationToken(ctx, token)
	if err != nil {
		return storeErr(err)
	}

	if _, err := s.users.MarkVerified(ctx, u.ID); err != nil {
		return storeErr(err)
	}

	s.audit(ctx, "email_verified", map[string]string{"user_id": u.ID, "email": u.Email})
	return nil
}
