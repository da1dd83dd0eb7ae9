package auth

import (
	"context"
	"strings"

	"github.com/baechuer/contacts-api/internal/domain"
)

// Login authenticates a user and stores a fresh session token.
// IMPORTANT: unknown email and wrong password must be indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)

	if email == "" || password == "" {
		return LoginResult{}, domain.ErrInvalidCredentials()
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if domain.Is(err, domain.CodeAccountNotFound) {
			s.burnVerify(password)
			s.audit(ctx, "login_failed", map[string]string{"email": email, "reason": "invalid_credentials"})
			return LoginResult{}, domain.ErrInvalidCredentials()
		}
		return LoginResult{}, storeErr(err)
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		s.audit(ctx, "login_failed", map[string]string{"email": email, "reason": "invalid_credentials"})
		return LoginResult{}, domain.ErrInvalidCredentials()
	}

	// Checked after the password so the error cannot be used to discover which accounts exist.
	if !u.Verified {
		s.audit(ctx, "login_failed", map[string]string{"email": email, "reason": "email_not_verified"})
		return LoginResult{}, domain.ErrEmailNotVerified()
	}

	token, err := s.signer.Issue(u.ID)
	if err != nil {
		return LoginResult{}, domain.ErrTokenSignFailed(err)
	}

	// Overwrites any previous session token, which invalidates it.
	updated, err := s.users.UpdateSessionToken(ctx, u.ID, token)
	if err != nil {
		return LoginResult{}, storeErr(err)
	}

	s.audit(ctx, "login_success", map[string]string{"user_id": u.ID, "email": u.Email})
	return LoginResult{Token: token, User: updated}, nil
}
