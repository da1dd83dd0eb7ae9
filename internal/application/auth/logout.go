package auth

import (
	"context"

	"github.com/baechuer/contacts-api/internal/domain"
)

// Logout clears the stored session token. Calling it again is a no-op success.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrNotAuthorized()
	}

	if _, err := s.users.UpdateSessionToken(ctx, userID, ""); err != nil {
		if domain.Is(err, domain.CodeAccountNotFound) {
			return domain.ErrNotAuthorized()
		}
		return storeErr(err)
	}

	s.audit(ctx, "logout", map[string]string{"user_id": userID})
	return nil
}
