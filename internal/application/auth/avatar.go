package auth

import (
	"context"
	"strings"

	"github.com/baechuer/contacts-api/internal/domain"
)

// UpdateAvatar stores an already-uploaded avatar URL on the caller's account.
// Any store failure, including an account that vanished after Authorize,
// is reported as NotAuthorized; the cause is only logged.
func (s *Service) UpdateAvatar(ctx context.Context, userID, avatarURL string) (domain.User, error) {
	avatarURL = strings.TrimSpace(avatarURL)
	if avatarURL == "" {
		return domain.User{}, domain.ErrMissingField("avatarURL")
	}

	u, err := s.users.UpdateAvatar(ctx, userID, avatarURL)
	if err != nil {
		if !domain.Is(err, domain.CodeAccountNotFound) {
			s.lg.Error().Err(err).Str("user_id", userID).Msg("avatar update failed")
		}
		return domain.User{}, domain.ErrNotAuthorized()
	}
	return u, nil
}
