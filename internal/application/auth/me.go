package auth

import (
	"context"

	"github.com/baechuer/contacts-api/internal/domain"
)

func (s *Service) Current(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if domain.Is(err, domain.CodeAccountNotFound) {
			return domain.User{}, domain.ErrNotAuthorized()
		}
		return domain.User{}, storeErr(err)
	}
	return u, nil
}
