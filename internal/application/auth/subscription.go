package auth

import (
	"context"
	"strings"

	"github.com/baechuer/contacts-api/internal/domain"
)

func (s *Service) UpdateSubscription(ctx context.Context, userID, tier string) (domain.User, error) {
	tier = strings.TrimSpace(tier)
	if !domain.IsValidSubscription(tier) {
		return domain.User{}, domain.ErrInvalidSubscriptionTier(tier)
	}

	u, err := s.users.UpdateSubscription(ctx, userID, domain.Subscription(tier))
	if err != nil {
		return domain.User{}, storeErr(err)
	}

	s.audit(ctx, "subscription_changed", map[string]string{"user_id": userID, "subscription": tier})
	return u, nil
}
