package auth

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/baechuer/contacts-api/internal/domain"
)

// Authorize resolves a bearer header to the account holding that session.
// Every failure is NotAuthorized, except store outages which are reported as such.
func (s *Service) Authorize(ctx context.Context, header string) (Identity, error) {
	raw, ok := parseBearer(header)
	if !ok {
		return Identity{}, domain.ErrNotAuthorized()
	}

	userID, err := s.signer.Verify(raw)
	if err != nil {
		return Identity{}, domain.ErrNotAuthorized()
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if domain.Is(err, domain.CodeAccountNotFound) {
			return Identity{}, domain.ErrNotAuthorized()
		}
		return Identity{}, storeErr(err)
	}

	// A valid signature is not enough: the token must be the one currently stored.
	if !u.HasSession() || subtle.ConstantTimeCompare([]byte(u.SessionToken), []byte(raw)) != 1 {
		return Identity{}, domain.ErrNotAuthorized()
	}

	return Identity{User: u, Token: raw}, nil
}

// parseBearer accepts "Bearer <token>" with a case-insensitive scheme.
func parseBearer(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" || strings.ContainsAny(tok, " \t") {
		return "", false
	}
	return tok, true
}
