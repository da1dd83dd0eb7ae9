package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/baechuer/contacts-api/internal/domain"
)

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.ErrInvalidField("password", "too long")
		}
		return "", domain.ErrHashFailed(err)
	}
	return string(b), nil
}

// Verify reports whether password matches hash.
// A mismatch is (false, nil); an unparseable hash is ErrMalformedHash.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, domain.ErrMalformedHash(err)
	}
}
