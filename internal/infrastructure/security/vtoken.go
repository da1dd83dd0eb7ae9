package security

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/baechuer/contacts-api/internal/domain"
)

// RandomTokenGenerator issues URL-safe one-time tokens for email links.
type RandomTokenGenerator struct {
	size int
}

func NewRandomTokenGenerator() *RandomTokenGenerator {
	return &RandomTokenGenerator{size: 32}
}

func (g *RandomTokenGenerator) Generate() (string, error) {
	b := make([]byte, g.size)
	if _, err := rand.Read(b); err != nil {
		return "", domain.ErrRandomFailed(err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
