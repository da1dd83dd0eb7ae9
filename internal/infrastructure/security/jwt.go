package security

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baechuer/contacts-api/internal/domain"
)

// JWTSigner issues HS256 bearer tokens carrying the user id.
// ttl <= 0 means tokens never expire; the stored session token is
// the real source of truth for whether a token is still usable.
type JWTSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTSigner(secret string, ttl time.Duration) *JWTSigner {
	return &JWTSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

type sessionClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) Issue(userID string) (string, error) {
	// jti makes two tokens issued within the same second differ.
	var nonce [16]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", domain.ErrRandomFailed(err)
	}

	now := s.now()
	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			ID:       hex.EncodeToString(nonce[:]),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

// Verify returns the user id embedded in token.
// Bad signature, bad structure, wrong alg and expiry are all ErrInvalidToken.
func (s *JWTSigner) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		// prevent alg confusion
		if t.Method != jwt.SigningMethodHS256 {
			return nil, domain.ErrInvalidToken()
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", domain.ErrInvalidToken()
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return "", domain.ErrInvalidToken()
	}
	return claims.UserID, nil
}
