package rest

import (
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

const accessTokenType = "access"

type TokenClaims struct {
	UserID string `json:"sub"`
	Type   string `json:"typ"`
	Exp    int64  `json:"exp"`
}

// IssueAccessToken signs an access token for userID the way the identity
// service does. The huddle service only verifies tokens; this exists for
// local tooling and tests.
func IssueAccessToken(secret string, userID uuid.UUID, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
		"typ": accessTokenType,
	})

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}
