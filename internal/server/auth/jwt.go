// Package auth signs and verifies the session token carried in the
// podmate_session cookie.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/podmate/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims binds a browser to one server-side session and its user.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
	UserID    string `json:"uid"`
}

func GenerateSessionToken(sessionID, userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		SessionID: sessionID,
		UserID:    userID,
	})

	return token.SignedString(secretKey)
}

// ParseSessionToken validates tokenString and returns its claims.
// Expired tokens yield common.ErrTokenExpired; anything else that fails
// validation yields common.ErrInvalidToken.
func ParseSessionToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.SessionID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
