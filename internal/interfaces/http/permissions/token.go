package permissions

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for malformed, expired or badly signed
	// tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUnknownRole ...
	ErrUnknownRole = errors.New("unknown role")
)

// Claims identify the caller of the API.
type Claims struct {
	Address string `json:"address"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// NewToken returns a token for the given address and role signed with the
// secret.
func NewToken(
	secret []byte, address, role string, expiry time.Duration,
) (string, error) {
	if len(secret) <= 0 {
		return "", fmt.Errorf("missing secret")
	}
	if len(address) <= 0 {
		return "", fmt.Errorf("missing address")
	}
	if !IsValidRole(role) {
		return "", ErrUnknownRole
	}

	now := time.Now()
	claims := &Claims{
		Address: address,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   address,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ParseToken validates the given token and returns its claims.
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf(
					"unexpected signing method: %v", token.Header["alg"],
				)
			}
			return secret, nil
		},
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if len(claims.Address) <= 0 || !IsValidRole(claims.Role) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
