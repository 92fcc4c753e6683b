package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingSecret = errors.New("JWT_SECRET is not set")
	ErrInvalidToken  = errors.New("invalid token")
)

type CustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// GenerateJWT signs an HS256 token for the actor valid for ttl.
func GenerateJWT(secret []byte, a Actor, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", ErrMissingSecret
	}

	now := time.Now()
	claims := CustomClaims{
		UserID: a.UserID.String(),
		Email:  a.Email,
		Role:   a.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseJWT validates the token and returns the actor it names.
func ParseJWT(secret []byte, tokenStr string) (Actor, error) {
	if len(secret) == 0 {
		return Actor{}, ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&CustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return secret, nil
		},
	)
	if err != nil {
		return Actor{}, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return Actor{}, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil || !claims.Role.Valid() {
		return Actor{}, ErrInvalidToken
	}

	return Actor{UserID: id, Email: claims.Email, Role: claims.Role}, nil
}
