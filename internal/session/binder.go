// Package session maps opaque session tokens to durable user ids and back.
// The token carries the user id and nothing else, so sessions survive any
// schema change to the user record.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/stefanm/authgate/internal/models"
)

const issuer = "authgate"

// UserFinder is the single store lookup the binder needs.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type Binder struct {
	secret []byte
	expiry time.Duration
	users  UserFinder
}

func NewBinder(secret string, expiry time.Duration, users UserFinder) *Binder {
	return &Binder{
		secret: []byte(secret),
		expiry: expiry,
		users:  users,
	}
}

// Issue serializes a user into a session token. The Subject claim is the
// user id; no other session payload is permitted.
func (b *Binder) Issue(user *models.User) (string, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(b.expiry)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(b.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Resolve deserializes a token back into a user. A malformed, expired, or
// forged token, or one pointing at a deleted account, resolves to (nil, nil):
// not authenticated, never a failure. Only store outages return an error.
func (b *Binder) Resolve(ctx context.Context, tokenString string) (*models.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return b.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, nil
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, nil
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, nil
	}

	return b.users.FindByID(ctx, userID)
}
