package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
)

// Profile is the normalized result of a provider callback. Emails are
// lowercased here, at construction time; nothing downstream re-normalizes.
type Profile struct {
	Provider    string
	ID          string
	Email       string
	DisplayName string
	Token       string
}

type Provider interface {
	GetConsentURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*Profile, error)
	Name() string
}

func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// NormalizeEmail lowercases and trims an email address. Applied once when an
// authentication signal is built, never repeated downstream.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
