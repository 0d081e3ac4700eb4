package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Provider names known to the gateway. Derived email lookup prefers them in
// this order; unknown providers come after, sorted by name.
const (
	ProviderFacebook = "facebook"
	ProviderTwitter  = "twitter"
	ProviderGoogle   = "google"
	ProviderLinkedIn = "linkedin"
	ProviderGitHub   = "github"
)

var emailPriority = []string{
	ProviderFacebook,
	ProviderTwitter,
	ProviderGoogle,
	ProviderLinkedIn,
	ProviderGitHub,
}

// LocalCredential is the email+password pair of an account. Both fields are
// empty when the account has no local login.
type LocalCredential struct {
	Email        string `json:"email,omitempty"`
	PasswordHash string `json:"-"`
}

// Identity is one linked provider account. A user holds at most one identity
// per provider, and a (provider, provider_id) pair belongs to at most one user.
type Identity struct {
	Provider    string    `json:"provider"`
	ProviderID  string    `json:"provider_id"`
	Token       string    `json:"-"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type User struct {
	ID         uuid.UUID           `json:"id"`
	Local      LocalCredential     `json:"local"`
	Identities map[string]Identity `json:"identities,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// Identity returns the linked identity for a provider, or nil.
func (u *User) Identity(provider string) *Identity {
	if u.Identities == nil {
		return nil
	}
	if ident, ok := u.Identities[provider]; ok {
		return &ident
	}
	return nil
}

// SetIdentity attaches or overwrites the identity for its provider.
func (u *User) SetIdentity(ident Identity) {
	if u.Identities == nil {
		u.Identities = make(map[string]Identity)
	}
	u.Identities[ident.Provider] = ident
}

// RemoveIdentity drops the identity for a provider, if present.
func (u *User) RemoveIdentity(provider string) {
	delete(u.Identities, provider)
}

// HasLocal reports whether the account has local credentials attached.
func (u *User) HasLocal() bool {
	return u.Local.Email != ""
}

// Email returns the first non-empty email across provider identities, checking
// facebook, twitter, google, linkedin, github and then any remaining providers
// in name order. It is a derived projection, not a stored field, and returns
// "" when no provider supplied an email.
func (u *User) Email() string {
	for _, provider := range emailPriority {
		if ident, ok := u.Identities[provider]; ok && ident.Email != "" {
			return ident.Email
		}
	}
	var rest []string
	for provider := range u.Identities {
		if !isPriorityProvider(provider) {
			rest = append(rest, provider)
		}
	}
	sort.Strings(rest)
	for _, provider := range rest {
		if email := u.Identities[provider].Email; email != "" {
			return email
		}
	}
	return ""
}

func isPriorityProvider(provider string) bool {
	for _, p := range emailPriority {
		if p == provider {
			return true
		}
	}
	return false
}
