package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/stefanm/authgate/internal/database"
	"github.com/stefanm/authgate/internal/models"
	"github.com/stefanm/authgate/internal/oauth"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with local credentials by default
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Local: models.LocalCredential{
			Email:        fmt.Sprintf("user%d@example.com", f.counter),
			PasswordHash: fmt.Sprintf("hash-%d", f.counter),
		},
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()

	var localEmail, passwordHash *string
	if user.Local.Email != "" {
		localEmail = &user.Local.Email
	}
	if user.Local.PasswordHash != "" {
		passwordHash = &user.Local.PasswordHash
	}

	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (local_email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, localEmail, passwordHash).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	for provider, ident := range user.Identities {
		err := f.db.Pool.QueryRow(ctx, `
			INSERT INTO identities (user_id, provider, provider_id, token, email, display_name)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at
		`, user.ID, ident.Provider, ident.ProviderID, ident.Token, ident.Email, ident.DisplayName).
			Scan(&ident.CreatedAt, &ident.UpdatedAt)
		if err != nil {
			t.Fatalf("failed to create identity: %v", err)
		}
		user.Identities[provider] = ident
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithLocalEmail sets the user's local email
func WithLocalEmail(email string) UserOption {
	return func(u *models.User) {
		u.Local.Email = email
	}
}

// WithPasswordHash sets the user's stored password hash
func WithPasswordHash(hash string) UserOption {
	return func(u *models.User) {
		u.Local.PasswordHash = hash
	}
}

// WithoutLocal removes the default local credentials
func WithoutLocal() UserOption {
	return func(u *models.User) {
		u.Local = models.LocalCredential{}
	}
}

// WithIdentity attaches a provider identity
func WithIdentity(provider, providerID, token string) UserOption {
	return func(u *models.User) {
		u.SetIdentity(models.Identity{
			Provider:    provider,
			ProviderID:  providerID,
			Token:       token,
			Email:       fmt.Sprintf("%s-user@example.com", provider),
			DisplayName: fmt.Sprintf("%s user", provider),
		})
	}
}

// ProviderProfile creates a test provider profile
func ProviderProfile(provider, id, email, name string) *oauth.Profile {
	return &oauth.Profile{
		Provider:    provider,
		ID:          id,
		Email:       oauth.NormalizeEmail(email),
		DisplayName: name,
		Token:       "test-access-token",
	}
}
