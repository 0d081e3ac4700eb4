package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/stefanm/authgate/internal/models"
	"github.com/stefanm/authgate/internal/oauth"
)

// ResolverInterface defines the methods used by handlers from resolver.Resolver
type ResolverInterface interface {
	AuthenticateLocal(ctx context.Context, email, password string, current *models.User) (*models.User, error)
	SignupLocal(ctx context.Context, email, password string, current *models.User) (*models.User, error)
	AuthenticateProvider(ctx context.Context, profile *oauth.Profile, current *models.User) (*models.User, error)
	UnlinkLocal(ctx context.Context, user *models.User) error
	UnlinkProvider(ctx context.Context, user *models.User, provider string) error
	DeleteAccount(ctx context.Context, user *models.User) error
}

// SessionBinderInterface defines the methods used by handlers from session.Binder
type SessionBinderInterface interface {
	Issue(user *models.User) (string, error)
}

// UserFinderInterface defines the store lookup the provider-link callback needs
type UserFinderInterface interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}
