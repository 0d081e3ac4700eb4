package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/stefanm/authgate/internal/models"
	"github.com/stefanm/authgate/internal/oauth"
)

// MockResolver mocks the identity resolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) AuthenticateLocal(ctx context.Context, email, password string, current *models.User) (*models.User, error) {
	args := m.Called(ctx, email, password, current)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockResolver) SignupLocal(ctx context.Context, email, password string, current *models.User) (*models.User, error) {
	args := m.Called(ctx, email, password, current)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockResolver) AuthenticateProvider(ctx context.Context, profile *oauth.Profile, current *models.User) (*models.User, error) {
	args := m.Called(ctx, profile, current)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockResolver) UnlinkLocal(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockResolver) UnlinkProvider(ctx context.Context, user *models.User, provider string) error {
	args := m.Called(ctx, user, provider)
	return args.Error(0)
}

func (m *MockResolver) DeleteAccount(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockSessionBinder mocks the session binder
type MockSessionBinder struct {
	mock.Mock
}

func (m *MockSessionBinder) Issue(user *models.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

func (m *MockSessionBinder) Resolve(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockUserFinder mocks the store lookup used by the provider-link callback
type MockUserFinder struct {
	mock.Mock
}

func (m *MockUserFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockOAuthProvider mocks an OAuth provider
type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) GetConsentURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth.Profile, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.Profile), args.Error(1)
}

func (m *MockOAuthProvider) Name() string {
	args := m.Called()
	return args.String(0)
}
