package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanm/authgate/internal/config"
)

func TestGitHubProvider_Name(t *testing.T) {
	provider := NewGitHubProvider(config.OAuthConfig{})
	assert.Equal(t, "github", provider.Name())
}

func TestGitHubProvider_GetConsentURL(t *testing.T) {
	provider := NewGitHubProvider(config.OAuthConfig{
		ClientID:    "test-client-id",
		RedirectURL: "http://localhost/callback",
	})

	url := provider.GetConsentURL("test-state")

	assert.Contains(t, url, "github.com")
	assert.Contains(t, url, "client_id=test-client-id")
	assert.Contains(t, url, "state=test-state")
	assert.Contains(t, url, "redirect_uri=http")
}

func TestGitHubProvider_ExchangeCode(t *testing.T) {
	tokenServer := newTokenServer(t)

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":12345,"login":"testuser","name":"Test User","email":"Test@Example.com"}`))
	}))
	defer apiServer.Close()

	provider := &GitHubProvider{
		config:     newTestOAuthConfig(tokenServer),
		apiBaseURL: apiServer.URL,
	}

	profile, err := provider.ExchangeCode(context.Background(), "test-code")

	require.NoError(t, err)
	assert.Equal(t, "github", profile.Provider)
	assert.Equal(t, "12345", profile.ID)
	assert.Equal(t, "test@example.com", profile.Email)
	assert.Equal(t, "Test User", profile.DisplayName)
}

func TestGitHubProvider_ExchangeCode_PrivateEmailFallback(t *testing.T) {
	tokenServer := newTokenServer(t)

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user":
			_, _ = w.Write([]byte(`{"id":12345,"login":"testuser","name":"Test User","email":""}`))
		case "/user/emails":
			_, _ = w.Write([]byte(`[
				{"email":"secondary@example.com","primary":false,"verified":true},
				{"email":"private@example.com","primary":true,"verified":true}
			]`))
		}
	}))
	defer apiServer.Close()

	provider := &GitHubProvider{
		config:     newTestOAuthConfig(tokenServer),
		apiBaseURL: apiServer.URL,
	}

	profile, err := provider.ExchangeCode(context.Background(), "test-code")

	require.NoError(t, err)
	assert.Equal(t, "private@example.com", profile.Email)
}

func TestGitHubProvider_ExchangeCode_NoEmailAtAll(t *testing.T) {
	tokenServer := newTokenServer(t)

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user":
			_, _ = w.Write([]byte(`{"id":12345,"login":"testuser","name":"Test User","email":""}`))
		case "/user/emails":
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	defer apiServer.Close()

	provider := &GitHubProvider{
		config:     newTestOAuthConfig(tokenServer),
		apiBaseURL: apiServer.URL,
	}

	profile, err := provider.ExchangeCode(context.Background(), "test-code")

	// An absent email is a valid profile, not a failure.
	require.NoError(t, err)
	assert.Equal(t, "", profile.Email)
	assert.Equal(t, "12345", profile.ID)
}

func TestGitHubProvider_ExchangeCode_NameFallbackToLogin(t *testing.T) {
	tokenServer := newTokenServer(t)

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/user" {
			_, _ = w.Write([]byte(`{"id":12345,"login":"testuser","name":"","email":"test@example.com"}`))
		}
	}))
	defer apiServer.Close()

	provider := &GitHubProvider{
		config:     newTestOAuthConfig(tokenServer),
		apiBaseURL: apiServer.URL,
	}

	profile, err := provider.ExchangeCode(context.Background(), "test-code")

	require.NoError(t, err)
	assert.Equal(t, "testuser", profile.DisplayName)
}

func TestGitHubProvider_ExchangeCode_MissingID(t *testing.T) {
	tokenServer := newTokenServer(t)

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"login":"testuser"}`))
	}))
	defer apiServer.Close()

	provider := &GitHubProvider{
		config:     newTestOAuthConfig(tokenServer),
		apiBaseURL: apiServer.URL,
	}

	_, err := provider.ExchangeCode(context.Background(), "test-code")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no user id")
}
