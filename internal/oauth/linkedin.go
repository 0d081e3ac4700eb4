package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/linkedin"

	"github.com/stefanm/authgate/internal/config"
)

type LinkedInProvider struct {
	config     *oauth2.Config
	apiBaseURL string
}

func NewLinkedInProvider(cfg config.OAuthConfig) *LinkedInProvider {
	return &LinkedInProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     linkedin.Endpoint,
		},
		apiBaseURL: "https://api.linkedin.com",
	}
}

func (p *LinkedInProvider) Name() string {
	return "linkedin"
}

func (p *LinkedInProvider) GetConsentURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *LinkedInProvider) ExchangeCode(ctx context.Context, code string) (*Profile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	client := p.config.Client(ctx, token)

	resp, err := client.Get(p.apiBaseURL + "/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("linkedin api returned status %d", resp.StatusCode)
	}

	var liUser struct {
		Sub   string `json:"sub"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&liUser); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	if liUser.Sub == "" {
		return nil, fmt.Errorf("linkedin returned no user id")
	}

	return &Profile{
		Provider:    "linkedin",
		ID:          liUser.Sub,
		Email:       NormalizeEmail(liUser.Email),
		DisplayName: liUser.Name,
		Token:       token.AccessToken,
	}, nil
}
