package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"github.com/stefanm/authgate/internal/config"
)

type FacebookProvider struct {
	config     *oauth2.Config
	apiBaseURL string
}

func NewFacebookProvider(cfg config.OAuthConfig) *FacebookProvider {
	return &FacebookProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     facebook.Endpoint,
		},
		apiBaseURL: "https://graph.facebook.com",
	}
}

func (p *FacebookProvider) Name() string {
	return "facebook"
}

func (p *FacebookProvider) GetConsentURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *FacebookProvider) ExchangeCode(ctx context.Context, code string) (*Profile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	client := p.config.Client(ctx, token)

	resp, err := client.Get(p.apiBaseURL + "/me?fields=id,name,email")
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("facebook api returned status %d", resp.StatusCode)
	}

	var fbUser struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&fbUser); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	if fbUser.ID == "" {
		return nil, fmt.Errorf("facebook returned no user id")
	}

	return &Profile{
		Provider:    "facebook",
		ID:          fbUser.ID,
		Email:       NormalizeEmail(fbUser.Email),
		DisplayName: fbUser.Name,
		Token:       token.AccessToken,
	}, nil
}
