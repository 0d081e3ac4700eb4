package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/stefanm/authgate/internal/config"
)

// x/oauth2 ships no twitter endpoint package.
var twitterEndpoint = oauth2.Endpoint{
	AuthURL:  "https://twitter.com/i/oauth2/authorize",
	TokenURL: "https://api.twitter.com/2/oauth2/token",
}

type TwitterProvider struct {
	config     *oauth2.Config
	apiBaseURL string
}

func NewTwitterProvider(cfg config.OAuthConfig) *TwitterProvider {
	return &TwitterProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"users.read", "tweet.read"},
			Endpoint:     twitterEndpoint,
		},
		apiBaseURL: "https://api.twitter.com",
	}
}

func (p *TwitterProvider) Name() string {
	return "twitter"
}

func (p *TwitterProvider) GetConsentURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *TwitterProvider) ExchangeCode(ctx context.Context, code string) (*Profile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	client := p.config.Client(ctx, token)

	resp, err := client.Get(p.apiBaseURL + "/2/users/me")
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter api returned status %d", resp.StatusCode)
	}

	var twUser struct {
		Data struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&twUser); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	if twUser.Data.ID == "" {
		return nil, fmt.Errorf("twitter returned no user id")
	}

	name := twUser.Data.Name
	if name == "" {
		name = twUser.Data.Username
	}

	// The twitter API exposes no email; the profile carries an absent one.
	return &Profile{
		Provider:    "twitter",
		ID:          twUser.Data.ID,
		DisplayName: name,
		Token:       token.AccessToken,
	}, nil
}
