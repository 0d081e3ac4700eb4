package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/stefanm/authgate/internal/config"
	"github.com/stefanm/authgate/internal/middleware"
	"github.com/stefanm/authgate/internal/models"
	"github.com/stefanm/authgate/internal/oauth"
	"github.com/stefanm/authgate/internal/resolver"
	"github.com/stefanm/authgate/internal/store"
	"github.com/stefanm/authgate/pkg/dto"
)

type AuthHandler struct {
	cfg       *config.Config
	providers map[string]oauth.Provider
	resolver  ResolverInterface
	sessions  SessionBinderInterface
	users     UserFinderInterface
	states    sync.Map
}

// stateData tracks an in-flight OAuth handshake. userID is uuid.Nil for a
// plain login; for a /connect flow it pins the session user the callback
// should link the identity to.
type stateData struct {
	userID    uuid.UUID
	expiresAt time.Time
}

func NewAuthHandler(
	cfg *config.Config,
	res ResolverInterface,
	sessions SessionBinderInterface,
	users UserFinderInterface,
) *AuthHandler {
	h := &AuthHandler{
		cfg:       cfg,
		providers: make(map[string]oauth.Provider),
		resolver:  res,
		sessions:  sessions,
		users:     users,
	}

	if cfg.Facebook.ClientID != "" {
		h.providers["facebook"] = oauth.NewFacebookProvider(cfg.Facebook)
	}
	if cfg.Twitter.ClientID != "" {
		h.providers["twitter"] = oauth.NewTwitterProvider(cfg.Twitter)
	}
	if cfg.Google.ClientID != "" {
		h.providers["google"] = oauth.NewGoogleProvider(cfg.Google)
	}
	if cfg.LinkedIn.ClientID != "" {
		h.providers["linkedin"] = oauth.NewLinkedInProvider(cfg.LinkedIn)
	}
	if cfg.GitHub.ClientID != "" {
		h.providers["github"] = oauth.NewGitHubProvider(cfg.GitHub)
	}

	go h.cleanupStates()

	return h
}

func (h *AuthHandler) cleanupStates() {
	ticker := time.NewTicker(1 * time.Minute)
	for range ticker.C {
		now := time.Now()
		h.states.Range(func(key, value interface{}) bool {
			if sd, ok := value.(stateData); ok && now.After(sd.expiresAt) {
				h.states.Delete(key)
			}
			return true
		})
	}
}

func (h *AuthHandler) Signup(c *drift.Context) {
	var req dto.SignupRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		c.BadRequest("email and password are required")
		return
	}

	user, err := h.resolver.SignupLocal(context.Background(), req.Email, req.Password, nil)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	h.respondSession(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *drift.Context) {
	var req dto.LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	user, err := h.resolver.AuthenticateLocal(context.Background(), req.Email, req.Password, nil)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	h.respondSession(c, http.StatusOK, user)
}

// Consent starts a provider login for an anonymous visitor.
func (h *AuthHandler) Consent(c *drift.Context) {
	h.startHandshake(c, uuid.Nil)
}

// ConnectConsent starts a provider handshake that will link the resulting
// identity to the already-authenticated session user.
func (h *AuthHandler) ConnectConsent(c *drift.Context) {
	current := middleware.GetCurrentUser(c)
	if current == nil {
		c.Unauthorized("not authenticated")
		return
	}
	h.startHandshake(c, current.ID)
}

func (h *AuthHandler) startHandshake(c *drift.Context, userID uuid.UUID) {
	provider := c.Param("provider")

	p, ok := h.providers[provider]
	if !ok {
		c.BadRequest("unsupported provider: " + provider)
		return
	}

	state, err := oauth.GenerateState()
	if err != nil {
		c.InternalServerError("failed to generate state")
		return
	}

	h.states.Store(state, stateData{
		userID:    userID,
		expiresAt: time.Now().Add(10 * time.Minute),
	})

	_ = c.JSON(http.StatusOK, dto.ConsentURLResponse{
		URL: p.GetConsentURL(state),
	})
}

// Callback finishes both login and connect handshakes; which one it is was
// recorded in the state entry when the handshake started.
func (h *AuthHandler) Callback(c *drift.Context) {
	provider := c.Param("provider")

	p, ok := h.providers[provider]
	if !ok {
		c.BadRequest("unsupported provider: " + provider)
		return
	}

	state := c.QueryParam("state")
	if state == "" {
		c.BadRequest("missing state parameter")
		return
	}

	sd, ok := h.states.LoadAndDelete(state)
	if !ok {
		c.BadRequest("invalid or expired state")
		return
	}

	sdTyped, ok := sd.(stateData)
	if !ok || time.Now().After(sdTyped.expiresAt) {
		c.BadRequest("state expired")
		return
	}

	code := c.QueryParam("code")
	if code == "" {
		c.BadRequest("missing authorization code")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	profile, err := p.ExchangeCode(ctx, code)
	if err != nil {
		c.BadRequest("failed to exchange code: " + err.Error())
		return
	}

	var current *models.User
	if sdTyped.userID != uuid.Nil {
		current, err = h.users.FindByID(ctx, sdTyped.userID)
		if err != nil {
			c.InternalServerError("failed to load user")
			return
		}
		if current == nil {
			c.Unauthorized("linking session no longer valid")
			return
		}
	}

	user, err := h.resolver.AuthenticateProvider(ctx, profile, current)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	h.respondSession(c, http.StatusOK, user)
}

// ConnectLocal attaches email+password credentials to the session user.
func (h *AuthHandler) ConnectLocal(c *drift.Context) {
	current := middleware.GetCurrentUser(c)
	if current == nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.SignupRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		c.BadRequest("email and password are required")
		return
	}

	user, err := h.resolver.SignupLocal(context.Background(), req.Email, req.Password, current)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, profileOf(user))
}

// Unlink detaches local credentials (provider "local") or clears a linked
// provider's token.
func (h *AuthHandler) Unlink(c *drift.Context) {
	current := middleware.GetCurrentUser(c)
	if current == nil {
		c.Unauthorized("not authenticated")
		return
	}

	provider := c.Param("provider")
	ctx := context.Background()

	var err error
	if provider == "local" {
		err = h.resolver.UnlinkLocal(ctx, current)
	} else {
		err = h.resolver.UnlinkProvider(ctx, current, provider)
	}
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, profileOf(current))
}

func (h *AuthHandler) respondSession(c *drift.Context, status int, user *models.User) {
	token, err := h.sessions.Issue(user)
	if err != nil {
		c.InternalServerError("failed to issue session token")
		return
	}

	_ = c.JSON(status, dto.SessionResponse{
		Token: token,
		User:  profileOf(user),
	})
}

func (h *AuthHandler) respondAuthError(c *drift.Context, err error) {
	switch {
	case errors.Is(err, resolver.ErrInvalidCredentials):
		c.Unauthorized("invalid email or password")
	case errors.Is(err, resolver.ErrEmailTaken):
		_ = c.JSON(http.StatusConflict, map[string]string{"error": "email is already taken"})
	case errors.Is(err, resolver.ErrProfileIncomplete):
		c.BadRequest("provider profile is incomplete")
	case errors.Is(err, store.ErrConflict):
		_ = c.JSON(http.StatusConflict, map[string]string{"error": "a concurrent change conflicted, try again"})
	default:
		c.InternalServerError("authentication failed")
	}
}
