package handlers

import (
	"context"
	"net/http"
	"sort"

	"github.com/m1z23r/drift/pkg/drift"

	"github.com/stefanm/authgate/internal/middleware"
	"github.com/stefanm/authgate/internal/models"
	"github.com/stefanm/authgate/pkg/dto"
)

type UserHandler struct {
	resolver ResolverInterface
}

func NewUserHandler(res ResolverInterface) *UserHandler {
	return &UserHandler{resolver: res}
}

func (h *UserHandler) GetMe(c *drift.Context) {
	current := middleware.GetCurrentUser(c)
	if current == nil {
		c.Unauthorized("not authenticated")
		return
	}

	_ = c.JSON(http.StatusOK, profileOf(current))
}

// DeleteMe destroys the account. The session token dies with it: the next
// request resolves to a deleted user and is rejected.
func (h *UserHandler) DeleteMe(c *drift.Context) {
	current := middleware.GetCurrentUser(c)
	if current == nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.resolver.DeleteAccount(context.Background(), current); err != nil {
		c.InternalServerError("failed to delete account")
		return
	}

	_ = c.JSON(http.StatusOK, map[string]string{"message": "account deleted"})
}

func profileOf(user *models.User) dto.UserProfile {
	identities := make([]dto.LinkedIdentity, 0, len(user.Identities))
	for _, ident := range user.Identities {
		identities = append(identities, dto.LinkedIdentity{
			Provider:    ident.Provider,
			DisplayName: ident.DisplayName,
			Email:       ident.Email,
			Linked:      ident.Token != "",
		})
	}
	sort.Slice(identities, func(i, j int) bool {
		return identities[i].Provider < identities[j].Provider
	})

	return dto.UserProfile{
		ID:         user.ID.String(),
		Email:      user.Email(),
		LocalEmail: user.Local.Email,
		Identities: identities,
	}
}
