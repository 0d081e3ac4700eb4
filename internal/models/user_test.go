package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_Email_PriorityOrder(t *testing.T) {
	user := &User{}
	user.SetIdentity(Identity{Provider: ProviderGoogle, ProviderID: "g1", Email: "google@example.com"})
	user.SetIdentity(Identity{Provider: ProviderTwitter, ProviderID: "t1", Email: "twitter@example.com"})

	assert.Equal(t, "twitter@example.com", user.Email())

	user.SetIdentity(Identity{Provider: ProviderFacebook, ProviderID: "f1", Email: "facebook@example.com"})

	assert.Equal(t, "facebook@example.com", user.Email())
}

func TestUser_Email_SkipsEmptyEmails(t *testing.T) {
	user := &User{}
	user.SetIdentity(Identity{Provider: ProviderFacebook, ProviderID: "f1"})
	user.SetIdentity(Identity{Provider: ProviderGitHub, ProviderID: "gh1", Email: "github@example.com"})

	assert.Equal(t, "github@example.com", user.Email())
}

func TestUser_Email_UnknownProvidersInNameOrder(t *testing.T) {
	user := &User{}
	user.SetIdentity(Identity{Provider: "zcorp", ProviderID: "z1", Email: "z@example.com"})
	user.SetIdentity(Identity{Provider: "acme", ProviderID: "a1", Email: "a@example.com"})

	assert.Equal(t, "a@example.com", user.Email())
}

func TestUser_Email_NoIdentities(t *testing.T) {
	user := &User{Local: LocalCredential{Email: "local@example.com"}}

	// Derived email only looks at provider identities.
	assert.Equal(t, "", user.Email())
}

func TestUser_SetIdentity_OverwritesSameProvider(t *testing.T) {
	user := &User{}
	user.SetIdentity(Identity{Provider: ProviderFacebook, ProviderID: "f1", Token: "old"})
	user.SetIdentity(Identity{Provider: ProviderFacebook, ProviderID: "f1", Token: "new"})

	assert.Len(t, user.Identities, 1)
	assert.Equal(t, "new", user.Identity(ProviderFacebook).Token)
}

func TestUser_RemoveIdentity(t *testing.T) {
	user := &User{}
	user.SetIdentity(Identity{Provider: ProviderGoogle, ProviderID: "g1"})

	user.RemoveIdentity(ProviderGoogle)

	assert.Nil(t, user.Identity(ProviderGoogle))
	user.RemoveIdentity("never-linked") // no-op, must not panic
}

func TestUser_HasLocal(t *testing.T) {
	user := &User{}
	assert.False(t, user.HasLocal())

	user.Local = LocalCredential{Email: "a@x.com", PasswordHash: "hash"}
	assert.True(t, user.HasLocal())
}
