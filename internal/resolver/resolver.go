// Package resolver decides, for every authentication signal, whether it
// refers to an existing account, a brand-new account, or a request to attach
// another identity to the already-authenticated user.
//
// The lookup-then-write sequence is deliberately unlocked: uniqueness is
// enforced by the store at write time, and a store.ErrConflict means two
// requests raced for the same new identity. Each operation re-runs its
// lookup-then-decide step exactly once on conflict, so the loser of the race
// lands on the winner's record instead of creating a duplicate.
package resolver

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/stefanm/authgate/internal/models"
	"github.com/stefanm/authgate/internal/oauth"
	"github.com/stefanm/authgate/internal/store"
)

var (
	// ErrInvalidCredentials covers wrong password and unknown email alike,
	// so a login response never reveals which of the two it was.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when a signup or local-link targets an
	// email already held by a different account.
	ErrEmailTaken = errors.New("email is already taken")

	// ErrProfileIncomplete is returned for provider profiles missing a
	// provider id. Always fatal; an id is never defaulted.
	ErrProfileIncomplete = errors.New("provider profile is incomplete")
)

// Store is the persistence surface the resolver needs. Finds return
// (nil, nil) for absent; writes surface store.ErrConflict on uniqueness races.
type Store interface {
	FindByLocalEmail(ctx context.Context, email string) (*models.User, error)
	FindByProviderID(ctx context.Context, provider, providerID string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Hasher hashes and verifies local passwords.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) bool
}

type Resolver struct {
	store     Store
	passwords Hasher
}

func New(store Store, passwords Hasher) *Resolver {
	return &Resolver{store: store, passwords: passwords}
}

// AuthenticateLocal checks an email+password pair. With a session user
// already present the signal is a no-op and the session user comes back
// unchanged.
func (r *Resolver) AuthenticateLocal(ctx context.Context, email, password string, current *models.User) (*models.User, error) {
	if current != nil {
		return current, nil
	}

	email = oauth.NormalizeEmail(email)

	user, err := r.store.FindByLocalEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !r.passwords.Verify(user.Local.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// SignupLocal creates an account for a new email+password pair, or, when a
// session user without local credentials is present, attaches the pair to
// that account (the /connect/local flow).
func (r *Resolver) SignupLocal(ctx context.Context, email, password string, current *models.User) (*models.User, error) {
	email = oauth.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := r.signupLocal(ctx, email, password, current)
	if errors.Is(err, store.ErrConflict) {
		user, err = r.signupLocal(ctx, email, password, current)
	}
	return user, err
}

func (r *Resolver) signupLocal(ctx context.Context, email, password string, current *models.User) (*models.User, error) {
	if current != nil && current.HasLocal() {
		// Already logged in with a local account attached; signup while
		// authenticated is ignored.
		return current, nil
	}

	existing, err := r.store.FindByLocalEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if current != nil {
		if existing != nil && existing.ID != current.ID {
			return nil, ErrEmailTaken
		}
		hash, err := r.passwords.Hash(password)
		if err != nil {
			return nil, err
		}
		// Roll the in-memory state back on failure: a rerun must see the
		// pre-attempt record, and the caller must never hold credentials
		// that were not persisted.
		prev := current.Local
		current.Local = models.LocalCredential{Email: email, PasswordHash: hash}
		if err := r.store.Save(ctx, current); err != nil {
			current.Local = prev
			return nil, err
		}
		return current, nil
	}

	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := r.passwords.Hash(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Local: models.LocalCredential{Email: email, PasswordHash: hash}}
	if err := r.store.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AuthenticateProvider handles a provider callback. Without a session it
// matches or creates the account holding that (provider, providerId); with a
// session it links the identity to the session user, overwriting any previous
// identity for the same provider.
func (r *Resolver) AuthenticateProvider(ctx context.Context, profile *oauth.Profile, current *models.User) (*models.User, error) {
	if profile == nil || profile.Provider == "" || profile.ID == "" {
		return nil, ErrProfileIncomplete
	}

	user, err := r.authenticateProvider(ctx, profile, current)
	if errors.Is(err, store.ErrConflict) {
		user, err = r.authenticateProvider(ctx, profile, current)
	}
	return user, err
}

func (r *Resolver) authenticateProvider(ctx context.Context, profile *oauth.Profile, current *models.User) (*models.User, error) {
	ident := models.Identity{
		Provider:    profile.Provider,
		ProviderID:  profile.ID,
		Token:       profile.Token,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
	}

	if current != nil {
		prev := current.Identity(profile.Provider)
		current.SetIdentity(ident)
		if err := r.store.Save(ctx, current); err != nil {
			if prev != nil {
				current.SetIdentity(*prev)
			} else {
				current.RemoveIdentity(profile.Provider)
			}
			return nil, err
		}
		return current, nil
	}

	user, err := r.store.FindByProviderID(ctx, profile.Provider, profile.ID)
	if err != nil {
		return nil, err
	}

	if user != nil {
		// Read-mostly path: only write back when the provider issued a
		// new token.
		if stored := user.Identity(profile.Provider); stored == nil || stored.Token != profile.Token {
			user.SetIdentity(ident)
			if err := r.store.Save(ctx, user); err != nil {
				return nil, err
			}
		}
		return user, nil
	}

	user = &models.User{}
	user.SetIdentity(ident)
	if err := r.store.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UnlinkLocal clears the local email and password hash, leaving provider
// identities and the account id untouched.
func (r *Resolver) UnlinkLocal(ctx context.Context, user *models.User) error {
	user.Local = models.LocalCredential{}
	return r.store.Save(ctx, user)
}

// UnlinkProvider clears the stored token for a linked provider. The
// (provider, providerId) row stays, so a later login through that provider
// reattaches to the same account.
func (r *Resolver) UnlinkProvider(ctx context.Context, user *models.User, provider string) error {
	ident := user.Identity(provider)
	if ident == nil {
		return nil
	}
	ident.Token = ""
	user.SetIdentity(*ident)
	return r.store.Save(ctx, user)
}

// DeleteAccount removes the user record and everything linked to it.
func (r *Resolver) DeleteAccount(ctx context.Context, user *models.User) error {
	return r.store.Delete(ctx, user.ID)
}
