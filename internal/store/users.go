// Package store persists user accounts and their linked provider identities.
//
// All lookups use absent-or-found semantics: a missing record is (nil, nil),
// never an error. Uniqueness is not checked here with pre-reads; the database
// constraints (local_email, (provider, provider_id), (user_id, provider))
// enforce it atomically at write time and violations surface as ErrConflict.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stefanm/authgate/internal/database"
	"github.com/stefanm/authgate/internal/models"
)

// ErrConflict is returned when a write loses a uniqueness race. Callers are
// expected to re-run their lookup-then-decide step once before giving up.
var ErrConflict = errors.New("unique constraint conflict")

const uniqueViolationCode = "23505"

type UserStore struct {
	db *database.DB
}

func NewUserStore(db *database.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, local_email, password_hash, created_at, updated_at`

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findOne(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id)
}

// FindByLocalEmail looks up the account holding a local email. The email must
// already be normalized to lowercase by the caller.
func (s *UserStore) FindByLocalEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, `
		SELECT `+userColumns+` FROM users WHERE local_email = $1
	`, email)
}

func (s *UserStore) FindByProviderID(ctx context.Context, provider, providerID string) (*models.User, error) {
	return s.findOne(ctx, `
		SELECT u.id, u.local_email, u.password_hash, u.created_at, u.updated_at
		FROM users u
		JOIN identities i ON i.user_id = u.id
		WHERE i.provider = $1 AND i.provider_id = $2
	`, provider, providerID)
}

// Create inserts the user and its identities in one transaction and fills in
// the assigned id and timestamps.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO users (local_email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, nullableString(user.Local.Email), nullableString(user.Local.PasswordHash)).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return conflictOr(err, "failed to insert user")
	}

	for _, provider := range sortedProviders(user) {
		ident := user.Identities[provider]
		err := tx.QueryRow(ctx, `
			INSERT INTO identities (user_id, provider, provider_id, token, email, display_name)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at
		`, user.ID, ident.Provider, ident.ProviderID, ident.Token, ident.Email, ident.DisplayName).
			Scan(&ident.CreatedAt, &ident.UpdatedAt)
		if err != nil {
			return conflictOr(err, "failed to insert identity")
		}
		user.Identities[provider] = ident
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Save writes the current state of the user back: local credentials, upserts
// for every identity on the record, and removal of identity rows whose
// provider is no longer present.
func (s *UserStore) Save(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		return fmt.Errorf("cannot save user without id")
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		UPDATE users SET local_email = $1, password_hash = $2, updated_at = NOW()
		WHERE id = $3
	`, nullableString(user.Local.Email), nullableString(user.Local.PasswordHash), user.ID)
	if err != nil {
		return conflictOr(err, "failed to update user")
	}

	providers := sortedProviders(user)
	for _, provider := range providers {
		ident := user.Identities[provider]
		_, err := tx.Exec(ctx, `
			INSERT INTO identities (user_id, provider, provider_id, token, email, display_name)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (user_id, provider) DO UPDATE SET
				provider_id = EXCLUDED.provider_id,
				token = EXCLUDED.token,
				email = EXCLUDED.email,
				display_name = EXCLUDED.display_name,
				updated_at = NOW()
		`, user.ID, ident.Provider, ident.ProviderID, ident.Token, ident.Email, ident.DisplayName)
		if err != nil {
			return conflictOr(err, "failed to upsert identity")
		}
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM identities WHERE user_id = $1 AND provider <> ALL($2)
	`, user.ID, providers)
	if err != nil {
		return fmt.Errorf("failed to prune identities: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes the user record; identities go with it via ON DELETE CASCADE.
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *UserStore) findOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	var (
		user         models.User
		localEmail   *string
		passwordHash *string
	)
	err := s.db.Pool.QueryRow(ctx, query, args...).
		Scan(&user.ID, &localEmail, &passwordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if localEmail != nil {
		user.Local.Email = *localEmail
	}
	if passwordHash != nil {
		user.Local.PasswordHash = *passwordHash
	}

	if err := s.loadIdentities(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) loadIdentities(ctx context.Context, user *models.User) error {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT provider, provider_id, token, email, display_name, created_at, updated_at
		FROM identities WHERE user_id = $1
		ORDER BY provider
	`, user.ID)
	if err != nil {
		return fmt.Errorf("failed to query identities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ident models.Identity
		if err := rows.Scan(
			&ident.Provider, &ident.ProviderID, &ident.Token,
			&ident.Email, &ident.DisplayName, &ident.CreatedAt, &ident.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to scan identity: %w", err)
		}
		user.SetIdentity(ident)
	}
	return rows.Err()
}

func sortedProviders(user *models.User) []string {
	providers := make([]string, 0, len(user.Identities))
	for provider := range user.Identities {
		providers = append(providers, provider)
	}
	sort.Strings(providers)
	return providers
}

func conflictOr(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return fmt.Errorf("%s: %w", msg, ErrConflict)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
