package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanm/authgate/internal/models"
)

type fakeUserFinder struct {
	users map[uuid.UUID]*models.User
	err   error
}

func (f *fakeUserFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

func newTestBinder(finder *fakeUserFinder) *Binder {
	return NewBinder("test-secret-key", time.Hour, finder)
}

func TestBinder_IssueAndResolve(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	finder := &fakeUserFinder{users: map[uuid.UUID]*models.User{user.ID: user}}
	binder := newTestBinder(finder)

	token, err := binder.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	resolved, err := binder.Resolve(context.Background(), token)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestBinder_Resolve_MalformedToken(t *testing.T) {
	binder := newTestBinder(&fakeUserFinder{})

	for _, token := range []string{"", "garbage", "a.b.c"} {
		resolved, err := binder.Resolve(context.Background(), token)
		assert.NoError(t, err)
		assert.Nil(t, resolved)
	}
}

func TestBinder_Resolve_WrongSecret(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	finder := &fakeUserFinder{users: map[uuid.UUID]*models.User{user.ID: user}}

	other := NewBinder("a-different-secret", time.Hour, finder)
	token, err := other.Issue(user)
	require.NoError(t, err)

	binder := newTestBinder(finder)
	resolved, err := binder.Resolve(context.Background(), token)
	assert.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestBinder_Resolve_ExpiredToken(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	finder := &fakeUserFinder{users: map[uuid.UUID]*models.User{user.ID: user}}

	expired := NewBinder("test-secret-key", -time.Minute, finder)
	token, err := expired.Issue(user)
	require.NoError(t, err)

	binder := newTestBinder(finder)
	resolved, err := binder.Resolve(context.Background(), token)
	assert.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestBinder_Resolve_UnknownUser(t *testing.T) {
	// A valid token for a deleted account resolves to not-authenticated.
	user := &models.User{ID: uuid.New()}
	binder := newTestBinder(&fakeUserFinder{users: map[uuid.UUID]*models.User{}})

	token, err := binder.Issue(user)
	require.NoError(t, err)

	resolved, err := binder.Resolve(context.Background(), token)
	assert.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestBinder_Resolve_StoreError(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	binder := newTestBinder(&fakeUserFinder{err: errors.New("connection refused")})

	token, err := binder.Issue(user)
	require.NoError(t, err)

	resolved, err := binder.Resolve(context.Background(), token)
	assert.Error(t, err)
	assert.Nil(t, resolved)
}

func TestBinder_Resolve_NonUUIDSubject(t *testing.T) {
	binder := newTestBinder(&fakeUserFinder{})

	claims := jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		Issuer:    issuer,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key"))
	require.NoError(t, err)

	resolved, err := binder.Resolve(context.Background(), token)
	assert.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestBinder_Resolve_RejectsNonHMAC(t *testing.T) {
	binder := newTestBinder(&fakeUserFinder{})

	// alg=none tokens must never resolve.
	claims := jwt.RegisteredClaims{
		Subject:   uuid.New().String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	resolved, err := binder.Resolve(context.Background(), token)
	assert.NoError(t, err)
	assert.Nil(t, resolved)
}
