package auth

import (
	"context"
	"testing"
	"time"

	"github.com/SAP-F-2025/school-admin-service/internal/cache"
	"github.com/SAP-F-2025/school-admin-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalProvider(t *testing.T) *LocalProvider {
	t.Helper()
	p, err := NewLocalProvider(testutil.NewDB(t), "test-secret", time.Hour, cache.NewRevocations(cache.NewMemoryCache()), testutil.Logger())
	require.NoError(t, err)
	return p
}

func TestLocalProvider_RequiresSecret(t *testing.T) {
	_, err := NewLocalProvider(testutil.NewDB(t), "", time.Hour, nil, testutil.Logger())
	assert.Error(t, err)
}

func TestLocalProvider_SignInVerifySignOut(t *testing.T) {
	p := newLocalProvider(t)
	ctx := context.Background()

	uid, err := p.CreatePrincipal(ctx, NewPrincipal{
		UID:         "T1",
		Email:       "Carmen@Example.com ",
		Password:    "s3cret",
		DisplayName: "Carmen Diaz",
	})
	require.NoError(t, err)
	assert.Equal(t, "T1", uid)

	session, err := p.SignIn(ctx, "carmen@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "T1", session.Principal.UID)

	principal, err := p.Verify(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, "T1", principal.UID)
	assert.Equal(t, "carmen@example.com", principal.Email)
	assert.Equal(t, "Carmen Diaz", principal.DisplayName)

	require.NoError(t, p.SignOut(ctx, session.Token))
	_, err = p.Verify(ctx, session.Token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestLocalProvider_WrongPassword(t *testing.T) {
	p := newLocalProvider(t)
	ctx := context.Background()

	_, err := p.CreatePrincipal(ctx, NewPrincipal{Email: "a@example.com", Password: "right"})
	require.NoError(t, err)

	_, err = p.SignIn(ctx, "a@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = p.SignIn(ctx, "nobody@example.com", "right")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLocalProvider_ExpiredToken(t *testing.T) {
	p := newLocalProvider(t)
	ctx := context.Background()

	_, err := p.CreatePrincipal(ctx, NewPrincipal{Email: "a@example.com", Password: "pw"})
	require.NoError(t, err)

	session, err := p.SignIn(ctx, "a@example.com", "pw")
	require.NoError(t, err)

	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = p.Verify(ctx, session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLocalProvider_RejectsForeignToken(t *testing.T) {
	p := newLocalProvider(t)

	_, err := p.Verify(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLocalProvider_DuplicateAndDelete(t *testing.T) {
	p := newLocalProvider(t)
	ctx := context.Background()

	uid, err := p.CreatePrincipal(ctx, NewPrincipal{Email: "a@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.NotEmpty(t, uid)

	_, err = p.CreatePrincipal(ctx, NewPrincipal{Email: "A@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrPrincipalExists)

	require.NoError(t, p.DeletePrincipal(ctx, uid))
	assert.ErrorIs(t, p.DeletePrincipal(ctx, uid), ErrPrincipalNotFound)

	_, err = p.SignIn(ctx, "a@example.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGeneratePassword(t *testing.T) {
	a, b := GeneratePassword(), GeneratePassword()
	assert.Len(t, a, 20)
	assert.NotEqual(t, a, b)
}
