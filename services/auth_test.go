package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talenthubhq/talenthub/authz"
	"github.com/talenthubhq/talenthub/db"
	"github.com/talenthubhq/talenthub/store"
)

func newAuthService() (*AuthService, *store.Memory) {
	mem := store.NewMemory()
	jwtService := NewJWTService("test-secret", time.Hour)
	return NewAuthService(mem, jwtService), mem
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	account, err := svc.Register(ctx, RegisterRequest{
		Email:    "dana@example.com",
		Password: "hunter2hunter2",
		Name:     "Dana",
		Role:     db.RoleCandidate,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, account.ID)
	assert.Equal(t, db.StatusActive, account.Status)
	assert.Empty(t, account.HashedPassword, "hash must not leave the service")

	resp, err := svc.Login(ctx, LoginRequest{Email: "dana@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Empty(t, resp.Account.HashedPassword)

	claims, err := svc.JWT.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, claims.Subject)
	assert.Equal(t, db.RoleCandidate, claims.Role)
}

func TestLoginFailures(t *testing.T) {
	svc, mem := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Email: "rex@example.com", Password: "password123", Name: "Rex", Role: db.RoleRecruiter,
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "rex@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown email must look like a bad password")

	account, err := mem.GetAccountByEmail(ctx, "rex@example.com")
	require.NoError(t, err)
	require.NoError(t, mem.SetAccountStatus(ctx, account.ID, db.StatusSuspended))

	_, err = svc.Login(ctx, LoginRequest{Email: "rex@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	svc, _ := newAuthService()
	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "boss@example.com", Password: "password123", Name: "Boss", Role: db.RoleAdmin,
	})
	assert.Error(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()
	req := RegisterRequest{
		Email: "dup@example.com", Password: "password123", Name: "Dup", Role: db.RoleCandidate,
	}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)
	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, store.ErrConflict)
}

// Suspension takes effect on the next request even with a live token.
func TestResolveTracksAccountStatus(t *testing.T) {
	svc, mem := newAuthService()
	ctx := context.Background()

	account, err := svc.Register(ctx, RegisterRequest{
		Email: "eve@example.com", Password: "password123", Name: "Eve", Role: db.RoleCandidate,
	})
	require.NoError(t, err)

	p, err := svc.Resolve(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, p.Active())
	assert.Equal(t, authz.RoleCandidate, p.Role)

	require.NoError(t, mem.SetAccountStatus(ctx, account.ID, db.StatusSuspended))
	p, err = svc.Resolve(ctx, account.ID)
	require.NoError(t, err)
	assert.False(t, p.Active())
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	issuer := NewJWTService("secret-a", time.Hour)
	verifier := NewJWTService("secret-b", time.Hour)

	token, err := issuer.GenerateToken(&db.Account{ID: "acc-1", Email: "x@example.com", Role: db.RoleCandidate})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err, "token signed with another secret must not validate")

	expired := NewJWTService("secret-a", -time.Minute)
	token, err = expired.GenerateToken(&db.Account{ID: "acc-1", Role: db.RoleCandidate})
	require.NoError(t, err)
	_, err = issuer.ValidateToken(token)
	assert.Error(t, err, "expired token must not validate")
}
