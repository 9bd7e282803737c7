package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesapos/mesapos/internal/models"
	"github.com/mesapos/mesapos/internal/tokens"
	"github.com/mesapos/mesapos/internal/transport"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, env.business.ID, transport.RegisterUserRequest{
		Username: "diego", Password: "s3cret-pw", Role: "waiter", Pin: "1234",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleWaiter, user.Role)
	assert.NotEqual(t, "s3cret-pw", user.PasswordHash)

	result, err := env.auth.Login(ctx, transport.LoginRequest{
		BusinessID: env.business.ID, Username: "diego", Password: "s3cret-pw",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)

	claims, err := tokens.AccessClaimsFromToken(result.AccessToken, env.auth.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, env.business.ID.String(), claims.BusinessID)
	assert.Equal(t, "waiter", claims.Role)
}

func TestAuthService_Login_BadCredentials(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, env.business.ID, transport.RegisterUserRequest{
		Username: "diego", Password: "s3cret-pw", Role: "waiter",
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  transport.LoginRequest
	}{
		{"wrong password", transport.LoginRequest{BusinessID: env.business.ID, Username: "diego", Password: "nope"}},
		{"unknown user", transport.LoginRequest{BusinessID: env.business.ID, Username: "ghost", Password: "s3cret-pw"}},
		{"missing business", transport.LoginRequest{Username: "diego", Password: "s3cret-pw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Login(ctx, tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, env.business.ID, transport.RegisterUserRequest{
		Username: "x", Password: "y", Role: "janitor",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.auth.Register(ctx, env.business.ID, transport.RegisterUserRequest{
		Username: "ana", Password: "pw", Role: "waiter",
	})
	assert.ErrorIs(t, err, ErrConflict, "username already taken in this business")
}

func TestAuthService_Register_SameUsernameAcrossBusinesses(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	other := models.Business{Name: "El Otro", TaxRate: dec("0.16")}
	require.NoError(t, env.db.Create(&other).Error)

	// Usernames are unique per business, not globally.
	_, err := env.auth.Register(ctx, other.ID, transport.RegisterUserRequest{
		Username: "ana", Password: "pw", Role: "waiter",
	})
	require.NoError(t, err)
}
