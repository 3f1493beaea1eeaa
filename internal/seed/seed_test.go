package seed

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/confeitaria/internal/auth/domain"
	"github.com/smallbiznis/confeitaria/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ensurerStub struct {
	calls []authdomain.CreateUserRequest
}

func (e *ensurerStub) EnsureAdmin(_ context.Context, req authdomain.CreateUserRequest) (*authdomain.User, error) {
	e.calls = append(e.calls, req)
	return &authdomain.User{ID: snowflake.ID(1), Email: req.Email, DisplayName: req.DisplayName}, nil
}

func TestEnsureAdminUsesConfiguredAccount(t *testing.T) {
	stub := &ensurerStub{}

	user, err := EnsureAdmin(context.Background(), stub, config.AdminBootstrapConfig{
		Email:    " dona@confeitaria.com ",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Len(t, stub.calls, 1)
	assert.Equal(t, "dona@confeitaria.com", stub.calls[0].Email)
	assert.Equal(t, defaultAdminDisplay, stub.calls[0].DisplayName)
}

func TestEnsureAdminSkipsWithoutCredentials(t *testing.T) {
	stub := &ensurerStub{}

	user, err := EnsureAdmin(context.Background(), stub, config.AdminBootstrapConfig{Email: "a@b.com"})
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Empty(t, stub.calls)
}
