package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/internal/client/domain"
	"github.com/smallbiznis/confeitaria/internal/client/repository"
	"github.com/smallbiznis/confeitaria/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const clientSchema = `CREATE TABLE clients (
	id INTEGER PRIMARY KEY,
	user_id INTEGER NOT NULL UNIQUE,
	company_name TEXT NOT NULL DEFAULT '',
	contact_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	document TEXT NOT NULL DEFAULT '',
	street TEXT NOT NULL DEFAULT '',
	number TEXT NOT NULL DEFAULT '',
	complement TEXT NOT NULL DEFAULT '',
	district TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	state TEXT NOT NULL DEFAULT '',
	postal_code TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT 1,
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
)`

func setupClientService(t *testing.T) (domain.Service, *snowflake.Node) {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    db.NewTest(t, clientSchema),
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Repo:  repository.Provide(),
	}), node
}

func strPtr(v string) *string { return &v }

func TestEnsureForUserIsIdempotent(t *testing.T) {
	svc, node := setupClientService(t)
	ctx := context.Background()
	userID := node.Generate()

	first, err := svc.EnsureForUser(ctx, domain.EnsureClientRequest{
		UserID:      userID,
		Email:       " Ana@Doces.com ",
		ContactName: "Ana",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@doces.com", first.Email)
	assert.True(t, first.Active)

	second, err := svc.EnsureForUser(ctx, domain.EnsureClientRequest{UserID: userID, Email: "other@doces.com"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "ana@doces.com", second.Email)

	_, err = svc.EnsureForUser(ctx, domain.EnsureClientRequest{UserID: node.Generate(), Email: "invalid"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestActiveClientIDIgnoresInactiveClients(t *testing.T) {
	svc, node := setupClientService(t)
	ctx := context.Background()
	userID := node.Generate()

	client, err := svc.EnsureForUser(ctx, domain.EnsureClientRequest{UserID: userID, Email: "loja@doces.com"})
	require.NoError(t, err)

	id, err := svc.ActiveClientID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, client.ID, id)

	inactive := false
	_, err = svc.Update(ctx, domain.UpdateClientRequest{ID: client.ID.String(), Active: &inactive})
	require.NoError(t, err)

	id, err = svc.ActiveClientID(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, id)

	id, err = svc.ActiveClientID(ctx, node.Generate())
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestUpdateProfileKeepsUnsetFields(t *testing.T) {
	svc, node := setupClientService(t)
	ctx := context.Background()
	userID := node.Generate()

	_, err := svc.EnsureForUser(ctx, domain.EnsureClientRequest{
		UserID:      userID,
		Email:       "cafe@doces.com",
		CompanyName: "Café Central",
		Phone:       "11 99999-0000",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, userID, domain.ProfileInput{
		City:  strPtr(" São Paulo "),
		State: strPtr("SP"),
	})
	require.NoError(t, err)
	assert.Equal(t, "São Paulo", updated.City)
	assert.Equal(t, "Café Central", updated.CompanyName)

	profile, err := svc.Profile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "SP", profile.State)
	assert.Equal(t, "11 99999-0000", profile.Phone)

	_, err = svc.Profile(ctx, node.Generate())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListPaginatesNewestFirst(t *testing.T) {
	svc, node := setupClientService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.EnsureForUser(ctx, domain.EnsureClientRequest{
			UserID: node.Generate(),
			Email:  fmt.Sprintf("client%d@doces.com", i),
		})
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, domain.ListClientRequest{PageSize: 3})
	require.NoError(t, err)
	require.Len(t, first.Clients, 3)
	assert.True(t, first.HasMore)
	assert.Equal(t, "client4@doces.com", first.Clients[0].Email)

	second, err := svc.List(ctx, domain.ListClientRequest{PageSize: 3, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Clients, 2)
	assert.False(t, second.HasMore)
	assert.Equal(t, "client0@doces.com", second.Clients[1].Email)

	filtered, err := svc.List(ctx, domain.ListClientRequest{Search: "CLIENT3"})
	require.NoError(t, err)
	require.Len(t, filtered.Clients, 1)
}
