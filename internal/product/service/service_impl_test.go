package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/internal/product/domain"
	"github.com/smallbiznis/confeitaria/internal/product/repository"
	"github.com/smallbiznis/confeitaria/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const productSchema = `CREATE TABLE products (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	category TEXT NOT NULL DEFAULT '',
	description TEXT,
	weight_grams INTEGER,
	units_per_package INTEGER,
	price_cents INTEGER,
	image_url TEXT,
	active BOOLEAN NOT NULL DEFAULT 1,
	featured BOOLEAN NOT NULL DEFAULT 0,
	display_order INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
)`

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    db.NewTest(t, productSchema),
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func int64Ptr(v int64) *int64 { return &v }

func boolPtr(v bool) *bool { return &v }

func TestCreateGeneratesUniqueSlugs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, domain.CreateRequest{Name: "Brigadeiro Gourmet", PriceCents: int64Ptr(350)})
	require.NoError(t, err)
	assert.Equal(t, "brigadeiro-gourmet", first.Slug)
	assert.True(t, first.Active)

	second, err := svc.Create(ctx, domain.CreateRequest{Name: "Brigadeiro  Gourmet"})
	require.NoError(t, err)
	assert.Equal(t, "brigadeiro-gourmet-2", second.Slug)
	assert.Nil(t, second.PriceCents)
}

func TestCreateValidatesInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Bolo", PriceCents: int64Ptr(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestUpdateClearsPrice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "Bolo de Pote", PriceCents: int64Ptr(1200)})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, domain.UpdateRequest{ID: created.ID, ClearPrice: true})
	require.NoError(t, err)
	assert.Nil(t, updated.PriceCents)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.PriceCents)

	_, err = svc.Update(ctx, domain.UpdateRequest{ID: created.ID, PriceCents: int64Ptr(-5)})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestCatalogHidesInactiveProducts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	visible, err := svc.Create(ctx, domain.CreateRequest{Name: "Beijinho", PriceCents: int64Ptr(300)})
	require.NoError(t, err)
	hidden, err := svc.Create(ctx, domain.CreateRequest{Name: "Cajuzinho", Active: boolPtr(false)})
	require.NoError(t, err)

	catalog, err := svc.Catalog(ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, visible.ID, catalog[0].ID.String())

	all, err := svc.List(ctx, domain.ListRequest{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.Lookup(ctx, hidden.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	found, err := svc.Lookup(ctx, visible.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), *found.PriceCents)
}

func TestDeleteAndInvalidIDs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "Pão de Mel"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), domain.ErrNotFound)

	_, err = svc.Get(ctx, "not-an-id")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
