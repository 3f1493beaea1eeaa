package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	cartdomain "github.com/smallbiznis/confeitaria/internal/cart/domain"
	cartservice "github.com/smallbiznis/confeitaria/internal/cart/service"
	cartstore "github.com/smallbiznis/confeitaria/internal/cart/store"
	clientpricedomain "github.com/smallbiznis/confeitaria/internal/clientprice/domain"
	clientpricerepo "github.com/smallbiznis/confeitaria/internal/clientprice/repository"
	clientpriceservice "github.com/smallbiznis/confeitaria/internal/clientprice/service"
	"github.com/smallbiznis/confeitaria/internal/identity"
	"github.com/smallbiznis/confeitaria/internal/order/domain"
	"github.com/smallbiznis/confeitaria/internal/pricing"
	productdomain "github.com/smallbiznis/confeitaria/internal/product/domain"
	productrepo "github.com/smallbiznis/confeitaria/internal/product/repository"
	productservice "github.com/smallbiznis/confeitaria/internal/product/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const scenarioProductSchema = `CREATE TABLE products (
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

const scenarioClientPriceSchema = `CREATE TABLE client_product_prices (
	id INTEGER PRIMARY KEY,
	client_id INTEGER NOT NULL,
	product_id INTEGER NOT NULL,
	price_cents INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE (client_id, product_id)
)`

// A negotiated price flows from catalog to cart to order, and the stored
// order keeps it after the negotiation and the list price change.
func TestClientOrderKeepsNegotiatedPrice(t *testing.T) {
	f := setupOrderService(t, scenarioProductSchema, scenarioClientPriceSchema)
	log := zaptest.NewLogger(t)
	ctx := context.Background()

	products := productservice.New(productservice.Params{DB: f.db, Log: log, GenID: f.node, Repo: productrepo.Provide()})
	prices := clientpriceservice.New(clientpriceservice.Params{DB: f.db, Log: log, GenID: f.node, Repo: clientpricerepo.Provide()})
	resolver := pricing.NewService(log, products, prices, nil)
	carts := cartservice.New(cartservice.Params{Log: log, Store: cartstore.NewMemoryStore()})

	listPrice := int64(1000)
	product, err := products.Create(ctx, productdomain.CreateRequest{Name: "Caixa de trufas", PriceCents: &listPrice})
	require.NoError(t, err)

	clientID := f.node.Generate()
	negotiated := int64(850)
	_, err = prices.Upsert(ctx, clientpricedomain.UpsertRequest{
		ClientID:   clientID.String(),
		ProductID:  product.ID,
		PriceCents: &negotiated,
	})
	require.NoError(t, err)

	viewer := identity.Viewer{UserID: f.node.Generate(), Role: identity.RoleClient, ClientID: clientID}
	viewerCtx := identity.WithViewer(ctx, viewer)

	catalog, err := resolver.Catalog(viewerCtx, viewer, productdomain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, int64(850), *catalog[0].PriceCents)

	anonymous, err := resolver.Product(ctx, identity.Viewer{}, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), *anonymous.PriceCents)

	priced, err := resolver.Product(viewerCtx, viewer, product.ID)
	require.NoError(t, err)

	cartID := cartservice.NewCartID()
	productID, err := snowflake.ParseString(priced.ID)
	require.NoError(t, err)
	line := cartdomain.Line{ProductID: productID, Name: priced.Name, UnitPriceCents: priced.PriceCents}
	cart, err := carts.Add(viewerCtx, cartID, line, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1700), cart.TotalCents())

	order, err := f.svc.Submit(viewerCtx, domain.SubmitRequest{Contact: validContact(), Items: cart.Lines})
	require.NoError(t, err)
	assert.Equal(t, int64(1700), order.TotalCents)

	require.NoError(t, prices.Delete(ctx, clientID.String(), product.ID))
	newPrice := int64(2000)
	_, err = products.Update(ctx, productdomain.UpdateRequest{ID: product.ID, PriceCents: &newPrice})
	require.NoError(t, err)

	stored, err := f.svc.Get(ctx, order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(1700), stored.TotalCents)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, int64(850), *stored.Items[0].UnitPriceCents)

	repriced, err := resolver.Product(viewerCtx, viewer, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), *repriced.PriceCents)
}
