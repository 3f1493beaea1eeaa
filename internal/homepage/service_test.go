package homepage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/confeitaria/internal/clock"
	"github.com/smallbiznis/confeitaria/internal/config"
	"github.com/smallbiznis/confeitaria/internal/identity"
	"github.com/smallbiznis/confeitaria/internal/pricing"
	productdomain "github.com/smallbiznis/confeitaria/internal/product/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type catalogStub struct {
	calls         int
	viewers       []identity.Viewer
	products      []pricing.PricedProduct
	overrides     pricing.Overrides
	overrideCalls int
	err           error
}

func (c *catalogStub) Catalog(_ context.Context, viewer identity.Viewer, _ productdomain.ListRequest) ([]pricing.PricedProduct, error) {
	c.calls++
	c.viewers = append(c.viewers, viewer)
	return c.products, c.err
}

func (c *catalogStub) OverridesFor(_ context.Context, viewer identity.Viewer) pricing.Overrides {
	if viewer.Anonymous() {
		return nil
	}
	c.overrideCalls++
	return c.overrides
}

func price(v int64) *int64 { return &v }

func newHomepage(t *testing.T, stub *catalogStub) (*Service, *clock.FakeClock) {
	t.Helper()
	settings := config.DefaultStoreSettings()
	settings.FeaturedLimit = 2
	settings.HomepageTTL = 10 * time.Minute
	fake := clock.NewFakeClock(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	return NewService(zaptest.NewLogger(t), stub, config.NewStaticStoreSettings(settings), fake), fake
}

func TestHomepageIsCachedUntilTTL(t *testing.T) {
	stub := &catalogStub{products: []pricing.PricedProduct{
		{ID: "1", Name: "Bolo de cenoura", Category: "bolos", Featured: true, Resolution: pricing.Resolve(1, price(4500), nil)},
		{ID: "2", Name: "Brigadeiro", Category: "doces", Featured: true, Resolution: pricing.Resolve(2, price(350), nil)},
		{ID: "3", Name: "Beijinho", Category: "doces", Featured: true, Resolution: pricing.Resolve(3, nil, nil)},
		{ID: "4", Name: "Torta", Category: "tortas"},
	}}
	svc, fake := newHomepage(t, stub)
	ctx := context.Background()

	page, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Len(t, page.Featured, 2)
	assert.Equal(t, []string{"bolos", "doces", "tortas"}, page.Categories)
	assert.True(t, stub.viewers[0].Anonymous())

	_, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)

	fake.Advance(10 * time.Minute)
	_, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stub.calls)
}

func TestInvalidateForcesRebuild(t *testing.T) {
	stub := &catalogStub{}
	svc, _ := newHomepage(t, stub)
	ctx := context.Background()

	_, err := svc.Get(ctx)
	require.NoError(t, err)
	svc.Invalidate()
	_, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stub.calls)
}

func TestHomepageErrorsAreNotCached(t *testing.T) {
	stub := &catalogStub{err: errors.New("db down")}
	svc, _ := newHomepage(t, stub)

	_, err := svc.Get(context.Background())
	require.Error(t, err)

	stub.err = nil
	page, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, page.Featured)
}

func TestClientViewerSeesNegotiatedPrices(t *testing.T) {
	stub := &catalogStub{
		products: []pricing.PricedProduct{
			{ID: "1", Name: "Bolo de cenoura", Featured: true, Resolution: pricing.Resolve(1, price(4500), nil)},
			{ID: "2", Name: "Beijinho", Featured: true, Resolution: pricing.Resolve(2, nil, nil)},
		},
		overrides: pricing.Overrides{1: 3900, 2: 120},
	}
	svc, _ := newHomepage(t, stub)

	anon, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stub.overrideCalls)
	assert.Equal(t, pricing.SourceDefault, anon.Featured[0].Source)

	ctx := identity.WithViewer(context.Background(), identity.Viewer{UserID: 7, ClientID: 42, Role: identity.RoleClient})
	page, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, 1, stub.overrideCalls)

	require.Len(t, page.Featured, 2)
	assert.Equal(t, pricing.SourceOverride, page.Featured[0].Source)
	assert.Equal(t, int64(3900), *page.Featured[0].PriceCents)
	assert.Equal(t, pricing.SourceOverride, page.Featured[1].Source)
	assert.Equal(t, int64(120), *page.Featured[1].PriceCents)

	again, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pricing.SourceDefault, again.Featured[0].Source)
	assert.Equal(t, int64(4500), *again.Featured[0].PriceCents)
	assert.True(t, again.Featured[1].OnRequest())
}
