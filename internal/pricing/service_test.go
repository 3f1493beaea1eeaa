package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	clientpricedomain "github.com/smallbiznis/confeitaria/internal/clientprice/domain"
	"github.com/smallbiznis/confeitaria/internal/identity"
	"github.com/smallbiznis/confeitaria/internal/observability/metrics"
	productdomain "github.com/smallbiznis/confeitaria/internal/product/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

type overrideSpy struct {
	calls     int
	overrides map[snowflake.ID]int64
	err       error
}

func (s *overrideSpy) OverridesFor(ctx context.Context, clientID snowflake.ID) (map[snowflake.ID]int64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.overrides, nil
}

type productStub struct {
	items []productdomain.Product
}

func (p *productStub) Catalog(ctx context.Context, req productdomain.ListRequest) ([]productdomain.Product, error) {
	return p.items, nil
}

func (p *productStub) Lookup(ctx context.Context, id string) (*productdomain.Product, error) {
	for i := range p.items {
		if p.items[i].ID.String() == id {
			return &p.items[i], nil
		}
	}
	return nil, productdomain.ErrNotFound
}

func price(v int64) *int64 { return &v }

func catalogFixture() *productStub {
	return &productStub{items: []productdomain.Product{
		{ID: 1, Name: "Brigadeiro", PriceCents: price(300), Active: true},
		{ID: 2, Name: "Bolo de festa", Active: true},
		{ID: 3, Name: "Trufa", PriceCents: price(450), Active: true},
	}}
}

func TestAnonymousViewerNeverLoadsOverrides(t *testing.T) {
	spy := &overrideSpy{overrides: map[snowflake.ID]int64{1: 1}}
	svc := NewService(zaptest.NewLogger(t), catalogFixture(), spy, nil)
	ctx := context.Background()

	viewers := []identity.Viewer{
		{},
		{UserID: 10, Role: identity.RoleClient},
		{UserID: 11, Role: identity.RoleAdmin},
	}
	for _, viewer := range viewers {
		items, err := svc.Catalog(ctx, viewer, productdomain.ListRequest{})
		require.NoError(t, err)
		assert.Equal(t, int64(300), *items[0].PriceCents)

		_, err = svc.Product(ctx, viewer, "3")
		require.NoError(t, err)
	}
	assert.Zero(t, spy.calls)
}

func TestClientViewerSeesOverrides(t *testing.T) {
	spy := &overrideSpy{overrides: map[snowflake.ID]int64{1: 250, 2: 9000}}
	svc := NewService(zaptest.NewLogger(t), catalogFixture(), spy, nil)
	viewer := identity.Viewer{UserID: 10, Role: identity.RoleClient, ClientID: 99}

	items, err := svc.Catalog(context.Background(), viewer, productdomain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, int64(250), *items[0].PriceCents)
	assert.Equal(t, SourceOverride, items[0].Source)
	assert.Equal(t, int64(9000), *items[1].PriceCents)
	assert.Equal(t, int64(450), *items[2].PriceCents)
	assert.Equal(t, SourceDefault, items[2].Source)
	assert.Equal(t, 1, spy.calls)

	p, err := svc.Product(context.Background(), viewer, "2")
	require.NoError(t, err)
	assert.Equal(t, int64(9000), *p.PriceCents)
}

func TestClientPricesCarryDefaultAndSource(t *testing.T) {
	svc := NewService(zaptest.NewLogger(t), catalogFixture(), &overrideSpy{}, nil)
	items := []clientpricedomain.ClientProductPrice{
		{ID: 500, ClientID: 99, ProductID: 1, PriceCents: 250},
		{ID: 501, ClientID: 99, ProductID: 2, PriceCents: 9000},
	}

	rows, err := svc.ClientPrices(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Brigadeiro", rows[0].ProductName)
	require.NotNil(t, rows[0].DefaultPriceCents)
	assert.Equal(t, int64(300), *rows[0].DefaultPriceCents)
	assert.Equal(t, SourceOverride, rows[0].Resolution.Source)
	assert.Equal(t, int64(250), *rows[0].Resolution.PriceCents)

	assert.Nil(t, rows[1].DefaultPriceCents)
	assert.Equal(t, int64(9000), *rows[1].Resolution.PriceCents)
	assert.Equal(t, snowflake.ID(501), rows[1].ID)

	empty, err := svc.ClientPrices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOverrideFailureFallsBackToDefaults(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := metrics.New(metrics.Config{ServiceName: "test"}, provider)
	require.NoError(t, err)

	spy := &overrideSpy{err: errors.New("connection refused")}
	svc := NewService(zaptest.NewLogger(t), catalogFixture(), spy, m)
	viewer := identity.Viewer{UserID: 10, Role: identity.RoleClient, ClientID: 99}

	items, err := svc.Catalog(context.Background(), viewer, productdomain.ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(300), *items[0].PriceCents)
	assert.Nil(t, items[1].PriceCents)
	assert.Equal(t, SourceOnRequest, items[1].Source)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.Equal(t, int64(1), counterValue(rm, "storefront_price_override_fallbacks_total"))
}

func counterValue(rm metricdata.ResourceMetrics, name string) int64 {
	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}
