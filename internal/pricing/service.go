package pricing

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	clientpricedomain "github.com/smallbiznis/confeitaria/internal/clientprice/domain"
	"github.com/smallbiznis/confeitaria/internal/identity"
	"github.com/smallbiznis/confeitaria/internal/observability/metrics"
	productdomain "github.com/smallbiznis/confeitaria/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// OverrideSource loads the negotiated prices of a client.
type OverrideSource interface {
	OverridesFor(ctx context.Context, clientID snowflake.ID) (map[snowflake.ID]int64, error)
}

// ProductSource reads the catalog.
type ProductSource interface {
	Catalog(ctx context.Context, req productdomain.ListRequest) ([]productdomain.Product, error)
	Lookup(ctx context.Context, id string) (*productdomain.Product, error)
}

// PricedProduct is a catalog entry with the price resolved for a viewer.
type PricedProduct struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Category        string    `json:"category"`
	Description     *string   `json:"description,omitempty"`
	WeightGrams     *int32    `json:"weight_grams,omitempty"`
	UnitsPerPackage *int32    `json:"units_per_package,omitempty"`
	ImageURL        *string   `json:"image_url,omitempty"`
	Featured        bool      `json:"featured"`
	DisplayOrder    int       `json:"display_order"`
	UpdatedAt       time.Time `json:"updated_at"`
	Resolution
}

// ClientPrice is a negotiated price shown next to the default it replaces.
type ClientPrice struct {
	clientpricedomain.ClientProductPrice
	ProductName       string     `json:"product_name"`
	DefaultPriceCents *int64     `json:"default_price_cents"`
	Resolution        Resolution `json:"resolution"`
}

type Params struct {
	fx.In

	Log       *zap.Logger
	Products  productdomain.Service
	Overrides clientpricedomain.Service
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	products  ProductSource
	overrides OverrideSource
	metrics   *metrics.Metrics
}

func New(p Params) *Service {
	return NewService(p.Log, p.Products, p.Overrides, p.Metrics)
}

func NewService(log *zap.Logger, products ProductSource, overrides OverrideSource, m *metrics.Metrics) *Service {
	return &Service{
		log:       log.Named("pricing.service"),
		products:  products,
		overrides: overrides,
		metrics:   m,
	}
}

// OverridesFor never fails. Anonymous viewers skip the lookup entirely and a
// failed lookup degrades to default pricing.
func (s *Service) OverridesFor(ctx context.Context, viewer identity.Viewer) Overrides {
	if viewer.Anonymous() {
		return nil
	}

	overrides, err := s.overrides.OverridesFor(ctx, viewer.ClientID)
	if err != nil {
		s.log.Warn("client price lookup failed, using default prices",
			zap.String("client_id", viewer.ClientID.String()),
			zap.Error(err),
		)
		s.metrics.RecordPriceFallback(ctx, "lookup_failed")
		return nil
	}
	return overrides
}

func (s *Service) PriceFor(ctx context.Context, viewer identity.Viewer, product productdomain.Product) Resolution {
	return Resolve(product.ID, product.PriceCents, s.OverridesFor(ctx, viewer))
}

func (s *Service) Catalog(ctx context.Context, viewer identity.Viewer, filter productdomain.ListRequest) ([]PricedProduct, error) {
	filter.IncludeInactive = false
	items, err := s.products.Catalog(ctx, filter)
	if err != nil {
		return nil, err
	}

	overrides := s.OverridesFor(ctx, viewer)
	out := make([]PricedProduct, 0, len(items))
	for _, item := range items {
		out = append(out, priced(item, Resolve(item.ID, item.PriceCents, overrides)))
	}
	return out, nil
}

func (s *Service) Product(ctx context.Context, viewer identity.Viewer, id string) (*PricedProduct, error) {
	item, err := s.products.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	p := priced(*item, s.PriceFor(ctx, viewer, *item))
	return &p, nil
}

// ClientPrices resolves each override of one client against the current
// catalog, inactive products included.
func (s *Service) ClientPrices(ctx context.Context, items []clientpricedomain.ClientProductPrice) ([]ClientPrice, error) {
	out := make([]ClientPrice, 0, len(items))
	if len(items) == 0 {
		return out, nil
	}

	products, err := s.products.Catalog(ctx, productdomain.ListRequest{IncludeInactive: true})
	if err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]productdomain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	overrides := make(Overrides, len(items))
	for _, item := range items {
		overrides[item.ProductID] = item.PriceCents
	}

	for _, item := range items {
		row := ClientPrice{ClientProductPrice: item}
		if p, ok := byID[item.ProductID]; ok {
			row.ProductName = p.Name
			if p.PriceCents != nil {
				def := *p.PriceCents
				row.DefaultPriceCents = &def
			}
		}
		row.Resolution = Resolve(item.ProductID, row.DefaultPriceCents, overrides)
		out = append(out, row)
	}
	return out, nil
}

func priced(p productdomain.Product, r Resolution) PricedProduct {
	return PricedProduct{
		ID:              p.ID.String(),
		Name:            p.Name,
		Slug:            p.Slug,
		Category:        p.Category,
		Description:     p.Description,
		WeightGrams:     p.WeightGrams,
		UnitsPerPackage: p.UnitsPerPackage,
		ImageURL:        p.ImageURL,
		Featured:        p.Featured,
		DisplayOrder:    p.DisplayOrder,
		UpdatedAt:       p.UpdatedAt,
		Resolution:      r,
	}
}
