// Package homepage assembles the public landing page payload. One copy priced
// for anonymous visitors is cached; client viewers get their negotiated
// prices applied on top per request.
package homepage

import (
	"context"
	"sort"
	"time"

	"github.com/smallbiznis/confeitaria/internal/cache"
	"github.com/smallbiznis/confeitaria/internal/clock"
	"github.com/smallbiznis/confeitaria/internal/config"
	"github.com/smallbiznis/confeitaria/internal/identity"
	"github.com/smallbiznis/confeitaria/internal/pricing"
	productdomain "github.com/smallbiznis/confeitaria/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const cacheKey = "homepage"

type Catalog interface {
	Catalog(ctx context.Context, viewer identity.Viewer, filter productdomain.ListRequest) ([]pricing.PricedProduct, error)
	OverridesFor(ctx context.Context, viewer identity.Viewer) pricing.Overrides
}

type Page struct {
	ShopName    string                  `json:"shop_name"`
	Featured    []pricing.PricedProduct `json:"featured"`
	Categories  []string                `json:"categories"`
	GeneratedAt time.Time               `json:"generated_at"`
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Pricing  *pricing.Service
	Settings *config.StoreSettingsHolder
	Clock    clock.Clock `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	catalog  Catalog
	settings *config.StoreSettingsHolder
	clock    clock.Clock
	cache    cache.Cache[string, *Page]
}

func New(p Params) *Service {
	return NewService(p.Log, p.Pricing, p.Settings, p.Clock)
}

func NewService(log *zap.Logger, catalog Catalog, settings *config.StoreSettingsHolder, c clock.Clock) *Service {
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Service{
		log:      log.Named("homepage.service"),
		catalog:  catalog,
		settings: settings,
		clock:    c,
		cache:    cache.NewTTLCacheWithClock[string, *Page](c),
	}
}

// Get returns the page priced for the viewer on ctx.
func (s *Service) Get(ctx context.Context) (*Page, error) {
	page, err := s.anonymousPage(ctx)
	if err != nil {
		return nil, err
	}

	viewer := identity.ViewerFromContext(ctx)
	if viewer.Anonymous() {
		return page, nil
	}
	overrides := s.catalog.OverridesFor(ctx, viewer)
	if len(overrides) == 0 {
		return page, nil
	}

	priced := *page
	priced.Featured = pricing.Reprice(page.Featured, overrides)
	return &priced, nil
}

func (s *Service) anonymousPage(ctx context.Context) (*Page, error) {
	if page, ok := s.cache.Get(cacheKey); ok {
		return page, nil
	}

	settings := s.settings.Get()
	anonymous := identity.Viewer{}

	products, err := s.catalog.Catalog(ctx, anonymous, productdomain.ListRequest{})
	if err != nil {
		return nil, err
	}

	featured := make([]pricing.PricedProduct, 0, settings.FeaturedLimit)
	seen := map[string]struct{}{}
	categories := make([]string, 0)
	for _, p := range products {
		if p.Featured && len(featured) < settings.FeaturedLimit {
			featured = append(featured, p)
		}
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; !ok {
			seen[p.Category] = struct{}{}
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)

	page := &Page{
		ShopName:    settings.ShopName,
		Featured:    featured,
		Categories:  categories,
		GeneratedAt: s.clock.Now(),
	}
	s.cache.Set(cacheKey, page, settings.HomepageTTL)
	return page, nil
}

// Invalidate drops the cached page so the next Get rebuilds it.
func (s *Service) Invalidate() {
	s.cache.Purge()
	s.log.Info("homepage cache invalidated")
}

var Module = fx.Module("homepage.service",
	fx.Provide(New),
)
