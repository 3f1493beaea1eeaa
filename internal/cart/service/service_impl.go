package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/confeitaria/internal/cart/domain"
	"github.com/smallbiznis/confeitaria/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Store   domain.Store
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	store   domain.Store
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("cart.service"),
		store:   p.Store,
		metrics: p.Metrics,
	}
}

// NewCartID returns a fresh opaque cart id for the cart cookie.
func NewCartID() string {
	return ulid.Make().String()
}

// ValidCartID reports whether id looks like a cart id issued by NewCartID.
func ValidCartID(id string) bool {
	_, err := ulid.ParseStrict(strings.TrimSpace(id))
	return err == nil
}

func (s *Service) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	return s.load(ctx, cartID)
}

func (s *Service) Add(ctx context.Context, cartID string, line domain.Line, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, cartID, "add", func(c *domain.Cart) error {
		return c.Add(line, quantity)
	})
}

func (s *Service) Remove(ctx context.Context, cartID string, productID snowflake.ID) (*domain.Cart, error) {
	return s.mutate(ctx, cartID, "remove", func(c *domain.Cart) error {
		c.Remove(productID)
		return nil
	})
}

func (s *Service) UpdateQuantity(ctx context.Context, cartID string, productID snowflake.ID, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, cartID, "update_quantity", func(c *domain.Cart) error {
		return c.UpdateQuantity(productID, quantity)
	})
}

func (s *Service) Clear(ctx context.Context, cartID string) error {
	_, err := s.mutate(ctx, cartID, "clear", func(c *domain.Cart) error {
		c.Clear()
		return nil
	})
	return err
}

func (s *Service) load(ctx context.Context, cartID string) (*domain.Cart, error) {
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		return nil, domain.ErrInvalidCart
	}
	lines, err := s.store.Get(ctx, cartID)
	if err != nil {
		s.log.Error("failed to load cart", zap.String("cart_id", cartID), zap.Error(err))
		return nil, err
	}
	return &domain.Cart{ID: cartID, Lines: lines}, nil
}

// mutate is load, apply, save. The full line set is written back on every
// change.
func (s *Service) mutate(ctx context.Context, cartID, op string, apply func(*domain.Cart) error) (*domain.Cart, error) {
	cart, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := apply(cart); err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, cart.ID, cart.Lines); err != nil {
		s.log.Error("failed to save cart", zap.String("cart_id", cart.ID), zap.String("operation", op), zap.Error(err))
		return nil, err
	}
	s.metrics.RecordCartMutation(ctx, op)
	return cart, nil
}
