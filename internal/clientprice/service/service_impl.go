package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/internal/clientprice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("clientprice.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) List(ctx context.Context, clientID string) ([]domain.ClientProductPrice, error) {
	id, err := parseID(clientID, domain.ErrInvalidClient)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByClient(ctx, s.db, id)
}

func (s *Service) Upsert(ctx context.Context, req domain.UpsertRequest) (domain.ClientProductPrice, error) {
	clientID, err := parseID(req.ClientID, domain.ErrInvalidClient)
	if err != nil {
		return domain.ClientProductPrice{}, err
	}
	productID, err := parseID(req.ProductID, domain.ErrInvalidProduct)
	if err != nil {
		return domain.ClientProductPrice{}, err
	}
	if req.PriceCents == nil || *req.PriceCents < 0 {
		return domain.ClientProductPrice{}, domain.ErrInvalidPrice
	}

	now := time.Now().UTC()
	price := domain.ClientProductPrice{
		ID:         s.genID.Generate(),
		ClientID:   clientID,
		ProductID:  productID,
		PriceCents: *req.PriceCents,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Upsert(ctx, s.db, &price); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return domain.ClientProductPrice{}, domain.ErrNotFound
		}
		return domain.ClientProductPrice{}, err
	}

	stored, err := s.repo.Find(ctx, s.db, clientID, productID)
	if err != nil {
		return domain.ClientProductPrice{}, err
	}
	if stored == nil {
		return domain.ClientProductPrice{}, domain.ErrNotFound
	}

	s.log.Info("client price set",
		zap.String("client_id", clientID.String()),
		zap.String("product_id", productID.String()),
		zap.Int64("price_cents", stored.PriceCents),
	)
	return *stored, nil
}

func (s *Service) Delete(ctx context.Context, clientID, productID string) error {
	cid, err := parseID(clientID, domain.ErrInvalidClient)
	if err != nil {
		return err
	}
	pid, err := parseID(productID, domain.ErrInvalidProduct)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, s.db, cid, pid)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) OverridesFor(ctx context.Context, clientID snowflake.ID) (map[snowflake.ID]int64, error) {
	if clientID == 0 {
		return nil, domain.ErrInvalidClient
	}
	items, err := s.repo.ListByClient(ctx, s.db, clientID)
	if err != nil {
		return nil, err
	}

	overrides := make(map[snowflake.ID]int64, len(items))
	for _, item := range items {
		overrides[item.ProductID] = item.PriceCents
	}
	return overrides, nil
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
