package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/confeitaria/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxSlugAttempts = 50

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
	repo  domain.Repository
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("product.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	items, err := s.Catalog(ctx, req)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Catalog(ctx context.Context, req domain.ListRequest) ([]domain.Product, error) {
	return s.repo.List(ctx, s.db, domain.ListFilter{
		ActiveOnly:   !req.IncludeInactive,
		FeaturedOnly: req.FeaturedOnly,
		Category:     strings.TrimSpace(req.Category),
		Search:       strings.TrimSpace(req.Search),
		Limit:        req.Limit,
	})
}

func (s *Service) Lookup(ctx context.Context, id string) (*domain.Product, error) {
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if item == nil || !item.Active {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.PriceCents != nil && *req.PriceCents < 0 {
		return nil, domain.ErrInvalidPrice
	}

	base := strings.TrimSpace(req.Slug)
	if base == "" {
		base = name
	}
	productID := s.genID.Generate()
	productSlug, err := s.uniqueSlug(ctx, base, productID)
	if err != nil {
		return nil, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := time.Now().UTC()
	p := &domain.Product{
		ID:              productID,
		Name:            name,
		Slug:            productSlug,
		Category:        strings.TrimSpace(req.Category),
		Description:     trimmedPtr(req.Description),
		WeightGrams:     req.WeightGrams,
		UnitsPerPackage: req.UnitsPerPackage,
		PriceCents:      req.PriceCents,
		ImageURL:        trimmedPtr(req.ImageURL),
		Active:          active,
		Featured:        req.Featured,
		DisplayOrder:    req.DisplayOrder,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Insert(ctx, s.db, p); err != nil {
		return nil, err
	}

	s.log.Info("product created", zap.String("product_id", p.ID.String()), zap.String("slug", p.Slug))
	resp := toResponse(p)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	productID, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Category != nil {
		item.Category = strings.TrimSpace(*req.Category)
	}
	if req.Description != nil {
		item.Description = trimmedPtr(req.Description)
	}
	if req.WeightGrams != nil {
		item.WeightGrams = req.WeightGrams
	}
	if req.UnitsPerPackage != nil {
		item.UnitsPerPackage = req.UnitsPerPackage
	}
	switch {
	case req.ClearPrice:
		item.PriceCents = nil
	case req.PriceCents != nil:
		if *req.PriceCents < 0 {
			return nil, domain.ErrInvalidPrice
		}
		price := *req.PriceCents
		item.PriceCents = &price
	}
	if req.ImageURL != nil {
		item.ImageURL = trimmedPtr(req.ImageURL)
	}
	if req.Active != nil {
		item.Active = *req.Active
	}
	if req.Featured != nil {
		item.Featured = *req.Featured
	}
	if req.DisplayOrder != nil {
		item.DisplayOrder = *req.DisplayOrder
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	productID, err := parseID(id)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, s.db, productID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	s.log.Info("product deleted", zap.String("product_id", productID.String()))
	return nil
}

func (s *Service) uniqueSlug(ctx context.Context, base string, productID snowflake.ID) (string, error) {
	root := slug.Make(base)
	if root == "" {
		return "", domain.ErrInvalidSlug
	}
	candidate := root
	for attempt := 2; attempt <= maxSlugAttempts; attempt++ {
		exists, err := s.repo.SlugExists(ctx, s.db, candidate, productID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", root, attempt)
	}
	return "", domain.ErrInvalidSlug
}

func toResponse(p *domain.Product) domain.Response {
	return domain.Response{
		ID:              p.ID.String(),
		Name:            p.Name,
		Slug:            p.Slug,
		Category:        p.Category,
		Description:     p.Description,
		WeightGrams:     p.WeightGrams,
		UnitsPerPackage: p.UnitsPerPackage,
		PriceCents:      p.PriceCents,
		ImageURL:        p.ImageURL,
		Active:          p.Active,
		Featured:        p.Featured,
		DisplayOrder:    p.DisplayOrder,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
