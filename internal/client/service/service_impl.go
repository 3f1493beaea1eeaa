package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/internal/client/domain"
	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
		log:   p.Log.Named("client.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// EnsureForUser creates the client row for a user exactly once. Calling it
// again returns the existing row unchanged.
func (s *Service) EnsureForUser(ctx context.Context, req domain.EnsureClientRequest) (domain.Client, error) {
	if req.UserID == 0 {
		return domain.Client{}, domain.ErrInvalidUser
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.Client{}, domain.ErrInvalidEmail
	}

	existing, err := s.repo.FindByUserID(ctx, s.db, req.UserID)
	if err != nil {
		return domain.Client{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	now := time.Now().UTC()
	client := domain.Client{
		ID:          s.genID.Generate(),
		UserID:      req.UserID,
		CompanyName: strings.TrimSpace(req.CompanyName),
		ContactName: strings.TrimSpace(req.ContactName),
		Email:       email,
		Phone:       strings.TrimSpace(req.Phone),
		Active:      true,
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, &client); err != nil {
		return domain.Client{}, err
	}

	s.log.Info("client created",
		zap.String("client_id", client.ID.String()),
		zap.String("user_id", req.UserID.String()),
	)
	return client, nil
}

func (s *Service) List(ctx context.Context, req domain.ListClientRequest) (domain.ListClientResponse, error) {
	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return domain.ListClientResponse{}, err
	}

	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}
	limit := page.Limit()

	items, err := s.repo.List(ctx, s.db, domain.ListClientFilter{
		Search: strings.TrimSpace(req.Search),
		Active: req.Active,
	}, cursor, limit)
	if err != nil {
		return domain.ListClientResponse{}, err
	}

	items, pageInfo, err := pagination.Page(items, limit, func(c *domain.Client) pagination.Cursor {
		return pagination.Cursor{
			ID:        strconv.FormatInt(c.ID.Int64(), 10),
			CreatedAt: c.CreatedAt.Format(time.RFC3339),
		}
	})
	if err != nil {
		return domain.ListClientResponse{}, err
	}

	clients := make([]domain.Client, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		clients = append(clients, *item)
	}

	return domain.ListClientResponse{PageInfo: pageInfo, Clients: clients}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Client, error) {
	clientID, err := s.parseID(id)
	if err != nil {
		return domain.Client{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, clientID)
	if err != nil {
		return domain.Client{}, err
	}
	if item == nil {
		return domain.Client{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateClientRequest) (domain.Client, error) {
	clientID, err := s.parseID(req.ID)
	if err != nil {
		return domain.Client{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, clientID)
	if err != nil {
		return domain.Client{}, err
	}
	if item == nil {
		return domain.Client{}, domain.ErrNotFound
	}

	applyProfile(item, req.ProfileInput)
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" || !strings.Contains(email, "@") {
			return domain.Client{}, domain.ErrInvalidEmail
		}
		item.Email = email
	}
	if req.Active != nil && *req.Active != item.Active {
		item.Active = *req.Active
		s.log.Info("client activation changed",
			zap.String("client_id", item.ID.String()),
			zap.Bool("active", item.Active),
		)
	}
	if req.Metadata != nil {
		item.Metadata = datatypes.JSONMap(req.Metadata)
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return domain.Client{}, err
	}
	return *item, nil
}

func (s *Service) ActiveClientID(ctx context.Context, userID snowflake.ID) (snowflake.ID, error) {
	if userID == 0 {
		return 0, nil
	}
	item, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return 0, err
	}
	if item == nil || !item.Active {
		return 0, nil
	}
	return item.ID, nil
}

func (s *Service) Profile(ctx context.Context, userID snowflake.ID) (domain.Client, error) {
	if userID == 0 {
		return domain.Client{}, domain.ErrInvalidUser
	}
	item, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return domain.Client{}, err
	}
	if item == nil {
		return domain.Client{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID snowflake.ID, input domain.ProfileInput) (domain.Client, error) {
	item, err := s.Profile(ctx, userID)
	if err != nil {
		return domain.Client{}, err
	}

	applyProfile(&item, input)
	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, &item); err != nil {
		return domain.Client{}, err
	}
	return item, nil
}

func applyProfile(c *domain.Client, in domain.ProfileInput) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&c.CompanyName, in.CompanyName)
	set(&c.ContactName, in.ContactName)
	set(&c.Phone, in.Phone)
	set(&c.Document, in.Document)
	set(&c.Street, in.Street)
	set(&c.Number, in.Number)
	set(&c.Complement, in.Complement)
	set(&c.District, in.District)
	set(&c.City, in.City)
	set(&c.State, in.State)
	set(&c.PostalCode, in.PostalCode)
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
