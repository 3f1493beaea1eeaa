package service

import (
	"context"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/internal/newsletter/domain"
	"github.com/smallbiznis/confeitaria/pkg/db"
	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
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
		log:   p.Log.Named("newsletter.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Subscribe(ctx context.Context, req domain.SubscribeRequest) (*domain.Subscriber, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, domain.ErrInvalidEmail
	}
	name := strings.TrimSpace(req.Name)
	now := time.Now().UTC()

	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.reactivate(ctx, existing, name, now)
	}

	subscriber := &domain.Subscriber{
		ID:        s.genID.Generate(),
		Email:     email,
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if insertErr := s.repo.Insert(ctx, s.db, subscriber); insertErr != nil {
		if !db.IsDuplicateKeyErr(insertErr) {
			return nil, insertErr
		}
		// Lost a race with a concurrent signup for the same address.
		existing, err := s.repo.FindByEmail(ctx, s.db, email)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, insertErr
		}
		return s.reactivate(ctx, existing, name, now)
	}

	s.log.Info("newsletter subscription created", zap.String("subscriber_id", subscriber.ID.String()))
	return subscriber, nil
}

func (s *Service) reactivate(ctx context.Context, existing *domain.Subscriber, name string, now time.Time) (*domain.Subscriber, error) {
	if existing.Active && (name == "" || name == existing.Name) {
		return existing, nil
	}
	if name != "" {
		existing.Name = name
	}
	existing.Active = true
	existing.UpdatedAt = now
	if err := s.repo.Reactivate(ctx, s.db, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return domain.ListResponse{}, err
	}
	limit := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}.Limit()

	items, err := s.repo.List(ctx, s.db, req.ActiveOnly, cursor, limit)
	if err != nil {
		return domain.ListResponse{}, err
	}
	items, pageInfo, err := pagination.Page(items, limit, func(sub *domain.Subscriber) pagination.Cursor {
		return pagination.Cursor{
			ID:        strconv.FormatInt(sub.ID.Int64(), 10),
			CreatedAt: sub.CreatedAt.Format(time.RFC3339),
		}
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	subscribers := make([]domain.Subscriber, 0, len(items))
	for _, item := range items {
		subscribers = append(subscribers, *item)
	}
	return domain.ListResponse{PageInfo: pageInfo, Subscribers: subscribers}, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	subscriberID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || subscriberID == 0 {
		return domain.ErrInvalidID
	}
	deleted, err := s.repo.Delete(ctx, s.db, subscriberID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}
