package service

import (
	"context"
	"errors"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/internal/notification"
	"github.com/smallbiznis/confeitaria/internal/providers/email"
	"github.com/smallbiznis/confeitaria/internal/quote/domain"
	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Notifier interface {
	QuoteRequested(ctx context.Context, data email.QuoteEmail)
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Notifier *notification.Notifier `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	notifier Notifier
}

func New(p Params) domain.Service {
	s := &Service{
		db:    p.DB,
		log:   p.Log.Named("quote.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
	if p.Notifier != nil {
		s.notifier = p.Notifier
	}
	return s
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.QuoteRequest, error) {
	now := time.Now().UTC()
	quote := &domain.QuoteRequest{
		ID:              s.genID.Generate(),
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:           strings.TrimSpace(req.Phone),
		Company:         strings.TrimSpace(req.Company),
		ProductInterest: strings.TrimSpace(req.ProductInterest),
		Quantity:        strings.TrimSpace(req.Quantity),
		Message:         strings.TrimSpace(req.Message),
		Status:          domain.StatusNew,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var errs []error
	if quote.Name == "" {
		errs = append(errs, domain.ErrInvalidName)
	}
	if _, err := mail.ParseAddress(quote.Email); quote.Email == "" || err != nil {
		errs = append(errs, domain.ErrInvalidEmail)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, s.db, quote); err != nil {
		return nil, err
	}
	s.log.Info("quote request stored", zap.String("quote_id", quote.ID.String()))

	if s.notifier != nil {
		s.notifier.QuoteRequested(ctx, email.QuoteEmail{
			Name:            quote.Name,
			Email:           quote.Email,
			Phone:           quote.Phone,
			Company:         quote.Company,
			ProductInterest: quote.ProductInterest,
			Quantity:        quote.Quantity,
			Message:         quote.Message,
		})
	}
	return quote, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	if req.Status != "" && !req.Status.Valid() {
		return domain.ListResponse{}, domain.ErrInvalidStatus
	}
	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return domain.ListResponse{}, err
	}
	limit := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}.Limit()

	items, err := s.repo.List(ctx, s.db, req.Status, cursor, limit)
	if err != nil {
		return domain.ListResponse{}, err
	}
	items, pageInfo, err := pagination.Page(items, limit, func(q *domain.QuoteRequest) pagination.Cursor {
		return pagination.Cursor{
			ID:        strconv.FormatInt(q.ID.Int64(), 10),
			CreatedAt: q.CreatedAt.Format(time.RFC3339),
		}
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	quotes := make([]domain.QuoteRequest, 0, len(items))
	for _, item := range items {
		quotes = append(quotes, *item)
	}
	return domain.ListResponse{PageInfo: pageInfo, Quotes: quotes}, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.QuoteRequest, error) {
	quoteID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || quoteID == 0 {
		return nil, domain.ErrInvalidID
	}
	status = domain.Status(strings.ToLower(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	updated, err := s.repo.UpdateStatus(ctx, s.db, quoteID, status, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domain.ErrNotFound
	}
	return s.repo.FindByID(ctx, s.db, quoteID)
}
