package service

import (
	"context"
	"errors"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/internal/contact/domain"
	"github.com/smallbiznis/confeitaria/internal/notification"
	"github.com/smallbiznis/confeitaria/internal/providers/email"
	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Notifier interface {
	ContactReceived(ctx context.Context, data email.ContactEmail)
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
		log:   p.Log.Named("contact.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
	if p.Notifier != nil {
		s.notifier = p.Notifier
	}
	return s
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Message, error) {
	msg := &domain.Message{
		ID:        s.genID.Generate(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     strings.TrimSpace(req.Phone),
		Subject:   strings.TrimSpace(req.Subject),
		Message:   strings.TrimSpace(req.Message),
		CreatedAt: time.Now().UTC(),
	}

	var errs []error
	if msg.Name == "" {
		errs = append(errs, domain.ErrInvalidName)
	}
	if _, err := mail.ParseAddress(msg.Email); msg.Email == "" || err != nil {
		errs = append(errs, domain.ErrInvalidEmail)
	}
	if msg.Message == "" {
		errs = append(errs, domain.ErrInvalidMessage)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, s.db, msg); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.ContactReceived(ctx, email.ContactEmail{
			Name:    msg.Name,
			Email:   msg.Email,
			Phone:   msg.Phone,
			Subject: msg.Subject,
			Message: msg.Message,
		})
	}
	return msg, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return domain.ListResponse{}, err
	}
	limit := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}.Limit()

	items, err := s.repo.List(ctx, s.db, cursor, limit)
	if err != nil {
		return domain.ListResponse{}, err
	}
	items, pageInfo, err := pagination.Page(items, limit, func(m *domain.Message) pagination.Cursor {
		return pagination.Cursor{
			ID:        strconv.FormatInt(m.ID.Int64(), 10),
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		}
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	messages := make([]domain.Message, 0, len(items))
	for _, item := range items {
		messages = append(messages, *item)
	}
	return domain.ListResponse{PageInfo: pageInfo, Messages: messages}, nil
}
