package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/internal/audit/domain"
	"github.com/smallbiznis/confeitaria/internal/audit/masking"
	"github.com/smallbiznis/confeitaria/internal/clock"
	"github.com/smallbiznis/confeitaria/internal/identity"
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
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	clock clock.Clock
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: c,
	}
}

func (s *Service) Record(ctx context.Context, entry domain.Entry) error {
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return domain.ErrInvalidAction
	}

	targetType := strings.TrimSpace(entry.TargetType)
	if targetType == "" {
		targetType = "unknown"
	}

	row := domain.AuditLog{
		ID:         s.genID.Generate(),
		ActorRole:  domain.ActorRoleSystem,
		Action:     action,
		TargetType: targetType,
		TargetID:   normalize(entry.TargetID),
		CreatedAt:  s.clock.Now().UTC(),
	}

	if viewer := identity.ViewerFromContext(ctx); viewer.Authenticated() {
		actorID := viewer.UserID
		row.ActorID = &actorID
		row.ActorRole = viewer.Role
	}
	if metadata := masking.MaskJSON(entry.Metadata); len(metadata) > 0 {
		row.Metadata = datatypes.JSONMap(metadata)
	}
	ip, userAgent := domain.RequestFromContext(ctx)
	row.IPAddress = normalize(ip)
	row.UserAgent = normalize(userAgent)

	if err := s.repo.Insert(ctx, s.db, &row); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return domain.ListResponse{}, err
	}
	limit := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}.Limit()

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		Action:     req.Action,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
	}, cursor, limit)
	if err != nil {
		return domain.ListResponse{}, err
	}
	items, pageInfo, err := pagination.Page(items, limit, func(item *domain.AuditLog) pagination.Cursor {
		return pagination.Cursor{
			ID:        strconv.FormatInt(item.ID.Int64(), 10),
			CreatedAt: item.CreatedAt.Format(time.RFC3339),
		}
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	logs := make([]domain.AuditLog, 0, len(items))
	for _, item := range items {
		logs = append(logs, *item)
	}
	return domain.ListResponse{PageInfo: pageInfo, AuditLogs: logs}, nil
}

func normalize(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
