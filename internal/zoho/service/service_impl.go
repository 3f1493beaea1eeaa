package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
	"github.com/smallbiznis/confeitaria/internal/clock"
	obslogger "github.com/smallbiznis/confeitaria/internal/observability/logger"
	"github.com/smallbiznis/confeitaria/internal/observability/metrics"
	zohoclient "github.com/smallbiznis/confeitaria/internal/zoho/client"
	"github.com/smallbiznis/confeitaria/internal/zoho/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OAuthClient is the subset of the Zoho client the service depends on.
type OAuthClient interface {
	Configured() bool
	AuthorizationURL(state string) (string, error)
	ExchangeCode(ctx context.Context, code string) (*zohoclient.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*zohoclient.TokenResponse, error)
	ListAccounts(ctx context.Context, accessToken string) (json.RawMessage, int, error)
}

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Repo         domain.Repository
	Client       OAuthClient
	Clock        clock.Clock
	Metrics      *metrics.Metrics      `optional:"true"`
	StoreMetrics *metrics.StoreMetrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	repo         domain.Repository
	client       OAuthClient
	clock        clock.Clock
	metrics      *metrics.Metrics
	storeMetrics *metrics.StoreMetrics
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("zoho.service"),
		genID:        p.GenID,
		repo:         p.Repo,
		client:       p.Client,
		clock:        c,
		metrics:      p.Metrics,
		storeMetrics: p.StoreMetrics,
	}
}

func (s *Service) AuthorizationURL(state string) (string, error) {
	if !s.client.Configured() {
		return "", domain.ErrNotConfigured
	}
	return s.client.AuthorizationURL(state)
}

func (s *Service) Connect(ctx context.Context, userID snowflake.ID, code string) (*domain.Connection, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	if !s.client.Configured() {
		return nil, domain.ErrNotConfigured
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}

	resp, err := s.client.ExchangeCode(ctx, code)
	if err != nil {
		s.recordUpstream("token", err)
		obslogger.WithContext(ctx, s.log).Warn("zoho code exchange failed", zap.Error(err))
		return nil, domain.ErrAuthRequired
	}
	s.storeMetrics.RecordZohoResponse("token", 200)

	existing, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		s.storeMetrics.RecordPersistenceError("zoho_token_find", err)
		return nil, err
	}
	token := s.apply(existing, userID, resp)
	if err := s.repo.Upsert(ctx, s.db, token); err != nil {
		s.storeMetrics.RecordPersistenceError("zoho_token_upsert", err)
		return nil, err
	}

	s.log.Info("zoho account connected", zap.String("user_id", userID.String()))
	return s.connection(token), nil
}

func (s *Service) AccessToken(ctx context.Context, userID snowflake.ID) (string, error) {
	if userID == 0 {
		return "", domain.ErrInvalidUser
	}
	token, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		s.storeMetrics.RecordPersistenceError("zoho_token_find", err)
		return "", err
	}
	if token == nil {
		return "", domain.ErrAuthRequired
	}
	if token.StateAt(s.clock.Now()) == domain.StateValid {
		return token.AccessToken, nil
	}

	resp, err := s.client.Refresh(ctx, token.RefreshToken)
	if err != nil {
		s.recordUpstream("token", err)
		s.metrics.RecordZohoTokenRefresh(ctx, "failure")
		obslogger.WithContext(ctx, s.log).Warn("zoho token refresh failed",
			zap.String("token_user_id", userID.String()),
			zap.Error(err),
		)
		return "", domain.ErrAuthRequired
	}
	s.storeMetrics.RecordZohoResponse("token", 200)

	refreshed := s.apply(token, userID, resp)
	if err := s.repo.Upsert(ctx, s.db, refreshed); err != nil {
		s.storeMetrics.RecordPersistenceError("zoho_token_upsert", err)
		s.metrics.RecordZohoTokenRefresh(ctx, "failure")
		return "", err
	}
	s.metrics.RecordZohoTokenRefresh(ctx, "success")
	return refreshed.AccessToken, nil
}

func (s *Service) ListAccounts(ctx context.Context, userID snowflake.ID) (json.RawMessage, error) {
	accessToken, err := s.AccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	accounts, status, err := s.client.ListAccounts(ctx, accessToken)
	if status != 0 {
		s.storeMetrics.RecordZohoResponse("accounts", status)
	}
	if err != nil {
		var statusErr *zohoclient.StatusError
		if errors.As(err, &statusErr) {
			return nil, &domain.UpstreamError{Status: statusErr.Status, Body: statusErr.Body}
		}
		obslogger.WithContext(ctx, s.log).Warn("zoho list accounts failed", zap.Error(err))
		return nil, err
	}
	return accounts, nil
}

func (s *Service) Status(ctx context.Context, userID snowflake.ID) (*domain.Connection, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	token, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return &domain.Connection{Connected: false}, nil
	}
	return s.connection(token), nil
}

// apply merges a token response into the stored row. A response without a
// refresh token keeps the stored one.
func (s *Service) apply(existing *domain.Token, userID snowflake.ID, resp *zohoclient.TokenResponse) *domain.Token {
	now := s.clock.Now()
	token := &domain.Token{
		ID:        s.genID.Generate(),
		UserID:    userID,
		CreatedAt: now,
	}
	if existing != nil {
		token.ID = existing.ID
		token.CreatedAt = existing.CreatedAt
		token.RefreshToken = existing.RefreshToken
		token.Scopes = existing.Scopes
	}
	token.AccessToken = resp.AccessToken
	if resp.RefreshToken != "" {
		token.RefreshToken = resp.RefreshToken
	}
	if scopes := resp.Scopes(); len(scopes) > 0 {
		token.Scopes = pq.StringArray(scopes)
	}
	if token.Scopes == nil {
		token.Scopes = pq.StringArray{}
	}
	token.ExpiresAt = now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	token.UpdatedAt = now
	return token
}

func (s *Service) connection(token *domain.Token) *domain.Connection {
	return &domain.Connection{
		Connected: true,
		ExpiresAt: token.ExpiresAt,
		Scopes:    []string(token.Scopes),
		State:     token.StateAt(s.clock.Now()).String(),
	}
}

func (s *Service) recordUpstream(endpoint string, err error) {
	var statusErr *zohoclient.StatusError
	if errors.As(err, &statusErr) {
		s.storeMetrics.RecordZohoResponse(endpoint, statusErr.Status)
	}
}
