package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/confeitaria/internal/config"
	"github.com/smallbiznis/confeitaria/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyPublic = "ratelimit:public:%s:%s"

type Params struct {
	fx.In

	Log      *zap.Logger
	Settings *config.StoreSettingsHolder
	Redis    *redis.Client    `optional:"true"`
	Metrics  *metrics.Metrics `optional:"true"`
}

// PublicLimiter throttles anonymous form posts per client IP and endpoint.
// Without Redis every request is allowed.
type PublicLimiter struct {
	log      *zap.Logger
	bucket   *TokenBucket
	settings *config.StoreSettingsHolder
	metrics  *metrics.Metrics
}

func NewPublicLimiter(p Params) *PublicLimiter {
	l := &PublicLimiter{
		log:      p.Log.Named("ratelimit"),
		settings: p.Settings,
		metrics:  p.Metrics,
	}
	if p.Redis != nil {
		l.bucket = NewTokenBucket(p.Redis)
	}
	return l
}

func NewPublicLimiterWithBucket(log *zap.Logger, bucket *TokenBucket, settings *config.StoreSettingsHolder, m *metrics.Metrics) *PublicLimiter {
	return &PublicLimiter{
		log:      log.Named("ratelimit"),
		bucket:   bucket,
		settings: settings,
		metrics:  m,
	}
}

func (l *PublicLimiter) Enabled() bool {
	if l == nil || l.bucket == nil {
		return false
	}
	s := l.settings.Get()
	return s.PublicRatePerMin > 0 && s.PublicRateBurst > 0
}

// Allow fails open: a Redis error is logged and the request goes through.
func (l *PublicLimiter) Allow(ctx context.Context, clientIP, endpoint string) *Result {
	if !l.Enabled() {
		return &Result{Allowed: true}
	}
	s := l.settings.Get()
	key := fmt.Sprintf(keyPublic, strings.TrimSpace(endpoint), strings.TrimSpace(clientIP))

	res, err := l.bucket.Allow(ctx, key, float64(s.PublicRatePerMin)/60, s.PublicRateBurst)
	if err != nil {
		l.log.Warn("rate limiter unavailable, allowing request",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		l.metrics.RecordRateLimitAllowed(ctx, endpoint)
		return &Result{Allowed: true}
	}
	if !res.Allowed {
		l.metrics.RecordRateLimitDenied(ctx, endpoint, "bucket_empty")
		return res
	}
	l.metrics.RecordRateLimitAllowed(ctx, endpoint)
	return res
}
