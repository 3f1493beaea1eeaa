package store

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/confeitaria/internal/cart/domain"
	"github.com/smallbiznis/confeitaria/internal/config"
	"github.com/smallbiznis/confeitaria/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Redis   *redis.Client         `optional:"true"`
	Metrics *metrics.StoreMetrics `optional:"true"`
}

func Provide(p Params) domain.Store {
	if p.Redis == nil {
		return NewMemoryStore()
	}
	return NewRedisStore(p.Redis, p.Cfg.Redis.CartTTL, p.Log, p.Metrics)
}
