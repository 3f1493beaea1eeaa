package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keySubmitLock  = "order:submit:"
	submitLockTTL  = 30 * time.Second
	lockReleaseLua = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`
)

// ErrSubmitInProgress is returned while another submission holds the cart.
var ErrSubmitInProgress = errors.New("order_submission_in_progress")

// SubmitGuard keeps a double-clicked checkout from storing the same cart
// twice when several API replicas share Redis.
type SubmitGuard struct {
	log    *zap.Logger
	client *redis.Client
	script *redis.Script
}

func NewSubmitGuard(log *zap.Logger, client *redis.Client) *SubmitGuard {
	g := &SubmitGuard{log: log.Named("ratelimit.submit")}
	if client != nil {
		g.client = client
		g.script = redis.NewScript(lockReleaseLua)
	}
	return g
}

// Acquire locks cartID. The returned release func is always safe to call.
func (g *SubmitGuard) Acquire(ctx context.Context, cartID string) (func(), error) {
	noop := func() {}
	if g == nil || g.client == nil || cartID == "" {
		return noop, nil
	}

	key := keySubmitLock + cartID
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, key, token, submitLockTTL).Result()
	if err != nil {
		g.log.Warn("submit lock unavailable, continuing without it", zap.Error(err))
		return noop, nil
	}
	if !ok {
		return noop, ErrSubmitInProgress
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := g.script.Run(releaseCtx, g.client, []string{key}, token).Err(); err != nil {
			g.log.Warn("release submit lock", zap.Error(err))
		}
	}, nil
}
