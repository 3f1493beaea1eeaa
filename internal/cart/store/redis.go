package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/confeitaria/internal/cart/domain"
	"github.com/smallbiznis/confeitaria/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	keyCart        = "cart:"
	channelSuffix  = ":changes"
	defaultCartTTL = 30 * 24 * time.Hour
	backendRedis   = "redis"
)

// RedisStore keeps each cart as one JSON document with a sliding TTL and
// publishes every write on a per-cart channel.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	log     *zap.Logger
	metrics *metrics.StoreMetrics
}

func NewRedisStore(client *redis.Client, ttl time.Duration, log *zap.Logger, m *metrics.StoreMetrics) *RedisStore {
	if ttl <= 0 {
		ttl = defaultCartTTL
	}
	return &RedisStore{
		client:  client,
		ttl:     ttl,
		log:     log.Named("cart.store"),
		metrics: m,
	}
}

func cartKey(id string) string { return keyCart + id }

func changesChannel(id string) string { return keyCart + id + channelSuffix }

func (s *RedisStore) Get(ctx context.Context, key string) ([]domain.Line, error) {
	raw, err := s.client.Get(ctx, cartKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		s.metrics.RecordCartStoreError(backendRedis, "get")
		return nil, err
	}
	return decodeLines(raw)
}

func (s *RedisStore) Set(ctx context.Context, key string, lines []domain.Line) error {
	payload, err := encodeLines(lines)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(lines) == 0 {
			pipe.Del(ctx, cartKey(key))
		} else {
			pipe.Set(ctx, cartKey(key), payload, s.ttl)
		}
		pipe.Publish(ctx, changesChannel(key), payload)
		return nil
	})
	if err != nil {
		s.metrics.RecordCartStoreError(backendRedis, "set")
		return err
	}
	return nil
}

func (s *RedisStore) Subscribe(ctx context.Context, key string, fn func([]domain.Line)) error {
	sub := s.client.Subscribe(ctx, changesChannel(key))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		s.metrics.RecordCartStoreError(backendRedis, "subscribe")
		return err
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				lines, err := decodeLines([]byte(msg.Payload))
				if err != nil {
					s.log.Warn("discarding malformed cart change", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				fn(lines)
			}
		}
	}()
	return nil
}

func encodeLines(lines []domain.Line) ([]byte, error) {
	if lines == nil {
		lines = []domain.Line{}
	}
	return json.Marshal(lines)
}

func decodeLines(raw []byte) ([]domain.Line, error) {
	var lines []domain.Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}
	return lines, nil
}
