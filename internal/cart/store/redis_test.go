package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/confeitaria/internal/cart/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestEncodeDecodeKeepsLinesVerbatim(t *testing.T) {
	price := int64(850)
	weight := int32(250)
	lines := []domain.Line{
		{ProductID: snowflake.ID(1794012345678901248), Name: "Trufa", UnitPriceCents: &price, Quantity: 2, WeightGrams: &weight},
		{ProductID: 2, Name: "Bolo sob encomenda", Quantity: 1},
	}

	raw, err := encodeLines(lines)
	require.NoError(t, err)
	decoded, err := decodeLines(raw)
	require.NoError(t, err)
	assert.Equal(t, lines, decoded)

	raw, err = encodeLines(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
	decoded, err = decodeLines(raw)
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "cart:abc", cartKey("abc"))
	assert.Equal(t, "cart:abc:changes", changesChannel("abc"))
}

func TestRedisStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	st := NewRedisStore(client, time.Minute, zaptest.NewLogger(t), nil)
	ctx := context.Background()
	key := "test-" + time.Now().Format("150405.000000")

	price := int64(300)
	require.NoError(t, st.Set(ctx, key, []domain.Line{{ProductID: 1, UnitPriceCents: &price, Quantity: 3}}))
	lines, err := st.Get(ctx, key)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)

	require.NoError(t, st.Set(ctx, key, nil))
	lines, err = st.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, lines)
}
