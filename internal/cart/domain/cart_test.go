package domain

import (
	"math"
	"math/rand"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cents(v int64) *int64 { return &v }

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	var c Cart
	assert.ErrorIs(t, c.Add(Line{ProductID: 1}, 0), ErrInvalidQuantity)
	assert.ErrorIs(t, c.Add(Line{ProductID: 1}, -3), ErrInvalidQuantity)
	assert.ErrorIs(t, c.Add(Line{}, 1), ErrInvalidProduct)
	assert.True(t, c.Empty())
}

func TestAddKeepsFirstPriceAndOrder(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(Line{ProductID: 2, Name: "Trufa", UnitPriceCents: cents(450)}, 1))
	require.NoError(t, c.Add(Line{ProductID: 1, Name: "Brigadeiro", UnitPriceCents: cents(300)}, 2))
	require.NoError(t, c.Add(Line{ProductID: 2, Name: "Trufa", UnitPriceCents: cents(999)}, 3))

	require.Len(t, c.Lines, 2)
	assert.Equal(t, snowflake.ID(2), c.Lines[0].ProductID)
	assert.Equal(t, 4, c.Lines[0].Quantity)
	assert.Equal(t, int64(450), *c.Lines[0].UnitPriceCents)
	assert.Equal(t, 6, c.TotalItems())
	assert.Equal(t, int64(4*450+2*300), c.TotalCents())
}

func TestUpdateQuantityIsIdempotent(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(Line{ProductID: 1, UnitPriceCents: cents(300)}, 1))

	require.NoError(t, c.UpdateQuantity(1, 5))
	once := append([]Line(nil), c.Lines...)
	require.NoError(t, c.UpdateQuantity(1, 5))
	assert.Equal(t, once, c.Lines)

	require.NoError(t, c.UpdateQuantity(99, 3))
	assert.Equal(t, once, c.Lines)

	require.NoError(t, c.UpdateQuantity(1, 0))
	assert.True(t, c.Empty())
}

func TestQuantityIsBounded(t *testing.T) {
	var c Cart
	assert.ErrorIs(t, c.Add(Line{ProductID: 1, UnitPriceCents: cents(850)}, math.MaxInt), ErrInvalidQuantity)
	assert.ErrorIs(t, c.Add(Line{ProductID: 1, UnitPriceCents: cents(850)}, 20_000_000_000_000_000), ErrInvalidQuantity)
	assert.True(t, c.Empty())

	require.NoError(t, c.Add(Line{ProductID: 1, UnitPriceCents: cents(850)}, MaxQuantity-1))
	require.NoError(t, c.Add(Line{ProductID: 1, UnitPriceCents: cents(850)}, 1))
	assert.ErrorIs(t, c.Add(Line{ProductID: 1, UnitPriceCents: cents(850)}, 1), ErrInvalidQuantity)
	assert.Equal(t, MaxQuantity, c.Lines[0].Quantity)

	assert.ErrorIs(t, c.UpdateQuantity(1, MaxQuantity+1), ErrInvalidQuantity)
	assert.ErrorIs(t, c.UpdateQuantity(1, math.MaxInt), ErrInvalidQuantity)
	assert.Equal(t, MaxQuantity, c.TotalItems())
	assert.Equal(t, int64(850*MaxQuantity), c.TotalCents())
}

func TestOnRequestLinesCountAsZero(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(Line{ProductID: 1, UnitPriceCents: cents(300)}, 2))
	require.NoError(t, c.Add(Line{ProductID: 2}, 5))

	assert.Equal(t, 7, c.TotalItems())
	assert.Equal(t, int64(600), c.TotalCents())
}

func TestTotalsHoldAfterRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	prices := map[snowflake.ID]*int64{1: cents(300), 2: nil, 3: cents(1250), 4: cents(75)}

	for run := 0; run < 200; run++ {
		var c Cart
		for step := 0; step < 30; step++ {
			id := snowflake.ID(rng.Intn(4) + 1)
			switch rng.Intn(5) {
			case 0, 1:
				_ = c.Add(Line{ProductID: id, UnitPriceCents: prices[id]}, rng.Intn(4))
			case 2:
				c.Remove(id)
			case 3:
				require.NoError(t, c.UpdateQuantity(id, rng.Intn(6)-1))
			case 4:
				if rng.Intn(10) == 0 {
					c.Clear()
				}
			}
		}

		var items int
		var total int64
		seen := map[snowflake.ID]bool{}
		for _, l := range c.Lines {
			require.False(t, seen[l.ProductID], "duplicate line")
			seen[l.ProductID] = true
			require.GreaterOrEqual(t, l.Quantity, 1)
			items += l.Quantity
			if l.UnitPriceCents != nil {
				total += *l.UnitPriceCents * int64(l.Quantity)
			}
		}
		assert.Equal(t, items, c.TotalItems())
		assert.Equal(t, total, c.TotalCents())
	}
}
