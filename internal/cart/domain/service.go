package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Get(ctx context.Context, cartID string) (*Cart, error)
	Add(ctx context.Context, cartID string, line Line, quantity int) (*Cart, error)
	Remove(ctx context.Context, cartID string, productID snowflake.ID) (*Cart, error)
	UpdateQuantity(ctx context.Context, cartID string, productID snowflake.ID, quantity int) (*Cart, error)
	Clear(ctx context.Context, cartID string) error
}

// Summary is the JSON view of a cart.
type Summary struct {
	ID         string `json:"id"`
	Items      []Line `json:"items"`
	TotalItems int    `json:"total_items"`
	TotalCents int64  `json:"total_cents"`
}

func (c *Cart) Summary() Summary {
	items := c.Lines
	if items == nil {
		items = []Line{}
	}
	return Summary{
		ID:         c.ID,
		Items:      items,
		TotalItems: c.TotalItems(),
		TotalCents: c.TotalCents(),
	}
}
