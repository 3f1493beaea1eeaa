package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type UpsertRequest struct {
	ClientID   string `json:"-"`
	ProductID  string `json:"product_id"`
	PriceCents *int64 `json:"price_cents"`
}

type Service interface {
	List(ctx context.Context, clientID string) ([]ClientProductPrice, error)
	Upsert(ctx context.Context, req UpsertRequest) (ClientProductPrice, error)
	Delete(ctx context.Context, clientID, productID string) error

	// OverridesFor returns the negotiated prices of one client keyed by
	// product id.
	OverridesFor(ctx context.Context, clientID snowflake.ID) (map[snowflake.ID]int64, error)
}

var (
	ErrInvalidClient  = errors.New("invalid_client")
	ErrInvalidProduct = errors.New("invalid_product")
	ErrInvalidPrice   = errors.New("invalid_price")
	ErrNotFound       = errors.New("not_found")
)
