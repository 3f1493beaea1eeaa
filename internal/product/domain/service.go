package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)

	// Catalog returns raw products for pricing. Only active products are
	// included unless IncludeInactive is set.
	Catalog(ctx context.Context, req ListRequest) ([]Product, error)
	// Lookup returns an active product or ErrNotFound.
	Lookup(ctx context.Context, id string) (*Product, error)
}

type ListRequest struct {
	Category        string
	Search          string
	FeaturedOnly    bool
	IncludeInactive bool
	Limit           int
}

type CreateRequest struct {
	Name            string  `json:"name"`
	Slug            string  `json:"slug"`
	Category        string  `json:"category"`
	Description     *string `json:"description"`
	WeightGrams     *int32  `json:"weight_grams"`
	UnitsPerPackage *int32  `json:"units_per_package"`
	PriceCents      *int64  `json:"price_cents"`
	ImageURL        *string `json:"image_url"`
	Active          *bool   `json:"active"`
	Featured        bool    `json:"featured"`
	DisplayOrder    int     `json:"display_order"`
}

// UpdateRequest applies only the fields that are set. ClearPrice turns the
// product into a price-on-request item.
type UpdateRequest struct {
	ID              string  `json:"-"`
	Name            *string `json:"name"`
	Category        *string `json:"category"`
	Description     *string `json:"description"`
	WeightGrams     *int32  `json:"weight_grams"`
	UnitsPerPackage *int32  `json:"units_per_package"`
	PriceCents      *int64  `json:"price_cents"`
	ClearPrice      bool    `json:"clear_price"`
	ImageURL        *string `json:"image_url"`
	Active          *bool   `json:"active"`
	Featured        *bool   `json:"featured"`
	DisplayOrder    *int    `json:"display_order"`
}

type Response struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Category        string    `json:"category"`
	Description     *string   `json:"description,omitempty"`
	WeightGrams     *int32    `json:"weight_grams,omitempty"`
	UnitsPerPackage *int32    `json:"units_per_package,omitempty"`
	PriceCents      *int64    `json:"price_cents"`
	ImageURL        *string   `json:"image_url,omitempty"`
	Active          bool      `json:"active"`
	Featured        bool      `json:"featured"`
	DisplayOrder    int       `json:"display_order"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidPrice = errors.New("invalid_price")
	ErrInvalidSlug  = errors.New("invalid_slug")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
)
