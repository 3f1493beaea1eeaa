package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
)

type Service interface {
	// Subscribe is idempotent per email. A known address is reactivated.
	Subscribe(ctx context.Context, req SubscribeRequest) (*Subscriber, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Delete(ctx context.Context, id string) error
}

type SubscribeRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type ListRequest struct {
	PageToken  string
	PageSize   int
	ActiveOnly bool
}

type ListResponse struct {
	pagination.PageInfo
	Subscribers []Subscriber `json:"subscribers"`
}

var (
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
)
