package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*QuoteRequest, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*QuoteRequest, error)
}

type CreateRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Company         string `json:"company"`
	ProductInterest string `json:"product_interest"`
	Quantity        string `json:"quantity"`
	Message         string `json:"message"`
}

type ListRequest struct {
	PageToken string
	PageSize  int
	Status    Status
}

type ListResponse struct {
	pagination.PageInfo
	Quotes []QuoteRequest `json:"quotes"`
}

var (
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidEmail  = errors.New("invalid_email")
	ErrInvalidStatus = errors.New("invalid_status")
	ErrInvalidID     = errors.New("invalid_id")
	ErrNotFound      = errors.New("not_found")
)
