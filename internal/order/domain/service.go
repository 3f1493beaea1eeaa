package domain

import (
	"context"
	"errors"

	cartdomain "github.com/smallbiznis/confeitaria/internal/cart/domain"
	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
)

type Contact struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CompanyName string `json:"company_name"`
	Document    string `json:"document"`
	Street      string `json:"street"`
	Number      string `json:"number"`
	Complement  string `json:"complement"`
	District    string `json:"district"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
}

// SubmitRequest carries the cart lines exactly as stored in the session.
type SubmitRequest struct {
	Contact Contact
	Items   []cartdomain.Line
	Message string
}

type ListRequest struct {
	PageToken string
	PageSize  int
	Status    string
}

type ListResponse struct {
	pagination.PageInfo
	Orders []Order `json:"orders"`
}

type UpdateStatusRequest struct {
	ID     string `json:"-"`
	Status string `json:"status"`
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*Order, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	ListForClient(ctx context.Context, req ListRequest) (ListResponse, error)
	Get(ctx context.Context, id string) (*Order, error)
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*Order, error)
	RenderPDF(ctx context.Context, id string) ([]byte, error)
}

var (
	ErrEmptyCart          = errors.New("invalid_items")
	ErrInvalidContactName = errors.New("invalid_contact_name")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidPhone       = errors.New("invalid_phone")
	ErrInvalidQuantity    = errors.New("invalid_quantity")
	ErrInvalidStatus      = errors.New("invalid_status")
	ErrInvalidID          = errors.New("invalid_id")
	ErrNotFound           = errors.New("not_found")
	ErrNoClient           = errors.New("no_client")
)
