package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
)

type ListClientRequest struct {
	PageToken string
	PageSize  int
	Search    string
	Active    *bool
}

type ListClientFilter struct {
	Search string
	Active *bool
}

type ListClientResponse struct {
	pagination.PageInfo
	Clients []Client `json:"clients"`
}

// EnsureClientRequest seeds the client row created at signup.
type EnsureClientRequest struct {
	UserID      snowflake.ID
	Email       string
	ContactName string
	CompanyName string
	Phone       string
}

// ProfileInput holds the fields a client may edit about itself.
type ProfileInput struct {
	CompanyName *string `json:"company_name"`
	ContactName *string `json:"contact_name"`
	Phone       *string `json:"phone"`
	Document    *string `json:"document"`
	Street      *string `json:"street"`
	Number      *string `json:"number"`
	Complement  *string `json:"complement"`
	District    *string `json:"district"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	PostalCode  *string `json:"postal_code"`
}

// UpdateClientRequest is the admin edit. It can also toggle activation and
// replace metadata.
type UpdateClientRequest struct {
	ID string `json:"-"`
	ProfileInput
	Email    *string        `json:"email"`
	Active   *bool          `json:"active"`
	Metadata map[string]any `json:"metadata"`
}

type Service interface {
	EnsureForUser(context.Context, EnsureClientRequest) (Client, error)
	List(context.Context, ListClientRequest) (ListClientResponse, error)
	GetByID(context.Context, string) (Client, error)
	Update(context.Context, UpdateClientRequest) (Client, error)

	// ActiveClientID returns the id of the user's active client, or zero.
	ActiveClientID(ctx context.Context, userID snowflake.ID) (snowflake.ID, error)
	Profile(ctx context.Context, userID snowflake.ID) (Client, error)
	UpdateProfile(ctx context.Context, userID snowflake.ID, input ProfileInput) (Client, error)
}

var (
	ErrInvalidUser  = errors.New("invalid_user")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
)
