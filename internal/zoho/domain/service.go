package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// AuthorizationURL is the consent page the admin is redirected to.
	AuthorizationURL(state string) (string, error)
	// Connect exchanges the callback code and stores the grant for userID.
	Connect(ctx context.Context, userID snowflake.ID, code string) (*Connection, error)
	// AccessToken returns a usable token, refreshing it at most once.
	AccessToken(ctx context.Context, userID snowflake.ID) (string, error)
	ListAccounts(ctx context.Context, userID snowflake.ID) (json.RawMessage, error)
	Status(ctx context.Context, userID snowflake.ID) (*Connection, error)
}

type Connection struct {
	Connected bool      `json:"connected"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Scopes    []string  `json:"scopes,omitempty"`
	State     string    `json:"state,omitempty"`
}

var (
	ErrAuthRequired  = errors.New("Zoho authentication required")
	ErrNotConfigured = errors.New("zoho_not_configured")
	ErrInvalidCode   = errors.New("invalid_code")
	ErrInvalidUser   = errors.New("invalid_user")
)

// UpstreamError carries a non-2xx status from the Zoho Mail API.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("zoho upstream returned status %d", e.Status)
}
