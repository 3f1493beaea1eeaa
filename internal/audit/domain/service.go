package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
)

const (
	ActorRoleSystem = "system"

	TargetProduct     = "product"
	TargetClient      = "client"
	TargetClientPrice = "client_price"
	TargetOrder       = "order"
	TargetQuote       = "quote"
	TargetSubscriber  = "newsletter_subscriber"
	TargetZoho        = "zoho"
)

// Entry is what callers record. Actor and request details are taken from ctx.
type Entry struct {
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

type ListRequest struct {
	PageToken  string
	PageSize   int
	Action     string
	TargetType string
	TargetID   string
}

type ListResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Service interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

var ErrInvalidAction = errors.New("invalid_action")
