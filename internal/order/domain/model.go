package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// LineItem is the price captured for one product when the order was placed.
type LineItem struct {
	ProductID      snowflake.ID `json:"product_id"`
	Name           string       `json:"name"`
	UnitPriceCents *int64       `json:"unit_price_cents"`
	Quantity       int          `json:"quantity"`
	LineTotalCents int64        `json:"line_total_cents"`
}

// Order keeps its line items and total as an immutable snapshot. Nothing
// re-reads product or client prices after insert.
type Order struct {
	ID          snowflake.ID                  `gorm:"primaryKey" json:"id"`
	UserID      *snowflake.ID                 `gorm:"index" json:"user_id,omitempty"`
	ClientID    *snowflake.ID                 `gorm:"index" json:"client_id,omitempty"`
	ContactName string                        `gorm:"column:contact_name;not null" json:"contact_name"`
	Email       string                        `gorm:"not null" json:"email"`
	Phone       string                        `gorm:"not null" json:"phone"`
	CompanyName string                        `gorm:"column:company_name;not null;default:''" json:"company_name"`
	Document    string                        `gorm:"not null;default:''" json:"document"`
	Street      string                        `gorm:"not null;default:''" json:"street"`
	Number      string                        `gorm:"not null;default:''" json:"number"`
	Complement  string                        `gorm:"not null;default:''" json:"complement"`
	District    string                        `gorm:"not null;default:''" json:"district"`
	City        string                        `gorm:"not null;default:''" json:"city"`
	State       string                        `gorm:"not null;default:''" json:"state"`
	PostalCode  string                        `gorm:"column:postal_code;not null;default:''" json:"postal_code"`
	Items       datatypes.JSONSlice[LineItem] `gorm:"type:jsonb;not null" json:"items"`
	TotalCents  int64                         `gorm:"column:total_cents;not null" json:"total_cents"`
	Status      Status                        `gorm:"type:text;not null;index" json:"status"`
	Message     string                        `gorm:"type:text;not null;default:''" json:"message"`
	CreatedAt   time.Time                     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time                     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }
