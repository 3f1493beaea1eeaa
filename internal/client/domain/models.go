package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Client is the business account behind a portal user. Only active clients
// receive negotiated prices.
type Client struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID      snowflake.ID      `gorm:"not null;uniqueIndex" json:"user_id"`
	CompanyName string            `gorm:"column:company_name;not null;default:''" json:"company_name"`
	ContactName string            `gorm:"column:contact_name;not null;default:''" json:"contact_name"`
	Email       string            `gorm:"not null" json:"email"`
	Phone       string            `gorm:"not null;default:''" json:"phone"`
	Document    string            `gorm:"not null;default:''" json:"document"`
	Street      string            `gorm:"not null;default:''" json:"street"`
	Number      string            `gorm:"not null;default:''" json:"number"`
	Complement  string            `gorm:"not null;default:''" json:"complement"`
	District    string            `gorm:"not null;default:''" json:"district"`
	City        string            `gorm:"not null;default:''" json:"city"`
	State       string            `gorm:"not null;default:''" json:"state"`
	PostalCode  string            `gorm:"column:postal_code;not null;default:''" json:"postal_code"`
	Active      bool              `gorm:"not null;default:true" json:"active"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Client) TableName() string { return "clients" }
