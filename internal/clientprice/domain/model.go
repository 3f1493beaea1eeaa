package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ClientProductPrice is a negotiated price for one product and one client.
type ClientProductPrice struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	ClientID   snowflake.ID `gorm:"not null;uniqueIndex:ux_client_product_prices_client_product" json:"client_id"`
	ProductID  snowflake.ID `gorm:"not null;uniqueIndex:ux_client_product_prices_client_product" json:"product_id"`
	PriceCents int64        `gorm:"column:price_cents;not null" json:"price_cents"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ClientProductPrice) TableName() string { return "client_product_prices" }
