package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Product is a catalog entry. A nil PriceCents means the product is sold
// on request.
type Product struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	Name            string       `gorm:"type:text;not null"`
	Slug            string       `gorm:"type:text;not null;uniqueIndex"`
	Category        string       `gorm:"type:text;not null;default:''"`
	Description     *string      `gorm:"type:text"`
	WeightGrams     *int32       `gorm:"column:weight_grams"`
	UnitsPerPackage *int32       `gorm:"column:units_per_package"`
	PriceCents      *int64       `gorm:"column:price_cents"`
	ImageURL        *string      `gorm:"column:image_url;type:text"`
	Active          bool         `gorm:"not null;default:true"`
	Featured        bool         `gorm:"not null;default:false"`
	DisplayOrder    int          `gorm:"column:display_order;not null;default:0"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }
