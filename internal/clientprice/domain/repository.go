package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	ListByClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) ([]ClientProductPrice, error)
	Find(ctx context.Context, db *gorm.DB, clientID, productID snowflake.ID) (*ClientProductPrice, error)
	Upsert(ctx context.Context, db *gorm.DB, price *ClientProductPrice) error
	Delete(ctx context.Context, db *gorm.DB, clientID, productID snowflake.ID) (bool, error)
}
