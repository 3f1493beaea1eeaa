package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, quote *QuoteRequest) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*QuoteRequest, error)
	List(ctx context.Context, db *gorm.DB, status Status, cursor *pagination.Cursor, limit int) ([]*QuoteRequest, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, updatedAt time.Time) (bool, error)
}
