package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscriber *Subscriber) error
	Reactivate(ctx context.Context, db *gorm.DB, subscriber *Subscriber) error
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Subscriber, error)
	List(ctx context.Context, db *gorm.DB, activeOnly bool, cursor *pagination.Cursor, limit int) ([]*Subscriber, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}
