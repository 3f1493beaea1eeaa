package domain

import (
	"context"

	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, msg *Message) error
	List(ctx context.Context, db *gorm.DB, cursor *pagination.Cursor, limit int) ([]*Message, error)
}
