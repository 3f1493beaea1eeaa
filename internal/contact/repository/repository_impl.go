package repository

import (
	"context"

	"github.com/smallbiznis/confeitaria/internal/contact/domain"
	"github.com/smallbiznis/confeitaria/pkg/db/option"
	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, msg *domain.Message) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO contact_messages (id, name, email, phone, subject, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID,
		msg.Name,
		msg.Email,
		msg.Phone,
		msg.Subject,
		msg.Message,
		msg.CreatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, cursor *pagination.Cursor, limit int) ([]*domain.Message, error) {
	var messages []*domain.Message
	stmt := option.ApplyKeyset("id", cursor, limit).Apply(db.WithContext(ctx).Model(&domain.Message{}))
	if err := stmt.Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
