package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/internal/newsletter/domain"
	"github.com/smallbiznis/confeitaria/pkg/db/option"
	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscriber *domain.Subscriber) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO newsletter_subscribers (id, email, name, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		subscriber.ID,
		subscriber.Email,
		subscriber.Name,
		subscriber.Active,
		subscriber.CreatedAt,
		subscriber.UpdatedAt,
	).Error
}

func (r *repo) Reactivate(ctx context.Context, db *gorm.DB, subscriber *domain.Subscriber) error {
	return db.WithContext(ctx).Exec(
		`UPDATE newsletter_subscribers SET name = ?, active = ?, updated_at = ? WHERE id = ?`,
		subscriber.Name,
		true,
		subscriber.UpdatedAt,
		subscriber.ID,
	).Error
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Subscriber, error) {
	var subscriber domain.Subscriber
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, name, active, created_at, updated_at
		 FROM newsletter_subscribers WHERE email = ?`,
		email,
	).Scan(&subscriber).Error
	if err != nil {
		return nil, err
	}
	if subscriber.ID == 0 {
		return nil, nil
	}
	return &subscriber, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool, cursor *pagination.Cursor, limit int) ([]*domain.Subscriber, error) {
	var subscribers []*domain.Subscriber
	stmt := db.WithContext(ctx).Model(&domain.Subscriber{})
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}
	stmt = option.ApplyKeyset("id", cursor, limit).Apply(stmt)
	if err := stmt.Find(&subscribers).Error; err != nil {
		return nil, err
	}
	return subscribers, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM newsletter_subscribers WHERE id = ?`, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
