package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/internal/quote/domain"
	"github.com/smallbiznis/confeitaria/pkg/db/option"
	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
	"gorm.io/gorm"
)

const quoteColumns = `id, name, email, phone, company, product_interest, quantity, message,
	status, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, quote *domain.QuoteRequest) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO quote_requests (`+quoteColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		quote.ID,
		quote.Name,
		quote.Email,
		quote.Phone,
		quote.Company,
		quote.ProductInterest,
		quote.Quantity,
		quote.Message,
		quote.Status,
		quote.CreatedAt,
		quote.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.QuoteRequest, error) {
	var quote domain.QuoteRequest
	err := db.WithContext(ctx).Raw(
		`SELECT `+quoteColumns+` FROM quote_requests WHERE id = ?`,
		id,
	).Scan(&quote).Error
	if err != nil {
		return nil, err
	}
	if quote.ID == 0 {
		return nil, nil
	}
	return &quote, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, status domain.Status, cursor *pagination.Cursor, limit int) ([]*domain.QuoteRequest, error) {
	var quotes []*domain.QuoteRequest
	stmt := db.WithContext(ctx).Model(&domain.QuoteRequest{})
	if status != "" {
		stmt = stmt.Where("status = ?", status)
	}
	stmt = option.ApplyKeyset("id", cursor, limit).Apply(stmt)
	if err := stmt.Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status, updatedAt time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE quote_requests SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		updatedAt,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
