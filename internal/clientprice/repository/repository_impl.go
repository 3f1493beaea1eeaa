package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/internal/clientprice/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListByClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) ([]domain.ClientProductPrice, error) {
	var items []domain.ClientProductPrice
	err := db.WithContext(ctx).Raw(
		`SELECT id, client_id, product_id, price_cents, created_at, updated_at
		 FROM client_product_prices
		 WHERE client_id = ?
		 ORDER BY product_id ASC`,
		clientID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, clientID, productID snowflake.ID) (*domain.ClientProductPrice, error) {
	var item domain.ClientProductPrice
	err := db.WithContext(ctx).Raw(
		`SELECT id, client_id, product_id, price_cents, created_at, updated_at
		 FROM client_product_prices
		 WHERE client_id = ? AND product_id = ?`,
		clientID,
		productID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

// Upsert keeps the original row id and creation time when the pair exists.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, price *domain.ClientProductPrice) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"price_cents", "updated_at"}),
	}).Create(price).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, clientID, productID snowflake.ID) (bool, error) {
	tx := db.WithContext(ctx).Exec(
		`DELETE FROM client_product_prices WHERE client_id = ? AND product_id = ?`,
		clientID,
		productID,
	)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
