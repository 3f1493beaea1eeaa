package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/internal/product/domain"
	"gorm.io/gorm"
)

const productColumns = `id, name, slug, category, description, weight_grams, units_per_package,
	price_cents, image_url, active, featured, display_order, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (`+productColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.Name,
		p.Slug,
		p.Category,
		p.Description,
		p.WeightGrams,
		p.UnitsPerPackage,
		p.PriceCents,
		p.ImageURL,
		p.Active,
		p.Featured,
		p.DisplayOrder,
		p.CreatedAt,
		p.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, p *domain.Product) error {
	if p == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE products
		 SET name = ?, category = ?, description = ?, weight_grams = ?, units_per_package = ?,
		     price_cents = ?, image_url = ?, active = ?, featured = ?, display_order = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name,
		p.Category,
		p.Description,
		p.WeightGrams,
		p.UnitsPerPackage,
		p.PriceCents,
		p.ImageURL,
		p.Active,
		p.Featured,
		p.DisplayOrder,
		p.UpdatedAt,
		p.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	tx := db.WithContext(ctx).Exec(`DELETE FROM products WHERE id = ?`, id)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT `+productColumns+` FROM products WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) SlugExists(ctx context.Context, db *gorm.DB, slug string, excludeID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM products WHERE slug = ? AND id <> ?`,
		slug,
		excludeID,
	).Scan(&count).Error
	return count > 0, err
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Product, error) {
	var items []domain.Product
	stmt := db.WithContext(ctx).Model(&domain.Product{})

	if filter.ActiveOnly {
		stmt = stmt.Where("active = ?", true)
	}
	if filter.FeaturedOnly {
		stmt = stmt.Where("featured = ?", true)
	}
	if filter.Category != "" {
		stmt = stmt.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	if err := stmt.Order("display_order asc, name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
