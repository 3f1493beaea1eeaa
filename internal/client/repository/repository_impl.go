package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/internal/client/domain"
	"github.com/smallbiznis/confeitaria/pkg/db/option"
	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
	"gorm.io/gorm"
)

const clientColumns = `id, user_id, company_name, contact_name, email, phone, document,
	street, number, complement, district, city, state, postal_code, active, metadata,
	created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, client *domain.Client) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO clients (`+clientColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		client.ID,
		client.UserID,
		client.CompanyName,
		client.ContactName,
		client.Email,
		client.Phone,
		client.Document,
		client.Street,
		client.Number,
		client.Complement,
		client.District,
		client.City,
		client.State,
		client.PostalCode,
		client.Active,
		client.Metadata,
		client.CreatedAt,
		client.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, client *domain.Client) error {
	return db.WithContext(ctx).Exec(
		`UPDATE clients
		 SET company_name = ?, contact_name = ?, email = ?, phone = ?, document = ?,
		     street = ?, number = ?, complement = ?, district = ?, city = ?, state = ?,
		     postal_code = ?, active = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		client.CompanyName,
		client.ContactName,
		client.Email,
		client.Phone,
		client.Document,
		client.Street,
		client.Number,
		client.Complement,
		client.District,
		client.City,
		client.State,
		client.PostalCode,
		client.Active,
		client.Metadata,
		client.UpdatedAt,
		client.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Client, error) {
	return r.findOne(ctx, db, `id = ?`, id)
}

func (r *repo) FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*domain.Client, error) {
	return r.findOne(ctx, db, `user_id = ?`, userID)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where string, arg any) (*domain.Client, error) {
	var client domain.Client
	err := db.WithContext(ctx).Raw(
		`SELECT `+clientColumns+` FROM clients WHERE `+where,
		arg,
	).Scan(&client).Error
	if err != nil {
		return nil, err
	}
	if client.ID == 0 {
		return nil, nil
	}
	return &client, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListClientFilter, cursor *pagination.Cursor, limit int) ([]*domain.Client, error) {
	var clients []*domain.Client
	stmt := db.WithContext(ctx).Model(&domain.Client{})
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		stmt = stmt.Where(
			"LOWER(company_name) LIKE ? OR LOWER(contact_name) LIKE ? OR LOWER(email) LIKE ?",
			like, like, like,
		)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}
	stmt = option.ApplyKeyset("id", cursor, limit).Apply(stmt)
	if err := stmt.Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}
