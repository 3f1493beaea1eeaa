package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/confeitaria/internal/audit/domain"
	authdomain "github.com/smallbiznis/confeitaria/internal/auth/domain"
	clientdomain "github.com/smallbiznis/confeitaria/internal/client/domain"
	clientpricedomain "github.com/smallbiznis/confeitaria/internal/clientprice/domain"
	contactdomain "github.com/smallbiznis/confeitaria/internal/contact/domain"
	newsletterdomain "github.com/smallbiznis/confeitaria/internal/newsletter/domain"
	orderdomain "github.com/smallbiznis/confeitaria/internal/order/domain"
	productdomain "github.com/smallbiznis/confeitaria/internal/product/domain"
	quotedomain "github.com/smallbiznis/confeitaria/internal/quote/domain"
	zohodomain "github.com/smallbiznis/confeitaria/internal/zoho/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Closing the migrator would close the shared *sql.DB.

	return nil
}

// AutoMigrate creates the schema from the gorm models. Used for the
// mysql and sqlite dialects, which have no hand-written migrations.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&authdomain.User{},
		&authdomain.Session{},
		&productdomain.Product{},
		&clientdomain.Client{},
		&clientpricedomain.ClientProductPrice{},
		&orderdomain.Order{},
		&zohodomain.Token{},
		&newsletterdomain.Subscriber{},
		&quotedomain.QuoteRequest{},
		&contactdomain.Message{},
		&auditdomain.AuditLog{},
	)
}
