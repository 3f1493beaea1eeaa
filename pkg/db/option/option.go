package option

import (
	"strconv"

	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// ApplyKeyset pages newest-first on a snowflake id column. One extra row
// is fetched so callers can tell whether another page exists.
func ApplyKeyset(column string, cursor *pagination.Cursor, limit int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if cursor != nil && cursor.ID != "" {
			if id, err := strconv.ParseInt(cursor.ID, 10, 64); err == nil {
				db = db.Where(column+" < ?", id)
			}
		}
		return db.Order(column + " desc").Limit(limit + 1)
	})
}
