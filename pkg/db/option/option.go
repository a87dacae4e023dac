package option

import "gorm.io/gorm"

// QueryOption customizes a repository query.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryFunc func(db *gorm.DB) *gorm.DB

func (f queryFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// OrderBy sorts by a column expression, e.g. "id DESC".
func OrderBy(expr string) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB { return db.Order(expr) })
}

// Limit caps the number of returned rows. Non-positive values are ignored.
func Limit(n int) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		if n <= 0 {
			return db
		}
		return db.Limit(n)
	})
}

// Where adds a raw condition.
func Where(query string, args ...any) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB { return db.Where(query, args...) })
}
