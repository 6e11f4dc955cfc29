// Package dbtx binds gorm queries to a *sql.Tx opened by a service, so
// repositories built on gorm take part in the service's transaction.
package dbtx

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Conn returns a gorm handle scoped to ctx. When tx is non-nil every
// statement issued through the handle runs on tx.
func Conn(ctx context.Context, db *gorm.DB, tx *sql.Tx) *gorm.DB {
	scoped := db.WithContext(ctx)
	if tx != nil {
		// WithContext cloned the statement, so this does not leak into db.
		scoped.Statement.ConnPool = tx
	}
	return scoped
}

// Open wraps an existing *sql.DB (e.g. one shared with the outbox) in gorm.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
}
