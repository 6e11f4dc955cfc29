package employee

import (
	"context"
	"database/sql"

	"go-backoffice/internal/shared/dbtx"

	"gorm.io/gorm"
)

// Directory is the payroll engine's read-only view of the employee master.
type Directory interface {
	WithTx(tx *sql.Tx) Directory
	FindActive(ctx context.Context) ([]Employee, error)
}

type directory struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewDirectory(db *gorm.DB) Directory {
	return &directory{db: db}
}

func (r *directory) WithTx(tx *sql.Tx) Directory {
	return &directory{db: r.db, tx: tx}
}

func (r *directory) FindActive(ctx context.Context) ([]Employee, error) {
	var rows []Employee
	err := dbtx.Conn(ctx, r.db, r.tx).
		Where("status = ?", StatusActive).
		Order("employee_number ASC, id ASC").
		Find(&rows).Error
	return rows, err
}
