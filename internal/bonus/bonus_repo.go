package bonus

import (
	"context"
	"database/sql"

	"go-backoffice/internal/shared/dbtx"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=bonus_repo.go -destination=mock/bonus_repo_mock.go -package=mock
type Reader interface {
	WithTx(tx *sql.Tx) Reader
	FindApprovedForPeriod(ctx context.Context, periodID uuid.UUID) ([]EmployeeBonus, error)
}

type reader struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewReader(db *gorm.DB) Reader {
	return &reader{db: db}
}

func (r *reader) WithTx(tx *sql.Tx) Reader {
	return &reader{db: r.db, tx: tx}
}

func (r *reader) FindApprovedForPeriod(ctx context.Context, periodID uuid.UUID) ([]EmployeeBonus, error) {
	var rows []EmployeeBonus
	err := dbtx.Conn(ctx, r.db, r.tx).
		Where("payroll_period_id = ?", periodID).
		Where("status = ?", StatusApproved).
		Find(&rows).Error
	return rows, err
}

func GroupByEmployee(rows []EmployeeBonus) map[uuid.UUID][]EmployeeBonus {
	out := make(map[uuid.UUID][]EmployeeBonus)
	for _, b := range rows {
		out[b.EmployeeID] = append(out[b.EmployeeID], b)
	}
	return out
}
