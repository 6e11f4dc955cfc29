package loan

import (
	"context"
	"database/sql"

	"go-backoffice/internal/shared/dbtx"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=loan_repo.go -destination=mock/loan_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindActiveByEmployees(ctx context.Context, employeeIDs []uuid.UUID) ([]EmployeeLoan, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*EmployeeLoan, error)
	SaveInstallment(ctx context.Context, loan *EmployeeLoan, expectedPaidInstallments int) (bool, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := dbtx.Conn(ctx, r.db, r.tx)
	if r.tx != nil {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// FindActiveByEmployees locks the returned rows when bound to a transaction.
func (r *repository) FindActiveByEmployees(ctx context.Context, employeeIDs []uuid.UUID) ([]EmployeeLoan, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}

	var loans []EmployeeLoan
	err := r.conn(ctx).
		Where("employee_id IN ?", employeeIDs).
		Where("status = ?", StatusActive).
		Order("employee_id, created_at, id").
		Find(&loans).Error
	return loans, err
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*EmployeeLoan, error) {
	var l EmployeeLoan
	err := r.conn(ctx).First(&l, "id = ?", id).Error
	return &l, err
}

// SaveInstallment persists an amortized loan only if it is still active and
// no other installment landed since it was read.
func (r *repository) SaveInstallment(ctx context.Context, l *EmployeeLoan, expectedPaidInstallments int) (bool, error) {
	res := dbtx.Conn(ctx, r.db, r.tx).
		Model(&EmployeeLoan{}).
		Where("id = ?", l.ID).
		Where("status = ?", StatusActive).
		Where("paid_installments = ?", expectedPaidInstallments).
		Updates(map[string]any{
			"paid_installments": l.PaidInstallments,
			"remaining_amount":  l.RemainingAmount,
			"status":            l.Status,
			"completed_at":      l.CompletedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
