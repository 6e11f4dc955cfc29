package attendance

import (
	"context"
	"database/sql"
	"time"

	"go-backoffice/internal/shared/dbtx"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reader is read-only; attendance capture lives outside the payroll engine.
type Reader interface {
	WithTx(tx *sql.Tx) Reader
	FindByEmployeesInRange(ctx context.Context, employeeIDs []uuid.UUID, start, end time.Time) ([]Record, error)
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

func (r *reader) FindByEmployeesInRange(
	ctx context.Context,
	employeeIDs []uuid.UUID,
	start, end time.Time,
) ([]Record, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}

	var rows []Record
	err := dbtx.Conn(ctx, r.db, r.tx).
		Where("employee_id IN ?", employeeIDs).
		Where("attendance_date BETWEEN ? AND ?", start.Format("2006-01-02"), end.Format("2006-01-02")).
		Order("employee_id, attendance_date").
		Find(&rows).Error
	return rows, err
}

// GroupByEmployee buckets records per employee id.
func GroupByEmployee(rows []Record) map[uuid.UUID][]Record {
	out := make(map[uuid.UUID][]Record)
	for _, r := range rows {
		out[r.EmployeeID] = append(out[r.EmployeeID], r)
	}
	return out
}
