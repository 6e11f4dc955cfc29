package payroll

import (
	"context"
	"database/sql"
	"time"

	"go-backoffice/internal/shared/dbtx"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const recordInsertBatchSize = 200

type PeriodFilter struct {
	Year     *int
	Status   *PeriodStatus
	Page     int
	PageSize int
}

//go:generate mockgen -source=payroll_repo.go -destination=mock/payroll_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	CreatePeriod(ctx context.Context, period *PayrollPeriod) error
	FindPeriodByID(ctx context.Context, id uuid.UUID) (*PayrollPeriod, error)
	PeriodExists(ctx context.Context, year, month int) (bool, error)
	ListPeriods(ctx context.Context, filter PeriodFilter) ([]PayrollPeriod, int64, error)
	// TransitionPeriod moves a period from one status to another in a single
	// conditional update and reports whether this caller won the move.
	TransitionPeriod(ctx context.Context, id uuid.UUID, from, to PeriodStatus, fields map[string]any) (bool, error)
	UpdatePeriodTotals(ctx context.Context, id uuid.UUID, totals Totals) error
	CreateRecords(ctx context.Context, records []PayrollRecord) error
	MarkRecordsPaid(ctx context.Context, periodID uuid.UUID, paymentDate time.Time) (int64, error)
	ListRecords(ctx context.Context, periodID uuid.UUID, page, pageSize int) ([]PayrollRecord, int64, error)
	FindRecordsByPeriod(ctx context.Context, periodID uuid.UUID) ([]PayrollRecord, error)
	FindRecordByID(ctx context.Context, id uuid.UUID) (*PayrollRecord, error)
	AggregateRecords(ctx context.Context, periodID uuid.UUID) (RecordAggregate, error)
	SavePayslip(ctx context.Context, recordID uuid.UUID, url string, generatedAt time.Time) error
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
	return dbtx.Conn(ctx, r.db, r.tx)
}

func (r *repository) CreatePeriod(ctx context.Context, period *PayrollPeriod) error {
	return r.conn(ctx).Create(period).Error
}

func (r *repository) FindPeriodByID(ctx context.Context, id uuid.UUID) (*PayrollPeriod, error) {
	var period PayrollPeriod
	err := r.conn(ctx).First(&period, "id = ?", id).Error
	return &period, err
}

func (r *repository) PeriodExists(ctx context.Context, year, month int) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Model(&PayrollPeriod{}).
		Where("year = ? AND month = ?", year, month).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListPeriods(ctx context.Context, filter PeriodFilter) ([]PayrollPeriod, int64, error) {
	q := r.conn(ctx).Model(&PayrollPeriod{})
	if filter.Year != nil {
		q = q.Where("year = ?", *filter.Year)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var periods []PayrollPeriod
	err := q.Order("year DESC, month DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&periods).Error
	return periods, total, err
}

func (r *repository) TransitionPeriod(
	ctx context.Context,
	id uuid.UUID,
	from, to PeriodStatus,
	fields map[string]any,
) (bool, error) {
	updates := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["status"] = to

	res := r.conn(ctx).
		Model(&PayrollPeriod{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) UpdatePeriodTotals(ctx context.Context, id uuid.UUID, totals Totals) error {
	return r.conn(ctx).
		Model(&PayrollPeriod{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_employees":    totals.Employees,
			"total_gross_salary": totals.GrossSalary,
			"total_deductions":   totals.TotalDeductions,
			"total_net_salary":   totals.NetSalary,
		}).Error
}

func (r *repository) CreateRecords(ctx context.Context, records []PayrollRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.conn(ctx).CreateInBatches(records, recordInsertBatchSize).Error
}

func (r *repository) MarkRecordsPaid(ctx context.Context, periodID uuid.UUID, paymentDate time.Time) (int64, error) {
	res := r.conn(ctx).
		Model(&PayrollRecord{}).
		Where("payroll_period_id = ? AND payment_status = ?", periodID, PaymentStatusPending).
		Updates(map[string]any{
			"payment_status": PaymentStatusPaid,
			"payment_date":   paymentDate,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ListRecords(ctx context.Context, periodID uuid.UUID, page, pageSize int) ([]PayrollRecord, int64, error) {
	q := r.conn(ctx).Model(&PayrollRecord{}).Where("payroll_period_id = ?", periodID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []PayrollRecord
	err := q.Order("employee_number ASC, employee_id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	return records, total, err
}

func (r *repository) FindRecordsByPeriod(ctx context.Context, periodID uuid.UUID) ([]PayrollRecord, error) {
	var records []PayrollRecord
	err := r.conn(ctx).
		Where("payroll_period_id = ?", periodID).
		Order("employee_number ASC, employee_id ASC").
		Find(&records).Error
	return records, err
}

func (r *repository) FindRecordByID(ctx context.Context, id uuid.UUID) (*PayrollRecord, error) {
	var record PayrollRecord
	err := r.conn(ctx).First(&record, "id = ?", id).Error
	return &record, err
}

type recordAggregateRow struct {
	Employees       int
	GrossSalary     decimal.Decimal
	TotalDeductions decimal.Decimal
	NetSalary       decimal.Decimal
	FlooredRecords  int
	PaidRecords     int
}

func (r *repository) AggregateRecords(ctx context.Context, periodID uuid.UUID) (RecordAggregate, error) {
	var row recordAggregateRow
	err := r.conn(ctx).Raw(`
SELECT
	COUNT(*) AS employees,
	COALESCE(SUM(gross_salary), 0) AS gross_salary,
	COALESCE(SUM(total_deductions), 0) AS total_deductions,
	COALESCE(SUM(net_salary), 0) AS net_salary,
	COUNT(*) FILTER (WHERE net_floored) AS floored_records,
	COUNT(*) FILTER (WHERE payment_status = ?) AS paid_records
FROM payroll_records
WHERE payroll_period_id = ?
`, PaymentStatusPaid, periodID).Scan(&row).Error
	if err != nil {
		return RecordAggregate{}, err
	}

	return RecordAggregate{
		Totals: Totals{
			Employees:       row.Employees,
			GrossSalary:     row.GrossSalary,
			TotalDeductions: row.TotalDeductions,
			NetSalary:       row.NetSalary,
		},
		FlooredRecords: row.FlooredRecords,
		PaidRecords:    row.PaidRecords,
	}, nil
}

func (r *repository) SavePayslip(ctx context.Context, recordID uuid.UUID, url string, generatedAt time.Time) error {
	return r.conn(ctx).
		Model(&PayrollRecord{}).
		Where("id = ?", recordID).
		Updates(map[string]any{
			"payslip_url":          url,
			"payslip_generated_at": generatedAt,
		}).Error
}
