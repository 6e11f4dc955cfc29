package payroll_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"go-backoffice/internal/payroll"
	"go-backoffice/internal/shared/dbtx"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
)

func setupPayrollRepo(t *testing.T) (payroll.Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := dbtx.Open(postgres.New(postgres.Config{Conn: db}))
	require.NoError(t, err)

	return payroll.NewRepository(gdb), mock
}

func TestRepository_TransitionPeriod(t *testing.T) {
	query := regexp.QuoteMeta(`UPDATE "payroll_periods" SET`)

	t.Run("won", func(t *testing.T) {
		repo, mock := setupPayrollRepo(t)
		mock.ExpectExec(query + `(.+)WHERE id = (.+) AND status = (.+)`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		won, err := repo.TransitionPeriod(context.Background(), uuid.New(), payroll.StatusDraft, payroll.StatusProcessing,
			map[string]any{"processed_at": time.Now()})

		assert.NoError(t, err)
		assert.True(t, won)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost the race", func(t *testing.T) {
		repo, mock := setupPayrollRepo(t)
		mock.ExpectExec(query).WillReturnResult(sqlmock.NewResult(0, 0))

		won, err := repo.TransitionPeriod(context.Background(), uuid.New(), payroll.StatusDraft, payroll.StatusProcessing, nil)

		assert.NoError(t, err)
		assert.False(t, won)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_MarkRecordsPaid(t *testing.T) {
	repo, mock := setupPayrollRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "payroll_records" SET`) + `(.+)WHERE payroll_period_id = (.+) AND payment_status = (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.MarkRecordsPaid(context.Background(), uuid.New(), day("2025-05-01"))

	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AggregateRecords(t *testing.T) {
	repo, mock := setupPayrollRepo(t)
	periodID := uuid.New()

	rows := sqlmock.NewRows([]string{"employees", "gross_salary", "total_deductions", "net_salary", "floored_records", "paid_records"}).
		AddRow(2, "15000.00", "2295.83", "12704.17", 0, 2)
	mock.ExpectQuery(`SELECT(.+)FROM payroll_records(.+)WHERE payroll_period_id`).
		WithArgs(payroll.PaymentStatusPaid, periodID.String()).
		WillReturnRows(rows)

	agg, err := repo.AggregateRecords(context.Background(), periodID)

	require.NoError(t, err)
	assert.Equal(t, 2, agg.Employees)
	assert.Equal(t, "12704.17", agg.NetSalary.StringFixed(2))
	assert.Equal(t, 2, agg.PaidRecords)
	assert.NoError(t, mock.ExpectationsWereMet())
}
