package payroll

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-backoffice/internal/attendance"
	"go-backoffice/internal/bonus"
	"go-backoffice/internal/employee"
	"go-backoffice/internal/events"
	"go-backoffice/internal/loan"
	loanerrors "go-backoffice/internal/loan/errors"
	"go-backoffice/internal/messaging/kafka"
	payrollerrors "go-backoffice/internal/payroll/errors"
	"go-backoffice/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	dateLayout = "2006-01-02"

	PeriodSummaryKeyPrefix = "payroll:summary:"

	defaultSummaryTTL = 10 * time.Minute
)

func GetPeriodSummaryKey(periodID string) string {
	return PeriodSummaryKeyPrefix + periodID
}

//go:generate mockgen -source=payroll_service.go -destination=mock/payroll_service_mock.go -package=mock
type Service interface {
	CreatePeriod(ctx context.Context, req CreatePeriodRequest) (PeriodResponse, error)
	ProcessPeriod(ctx context.Context, periodID, actorID string) (ProcessPeriodResponse, error)
	ApprovePeriod(ctx context.Context, periodID, actorID string) (PeriodResponse, error)
	DisbursePeriod(ctx context.Context, periodID, actorID string, req DisbursePeriodRequest) (PeriodResponse, error)
	ClosePeriod(ctx context.Context, periodID, actorID string) (PeriodResponse, error)
	GetPeriod(ctx context.Context, periodID string) (PeriodResponse, error)
	ListPeriods(ctx context.Context, req ListPeriodsRequest) ([]PeriodResponse, int64, error)
	ListRecords(ctx context.Context, periodID string, req ListRecordsRequest) ([]RecordResponse, int64, error)
	GetRecord(ctx context.Context, recordID string) (RecordResponse, error)
	GetSummary(ctx context.Context, periodID string) (PeriodSummaryResponse, error)
	ReconcilePeriod(ctx context.Context, periodID string) (ReconciliationResponse, error)
	GeneratePayslips(ctx context.Context, periodID string) (PayslipBatchResponse, error)
	GetPayslipURL(ctx context.Context, recordID string) (string, error)
}

// Sources are the collaborators a processing run reads from and the loan
// ledger it debits.
type Sources struct {
	Employees  employee.Directory
	Attendance attendance.Reader
	Bonuses    bonus.Reader
	Loans      loan.Repository
	Ledger     loan.Ledger
}

// Options carries the optional infrastructure. Zero values disable the
// matching feature: no outbox events, no summary cache, no payslips.
type Options struct {
	Outbox     kafka.OutboxRepository
	Redis      *redis.Client
	SummaryTTL time.Duration
	Payslips   PayslipStore
	Workers    int
	Logger     *zap.Logger
}

type service struct {
	db         *sql.DB
	repo       Repository
	src        Sources
	calc       Calculator
	outbox     kafka.OutboxRepository
	rdb        *redis.Client
	summaryTTL time.Duration
	payslips   PayslipStore
	workers    int
	sf         *singleflight.Group
	now        func() time.Time
	logger     *zap.Logger
}

func NewService(db *sql.DB, repo Repository, src Sources, calc Calculator, opts Options) Service {
	l := zap.L().Named("payroll.service")
	if opts.Logger != nil {
		l = opts.Logger.Named("payroll.service")
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	ttl := opts.SummaryTTL
	if ttl <= 0 {
		ttl = defaultSummaryTTL
	}
	return &service{
		db:         db,
		repo:       repo,
		src:        src,
		calc:       calc,
		outbox:     opts.Outbox,
		rdb:        opts.Redis,
		summaryTTL: ttl,
		payslips:   opts.Payslips,
		workers:    workers,
		sf:         &singleflight.Group{},
		now:        time.Now,
		logger:     l,
	}
}

func (s *service) CreatePeriod(ctx context.Context, req CreatePeriodRequest) (PeriodResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	if req.Month < 1 || req.Month > 12 {
		return PeriodResponse{}, payrollerrors.ErrInvalidPeriodMonth
	}
	if req.Year < 2000 || req.Year > 2100 {
		return PeriodResponse{}, payrollerrors.ErrInvalidPeriodYear
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return PeriodResponse{}, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return PeriodResponse{}, err
	}
	if !start.Before(end) {
		return PeriodResponse{}, payrollerrors.ErrInvalidPeriodRange
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create period begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return PeriodResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	exists, err := qtx.PeriodExists(ctx, req.Year, req.Month)
	if err != nil {
		return PeriodResponse{}, err
	}
	if exists {
		s.logger.Warn("create period duplicate",
			zap.String("request_id", rid),
			zap.Int("year", req.Year),
			zap.Int("month", req.Month),
		)
		return PeriodResponse{}, payrollerrors.ErrPeriodAlreadyExists
	}

	period := &PayrollPeriod{
		ID:        uuid.New(),
		Year:      req.Year,
		Month:     req.Month,
		StartDate: start,
		EndDate:   end,
		Status:    StatusDraft,
	}
	if err := qtx.CreatePeriod(ctx, period); err != nil {
		return PeriodResponse{}, mapPeriodError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create period commit failed", zap.String("request_id", rid), zap.Error(err))
		return PeriodResponse{}, mapPeriodError(err)
	}

	s.logger.Info("payroll period created",
		zap.String("request_id", rid),
		zap.String("period_id", period.ID.String()),
		zap.Int("year", period.Year),
		zap.Int("month", period.Month),
	)

	return mapPeriodToResponse(*period), nil
}

func (s *service) ProcessPeriod(ctx context.Context, periodID, actorID string) (ProcessPeriodResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	pid, err := parseID(periodID, payrollerrors.ErrInvalidPeriodID)
	if err != nil {
		return ProcessPeriodResponse{}, err
	}
	aid, err := parseID(actorID, payrollerrors.ErrInvalidActorID)
	if err != nil {
		return ProcessPeriodResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("process period begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return ProcessPeriodResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	processedAt := s.now().UTC()

	if err := s.transition(ctx, qtx, pid, StatusProcessing, map[string]any{
		"processed_by": aid,
		"processed_at": processedAt,
	}); err != nil {
		s.logger.Warn("process period rejected",
			zap.String("request_id", rid),
			zap.String("period_id", periodID),
			zap.Error(err),
		)
		return ProcessPeriodResponse{}, err
	}

	period, err := qtx.FindPeriodByID(ctx, pid)
	if err != nil {
		return ProcessPeriodResponse{}, mapPeriodError(err)
	}

	employees, err := s.src.Employees.WithTx(tx).FindActive(ctx)
	if err != nil {
		return ProcessPeriodResponse{}, fmt.Errorf("load active employees: %w", err)
	}
	employeeIDs := make([]uuid.UUID, len(employees))
	for i, e := range employees {
		employeeIDs[i] = e.ID
	}

	attendanceRows, err := s.src.Attendance.WithTx(tx).FindByEmployeesInRange(ctx, employeeIDs, period.StartDate, period.EndDate)
	if err != nil {
		return ProcessPeriodResponse{}, fmt.Errorf("load attendance: %w", err)
	}
	bonusRows, err := s.src.Bonuses.WithTx(tx).FindApprovedForPeriod(ctx, pid)
	if err != nil {
		return ProcessPeriodResponse{}, fmt.Errorf("load bonuses: %w", err)
	}
	loanRows, err := s.src.Loans.WithTx(tx).FindActiveByEmployees(ctx, employeeIDs)
	if err != nil {
		return ProcessPeriodResponse{}, fmt.Errorf("load loans: %w", err)
	}

	results, err := s.calculateAll(ctx, *period, employees, runInputs{
		attendance: attendance.GroupByEmployee(attendanceRows),
		bonuses:    bonus.GroupByEmployee(bonusRows),
		loans:      groupLoansByEmployee(loanRows),
	})
	if err != nil {
		s.logger.Error("process period calculation failed",
			zap.String("request_id", rid),
			zap.String("period_id", periodID),
			zap.Error(err),
		)
		return ProcessPeriodResponse{}, err
	}

	// Single-threaded reduction: totals are only ever sums of the records.
	var totals Totals
	var floored []string
	records := make([]PayrollRecord, len(employees))
	for i, e := range employees {
		b := results[i].Breakdown
		records[i] = newRecord(pid, e, b)
		totals.Add(b)
		if b.NetFloored {
			floored = append(floored, e.ID.String())
		}
	}

	if err := qtx.CreateRecords(ctx, records); err != nil {
		return ProcessPeriodResponse{}, partialFailure("persist_records", "", err)
	}

	ledger := s.src.Ledger.WithTx(tx)
	installments := 0
	for i, calc := range results {
		for _, debit := range calc.LoanDebits {
			if _, err := ledger.ApplyInstallment(ctx, debit.LoanID, debit.Amount); err != nil {
				s.logger.Error("process period loan debit failed",
					zap.String("request_id", rid),
					zap.String("period_id", periodID),
					zap.String("employee_id", employees[i].ID.String()),
					zap.String("loan_id", debit.LoanID.String()),
					zap.Error(err),
				)
				if errors.Is(err, loanerrors.ErrLoanAlreadySettled) {
					return ProcessPeriodResponse{}, loanerrors.ErrLoanAlreadySettled.WithCause(err).WithDetails(map[string]string{
						"stage":       "apply_loan_installment",
						"employee_id": employees[i].ID.String(),
						"loan_id":     debit.LoanID.String(),
					})
				}
				return ProcessPeriodResponse{}, partialFailure("apply_loan_installment", employees[i].ID.String(), err)
			}
			installments++
		}
	}

	if err := qtx.UpdatePeriodTotals(ctx, pid, totals); err != nil {
		return ProcessPeriodResponse{}, partialFailure("update_totals", "", err)
	}

	period.Status = StatusProcessing
	period.ProcessedBy = &aid
	period.ProcessedAt = &processedAt
	period.TotalEmployees = totals.Employees
	period.TotalGrossSalary = totals.GrossSalary
	period.TotalDeductions = totals.TotalDeductions
	period.TotalNetSalary = totals.NetSalary

	if err := s.queueEvent(ctx, tx, events.PayrollPeriodProcessed, *period, aid.String()); err != nil {
		return ProcessPeriodResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("process period commit failed", zap.String("request_id", rid), zap.Error(err))
		return ProcessPeriodResponse{}, err
	}

	s.invalidateSummary(ctx, pid)

	for _, id := range floored {
		s.logger.Warn("net salary floored at zero",
			zap.String("period_id", periodID),
			zap.String("employee_id", id),
		)
	}
	s.logger.Info("payroll period processed",
		zap.String("request_id", rid),
		zap.String("period_id", periodID),
		zap.Int("employees", totals.Employees),
		zap.Int("loan_installments", installments),
		zap.String("total_net_salary", totals.NetSalary.StringFixed(2)),
	)

	return ProcessPeriodResponse{
		PeriodID:           periodID,
		Status:             StatusProcessing.String(),
		EmployeesProcessed: totals.Employees,
		TotalGross:         totals.GrossSalary.StringFixed(2),
		TotalDeductions:    totals.TotalDeductions.StringFixed(2),
		TotalNet:           totals.NetSalary.StringFixed(2),
		LoanInstallments:   installments,
		FlooredEmployees:   floored,
	}, nil
}

type runInputs struct {
	attendance map[uuid.UUID][]attendance.Record
	bonuses    map[uuid.UUID][]bonus.EmployeeBonus
	loans      map[uuid.UUID][]loan.EmployeeLoan
}

// calculateAll fans the calculator out over a bounded pool. Each worker
// writes only its own slot, and inputs are read-only.
func (s *service) calculateAll(
	ctx context.Context,
	period PayrollPeriod,
	employees []employee.Employee,
	in runInputs,
) ([]Calculation, error) {
	results := make([]Calculation, len(employees))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, e := range employees {
		i, e := i, e
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			comp := e.Compensation()
			if err := validateCompensation(comp); err != nil {
				return partialFailure("calculate", e.ID.String(), err)
			}
			results[i] = s.calc.Calculate(CalculationInput{
				PeriodID:     period.ID,
				StartDate:    period.StartDate,
				EndDate:      period.EndDate,
				Compensation: comp,
				Attendance:   in.attendance[e.ID],
				Bonuses:      in.bonuses[e.ID],
				Loans:        in.loans[e.ID],
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *service) ApprovePeriod(ctx context.Context, periodID, actorID string) (PeriodResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	pid, err := parseID(periodID, payrollerrors.ErrInvalidPeriodID)
	if err != nil {
		return PeriodResponse{}, err
	}
	aid, err := parseID(actorID, payrollerrors.ErrInvalidActorID)
	if err != nil {
		return PeriodResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PeriodResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := s.transition(ctx, qtx, pid, StatusApproved, map[string]any{
		"approved_by": aid,
		"approved_at": s.now().UTC(),
	}); err != nil {
		s.logger.Warn("approve period rejected", zap.String("request_id", rid), zap.String("period_id", periodID), zap.Error(err))
		return PeriodResponse{}, err
	}

	period, err := qtx.FindPeriodByID(ctx, pid)
	if err != nil {
		return PeriodResponse{}, mapPeriodError(err)
	}

	if err := s.queueEvent(ctx, tx, events.PayrollPeriodApproved, *period, aid.String()); err != nil {
		return PeriodResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("approve period commit failed", zap.String("request_id", rid), zap.Error(err))
		return PeriodResponse{}, err
	}

	s.invalidateSummary(ctx, pid)
	s.logger.Info("payroll period approved",
		zap.String("request_id", rid),
		zap.String("period_id", periodID),
		zap.String("approved_by", actorID),
	)

	return mapPeriodToResponse(*period), nil
}

func (s *service) DisbursePeriod(ctx context.Context, periodID, actorID string, req DisbursePeriodRequest) (PeriodResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	pid, err := parseID(periodID, payrollerrors.ErrInvalidPeriodID)
	if err != nil {
		return PeriodResponse{}, err
	}
	paymentDate, err := parseDate(req.PaymentDate)
	if err != nil {
		return PeriodResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PeriodResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := s.transition(ctx, qtx, pid, StatusPaid, map[string]any{
		"payment_date": paymentDate,
	}); err != nil {
		s.logger.Warn("disburse period rejected", zap.String("request_id", rid), zap.String("period_id", periodID), zap.Error(err))
		return PeriodResponse{}, err
	}

	period, err := qtx.FindPeriodByID(ctx, pid)
	if err != nil {
		return PeriodResponse{}, mapPeriodError(err)
	}

	paid, err := qtx.MarkRecordsPaid(ctx, pid, paymentDate)
	if err != nil {
		return PeriodResponse{}, partialFailure("mark_records_paid", "", err)
	}
	if paid != int64(period.TotalEmployees) {
		s.logger.Error("disburse period record count mismatch",
			zap.String("request_id", rid),
			zap.String("period_id", periodID),
			zap.Int64("records_paid", paid),
			zap.Int("total_employees", period.TotalEmployees),
		)
		return PeriodResponse{}, partialFailure("mark_records_paid", "",
			fmt.Errorf("marked %d records paid, period has %d", paid, period.TotalEmployees))
	}

	if err := s.queueEvent(ctx, tx, events.PayrollPeriodPaid, *period, actorID); err != nil {
		return PeriodResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("disburse period commit failed", zap.String("request_id", rid), zap.Error(err))
		return PeriodResponse{}, err
	}

	s.invalidateSummary(ctx, pid)
	s.logger.Info("payroll period disbursed",
		zap.String("request_id", rid),
		zap.String("period_id", periodID),
		zap.String("payment_date", paymentDate.Format(dateLayout)),
		zap.Int64("records_paid", paid),
	)

	return mapPeriodToResponse(*period), nil
}

func (s *service) ClosePeriod(ctx context.Context, periodID, actorID string) (PeriodResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	pid, err := parseID(periodID, payrollerrors.ErrInvalidPeriodID)
	if err != nil {
		return PeriodResponse{}, err
	}
	aid, err := parseID(actorID, payrollerrors.ErrInvalidActorID)
	if err != nil {
		return PeriodResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PeriodResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := s.transition(ctx, qtx, pid, StatusClosed, map[string]any{
		"closed_by": aid,
		"closed_at": s.now().UTC(),
	}); err != nil {
		return PeriodResponse{}, err
	}

	period, err := qtx.FindPeriodByID(ctx, pid)
	if err != nil {
		return PeriodResponse{}, mapPeriodError(err)
	}

	if err := tx.Commit(); err != nil {
		return PeriodResponse{}, err
	}

	s.invalidateSummary(ctx, pid)
	s.logger.Info("payroll period closed", zap.String("request_id", rid), zap.String("period_id", periodID))

	return mapPeriodToResponse(*period), nil
}

func (s *service) GetPeriod(ctx context.Context, periodID string) (PeriodResponse, error) {
	pid, err := parseID(periodID, payrollerrors.ErrInvalidPeriodID)
	if err != nil {
		return PeriodResponse{}, err
	}

	period, err := s.repo.FindPeriodByID(ctx, pid)
	if err != nil {
		return PeriodResponse{}, mapPeriodError(err)
	}
	return mapPeriodToResponse(*period), nil
}

func (s *service) ListPeriods(ctx context.Context, req ListPeriodsRequest) ([]PeriodResponse, int64, error) {
	filter := PeriodFilter{Page: req.Page, PageSize: req.PageSize}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if req.Year != 0 {
		year := req.Year
		filter.Year = &year
	}
	if req.Status != "" {
		status, err := ParsePeriodStatus(req.Status)
		if err != nil {
			return nil, 0, err
		}
		filter.Status = &status
	}

	periods, total, err := s.repo.ListPeriods(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]PeriodResponse, len(periods))
	for i, p := range periods {
		resp[i] = mapPeriodToResponse(p)
	}
	return resp, total, nil
}

func (s *service) ListRecords(ctx context.Context, periodID string, req ListRecordsRequest) ([]RecordResponse, int64, error) {
	pid, err := parseID(periodID, payrollerrors.ErrInvalidPeriodID)
	if err != nil {
		return nil, 0, err
	}
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	if _, err := s.repo.FindPeriodByID(ctx, pid); err != nil {
		return nil, 0, mapPeriodError(err)
	}

	records, total, err := s.repo.ListRecords(ctx, pid, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]RecordResponse, len(records))
	for i, r := range records {
		resp[i] = mapRecordToResponse(r)
	}
	return resp, total, nil
}

func (s *service) GetRecord(ctx context.Context, recordID string) (RecordResponse, error) {
	id, err := parseID(recordID, payrollerrors.ErrInvalidRecordID)
	if err != nil {
		return RecordResponse{}, err
	}

	record, err := s.repo.FindRecordByID(ctx, id)
	if err != nil {
		return RecordResponse{}, mapRecordError(err)
	}
	return mapRecordToResponse(*record), nil
}

func (s *service) GetSummary(ctx context.Context, periodID string) (PeriodSummaryResponse, error) {
	pid, err := parseID(periodID, payrollerrors.ErrInvalidPeriodID)
	if err != nil {
		return PeriodSummaryResponse{}, err
	}
	cacheKey := GetPeriodSummaryKey(pid.String())

	// Every change to a period's totals or payments moves its status and
	// updated_at, so a cached summary is only served for the same version.
	period, err := s.repo.FindPeriodByID(ctx, pid)
	if err != nil {
		return PeriodSummaryResponse{}, mapPeriodError(err)
	}

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var resp PeriodSummaryResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil && resp.matches(period) {
				return resp, nil
			}
		}
	}

	flight := cacheKey + ":" + period.Status.String() + ":" + period.UpdatedAt.UTC().Format(time.RFC3339Nano)
	v, err, _ := s.sf.Do(flight, func() (any, error) {
		agg, err := s.repo.AggregateRecords(ctx, pid)
		if err != nil {
			return nil, err
		}

		resp := PeriodSummaryResponse{
			PeriodID:         period.ID.String(),
			Year:             period.Year,
			Month:            period.Month,
			Status:           period.Status.String(),
			TotalEmployees:   period.TotalEmployees,
			TotalGrossSalary: period.TotalGrossSalary.StringFixed(2),
			TotalDeductions:  period.TotalDeductions.StringFixed(2),
			TotalNetSalary:   period.TotalNetSalary.StringFixed(2),
			FlooredRecords:   agg.FlooredRecords,
			PaidRecords:      agg.PaidRecords,
			UpdatedAt:        period.UpdatedAt,
		}

		if s.rdb != nil {
			if data, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, cacheKey, data, s.summaryTTL).Err(); err != nil {
					s.logger.Warn("cache period summary failed", zap.String("key", cacheKey), zap.Error(err))
				}
			}
		}

		return resp, nil
	})
	if err != nil {
		return PeriodSummaryResponse{}, err
	}

	return v.(PeriodSummaryResponse), nil
}

// ReconcilePeriod recomputes the totals from the stored records and reports
// every field where they disagree with the period.
func (s *service) ReconcilePeriod(ctx context.Context, periodID string) (ReconciliationResponse, error) {
	pid, err := parseID(periodID, payrollerrors.ErrInvalidPeriodID)
	if err != nil {
		return ReconciliationResponse{}, err
	}

	period, err := s.repo.FindPeriodByID(ctx, pid)
	if err != nil {
		return ReconciliationResponse{}, mapPeriodError(err)
	}
	agg, err := s.repo.AggregateRecords(ctx, pid)
	if err != nil {
		return ReconciliationResponse{}, err
	}

	stored := period.Totals()
	computed := agg.Totals
	var mismatches []string
	if !stored.Equal(computed) {
		mismatches = append(mismatches, totalsMismatches(stored, computed)...)
	}
	if !stored.GrossSalary.Sub(stored.TotalDeductions).Equal(stored.NetSalary) && agg.FlooredRecords == 0 {
		mismatches = append(mismatches, "stored gross minus deductions does not equal net")
	}

	pending := computed.Employees - agg.PaidRecords
	switch period.Status {
	case StatusPaid, StatusClosed:
		if pending != 0 {
			mismatches = append(mismatches, fmt.Sprintf("payments: %d records still pending in a %s period", pending, period.Status))
		}
	default:
		if agg.PaidRecords != 0 {
			mismatches = append(mismatches, fmt.Sprintf("payments: %d records paid in a %s period", agg.PaidRecords, period.Status))
		}
	}

	if len(mismatches) > 0 {
		s.logger.Error("payroll period reconciliation failed",
			zap.String("period_id", periodID),
			zap.Strings("mismatches", mismatches),
		)
	}

	return ReconciliationResponse{
		PeriodID:   periodID,
		Consistent: len(mismatches) == 0,
		Stored:     mapTotalsToResponse(stored),
		Computed:   mapTotalsToResponse(computed),
		Mismatches: mismatches,
		Payments:   PaymentsBreakdown{Paid: agg.PaidRecords, Pending: pending},
	}, nil
}

// GeneratePayslips renders a PDF for every record of a paid period that
// does not have one yet. Re-running it only fills the gaps.
func (s *service) GeneratePayslips(ctx context.Context, periodID string) (PayslipBatchResponse, error) {
	pid, err := parseID(periodID, payrollerrors.ErrInvalidPeriodID)
	if err != nil {
		return PayslipBatchResponse{}, err
	}
	if s.payslips == nil {
		return PayslipBatchResponse{}, fmt.Errorf("payslip store is not configured")
	}

	period, err := s.repo.FindPeriodByID(ctx, pid)
	if err != nil {
		return PayslipBatchResponse{}, mapPeriodError(err)
	}
	if period.Status != StatusPaid && period.Status != StatusClosed {
		return PayslipBatchResponse{}, payrollerrors.ErrPayslipRequiresPaidPeriod
	}

	records, err := s.repo.FindRecordsByPeriod(ctx, pid)
	if err != nil {
		return PayslipBatchResponse{}, err
	}

	resp := PayslipBatchResponse{PeriodID: periodID}
	for _, record := range records {
		if record.PayslipURL != nil && *record.PayslipURL != "" {
			resp.Skipped++
			continue
		}

		pdf, err := buildSimplePayslipPDF(payslipLines(*period, record))
		if err != nil {
			return resp, fmt.Errorf("render payslip for record %s: %w", record.ID, err)
		}
		url, err := s.payslips.Save(ctx, payslipFileName(*period, record), pdf)
		if err != nil {
			return resp, err
		}
		if err := s.repo.SavePayslip(ctx, record.ID, url, s.now().UTC()); err != nil {
			return resp, fmt.Errorf("save payslip url for record %s: %w", record.ID, err)
		}
		resp.Generated++
	}

	s.logger.Info("payslips generated",
		zap.String("period_id", periodID),
		zap.Int("generated", resp.Generated),
		zap.Int("skipped", resp.Skipped),
	)

	return resp, nil
}

func (s *service) GetPayslipURL(ctx context.Context, recordID string) (string, error) {
	id, err := parseID(recordID, payrollerrors.ErrInvalidRecordID)
	if err != nil {
		return "", err
	}

	record, err := s.repo.FindRecordByID(ctx, id)
	if err != nil {
		return "", mapRecordError(err)
	}
	if record.PayslipURL == nil || *record.PayslipURL == "" {
		return "", payrollerrors.ErrPayslipNotGenerated
	}
	return *record.PayslipURL, nil
}

// transition applies the single allowed move into target. When the
// conditional update loses, the period is re-read to report either
// not-found or the status it is actually in.
func (s *service) transition(ctx context.Context, qtx Repository, id uuid.UUID, target PeriodStatus, fields map[string]any) error {
	from, ok := RequiredSourceStatus(target)
	if !ok {
		return payrollerrors.ErrInvalidStateTransition
	}

	won, err := qtx.TransitionPeriod(ctx, id, from, target, fields)
	if err != nil {
		return err
	}
	if won {
		return nil
	}

	current, err := qtx.FindPeriodByID(ctx, id)
	if err != nil {
		return mapPeriodError(err)
	}
	return ValidateTransition(current.Status, target)
}

func (s *service) queueEvent(ctx context.Context, tx *sql.Tx, eventType string, period PayrollPeriod, actorID string) error {
	if s.outbox == nil {
		return nil
	}
	topic, ok := events.TopicFor(eventType)
	if !ok {
		return fmt.Errorf("no topic for event %s", eventType)
	}

	event := events.PayrollPeriodEvent{
		EventType:       eventType,
		PeriodID:        period.ID.String(),
		Year:            period.Year,
		Month:           period.Month,
		Status:          period.Status.String(),
		ActorID:         actorID,
		TotalEmployees:  period.TotalEmployees,
		TotalGross:      period.TotalGrossSalary.StringFixed(2),
		TotalDeductions: period.TotalDeductions.StringFixed(2),
		TotalNet:        period.TotalNetSalary.StringFixed(2),
		OccurredAt:      s.now().UTC(),
	}
	if period.PaymentDate != nil {
		event.PaymentDate = period.PaymentDate.Format(dateLayout)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "payroll_period",
		AggregateID:   period.ID.String(),
		EventType:     eventType,
		Topic:         topic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("payroll outbox persist failed",
			zap.String("period_id", period.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *service) invalidateSummary(ctx context.Context, periodID uuid.UUID) {
	if s.rdb == nil {
		return
	}
	key := GetPeriodSummaryKey(periodID.String())
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.logger.Error("invalidate period summary failed", zap.String("key", key), zap.Error(err))
	}
}

func partialFailure(stage, employeeID string, err error) error {
	details := map[string]string{"stage": stage}
	if employeeID != "" {
		details["employee_id"] = employeeID
	}
	return payrollerrors.ErrPartialFailure.WithCause(err).WithDetails(details)
}

func validateCompensation(c employee.Compensation) error {
	for name, v := range map[string]interface{ IsNegative() bool }{
		"base_salary":         c.BaseSalary,
		"housing_allowance":   c.HousingAllowance,
		"transport_allowance": c.TransportAllowance,
		"other_allowances":    c.OtherAllowances,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%s is negative", name)
		}
	}
	return nil
}

func groupLoansByEmployee(rows []loan.EmployeeLoan) map[uuid.UUID][]loan.EmployeeLoan {
	out := make(map[uuid.UUID][]loan.EmployeeLoan)
	for _, l := range rows {
		out[l.EmployeeID] = append(out[l.EmployeeID], l)
	}
	return out
}

func newRecord(periodID uuid.UUID, e employee.Employee, b Breakdown) PayrollRecord {
	return PayrollRecord{
		ID:                 uuid.New(),
		PayrollPeriodID:    periodID,
		EmployeeID:         e.ID,
		EmployeeNumber:     e.EmployeeNumber,
		EmployeeName:       e.FullName,
		BaseSalary:         b.BaseSalary,
		HousingAllowance:   b.HousingAllowance,
		TransportAllowance: b.TransportAllowance,
		OtherAllowances:    b.OtherAllowances,
		Bonuses:            b.Bonuses,
		SocialInsurance:    b.SocialInsurance,
		LoanDeduction:      b.LoanDeduction,
		AbsenceDeduction:   b.AbsenceDeduction,
		LateDeduction:      b.LateDeduction,
		GrossSalary:        b.GrossSalary,
		TotalDeductions:    b.TotalDeductions,
		NetSalary:          b.NetSalary,
		AbsentDays:         b.AbsentDays,
		LateMinutes:        b.LateMinutes,
		NetFloored:         b.NetFloored,
		PaymentStatus:      PaymentStatusPending,
	}
}

func parseID(v string, invalid error) (uuid.UUID, error) {
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, invalid
	}
	return id, nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, payrollerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func formatTime(t *time.Time, layout string) *string {
	if t == nil {
		return nil
	}
	v := t.Format(layout)
	return &v
}

func formatID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	v := id.String()
	return &v
}

func mapPeriodToResponse(p PayrollPeriod) PeriodResponse {
	return PeriodResponse{
		ID:               p.ID.String(),
		Year:             p.Year,
		Month:            p.Month,
		StartDate:        p.StartDate.Format(dateLayout),
		EndDate:          p.EndDate.Format(dateLayout),
		Status:           p.Status.String(),
		TotalEmployees:   p.TotalEmployees,
		TotalGrossSalary: p.TotalGrossSalary.StringFixed(2),
		TotalDeductions:  p.TotalDeductions.StringFixed(2),
		TotalNetSalary:   p.TotalNetSalary.StringFixed(2),
		ProcessedBy:      formatID(p.ProcessedBy),
		ProcessedAt:      formatTime(p.ProcessedAt, time.RFC3339),
		ApprovedBy:       formatID(p.ApprovedBy),
		ApprovedAt:       formatTime(p.ApprovedAt, time.RFC3339),
		PaymentDate:      formatTime(p.PaymentDate, dateLayout),
		ClosedBy:         formatID(p.ClosedBy),
		ClosedAt:         formatTime(p.ClosedAt, time.RFC3339),
	}
}

func mapRecordToResponse(r PayrollRecord) RecordResponse {
	return RecordResponse{
		ID:                 r.ID.String(),
		PeriodID:           r.PayrollPeriodID.String(),
		EmployeeID:         r.EmployeeID.String(),
		EmployeeNumber:     r.EmployeeNumber,
		EmployeeName:       r.EmployeeName,
		BaseSalary:         r.BaseSalary.StringFixed(2),
		HousingAllowance:   r.HousingAllowance.StringFixed(2),
		TransportAllowance: r.TransportAllowance.StringFixed(2),
		OtherAllowances:    r.OtherAllowances.StringFixed(2),
		Bonuses:            r.Bonuses.StringFixed(2),
		SocialInsurance:    r.SocialInsurance.StringFixed(2),
		LoanDeduction:      r.LoanDeduction.StringFixed(2),
		AbsenceDeduction:   r.AbsenceDeduction.StringFixed(2),
		LateDeduction:      r.LateDeduction.StringFixed(2),
		GrossSalary:        r.GrossSalary.StringFixed(2),
		TotalDeductions:    r.TotalDeductions.StringFixed(2),
		NetSalary:          r.NetSalary.StringFixed(2),
		AbsentDays:         r.AbsentDays,
		LateMinutes:        r.LateMinutes,
		NetFloored:         r.NetFloored,
		PaymentStatus:      r.PaymentStatus,
		PaymentDate:        formatTime(r.PaymentDate, dateLayout),
		PayslipURL:         r.PayslipURL,
	}
}

func mapTotalsToResponse(t Totals) TotalsResponse {
	return TotalsResponse{
		Employees:       t.Employees,
		GrossSalary:     t.GrossSalary.StringFixed(2),
		TotalDeductions: t.TotalDeductions.StringFixed(2),
		NetSalary:       t.NetSalary.StringFixed(2),
	}
}

func totalsMismatches(stored, computed Totals) []string {
	var out []string
	if stored.Employees != computed.Employees {
		out = append(out, fmt.Sprintf("total_employees: stored %d, records %d", stored.Employees, computed.Employees))
	}
	if !stored.GrossSalary.Equal(computed.GrossSalary) {
		out = append(out, fmt.Sprintf("total_gross_salary: stored %s, records %s", stored.GrossSalary.StringFixed(2), computed.GrossSalary.StringFixed(2)))
	}
	if !stored.TotalDeductions.Equal(computed.TotalDeductions) {
		out = append(out, fmt.Sprintf("total_deductions: stored %s, records %s", stored.TotalDeductions.StringFixed(2), computed.TotalDeductions.StringFixed(2)))
	}
	if !stored.NetSalary.Equal(computed.NetSalary) {
		out = append(out, fmt.Sprintf("total_net_salary: stored %s, records %s", stored.NetSalary.StringFixed(2), computed.NetSalary.StringFixed(2)))
	}
	return out
}
