package app

import (
	"database/sql"
	"net/http"

	"go-backoffice/internal/attendance"
	"go-backoffice/internal/bonus"
	"go-backoffice/internal/config"
	"go-backoffice/internal/employee"
	"go-backoffice/internal/loan"
	"go-backoffice/internal/messaging/kafka"
	"go-backoffice/internal/payroll"
	"go-backoffice/internal/rbac"
	"go-backoffice/internal/rbac/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// newPayrollService wires the engine with its readers, the loan ledger and
// the outbox. The API and the payslip consumer share it.
func newPayrollService(
	cfg *config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) (payroll.Service, error) {
	calc, err := payroll.NewCalculator(payroll.Rates{
		InsuranceRate:     cfg.Payroll.InsuranceRate,
		DaysPerMonth:      cfg.Payroll.DaysPerMonth,
		HoursPerDay:       cfg.Payroll.HoursPerDay,
		MissingAttendance: payroll.MissingAttendancePolicy(cfg.Payroll.MissingAttendancePolicy),
	})
	if err != nil {
		return nil, err
	}

	loanRepo := loan.NewRepository(gormDB)

	return payroll.NewService(db, payroll.NewRepository(gormDB), payroll.Sources{
		Employees:  employee.NewDirectory(gormDB),
		Attendance: attendance.NewReader(gormDB),
		Bonuses:    bonus.NewReader(gormDB),
		Loans:      loanRepo,
		Ledger:     loan.NewLedger(loanRepo, logger),
	}, calc, payroll.Options{
		Outbox:     kafka.NewOutboxRepository(db),
		Redis:      rdb,
		SummaryTTL: cfg.Payroll.PeriodSummaryCacheTTL,
		Payslips:   payroll.NewFileStore(cfg.Payroll.PayslipStorageDir, cfg.Payroll.PayslipPublicBaseURL),
		Workers:    cfg.Payroll.Workers,
		Logger:     logger,
	}), nil
}

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) error {
	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbac.NewRepository(gormDB), enforcer, logger)
	if err := rbacService.LoadPolicy(); err != nil {
		return err
	}

	// --- Services ---
	payrollService, err := newPayrollService(cfg, db, gormDB, rdb, logger)
	if err != nil {
		return err
	}

	// --- Handlers ---
	payrollHandler := payroll.NewHandlerWithRedis(payrollService, rdb, cfg.Payroll.IdempotencyResultTTL)

	// --- Routes Registration ---
	router.StaticFS(cfg.Payroll.PayslipPublicBaseURL, http.Dir(cfg.Payroll.PayslipStorageDir))

	api := router.Group("/api/v1")
	{
		payroll.RegisterRoutes(api, payrollHandler, payroll.RouteDeps{
			JWTSecret:          cfg.JWTSecret,
			RBAC:               rbacService,
			Redis:              rdb,
			Logger:             logger,
			IdempotencyLockTTL: cfg.Payroll.IdempotencyLockTTL,
			RateLimit:          rate.Limit(cfg.RateLimitRPS),
			Burst:              cfg.RateLimitBurst,
		})
	}

	return nil
}
