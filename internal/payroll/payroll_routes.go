package payroll

import (
	"time"

	"go-backoffice/internal/middleware"
	"go-backoffice/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultIdempotencyLockTTL = 30 * time.Second

type RouteDeps struct {
	JWTSecret string
	RBAC      rbac.Service
	Redis     *redis.Client
	Logger    *zap.Logger
	// IdempotencyLockTTL bounds how long a crashed request blocks its key.
	IdempotencyLockTTL time.Duration
	// RateLimit of zero disables the per-user limiter.
	RateLimit rate.Limit
	Burst     int
}

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, deps RouteDeps) {
	lockTTL := deps.IdempotencyLockTTL
	if lockTTL <= 0 {
		lockTTL = defaultIdempotencyLockTTL
	}

	authz := func(action string) gin.HandlerFunc {
		return middleware.RBACAuthorize(deps.RBAC, "payroll", action)
	}

	// post wires the idempotency guard only when redis is configured.
	post := func(group *gin.RouterGroup, path, action string, h gin.HandlerFunc) {
		if deps.Redis != nil {
			group.POST(path, authz(action), middleware.Idempotency(deps.Redis, lockTTL), h)
			return
		}
		group.POST(path, authz(action), h)
	}

	secured := []gin.HandlerFunc{
		middleware.AuthMiddleware(deps.JWTSecret),
		middleware.ExtractUserID(),
	}
	if deps.Logger != nil {
		secured = append(secured, middleware.ContextLogger(deps.Logger))
	}
	if deps.RateLimit > 0 {
		secured = append(secured, middleware.RateLimitByUser(deps.RateLimit, deps.Burst))
	}

	periods := r.Group("/payroll-periods")
	periods.Use(secured...)
	{
		periods.GET("", authz("read"), handler.GetAll)
		periods.GET("/:id", authz("read"), handler.GetByID)
		periods.GET("/:id/records", authz("read"), handler.GetRecords)
		periods.GET("/:id/summary", authz("read"), handler.GetSummary)
		periods.GET("/:id/reconciliation", authz("read"), handler.Reconcile)

		post(periods, "", "create", handler.Create)
		post(periods, "/:id/process", "process", handler.Process)
		post(periods, "/:id/approve", "approve", handler.Approve)
		post(periods, "/:id/disburse", "disburse", handler.Disburse)
		post(periods, "/:id/close", "close", handler.Close)
		post(periods, "/:id/payslips", "payslip", handler.GeneratePayslips)
	}

	records := r.Group("/payroll-records")
	records.Use(secured...)
	{
		records.GET("/:recordId", authz("read"), handler.GetRecord)
		records.GET("/:recordId/payslip", authz("read"), handler.DownloadPayslip)
	}
}
