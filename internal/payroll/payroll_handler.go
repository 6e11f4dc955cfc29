package payroll

import (
	"net/http"
	"time"

	"go-backoffice/internal/middleware"
	"go-backoffice/internal/shared/apperror"
	"go-backoffice/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyResultTTL = 24 * time.Hour

type Handler struct {
	service   Service
	rdb       *redis.Client
	resultTTL time.Duration
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// NewHandlerWithRedis stores POST results for Idempotency-Key replays for
// resultTTL (24h when zero).
func NewHandlerWithRedis(service Service, rdb *redis.Client, resultTTL time.Duration) *Handler {
	if resultTTL <= 0 {
		resultTTL = defaultIdempotencyResultTTL
	}
	return &Handler{service: service, rdb: rdb, resultTTL: resultTTL}
}

func getActorID(c *gin.Context) string {
	actorID := c.GetString("user_id_validated")
	if actorID == "" {
		actorID = c.GetString(middleware.ContextUserID)
	}
	return actorID
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) writeBindError(c *gin.Context, err error) {
	h.writeServiceError(c, apperror.MapValidationError(err))
}

// finish completes the idempotency protocol for a POST. A failed request
// only releases the lock so the client can retry with the same key.
func (h *Handler) finish(c *gin.Context, result any) {
	middleware.CompleteIdempotent(c, h.rdb, result, h.resultTTL)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.finish(c, nil)
		h.writeBindError(c, err)
		return
	}

	resp, err := h.service.CreatePeriod(c.Request.Context(), req)
	if err != nil {
		h.finish(c, nil)
		h.writeServiceError(c, err)
		return
	}

	h.finish(c, resp)
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Process(c *gin.Context) {
	resp, err := h.service.ProcessPeriod(c.Request.Context(), c.Param("id"), getActorID(c))
	if err != nil {
		h.finish(c, nil)
		h.writeServiceError(c, err)
		return
	}

	h.finish(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	resp, err := h.service.ApprovePeriod(c.Request.Context(), c.Param("id"), getActorID(c))
	if err != nil {
		h.finish(c, nil)
		h.writeServiceError(c, err)
		return
	}

	h.finish(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Disburse(c *gin.Context) {
	var req DisbursePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.finish(c, nil)
		h.writeBindError(c, err)
		return
	}

	resp, err := h.service.DisbursePeriod(c.Request.Context(), c.Param("id"), getActorID(c), req)
	if err != nil {
		h.finish(c, nil)
		h.writeServiceError(c, err)
		return
	}

	h.finish(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Close(c *gin.Context) {
	resp, err := h.service.ClosePeriod(c.Request.Context(), c.Param("id"), getActorID(c))
	if err != nil {
		h.finish(c, nil)
		h.writeServiceError(c, err)
		return
	}

	h.finish(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	var req ListPeriodsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	resp, total, err := h.service.ListPeriods(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	meta := response.NewPaginationMeta(total, req.Page, req.PageSize)
	response.Success(c, http.StatusOK, resp, &meta)
}

func (h *Handler) GetByID(c *gin.Context) {
	resp, err := h.service.GetPeriod(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetRecords(c *gin.Context) {
	var req ListRecordsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	resp, total, err := h.service.ListRecords(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	meta := response.NewPaginationMeta(total, req.Page, req.PageSize)
	response.Success(c, http.StatusOK, resp, &meta)
}

func (h *Handler) GetSummary(c *gin.Context) {
	resp, err := h.service.GetSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Reconcile(c *gin.Context) {
	resp, err := h.service.ReconcilePeriod(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GeneratePayslips(c *gin.Context) {
	resp, err := h.service.GeneratePayslips(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.finish(c, nil)
		h.writeServiceError(c, err)
		return
	}

	h.finish(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetRecord(c *gin.Context) {
	resp, err := h.service.GetRecord(c.Request.Context(), c.Param("recordId"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) DownloadPayslip(c *gin.Context) {
	url, err := h.service.GetPayslipURL(c.Request.Context(), c.Param("recordId"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Redirect(http.StatusFound, url)
}
