package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	paymentapp "github.com/retailpos/backend/internal/application/payment"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
)

// TransactionHandler handles payment transaction query endpoints
type TransactionHandler struct {
	BaseHandler
	service *paymentapp.Service
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(service *paymentapp.Service) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// GetByID retrieves a transaction by ID
func (h *TransactionHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	txID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	resp, err := h.service.Get(c.Request.Context(), tenantID, txID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List returns a page of transactions
func (h *TransactionHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := toFilter(req)
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}
	if gateway := c.Query("gateway"); gateway != "" {
		filter.Filters["gateway"] = gateway
	}
	if method := c.Query("method"); method != "" {
		filter.Filters["method"] = method
	}

	page, err := h.service.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// SweepRequest bounds a manually triggered pending-transaction sweep
type SweepRequest struct {
	OlderThan string `form:"older_than" binding:"omitempty"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// Sweep cancels PENDING and PROCESSING transactions older than the
// given age for the caller's tenant. The background sweeper does the
// same on a timer; this endpoint exists for manual follow-up.
func (h *TransactionHandler) Sweep(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	req := SweepRequest{OlderThan: "24h", Limit: 100}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	olderThan, err := time.ParseDuration(req.OlderThan)
	if err != nil || olderThan <= 0 {
		h.BadRequest(c, "Invalid older_than duration")
		return
	}

	swept, err := h.service.SweepPending(c.Request.Context(), tenantID, olderThan, req.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"swept": swept})
}

// ListBySale returns all transactions recorded against a sale
func (h *TransactionHandler) ListBySale(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	saleID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	resp, err := h.service.ListBySale(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
