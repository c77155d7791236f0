package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/reports"
	"tillpoint/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GetSalesSummary handles GET /reports/sales-summary
func (h *ReportsHandler) GetSalesSummary(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SalesSummaryRequest
	if !h.BindQuery(c, &req) {
		return
	}

	fromDate, toDate, ok := h.parsePeriod(c, req.PeriodRequest)
	if !ok {
		return
	}

	filter := reports.SalesSummaryFilter{
		FromDate: fromDate,
		ToDate:   toDate,
	}
	if req.CustomerID != "" {
		customerID, err := id.Parse(req.CustomerID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid customer id"))
			return
		}
		filter.CustomerID = &customerID
	}

	summary, err := h.service.GetSalesSummary(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSalesSummary(summary))
}

// GetPaymentBreakdown handles GET /reports/payment-breakdown
func (h *ReportsHandler) GetPaymentBreakdown(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SalesSummaryRequest
	if !h.BindQuery(c, &req) {
		return
	}

	fromDate, toDate, ok := h.parsePeriod(c, req.PeriodRequest)
	if !ok {
		return
	}

	breakdown, err := h.service.GetPaymentBreakdown(ctx, reports.SalesSummaryFilter{
		FromDate: fromDate,
		ToDate:   toDate,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPaymentBreakdown(breakdown))
}

// GetTopProducts handles GET /reports/top-products
func (h *ReportsHandler) GetTopProducts(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.TopProductsRequest
	if !h.BindQuery(c, &req) {
		return
	}

	fromDate, toDate, ok := h.parsePeriod(c, req.PeriodRequest)
	if !ok {
		return
	}

	items, err := h.service.GetTopProducts(ctx, reports.TopProductsFilter{
		FromDate: fromDate,
		ToDate:   toDate,
		Limit:    req.Limit,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": dto.FromTopProducts(items)})
}

// GetDebtors handles GET /reports/debtors
func (h *ReportsHandler) GetDebtors(c *gin.Context) {
	ctx := c.Request.Context()

	limit := h.ParseIntQuery(c, "limit", 0)
	offset := h.ParseIntQuery(c, "offset", 0)

	items, err := h.service.GetDebtors(ctx, limit, offset)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": dto.FromDebtors(items)})
}

func (h *ReportsHandler) parsePeriod(c *gin.Context, req dto.PeriodRequest) (time.Time, time.Time, bool) {
	fromDate, err := time.Parse(time.RFC3339, req.FromDate)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid fromDate format, expected RFC3339"))
		return time.Time{}, time.Time{}, false
	}

	toDate, err := time.Parse(time.RFC3339, req.ToDate)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid toDate format, expected RFC3339"))
		return time.Time{}, time.Time{}, false
	}

	return fromDate, toDate, true
}
