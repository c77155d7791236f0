package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/sale"
	"tillpoint/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles sale settlement and lookup endpoints.
type SaleHandler struct {
	*BaseHandler
	settlement *sale.Settlement
	sales      sale.Repository
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, settlement *sale.Settlement, sales sale.Repository) *SaleHandler {
	return &SaleHandler{
		BaseHandler: base,
		settlement:  settlement,
		sales:       sales,
	}
}

// Settle handles POST /sales.
// The whole settlement commits atomically; any failure leaves stock and
// balances untouched and returns the structured error code.
func (h *SaleHandler) Settle(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SettleSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	settleReq, err := req.ToSettleRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	committed, err := h.settlement.Settle(ctx, settleReq)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromSale(committed))
}

// Get handles GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid sale id"))
		return
	}

	s, err := h.sales.GetByID(ctx, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSale(s))
}

// List handles GET /sales
func (h *SaleHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SaleListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	req.Defaults()

	filter := sale.ListFilter{
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if req.CustomerID != "" {
		customerID, err := id.Parse(req.CustomerID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid customer id"))
			return
		}
		filter.CustomerID = &customerID
	}

	sales, err := h.sales.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.SaleResponse, 0, len(sales))
	for _, s := range sales {
		items = append(items, dto.FromSale(s))
	}

	h.OK(c, dto.ListResponse{
		Items:  items,
		Count:  len(items),
		Limit:  req.Limit,
		Offset: req.Offset,
	})
}
