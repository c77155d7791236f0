package handlers

import (
	"github.com/gin-gonic/gin"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/catalogs/product"
	"tillpoint/internal/domain/registers/inventory"
	"tillpoint/internal/infrastructure/http/v1/dto"
)

// StockHandler handles stock level endpoints.
type StockHandler struct {
	*BaseHandler
	ledger *inventory.Ledger
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, ledger *inventory.Ledger) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		ledger:      ledger,
	}
}

// GetLevels handles GET /registers/stock/:productId
func (h *StockHandler) GetLevels(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	levels, err := h.ledger.GetLevelsByProduct(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": dto.FromLevels(levels)})
}

// SetLevel handles PUT /registers/stock/:productId
// Replaces the absolute quantity for one (product, size) key.
func (h *StockHandler) SetLevel(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	var req dto.SetStockLevelRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sizeKey := req.Size
	if sizeKey == "" {
		sizeKey = product.FreeSizeKey
	}

	if err := h.ledger.SetLevel(ctx, productID, sizeKey, req.Quantity); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.StockLevelResponse{
		ProductID: productID.String(),
		SizeKey:   sizeKey,
		Quantity:  req.Quantity,
	})
}
