package dto

import (
	"tillpoint/internal/domain/registers/inventory"
)

// StockLevelResponse is one stock reading.
type StockLevelResponse struct {
	ProductID string `json:"productId"`
	SizeKey   string `json:"sizeKey"`
	Quantity  int64  `json:"quantity"`
}

// FromLevel converts a domain stock level.
func FromLevel(l inventory.Level) StockLevelResponse {
	return StockLevelResponse{
		ProductID: l.ProductID.String(),
		SizeKey:   l.SizeKey,
		Quantity:  l.Quantity,
	}
}

// FromLevels converts a slice of levels.
func FromLevels(levels []inventory.Level) []StockLevelResponse {
	out := make([]StockLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, FromLevel(l))
	}
	return out
}

// SetStockLevelRequest replaces the absolute stock quantity for one
// (product, size) key. Used for receiving and corrections.
type SetStockLevelRequest struct {
	Size     string `json:"size"`
	Quantity int64  `json:"quantity" binding:"min=0"`
}
