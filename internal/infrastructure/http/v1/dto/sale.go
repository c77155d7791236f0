package dto

import (
	"time"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/payments"
	"tillpoint/internal/domain/pricing"
	"tillpoint/internal/domain/sale"
)

// --- Requests ---

// DiscountRequest describes a discount at item or bill level.
// Type is "PERCENTAGE" or "AMOUNT"; Value is percent points or a
// major-unit amount respectively.
type DiscountRequest struct {
	Type  string  `json:"type" binding:"required,oneof=PERCENTAGE AMOUNT"`
	Value float64 `json:"value" binding:"min=0"`
}

// ToDiscount converts the request to a domain discount.
func (d *DiscountRequest) ToDiscount() pricing.Discount {
	if d == nil {
		return pricing.Discount{}
	}
	if d.Type == string(pricing.DiscountAmount) {
		return pricing.NewAmountDiscount(d.Value)
	}
	return pricing.NewPercentDiscount(d.Value)
}

// SaleItemRequest is one cart line of a settlement request.
type SaleItemRequest struct {
	ProductID string           `json:"productId" binding:"required,uuid"`
	Size      string           `json:"size"`
	Quantity  int64            `json:"quantity" binding:"required,min=1"`
	UnitPrice float64          `json:"unitPrice" binding:"min=0"`
	Discount  *DiscountRequest `json:"discount"`
}

// SalePaymentRequest is one tendered payment.
type SalePaymentRequest struct {
	Method    string  `json:"method" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Reference string  `json:"reference"`
}

// SettleSaleRequest is the full settlement input.
type SettleSaleRequest struct {
	Items        []SaleItemRequest    `json:"items" binding:"required,min=1,dive"`
	Payments     []SalePaymentRequest `json:"payments" binding:"dive"`
	BillDiscount *DiscountRequest     `json:"billDiscount"`

	CustomerID    *string `json:"customerId" binding:"omitempty,uuid"`
	CustomerName  string  `json:"customerName"`
	CustomerPhone string  `json:"customerPhone"`
	Notes         string  `json:"notes"`
}

// ToSettleRequest converts the API request to the domain request.
func (r *SettleSaleRequest) ToSettleRequest() (sale.SettleRequest, error) {
	req := sale.SettleRequest{
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		Notes:         r.Notes,
		BillDiscount:  r.BillDiscount.ToDiscount(),
	}

	if r.CustomerID != nil && *r.CustomerID != "" {
		customerID, err := id.Parse(*r.CustomerID)
		if err != nil {
			return sale.SettleRequest{}, apperror.NewValidation("invalid customer id")
		}
		req.CustomerID = &customerID
	}

	req.Items = make([]sale.SettleItem, 0, len(r.Items))
	for i, item := range r.Items {
		productID, err := id.Parse(item.ProductID)
		if err != nil {
			return sale.SettleRequest{}, apperror.NewValidation("invalid product id").
				WithDetail("line", i+1)
		}
		req.Items = append(req.Items, sale.SettleItem{
			ProductID: productID,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: types.NewMinorUnitsFromMajor(item.UnitPrice),
			Discount:  item.Discount.ToDiscount(),
		})
	}

	req.Payments = make([]payments.Payment, 0, len(r.Payments))
	for _, p := range r.Payments {
		req.Payments = append(req.Payments, payments.Payment{
			Method:    payments.Method(p.Method),
			Amount:    types.NewMinorUnitsFromMajor(p.Amount),
			Reference: p.Reference,
		})
	}

	return req, nil
}

// --- Responses ---

// SaleItemResponse is one persisted sale line.
type SaleItemResponse struct {
	LineNo        int     `json:"lineNo"`
	ProductID     string  `json:"productId"`
	SizeKey       string  `json:"sizeKey"`
	Quantity      int64   `json:"quantity"`
	UnitPrice     float64 `json:"unitPrice"`
	DiscountType  string  `json:"discountType,omitempty"`
	DiscountValue string  `json:"discountValue,omitempty"`
	Discount      float64 `json:"discount"`
	Subtotal      float64 `json:"subtotal"`
}

// SalePaymentResponse is one persisted payment.
type SalePaymentResponse struct {
	Method    string  `json:"method"`
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference,omitempty"`
}

// SaleResponse is the full committed sale.
type SaleResponse struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Status string `json:"status"`

	CustomerID    *string `json:"customerId,omitempty"`
	CustomerName  string  `json:"customerName,omitempty"`
	CustomerPhone string  `json:"customerPhone,omitempty"`

	Subtotal            float64 `json:"subtotal"`
	ItemDiscountTotal   float64 `json:"itemDiscountTotal"`
	BillDiscountApplied float64 `json:"billDiscountApplied"`
	Tax                 float64 `json:"tax"`
	Total               float64 `json:"total"`
	AmountCollected     float64 `json:"amountCollected"`
	BalanceAmount       float64 `json:"balanceAmount"`

	Notes string `json:"notes,omitempty"`

	Items    []SaleItemResponse    `json:"items"`
	Payments []SalePaymentResponse `json:"payments"`

	CreatedAt time.Time `json:"createdAt"`
}

// FromSale converts a domain sale to its API representation.
func FromSale(s *sale.Sale) SaleResponse {
	resp := SaleResponse{
		ID:                  s.ID.String(),
		Number:              s.Number,
		Status:              string(s.Status),
		CustomerName:        s.CustomerName,
		CustomerPhone:       s.CustomerPhone,
		Subtotal:            s.Subtotal.ToMajor(),
		ItemDiscountTotal:   s.ItemDiscountTotal.ToMajor(),
		BillDiscountApplied: s.BillDiscountApplied.ToMajor(),
		Tax:                 s.Tax.ToMajor(),
		Total:               s.Total.ToMajor(),
		AmountCollected:     s.AmountCollected.ToMajor(),
		BalanceAmount:       s.BalanceAmount.ToMajor(),
		Notes:               s.Notes,
		CreatedAt:           s.CreatedAt,
	}

	if s.CustomerID != nil {
		customerID := s.CustomerID.String()
		resp.CustomerID = &customerID
	}

	resp.Items = make([]SaleItemResponse, 0, len(s.Items))
	for _, item := range s.Items {
		resp.Items = append(resp.Items, SaleItemResponse{
			LineNo:        item.LineNo,
			ProductID:     item.ProductID.String(),
			SizeKey:       item.SizeKey,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice.ToMajor(),
			DiscountType:  string(item.DiscountType),
			DiscountValue: item.DiscountValue,
			Discount:      item.Discount.ToMajor(),
			Subtotal:      item.Subtotal.ToMajor(),
		})
	}

	resp.Payments = make([]SalePaymentResponse, 0, len(s.Payments))
	for _, p := range s.Payments {
		resp.Payments = append(resp.Payments, SalePaymentResponse{
			Method:    string(p.Method),
			Amount:    p.Amount.ToMajor(),
			Reference: p.Reference,
		})
	}

	return resp
}

// SaleListRequest filters sale listings.
type SaleListRequest struct {
	PaginationRequest
	CustomerID string `form:"customerId" binding:"omitempty,uuid"`
}
