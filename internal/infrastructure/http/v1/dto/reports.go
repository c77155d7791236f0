package dto

import (
	"time"

	"tillpoint/internal/domain/reports"
)

// PeriodRequest bounds a report to a date range (RFC3339).
type PeriodRequest struct {
	FromDate string `form:"fromDate" binding:"required"`
	ToDate   string `form:"toDate" binding:"required"`
}

// SalesSummaryRequest filters the sales summary report.
type SalesSummaryRequest struct {
	PeriodRequest
	CustomerID string `form:"customerId" binding:"omitempty,uuid"`
}

// TopProductsRequest filters the top products report.
type TopProductsRequest struct {
	PeriodRequest
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}

// SalesSummaryResponse is the sales summary with major-unit amounts.
type SalesSummaryResponse struct {
	FromDate time.Time `json:"fromDate"`
	ToDate   time.Time `json:"toDate"`

	SaleCount     int     `json:"saleCount"`
	GrossSales    float64 `json:"grossSales"`
	TotalDiscount float64 `json:"totalDiscount"`
	TotalTax      float64 `json:"totalTax"`
	NetSales      float64 `json:"netSales"`
	Collected     float64 `json:"collected"`
	Outstanding   float64 `json:"outstanding"`
}

// FromSalesSummary converts the domain report.
func FromSalesSummary(s *reports.SalesSummary) SalesSummaryResponse {
	return SalesSummaryResponse{
		FromDate:      s.FromDate,
		ToDate:        s.ToDate,
		SaleCount:     s.SaleCount,
		GrossSales:    s.GrossSales.ToMajor(),
		TotalDiscount: s.TotalDiscount.ToMajor(),
		TotalTax:      s.TotalTax.ToMajor(),
		NetSales:      s.NetSales.ToMajor(),
		Collected:     s.Collected.ToMajor(),
		Outstanding:   s.Outstanding.ToMajor(),
	}
}

// PaymentBreakdownItemResponse is one payment method row.
type PaymentBreakdownItemResponse struct {
	Method       string  `json:"method"`
	PaymentCount int     `json:"paymentCount"`
	Amount       float64 `json:"amount"`
}

// PaymentBreakdownResponse splits collected amounts by method.
type PaymentBreakdownResponse struct {
	FromDate time.Time                      `json:"fromDate"`
	ToDate   time.Time                      `json:"toDate"`
	Items    []PaymentBreakdownItemResponse `json:"items"`
	Total    float64                        `json:"total"`
}

// FromPaymentBreakdown converts the domain report.
func FromPaymentBreakdown(b *reports.PaymentBreakdown) PaymentBreakdownResponse {
	items := make([]PaymentBreakdownItemResponse, 0, len(b.Items))
	for _, item := range b.Items {
		items = append(items, PaymentBreakdownItemResponse{
			Method:       item.Method,
			PaymentCount: item.PaymentCount,
			Amount:       item.Amount.ToMajor(),
		})
	}
	return PaymentBreakdownResponse{
		FromDate: b.FromDate,
		ToDate:   b.ToDate,
		Items:    items,
		Total:    b.Total.ToMajor(),
	}
}

// TopProductItemResponse is one product ranked by revenue.
type TopProductItemResponse struct {
	ProductID    string  `json:"productId"`
	ProductName  string  `json:"productName"`
	QuantitySold int64   `json:"quantitySold"`
	Revenue      float64 `json:"revenue"`
}

// FromTopProducts converts the domain rows.
func FromTopProducts(items []reports.TopProductItem) []TopProductItemResponse {
	out := make([]TopProductItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, TopProductItemResponse{
			ProductID:    item.ProductID.String(),
			ProductName:  item.ProductName,
			QuantitySold: item.QuantitySold,
			Revenue:      item.Revenue.ToMajor(),
		})
	}
	return out
}

// DebtorItemResponse is one customer carrying outstanding debt.
type DebtorItemResponse struct {
	CustomerID   string  `json:"customerId"`
	CustomerName string  `json:"customerName"`
	Phone        string  `json:"phone,omitempty"`
	TotalDebt    float64 `json:"totalDebt"`
	TotalAdvance float64 `json:"totalAdvance"`
}

// FromDebtors converts the domain rows.
func FromDebtors(items []reports.DebtorItem) []DebtorItemResponse {
	out := make([]DebtorItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, DebtorItemResponse{
			CustomerID:   item.CustomerID.String(),
			CustomerName: item.CustomerName,
			Phone:        item.Phone,
			TotalDebt:    item.TotalDebt.ToMajor(),
			TotalAdvance: item.TotalAdvance.ToMajor(),
		})
	}
	return out
}
