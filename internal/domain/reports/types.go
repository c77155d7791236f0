// Package reports provides report generation services.
package reports

import (
	"time"

	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
)

// --- Sales Summary Report ---

// SalesSummaryFilter defines the period and slicing of a sales summary.
type SalesSummaryFilter struct {
	// Period (required)
	FromDate time.Time
	ToDate   time.Time

	// Optional filter by customer
	CustomerID *id.ID
}

// SalesSummary aggregates committed sales over a period.
type SalesSummary struct {
	FromDate time.Time `json:"fromDate"`
	ToDate   time.Time `json:"toDate"`

	SaleCount     int              `json:"saleCount"`
	GrossSales    types.MinorUnits `json:"grossSales"`
	TotalDiscount types.MinorUnits `json:"totalDiscount"`
	TotalTax      types.MinorUnits `json:"totalTax"`
	NetSales      types.MinorUnits `json:"netSales"`
	Collected     types.MinorUnits `json:"collected"`

	// Outstanding is the sum of positive balance amounts of the
	// period, i.e. new customer debt created by these sales.
	Outstanding types.MinorUnits `json:"outstanding"`
}

// --- Payment Method Breakdown ---

// PaymentBreakdownItem is one payment method row.
type PaymentBreakdownItem struct {
	Method       string           `json:"method"`
	PaymentCount int              `json:"paymentCount"`
	Amount       types.MinorUnits `json:"amount"`
}

// PaymentBreakdown splits collected amounts by payment method.
type PaymentBreakdown struct {
	FromDate time.Time              `json:"fromDate"`
	ToDate   time.Time              `json:"toDate"`
	Items    []PaymentBreakdownItem `json:"items"`
	Total    types.MinorUnits       `json:"total"`
}

// --- Top Products ---

// TopProductsFilter selects the best selling products of a period.
type TopProductsFilter struct {
	FromDate time.Time
	ToDate   time.Time
	Limit    int
}

// TopProductItem is one product row ranked by revenue.
type TopProductItem struct {
	ProductID    id.ID            `json:"productId"`
	ProductName  string           `json:"productName"`
	QuantitySold int64            `json:"quantitySold"`
	Revenue      types.MinorUnits `json:"revenue"`
}

// --- Debtors ---

// DebtorItem is one customer carrying outstanding debt.
type DebtorItem struct {
	CustomerID   id.ID            `json:"customerId"`
	CustomerName string           `json:"customerName"`
	Phone        string           `json:"phone,omitempty"`
	TotalDebt    types.MinorUnits `json:"totalDebt"`
	TotalAdvance types.MinorUnits `json:"totalAdvance"`
}
