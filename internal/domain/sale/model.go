// Package sale provides the Sale aggregate and the settlement engine
// that turns a cart plus tendered payments into a committed sale with
// consistent stock and customer balance side effects.
package sale

import (
	"context"
	"fmt"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/entity"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/payments"
	"tillpoint/internal/domain/pricing"
)

// Status of a persisted sale. Settlement is a one-way commit; there is
// no void or refund transition.
type Status string

const (
	StatusCommitted Status = "committed"
)

// Item is one cart line of a sale. Unit price and discount are captured
// at sale time and stay immutable even if the product changes later.
type Item struct {
	LineID  id.ID  `db:"line_id" json:"lineId"`
	LineNo  int    `db:"line_no" json:"lineNo"`
	SaleID  id.ID  `db:"sale_id" json:"-"`
	ProductID id.ID `db:"product_id" json:"productId"`
	SizeKey   string `db:"size_key" json:"sizeKey"`
	Quantity  int64  `db:"quantity" json:"quantity"`

	UnitPrice     types.MinorUnits     `db:"unit_price" json:"unitPrice"`
	DiscountType  pricing.DiscountType `db:"discount_type" json:"discountType,omitempty"`
	DiscountValue string               `db:"discount_value" json:"discountValue,omitempty"`
	Discount      types.MinorUnits     `db:"discount" json:"discount"`
	Subtotal      types.MinorUnits     `db:"subtotal" json:"subtotal"`
}

// Payment is one tendered payment of a sale. The set is immutable once
// the sale is committed.
type Payment struct {
	PaymentID id.ID            `db:"payment_id" json:"paymentId"`
	SaleID    id.ID            `db:"sale_id" json:"-"`
	Method    payments.Method  `db:"method" json:"method"`
	Amount    types.MinorUnits `db:"amount" json:"amount"`
	Reference string           `db:"reference" json:"reference,omitempty"`
}

// Sale is the aggregate root. It exclusively owns its items and
// payments; created once, atomically, by the settlement engine.
type Sale struct {
	entity.Base

	Number string `db:"number" json:"number"`
	Status Status `db:"status" json:"status"`

	CustomerID    *id.ID `db:"customer_id" json:"customerId,omitempty"`
	CustomerName  string `db:"customer_name" json:"customerName,omitempty"`
	CustomerPhone string `db:"customer_phone" json:"customerPhone,omitempty"`

	Subtotal            types.MinorUnits     `db:"subtotal" json:"subtotal"`
	ItemDiscountTotal   types.MinorUnits     `db:"item_discount_total" json:"itemDiscountTotal"`
	BillDiscountType    pricing.DiscountType `db:"bill_discount_type" json:"billDiscountType,omitempty"`
	BillDiscountApplied types.MinorUnits     `db:"bill_discount_applied" json:"billDiscountApplied"`
	Tax                 types.MinorUnits     `db:"tax" json:"tax"`
	Total               types.MinorUnits     `db:"total" json:"total"`
	AmountCollected     types.MinorUnits     `db:"amount_collected" json:"amountCollected"`

	// BalanceAmount is signed: positive means the customer owes the
	// remainder, negative means the customer overpaid and holds an
	// advance. Collected + BalanceAmount == Total.
	BalanceAmount types.MinorUnits `db:"balance_amount" json:"balanceAmount"`

	Notes string `db:"notes" json:"notes,omitempty"`

	Items    []Item    `db:"-" json:"items"`
	Payments []Payment `db:"-" json:"payments"`
}

// Validate implements entity.Validatable. It checks the aggregate's
// arithmetic invariants after settlement computed the totals.
func (s *Sale) Validate(ctx context.Context) error {
	if len(s.Items) == 0 {
		return apperror.NewValidation("sale must contain at least one item").
			WithDetail("field", "items")
	}
	if s.Total != s.Subtotal-s.BillDiscountApplied+s.Tax {
		return apperror.NewValidation("total does not reconcile with subtotal, discount and tax")
	}
	if s.AmountCollected+s.BalanceAmount != s.Total {
		return apperror.NewValidation("collected amount and balance do not reconcile with total")
	}
	if s.BalanceAmount != 0 && s.CustomerID == nil {
		return apperror.NewValidation("non-zero balance requires a customer")
	}
	for i, item := range s.Items {
		if item.Quantity <= 0 {
			return apperror.NewValidation(fmt.Sprintf("item %d: quantity must be positive", i+1))
		}
	}
	return nil
}

// ListFilter narrows sale listings.
type ListFilter struct {
	CustomerID *id.ID
	Limit      int
	Offset     int
}

// Repository defines sale persistence. Create stores the aggregate with
// its items and payments as one unit; a partially persisted sale must
// never become visible to readers.
type Repository interface {
	Create(ctx context.Context, s *Sale) error
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)
	List(ctx context.Context, filter ListFilter) ([]*Sale, error)
}
