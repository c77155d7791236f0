package sale

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/entity"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/tx"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/catalogs/customer"
	"tillpoint/internal/domain/catalogs/product"
	"tillpoint/internal/domain/payments"
	"tillpoint/internal/domain/pricing"
	"tillpoint/internal/domain/registers/balance"
	"tillpoint/internal/domain/registers/inventory"
	"tillpoint/pkg/logger"
)

// Settlement attempt states, used for tracing and logs only; a failed
// attempt leaves no persisted record.
const (
	stateBuilding      = "building"
	stateStockReserved = "stock_reserved"
	stateSettled       = "settled"
	stateRolledBack    = "rolled_back"
	stateFailed        = "failed"
)

// SettleItem is one requested cart line.
type SettleItem struct {
	ProductID id.ID
	Size      string
	Quantity  int64
	UnitPrice types.MinorUnits
	Discount  pricing.Discount
}

// SettleRequest is the full input of a settlement attempt.
type SettleRequest struct {
	Items        []SettleItem
	Payments     []payments.Payment
	BillDiscount pricing.Discount

	CustomerID    *id.ID
	CustomerName  string
	CustomerPhone string
	Notes         string
}

// NumberSource issues sequential receipt numbers.
type NumberSource interface {
	Next(ctx context.Context, at time.Time) (string, error)
}

// EventPublisher emits a domain event for a committed sale. Publish
// failures do not fail the settlement.
type EventPublisher interface {
	SaleCommitted(ctx context.Context, s *Sale) error
}

// AuditLog records a settlement snapshot for compliance reads.
type AuditLog interface {
	RecordSale(ctx context.Context, s *Sale) error
}

// Recorder collects settlement metrics.
type Recorder interface {
	SettlementCommitted(d time.Duration)
	SettlementFailed(code string)
}

// SettlementConfig carries tunables of the settlement engine.
type SettlementConfig struct {
	// Tax is a flat amount added to the payable of every sale.
	Tax types.MinorUnits
}

// Settlement orchestrates the commit of a sale: price the cart,
// allocate payments, decrement stock, adjust the customer balance and
// persist the aggregate. Any failure after the first side effect
// triggers compensation in reverse order, so a failed attempt leaves
// every ledger untouched.
type Settlement struct {
	products  product.Repository
	customers customer.Repository
	stock     *inventory.Ledger
	balances  *balance.Ledger
	sales     Repository
	numbers   NumberSource
	txManager tx.Manager
	cfg       SettlementConfig

	events   EventPublisher
	txEvents EventPublisher
	audit    AuditLog
	metrics  Recorder
}

// NewSettlement wires the settlement engine. events, audit and metrics
// are optional.
func NewSettlement(
	products product.Repository,
	customers customer.Repository,
	stock *inventory.Ledger,
	balances *balance.Ledger,
	sales Repository,
	numbers NumberSource,
	txManager tx.Manager,
	cfg SettlementConfig,
) *Settlement {
	return &Settlement{
		products:  products,
		customers: customers,
		stock:     stock,
		balances:  balances,
		sales:     sales,
		numbers:   numbers,
		txManager: txManager,
		cfg:       cfg,
	}
}

// WithEvents attaches a publisher invoked after the commit. Publish
// failures are logged, not surfaced; the sale stands.
func (s *Settlement) WithEvents(p EventPublisher) *Settlement {
	s.events = p
	return s
}

// WithTransactionalEvents attaches a publisher invoked inside the
// commit transaction, for outbox-style publishers. A publish failure
// fails the settlement.
func (s *Settlement) WithTransactionalEvents(p EventPublisher) *Settlement {
	s.txEvents = p
	return s
}

// WithAudit attaches an audit sink for committed sales.
func (s *Settlement) WithAudit(a AuditLog) *Settlement {
	s.audit = a
	return s
}

// WithMetrics attaches a metrics recorder.
func (s *Settlement) WithMetrics(r Recorder) *Settlement {
	s.metrics = r
	return s
}

// reservedItem tracks an applied stock decrement for compensation.
type reservedItem struct {
	productID id.ID
	sizeKey   string
	quantity  int64
}

// Settle commits a sale. On success the returned sale is persisted,
// stock is decremented and any shortfall or surplus is posted to the
// customer balance. On error nothing is persisted and all ledgers hold
// their prior values.
func (s *Settlement) Settle(ctx context.Context, req SettleRequest) (*Sale, error) {
	started := time.Now()

	ctx, span := otel.Tracer("sale").Start(ctx, "settlement.Settle",
		trace.WithAttributes(
			attribute.Int("sale.items", len(req.Items)),
			attribute.Int("sale.payments", len(req.Payments)),
		))
	defer span.End()

	span.SetAttributes(attribute.String("sale.state", stateBuilding))

	sl, err := s.settle(ctx, span, req)
	if err != nil {
		span.SetAttributes(attribute.String("sale.state", stateFailed))
		if s.metrics != nil {
			s.metrics.SettlementFailed(errorCode(err))
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.String("sale.state", stateSettled),
		attribute.String("sale.number", sl.Number),
	)
	if s.metrics != nil {
		s.metrics.SettlementCommitted(time.Since(started))
	}

	logger.Info(ctx, "sale committed",
		"saleId", sl.ID,
		"number", sl.Number,
		"total", sl.Total,
		"collected", sl.AmountCollected,
		"balance", sl.BalanceAmount,
	)
	return sl, nil
}

func (s *Settlement) settle(ctx context.Context, span trace.Span, req SettleRequest) (*Sale, error) {
	if len(req.Items) == 0 {
		return nil, apperror.NewValidation("sale must contain at least one item").
			WithDetail("field", "items")
	}

	// Resolve products and size keys up front, before any side effect.
	catalog, err := s.loadProducts(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	sizeKeys := make([]string, len(req.Items))
	for i, item := range req.Items {
		key, err := catalog[item.ProductID].ResolveSizeKey(item.Size)
		if err != nil {
			return nil, err
		}
		sizeKeys[i] = key
	}

	var cust *customer.Customer
	if req.CustomerID != nil {
		cust, err = s.customers.GetByID(ctx, *req.CustomerID)
		if err != nil {
			return nil, err
		}
	}

	lines := make([]pricing.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = pricing.Line{
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Discount:  item.Discount,
		}
	}
	priced, err := pricing.Calculate(lines, req.BillDiscount)
	if err != nil {
		return nil, err
	}

	total := priced.PayableBeforeTax + s.cfg.Tax
	alloc, err := payments.Allocate(total, req.Payments, cust != nil)
	if err != nil {
		return nil, err
	}

	sl := s.buildSale(req, cust, priced, alloc, total, sizeKeys)
	if err := sl.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.commit(ctx, span, sl)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, sl)
	return sl, nil
}

// commit applies side effects in a fixed order and compensates the
// applied prefix in reverse order when a later step fails. Under a
// database transaction manager the compensation is redundant with the
// rollback but keeps the memory backend correct with the same code.
func (s *Settlement) commit(ctx context.Context, span trace.Span, sl *Sale) error {
	// A caller disconnect must not interrupt the flow once the first
	// decrement lands: the remaining steps and any compensation run on
	// a context detached from cancellation. Values (transaction, trace)
	// carry over.
	ctx = context.WithoutCancel(ctx)

	reserved := make([]reservedItem, 0, len(sl.Items))
	for _, item := range sl.Items {
		if err := s.stock.ReserveAndDecrement(ctx, item.ProductID, item.SizeKey, item.Quantity); err != nil {
			s.restoreStock(ctx, span, reserved)
			return err
		}
		reserved = append(reserved, reservedItem{item.ProductID, item.SizeKey, item.Quantity})
	}
	span.SetAttributes(attribute.String("sale.state", stateStockReserved))

	balanceApplied := false
	if sl.CustomerID != nil && sl.BalanceAmount != 0 {
		if _, err := s.balances.ApplyDelta(ctx, *sl.CustomerID, sl.BalanceAmount); err != nil {
			s.restoreStock(ctx, span, reserved)
			return err
		}
		balanceApplied = true
	}

	number, err := s.numbers.Next(ctx, sl.CreatedAt)
	if err != nil {
		s.compensate(ctx, span, sl, reserved, balanceApplied)
		return apperror.NewPersistenceFailure(err)
	}
	sl.Number = number

	if err := s.sales.Create(ctx, sl); err != nil {
		s.compensate(ctx, span, sl, reserved, balanceApplied)
		if _, ok := apperror.AsAppError(err); ok {
			return err
		}
		return apperror.NewPersistenceFailure(err)
	}

	if s.txEvents != nil {
		if err := s.txEvents.SaleCommitted(ctx, sl); err != nil {
			s.compensate(ctx, span, sl, reserved, balanceApplied)
			return apperror.NewPersistenceFailure(err)
		}
	}
	return nil
}

func (s *Settlement) compensate(ctx context.Context, span trace.Span, sl *Sale, reserved []reservedItem, balanceApplied bool) {
	if balanceApplied {
		if _, err := s.balances.Reverse(ctx, *sl.CustomerID, sl.BalanceAmount); err != nil {
			logger.Error(ctx, "settlement compensation: balance reversal failed",
				"customerId", *sl.CustomerID, "delta", sl.BalanceAmount, "error", err)
		}
	}
	s.restoreStock(ctx, span, reserved)
}

// restoreStock returns decremented quantities in reverse application
// order.
func (s *Settlement) restoreStock(ctx context.Context, span trace.Span, reserved []reservedItem) {
	if len(reserved) == 0 {
		return
	}
	for i := len(reserved) - 1; i >= 0; i-- {
		r := reserved[i]
		if err := s.stock.Restore(ctx, r.productID, r.sizeKey, r.quantity); err != nil {
			logger.Error(ctx, "settlement compensation: stock restore failed",
				"productId", r.productID, "sizeKey", r.sizeKey, "quantity", r.quantity, "error", err)
		}
	}
	span.SetAttributes(attribute.String("sale.state", stateRolledBack))
}

func (s *Settlement) loadProducts(ctx context.Context, items []SettleItem) (map[id.ID]*product.Product, error) {
	ids := make([]id.ID, 0, len(items))
	seen := make(map[id.ID]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	catalog := make(map[id.ID]*product.Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}
	for _, pid := range ids {
		if _, ok := catalog[pid]; !ok {
			return nil, apperror.NewNotFound("product", pid)
		}
	}
	return catalog, nil
}

func (s *Settlement) buildSale(
	req SettleRequest,
	cust *customer.Customer,
	priced pricing.Result,
	alloc payments.Allocation,
	total types.MinorUnits,
	sizeKeys []string,
) *Sale {
	sl := &Sale{
		Base:   entity.NewBase(),
		Status: StatusCommitted,

		Subtotal:            priced.Subtotal,
		ItemDiscountTotal:   priced.ItemDiscountTotal,
		BillDiscountType:    req.BillDiscount.Type,
		BillDiscountApplied: priced.BillDiscountApplied,
		Tax:                 s.cfg.Tax,
		Total:               total,
		AmountCollected:     alloc.Collected,
		BalanceAmount:       alloc.BalanceAmount,
		Notes:               req.Notes,
	}
	if cust != nil {
		cid := cust.ID
		sl.CustomerID = &cid
		sl.CustomerName = cust.Name
		sl.CustomerPhone = cust.Phone
	} else {
		// Walk-in identification, kept on the receipt without a
		// customer record.
		sl.CustomerName = req.CustomerName
		sl.CustomerPhone = req.CustomerPhone
	}

	sl.Items = make([]Item, len(req.Items))
	for i, item := range req.Items {
		sl.Items[i] = Item{
			LineID:        id.New(),
			LineNo:        i + 1,
			SaleID:        sl.ID,
			ProductID:     item.ProductID,
			SizeKey:       sizeKeys[i],
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			DiscountType:  item.Discount.Type,
			DiscountValue: discountValue(item.Discount),
			Discount:      priced.Lines[i].Discount,
			Subtotal:      priced.Lines[i].Net,
		}
	}

	sl.Payments = make([]Payment, len(req.Payments))
	for i, p := range req.Payments {
		sl.Payments[i] = Payment{
			PaymentID: id.New(),
			SaleID:    sl.ID,
			Method:    p.Method,
			Amount:    p.Amount,
			Reference: p.Reference,
		}
	}
	return sl
}

// publish emits the committed-sale event and audit record. Both are
// best effort; the sale already stands.
func (s *Settlement) publish(ctx context.Context, sl *Sale) {
	if s.events != nil {
		if err := s.events.SaleCommitted(ctx, sl); err != nil {
			logger.Warn(ctx, "sale event publish failed", "saleId", sl.ID, "error", err)
		}
	}
	if s.audit != nil {
		if err := s.audit.RecordSale(ctx, sl); err != nil {
			logger.Warn(ctx, "sale audit record failed", "saleId", sl.ID, "error", err)
		}
	}
}

func discountValue(d pricing.Discount) string {
	switch d.Type {
	case pricing.DiscountPercentage:
		return d.Percent.String()
	case pricing.DiscountAmount:
		return strconv.FormatInt(int64(d.Amount), 10)
	default:
		return ""
	}
}

func errorCode(err error) string {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.Code
	}
	return apperror.CodeInternal
}
