package sale

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/tx"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/catalogs/customer"
	"tillpoint/internal/domain/catalogs/product"
	"tillpoint/internal/domain/payments"
	"tillpoint/internal/domain/pricing"
	"tillpoint/internal/domain/registers/balance"
	"tillpoint/internal/domain/registers/inventory"
)

// ---- in-process fakes ----

type fakeProducts struct {
	mu    sync.Mutex
	items map[id.ID]*product.Product
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{items: make(map[id.ID]*product.Product)}
}

func (r *fakeProducts) Create(ctx context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = p
	return nil
}

func (r *fakeProducts) Update(ctx context.Context, p *product.Product) error {
	return r.Create(ctx, p)
}

func (r *fakeProducts) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

func (r *fakeProducts) GetByIDs(ctx context.Context, productIDs []id.ID) ([]*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*product.Product, 0, len(productIDs))
	for _, pid := range productIDs {
		if p, ok := r.items[pid]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProducts) GetByBarcode(ctx context.Context, barcode string) (*product.Product, error) {
	return nil, apperror.NewNotFound("product", barcode)
}

func (r *fakeProducts) List(ctx context.Context, filter product.ListFilter) ([]*product.Product, error) {
	return nil, nil
}

type fakeCustomers struct {
	mu    sync.Mutex
	items map[id.ID]*customer.Customer
}

func newFakeCustomers() *fakeCustomers {
	return &fakeCustomers{items: make(map[id.ID]*customer.Customer)}
}

func (r *fakeCustomers) Create(ctx context.Context, c *customer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[c.ID] = c
	return nil
}

func (r *fakeCustomers) GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[customerID]
	if !ok {
		return nil, apperror.NewNotFound("customer", customerID)
	}
	return c, nil
}

func (r *fakeCustomers) List(ctx context.Context, filter customer.ListFilter) ([]*customer.Customer, error) {
	return nil, nil
}

type fakeStock struct {
	mu     sync.Mutex
	levels map[string]int64
}

func newFakeStock() *fakeStock {
	return &fakeStock{levels: make(map[string]int64)}
}

func stockKey(productID id.ID, sizeKey string) string {
	return productID.String() + "/" + sizeKey
}

func (r *fakeStock) DecrementIfAvailable(ctx context.Context, productID id.ID, sizeKey string, qty int64) (int64, error) {
	if ctx.Err() != nil {
		return 0, apperror.NewSettlementTimeout(stockKey(productID, sizeKey))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := stockKey(productID, sizeKey)
	available, ok := r.levels[key]
	if !ok {
		return 0, apperror.NewUnknownSize(productID.String(), sizeKey)
	}
	if available < qty {
		return 0, apperror.NewInsufficientStock(productID.String(), sizeKey, qty, available)
	}
	r.levels[key] = available - qty
	return r.levels[key], nil
}

func (r *fakeStock) Increment(ctx context.Context, productID id.ID, sizeKey string, qty int64) error {
	if ctx.Err() != nil {
		return apperror.NewSettlementTimeout(stockKey(productID, sizeKey))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := stockKey(productID, sizeKey)
	if _, ok := r.levels[key]; !ok {
		return apperror.NewUnknownSize(productID.String(), sizeKey)
	}
	r.levels[key] += qty
	return nil
}

func (r *fakeStock) GetLevel(ctx context.Context, productID id.ID, sizeKey string) (inventory.Level, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	qty, ok := r.levels[stockKey(productID, sizeKey)]
	if !ok {
		return inventory.Level{}, apperror.NewUnknownSize(productID.String(), sizeKey)
	}
	return inventory.Level{ProductID: productID, SizeKey: sizeKey, Quantity: qty}, nil
}

func (r *fakeStock) GetLevelsByProduct(ctx context.Context, productID id.ID) ([]inventory.Level, error) {
	return nil, nil
}

func (r *fakeStock) SetLevel(ctx context.Context, productID id.ID, sizeKey string, qty int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels[stockKey(productID, sizeKey)] = qty
	return nil
}

type fakeBalances struct {
	mu       sync.Mutex
	balances map[id.ID]balance.Balance
}

func newFakeBalances() *fakeBalances {
	return &fakeBalances{balances: make(map[id.ID]balance.Balance)}
}

func (r *fakeBalances) Adjust(ctx context.Context, customerID id.ID, fn func(balance.Balance) balance.Balance) (balance.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	updated := fn(r.balances[customerID])
	r.balances[customerID] = updated
	return updated, nil
}

func (r *fakeBalances) Get(ctx context.Context, customerID id.ID) (balance.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[customerID], nil
}

// disconnectingBalances cancels the request context before failing,
// like a client disconnect racing a backend error.
type disconnectingBalances struct {
	*fakeBalances
	cancel  context.CancelFunc
	failErr error
}

func (r *disconnectingBalances) Adjust(ctx context.Context, customerID id.ID, fn func(balance.Balance) balance.Balance) (balance.Balance, error) {
	r.cancel()
	return balance.Balance{}, r.failErr
}

type fakeSales struct {
	mu      sync.Mutex
	items   map[id.ID]*Sale
	failErr error
}

func newFakeSales() *fakeSales {
	return &fakeSales{items: make(map[id.ID]*Sale)}
}

func (r *fakeSales) Create(ctx context.Context, s *Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	r.items[s.ID] = s
	return nil
}

func (r *fakeSales) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	return s, nil
}

func (r *fakeSales) List(ctx context.Context, filter ListFilter) ([]*Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Sale, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeSales) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type fakeNumbers struct {
	mu   sync.Mutex
	next int
}

func (n *fakeNumbers) Next(ctx context.Context, at time.Time) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.next++
	return fmt.Sprintf("S-%06d", n.next), nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []id.ID
	failErr   error
}

func (p *fakePublisher) SaleCommitted(ctx context.Context, s *Sale) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failErr != nil {
		return p.failErr
	}
	p.published = append(p.published, s.ID)
	return nil
}

// ---- test rig ----

type rig struct {
	engine    *Settlement
	products  *fakeProducts
	customers *fakeCustomers
	stock     *fakeStock
	balances  *fakeBalances
	sales     *fakeSales
}

func newRig(t *testing.T, cfg SettlementConfig) *rig {
	t.Helper()
	r := &rig{
		products:  newFakeProducts(),
		customers: newFakeCustomers(),
		stock:     newFakeStock(),
		balances:  newFakeBalances(),
		sales:     newFakeSales(),
	}
	r.engine = NewSettlement(
		r.products,
		r.customers,
		inventory.NewLedger(r.stock),
		balance.NewLedger(r.balances),
		r.sales,
		&fakeNumbers{},
		tx.None{},
		cfg,
	)
	return r
}

func (r *rig) addProduct(t *testing.T, freeSize bool, sizes []string, stock map[string]int64) *product.Product {
	t.Helper()
	ctx := context.Background()
	p := product.New("Test Product", "apparel", freeSize)
	p.Sizes = sizes
	require.NoError(t, r.products.Create(ctx, p))
	for sizeKey, qty := range stock {
		require.NoError(t, r.stock.SetLevel(ctx, p.ID, sizeKey, qty))
	}
	return p
}

func (r *rig) addCustomer(t *testing.T) *customer.Customer {
	t.Helper()
	c := customer.New("Jane Buyer", "555-0101")
	require.NoError(t, r.customers.Create(context.Background(), c))
	return c
}

func (r *rig) level(t *testing.T, productID id.ID, sizeKey string) int64 {
	t.Helper()
	lvl, err := r.stock.GetLevel(context.Background(), productID, sizeKey)
	require.NoError(t, err)
	return lvl.Quantity
}

// ---- tests ----

func TestSettle_ExactPayment(t *testing.T) {
	ctx := context.Background()
	r := newRig(t, SettlementConfig{})

	shirt := r.addProduct(t, false, []string{"M", "L"}, map[string]int64{"M": 10})
	bag := r.addProduct(t, true, nil, map[string]int64{product.FreeSizeKey: 5})

	// 2 x 50.00 with 10% off = 90.00, 1 x 100.00 with 10.00 off = 90.00
	req := SettleRequest{
		Items: []SettleItem{
			{ProductID: shirt.ID, Size: "M", Quantity: 2, UnitPrice: 5000, Discount: pricing.NewPercentDiscount(10)},
			{ProductID: bag.ID, Quantity: 1, UnitPrice: 10000, Discount: pricing.NewAmountDiscount(10)},
		},
		Payments: []payments.Payment{
			{Method: payments.MethodCash, Amount: 18000},
		},
	}

	sl, err := r.engine.Settle(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, StatusCommitted, sl.Status)
	assert.Equal(t, "S-000001", sl.Number)
	assert.Equal(t, types.MinorUnits(18000), sl.Subtotal)
	assert.Equal(t, types.MinorUnits(2000), sl.ItemDiscountTotal)
	assert.Equal(t, types.MinorUnits(18000), sl.Total)
	assert.Equal(t, types.MinorUnits(18000), sl.AmountCollected)
	assert.Equal(t, types.MinorUnits(0), sl.BalanceAmount)
	assert.Nil(t, sl.CustomerID)

	require.Len(t, sl.Items, 2)
	assert.Equal(t, "M", sl.Items[0].SizeKey)
	assert.Equal(t, product.FreeSizeKey, sl.Items[1].SizeKey)
	assert.Equal(t, types.MinorUnits(9000), sl.Items[0].Subtotal)
	assert.Equal(t, types.MinorUnits(9000), sl.Items[1].Subtotal)

	assert.Equal(t, int64(8), r.level(t, shirt.ID, "M"))
	assert.Equal(t, int64(4), r.level(t, bag.ID, product.FreeSizeKey))

	stored, err := r.sales.GetByID(ctx, sl.ID)
	require.NoError(t, err)
	assert.Equal(t, sl.Number, stored.Number)
}

func TestSettle_BillDiscountAndTax(t *testing.T) {
	ctx := context.Background()
	r := newRig(t, SettlementConfig{Tax: 500})

	p := r.addProduct(t, true, nil, map[string]int64{product.FreeSizeKey: 3})

	// 100.00 gross, 20% bill discount = 80.00, plus 5.00 tax = 85.00
	req := SettleRequest{
		Items: []SettleItem{
			{ProductID: p.ID, Quantity: 1, UnitPrice: 10000},
		},
		BillDiscount: pricing.NewPercentDiscount(20),
		Payments: []payments.Payment{
			{Method: payments.MethodCard, Amount: 8500, Reference: "AUTH-1"},
		},
	}

	sl, err := r.engine.Settle(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(2000), sl.BillDiscountApplied)
	assert.Equal(t, types.MinorUnits(500), sl.Tax)
	assert.Equal(t, types.MinorUnits(8500), sl.Total)
	assert.Equal(t, "AUTH-1", sl.Payments[0].Reference)
}

func TestSettle_UnderpaidRecordsDebt(t *testing.T) {
	ctx := context.Background()
	r := newRig(t, SettlementConfig{})

	p := r.addProduct(t, true, nil, map[string]int64{product.FreeSizeKey: 3})
	cust := r.addCustomer(t)

	req := SettleRequest{
		Items: []SettleItem{
			{ProductID: p.ID, Quantity: 1, UnitPrice: 18000},
		},
		Payments: []payments.Payment{
			{Method: payments.MethodCash, Amount: 15000},
		},
		CustomerID: &cust.ID,
	}

	sl, err := r.engine.Settle(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(15000), sl.AmountCollected)
	assert.Equal(t, types.MinorUnits(3000), sl.BalanceAmount)
	require.NotNil(t, sl.CustomerID)
	assert.Equal(t, cust.ID, *sl.CustomerID)
	assert.Equal(t, cust.Name, sl.CustomerName)

	b, err := r.balances.Get(ctx, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(3000), b.TotalDebt)
	assert.Equal(t, types.MinorUnits(0), b.TotalAdvance)
}

func TestSettle_WalkInKeepsNameAndPhone(t *testing.T) {
	ctx := context.Background()
	r := newRig(t, SettlementConfig{})

	p := r.addProduct(t, true, nil, map[string]int64{product.FreeSizeKey: 3})

	req := SettleRequest{
		Items: []SettleItem{
			{ProductID: p.ID, Quantity: 1, UnitPrice: 10000},
		},
		Payments: []payments.Payment{
			{Method: payments.MethodCash, Amount: 10000},
		},
		CustomerName:  "Walk-in Joe",
		CustomerPhone: "555-0199",
	}

	sl, err := r.engine.Settle(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, sl.CustomerID)
	assert.Equal(t, "Walk-in Joe", sl.CustomerName)
	assert.Equal(t, "555-0199", sl.CustomerPhone)
}

func TestSettle_OverpaidRecordsAdvance(t *testing.T) {
	ctx := context.Background()
	r := newRig(t, SettlementConfig{})

	p := r.addProduct(t, true, nil, map[string]int64{product.FreeSizeKey: 3})
	cust := r.addCustomer(t)

	req := SettleRequest{
		Items: []SettleItem{
			{ProductID: p.ID, Quantity: 1, UnitPrice: 10000},
		},
		Payments: []payments.Payment{
			{Method: payments.MethodCash, Amount: 12000},
		},
		CustomerID: &cust.ID,
	}

	sl, err := r.engine.Settle(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(12000), sl.AmountCollected)
	assert.Equal(t, types.MinorUnits(-2000), sl.BalanceAmount)

	b, err := r.balances.Get(ctx, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(0), b.TotalDebt)
	assert.Equal(t, types.MinorUnits(2000), b.TotalAdvance)
}

func TestSettle_UnderpaidWithoutCustomerRejected(t *testing.T) {
	ctx := context.Background()
	r := newRig(t, SettlementConfig{})

	p := r.addProduct(t, true, nil, map[string]int64{product.FreeSizeKey: 3})

	req := SettleRequest{
		Items: []SettleItem{
			{ProductID: p.ID, Quantity: 1, UnitPrice: 10000},
		},
		Payments: []payments.Payment{
			{Method: payments.MethodCash, Amount: 9000},
		},
	}

	_, err := r.engine.Settle(ctx, req)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidPaymentSet))

	// Nothing was touched.
	assert.Equal(t, int64(3), r.level(t, p.ID, product.FreeSizeKey))
	assert.Equal(t, 0, r.sales.count())
}

func TestSettle_UnknownSizeRejectedBeforeMutation(t *testing.T) {
	ctx := context.Background()
	r := newRig(t, SettlementConfig{})

	p := r.addProduct(t, false, []string{"M"}, map[string]int64{"M": 3})

	req := SettleRequest{
		Items: []SettleItem{
			{ProductID: p.ID, Size: "XXL", Quantity: 1, UnitPrice: 10000},
		},
		Payments: []payments.Payment{
			{Method: payments.MethodCash, Amount: 10000},
		},
	}

	_, err := r.engine.Settle(ctx, req)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnknownSize))
	assert.Equal(t, int64(3), r.level(t, p.ID, "M"))
	assert.Equal(t, 0, r.sales.count())
}

func TestSettle_InsufficientStockRollsBackPriorLines(t *testing.T) {
	ctx := context.Background()
	r := newRig(t, SettlementConfig{})

	a := r.addProduct(t, true, nil, map[string]int64{product.FreeSizeKey: 10})
	b := r.addProduct(t, false, []string{"M"}, map[string]int64{"M": 1})
	cust := r.addCustomer(t)

	req := SettleRequest{
		Items: []SettleItem{
			{ProductID: a.ID, Quantity: 4, UnitPrice: 1000},
			{ProductID: b.ID, Size: "M", Quantity: 2, UnitPrice: 1000},
		},
		Payments: []payments.Payment{
			{Method: payments.MethodCash, Amount: 6000},
		},
		CustomerID: &cust.ID,
	}

	_, err := r.engine.Settle(ctx, req)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, int64(1), appErr.Details["available"])

	// The first line's decrement was restored.
	assert.Equal(t, int64(10), r.level(t, a.ID, product.FreeSizeKey))
	assert.Equal(t, int64(1), r.level(t, b.ID, "M"))
	assert.Equal(t, 0, r.sales.count())

	bal, err := r.balances.Get(ctx, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(0), bal.TotalDebt)
}

func TestSettle_PersistenceFailureCompensatesAllLedgers(t *testing.T) {
	ctx := context.Background()
	r := newRig(t, SettlementConfig{})

	p := r.addProduct(t, true, nil, map[string]int64{product.FreeSizeKey: 5})
	cust := r.addCustomer(t)
	r.sales.failErr = errors.New("disk full")

	req := SettleRequest{
		Items: []SettleItem{
			{ProductID: p.ID, Quantity: 2, UnitPrice: 10000},
		},
		Payments: []payments.Payment{
			{Method: payments.MethodCash, Amount: 15000},
		},
		CustomerID: &cust.ID,
	}

	_, err := r.engine.Settle(ctx, req)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodePersistence))

	assert.Equal(t, int64(5), r.level(t, p.ID, product.FreeSizeKey))
	bal, err := r.balances.Get(ctx, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(0), bal.TotalDebt)
	assert.Equal(t, types.MinorUnits(0), bal.TotalAdvance)
	assert.Equal(t, 0, r.sales.count())
}

// A caller that disconnects while a later step fails must not leave the
// stock ledger short: compensation runs even though the request context
// is already cancelled.
func TestSettle_CancelledCallerStillCompensates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := newRig(t, SettlementConfig{})
	balances := &disconnectingBalances{
		fakeBalances: r.balances,
		cancel:       cancel,
		failErr:      errors.New("balance write failed"),
	}
	r.engine = NewSettlement(
		r.products,
		r.customers,
		inventory.NewLedger(r.stock),
		balance.NewLedger(balances),
		r.sales,
		&fakeNumbers{},
		tx.None{},
		SettlementConfig{},
	)

	p := r.addProduct(t, true, nil, map[string]int64{product.FreeSizeKey: 5})
	cust := r.addCustomer(t)

	req := SettleRequest{
		Items: []SettleItem{
			{ProductID: p.ID, Quantity: 2, UnitPrice: 10000},
		},
		Payments: []payments.Payment{
			{Method: payments.MethodCash, Amount: 15000},
		},
		CustomerID: &cust.ID,
	}

	_, err := r.engine.Settle(ctx, req)
	require.Error(t, err)

	// The decremented units came back despite the cancelled context.
	assert.Equal(t, int64(5), r.level(t, p.ID, product.FreeSizeKey))
	assert.Equal(t, 0, r.sales.count())
}

func TestSettle_PublishFailureDoesNotFailSale(t *testing.T) {
	ctx := context.Background()
	r := newRig(t, SettlementConfig{})
	r.engine.WithEvents(&fakePublisher{failErr: errors.New("broker down")})

	p := r.addProduct(t, true, nil, map[string]int64{product.FreeSizeKey: 5})

	req := SettleRequest{
		Items: []SettleItem{
			{ProductID: p.ID, Quantity: 1, UnitPrice: 10000},
		},
		Payments: []payments.Payment{
			{Method: payments.MethodCash, Amount: 10000},
		},
	}

	committed, err := r.engine.Settle(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, r.sales.count())
	assert.Equal(t, int64(4), r.level(t, p.ID, product.FreeSizeKey))
	assert.NotEmpty(t, committed.Number)
}

func TestSettle_TransactionalPublishFailureCompensatesLedgers(t *testing.T) {
	ctx := context.Background()
	r := newRig(t, SettlementConfig{})
	r.engine.WithTransactionalEvents(&fakePublisher{failErr: errors.New("outbox insert failed")})

	p := r.addProduct(t, true, nil, map[string]int64{product.FreeSizeKey: 5})
	cust := r.addCustomer(t)

	req := SettleRequest{
		Items: []SettleItem{
			{ProductID: p.ID, Quantity: 2, UnitPrice: 10000},
		},
		Payments: []payments.Payment{
			{Method: payments.MethodCash, Amount: 15000},
		},
		CustomerID: &cust.ID,
	}

	_, err := r.engine.Settle(ctx, req)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodePersistence))

	assert.Equal(t, int64(5), r.level(t, p.ID, product.FreeSizeKey))
	bal, err := r.balances.Get(ctx, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(0), bal.TotalDebt)
	assert.Equal(t, types.MinorUnits(0), bal.TotalAdvance)
}

func TestSettle_UnknownCustomerRejected(t *testing.T) {
	ctx := context.Background()
	r := newRig(t, SettlementConfig{})

	p := r.addProduct(t, true, nil, map[string]int64{product.FreeSizeKey: 5})
	ghost := id.New()

	req := SettleRequest{
		Items: []SettleItem{
			{ProductID: p.ID, Quantity: 1, UnitPrice: 10000},
		},
		Payments: []payments.Payment{
			{Method: payments.MethodCash, Amount: 10000},
		},
		CustomerID: &ghost,
	}

	_, err := r.engine.Settle(ctx, req)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, int64(5), r.level(t, p.ID, product.FreeSizeKey))
}

func TestSettle_EmptyCartRejected(t *testing.T) {
	r := newRig(t, SettlementConfig{})
	_, err := r.engine.Settle(context.Background(), SettleRequest{
		Payments: []payments.Payment{{Method: payments.MethodCash, Amount: 100}},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

// Concurrent settlements over one stock key must commit exactly as many
// sales as stock allows, never oversell, and leave losers without trace.
func TestSettle_ConcurrentNeverOversells(t *testing.T) {
	ctx := context.Background()
	r := newRig(t, SettlementConfig{})

	const available = 5
	const attempts = 12
	p := r.addProduct(t, true, nil, map[string]int64{product.FreeSizeKey: available})

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.engine.Settle(ctx, SettleRequest{
				Items: []SettleItem{
					{ProductID: p.ID, Quantity: 1, UnitPrice: 1000},
				},
				Payments: []payments.Payment{
					{Method: payments.MethodCash, Amount: 1000},
				},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	committed, rejected := 0, 0
	for err := range results {
		if err == nil {
			committed++
			continue
		}
		assert.True(t, apperror.IsInsufficientStock(err))
		rejected++
	}

	assert.Equal(t, available, committed)
	assert.Equal(t, attempts-available, rejected)
	assert.Equal(t, int64(0), r.level(t, p.ID, product.FreeSizeKey))
	assert.Equal(t, available, r.sales.count())
}
