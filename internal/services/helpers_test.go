package services

import (
	"context"
	"sync"
	"testing"

	"pos_backoffice/internal/models"
	"pos_backoffice/internal/pricing"
	"pos_backoffice/internal/repositories"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptrDec(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

type recordingNotifier struct {
	mu     sync.Mutex
	orders []models.Order
}

func (n *recordingNotifier) NotifyStatusChange(order models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, order)
}

func (n *recordingNotifier) statuses() []models.OrderStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.OrderStatus, 0, len(n.orders))
	for _, o := range n.orders {
		out = append(out, o.Status)
	}
	return out
}

type testEnv struct {
	ctx       context.Context
	store     *repositories.MemoryStore
	notifier  *recordingNotifier
	days      DayService
	shifts    ShiftService
	orders    OrderService
	products  ProductService
	inventory InventoryService
	reports   ReportService
	customers CustomerService
	tables    TableService
	settings  SettingService
}

// newTestEnv wires every service to one in-memory store with a 10% dine-in
// service charge and no tax.
func newTestEnv(t *testing.T, stockPolicy models.StockPolicy) *testEnv {
	t.Helper()
	store := repositories.NewMemoryStore()
	notifier := &recordingNotifier{}
	policy := pricing.Policy{ServiceChargeRate: dec("0.10"), TaxRate: decimal.Zero}
	return &testEnv{
		ctx:       context.Background(),
		store:     store,
		notifier:  notifier,
		days:      NewDayService(store),
		shifts:    NewShiftService(store, true),
		orders:    NewOrderService(store, policy, stockPolicy, notifier),
		products:  NewProductService(store),
		inventory: NewInventoryService(store, stockPolicy),
		reports:   NewReportService(store),
		customers: NewCustomerService(store),
		tables:    NewTableService(store),
		settings:  NewSettingService(store),
	}
}

func (e *testEnv) openDay(t *testing.T) *models.DailySnapshot {
	t.Helper()
	day, err := e.days.OpenDay(e.ctx)
	if err != nil {
		t.Fatalf("OpenDay: %v", err)
	}
	return day
}

func (e *testEnv) startShift(t *testing.T, startCash string) *models.Shift {
	t.Helper()
	shift, err := e.shifts.StartShift(e.ctx, StartShiftRequest{StartCash: dec(startCash)})
	if err != nil {
		t.Fatalf("StartShift: %v", err)
	}
	return shift
}

func (e *testEnv) leaf(t *testing.T, name, cost string) *models.Product {
	t.Helper()
	p, err := e.products.CreateProduct(e.ctx, CreateProductRequest{
		Name: name, Type: models.ProductTypeRawMaterial, Cost: dec(cost),
	})
	if err != nil {
		t.Fatalf("CreateProduct(%s): %v", name, err)
	}
	return p
}

func (e *testEnv) manufactured(t *testing.T, name, price string, edges ...models.ComponentEdge) *models.Product {
	t.Helper()
	p, err := e.products.CreateProduct(e.ctx, CreateProductRequest{
		Name: name, Type: models.ProductTypeManufactured, Price: dec(price), Components: edges,
	})
	if err != nil {
		t.Fatalf("CreateProduct(%s): %v", name, err)
	}
	return p
}

func edge(componentID int64, qty string) models.ComponentEdge {
	return models.ComponentEdge{ComponentID: componentID, QuantityPerUnit: dec(qty)}
}

func (e *testEnv) stock(t *testing.T, productID int64, delta string) {
	t.Helper()
	_, err := e.inventory.AdjustStock(e.ctx, AdjustStockRequest{ProductID: productID, Delta: dec(delta), Reason: "opening stock"})
	if err != nil {
		t.Fatalf("AdjustStock(%d): %v", productID, err)
	}
}

func (e *testEnv) onHand(t *testing.T, productID int64) decimal.Decimal {
	t.Helper()
	levels, err := e.inventory.ListStock(e.ctx)
	if err != nil {
		t.Fatalf("ListStock: %v", err)
	}
	for _, l := range levels {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	t.Fatalf("product %d has no inventory row", productID)
	return decimal.Zero
}

// burgerFixture is the Bun + Patty -> Burger catalog with 10 of each leaf in stock.
type burgerFixture struct {
	bun, patty, burger *models.Product
}

func (e *testEnv) burgers(t *testing.T) burgerFixture {
	t.Helper()
	bun := e.leaf(t, "Bun", "0.5")
	patty := e.leaf(t, "Patty", "2.0")
	burger := e.manufactured(t, "Burger", "10", edge(bun.ID, "1"), edge(patty.ID, "1"))
	e.stock(t, bun.ID, "10")
	e.stock(t, patty.ID, "10")
	return burgerFixture{bun: bun, patty: patty, burger: burger}
}

func (e *testEnv) order(t *testing.T, typ models.OrderType, items ...OrderItemRequest) *models.Order {
	t.Helper()
	order, err := e.orders.CreateOrder(e.ctx, CreateOrderRequest{Type: typ, Items: items})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return order
}

func line(productID int64, qty string) OrderItemRequest {
	return OrderItemRequest{ProductID: productID, Quantity: dec(qty)}
}

func (e *testEnv) payCash(t *testing.T, orderID int64, cash string) *CompleteOrderResult {
	t.Helper()
	res, err := e.orders.CompleteOrder(e.ctx, orderID, pricing.Tender{Cash: dec(cash)})
	if err != nil {
		t.Fatalf("CompleteOrder(%d): %v", orderID, err)
	}
	return res
}

type lockCall struct {
	name   string
	shared bool
}

// lockRecordingStore records the named locks taken inside each unit of work.
type lockRecordingStore struct {
	repositories.Store
	mu    sync.Mutex
	calls []lockCall
}

func (s *lockRecordingStore) WithinTx(ctx context.Context, fn func(r *repositories.Repos) error) error {
	return s.Store.WithinTx(ctx, func(r *repositories.Repos) error {
		wrapped := *r
		wrapped.Locks = lockRecorder{s}
		return fn(&wrapped)
	})
}

func (s *lockRecordingStore) taken() []lockCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]lockCall(nil), s.calls...)
}

type lockRecorder struct{ s *lockRecordingStore }

func (l lockRecorder) Lock(ctx context.Context, name string, shared bool) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.calls = append(l.s.calls, lockCall{name: name, shared: shared})
	return nil
}
