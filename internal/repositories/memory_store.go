package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"pos_backoffice/internal/models"

	"github.com/shopspring/decimal"
)

// MemoryStore keeps all state in process. A unit of work holds the store
// mutex, mutates a private copy of the state and swaps it in on success, so
// failed units of work leave nothing behind. Used for tests and demo runs.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

// WithinTx runs fn against a copy of the state. Units of work are fully
// serialized; fn must not start another unit of work on the same store.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(r *Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(work.repos()); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

type memoryState struct {
	seq map[string]int64

	products   map[int64]models.Product
	inventory  map[int64]models.InventoryItem
	movements  []models.InventoryMovement
	orders     map[int64]models.Order
	orderItems map[int64]models.OrderItem
	payments   map[int64]models.Payment
	shifts     map[int64]models.Shift
	expTypes   map[int64]models.ExpenseType
	expenses   map[int64]models.Expense
	days       map[int64]models.DailySnapshot
	documents  map[int64]models.StockDocument
	docItems   map[int64]models.DocumentItem
	customers  map[int64]models.Customer
	tables     map[int64]models.DiningTable
	users      map[int64]models.User
	settings   map[string]models.ApplicationSetting
}

func newMemoryState() *memoryState {
	return &memoryState{
		seq:        make(map[string]int64),
		products:   make(map[int64]models.Product),
		inventory:  make(map[int64]models.InventoryItem),
		orders:     make(map[int64]models.Order),
		orderItems: make(map[int64]models.OrderItem),
		payments:   make(map[int64]models.Payment),
		shifts:     make(map[int64]models.Shift),
		expTypes:   make(map[int64]models.ExpenseType),
		expenses:   make(map[int64]models.Expense),
		days:       make(map[int64]models.DailySnapshot),
		documents:  make(map[int64]models.StockDocument),
		docItems:   make(map[int64]models.DocumentItem),
		customers:  make(map[int64]models.Customer),
		tables:     make(map[int64]models.DiningTable),
		users:      make(map[int64]models.User),
		settings:   make(map[string]models.ApplicationSetting),
	}
}

func copyMap[K comparable, V any](src map[K]V, deep func(V) V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		if deep != nil {
			v = deep(v)
		}
		dst[k] = v
	}
	return dst
}

func cloneProduct(p models.Product) models.Product {
	p.Components = append([]models.ComponentEdge(nil), p.Components...)
	return p
}

func cloneDay(d models.DailySnapshot) models.DailySnapshot {
	d.Entries = append([]models.SnapshotEntry{}, d.Entries...)
	return d
}

func (s *memoryState) clone() *memoryState {
	return &memoryState{
		seq:        copyMap(s.seq, nil),
		products:   copyMap(s.products, cloneProduct),
		inventory:  copyMap(s.inventory, nil),
		movements:  append([]models.InventoryMovement(nil), s.movements...),
		orders:     copyMap(s.orders, nil),
		orderItems: copyMap(s.orderItems, nil),
		payments:   copyMap(s.payments, nil),
		shifts:     copyMap(s.shifts, nil),
		expTypes:   copyMap(s.expTypes, nil),
		expenses:   copyMap(s.expenses, nil),
		days:       copyMap(s.days, cloneDay),
		documents:  copyMap(s.documents, nil),
		docItems:   copyMap(s.docItems, nil),
		customers:  copyMap(s.customers, nil),
		tables:     copyMap(s.tables, nil),
		users:      copyMap(s.users, nil),
		settings:   copyMap(s.settings, nil),
	}
}

func (s *memoryState) next(name string) int64 {
	s.seq[name]++
	return s.seq[name]
}

func (s *memoryState) repos() *Repos {
	return &Repos{
		Products:  memProducts{s},
		Inventory: memInventory{s},
		Movements: memMovements{s},
		Orders:    memOrders{s},
		Payments:  memPayments{s},
		Shifts:    memShifts{s},
		Expenses:  memExpenses{s},
		Days:      memDays{s},
		Documents: memDocuments{s},
		Customers: memCustomers{s},
		Tables:    memTables{s},
		Users:     memUsers{s},
		Settings:  memSettings{s},
		Locks:     memLocker{},
	}
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, page, pageSize int) []T {
	limit, offset := pageBounds(page, pageSize)
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// memLocker is a no-op: the store mutex already serializes units of work.
type memLocker struct{}

func (memLocker) Lock(ctx context.Context, name string, shared bool) error { return nil }

type memProducts struct{ s *memoryState }

func (r memProducts) Create(ctx context.Context, p *models.Product) error {
	now := time.Now()
	p.ID = r.s.next("products")
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r memProducts) Update(ctx context.Context, p *models.Product) error {
	cur, ok := r.s.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Name, cur.Unit, cur.Price, cur.MinStock = p.Name, p.Unit, p.Price, p.MinStock
	cur.UpdatedAt = time.Now()
	p.UpdatedAt = cur.UpdatedAt
	r.s.products[p.ID] = cur
	return nil
}

func (r memProducts) UpdateCost(ctx context.Context, productID int64, cost decimal.Decimal) error {
	cur, ok := r.s.products[productID]
	if !ok {
		return ErrNotFound
	}
	cur.Cost = cost
	cur.UpdatedAt = time.Now()
	r.s.products[productID] = cur
	return nil
}

func (r memProducts) SetComponents(ctx context.Context, productID int64, edges []models.ComponentEdge) error {
	cur, ok := r.s.products[productID]
	if !ok {
		return ErrNotFound
	}
	cur.Components = append([]models.ComponentEdge(nil), edges...)
	sort.Slice(cur.Components, func(i, j int) bool { return cur.Components[i].ComponentID < cur.Components[j].ComponentID })
	r.s.products[productID] = cur
	return nil
}

func (r memProducts) GetByID(ctx context.Context, productID int64) (*models.Product, error) {
	p, ok := r.s.products[productID]
	if !ok {
		return nil, ErrNotFound
	}
	p = cloneProduct(p)
	return &p, nil
}

func (r memProducts) List(ctx context.Context) ([]models.Product, error) {
	out := []models.Product{}
	for _, id := range sortedKeys(r.s.products) {
		out = append(out, cloneProduct(r.s.products[id]))
	}
	return out, nil
}

type memInventory struct{ s *memoryState }

func (r memInventory) Create(ctx context.Context, productID int64) error {
	if _, ok := r.s.inventory[productID]; ok {
		return ErrDuplicateKey
	}
	r.s.inventory[productID] = models.InventoryItem{ProductID: productID, Quantity: decimal.Zero, UpdatedAt: time.Now()}
	return nil
}

func (r memInventory) GetForUpdate(ctx context.Context, productID int64) (*models.InventoryItem, error) {
	item, ok := r.s.inventory[productID]
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

func (r memInventory) SetQuantity(ctx context.Context, productID int64, qty decimal.Decimal) error {
	item, ok := r.s.inventory[productID]
	if !ok {
		return ErrNotFound
	}
	item.Quantity = qty
	item.UpdatedAt = time.Now()
	r.s.inventory[productID] = item
	return nil
}

func (r memInventory) List(ctx context.Context) ([]models.StockLevel, error) {
	levels := []models.StockLevel{}
	for _, id := range sortedKeys(r.s.inventory) {
		p := r.s.products[id]
		levels = append(levels, models.StockLevel{
			ProductID: id, Name: p.Name, Unit: p.Unit,
			Quantity: r.s.inventory[id].Quantity, MinStock: p.MinStock, Cost: p.Cost,
		})
	}
	return levels, nil
}

type memMovements struct{ s *memoryState }

func (r memMovements) Create(ctx context.Context, m *models.InventoryMovement) error {
	m.ID = r.s.next("movements")
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r memMovements) List(ctx context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	matched := []models.InventoryMovement{}
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if filters.ProductID != nil && m.ProductID != *filters.ProductID {
			continue
		}
		if filters.MovementType != nil && *filters.MovementType != "" && m.MovementType != *filters.MovementType {
			continue
		}
		matched = append(matched, m)
	}
	return paginate(matched, filters.Page, filters.PageSize), len(matched), nil
}

type memOrders struct{ s *memoryState }

func (r memOrders) Create(ctx context.Context, o *models.Order) error {
	if o.ExternalRef != nil {
		for _, existing := range r.s.orders {
			if existing.ExternalRef != nil && *existing.ExternalRef == *o.ExternalRef {
				return ErrDuplicateKey
			}
		}
	}
	now := time.Now()
	o.ID = r.s.next("orders")
	o.CreatedAt, o.UpdatedAt = now, now
	stored := *o
	stored.Items, stored.Payments = nil, nil
	r.s.orders[o.ID] = stored
	return nil
}

func (r memOrders) GetByID(ctx context.Context, orderID int64) (*models.Order, error) {
	o, ok := r.s.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (r memOrders) GetForUpdate(ctx context.Context, orderID int64) (*models.Order, error) {
	return r.GetByID(ctx, orderID)
}

func (r memOrders) GetByExternalRef(ctx context.Context, ref string) (*models.Order, error) {
	for _, id := range sortedKeys(r.s.orders) {
		o := r.s.orders[id]
		if o.ExternalRef != nil && *o.ExternalRef == ref {
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func (r memOrders) Update(ctx context.Context, o *models.Order) error {
	if _, ok := r.s.orders[o.ID]; !ok {
		return ErrNotFound
	}
	o.UpdatedAt = time.Now()
	stored := *o
	stored.Items, stored.Payments = nil, nil
	r.s.orders[o.ID] = stored
	return nil
}

func (r memOrders) List(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	keys := sortedKeys(r.s.orders)
	matched := []models.Order{}
	for i := len(keys) - 1; i >= 0; i-- {
		o := r.s.orders[keys[i]]
		if filters.ShiftID != nil && o.ShiftID != *filters.ShiftID {
			continue
		}
		if filters.Status != nil && *filters.Status != "" && o.Status != *filters.Status {
			continue
		}
		if filters.Type != nil && *filters.Type != "" && o.Type != *filters.Type {
			continue
		}
		matched = append(matched, o)
	}
	return paginate(matched, filters.Page, filters.PageSize), len(matched), nil
}

func (r memOrders) ListByShifts(ctx context.Context, shiftIDs []int64) ([]models.Order, error) {
	out := []models.Order{}
	for _, id := range sortedKeys(r.s.orders) {
		if o := r.s.orders[id]; containsID(shiftIDs, o.ShiftID) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r memOrders) ListNonTerminal(ctx context.Context, shiftID int64) ([]models.Order, error) {
	out := []models.Order{}
	for _, id := range sortedKeys(r.s.orders) {
		if o := r.s.orders[id]; o.ShiftID == shiftID && !o.Status.IsTerminal() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r memOrders) MoveToShift(ctx context.Context, orderIDs []int64, shiftID int64) error {
	for _, id := range orderIDs {
		if o, ok := r.s.orders[id]; ok {
			o.ShiftID = shiftID
			o.UpdatedAt = time.Now()
			r.s.orders[id] = o
		}
	}
	return nil
}

func (r memOrders) CreateItem(ctx context.Context, item *models.OrderItem) error {
	if _, ok := r.s.orders[item.OrderID]; !ok {
		return ErrNotFound
	}
	item.ID = r.s.next("order_items")
	item.CreatedAt = time.Now()
	r.s.orderItems[item.ID] = *item
	return nil
}

func (r memOrders) UpdateItem(ctx context.Context, item *models.OrderItem) error {
	cur, ok := r.s.orderItems[item.ID]
	if !ok || cur.OrderID != item.OrderID {
		return ErrNotFound
	}
	cur.Quantity, cur.LineTotal, cur.Notes = item.Quantity, item.LineTotal, item.Notes
	r.s.orderItems[item.ID] = cur
	return nil
}

func (r memOrders) DeleteItem(ctx context.Context, orderID, itemID int64) error {
	cur, ok := r.s.orderItems[itemID]
	if !ok || cur.OrderID != orderID {
		return ErrNotFound
	}
	delete(r.s.orderItems, itemID)
	return nil
}

func (r memOrders) ListItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	for _, id := range sortedKeys(r.s.orderItems) {
		if item := r.s.orderItems[id]; item.OrderID == orderID {
			items = append(items, item)
		}
	}
	return items, nil
}

type memPayments struct{ s *memoryState }

func (r memPayments) Create(ctx context.Context, p *models.Payment) error {
	p.ID = r.s.next("payments")
	p.CreatedAt = time.Now()
	r.s.payments[p.ID] = *p
	return nil
}

func (r memPayments) filter(keep func(models.Payment) bool) []models.Payment {
	out := []models.Payment{}
	for _, id := range sortedKeys(r.s.payments) {
		if p := r.s.payments[id]; keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (r memPayments) ListByOrder(ctx context.Context, orderID int64) ([]models.Payment, error) {
	return r.filter(func(p models.Payment) bool { return p.OrderID == orderID }), nil
}

func (r memPayments) ListByShifts(ctx context.Context, shiftIDs []int64) ([]models.Payment, error) {
	return r.filter(func(p models.Payment) bool { return containsID(shiftIDs, p.ShiftID) }), nil
}

func (r memPayments) DeleteByOrder(ctx context.Context, orderID int64) (int64, error) {
	var n int64
	for id, p := range r.s.payments {
		if p.OrderID == orderID {
			delete(r.s.payments, id)
			n++
		}
	}
	return n, nil
}

func (r memPayments) CashForCompletedOrders(ctx context.Context, shiftID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range r.s.payments {
		if p.ShiftID != shiftID || p.Method != models.PaymentCash {
			continue
		}
		if o, ok := r.s.orders[p.OrderID]; ok && o.Status == models.OrderStatusCompleted {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

type memShifts struct{ s *memoryState }

func (r memShifts) Create(ctx context.Context, sh *models.Shift) error {
	if !sh.Closed {
		for _, existing := range r.s.shifts {
			if !existing.Closed {
				return ErrDuplicateKey
			}
		}
	}
	now := time.Now()
	sh.ID = r.s.next("shifts")
	sh.CreatedAt, sh.UpdatedAt = now, now
	r.s.shifts[sh.ID] = *sh
	return nil
}

func (r memShifts) GetByID(ctx context.Context, shiftID int64) (*models.Shift, error) {
	sh, ok := r.s.shifts[shiftID]
	if !ok {
		return nil, ErrNotFound
	}
	return &sh, nil
}

func (r memShifts) GetForUpdate(ctx context.Context, shiftID int64) (*models.Shift, error) {
	return r.GetByID(ctx, shiftID)
}

func (r memShifts) GetOpen(ctx context.Context) (*models.Shift, error) {
	keys := sortedKeys(r.s.shifts)
	for i := len(keys) - 1; i >= 0; i-- {
		if sh := r.s.shifts[keys[i]]; !sh.Closed {
			return &sh, nil
		}
	}
	return nil, ErrNotFound
}

func (r memShifts) LastClosed(ctx context.Context) (*models.Shift, error) {
	var last *models.Shift
	for _, id := range sortedKeys(r.s.shifts) {
		sh := r.s.shifts[id]
		if !sh.Closed {
			continue
		}
		if last == nil || sh.EndAt != nil && last.EndAt != nil && !sh.EndAt.Before(*last.EndAt) {
			last = &sh
		}
	}
	if last == nil {
		return nil, ErrNotFound
	}
	return last, nil
}

func (r memShifts) Update(ctx context.Context, sh *models.Shift) error {
	cur, ok := r.s.shifts[sh.ID]
	if !ok {
		return ErrNotFound
	}
	sh.UpdatedAt = time.Now()
	sh.CashierID, sh.StartAt, sh.StartCash, sh.CreatedAt = cur.CashierID, cur.StartAt, cur.StartCash, cur.CreatedAt
	r.s.shifts[sh.ID] = *sh
	return nil
}

func (r memShifts) List(ctx context.Context, filters models.ShiftFilters) ([]models.Shift, int, error) {
	keys := sortedKeys(r.s.shifts)
	matched := []models.Shift{}
	for i := len(keys) - 1; i >= 0; i-- {
		sh := r.s.shifts[keys[i]]
		if filters.Closed != nil && sh.Closed != *filters.Closed {
			continue
		}
		matched = append(matched, sh)
	}
	return paginate(matched, filters.Page, filters.PageSize), len(matched), nil
}

func (r memShifts) CountOpen(ctx context.Context) (int, error) {
	n := 0
	for _, sh := range r.s.shifts {
		if !sh.Closed {
			n++
		}
	}
	return n, nil
}

type memExpenses struct{ s *memoryState }

func (r memExpenses) CreateType(ctx context.Context, t *models.ExpenseType) error {
	for _, existing := range r.s.expTypes {
		if existing.Name == t.Name {
			return ErrDuplicateKey
		}
	}
	t.ID = r.s.next("expense_types")
	t.CreatedAt = time.Now()
	r.s.expTypes[t.ID] = *t
	return nil
}

func (r memExpenses) GetType(ctx context.Context, typeID int64) (*models.ExpenseType, error) {
	t, ok := r.s.expTypes[typeID]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (r memExpenses) ListTypes(ctx context.Context) ([]models.ExpenseType, error) {
	types := []models.ExpenseType{}
	for _, id := range sortedKeys(r.s.expTypes) {
		types = append(types, r.s.expTypes[id])
	}
	sort.SliceStable(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types, nil
}

func (r memExpenses) Create(ctx context.Context, e *models.Expense) error {
	e.ID = r.s.next("expenses")
	e.CreatedAt = time.Now()
	r.s.expenses[e.ID] = *e
	return nil
}

func (r memExpenses) ListByShifts(ctx context.Context, shiftIDs []int64) ([]models.Expense, error) {
	out := []models.Expense{}
	for _, id := range sortedKeys(r.s.expenses) {
		if e := r.s.expenses[id]; containsID(shiftIDs, e.ShiftID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memExpenses) TotalForShift(ctx context.Context, shiftID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range r.s.expenses {
		if e.ShiftID == shiftID {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

type memDays struct{ s *memoryState }

func (r memDays) Create(ctx context.Context, d *models.DailySnapshot) error {
	if !d.Closed {
		for _, existing := range r.s.days {
			if !existing.Closed {
				return ErrDuplicateKey
			}
		}
	}
	d.ID = r.s.next("days")
	r.s.days[d.ID] = cloneDay(*d)
	return nil
}

func (r memDays) GetByID(ctx context.Context, dayID int64) (*models.DailySnapshot, error) {
	d, ok := r.s.days[dayID]
	if !ok {
		return nil, ErrNotFound
	}
	d = cloneDay(d)
	return &d, nil
}

func (r memDays) GetOpen(ctx context.Context) (*models.DailySnapshot, error) {
	keys := sortedKeys(r.s.days)
	for i := len(keys) - 1; i >= 0; i-- {
		if d := r.s.days[keys[i]]; !d.Closed {
			d = cloneDay(d)
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

func (r memDays) Latest(ctx context.Context) (*models.DailySnapshot, error) {
	keys := sortedKeys(r.s.days)
	if len(keys) == 0 {
		return nil, ErrNotFound
	}
	d := cloneDay(r.s.days[keys[len(keys)-1]])
	return &d, nil
}

func (r memDays) Update(ctx context.Context, d *models.DailySnapshot) error {
	if _, ok := r.s.days[d.ID]; !ok {
		return ErrNotFound
	}
	r.s.days[d.ID] = cloneDay(*d)
	return nil
}

type memDocuments struct{ s *memoryState }

func (r memDocuments) Create(ctx context.Context, d *models.StockDocument) error {
	now := time.Now()
	d.ID = r.s.next("documents")
	d.CreatedAt, d.UpdatedAt = now, now
	stored := *d
	stored.Items = nil
	r.s.documents[d.ID] = stored
	return nil
}

func (r memDocuments) GetByID(ctx context.Context, docID int64) (*models.StockDocument, error) {
	d, ok := r.s.documents[docID]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (r memDocuments) GetForUpdate(ctx context.Context, docID int64) (*models.StockDocument, error) {
	return r.GetByID(ctx, docID)
}

func (r memDocuments) Update(ctx context.Context, d *models.StockDocument) error {
	cur, ok := r.s.documents[d.ID]
	if !ok {
		return ErrNotFound
	}
	d.UpdatedAt = time.Now()
	cur.Supplier, cur.Notes, cur.Total, cur.Closed, cur.ClosedAt, cur.UpdatedAt =
		d.Supplier, d.Notes, d.Total, d.Closed, d.ClosedAt, d.UpdatedAt
	r.s.documents[d.ID] = cur
	return nil
}

func (r memDocuments) List(ctx context.Context, kind *models.DocumentKind, closed *bool) ([]models.StockDocument, error) {
	keys := sortedKeys(r.s.documents)
	docs := []models.StockDocument{}
	for i := len(keys) - 1; i >= 0; i-- {
		d := r.s.documents[keys[i]]
		if kind != nil && d.Kind != *kind {
			continue
		}
		if closed != nil && d.Closed != *closed {
			continue
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (r memDocuments) CountOpen(ctx context.Context) (map[models.DocumentKind]int, error) {
	counts := make(map[models.DocumentKind]int)
	for _, d := range r.s.documents {
		if !d.Closed {
			counts[d.Kind]++
		}
	}
	return counts, nil
}

func (r memDocuments) CreateItem(ctx context.Context, item *models.DocumentItem) error {
	if _, ok := r.s.documents[item.DocumentID]; !ok {
		return ErrNotFound
	}
	item.ID = r.s.next("document_items")
	item.CreatedAt = time.Now()
	r.s.docItems[item.ID] = *item
	return nil
}

func (r memDocuments) UpdateItem(ctx context.Context, item *models.DocumentItem) error {
	cur, ok := r.s.docItems[item.ID]
	if !ok || cur.DocumentID != item.DocumentID {
		return ErrNotFound
	}
	item.CreatedAt = cur.CreatedAt
	r.s.docItems[item.ID] = *item
	return nil
}

func (r memDocuments) ListItems(ctx context.Context, docID int64) ([]models.DocumentItem, error) {
	items := []models.DocumentItem{}
	for _, id := range sortedKeys(r.s.docItems) {
		if item := r.s.docItems[id]; item.DocumentID == docID {
			items = append(items, item)
		}
	}
	return items, nil
}

type memCustomers struct{ s *memoryState }

func (r memCustomers) phoneTaken(phone *string, except int64) bool {
	if phone == nil {
		return false
	}
	for id, c := range r.s.customers {
		if id != except && c.Phone != nil && *c.Phone == *phone {
			return true
		}
	}
	return false
}

func (r memCustomers) Create(ctx context.Context, c *models.Customer) error {
	if r.phoneTaken(c.Phone, 0) {
		return ErrDuplicateKey
	}
	now := time.Now()
	c.ID = r.s.next("customers")
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.customers[c.ID] = *c
	return nil
}

func (r memCustomers) GetByID(ctx context.Context, customerID int64) (*models.Customer, error) {
	c, ok := r.s.customers[customerID]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r memCustomers) FindByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	for _, id := range sortedKeys(r.s.customers) {
		if c := r.s.customers[id]; c.Phone != nil && *c.Phone == phone {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (r memCustomers) Update(ctx context.Context, c *models.Customer) error {
	cur, ok := r.s.customers[c.ID]
	if !ok {
		return ErrNotFound
	}
	if r.phoneTaken(c.Phone, c.ID) {
		return ErrDuplicateKey
	}
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = time.Now()
	r.s.customers[c.ID] = *c
	return nil
}

func (r memCustomers) List(ctx context.Context) ([]models.Customer, error) {
	out := []models.Customer{}
	for _, id := range sortedKeys(r.s.customers) {
		out = append(out, r.s.customers[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memTables struct{ s *memoryState }

func (r memTables) Create(ctx context.Context, t *models.DiningTable) error {
	for _, existing := range r.s.tables {
		if existing.Name == t.Name {
			return ErrDuplicateKey
		}
	}
	now := time.Now()
	t.ID = r.s.next("tables")
	t.CreatedAt, t.UpdatedAt = now, now
	r.s.tables[t.ID] = *t
	return nil
}

func (r memTables) GetByID(ctx context.Context, tableID int64) (*models.DiningTable, error) {
	t, ok := r.s.tables[tableID]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (r memTables) GetForUpdate(ctx context.Context, tableID int64) (*models.DiningTable, error) {
	return r.GetByID(ctx, tableID)
}

func (r memTables) SetReservation(ctx context.Context, tableID int64, orderID *int64) error {
	t, ok := r.s.tables[tableID]
	if !ok {
		return ErrNotFound
	}
	t.ReservedByOrderID = orderID
	t.UpdatedAt = time.Now()
	r.s.tables[tableID] = t
	return nil
}

func (r memTables) List(ctx context.Context) ([]models.DiningTable, error) {
	out := []models.DiningTable{}
	for _, id := range sortedKeys(r.s.tables) {
		out = append(out, r.s.tables[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memUsers struct{ s *memoryState }

func (r memUsers) Create(ctx context.Context, u *models.User) error {
	for _, existing := range r.s.users {
		if existing.Username == u.Username {
			return ErrDuplicateKey
		}
	}
	now := time.Now()
	u.ID = r.s.next("users")
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = *u
	return nil
}

func (r memUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r memUsers) FindByID(ctx context.Context, userID int64) (*models.User, error) {
	u, ok := r.s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

type memSettings struct{ s *memoryState }

func (r memSettings) Get(ctx context.Context, key string) (*models.ApplicationSetting, error) {
	st, ok := r.s.settings[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &st, nil
}

func (r memSettings) Upsert(ctx context.Context, st *models.ApplicationSetting) error {
	st.UpdatedAt = time.Now()
	r.s.settings[st.SettingKey] = *st
	return nil
}

func (r memSettings) List(ctx context.Context) ([]models.ApplicationSetting, error) {
	keys := make([]string, 0, len(r.s.settings))
	for k := range r.s.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]models.ApplicationSetting, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.s.settings[k])
	}
	return out, nil
}

func (r memSettings) Delete(ctx context.Context, key string) error {
	if _, ok := r.s.settings[key]; !ok {
		return ErrNotFound
	}
	delete(r.s.settings, key)
	return nil
}
