package repositories

import (
	"context"

	"pos_backoffice/internal/models"

	"github.com/shopspring/decimal"
)

// Store runs units of work. Everything fn does through r commits together or
// not at all. fn may be run more than once when the backend reports a
// retryable conflict, so it must not have side effects outside r.
type Store interface {
	WithinTx(ctx context.Context, fn func(r *Repos) error) error
	Close() error
}

// Repos bundles every repository bound to one unit of work.
type Repos struct {
	Products  ProductRepository
	Inventory InventoryRepository
	Movements InventoryMovementRepository
	Orders    OrderRepository
	Payments  PaymentRepository
	Shifts    ShiftRepository
	Expenses  ExpenseRepository
	Days      DayRepository
	Documents DocumentRepository
	Customers CustomerRepository
	Tables    TableRepository
	Users     UserRepository
	Settings  SettingRepository
	Locks     Locker
}

// Lock names shared between services.
const (
	// LockPeriod serializes day close and shift close against each other and
	// against creation of orders and stock documents.
	LockPeriod = "accounting_period"
)

// Locker takes transaction-scoped named locks.
type Locker interface {
	Lock(ctx context.Context, name string, shared bool) error
}

// ProductRepository stores catalog products and their recipe edges.
type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	UpdateCost(ctx context.Context, productID int64, cost decimal.Decimal) error
	SetComponents(ctx context.Context, productID int64, edges []models.ComponentEdge) error
	GetByID(ctx context.Context, productID int64) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
}

// InventoryRepository stores on-hand quantities of leaf products.
type InventoryRepository interface {
	Create(ctx context.Context, productID int64) error
	// GetForUpdate locks the row until the unit of work ends.
	GetForUpdate(ctx context.Context, productID int64) (*models.InventoryItem, error)
	SetQuantity(ctx context.Context, productID int64, qty decimal.Decimal) error
	List(ctx context.Context) ([]models.StockLevel, error)
}

// InventoryMovementRepository is the append-only stock audit trail.
type InventoryMovementRepository interface {
	Create(ctx context.Context, m *models.InventoryMovement) error
	List(ctx context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error)
}

// OrderRepository stores orders and their items.
type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, orderID int64) (*models.Order, error)
	// GetForUpdate locks the order row until the unit of work ends.
	GetForUpdate(ctx context.Context, orderID int64) (*models.Order, error)
	GetByExternalRef(ctx context.Context, ref string) (*models.Order, error)
	Update(ctx context.Context, o *models.Order) error
	List(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error)
	ListByShifts(ctx context.Context, shiftIDs []int64) ([]models.Order, error)
	// ListNonTerminal returns Pending, Processing and OutForDelivery orders of a shift.
	ListNonTerminal(ctx context.Context, shiftID int64) ([]models.Order, error)
	MoveToShift(ctx context.Context, orderIDs []int64, shiftID int64) error

	CreateItem(ctx context.Context, item *models.OrderItem) error
	UpdateItem(ctx context.Context, item *models.OrderItem) error
	DeleteItem(ctx context.Context, orderID, itemID int64) error
	ListItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
}

// PaymentRepository stores payments.
type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	ListByOrder(ctx context.Context, orderID int64) ([]models.Payment, error)
	ListByShifts(ctx context.Context, shiftIDs []int64) ([]models.Payment, error)
	DeleteByOrder(ctx context.Context, orderID int64) (int64, error)
	// CashForCompletedOrders sums cash payments of the shift whose order is Completed.
	CashForCompletedOrders(ctx context.Context, shiftID int64) (decimal.Decimal, error)
}

// ShiftRepository stores cashier shifts. At most one shift is open.
type ShiftRepository interface {
	// Create returns ErrDuplicateKey when another shift is already open.
	Create(ctx context.Context, s *models.Shift) error
	GetByID(ctx context.Context, shiftID int64) (*models.Shift, error)
	GetForUpdate(ctx context.Context, shiftID int64) (*models.Shift, error)
	GetOpen(ctx context.Context) (*models.Shift, error)
	LastClosed(ctx context.Context) (*models.Shift, error)
	Update(ctx context.Context, s *models.Shift) error
	List(ctx context.Context, filters models.ShiftFilters) ([]models.Shift, int, error)
	CountOpen(ctx context.Context) (int, error)
}

// ExpenseRepository stores expense types and shift expenses.
type ExpenseRepository interface {
	CreateType(ctx context.Context, t *models.ExpenseType) error
	GetType(ctx context.Context, typeID int64) (*models.ExpenseType, error)
	ListTypes(ctx context.Context) ([]models.ExpenseType, error)
	Create(ctx context.Context, e *models.Expense) error
	ListByShifts(ctx context.Context, shiftIDs []int64) ([]models.Expense, error)
	TotalForShift(ctx context.Context, shiftID int64) (decimal.Decimal, error)
}

// DayRepository stores daily snapshots. At most one day is open.
type DayRepository interface {
	// Create returns ErrDuplicateKey when another day is already open.
	Create(ctx context.Context, d *models.DailySnapshot) error
	GetByID(ctx context.Context, dayID int64) (*models.DailySnapshot, error)
	GetOpen(ctx context.Context) (*models.DailySnapshot, error)
	Latest(ctx context.Context) (*models.DailySnapshot, error)
	Update(ctx context.Context, d *models.DailySnapshot) error
}

// DocumentRepository stores purchase/return invoices, wastes and stocktakings.
type DocumentRepository interface {
	Create(ctx context.Context, d *models.StockDocument) error
	GetByID(ctx context.Context, docID int64) (*models.StockDocument, error)
	GetForUpdate(ctx context.Context, docID int64) (*models.StockDocument, error)
	Update(ctx context.Context, d *models.StockDocument) error
	List(ctx context.Context, kind *models.DocumentKind, closed *bool) ([]models.StockDocument, error)
	CountOpen(ctx context.Context) (map[models.DocumentKind]int, error)
	CreateItem(ctx context.Context, item *models.DocumentItem) error
	UpdateItem(ctx context.Context, item *models.DocumentItem) error
	ListItems(ctx context.Context, docID int64) ([]models.DocumentItem, error)
}

// CustomerRepository stores customers.
type CustomerRepository interface {
	Create(ctx context.Context, c *models.Customer) error
	GetByID(ctx context.Context, customerID int64) (*models.Customer, error)
	FindByPhone(ctx context.Context, phone string) (*models.Customer, error)
	Update(ctx context.Context, c *models.Customer) error
	List(ctx context.Context) ([]models.Customer, error)
}

// TableRepository stores dining tables.
type TableRepository interface {
	Create(ctx context.Context, t *models.DiningTable) error
	GetByID(ctx context.Context, tableID int64) (*models.DiningTable, error)
	GetForUpdate(ctx context.Context, tableID int64) (*models.DiningTable, error)
	SetReservation(ctx context.Context, tableID int64, orderID *int64) error
	List(ctx context.Context) ([]models.DiningTable, error)
}

// UserRepository stores back-office users.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, userID int64) (*models.User, error)
}

// SettingRepository stores application settings.
type SettingRepository interface {
	Get(ctx context.Context, key string) (*models.ApplicationSetting, error)
	Upsert(ctx context.Context, s *models.ApplicationSetting) error
	List(ctx context.Context) ([]models.ApplicationSetting, error)
	Delete(ctx context.Context, key string) error
}
