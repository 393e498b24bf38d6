package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType is the sales channel of an order.
type OrderType string

const (
	OrderTypeDineIn      OrderType = "dine_in"
	OrderTypeTakeaway    OrderType = "takeaway"
	OrderTypeDelivery    OrderType = "delivery"
	OrderTypeWebDelivery OrderType = "web_delivery"
	OrderTypeWebTakeaway OrderType = "web_takeaway"
	OrderTypeTalabat     OrderType = "talabat"
	OrderTypeCompanies   OrderType = "companies"
)

// IsValid reports whether t is a known order type.
func (t OrderType) IsValid() bool {
	switch t {
	case OrderTypeDineIn, OrderTypeTakeaway, OrderTypeDelivery, OrderTypeWebDelivery,
		OrderTypeWebTakeaway, OrderTypeTalabat, OrderTypeCompanies:
		return true
	default:
		return false
	}
}

// IsWeb is true for orders submitted by the external ordering channel.
func (t OrderType) IsWeb() bool {
	return t == OrderTypeWebDelivery || t == OrderTypeWebTakeaway
}

// ChargesDelivery is true for types whose service charge is the customer's delivery cost.
func (t OrderType) ChargesDelivery() bool {
	return t == OrderTypeDelivery || t == OrderTypeWebDelivery
}

// OrderStatus follows Pending -> Processing -> (OutForDelivery ->) Completed | Cancelled.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// PaymentStatus is derived from the sum of payments against the total.
type PaymentStatus string

const (
	PaymentStatusPending     PaymentStatus = "pending"
	PaymentStatusPartialPaid PaymentStatus = "partial_paid"
	PaymentStatusFullPaid    PaymentStatus = "full_paid"
)

// DiscountKind says which discount field is authoritative.
type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountFixed   DiscountKind = "fixed"
)

// PaymentMethod of a Payment row.
type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentCard        PaymentMethod = "card"
	PaymentTalabatCard PaymentMethod = "talabat_card"
)

// Order is a sale. Totals are always produced by the pricing engine.
type Order struct {
	ID              int64            `json:"id" db:"id"`
	ShiftID         int64            `json:"shift_id" db:"shift_id"`
	Type            OrderType        `json:"type" db:"type"`
	Status          OrderStatus      `json:"status" db:"status"`
	PaymentStatus   PaymentStatus    `json:"payment_status" db:"payment_status"`
	CustomerID      *int64           `json:"customer_id,omitempty" db:"customer_id"`
	TableID         *int64           `json:"table_id,omitempty" db:"table_id"`
	SubTotal        decimal.Decimal  `json:"sub_total" db:"sub_total"`
	Tax             decimal.Decimal  `json:"tax" db:"tax"`
	Service         decimal.Decimal  `json:"service" db:"service"`
	DiscountPercent decimal.Decimal  `json:"discount_percent" db:"discount_percent"`
	Discount        decimal.Decimal  `json:"discount" db:"discount"`
	Total           decimal.Decimal  `json:"total" db:"total"`
	Profit          decimal.Decimal  `json:"profit" db:"profit"`
	ExternalRef     *string          `json:"external_ref,omitempty" db:"external_ref"`
	WebSubTotal     *decimal.Decimal `json:"web_sub_total,omitempty" db:"web_sub_total"`
	WebTotal        *decimal.Decimal `json:"web_total,omitempty" db:"web_total"`
	WebPosDiff      *decimal.Decimal `json:"web_pos_diff,omitempty" db:"web_pos_diff"`
	Notes           *string          `json:"notes,omitempty" db:"notes"`
	CancelReason    *string          `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CreatedBy       *int64           `json:"created_by,omitempty" db:"created_by"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
	Items           []OrderItem      `json:"items,omitempty"`
	Payments        []Payment        `json:"payments,omitempty"`
}

// OrderItem snapshots price and cost at creation time.
type OrderItem struct {
	ID        int64           `json:"id" db:"id"`
	OrderID   int64           `json:"order_id" db:"order_id"`
	ProductID int64           `json:"product_id" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	Quantity  decimal.Decimal `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	UnitCost  decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	LineTotal decimal.Decimal `json:"line_total" db:"line_total"`
	Notes     *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// LineCost is unit cost times quantity.
func (i OrderItem) LineCost() decimal.Decimal {
	return i.UnitCost.Mul(i.Quantity)
}

// Payment belongs to an order and to the shift it was taken in.
type Payment struct {
	ID        int64           `json:"id" db:"id"`
	OrderID   int64           `json:"order_id" db:"order_id"`
	ShiftID   int64           `json:"shift_id" db:"shift_id"`
	Method    PaymentMethod   `json:"method" db:"method"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// OrderFilters defines the available filters for querying orders.
type OrderFilters struct {
	ShiftID  *int64       `form:"shift_id"`
	Status   *OrderStatus `form:"status"`
	Type     *OrderType   `form:"type"`
	Page     int          `form:"page"`
	PageSize int          `form:"page_size"`
}

// Receipt is the read-only projection handed to the printer service.
type Receipt struct {
	OrderID       int64           `json:"order_id"`
	Type          OrderType       `json:"type"`
	Status        OrderStatus     `json:"status"`
	TableName     *string         `json:"table_name,omitempty"`
	CustomerName  *string         `json:"customer_name,omitempty"`
	Lines         []ReceiptLine   `json:"lines"`
	SubTotal      decimal.Decimal `json:"sub_total"`
	Service       decimal.Decimal `json:"service"`
	Tax           decimal.Decimal `json:"tax"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	Payments      []Payment       `json:"payments"`
	Paid          decimal.Decimal `json:"paid"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	IssuedAt      time.Time       `json:"issued_at"`
}

// ReceiptLine is one printed item line.
type ReceiptLine struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Notes     *string         `json:"notes,omitempty"`
}
