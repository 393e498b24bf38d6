package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a delivery or web customer. DeliveryCost is charged as the
// service amount on delivery orders.
type Customer struct {
	ID           int64           `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Phone        *string         `json:"phone,omitempty" db:"phone"`
	Address      *string         `json:"address,omitempty" db:"address"`
	DeliveryCost decimal.Decimal `json:"delivery_cost" db:"delivery_cost"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// DiningTable is reserved by at most one Processing dine-in order.
type DiningTable struct {
	ID                int64     `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	ReservedByOrderID *int64    `json:"reserved_by_order_id,omitempty" db:"reserved_by_order_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}
