package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Shift is a cashier session and the unit of cash reconciliation.
// Deficit is EndCash - RealCash: positive means less cash was counted than expected.
type Shift struct {
	ID           int64            `json:"id" db:"id"`
	CashierID    *int64           `json:"cashier_id,omitempty" db:"cashier_id"`
	StartAt      time.Time        `json:"start_at" db:"start_at"`
	EndAt        *time.Time       `json:"end_at,omitempty" db:"end_at"`
	StartCash    decimal.Decimal  `json:"start_cash" db:"start_cash"`
	EndCash      *decimal.Decimal `json:"end_cash,omitempty" db:"end_cash"`
	RealCash     *decimal.Decimal `json:"real_cash,omitempty" db:"real_cash"`
	Deficit      decimal.Decimal  `json:"deficit" db:"deficit"`
	LossesAmount decimal.Decimal  `json:"losses_amount" db:"losses_amount"`
	HasDeficit   bool             `json:"has_deficit" db:"has_deficit"`
	Closed       bool             `json:"closed" db:"closed"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// ExpenseType is a category of cash paid out of the drawer.
type ExpenseType struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Expense is cash paid out during a shift.
type Expense struct {
	ID            int64           `json:"id" db:"id"`
	ShiftID       int64           `json:"shift_id" db:"shift_id"`
	ExpenseTypeID int64           `json:"expense_type_id" db:"expense_type_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Notes         *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// ShiftFilters narrows shift listings.
type ShiftFilters struct {
	Closed   *bool `form:"closed"`
	Page     int   `form:"page"`
	PageSize int   `form:"page_size"`
}
