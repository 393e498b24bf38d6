package models

import "github.com/shopspring/decimal"

// Bucket aggregates orders sharing a status or type.
type Bucket struct {
	Count  int             `json:"count"`
	Value  decimal.Decimal `json:"value"`
	Profit decimal.Decimal `json:"profit"`
}

// ShiftStats is computed on demand and never stored.
type ShiftStats struct {
	ShiftIDs         []int64                           `json:"shift_ids"`
	ByStatus         map[OrderStatus]Bucket            `json:"by_status"`
	ByType           map[OrderType]Bucket              `json:"by_type"`
	PaymentsByMethod map[PaymentMethod]decimal.Decimal `json:"payments_by_method"`
	ExpensesTotal    decimal.Decimal                   `json:"expenses_total"`
	CompletedValue   decimal.Decimal                   `json:"completed_value"`
	CompletedProfit  decimal.Decimal                   `json:"completed_profit"`
}

// DayReportLine is one leaf product's movement over an accounting day.
type DayReportLine struct {
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	StartQuantity decimal.Decimal `json:"start_quantity"`
	EndQuantity   decimal.Decimal `json:"end_quantity"`
	Consumed      decimal.Decimal `json:"consumed"`
	ConsumedValue decimal.Decimal `json:"consumed_value"`
}

// DayReport summarises a closed (or open) accounting day.
type DayReport struct {
	DayID      int64           `json:"day_id"`
	Closed     bool            `json:"closed"`
	Lines      []DayReportLine `json:"lines"`
	TotalValue decimal.Decimal `json:"total_value"`
}
