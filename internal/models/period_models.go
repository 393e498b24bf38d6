package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySnapshot is one accounting day. At most one is open at a time.
type DailySnapshot struct {
	ID       int64           `json:"id" db:"id"`
	OpenedAt time.Time       `json:"opened_at" db:"opened_at"`
	ClosedAt *time.Time      `json:"closed_at,omitempty" db:"closed_at"`
	Closed   bool            `json:"closed" db:"closed"`
	Entries  []SnapshotEntry `json:"entries"`
}

// SnapshotEntry holds start/end quantity of one leaf product for the day.
type SnapshotEntry struct {
	ProductID     int64           `json:"product_id"`
	StartQuantity decimal.Decimal `json:"start_quantity"`
	EndQuantity   decimal.Decimal `json:"end_quantity"`
	Cost          decimal.Decimal `json:"cost"`
}

// Entry finds the entry for productID.
func (d *DailySnapshot) Entry(productID int64) (SnapshotEntry, bool) {
	for _, e := range d.Entries {
		if e.ProductID == productID {
			return e, true
		}
	}
	return SnapshotEntry{}, false
}
