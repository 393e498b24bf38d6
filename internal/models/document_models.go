package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind distinguishes the closable stock documents.
type DocumentKind string

const (
	DocumentPurchaseInvoice DocumentKind = "purchase_invoice"
	DocumentReturnInvoice   DocumentKind = "return_invoice"
	DocumentWaste           DocumentKind = "waste"
	DocumentStocktaking     DocumentKind = "stocktaking"
)

// IsValid reports whether k is a known document kind.
func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentPurchaseInvoice, DocumentReturnInvoice, DocumentWaste, DocumentStocktaking:
		return true
	default:
		return false
	}
}

// StockDocument is a purchase invoice, return invoice, waste record or
// stocktaking. Its lines only touch inventory when the document is closed.
type StockDocument struct {
	ID        int64           `json:"id" db:"id"`
	Kind      DocumentKind    `json:"kind" db:"kind"`
	Supplier  *string         `json:"supplier,omitempty" db:"supplier"`
	Notes     *string         `json:"notes,omitempty" db:"notes"`
	Total     decimal.Decimal `json:"total" db:"total"`
	Closed    bool            `json:"closed" db:"closed"`
	ClosedAt  *time.Time      `json:"closed_at,omitempty" db:"closed_at"`
	CreatedBy *int64          `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
	Items     []DocumentItem  `json:"items,omitempty"`
}

// DocumentItem is one line of a StockDocument.
//
// For stocktakings Quantity is the counted quantity; SystemQuantity and Delta
// are filled when the document closes.
type DocumentItem struct {
	ID             int64            `json:"id" db:"id"`
	DocumentID     int64            `json:"document_id" db:"document_id"`
	ProductID      int64            `json:"product_id" db:"product_id"`
	Quantity       decimal.Decimal  `json:"quantity" db:"quantity"`
	UnitCost       decimal.Decimal  `json:"unit_cost" db:"unit_cost"`
	Total          decimal.Decimal  `json:"total" db:"total"`
	SystemQuantity *decimal.Decimal `json:"system_quantity,omitempty" db:"system_quantity"`
	Delta          *decimal.Decimal `json:"delta,omitempty" db:"delta"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}
