package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType classifies how a product holds stock and cost.
type ProductType string

const (
	ProductTypeRawMaterial  ProductType = "raw_material"
	ProductTypeConsumable   ProductType = "consumable"
	ProductTypeManufactured ProductType = "manufactured"
)

// IsValid reports whether t is a known product type.
func (t ProductType) IsValid() bool {
	switch t {
	case ProductTypeRawMaterial, ProductTypeConsumable, ProductTypeManufactured:
		return true
	default:
		return false
	}
}

// IsLeaf is true for products that carry real inventory.
func (t ProductType) IsLeaf() bool {
	return t == ProductTypeRawMaterial || t == ProductTypeConsumable
}

// Product is a catalog entry. Cost of a manufactured product is always derived
// from its components and never authored directly.
type Product struct {
	ID         int64           `json:"id" db:"id"`
	Name       string          `json:"name" db:"name"`
	Type       ProductType     `json:"type" db:"type"`
	Unit       string          `json:"unit" db:"unit"`
	Price      decimal.Decimal `json:"price" db:"price"`
	Cost       decimal.Decimal `json:"cost" db:"cost"`
	MinStock   decimal.Decimal `json:"min_stock" db:"min_stock"`
	Components []ComponentEdge `json:"components,omitempty"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// IsManufactured is shorthand for Type == ProductTypeManufactured.
func (p Product) IsManufactured() bool {
	return p.Type == ProductTypeManufactured
}

// ComponentEdge says "one unit of the owning product needs QuantityPerUnit of ComponentID".
type ComponentEdge struct {
	ComponentID     int64           `json:"component_id" db:"component_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit" db:"quantity_per_unit"`
}

// RecipeLine is one leaf entry of a flattened recipe.
type RecipeLine struct {
	LeafProductID   int64           `json:"leaf_product_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

// InventoryItem exists only for leaf products.
type InventoryItem struct {
	ProductID int64           `json:"product_id" db:"product_id"`
	Quantity  decimal.Decimal `json:"quantity" db:"quantity"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// StockLevel joins an inventory row with its product for listings.
type StockLevel struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Quantity  decimal.Decimal `json:"quantity"`
	MinStock  decimal.Decimal `json:"min_stock"`
	Cost      decimal.Decimal `json:"cost"`
}

// MovementType tags every change to an inventory row.
type MovementType string

const (
	MovementSale         MovementType = "sale"
	MovementSaleReversal MovementType = "sale_reversal"
	MovementPurchase     MovementType = "purchase"
	MovementReturn       MovementType = "return"
	MovementWaste        MovementType = "waste"
	MovementStocktaking  MovementType = "stocktaking"
	MovementAdjustment   MovementType = "adjustment"
)

// InventoryMovement is the audit trail of stock changes.
type InventoryMovement struct {
	ID              int64           `json:"id" db:"id"`
	ProductID       int64           `json:"product_id" db:"product_id"`
	MovementType    MovementType    `json:"movement_type" db:"movement_type"`
	QuantityChanged decimal.Decimal `json:"quantity_changed" db:"quantity_changed"`
	QuantityAfter   decimal.Decimal `json:"quantity_after" db:"quantity_after"`
	ReferenceID     *int64          `json:"reference_id,omitempty" db:"reference_id"`
	UserID          *int64          `json:"user_id,omitempty" db:"user_id"`
	Reason          *string         `json:"reason,omitempty" db:"reason"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// MovementFilters narrows movement listings.
type MovementFilters struct {
	ProductID    *int64        `form:"product_id"`
	MovementType *MovementType `form:"movement_type"`
	Page         int           `form:"page"`
	PageSize     int           `form:"page_size"`
}

// StockPolicy decides what happens when a decrement would leave a leaf below zero.
type StockPolicy string

const (
	StockPolicyAllowNegative  StockPolicy = "allow_negative"
	StockPolicyRejectNegative StockPolicy = "reject_negative"
)

// IsValid reports whether p is a known policy.
func (p StockPolicy) IsValid() bool {
	return p == StockPolicyAllowNegative || p == StockPolicyRejectNegative
}
