package repositories

import (
	"context"
	"database/sql"
	"time"

	"pos_backoffice/internal/models"

	"github.com/shopspring/decimal"
)

type inventoryRepository struct {
	exec SQLExecutor
}

func checkAffected(op string, res sql.Result, err error) error {
	if err != nil {
		return dbError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbError(op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) Create(ctx context.Context, productID int64) error {
	_, err := r.exec.ExecContext(ctx,
		`INSERT INTO inventory_items (product_id, quantity, updated_at) VALUES ($1, 0, $2)`, productID, time.Now())
	if err != nil {
		return dbError("creating inventory item", err)
	}
	return nil
}

func (r *inventoryRepository) GetForUpdate(ctx context.Context, productID int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.exec.QueryRowContext(ctx,
		`SELECT product_id, quantity, updated_at FROM inventory_items WHERE product_id = $1 FOR UPDATE`, productID,
	).Scan(&item.ProductID, &item.Quantity, &item.UpdatedAt)
	if err != nil {
		return nil, dbError("locking inventory item", err)
	}
	return &item, nil
}

func (r *inventoryRepository) SetQuantity(ctx context.Context, productID int64, qty decimal.Decimal) error {
	res, err := r.exec.ExecContext(ctx,
		`UPDATE inventory_items SET quantity = $2, updated_at = $3 WHERE product_id = $1`, productID, qty, time.Now())
	return checkAffected("setting inventory quantity", res, err)
}

func (r *inventoryRepository) List(ctx context.Context) ([]models.StockLevel, error) {
	rows, err := r.exec.QueryContext(ctx,
		`SELECT p.id, p.name, p.unit, ii.quantity, p.min_stock, p.cost
		   FROM inventory_items ii
		   JOIN products p ON p.id = ii.product_id
		  ORDER BY p.id`)
	if err != nil {
		return nil, dbError("listing stock levels", err)
	}
	defer rows.Close()

	levels := []models.StockLevel{}
	for rows.Next() {
		var l models.StockLevel
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Unit, &l.Quantity, &l.MinStock, &l.Cost); err != nil {
			return nil, dbError("scanning stock level", err)
		}
		levels = append(levels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterating stock levels", err)
	}
	return levels, nil
}
