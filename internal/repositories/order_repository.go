package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"pos_backoffice/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type orderRepository struct {
	exec SQLExecutor
}

const orderColumns = `id, shift_id, type, status, payment_status, customer_id, table_id,
	sub_total, tax, service, discount_percent, discount, total, profit,
	external_ref, web_sub_total, web_total, web_pos_diff, notes, cancel_reason,
	created_by, created_at, updated_at, completed_at`

func scanOrder(row scanner, extra ...interface{}) (*models.Order, error) {
	var o models.Order
	var customerID, tableID, createdBy sql.NullInt64
	var externalRef, notes, cancelReason sql.NullString
	var webSubTotal, webTotal, webPosDiff decimal.NullDecimal
	var completedAt sql.NullTime

	dest := []interface{}{
		&o.ID, &o.ShiftID, &o.Type, &o.Status, &o.PaymentStatus, &customerID, &tableID,
		&o.SubTotal, &o.Tax, &o.Service, &o.DiscountPercent, &o.Discount, &o.Total, &o.Profit,
		&externalRef, &webSubTotal, &webTotal, &webPosDiff, &notes, &cancelReason,
		&createdBy, &o.CreatedAt, &o.UpdatedAt, &completedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	o.CustomerID = nullInt64Ptr(customerID)
	o.TableID = nullInt64Ptr(tableID)
	o.CreatedBy = nullInt64Ptr(createdBy)
	o.ExternalRef = nullStringPtr(externalRef)
	o.Notes = nullStringPtr(notes)
	o.CancelReason = nullStringPtr(cancelReason)
	o.WebSubTotal = nullDecimalPtr(webSubTotal)
	o.WebTotal = nullDecimalPtr(webTotal)
	o.WebPosDiff = nullDecimalPtr(webPosDiff)
	o.CompletedAt = nullTimePtr(completedAt)
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, o *models.Order) error {
	now := time.Now()
	o.CreatedAt, o.UpdatedAt = now, now
	err := r.exec.QueryRowContext(ctx,
		`INSERT INTO orders (shift_id, type, status, payment_status, customer_id, table_id,
		   sub_total, tax, service, discount_percent, discount, total, profit,
		   external_ref, web_sub_total, web_total, web_pos_diff, notes, cancel_reason,
		   created_by, created_at, updated_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $21, $22)
		 RETURNING id`,
		o.ShiftID, o.Type, o.Status, o.PaymentStatus, o.CustomerID, o.TableID,
		o.SubTotal, o.Tax, o.Service, o.DiscountPercent, o.Discount, o.Total, o.Profit,
		o.ExternalRef, o.WebSubTotal, o.WebTotal, o.WebPosDiff, o.Notes, o.CancelReason,
		o.CreatedBy, now, o.CompletedAt,
	).Scan(&o.ID)
	if err != nil {
		return dbError("creating order", err)
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, orderID int64) (*models.Order, error) {
	o, err := scanOrder(r.exec.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		return nil, dbError("getting order", err)
	}
	return o, nil
}

func (r *orderRepository) GetForUpdate(ctx context.Context, orderID int64) (*models.Order, error) {
	o, err := scanOrder(r.exec.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID))
	if err != nil {
		return nil, dbError("locking order", err)
	}
	return o, nil
}

func (r *orderRepository) GetByExternalRef(ctx context.Context, ref string) (*models.Order, error) {
	o, err := scanOrder(r.exec.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE external_ref = $1`, ref))
	if err != nil {
		return nil, dbError("getting order by external reference", err)
	}
	return o, nil
}

func (r *orderRepository) Update(ctx context.Context, o *models.Order) error {
	o.UpdatedAt = time.Now()
	res, err := r.exec.ExecContext(ctx,
		`UPDATE orders SET shift_id = $2, status = $3, payment_status = $4, customer_id = $5, table_id = $6,
		   sub_total = $7, tax = $8, service = $9, discount_percent = $10, discount = $11, total = $12, profit = $13,
		   web_sub_total = $14, web_total = $15, web_pos_diff = $16, notes = $17, cancel_reason = $18,
		   updated_at = $19, completed_at = $20
		 WHERE id = $1`,
		o.ID, o.ShiftID, o.Status, o.PaymentStatus, o.CustomerID, o.TableID,
		o.SubTotal, o.Tax, o.Service, o.DiscountPercent, o.Discount, o.Total, o.Profit,
		o.WebSubTotal, o.WebTotal, o.WebPosDiff, o.Notes, o.CancelReason,
		o.UpdatedAt, o.CompletedAt,
	)
	return checkAffected("updating order", res, err)
}

func (r *orderRepository) List(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + `, COUNT(*) OVER() AS total_count FROM orders`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.ShiftID != nil {
		conditions = append(conditions, fmt.Sprintf("shift_id = $%d", argCount))
		args = append(args, *filters.ShiftID)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.Type != nil && *filters.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argCount))
		args = append(args, *filters.Type)
		argCount++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	limit, offset := pageBounds(filters.Page, filters.PageSize)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, limit, offset)

	rows, err := r.exec.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dbError("listing orders", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	totalCount := 0
	for rows.Next() {
		o, err := scanOrder(rows, &totalCount)
		if err != nil {
			return nil, 0, dbError("scanning order", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dbError("iterating orders", err)
	}
	return orders, totalCount, nil
}

func (r *orderRepository) queryOrders(ctx context.Context, op, where string, args ...interface{}) ([]models.Order, error) {
	rows, err := r.exec.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, dbError(op, err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, dbError(op, err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(op, err)
	}
	return orders, nil
}

func (r *orderRepository) ListByShifts(ctx context.Context, shiftIDs []int64) ([]models.Order, error) {
	return r.queryOrders(ctx, "listing orders by shifts", `shift_id = ANY($1)`, pq.Array(shiftIDs))
}

func (r *orderRepository) ListNonTerminal(ctx context.Context, shiftID int64) ([]models.Order, error) {
	return r.queryOrders(ctx, "listing unfinished orders", `shift_id = $1 AND status IN ($2, $3, $4)`,
		shiftID, models.OrderStatusPending, models.OrderStatusProcessing, models.OrderStatusOutForDelivery)
}

func (r *orderRepository) MoveToShift(ctx context.Context, orderIDs []int64, shiftID int64) error {
	if len(orderIDs) == 0 {
		return nil
	}
	_, err := r.exec.ExecContext(ctx,
		`UPDATE orders SET shift_id = $1, updated_at = $2 WHERE id = ANY($3)`, shiftID, time.Now(), pq.Array(orderIDs))
	if err != nil {
		return dbError("moving orders to shift", err)
	}
	return nil
}

func (r *orderRepository) CreateItem(ctx context.Context, item *models.OrderItem) error {
	item.CreatedAt = time.Now()
	err := r.exec.QueryRowContext(ctx,
		`INSERT INTO order_items (order_id, product_id, name, quantity, unit_price, unit_cost, line_total, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		item.OrderID, item.ProductID, item.Name, item.Quantity, item.UnitPrice, item.UnitCost, item.LineTotal, item.Notes, item.CreatedAt,
	).Scan(&item.ID)
	if err != nil {
		return dbError("creating order item", err)
	}
	return nil
}

func (r *orderRepository) UpdateItem(ctx context.Context, item *models.OrderItem) error {
	res, err := r.exec.ExecContext(ctx,
		`UPDATE order_items SET quantity = $3, line_total = $4, notes = $5 WHERE id = $1 AND order_id = $2`,
		item.ID, item.OrderID, item.Quantity, item.LineTotal, item.Notes)
	return checkAffected("updating order item", res, err)
}

func (r *orderRepository) DeleteItem(ctx context.Context, orderID, itemID int64) error {
	res, err := r.exec.ExecContext(ctx, `DELETE FROM order_items WHERE id = $1 AND order_id = $2`, itemID, orderID)
	return checkAffected("deleting order item", res, err)
}

func (r *orderRepository) ListItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := r.exec.QueryContext(ctx,
		`SELECT id, order_id, product_id, name, quantity, unit_price, unit_cost, line_total, notes, created_at
		   FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, dbError("listing order items", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		var notes sql.NullString
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Quantity,
			&item.UnitPrice, &item.UnitCost, &item.LineTotal, &notes, &item.CreatedAt); err != nil {
			return nil, dbError("scanning order item", err)
		}
		item.Notes = nullStringPtr(notes)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterating order items", err)
	}
	return items, nil
}
