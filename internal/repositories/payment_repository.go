package repositories

import (
	"context"
	"time"

	"pos_backoffice/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type paymentRepository struct {
	exec SQLExecutor
}

func (r *paymentRepository) Create(ctx context.Context, p *models.Payment) error {
	p.CreatedAt = time.Now()
	err := r.exec.QueryRowContext(ctx,
		`INSERT INTO payments (order_id, shift_id, method, amount, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		p.OrderID, p.ShiftID, p.Method, p.Amount, p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return dbError("creating payment", err)
	}
	return nil
}

func (r *paymentRepository) list(ctx context.Context, op, where string, arg interface{}) ([]models.Payment, error) {
	rows, err := r.exec.QueryContext(ctx,
		`SELECT id, order_id, shift_id, method, amount, created_at FROM payments WHERE `+where+` ORDER BY id`, arg)
	if err != nil {
		return nil, dbError(op, err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.ShiftID, &p.Method, &p.Amount, &p.CreatedAt); err != nil {
			return nil, dbError(op, err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(op, err)
	}
	return payments, nil
}

func (r *paymentRepository) ListByOrder(ctx context.Context, orderID int64) ([]models.Payment, error) {
	return r.list(ctx, "listing order payments", `order_id = $1`, orderID)
}

func (r *paymentRepository) ListByShifts(ctx context.Context, shiftIDs []int64) ([]models.Payment, error) {
	return r.list(ctx, "listing shift payments", `shift_id = ANY($1)`, pq.Array(shiftIDs))
}

func (r *paymentRepository) DeleteByOrder(ctx context.Context, orderID int64) (int64, error) {
	res, err := r.exec.ExecContext(ctx, `DELETE FROM payments WHERE order_id = $1`, orderID)
	if err != nil {
		return 0, dbError("deleting order payments", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbError("deleting order payments", err)
	}
	return n, nil
}

func (r *paymentRepository) CashForCompletedOrders(ctx context.Context, shiftID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.exec.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(p.amount), 0)
		   FROM payments p
		   JOIN orders o ON o.id = p.order_id
		  WHERE p.shift_id = $1 AND p.method = $2 AND o.status = $3`,
		shiftID, models.PaymentCash, models.OrderStatusCompleted,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, dbError("summing shift cash", err)
	}
	return total, nil
}
