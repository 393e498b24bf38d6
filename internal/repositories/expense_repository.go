package repositories

import (
	"context"
	"database/sql"
	"time"

	"pos_backoffice/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type expenseRepository struct {
	exec SQLExecutor
}

func (r *expenseRepository) CreateType(ctx context.Context, t *models.ExpenseType) error {
	t.CreatedAt = time.Now()
	err := r.exec.QueryRowContext(ctx,
		`INSERT INTO expense_types (name, created_at) VALUES ($1, $2) RETURNING id`, t.Name, t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return dbError("creating expense type", err)
	}
	return nil
}

func (r *expenseRepository) GetType(ctx context.Context, typeID int64) (*models.ExpenseType, error) {
	var t models.ExpenseType
	err := r.exec.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM expense_types WHERE id = $1`, typeID,
	).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		return nil, dbError("getting expense type", err)
	}
	return &t, nil
}

func (r *expenseRepository) ListTypes(ctx context.Context) ([]models.ExpenseType, error) {
	rows, err := r.exec.QueryContext(ctx, `SELECT id, name, created_at FROM expense_types ORDER BY name`)
	if err != nil {
		return nil, dbError("listing expense types", err)
	}
	defer rows.Close()

	types := []models.ExpenseType{}
	for rows.Next() {
		var t models.ExpenseType
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, dbError("scanning expense type", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterating expense types", err)
	}
	return types, nil
}

func (r *expenseRepository) Create(ctx context.Context, e *models.Expense) error {
	e.CreatedAt = time.Now()
	err := r.exec.QueryRowContext(ctx,
		`INSERT INTO expenses (shift_id, expense_type_id, amount, notes, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		e.ShiftID, e.ExpenseTypeID, e.Amount, e.Notes, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return dbError("creating expense", err)
	}
	return nil
}

func (r *expenseRepository) ListByShifts(ctx context.Context, shiftIDs []int64) ([]models.Expense, error) {
	rows, err := r.exec.QueryContext(ctx,
		`SELECT id, shift_id, expense_type_id, amount, notes, created_at
		   FROM expenses WHERE shift_id = ANY($1) ORDER BY id`, pq.Array(shiftIDs))
	if err != nil {
		return nil, dbError("listing expenses", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		var e models.Expense
		var notes sql.NullString
		if err := rows.Scan(&e.ID, &e.ShiftID, &e.ExpenseTypeID, &e.Amount, &notes, &e.CreatedAt); err != nil {
			return nil, dbError("scanning expense", err)
		}
		e.Notes = nullStringPtr(notes)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterating expenses", err)
	}
	return expenses, nil
}

func (r *expenseRepository) TotalForShift(ctx context.Context, shiftID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.exec.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE shift_id = $1`, shiftID).Scan(&total)
	if err != nil {
		return decimal.Zero, dbError("summing shift expenses", err)
	}
	return total, nil
}
