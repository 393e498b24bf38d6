package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pos_backoffice/internal/models"

	"github.com/shopspring/decimal"
)

type shiftRepository struct {
	exec SQLExecutor
}

const shiftColumns = `id, cashier_id, start_at, end_at, start_cash, end_cash, real_cash,
	deficit, losses_amount, has_deficit, closed, created_at, updated_at`

func scanShift(row scanner, extra ...interface{}) (*models.Shift, error) {
	var s models.Shift
	var cashierID sql.NullInt64
	var endAt sql.NullTime
	var endCash, realCash decimal.NullDecimal
	dest := []interface{}{&s.ID, &cashierID, &s.StartAt, &endAt, &s.StartCash, &endCash, &realCash,
		&s.Deficit, &s.LossesAmount, &s.HasDeficit, &s.Closed, &s.CreatedAt, &s.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	s.CashierID = nullInt64Ptr(cashierID)
	s.EndAt = nullTimePtr(endAt)
	s.EndCash = nullDecimalPtr(endCash)
	s.RealCash = nullDecimalPtr(realCash)
	return &s, nil
}

func (r *shiftRepository) Create(ctx context.Context, s *models.Shift) error {
	now := time.Now()
	s.CreatedAt, s.UpdatedAt = now, now
	err := r.exec.QueryRowContext(ctx,
		`INSERT INTO shifts (cashier_id, start_at, start_cash, deficit, losses_amount, has_deficit, closed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 RETURNING id`,
		s.CashierID, s.StartAt, s.StartCash, s.Deficit, s.LossesAmount, s.HasDeficit, s.Closed, now,
	).Scan(&s.ID)
	if err != nil {
		return dbError("creating shift", err)
	}
	return nil
}

func (r *shiftRepository) GetByID(ctx context.Context, shiftID int64) (*models.Shift, error) {
	s, err := scanShift(r.exec.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, shiftID))
	if err != nil {
		return nil, dbError("getting shift", err)
	}
	return s, nil
}

func (r *shiftRepository) GetForUpdate(ctx context.Context, shiftID int64) (*models.Shift, error) {
	s, err := scanShift(r.exec.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1 FOR UPDATE`, shiftID))
	if err != nil {
		return nil, dbError("locking shift", err)
	}
	return s, nil
}

func (r *shiftRepository) GetOpen(ctx context.Context) (*models.Shift, error) {
	s, err := scanShift(r.exec.QueryRowContext(ctx,
		`SELECT `+shiftColumns+` FROM shifts WHERE closed = false ORDER BY id DESC LIMIT 1`))
	if err != nil {
		return nil, dbError("getting open shift", err)
	}
	return s, nil
}

func (r *shiftRepository) LastClosed(ctx context.Context) (*models.Shift, error) {
	s, err := scanShift(r.exec.QueryRowContext(ctx,
		`SELECT `+shiftColumns+` FROM shifts WHERE closed = true ORDER BY end_at DESC, id DESC LIMIT 1`))
	if err != nil {
		return nil, dbError("getting last closed shift", err)
	}
	return s, nil
}

func (r *shiftRepository) Update(ctx context.Context, s *models.Shift) error {
	s.UpdatedAt = time.Now()
	res, err := r.exec.ExecContext(ctx,
		`UPDATE shifts SET end_at = $2, end_cash = $3, real_cash = $4, deficit = $5, losses_amount = $6,
		   has_deficit = $7, closed = $8, updated_at = $9
		 WHERE id = $1`,
		s.ID, s.EndAt, s.EndCash, s.RealCash, s.Deficit, s.LossesAmount, s.HasDeficit, s.Closed, s.UpdatedAt,
	)
	return checkAffected("updating shift", res, err)
}

func (r *shiftRepository) List(ctx context.Context, filters models.ShiftFilters) ([]models.Shift, int, error) {
	query := `SELECT ` + shiftColumns + `, COUNT(*) OVER() AS total_count FROM shifts`
	var args []interface{}
	argCount := 1
	if filters.Closed != nil {
		query += fmt.Sprintf(" WHERE closed = $%d", argCount)
		args = append(args, *filters.Closed)
		argCount++
	}
	limit, offset := pageBounds(filters.Page, filters.PageSize)
	query += fmt.Sprintf(" ORDER BY start_at DESC, id DESC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, limit, offset)

	rows, err := r.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, dbError("listing shifts", err)
	}
	defer rows.Close()

	shifts := []models.Shift{}
	totalCount := 0
	for rows.Next() {
		s, err := scanShift(rows, &totalCount)
		if err != nil {
			return nil, 0, dbError("scanning shift", err)
		}
		shifts = append(shifts, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dbError("iterating shifts", err)
	}
	return shifts, totalCount, nil
}

func (r *shiftRepository) CountOpen(ctx context.Context) (int, error) {
	var n int
	if err := r.exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM shifts WHERE closed = false`).Scan(&n); err != nil {
		return 0, dbError("counting open shifts", err)
	}
	return n, nil
}
