package repositories

import (
	"context"
	"database/sql"
	"time"

	"pos_backoffice/internal/models"
)

type tableRepository struct {
	exec SQLExecutor
}

func scanTable(row scanner) (*models.DiningTable, error) {
	var t models.DiningTable
	var reservedBy sql.NullInt64
	if err := row.Scan(&t.ID, &t.Name, &reservedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.ReservedByOrderID = nullInt64Ptr(reservedBy)
	return &t, nil
}

func (r *tableRepository) Create(ctx context.Context, t *models.DiningTable) error {
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	err := r.exec.QueryRowContext(ctx,
		`INSERT INTO dining_tables (name, created_at, updated_at) VALUES ($1, $2, $2) RETURNING id`, t.Name, now,
	).Scan(&t.ID)
	if err != nil {
		return dbError("creating table", err)
	}
	return nil
}

func (r *tableRepository) GetByID(ctx context.Context, tableID int64) (*models.DiningTable, error) {
	t, err := scanTable(r.exec.QueryRowContext(ctx,
		`SELECT id, name, reserved_by_order_id, created_at, updated_at FROM dining_tables WHERE id = $1`, tableID))
	if err != nil {
		return nil, dbError("getting table", err)
	}
	return t, nil
}

func (r *tableRepository) GetForUpdate(ctx context.Context, tableID int64) (*models.DiningTable, error) {
	t, err := scanTable(r.exec.QueryRowContext(ctx,
		`SELECT id, name, reserved_by_order_id, created_at, updated_at FROM dining_tables WHERE id = $1 FOR UPDATE`, tableID))
	if err != nil {
		return nil, dbError("locking table", err)
	}
	return t, nil
}

func (r *tableRepository) SetReservation(ctx context.Context, tableID int64, orderID *int64) error {
	res, err := r.exec.ExecContext(ctx,
		`UPDATE dining_tables SET reserved_by_order_id = $2, updated_at = $3 WHERE id = $1`, tableID, orderID, time.Now())
	return checkAffected("reserving table", res, err)
}

func (r *tableRepository) List(ctx context.Context) ([]models.DiningTable, error) {
	rows, err := r.exec.QueryContext(ctx,
		`SELECT id, name, reserved_by_order_id, created_at, updated_at FROM dining_tables ORDER BY name, id`)
	if err != nil {
		return nil, dbError("listing tables", err)
	}
	defer rows.Close()

	tables := []models.DiningTable{}
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, dbError("scanning table", err)
		}
		tables = append(tables, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterating tables", err)
	}
	return tables, nil
}
