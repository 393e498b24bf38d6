package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"pos_backoffice/internal/models"
)

type inventoryMovementRepository struct {
	exec SQLExecutor
}

func (r *inventoryMovementRepository) Create(ctx context.Context, m *models.InventoryMovement) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	err := r.exec.QueryRowContext(ctx,
		`INSERT INTO inventory_movements
		 (product_id, movement_type, quantity_changed, quantity_after, reference_id, user_id, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		m.ProductID, m.MovementType, m.QuantityChanged, m.QuantityAfter, m.ReferenceID, m.UserID, m.Reason, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return dbError("creating inventory movement", err)
	}
	return nil
}

func (r *inventoryMovementRepository) List(ctx context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, product_id, movement_type, quantity_changed, quantity_after,
	       reference_id, user_id, reason, created_at, COUNT(*) OVER() AS total_count
	  FROM inventory_movements`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.ProductID != nil {
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", argCount))
		args = append(args, *filters.ProductID)
		argCount++
	}
	if filters.MovementType != nil && *filters.MovementType != "" {
		conditions = append(conditions, fmt.Sprintf("movement_type = $%d", argCount))
		args = append(args, *filters.MovementType)
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
		return nil, 0, dbError("listing inventory movements", err)
	}
	defer rows.Close()

	movements := []models.InventoryMovement{}
	totalCount := 0
	for rows.Next() {
		var m models.InventoryMovement
		var referenceID, userID sql.NullInt64
		var reason sql.NullString
		if err := rows.Scan(&m.ID, &m.ProductID, &m.MovementType, &m.QuantityChanged, &m.QuantityAfter,
			&referenceID, &userID, &reason, &m.CreatedAt, &totalCount); err != nil {
			return nil, 0, dbError("scanning inventory movement", err)
		}
		m.ReferenceID = nullInt64Ptr(referenceID)
		m.UserID = nullInt64Ptr(userID)
		m.Reason = nullStringPtr(reason)
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dbError("iterating inventory movements", err)
	}
	return movements, totalCount, nil
}
