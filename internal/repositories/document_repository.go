package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"pos_backoffice/internal/models"

	"github.com/shopspring/decimal"
)

type documentRepository struct {
	exec SQLExecutor
}

const documentColumns = `id, kind, supplier, notes, total, closed, closed_at, created_by, created_at, updated_at`

func scanDocument(row scanner) (*models.StockDocument, error) {
	var d models.StockDocument
	var supplier, notes sql.NullString
	var closedAt sql.NullTime
	var createdBy sql.NullInt64
	if err := row.Scan(&d.ID, &d.Kind, &supplier, &notes, &d.Total, &d.Closed, &closedAt,
		&createdBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Supplier = nullStringPtr(supplier)
	d.Notes = nullStringPtr(notes)
	d.ClosedAt = nullTimePtr(closedAt)
	d.CreatedBy = nullInt64Ptr(createdBy)
	return &d, nil
}

func (r *documentRepository) Create(ctx context.Context, d *models.StockDocument) error {
	now := time.Now()
	d.CreatedAt, d.UpdatedAt = now, now
	err := r.exec.QueryRowContext(ctx,
		`INSERT INTO stock_documents (kind, supplier, notes, total, closed, closed_at, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 RETURNING id`,
		d.Kind, d.Supplier, d.Notes, d.Total, d.Closed, d.ClosedAt, d.CreatedBy, now,
	).Scan(&d.ID)
	if err != nil {
		return dbError("creating stock document", err)
	}
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, docID int64) (*models.StockDocument, error) {
	d, err := scanDocument(r.exec.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM stock_documents WHERE id = $1`, docID))
	if err != nil {
		return nil, dbError("getting stock document", err)
	}
	return d, nil
}

func (r *documentRepository) GetForUpdate(ctx context.Context, docID int64) (*models.StockDocument, error) {
	d, err := scanDocument(r.exec.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM stock_documents WHERE id = $1 FOR UPDATE`, docID))
	if err != nil {
		return nil, dbError("locking stock document", err)
	}
	return d, nil
}

func (r *documentRepository) Update(ctx context.Context, d *models.StockDocument) error {
	d.UpdatedAt = time.Now()
	res, err := r.exec.ExecContext(ctx,
		`UPDATE stock_documents SET supplier = $2, notes = $3, total = $4, closed = $5, closed_at = $6, updated_at = $7
		 WHERE id = $1`,
		d.ID, d.Supplier, d.Notes, d.Total, d.Closed, d.ClosedAt, d.UpdatedAt)
	return checkAffected("updating stock document", res, err)
}

func (r *documentRepository) List(ctx context.Context, kind *models.DocumentKind, closed *bool) ([]models.StockDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM stock_documents`
	var conditions []string
	var args []interface{}
	if kind != nil {
		args = append(args, *kind)
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if closed != nil {
		args = append(args, *closed)
		conditions = append(conditions, fmt.Sprintf("closed = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("listing stock documents", err)
	}
	defer rows.Close()

	docs := []models.StockDocument{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, dbError("scanning stock document", err)
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterating stock documents", err)
	}
	return docs, nil
}

func (r *documentRepository) CountOpen(ctx context.Context) (map[models.DocumentKind]int, error) {
	rows, err := r.exec.QueryContext(ctx, `SELECT kind, COUNT(*) FROM stock_documents WHERE closed = false GROUP BY kind`)
	if err != nil {
		return nil, dbError("counting open stock documents", err)
	}
	defer rows.Close()

	counts := make(map[models.DocumentKind]int)
	for rows.Next() {
		var kind models.DocumentKind
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, dbError("scanning open document count", err)
		}
		counts[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterating open document counts", err)
	}
	return counts, nil
}

func (r *documentRepository) CreateItem(ctx context.Context, item *models.DocumentItem) error {
	item.CreatedAt = time.Now()
	err := r.exec.QueryRowContext(ctx,
		`INSERT INTO stock_document_items (document_id, product_id, quantity, unit_cost, total, system_quantity, delta, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		item.DocumentID, item.ProductID, item.Quantity, item.UnitCost, item.Total, item.SystemQuantity, item.Delta, item.CreatedAt,
	).Scan(&item.ID)
	if err != nil {
		return dbError("creating stock document item", err)
	}
	return nil
}

func (r *documentRepository) UpdateItem(ctx context.Context, item *models.DocumentItem) error {
	res, err := r.exec.ExecContext(ctx,
		`UPDATE stock_document_items SET quantity = $3, unit_cost = $4, total = $5, system_quantity = $6, delta = $7
		 WHERE id = $1 AND document_id = $2`,
		item.ID, item.DocumentID, item.Quantity, item.UnitCost, item.Total, item.SystemQuantity, item.Delta)
	return checkAffected("updating stock document item", res, err)
}

func (r *documentRepository) ListItems(ctx context.Context, docID int64) ([]models.DocumentItem, error) {
	rows, err := r.exec.QueryContext(ctx,
		`SELECT id, document_id, product_id, quantity, unit_cost, total, system_quantity, delta, created_at
		   FROM stock_document_items WHERE document_id = $1 ORDER BY id`, docID)
	if err != nil {
		return nil, dbError("listing stock document items", err)
	}
	defer rows.Close()

	items := []models.DocumentItem{}
	for rows.Next() {
		var item models.DocumentItem
		var systemQty, delta decimal.NullDecimal
		if err := rows.Scan(&item.ID, &item.DocumentID, &item.ProductID, &item.Quantity, &item.UnitCost,
			&item.Total, &systemQty, &delta, &item.CreatedAt); err != nil {
			return nil, dbError("scanning stock document item", err)
		}
		item.SystemQuantity = nullDecimalPtr(systemQty)
		item.Delta = nullDecimalPtr(delta)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterating stock document items", err)
	}
	return items, nil
}
