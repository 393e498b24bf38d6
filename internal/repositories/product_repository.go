package repositories

import (
	"context"
	"time"

	"pos_backoffice/internal/models"

	"github.com/shopspring/decimal"
)

type productRepository struct {
	exec SQLExecutor
}

const productColumns = `id, name, type, unit, price, cost, min_stock, created_at, updated_at`

func scanProduct(row scanner) (*models.Product, error) {
	var p models.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Type, &p.Unit, &p.Price, &p.Cost, &p.MinStock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, p *models.Product) error {
	now := time.Now()
	err := r.exec.QueryRowContext(ctx,
		`INSERT INTO products (name, type, unit, price, cost, min_stock, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 RETURNING id`,
		p.Name, p.Type, p.Unit, p.Price, p.Cost, p.MinStock, now,
	).Scan(&p.ID)
	if err != nil {
		return dbError("creating product", err)
	}
	p.CreatedAt, p.UpdatedAt = now, now
	if len(p.Components) > 0 {
		return r.SetComponents(ctx, p.ID, p.Components)
	}
	return nil
}

func (r *productRepository) Update(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now()
	res, err := r.exec.ExecContext(ctx,
		`UPDATE products SET name = $2, unit = $3, price = $4, min_stock = $5, updated_at = $6 WHERE id = $1`,
		p.ID, p.Name, p.Unit, p.Price, p.MinStock, p.UpdatedAt,
	)
	return checkAffected("updating product", res, err)
}

func (r *productRepository) UpdateCost(ctx context.Context, productID int64, cost decimal.Decimal) error {
	res, err := r.exec.ExecContext(ctx,
		`UPDATE products SET cost = $2, updated_at = $3 WHERE id = $1`, productID, cost, time.Now())
	return checkAffected("updating product cost", res, err)
}

func (r *productRepository) SetComponents(ctx context.Context, productID int64, edges []models.ComponentEdge) error {
	if _, err := r.exec.ExecContext(ctx, `DELETE FROM product_components WHERE product_id = $1`, productID); err != nil {
		return dbError("clearing product components", err)
	}
	for _, e := range edges {
		_, err := r.exec.ExecContext(ctx,
			`INSERT INTO product_components (product_id, component_id, quantity_per_unit) VALUES ($1, $2, $3)`,
			productID, e.ComponentID, e.QuantityPerUnit)
		if err != nil {
			return dbError("inserting product component", err)
		}
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, productID int64) (*models.Product, error) {
	p, err := scanProduct(r.exec.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, productID))
	if err != nil {
		return nil, dbError("getting product", err)
	}
	edges, err := r.components(ctx, `WHERE product_id = $1`, productID)
	if err != nil {
		return nil, err
	}
	p.Components = edges[productID]
	return p, nil
}

func (r *productRepository) List(ctx context.Context) ([]models.Product, error) {
	rows, err := r.exec.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, dbError("listing products", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, dbError("scanning product", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterating products", err)
	}

	edges, err := r.components(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Components = edges[products[i].ID]
	}
	return products, nil
}

func (r *productRepository) components(ctx context.Context, where string, args ...interface{}) (map[int64][]models.ComponentEdge, error) {
	rows, err := r.exec.QueryContext(ctx,
		`SELECT product_id, component_id, quantity_per_unit FROM product_components `+where+` ORDER BY product_id, component_id`, args...)
	if err != nil {
		return nil, dbError("listing product components", err)
	}
	defer rows.Close()

	edges := make(map[int64][]models.ComponentEdge)
	for rows.Next() {
		var productID int64
		var e models.ComponentEdge
		if err := rows.Scan(&productID, &e.ComponentID, &e.QuantityPerUnit); err != nil {
			return nil, dbError("scanning product component", err)
		}
		edges[productID] = append(edges[productID], e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterating product components", err)
	}
	return edges, nil
}
