package repositories

import (
	"context"
	"database/sql"
	"time"

	"pos_backoffice/internal/models"
)

type customerRepository struct {
	exec SQLExecutor
}

const customerColumns = `id, name, phone, address, delivery_cost, created_at, updated_at`

func scanCustomer(row scanner) (*models.Customer, error) {
	var c models.Customer
	var phone, address sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &phone, &address, &c.DeliveryCost, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Phone = nullStringPtr(phone)
	c.Address = nullStringPtr(address)
	return &c, nil
}

func (r *customerRepository) Create(ctx context.Context, c *models.Customer) error {
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	err := r.exec.QueryRowContext(ctx,
		`INSERT INTO customers (name, phone, address, delivery_cost, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`,
		c.Name, c.Phone, c.Address, c.DeliveryCost, now,
	).Scan(&c.ID)
	if err != nil {
		return dbError("creating customer", err)
	}
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, customerID int64) (*models.Customer, error) {
	c, err := scanCustomer(r.exec.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, customerID))
	if err != nil {
		return nil, dbError("getting customer", err)
	}
	return c, nil
}

func (r *customerRepository) FindByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	c, err := scanCustomer(r.exec.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE phone = $1`, phone))
	if err != nil {
		return nil, dbError("finding customer by phone", err)
	}
	return c, nil
}

func (r *customerRepository) Update(ctx context.Context, c *models.Customer) error {
	c.UpdatedAt = time.Now()
	res, err := r.exec.ExecContext(ctx,
		`UPDATE customers SET name = $2, phone = $3, address = $4, delivery_cost = $5, updated_at = $6 WHERE id = $1`,
		c.ID, c.Name, c.Phone, c.Address, c.DeliveryCost, c.UpdatedAt)
	return checkAffected("updating customer", res, err)
}

func (r *customerRepository) List(ctx context.Context) ([]models.Customer, error) {
	rows, err := r.exec.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY name, id`)
	if err != nil {
		return nil, dbError("listing customers", err)
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, dbError("scanning customer", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterating customers", err)
	}
	return customers, nil
}
