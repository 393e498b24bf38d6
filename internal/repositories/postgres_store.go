package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pos_backoffice/pkg/utils"

	"github.com/shopspring/decimal"
)

// PostgresStore runs units of work as database/sql transactions on lib/pq.
type PostgresStore struct {
	db         *sql.DB
	maxRetries int
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sql.DB, maxRetries int) *PostgresStore {
	return &PostgresStore{db: db, maxRetries: maxRetries}
}

// WithinTx runs fn in a READ COMMITTED transaction. Row locks taken through
// the GetForUpdate methods and advisory locks through Locks provide the
// serialization the services rely on. Serialization failures, deadlocks and
// lock timeouts are retried up to maxRetries times.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(r *Repos) error) error {
	for attempt := 0; ; attempt++ {
		err := s.runTx(ctx, fn)
		if err == nil || !IsRetryable(err) || attempt >= s.maxRetries {
			return err
		}
		utils.LogWarn("Retrying transaction after conflict", map[string]interface{}{"attempt": attempt + 1, "error": err.Error()})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 25 * time.Millisecond):
		}
	}
}

func (s *PostgresStore) runTx(ctx context.Context, fn func(r *Repos) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if err := fn(newPostgresRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return dbError("commit transaction", err)
	}
	return nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func newPostgresRepos(exec SQLExecutor) *Repos {
	return &Repos{
		Products:  &productRepository{exec: exec},
		Inventory: &inventoryRepository{exec: exec},
		Movements: &inventoryMovementRepository{exec: exec},
		Orders:    &orderRepository{exec: exec},
		Payments:  &paymentRepository{exec: exec},
		Shifts:    &shiftRepository{exec: exec},
		Expenses:  &expenseRepository{exec: exec},
		Days:      &dayRepository{exec: exec},
		Documents: &documentRepository{exec: exec},
		Customers: &customerRepository{exec: exec},
		Tables:    &tableRepository{exec: exec},
		Users:     &userRepository{exec: exec},
		Settings:  &settingRepository{exec: exec},
		Locks:     &advisoryLocker{exec: exec},
	}
}

type advisoryLocker struct {
	exec SQLExecutor
}

// Lock takes a transaction-scoped advisory lock keyed by hashtext(name).
func (l *advisoryLocker) Lock(ctx context.Context, name string, shared bool) error {
	query := `SELECT pg_advisory_xact_lock(hashtext($1))`
	if shared {
		query = `SELECT pg_advisory_xact_lock_shared(hashtext($1))`
	}
	if _, err := l.exec.ExecContext(ctx, query, name); err != nil {
		return dbError("advisory lock "+name, err)
	}
	return nil
}

func nullDecimalPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

func nullTimePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func nullInt64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullStringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

func pageBounds(page, pageSize int) (limit, offset int) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}
