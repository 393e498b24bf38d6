package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"pos_backoffice/internal/models"
)

type dayRepository struct {
	exec SQLExecutor
}

const dayColumns = `id, opened_at, closed_at, closed, entries`

func scanDay(row scanner) (*models.DailySnapshot, error) {
	var d models.DailySnapshot
	var closedAt sql.NullTime
	var entries []byte
	if err := row.Scan(&d.ID, &d.OpenedAt, &closedAt, &d.Closed, &entries); err != nil {
		return nil, err
	}
	d.ClosedAt = nullTimePtr(closedAt)
	d.Entries = []models.SnapshotEntry{}
	if len(entries) > 0 {
		if err := json.Unmarshal(entries, &d.Entries); err != nil {
			return nil, fmt.Errorf("decoding snapshot entries: %w", err)
		}
	}
	return &d, nil
}

func encodeEntries(entries []models.SnapshotEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.SnapshotEntry{}
	}
	return json.Marshal(entries)
}

func (r *dayRepository) Create(ctx context.Context, d *models.DailySnapshot) error {
	entries, err := encodeEntries(d.Entries)
	if err != nil {
		return fmt.Errorf("%w: encoding snapshot entries: %v", ErrDatabaseError, err)
	}
	err = r.exec.QueryRowContext(ctx,
		`INSERT INTO daily_snapshots (opened_at, closed_at, closed, entries) VALUES ($1, $2, $3, $4) RETURNING id`,
		d.OpenedAt, d.ClosedAt, d.Closed, string(entries),
	).Scan(&d.ID)
	if err != nil {
		return dbError("creating daily snapshot", err)
	}
	return nil
}

func (r *dayRepository) get(ctx context.Context, op, query string, args ...interface{}) (*models.DailySnapshot, error) {
	d, err := scanDay(r.exec.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, dbError(op, err)
	}
	return d, nil
}

func (r *dayRepository) GetByID(ctx context.Context, dayID int64) (*models.DailySnapshot, error) {
	return r.get(ctx, "getting daily snapshot", `SELECT `+dayColumns+` FROM daily_snapshots WHERE id = $1`, dayID)
}

func (r *dayRepository) GetOpen(ctx context.Context) (*models.DailySnapshot, error) {
	return r.get(ctx, "getting open day",
		`SELECT `+dayColumns+` FROM daily_snapshots WHERE closed = false ORDER BY id DESC LIMIT 1`)
}

func (r *dayRepository) Latest(ctx context.Context) (*models.DailySnapshot, error) {
	return r.get(ctx, "getting latest day", `SELECT `+dayColumns+` FROM daily_snapshots ORDER BY id DESC LIMIT 1`)
}

func (r *dayRepository) Update(ctx context.Context, d *models.DailySnapshot) error {
	entries, err := encodeEntries(d.Entries)
	if err != nil {
		return fmt.Errorf("%w: encoding snapshot entries: %v", ErrDatabaseError, err)
	}
	res, err := r.exec.ExecContext(ctx,
		`UPDATE daily_snapshots SET closed_at = $2, closed = $3, entries = $4 WHERE id = $1`,
		d.ID, d.ClosedAt, d.Closed, string(entries))
	return checkAffected("updating daily snapshot", res, err)
}
