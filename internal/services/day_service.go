package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos_backoffice/internal/models"
	"pos_backoffice/internal/repositories"
	"pos_backoffice/pkg/utils"

	"github.com/shopspring/decimal"
)

// DayService drives the accounting day: no day open -> Open -> Closed.
type DayService interface {
	OpenDay(ctx context.Context) (*models.DailySnapshot, error)
	CloseDay(ctx context.Context) (*models.DailySnapshot, error)
	CurrentDay(ctx context.Context) (*models.DailySnapshot, error)
	GetDay(ctx context.Context, dayID int64) (*models.DailySnapshot, error)
}

type dayService struct {
	store repositories.Store
}

// NewDayService creates a new instance of DayService.
func NewDayService(store repositories.Store) DayService {
	return &dayService{store: store}
}

// EnsureDayOpen returns the open day or ErrDayClosed. Every mutating
// operation that needs an open day calls it inside its own unit of work.
func EnsureDayOpen(ctx context.Context, r *repositories.Repos) (*models.DailySnapshot, error) {
	day, err := r.Days.GetOpen(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDayClosed
		}
		return nil, fmt.Errorf("checking accounting day: %w", err)
	}
	return day, nil
}

// lockPeriodShared lets ordinary writers run side by side while keeping day
// close and shift close out.
func lockPeriodShared(ctx context.Context, r *repositories.Repos) error {
	return r.Locks.Lock(ctx, repositories.LockPeriod, true)
}

func lockPeriodExclusive(ctx context.Context, r *repositories.Repos) error {
	return r.Locks.Lock(ctx, repositories.LockPeriod, false)
}

func (s *dayService) OpenDay(ctx context.Context) (*models.DailySnapshot, error) {
	var day *models.DailySnapshot
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		if err := lockPeriodExclusive(ctx, r); err != nil {
			return err
		}
		if _, err := r.Days.GetOpen(ctx); err == nil {
			return ErrDayAlreadyOpen
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("checking open day: %w", err)
		}

		entries := []models.SnapshotEntry{}
		prev, err := r.Days.Latest(ctx)
		switch {
		case err == nil:
			for _, e := range prev.Entries {
				entries = append(entries, models.SnapshotEntry{
					ProductID:     e.ProductID,
					StartQuantity: e.EndQuantity,
					EndQuantity:   e.EndQuantity,
					Cost:          e.Cost,
				})
			}
		case errors.Is(err, repositories.ErrNotFound):
		default:
			return fmt.Errorf("loading previous day: %w", err)
		}

		day = &models.DailySnapshot{OpenedAt: time.Now(), Entries: entries}
		if err := r.Days.Create(ctx, day); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return ErrDayAlreadyOpen
			}
			return fmt.Errorf("creating day: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Accounting day opened", map[string]interface{}{"day_id": day.ID, "entries": len(day.Entries)})
	return day, nil
}

func (s *dayService) CloseDay(ctx context.Context) (*models.DailySnapshot, error) {
	var day *models.DailySnapshot
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		if err := lockPeriodExclusive(ctx, r); err != nil {
			return err
		}
		var err error
		day, err = EnsureDayOpen(ctx, r)
		if err != nil {
			return err
		}

		openDocs, err := r.Documents.CountOpen(ctx)
		if err != nil {
			return fmt.Errorf("counting open documents: %w", err)
		}
		openShifts, err := r.Shifts.CountOpen(ctx)
		if err != nil {
			return fmt.Errorf("counting open shifts: %w", err)
		}
		if openShifts > 0 || len(openDocs) > 0 {
			return fmt.Errorf("%w: shifts=%d documents=%v", ErrLedgersStillOpen, openShifts, openDocs)
		}

		products, err := r.Products.List(ctx)
		if err != nil {
			return fmt.Errorf("loading products: %w", err)
		}
		levels, err := r.Inventory.List(ctx)
		if err != nil {
			return fmt.Errorf("loading stock levels: %w", err)
		}
		onHand := make(map[int64]decimal.Decimal, len(levels))
		for _, l := range levels {
			onHand[l.ProductID] = l.Quantity
		}

		entries := make([]models.SnapshotEntry, 0, len(products))
		for _, p := range products {
			if !p.Type.IsLeaf() {
				continue
			}
			entry, ok := day.Entry(p.ID)
			if !ok {
				entry = models.SnapshotEntry{ProductID: p.ID, StartQuantity: decimal.Zero}
			}
			entry.EndQuantity = onHand[p.ID]
			entry.Cost = p.Cost
			entries = append(entries, entry)
		}

		now := time.Now()
		day.Entries = entries
		day.Closed = true
		day.ClosedAt = &now
		if err := r.Days.Update(ctx, day); err != nil {
			return fmt.Errorf("closing day: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Accounting day closed", map[string]interface{}{"day_id": day.ID, "entries": len(day.Entries)})
	return day, nil
}

func (s *dayService) CurrentDay(ctx context.Context) (*models.DailySnapshot, error) {
	var day *models.DailySnapshot
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		day, err = EnsureDayOpen(ctx, r)
		return err
	})
	return day, err
}

func (s *dayService) GetDay(ctx context.Context, dayID int64) (*models.DailySnapshot, error) {
	var day *models.DailySnapshot
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		day, err = r.Days.GetByID(ctx, dayID)
		if err != nil {
			return notFound(err, ErrDayNotFound, "day %d", dayID)
		}
		return nil
	})
	return day, err
}
