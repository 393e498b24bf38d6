package services

import (
	"context"
	"fmt"

	"pos_backoffice/internal/models"
	"pos_backoffice/internal/repositories"

	"github.com/shopspring/decimal"
)

// ReportService computes read-only aggregates. Nothing it returns is stored.
type ReportService interface {
	ShiftStats(ctx context.Context, shiftIDs ...int64) (*models.ShiftStats, error)
	DayReport(ctx context.Context, dayID int64) (*models.DayReport, error)
}

type reportService struct {
	store repositories.Store
}

// NewReportService creates a new instance of ReportService.
func NewReportService(store repositories.Store) ReportService {
	return &reportService{store: store}
}

func addToBucket[K comparable](buckets map[K]models.Bucket, key K, o models.Order) {
	b := buckets[key]
	b.Count++
	b.Value = b.Value.Add(o.Total)
	b.Profit = b.Profit.Add(o.Profit)
	buckets[key] = b
}

func (s *reportService) ShiftStats(ctx context.Context, shiftIDs ...int64) (*models.ShiftStats, error) {
	if len(shiftIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one shift id is required", ErrValidation)
	}

	stats := &models.ShiftStats{ShiftIDs: shiftIDs}
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		for _, id := range shiftIDs {
			if _, err := r.Shifts.GetByID(ctx, id); err != nil {
				return notFound(err, ErrShiftNotFound, "shift %d", id)
			}
		}
		orders, err := r.Orders.ListByShifts(ctx, shiftIDs)
		if err != nil {
			return fmt.Errorf("loading orders: %w", err)
		}
		payments, err := r.Payments.ListByShifts(ctx, shiftIDs)
		if err != nil {
			return fmt.Errorf("loading payments: %w", err)
		}
		expenses, err := r.Expenses.ListByShifts(ctx, shiftIDs)
		if err != nil {
			return fmt.Errorf("loading expenses: %w", err)
		}

		stats.ByStatus = make(map[models.OrderStatus]models.Bucket)
		stats.ByType = make(map[models.OrderType]models.Bucket)
		stats.CompletedValue, stats.CompletedProfit = decimal.Zero, decimal.Zero
		for _, o := range orders {
			addToBucket(stats.ByStatus, o.Status, o)
			addToBucket(stats.ByType, o.Type, o)
			if o.Status == models.OrderStatusCompleted {
				stats.CompletedValue = stats.CompletedValue.Add(o.Total)
				stats.CompletedProfit = stats.CompletedProfit.Add(o.Profit)
			}
		}

		stats.PaymentsByMethod = make(map[models.PaymentMethod]decimal.Decimal)
		for _, p := range payments {
			stats.PaymentsByMethod[p.Method] = stats.PaymentsByMethod[p.Method].Add(p.Amount)
		}
		stats.ExpensesTotal = decimal.Zero
		for _, e := range expenses {
			stats.ExpensesTotal = stats.ExpensesTotal.Add(e.Amount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// DayReport values what each leaf product lost over the day. For a day that
// is still open the current stock stands in for the end quantity.
func (s *reportService) DayReport(ctx context.Context, dayID int64) (*models.DayReport, error) {
	var report *models.DayReport
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		day, err := r.Days.GetByID(ctx, dayID)
		if err != nil {
			return notFound(err, ErrDayNotFound, "day %d", dayID)
		}
		products, err := r.Products.List(ctx)
		if err != nil {
			return fmt.Errorf("loading products: %w", err)
		}
		byID := make(map[int64]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		entries := day.Entries
		if !day.Closed {
			levels, err := r.Inventory.List(ctx)
			if err != nil {
				return fmt.Errorf("loading stock levels: %w", err)
			}
			entries = make([]models.SnapshotEntry, 0, len(levels))
			for _, l := range levels {
				e, ok := day.Entry(l.ProductID)
				if !ok {
					e = models.SnapshotEntry{ProductID: l.ProductID, StartQuantity: decimal.Zero}
				}
				e.EndQuantity = l.Quantity
				e.Cost = l.Cost
				entries = append(entries, e)
			}
		}

		report = &models.DayReport{DayID: day.ID, Closed: day.Closed, Lines: make([]models.DayReportLine, 0, len(entries)), TotalValue: decimal.Zero}
		for _, e := range entries {
			consumed := e.StartQuantity.Sub(e.EndQuantity)
			line := models.DayReportLine{
				ProductID:     e.ProductID,
				Name:          byID[e.ProductID].Name,
				StartQuantity: e.StartQuantity,
				EndQuantity:   e.EndQuantity,
				Consumed:      consumed,
				ConsumedValue: consumed.Mul(e.Cost),
			}
			report.Lines = append(report.Lines, line)
			report.TotalValue = report.TotalValue.Add(line.ConsumedValue)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
