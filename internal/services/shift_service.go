package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pos_backoffice/internal/models"
	"pos_backoffice/internal/repositories"
	"pos_backoffice/pkg/utils"

	"github.com/shopspring/decimal"
)

// StartShiftRequest opens a cashier session.
type StartShiftRequest struct {
	StartCash decimal.Decimal `json:"start_cash"`
	CashierID *int64          `json:"-"`
}

// EndShiftRequest closes the open shift with the physically counted cash.
type EndShiftRequest struct {
	RealCash decimal.Decimal `json:"real_cash"`
}

// AddExpenseRequest records cash paid out of the drawer.
type AddExpenseRequest struct {
	ExpenseTypeID int64           `json:"expense_type_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Notes         string          `json:"notes"`
}

// ShiftService manages the shift lifecycle and its cash reconciliation.
type ShiftService interface {
	StartShift(ctx context.Context, req StartShiftRequest) (*models.Shift, error)
	EndShift(ctx context.Context, req EndShiftRequest) (*models.Shift, error)
	CurrentShift(ctx context.Context) (*models.Shift, error)
	GetShift(ctx context.Context, shiftID int64) (*models.Shift, error)
	ListShifts(ctx context.Context, filters models.ShiftFilters) ([]models.Shift, int, error)
	AddExpense(ctx context.Context, req AddExpenseRequest) (*models.Expense, error)
	CreateExpenseType(ctx context.Context, name string) (*models.ExpenseType, error)
	ListExpenseTypes(ctx context.Context) ([]models.ExpenseType, error)
}

type shiftService struct {
	store             repositories.Store
	transferWebOrders bool
}

// NewShiftService creates a new instance of ShiftService. With
// transferWebOrders set, unfinished web orders do not block closing a shift
// and move to the next shift when it starts.
func NewShiftService(store repositories.Store, transferWebOrders bool) ShiftService {
	return &shiftService{store: store, transferWebOrders: transferWebOrders}
}

// activeShift resolves the open shift or fails with ErrNoActiveShift.
func activeShift(ctx context.Context, r *repositories.Repos) (*models.Shift, error) {
	shift, err := r.Shifts.GetOpen(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoActiveShift
		}
		return nil, fmt.Errorf("resolving active shift: %w", err)
	}
	return shift, nil
}

// reconcileShift computes the expected drawer cash and the deficit against
// realCash. deficit = endCash - realCash: positive is a shortfall.
func reconcileShift(ctx context.Context, r *repositories.Repos, shift *models.Shift, realCash decimal.Decimal) error {
	cash, err := r.Payments.CashForCompletedOrders(ctx, shift.ID)
	if err != nil {
		return fmt.Errorf("summing cash of shift %d: %w", shift.ID, err)
	}
	expenses, err := r.Expenses.TotalForShift(ctx, shift.ID)
	if err != nil {
		return fmt.Errorf("summing expenses of shift %d: %w", shift.ID, err)
	}

	endCash := shift.StartCash.Add(cash).Sub(expenses)
	deficit := endCash.Sub(realCash)
	shift.EndCash = &endCash
	shift.RealCash = &realCash
	shift.Deficit = deficit
	shift.HasDeficit = deficit.IsPositive()
	shift.LossesAmount = decimal.Max(deficit, decimal.Zero)
	return nil
}

func (s *shiftService) StartShift(ctx context.Context, req StartShiftRequest) (*models.Shift, error) {
	if req.StartCash.IsNegative() {
		return nil, fmt.Errorf("%w: start cash cannot be negative", ErrValidation)
	}

	var shift *models.Shift
	var moved []int64
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		moved = nil
		if err := lockPeriodShared(ctx, r); err != nil {
			return err
		}
		if _, err := EnsureDayOpen(ctx, r); err != nil {
			return err
		}
		if _, err := r.Shifts.GetOpen(ctx); err == nil {
			return ErrShiftAlreadyOpen
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("checking open shift: %w", err)
		}

		shift = &models.Shift{
			CashierID:    req.CashierID,
			StartAt:      time.Now(),
			StartCash:    req.StartCash,
			Deficit:      decimal.Zero,
			LossesAmount: decimal.Zero,
		}
		if err := r.Shifts.Create(ctx, shift); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return ErrShiftAlreadyOpen
			}
			return fmt.Errorf("creating shift: %w", err)
		}

		if !s.transferWebOrders {
			return nil
		}
		last, err := r.Shifts.LastClosed(ctx)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("loading previous shift: %w", err)
		}
		pending, err := r.Orders.ListNonTerminal(ctx, last.ID)
		if err != nil {
			return fmt.Errorf("listing unfinished orders of shift %d: %w", last.ID, err)
		}
		for _, o := range pending {
			if o.Type.IsWeb() {
				moved = append(moved, o.ID)
			}
		}
		return r.Orders.MoveToShift(ctx, moved, shift.ID)
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Shift started", map[string]interface{}{
		"shift_id": shift.ID, "start_cash": shift.StartCash.String(), "transferred_orders": len(moved),
	})
	return shift, nil
}

func (s *shiftService) EndShift(ctx context.Context, req EndShiftRequest) (*models.Shift, error) {
	if req.RealCash.IsNegative() {
		return nil, fmt.Errorf("%w: real cash cannot be negative", ErrValidation)
	}

	var shift *models.Shift
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		if err := lockPeriodExclusive(ctx, r); err != nil {
			return err
		}
		open, err := activeShift(ctx, r)
		if err != nil {
			return err
		}
		shift, err = r.Shifts.GetForUpdate(ctx, open.ID)
		if err != nil {
			return fmt.Errorf("locking shift %d: %w", open.ID, err)
		}

		unfinished, err := r.Orders.ListNonTerminal(ctx, shift.ID)
		if err != nil {
			return fmt.Errorf("listing unfinished orders: %w", err)
		}
		var blocking []string
		for _, o := range unfinished {
			if s.transferWebOrders && o.Type.IsWeb() {
				continue
			}
			blocking = append(blocking, fmt.Sprintf("#%d(%s)", o.ID, o.Status))
		}
		if len(blocking) > 0 {
			return fmt.Errorf("%w: %s", ErrOrdersStillProcessing, strings.Join(blocking, ", "))
		}

		if err := reconcileShift(ctx, r, shift, req.RealCash); err != nil {
			return err
		}
		now := time.Now()
		shift.EndAt = &now
		shift.Closed = true
		if err := r.Shifts.Update(ctx, shift); err != nil {
			return fmt.Errorf("closing shift %d: %w", shift.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"shift_id": shift.ID, "end_cash": shift.EndCash.String(), "real_cash": shift.RealCash.String(),
		"deficit": shift.Deficit.String(),
	}
	if shift.HasDeficit {
		utils.LogWarn("Shift closed with cash shortfall", fields)
	} else {
		utils.LogInfo("Shift closed", fields)
	}
	return shift, nil
}

func (s *shiftService) CurrentShift(ctx context.Context) (*models.Shift, error) {
	var shift *models.Shift
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		shift, err = activeShift(ctx, r)
		return err
	})
	return shift, err
}

func (s *shiftService) GetShift(ctx context.Context, shiftID int64) (*models.Shift, error) {
	var shift *models.Shift
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		shift, err = r.Shifts.GetByID(ctx, shiftID)
		if err != nil {
			return notFound(err, ErrShiftNotFound, "shift %d", shiftID)
		}
		return nil
	})
	return shift, err
}

func (s *shiftService) ListShifts(ctx context.Context, filters models.ShiftFilters) ([]models.Shift, int, error) {
	var shifts []models.Shift
	var total int
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		shifts, total, err = r.Shifts.List(ctx, filters)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list shifts: %w", err)
	}
	return shifts, total, nil
}

func (s *shiftService) AddExpense(ctx context.Context, req AddExpenseRequest) (*models.Expense, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: expense amount must be positive", ErrValidation)
	}

	var expense *models.Expense
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		if err := lockPeriodShared(ctx, r); err != nil {
			return err
		}
		open, err := activeShift(ctx, r)
		if err != nil {
			return err
		}
		shift, err := r.Shifts.GetForUpdate(ctx, open.ID)
		if err != nil {
			return fmt.Errorf("locking shift %d: %w", open.ID, err)
		}
		if shift.Closed {
			return ErrNoActiveShift
		}
		if _, err := r.Expenses.GetType(ctx, req.ExpenseTypeID); err != nil {
			return notFound(err, ErrExpenseTypeNotFound, "expense type %d", req.ExpenseTypeID)
		}
		expense = &models.Expense{
			ShiftID:       shift.ID,
			ExpenseTypeID: req.ExpenseTypeID,
			Amount:        req.Amount,
			Notes:         utils.NewNullString(req.Notes),
		}
		if err := r.Expenses.Create(ctx, expense); err != nil {
			return fmt.Errorf("creating expense: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *shiftService) CreateExpenseType(ctx context.Context, name string) (*models.ExpenseType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: expense type name is required", ErrValidation)
	}
	t := &models.ExpenseType{Name: name}
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		if err := r.Expenses.CreateType(ctx, t); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return fmt.Errorf("%w: expense type %q", ErrConflict, name)
			}
			return fmt.Errorf("creating expense type: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *shiftService) ListExpenseTypes(ctx context.Context) ([]models.ExpenseType, error) {
	var types []models.ExpenseType
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		types, err = r.Expenses.ListTypes(ctx)
		return err
	})
	return types, err
}
