package services

import (
	"errors"
	"testing"

	"pos_backoffice/internal/models"
	"pos_backoffice/internal/repositories"
)

func TestStartShiftSingleOpen(t *testing.T) {
	env := newTestEnv(t, models.StockPolicyAllowNegative)
	if _, err := env.shifts.StartShift(env.ctx, StartShiftRequest{StartCash: dec("50")}); !errors.Is(err, ErrDayClosed) {
		t.Fatalf("start without day: err = %v, want ErrDayClosed", err)
	}
	env.openDay(t)
	env.startShift(t, "50")
	if _, err := env.shifts.StartShift(env.ctx, StartShiftRequest{StartCash: dec("50")}); !errors.Is(err, ErrShiftAlreadyOpen) {
		t.Fatalf("second start: err = %v, want ErrShiftAlreadyOpen", err)
	}
	if _, err := env.shifts.StartShift(env.ctx, StartShiftRequest{StartCash: dec("-1")}); !errors.Is(err, ErrValidation) {
		t.Fatalf("negative start cash: err = %v, want ErrValidation", err)
	}
}

func TestEndShiftDeficit(t *testing.T) {
	cases := []struct {
		name       string
		realCash   string
		deficit    string
		losses     string
		hasDeficit bool
	}{
		{"exact", "120", "0", "0", false},
		{"shortfall", "115", "5", "5", true},
		{"surplus", "125", "-5", "0", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, models.StockPolicyAllowNegative)
			env.openDay(t)
			env.startShift(t, "100")
			f := env.burgers(t)
			order := env.order(t, models.OrderTypeTakeaway, line(f.burger.ID, "3"))
			env.payCash(t, order.ID, "50")

			supplies, err := env.shifts.CreateExpenseType(env.ctx, "Supplies")
			if err != nil {
				t.Fatalf("CreateExpenseType: %v", err)
			}
			if _, err := env.shifts.AddExpense(env.ctx, AddExpenseRequest{ExpenseTypeID: supplies.ID, Amount: dec("10")}); err != nil {
				t.Fatalf("AddExpense: %v", err)
			}

			shift, err := env.shifts.EndShift(env.ctx, EndShiftRequest{RealCash: dec(tc.realCash)})
			if err != nil {
				t.Fatalf("EndShift: %v", err)
			}
			assertDecimal(t, "end cash", *shift.EndCash, "120")
			assertDecimal(t, "deficit", shift.Deficit, tc.deficit)
			assertDecimal(t, "losses", shift.LossesAmount, tc.losses)
			if shift.HasDeficit != tc.hasDeficit {
				t.Errorf("hasDeficit = %v, want %v", shift.HasDeficit, tc.hasDeficit)
			}
			if !shift.Closed || shift.EndAt == nil {
				t.Error("shift not closed")
			}
		})
	}
}

func TestEndShiftBlockedByProcessingOrders(t *testing.T) {
	env := newTestEnv(t, models.StockPolicyAllowNegative)
	env.openDay(t)
	env.startShift(t, "0")
	f := env.burgers(t)
	order := env.order(t, models.OrderTypeTakeaway, line(f.burger.ID, "1"))

	_, err := env.shifts.EndShift(env.ctx, EndShiftRequest{RealCash: dec("0")})
	if !errors.Is(err, ErrOrdersStillProcessing) {
		t.Fatalf("err = %v, want ErrOrdersStillProcessing", err)
	}
	if _, err := env.shifts.CurrentShift(env.ctx); err != nil {
		t.Fatalf("shift closed despite processing order: %v", err)
	}

	env.payCash(t, order.ID, "10")
	if _, err := env.shifts.EndShift(env.ctx, EndShiftRequest{RealCash: dec("10")}); err != nil {
		t.Fatalf("EndShift after completion: %v", err)
	}
	if _, err := env.shifts.CurrentShift(env.ctx); !errors.Is(err, ErrNoActiveShift) {
		t.Errorf("CurrentShift after close: %v", err)
	}
}

func TestWebOrdersTransferToNextShift(t *testing.T) {
	env := newTestEnv(t, models.StockPolicyAllowNegative)
	env.openDay(t)
	first := env.startShift(t, "0")
	f := env.burgers(t)

	placed, err := env.orders.PlaceExternalOrder(env.ctx, ExternalOrderRequest{
		ExternalRef: "WEB-7",
		Type:        models.OrderTypeWebTakeaway,
		Customer:    ExternalCustomer{Name: "Noor", Phone: "5550001"},
		Items:       []OrderItemRequest{line(f.burger.ID, "1")},
		SubTotal:    dec("10"),
		Total:       dec("10"),
	})
	if err != nil {
		t.Fatalf("PlaceExternalOrder: %v", err)
	}

	if _, err := env.shifts.EndShift(env.ctx, EndShiftRequest{RealCash: dec("0")}); err != nil {
		t.Fatalf("EndShift with pending web order: %v", err)
	}
	second := env.startShift(t, "0")

	moved, err := env.orders.GetOrder(env.ctx, placed.Order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if moved.ShiftID != second.ID {
		t.Fatalf("web order shift = %d, want %d (was %d)", moved.ShiftID, second.ID, first.ID)
	}

	res := env.payCash(t, moved.ID, "10")
	for _, p := range res.Order.Payments {
		if p.ShiftID != second.ID {
			t.Errorf("payment recorded in shift %d, want %d", p.ShiftID, second.ID)
		}
	}
}

func TestWebOrdersBlockCloseWithoutTransfer(t *testing.T) {
	env := newTestEnv(t, models.StockPolicyAllowNegative)
	env.shifts = NewShiftService(env.store, false)
	env.openDay(t)
	env.startShift(t, "0")
	f := env.burgers(t)
	if _, err := env.orders.PlaceExternalOrder(env.ctx, ExternalOrderRequest{
		ExternalRef: "WEB-8", Type: models.OrderTypeWebTakeaway,
		Customer: ExternalCustomer{Name: "Noor", Phone: "5550001"},
		Items:    []OrderItemRequest{line(f.burger.ID, "1")},
	}); err != nil {
		t.Fatalf("PlaceExternalOrder: %v", err)
	}
	if _, err := env.shifts.EndShift(env.ctx, EndShiftRequest{RealCash: dec("0")}); !errors.Is(err, ErrOrdersStillProcessing) {
		t.Fatalf("err = %v, want ErrOrdersStillProcessing", err)
	}
}

func TestAddExpenseValidation(t *testing.T) {
	env := newTestEnv(t, models.StockPolicyAllowNegative)
	env.openDay(t)
	if _, err := env.shifts.AddExpense(env.ctx, AddExpenseRequest{ExpenseTypeID: 1, Amount: dec("5")}); !errors.Is(err, ErrNoActiveShift) {
		t.Errorf("expense without shift: %v", err)
	}
	env.startShift(t, "0")
	if _, err := env.shifts.AddExpense(env.ctx, AddExpenseRequest{ExpenseTypeID: 99, Amount: dec("5")}); !errors.Is(err, ErrExpenseTypeNotFound) {
		t.Errorf("unknown type: %v", err)
	}
	if _, err := env.shifts.AddExpense(env.ctx, AddExpenseRequest{ExpenseTypeID: 1, Amount: dec("0")}); !errors.Is(err, ErrValidation) {
		t.Errorf("zero amount: %v", err)
	}
	if _, err := env.shifts.CreateExpenseType(env.ctx, "Ice"); err != nil {
		t.Fatalf("CreateExpenseType: %v", err)
	}
	if _, err := env.shifts.CreateExpenseType(env.ctx, "Ice"); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate type: %v", err)
	}
}

func TestAddExpenseHoldsPeriodLock(t *testing.T) {
	env := newTestEnv(t, models.StockPolicyAllowNegative)
	env.openDay(t)
	env.startShift(t, "50")
	supplies, err := env.shifts.CreateExpenseType(env.ctx, "Napkins")
	if err != nil {
		t.Fatalf("CreateExpenseType: %v", err)
	}

	store := &lockRecordingStore{Store: env.store}
	shifts := NewShiftService(store, true)
	if _, err := shifts.AddExpense(env.ctx, AddExpenseRequest{ExpenseTypeID: supplies.ID, Amount: dec("5")}); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	taken := store.taken()
	if len(taken) != 1 || taken[0] != (lockCall{name: repositories.LockPeriod, shared: true}) {
		t.Fatalf("locks = %+v, want one shared period lock", taken)
	}

	closed, err := env.shifts.EndShift(env.ctx, EndShiftRequest{RealCash: dec("45")})
	if err != nil {
		t.Fatalf("EndShift: %v", err)
	}
	assertDecimal(t, "end cash", *closed.EndCash, "45")
	if _, err := shifts.AddExpense(env.ctx, AddExpenseRequest{ExpenseTypeID: supplies.ID, Amount: dec("5")}); !errors.Is(err, ErrNoActiveShift) {
		t.Errorf("expense after close: %v", err)
	}
}

func TestShiftStats(t *testing.T) {
	env := newTestEnv(t, models.StockPolicyAllowNegative)
	env.openDay(t)
	shift := env.startShift(t, "0")
	f := env.burgers(t)

	done := env.order(t, models.OrderTypeTakeaway, line(f.burger.ID, "2"))
	env.payCash(t, done.ID, "20")
	dropped := env.order(t, models.OrderTypeDineIn, line(f.burger.ID, "1"))
	if _, err := env.orders.CancelOrder(env.ctx, dropped.ID, "no show"); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}

	stats, err := env.reports.ShiftStats(env.ctx, shift.ID)
	if err != nil {
		t.Fatalf("ShiftStats: %v", err)
	}
	if b := stats.ByStatus[models.OrderStatusCompleted]; b.Count != 1 {
		t.Errorf("completed bucket = %+v", b)
	}
	if b := stats.ByStatus[models.OrderStatusCancelled]; b.Count != 1 || !b.Profit.IsZero() {
		t.Errorf("cancelled bucket = %+v", b)
	}
	assertDecimal(t, "completed value", stats.CompletedValue, "20")
	assertDecimal(t, "completed profit", stats.CompletedProfit, "15")
	assertDecimal(t, "cash", stats.PaymentsByMethod[models.PaymentCash], "20")

	if _, err := env.reports.ShiftStats(env.ctx, 42); !errors.Is(err, ErrShiftNotFound) {
		t.Errorf("unknown shift: %v", err)
	}
}
