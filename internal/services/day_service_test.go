package services

import (
	"errors"
	"testing"

	"pos_backoffice/internal/models"
)

func TestOpenDayForwardsPreviousEnd(t *testing.T) {
	env := newTestEnv(t, models.StockPolicyAllowNegative)
	first := env.openDay(t)
	if len(first.Entries) != 0 {
		t.Fatalf("first day entries = %d, want 0", len(first.Entries))
	}
	if _, err := env.days.OpenDay(env.ctx); !errors.Is(err, ErrDayAlreadyOpen) {
		t.Fatalf("second open: err = %v, want ErrDayAlreadyOpen", err)
	}

	bun := env.leaf(t, "Bun", "0.5")
	env.stock(t, bun.ID, "5")

	closed, err := env.days.CloseDay(env.ctx)
	if err != nil {
		t.Fatalf("CloseDay: %v", err)
	}
	entry, ok := closed.Entry(bun.ID)
	if !ok {
		t.Fatal("closed day has no entry for Bun")
	}
	assertDecimal(t, "start", entry.StartQuantity, "0")
	assertDecimal(t, "end", entry.EndQuantity, "5")
	assertDecimal(t, "cost", entry.Cost, "0.5")

	if _, err := env.days.CurrentDay(env.ctx); !errors.Is(err, ErrDayClosed) {
		t.Errorf("CurrentDay after close: %v", err)
	}

	next := env.openDay(t)
	entry, ok = next.Entry(bun.ID)
	if !ok {
		t.Fatal("next day did not carry Bun forward")
	}
	assertDecimal(t, "forwarded start", entry.StartQuantity, "5")

	stored, err := env.days.GetDay(env.ctx, first.ID)
	if err != nil || !stored.Closed {
		t.Errorf("GetDay(%d) = %+v, %v", first.ID, stored, err)
	}
	if _, err := env.days.GetDay(env.ctx, 99); !errors.Is(err, ErrDayNotFound) {
		t.Errorf("GetDay(99): %v", err)
	}
}

func TestCloseDayRequiresClosedLedgers(t *testing.T) {
	kinds := []models.DocumentKind{
		models.DocumentPurchaseInvoice,
		models.DocumentReturnInvoice,
		models.DocumentWaste,
		models.DocumentStocktaking,
	}
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			env := newTestEnv(t, models.StockPolicyAllowNegative)
			env.openDay(t)
			doc, err := env.inventory.CreateDocument(env.ctx, CreateDocumentRequest{Kind: kind})
			if err != nil {
				t.Fatalf("CreateDocument: %v", err)
			}
			if _, err := env.days.CloseDay(env.ctx); !errors.Is(err, ErrLedgersStillOpen) {
				t.Fatalf("close with open %s: err = %v, want ErrLedgersStillOpen", kind, err)
			}
			if _, err := env.inventory.CloseDocument(env.ctx, doc.ID, nil); err != nil {
				t.Fatalf("CloseDocument: %v", err)
			}
			if _, err := env.days.CloseDay(env.ctx); err != nil {
				t.Fatalf("CloseDay after closing %s: %v", kind, err)
			}
		})
	}

	t.Run("shift", func(t *testing.T) {
		env := newTestEnv(t, models.StockPolicyAllowNegative)
		env.openDay(t)
		env.startShift(t, "0")
		if _, err := env.days.CloseDay(env.ctx); !errors.Is(err, ErrLedgersStillOpen) {
			t.Fatalf("close with open shift: err = %v, want ErrLedgersStillOpen", err)
		}
		if _, err := env.shifts.EndShift(env.ctx, EndShiftRequest{RealCash: dec("0")}); err != nil {
			t.Fatalf("EndShift: %v", err)
		}
		if _, err := env.days.CloseDay(env.ctx); err != nil {
			t.Fatalf("CloseDay: %v", err)
		}
	})
}

func TestClosedDayBlocksWrites(t *testing.T) {
	env := newTestEnv(t, models.StockPolicyAllowNegative)
	if _, err := env.days.CloseDay(env.ctx); !errors.Is(err, ErrDayClosed) {
		t.Fatalf("close without open day: %v", err)
	}
	bun := env.leaf(t, "Bun", "0.5")
	if _, err := env.inventory.CreateDocument(env.ctx, CreateDocumentRequest{Kind: models.DocumentWaste}); !errors.Is(err, ErrDayClosed) {
		t.Errorf("CreateDocument: %v", err)
	}
	if _, err := env.inventory.AdjustStock(env.ctx, AdjustStockRequest{ProductID: bun.ID, Delta: dec("1"), Reason: "x"}); !errors.Is(err, ErrDayClosed) {
		t.Errorf("AdjustStock: %v", err)
	}
}

func TestDayReportValuesConsumption(t *testing.T) {
	env := newTestEnv(t, models.StockPolicyAllowNegative)
	env.openDay(t)
	f := env.burgers(t)
	if _, err := env.days.CloseDay(env.ctx); err != nil {
		t.Fatalf("CloseDay: %v", err)
	}

	day := env.openDay(t)
	env.startShift(t, "0")
	order := env.order(t, models.OrderTypeTakeaway, line(f.burger.ID, "4"))
	env.payCash(t, order.ID, "40")

	report, err := env.reports.DayReport(env.ctx, day.ID)
	if err != nil {
		t.Fatalf("DayReport: %v", err)
	}
	if report.Closed {
		t.Error("open day reported as closed")
	}
	consumed := map[int64]string{}
	for _, l := range report.Lines {
		consumed[l.ProductID] = l.Consumed.String()
	}
	if consumed[f.bun.ID] != "4" || consumed[f.patty.ID] != "4" {
		t.Errorf("consumed = %v, want 4 of each leaf", consumed)
	}
	assertDecimal(t, "total value", report.TotalValue, "10")
}
