package pricing

import (
	"errors"
	"testing"

	"pos_backoffice/internal/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(price, cost, qty string) models.OrderItem {
	return models.OrderItem{UnitPrice: dec(price), UnitCost: dec(cost), Quantity: dec(qty)}
}

var tenPercent = Context{Policy: Policy{ServiceChargeRate: dec("0.10")}}

func TestRecomputeDineInWithFixedDiscount(t *testing.T) {
	order := &models.Order{Type: models.OrderTypeDineIn, Discount: dec("5")}
	items := []models.OrderItem{item("25", "10", "4")}

	if err := Recompute(order, items, decimal.Zero, tenPercent); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	checks := map[string][2]decimal.Decimal{
		"subTotal": {order.SubTotal, dec("100")},
		"service":  {order.Service, dec("10")},
		"tax":      {order.Tax, dec("0")},
		"total":    {order.Total, dec("105")},
		"profit":   {order.Profit, dec("65")},
	}
	for name, c := range checks {
		if !c[0].Equal(c[1]) {
			t.Errorf("%s = %s, want %s", name, c[0], c[1])
		}
	}
	if order.PaymentStatus != models.PaymentStatusPending {
		t.Errorf("payment status = %s", order.PaymentStatus)
	}
}

func TestRecomputeTotalIdentity(t *testing.T) {
	cases := []struct {
		name     string
		typ      models.OrderType
		items    []models.OrderItem
		percent  string
		fixed    string
		delivery string
		tax      string
	}{
		{"takeaway no charges", models.OrderTypeTakeaway, []models.OrderItem{item("3.25", "1", "3")}, "0", "0", "0", "0"},
		{"dine-in fractional", models.OrderTypeDineIn, []models.OrderItem{item("7.3", "2.2", "1"), item("1.15", "0.4", "2")}, "0", "0.75", "0", "0.05"},
		{"delivery with percent", models.OrderTypeDelivery, []models.OrderItem{item("12.5", "4", "2")}, "15", "0", "1.5", "0"},
		{"talabat zero service", models.OrderTypeTalabat, []models.OrderItem{item("9.99", "3", "1")}, "0", "2", "5", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := &models.Order{Type: tc.typ, DiscountPercent: dec(tc.percent), Discount: dec(tc.fixed)}
			ctx := Context{
				Policy:       Policy{ServiceChargeRate: dec("0.12"), TaxRate: dec(tc.tax)},
				DeliveryCost: dec(tc.delivery),
			}
			if err := Recompute(order, tc.items, decimal.Zero, ctx); err != nil {
				t.Fatalf("Recompute: %v", err)
			}
			want := order.SubTotal.Add(order.Tax).Add(order.Service).Sub(order.Discount).Ceil()
			if !order.Total.Equal(want) {
				t.Errorf("total = %s, want %s", order.Total, want)
			}
			if !order.Total.Equal(order.Total.Truncate(0)) {
				t.Errorf("total %s is not a whole unit", order.Total)
			}
			if !order.Profit.Equal(order.Total.Sub(LineCost(tc.items))) {
				t.Errorf("profit = %s, want total - line cost", order.Profit)
			}
		})
	}
}

func TestRecomputeServiceByType(t *testing.T) {
	items := []models.OrderItem{item("50", "20", "2")}
	ctx := Context{Policy: Policy{ServiceChargeRate: dec("0.1")}, DeliveryCost: dec("1.5")}
	want := map[models.OrderType]string{
		models.OrderTypeDineIn:      "10",
		models.OrderTypeDelivery:    "1.5",
		models.OrderTypeWebDelivery: "1.5",
		models.OrderTypeTakeaway:    "0",
		models.OrderTypeCompanies:   "0",
	}
	for typ, w := range want {
		order := &models.Order{Type: typ}
		if err := Recompute(order, items, decimal.Zero, ctx); err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if !order.Service.Equal(dec(w)) {
			t.Errorf("%s service = %s, want %s", typ, order.Service, w)
		}
	}
}

func TestRecomputeChannelPricedKeepsChannelCharges(t *testing.T) {
	order := &models.Order{Type: models.OrderTypeWebDelivery, Service: dec("0.75"), Tax: dec("0.2"), Discount: dec("1")}
	ctx := Context{Policy: Policy{ServiceChargeRate: dec("0.1"), TaxRate: dec("0.5")}, DeliveryCost: dec("9"), ChannelPriced: true}
	if err := Recompute(order, []models.OrderItem{item("10", "4", "1")}, decimal.Zero, ctx); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if !order.Service.Equal(dec("0.75")) || !order.Tax.Equal(dec("0.2")) {
		t.Errorf("channel charges overwritten: service=%s tax=%s", order.Service, order.Tax)
	}
	if !order.Total.Equal(dec("10")) { // ceil(10 + 0.75 + 0.2 - 1) = ceil(9.95)
		t.Errorf("total = %s, want 10", order.Total)
	}
}

func TestRecomputeRejectsOversizedDiscount(t *testing.T) {
	order := &models.Order{Type: models.OrderTypeTakeaway, Discount: dec("11"), Total: dec("7")}
	err := Recompute(order, []models.OrderItem{item("10", "1", "1")}, decimal.Zero, Context{StrictDiscount: true})
	if !errors.Is(err, ErrInvalidDiscount) {
		t.Fatalf("err = %v, want ErrInvalidDiscount", err)
	}
	if !order.Total.Equal(dec("7")) {
		t.Error("order must be left untouched on failure")
	}
}

func TestRecomputeClampsStaleFixedDiscount(t *testing.T) {
	order := &models.Order{Type: models.OrderTypeTakeaway, Discount: dec("25")}
	if err := Recompute(order, []models.OrderItem{item("10", "1", "1")}, decimal.Zero, Context{}); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if !order.Discount.Equal(dec("10")) || !order.Total.IsZero() {
		t.Errorf("discount = %s total = %s, want 10 and 0", order.Discount, order.Total)
	}

	if err := Recompute(order, nil, decimal.Zero, Context{}); err != nil {
		t.Fatalf("Recompute without items: %v", err)
	}
	if !order.Discount.IsZero() || !order.Total.IsZero() {
		t.Errorf("empty order: discount = %s total = %s", order.Discount, order.Total)
	}
}

func TestDiscountExclusivity(t *testing.T) {
	order := &models.Order{Type: models.OrderTypeTakeaway}
	items := []models.OrderItem{item("40", "10", "1")}

	if err := ApplyDiscount(order, dec("10"), models.DiscountPercent); err != nil {
		t.Fatal(err)
	}
	if err := Recompute(order, items, decimal.Zero, Context{}); err != nil {
		t.Fatal(err)
	}
	if !order.Discount.Equal(dec("4")) || !order.Total.Equal(dec("36")) {
		t.Fatalf("percent: discount=%s total=%s", order.Discount, order.Total)
	}

	if err := ApplyDiscount(order, dec("3"), models.DiscountFixed); err != nil {
		t.Fatal(err)
	}
	if !order.DiscountPercent.IsZero() {
		t.Errorf("fixed discount must zero the percent, got %s", order.DiscountPercent)
	}
	if err := Recompute(order, items, decimal.Zero, Context{}); err != nil {
		t.Fatal(err)
	}
	if !order.Total.Equal(dec("37")) {
		t.Errorf("fixed: total = %s, want 37", order.Total)
	}

	if err := ApplyDiscount(order, dec("25"), models.DiscountPercent); err != nil {
		t.Fatal(err)
	}
	if !order.Discount.IsZero() {
		t.Errorf("percent discount must zero the fixed value before recompute, got %s", order.Discount)
	}

	// Applying the same discount twice leaves the same totals.
	for i := 0; i < 2; i++ {
		if err := ApplyDiscount(order, dec("25"), models.DiscountPercent); err != nil {
			t.Fatal(err)
		}
		if err := Recompute(order, items, decimal.Zero, Context{}); err != nil {
			t.Fatal(err)
		}
		if !order.Total.Equal(dec("30")) {
			t.Errorf("pass %d: total = %s, want 30", i, order.Total)
		}
	}
}

func TestApplyDiscountValidation(t *testing.T) {
	order := &models.Order{}
	bad := []struct {
		value string
		kind  models.DiscountKind
	}{
		{"-1", models.DiscountFixed},
		{"101", models.DiscountPercent},
		{"5", models.DiscountKind("coupon")},
	}
	for _, b := range bad {
		if err := ApplyDiscount(order, dec(b.value), b.kind); !errors.Is(err, ErrInvalidDiscount) {
			t.Errorf("ApplyDiscount(%s, %s) = %v", b.value, b.kind, err)
		}
	}
}

func TestPaymentStatus(t *testing.T) {
	cases := []struct {
		status models.OrderStatus
		total  string
		paid   string
		want   models.PaymentStatus
	}{
		{models.OrderStatusProcessing, "100", "0", models.PaymentStatusPending},
		{models.OrderStatusProcessing, "100", "40", models.PaymentStatusPartialPaid},
		{models.OrderStatusCompleted, "100", "100", models.PaymentStatusFullPaid},
		{models.OrderStatusCompleted, "100", "120", models.PaymentStatusFullPaid},
		{models.OrderStatusCompleted, "0", "0", models.PaymentStatusFullPaid},
		{models.OrderStatusProcessing, "0", "0", models.PaymentStatusPending},
	}
	for _, tc := range cases {
		if got := PaymentStatusFor(tc.status, dec(tc.total), dec(tc.paid)); got != tc.want {
			t.Errorf("PaymentStatusFor(%s, %s, %s) = %s, want %s", tc.status, tc.total, tc.paid, got, tc.want)
		}
	}
}

func TestSplitPaymentsCapsCash(t *testing.T) {
	split, err := SplitPayments(dec("105"), Tender{Cash: dec("100"), Card: dec("20")})
	if err != nil {
		t.Fatal(err)
	}
	got := map[models.PaymentMethod]decimal.Decimal{}
	for _, p := range split.Payments {
		got[p.Method] = p.Amount
	}
	if len(split.Payments) != 2 {
		t.Fatalf("payments = %+v", split.Payments)
	}
	if !got[models.PaymentCard].Equal(dec("20")) || !got[models.PaymentCash].Equal(dec("85")) {
		t.Errorf("card=%s cash=%s", got[models.PaymentCard], got[models.PaymentCash])
	}
	if !split.Change.Equal(dec("15")) {
		t.Errorf("change = %s, want 15", split.Change)
	}
}

func TestSplitPaymentsCardCoversEverything(t *testing.T) {
	split, err := SplitPayments(dec("50"), Tender{Cash: dec("10"), TalabatCard: dec("50")})
	if err != nil {
		t.Fatal(err)
	}
	if len(split.Payments) != 1 || split.Payments[0].Method != models.PaymentTalabatCard {
		t.Fatalf("payments = %+v", split.Payments)
	}
	if !split.Change.Equal(dec("10")) {
		t.Errorf("change = %s, want 10", split.Change)
	}
}

func TestSplitPaymentsRejectsNegative(t *testing.T) {
	if _, err := SplitPayments(dec("10"), Tender{Cash: dec("-1")}); !errors.Is(err, ErrInvalidPayment) {
		t.Errorf("err = %v", err)
	}
}
