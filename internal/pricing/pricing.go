// Package pricing computes order totals, discounts and payment splits.
//
// Rounding: total = ceil(subTotal + service + tax - discount) to a whole
// currency unit. The intermediate amounts are kept exact; only the total is
// rounded, always upwards, so change due is computed against the rounded total.
package pricing

import (
	"errors"
	"fmt"

	"pos_backoffice/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidDiscount covers negative values, percents above 100 and
	// discounts larger than the amount they apply to.
	ErrInvalidDiscount = errors.New("invalid discount")
	// ErrInvalidPayment is returned for negative tendered amounts.
	ErrInvalidPayment = errors.New("invalid payment amount")
)

var hundred = decimal.NewFromInt(100)

// Policy carries the configurable rates.
type Policy struct {
	ServiceChargeRate decimal.Decimal // fraction of subTotal on dine-in orders
	TaxRate           decimal.Decimal // flat fraction of subTotal
}

// Context is the per-order input besides items and payments.
type Context struct {
	Policy       Policy
	DeliveryCost decimal.Decimal
	// ChannelPriced keeps the service and tax the external channel sent.
	ChannelPriced bool
	// StrictDiscount rejects a discount larger than the pre-discount amount
	// instead of clamping it. Set when the discount itself is being changed.
	StrictDiscount bool
}

// SubTotal is Σ(unitPrice × quantity).
func SubTotal(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice.Mul(it.Quantity))
	}
	return total
}

// LineCost is Σ(unitCost × quantity).
func LineCost(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineCost())
	}
	return total
}

// Paid sums payment amounts.
func Paid(payments []models.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Recompute rewrites every derived money field of order. A discount larger
// than the pre-discount amount is clamped to it, or rejected without touching
// the order when ctx.StrictDiscount is set.
func Recompute(order *models.Order, items []models.OrderItem, paid decimal.Decimal, ctx Context) error {
	subTotal := SubTotal(items)

	service := order.Service
	tax := order.Tax
	if !ctx.ChannelPriced {
		switch {
		case order.Type == models.OrderTypeDineIn:
			service = ctx.Policy.ServiceChargeRate.Mul(subTotal)
		case order.Type.ChargesDelivery():
			service = ctx.DeliveryCost
		default:
			service = decimal.Zero
		}
		tax = ctx.Policy.TaxRate.Mul(subTotal)
	}

	discount := order.Discount
	if order.DiscountPercent.IsPositive() {
		discount = order.DiscountPercent.Div(hundred).Mul(subTotal)
	}

	gross := subTotal.Add(service).Add(tax)
	if discount.GreaterThan(gross) {
		if ctx.StrictDiscount {
			return fmt.Errorf("%w: discount %s exceeds %s", ErrInvalidDiscount, discount, gross)
		}
		discount = gross
	}
	total := gross.Sub(discount).Ceil()

	order.SubTotal = subTotal
	order.Service = service
	order.Tax = tax
	order.Discount = discount
	order.Total = total
	order.Profit = total.Sub(LineCost(items))
	order.PaymentStatus = PaymentStatusFor(order.Status, total, paid)
	return nil
}

// PaymentStatusFor derives the payment status from the amount paid.
func PaymentStatusFor(status models.OrderStatus, total, paid decimal.Decimal) models.PaymentStatus {
	switch {
	case paid.IsPositive() && paid.GreaterThanOrEqual(total):
		return models.PaymentStatusFullPaid
	case total.IsZero() && status == models.OrderStatusCompleted:
		return models.PaymentStatusFullPaid
	case paid.IsPositive():
		return models.PaymentStatusPartialPaid
	default:
		return models.PaymentStatusPending
	}
}

// ApplyDiscount stores a new discount and resets the other kind. Totals must
// be recomputed afterwards.
func ApplyDiscount(order *models.Order, value decimal.Decimal, kind models.DiscountKind) error {
	if value.IsNegative() {
		return fmt.Errorf("%w: negative value", ErrInvalidDiscount)
	}
	switch kind {
	case models.DiscountPercent:
		if value.GreaterThan(hundred) {
			return fmt.Errorf("%w: percent above 100", ErrInvalidDiscount)
		}
		order.DiscountPercent = value
		order.Discount = decimal.Zero
	case models.DiscountFixed:
		order.DiscountPercent = decimal.Zero
		order.Discount = value
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidDiscount, kind)
	}
	return nil
}

// Tender is what the customer hands over at completion.
type Tender struct {
	Cash        decimal.Decimal `json:"cash"`
	Card        decimal.Decimal `json:"card"`
	TalabatCard decimal.Decimal `json:"talabat_card"`
}

// Split is the outcome of SplitPayments.
type Split struct {
	Payments []models.Payment
	Change   decimal.Decimal
}

// SplitPayments turns a tender into payment rows. Card and TalabatCard are
// applied in full; cash is capped at what remains of total after them, and the
// excess cash is returned as change. Zero amounts produce no row.
func SplitPayments(total decimal.Decimal, tender Tender) (Split, error) {
	if tender.Cash.IsNegative() || tender.Card.IsNegative() || tender.TalabatCard.IsNegative() {
		return Split{}, ErrInvalidPayment
	}

	var split Split
	if tender.Card.IsPositive() {
		split.Payments = append(split.Payments, models.Payment{Method: models.PaymentCard, Amount: tender.Card})
	}
	if tender.TalabatCard.IsPositive() {
		split.Payments = append(split.Payments, models.Payment{Method: models.PaymentTalabatCard, Amount: tender.TalabatCard})
	}

	remaining := total.Sub(tender.Card).Sub(tender.TalabatCard)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	cash := decimal.Min(tender.Cash, remaining)
	if cash.IsPositive() {
		split.Payments = append(split.Payments, models.Payment{Method: models.PaymentCash, Amount: cash})
	}
	split.Change = tender.Cash.Sub(cash)
	return split, nil
}
