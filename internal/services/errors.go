package services

import (
	"errors"
	"fmt"

	"pos_backoffice/internal/pricing"
	"pos_backoffice/internal/recipe"
	"pos_backoffice/internal/repositories"
)

// Business rule violations. They abort the unit of work and reach the caller
// unchanged; none of them is retried.
var (
	ErrDayClosed             = errors.New("accounting day is not open")
	ErrDayAlreadyOpen        = errors.New("an accounting day is already open")
	ErrDayNotFound           = errors.New("accounting day not found")
	ErrLedgersStillOpen      = errors.New("documents or shifts are still open")
	ErrShiftAlreadyOpen      = errors.New("a shift is already open")
	ErrNoActiveShift         = errors.New("no active shift")
	ErrShiftNotFound         = errors.New("shift not found")
	ErrOrdersStillProcessing = errors.New("shift still has unfinished orders")
	ErrOrderNotProcessing    = errors.New("order is not in a state that allows this operation")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderItemNotFound     = errors.New("order item not found")
	ErrTableAlreadyReserved  = errors.New("table is already reserved by another order")
	ErrTableNotFound         = errors.New("table not found")
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrInvoiceAlreadyClosed  = errors.New("document is already closed")
	ErrDocumentNotFound      = errors.New("document not found")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrProductNotFound       = errors.New("product not found")
	ErrExpenseTypeNotFound   = errors.New("expense type not found")
	ErrValidation            = errors.New("validation error")
	ErrConflict              = errors.New("record already exists")

	ErrCyclicRecipe    = recipe.ErrCyclicRecipe
	ErrInvalidDiscount = pricing.ErrInvalidDiscount
	ErrInvalidPayment  = pricing.ErrInvalidPayment
)

// notFound translates repositories.ErrNotFound into a domain sentinel and
// leaves every other error wrapped with context.
func notFound(err error, sentinel error, format string, args ...interface{}) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: "+format, append([]interface{}{sentinel}, args...)...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
