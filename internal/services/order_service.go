package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pos_backoffice/internal/models"
	"pos_backoffice/internal/pricing"
	"pos_backoffice/internal/repositories"
	"pos_backoffice/pkg/utils"

	"github.com/shopspring/decimal"
)

// StatusNotifier receives status changes of external orders after they are
// committed. Delivery problems stay inside the notifier.
type StatusNotifier interface {
	NotifyStatusChange(order models.Order)
}

type noopNotifier struct{}

func (noopNotifier) NotifyStatusChange(models.Order) {}

// OrderItemRequest adds a catalog product to an order.
type OrderItemRequest struct {
	ProductID int64           `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Notes     string          `json:"notes"`
}

// CreateOrderRequest is used for creating a new order.
type CreateOrderRequest struct {
	Type       models.OrderType   `json:"type" binding:"required"`
	CustomerID *int64             `json:"customer_id"`
	TableID    *int64             `json:"table_id"`
	Notes      string             `json:"notes"`
	Items      []OrderItemRequest `json:"items"`
	CreatedBy  *int64             `json:"-"`
}

// DiscountRequest sets the authoritative discount of an order.
type DiscountRequest struct {
	Value decimal.Decimal     `json:"value"`
	Kind  models.DiscountKind `json:"kind" binding:"required"`
}

// CompleteOrderResult carries the completed order and the cash change due.
// Replayed is set when the order had already been completed by an earlier
// request; nothing was written in that case.
type CompleteOrderResult struct {
	Order    *models.Order   `json:"order"`
	Change   decimal.Decimal `json:"change"`
	Replayed bool            `json:"replayed"`
}

// ExternalCustomer identifies the customer of a channel order by phone.
type ExternalCustomer struct {
	Name         string           `json:"name" binding:"required"`
	Phone        string           `json:"phone" binding:"required"`
	Address      string           `json:"address"`
	DeliveryCost *decimal.Decimal `json:"delivery_cost"`
}

// ExternalOrderRequest is a pre-priced order from the web ordering channel.
type ExternalOrderRequest struct {
	ExternalRef string             `json:"external_ref" binding:"required"`
	Type        models.OrderType   `json:"type" binding:"required"`
	Customer    ExternalCustomer   `json:"customer"`
	Items       []OrderItemRequest `json:"items"`
	SubTotal    decimal.Decimal    `json:"sub_total"`
	Tax         decimal.Decimal    `json:"tax"`
	Service     decimal.Decimal    `json:"service"`
	Discount    decimal.Decimal    `json:"discount"`
	Total       decimal.Decimal    `json:"total"`
	Notes       string             `json:"notes"`
}

// ExternalOrderResult reports whether the order was created by this call.
type ExternalOrderResult struct {
	Order    *models.Order `json:"order"`
	Replayed bool          `json:"replayed"`
}

// OrderService owns the order lifecycle and its side effects on payments,
// tables, inventory and shift cash.
type OrderService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error)
	AddItem(ctx context.Context, orderID int64, req OrderItemRequest) (*models.Order, error)
	UpdateItemQuantity(ctx context.Context, orderID, itemID int64, qty decimal.Decimal) (*models.Order, error)
	RemoveItem(ctx context.Context, orderID, itemID int64) (*models.Order, error)
	ApplyDiscount(ctx context.Context, orderID int64, req DiscountRequest) (*models.Order, error)
	CompleteOrder(ctx context.Context, orderID int64, tender pricing.Tender) (*CompleteOrderResult, error)
	CancelOrder(ctx context.Context, orderID int64, reason string) (*models.Order, error)
	CancelCompletedOrder(ctx context.Context, orderID int64, reason string, userID *int64) (*models.Order, error)
	MarkOutForDelivery(ctx context.Context, orderID int64) (*models.Order, error)
	PlaceExternalOrder(ctx context.Context, req ExternalOrderRequest) (*ExternalOrderResult, error)
	GetOrder(ctx context.Context, orderID int64) (*models.Order, error)
	ListOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error)
	GetReceipt(ctx context.Context, orderID int64) (*models.Receipt, error)
}

type orderService struct {
	store    repositories.Store
	ledger   stockLedger
	policy   policySource
	notifier StatusNotifier
}

// NewOrderService creates a new instance of OrderService. A nil notifier
// disables status notifications.
func NewOrderService(store repositories.Store, defaults pricing.Policy, stockPolicy models.StockPolicy, notifier StatusNotifier) OrderService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &orderService{
		store:    store,
		ledger:   stockLedger{policy: stockPolicy},
		policy:   policySource{defaults: defaults},
		notifier: notifier,
	}
}

func validateItemRequest(req OrderItemRequest) error {
	if req.ProductID <= 0 {
		return fmt.Errorf("%w: product_id is required", ErrValidation)
	}
	if !req.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity for product %d must be positive", ErrValidation, req.ProductID)
	}
	return nil
}

// lockOrder loads an order under a row lock.
func lockOrder(ctx context.Context, r *repositories.Repos, orderID int64) (*models.Order, error) {
	order, err := r.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound, "order %d", orderID)
	}
	return order, nil
}

func lockProcessingOrder(ctx context.Context, r *repositories.Repos, orderID int64) (*models.Order, error) {
	order, err := lockOrder(ctx, r, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusProcessing {
		return nil, fmt.Errorf("%w: order %d is %s", ErrOrderNotProcessing, order.ID, order.Status)
	}
	return order, nil
}

// newItem snapshots the product's current price and cost.
func newItem(ctx context.Context, r *repositories.Repos, orderID int64, req OrderItemRequest) (*models.OrderItem, error) {
	product, err := r.Products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound, "product %d", req.ProductID)
	}
	return &models.OrderItem{
		OrderID:   orderID,
		ProductID: product.ID,
		Name:      product.Name,
		Quantity:  req.Quantity,
		UnitPrice: product.Price,
		UnitCost:  product.Cost,
		LineTotal: product.Price.Mul(req.Quantity),
		Notes:     utils.NewNullString(req.Notes),
	}, nil
}

// recompute refreshes every derived amount of order from its stored items and
// payments and writes the order back.
func (s *orderService) recompute(ctx context.Context, r *repositories.Repos, order *models.Order) error {
	items, err := r.Orders.ListItems(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("loading items of order %d: %w", order.ID, err)
	}
	payments, err := r.Payments.ListByOrder(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("loading payments of order %d: %w", order.ID, err)
	}
	if err := s.price(ctx, r, order, items, pricing.Paid(payments)); err != nil {
		return err
	}
	if err := r.Orders.Update(ctx, order); err != nil {
		return fmt.Errorf("updating order %d: %w", order.ID, err)
	}
	order.Items = items
	order.Payments = payments
	return nil
}

func (s *orderService) pricingContext(ctx context.Context, r *repositories.Repos, order *models.Order) (pricing.Context, error) {
	policy, err := s.policy.load(ctx, r)
	if err != nil {
		return pricing.Context{}, fmt.Errorf("loading pricing policy: %w", err)
	}
	pc := pricing.Context{Policy: policy, ChannelPriced: order.WebSubTotal != nil}
	if order.Type.ChargesDelivery() && order.CustomerID != nil {
		customer, err := r.Customers.GetByID(ctx, *order.CustomerID)
		if err != nil {
			return pricing.Context{}, notFound(err, ErrCustomerNotFound, "customer %d", *order.CustomerID)
		}
		pc.DeliveryCost = customer.DeliveryCost
	}
	return pc, nil
}

// price recomputes the order totals. A fixed discount left larger than the
// order by an item edit is clamped.
func (s *orderService) price(ctx context.Context, r *repositories.Repos, order *models.Order, items []models.OrderItem, paid decimal.Decimal) error {
	pc, err := s.pricingContext(ctx, r, order)
	if err != nil {
		return err
	}
	stored := order.Discount
	if err := pricing.Recompute(order, items, paid, pc); err != nil {
		return err
	}
	if order.DiscountPercent.IsZero() && order.Discount.LessThan(stored) {
		utils.LogWarn("Fixed discount clamped to order amount", map[string]interface{}{
			"order_id": order.ID, "requested": stored.String(), "applied": order.Discount.String(),
		})
	}
	return nil
}

// checkDiscount rejects a newly applied discount that exceeds the order.
func (s *orderService) checkDiscount(ctx context.Context, r *repositories.Repos, order *models.Order) error {
	items, err := r.Orders.ListItems(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("loading items of order %d: %w", order.ID, err)
	}
	pc, err := s.pricingContext(ctx, r, order)
	if err != nil {
		return err
	}
	pc.StrictDiscount = true
	scratch := *order
	return pricing.Recompute(&scratch, items, decimal.Zero, pc)
}

func releaseTable(ctx context.Context, r *repositories.Repos, order *models.Order) error {
	if order.TableID == nil {
		return nil
	}
	table, err := r.Tables.GetForUpdate(ctx, *order.TableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("locking table %d: %w", *order.TableID, err)
	}
	if table.ReservedByOrderID == nil || *table.ReservedByOrderID != order.ID {
		return nil
	}
	if err := r.Tables.SetReservation(ctx, table.ID, nil); err != nil {
		return fmt.Errorf("releasing table %d: %w", table.ID, err)
	}
	return nil
}

func (s *orderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown order type %q", ErrValidation, req.Type)
	}
	if req.Type.ChargesDelivery() && req.CustomerID == nil {
		return nil, fmt.Errorf("%w: %s orders need a customer", ErrValidation, req.Type)
	}
	for _, it := range req.Items {
		if err := validateItemRequest(it); err != nil {
			return nil, err
		}
	}

	var order *models.Order
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		if err := lockPeriodShared(ctx, r); err != nil {
			return err
		}
		if _, err := EnsureDayOpen(ctx, r); err != nil {
			return err
		}
		shift, err := activeShift(ctx, r)
		if err != nil {
			return err
		}
		if req.CustomerID != nil {
			if _, err := r.Customers.GetByID(ctx, *req.CustomerID); err != nil {
				return notFound(err, ErrCustomerNotFound, "customer %d", *req.CustomerID)
			}
		}

		// Orders are never left in Pending: creation moves them to Processing.
		order = &models.Order{
			ShiftID:       shift.ID,
			Type:          req.Type,
			Status:        models.OrderStatusProcessing,
			PaymentStatus: models.PaymentStatusPending,
			CustomerID:    req.CustomerID,
			TableID:       req.TableID,
			Notes:         utils.NewNullString(req.Notes),
			CreatedBy:     req.CreatedBy,
		}
		if err := r.Orders.Create(ctx, order); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		if req.TableID != nil {
			table, err := r.Tables.GetForUpdate(ctx, *req.TableID)
			if err != nil {
				return notFound(err, ErrTableNotFound, "table %d", *req.TableID)
			}
			if table.ReservedByOrderID != nil {
				return fmt.Errorf("%w: table %s is held by order %d", ErrTableAlreadyReserved, table.Name, *table.ReservedByOrderID)
			}
			if err := r.Tables.SetReservation(ctx, table.ID, &order.ID); err != nil {
				return fmt.Errorf("reserving table %d: %w", table.ID, err)
			}
		}

		for _, itReq := range req.Items {
			item, err := newItem(ctx, r, order.ID, itReq)
			if err != nil {
				return err
			}
			if err := r.Orders.CreateItem(ctx, item); err != nil {
				return fmt.Errorf("creating order item: %w", err)
			}
		}
		return s.recompute(ctx, r, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) mutateProcessing(ctx context.Context, orderID int64, fn func(r *repositories.Repos, order *models.Order) error) (*models.Order, error) {
	var order *models.Order
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		order, err = lockProcessingOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if err := fn(r, order); err != nil {
			return err
		}
		return s.recompute(ctx, r, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) AddItem(ctx context.Context, orderID int64, req OrderItemRequest) (*models.Order, error) {
	if err := validateItemRequest(req); err != nil {
		return nil, err
	}
	return s.mutateProcessing(ctx, orderID, func(r *repositories.Repos, order *models.Order) error {
		item, err := newItem(ctx, r, order.ID, req)
		if err != nil {
			return err
		}
		if err := r.Orders.CreateItem(ctx, item); err != nil {
			return fmt.Errorf("creating order item: %w", err)
		}
		return nil
	})
}

func findItem(ctx context.Context, r *repositories.Repos, orderID, itemID int64) (*models.OrderItem, error) {
	items, err := r.Orders.ListItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading items of order %d: %w", orderID, err)
	}
	for i := range items {
		if items[i].ID == itemID {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("%w: item %d of order %d", ErrOrderItemNotFound, itemID, orderID)
}

func (s *orderService) UpdateItemQuantity(ctx context.Context, orderID, itemID int64, qty decimal.Decimal) (*models.Order, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	return s.mutateProcessing(ctx, orderID, func(r *repositories.Repos, order *models.Order) error {
		item, err := findItem(ctx, r, order.ID, itemID)
		if err != nil {
			return err
		}
		item.Quantity = qty
		item.LineTotal = item.UnitPrice.Mul(qty)
		if err := r.Orders.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("updating order item %d: %w", itemID, err)
		}
		return nil
	})
}

func (s *orderService) RemoveItem(ctx context.Context, orderID, itemID int64) (*models.Order, error) {
	return s.mutateProcessing(ctx, orderID, func(r *repositories.Repos, order *models.Order) error {
		if err := r.Orders.DeleteItem(ctx, order.ID, itemID); err != nil {
			return notFound(err, ErrOrderItemNotFound, "item %d of order %d", itemID, order.ID)
		}
		return nil
	})
}

func (s *orderService) ApplyDiscount(ctx context.Context, orderID int64, req DiscountRequest) (*models.Order, error) {
	return s.mutateProcessing(ctx, orderID, func(r *repositories.Repos, order *models.Order) error {
		if err := pricing.ApplyDiscount(order, req.Value, req.Kind); err != nil {
			return err
		}
		return s.checkDiscount(ctx, r, order)
	})
}

func (s *orderService) CompleteOrder(ctx context.Context, orderID int64, tender pricing.Tender) (*CompleteOrderResult, error) {
	var result *CompleteOrderResult
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		result = nil
		if err := lockPeriodShared(ctx, r); err != nil {
			return err
		}
		order, err := lockOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if order.Status == models.OrderStatusCompleted {
			if order.Items, err = r.Orders.ListItems(ctx, order.ID); err != nil {
				return err
			}
			if order.Payments, err = r.Payments.ListByOrder(ctx, order.ID); err != nil {
				return err
			}
			result = &CompleteOrderResult{Order: order, Change: decimal.Zero, Replayed: true}
			return nil
		}
		if order.Status != models.OrderStatusProcessing && order.Status != models.OrderStatusOutForDelivery {
			return fmt.Errorf("%w: order %d is %s", ErrOrderNotProcessing, order.ID, order.Status)
		}

		shift, err := activeShift(ctx, r)
		if err != nil {
			return err
		}
		// Web orders left behind by a closed shift are settled in the current one.
		if order.ShiftID != shift.ID {
			order.ShiftID = shift.ID
		}

		items, err := r.Orders.ListItems(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("loading items of order %d: %w", order.ID, err)
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: order %d has no items", ErrValidation, order.ID)
		}
		existing, err := r.Payments.ListByOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("loading payments of order %d: %w", order.ID, err)
		}
		alreadyPaid := pricing.Paid(existing)
		if err := s.price(ctx, r, order, items, alreadyPaid); err != nil {
			return err
		}

		split, err := pricing.SplitPayments(decimal.Max(order.Total.Sub(alreadyPaid), decimal.Zero), tender)
		if err != nil {
			return err
		}
		payments := existing
		for _, p := range split.Payments {
			p.OrderID = order.ID
			p.ShiftID = shift.ID
			if err := r.Payments.Create(ctx, &p); err != nil {
				return fmt.Errorf("recording %s payment: %w", p.Method, err)
			}
			payments = append(payments, p)
		}

		now := time.Now()
		order.Status = models.OrderStatusCompleted
		order.CompletedAt = &now
		if err := s.price(ctx, r, order, items, pricing.Paid(payments)); err != nil {
			return err
		}
		if err := releaseTable(ctx, r, order); err != nil {
			return err
		}

		graph, err := loadGraph(ctx, r)
		if err != nil {
			return err
		}
		sale := movement{kind: models.MovementSale, referenceID: &order.ID, reason: fmt.Sprintf("order #%d", order.ID)}
		if err := s.ledger.decrementForSale(ctx, r, graph, items, sale); err != nil {
			return err
		}

		if err := r.Orders.Update(ctx, order); err != nil {
			return fmt.Errorf("completing order %d: %w", order.ID, err)
		}
		order.Items = items
		order.Payments = payments
		result = &CompleteOrderResult{Order: order, Change: split.Change}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Replayed {
		utils.LogInfo("Completion replayed for already completed order", map[string]interface{}{"order_id": orderID})
		return result, nil
	}
	utils.LogInfo("Order completed", map[string]interface{}{
		"order_id": result.Order.ID, "total": result.Order.Total.String(), "payment_status": result.Order.PaymentStatus,
	})
	s.notify(result.Order)
	return result, nil
}

func (s *orderService) notify(order *models.Order) {
	if order.Type.IsWeb() {
		s.notifier.NotifyStatusChange(*order)
	}
}

func (s *orderService) CancelOrder(ctx context.Context, orderID int64, reason string) (*models.Order, error) {
	var order *models.Order
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		order, err = lockProcessingOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		order.Status = models.OrderStatusCancelled
		order.CancelReason = utils.NewNullString(reason)
		if err := releaseTable(ctx, r, order); err != nil {
			return err
		}
		if err := s.recompute(ctx, r, order); err != nil {
			return err
		}
		// Nothing was sold, so a cancelled order never carries profit.
		order.Profit = decimal.Zero
		return r.Orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.notify(order)
	return order, nil
}

func (s *orderService) CancelCompletedOrder(ctx context.Context, orderID int64, reason string, userID *int64) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: a reason is required to cancel a completed order", ErrValidation)
	}

	var order *models.Order
	var removed int64
	var reconciled *models.Shift
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		reconciled = nil
		if err := lockPeriodShared(ctx, r); err != nil {
			return err
		}
		if _, err := EnsureDayOpen(ctx, r); err != nil {
			return err
		}
		var err error
		order, err = lockOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusCompleted {
			return fmt.Errorf("%w: order %d is %s, not completed", ErrOrderNotProcessing, order.ID, order.Status)
		}

		if removed, err = r.Payments.DeleteByOrder(ctx, order.ID); err != nil {
			return fmt.Errorf("deleting payments of order %d: %w", order.ID, err)
		}

		items, err := r.Orders.ListItems(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("loading items of order %d: %w", order.ID, err)
		}
		graph, err := loadGraph(ctx, r)
		if err != nil {
			return err
		}
		reversal := movement{
			kind: models.MovementSaleReversal, referenceID: &order.ID, userID: userID,
			reason: fmt.Sprintf("cancelled order #%d: %s", order.ID, reason),
		}
		if err := s.ledger.restockForReversal(ctx, r, graph, items, reversal); err != nil {
			return err
		}

		order.Status = models.OrderStatusCancelled
		order.CancelReason = &reason
		if err := s.recompute(ctx, r, order); err != nil {
			return err
		}
		order.Profit = decimal.Zero
		if err := r.Orders.Update(ctx, order); err != nil {
			return fmt.Errorf("cancelling order %d: %w", order.ID, err)
		}

		shift, err := r.Shifts.GetForUpdate(ctx, order.ShiftID)
		if err != nil {
			return fmt.Errorf("locking shift %d: %w", order.ShiftID, err)
		}
		if shift.Closed && shift.RealCash != nil {
			if err := reconcileShift(ctx, r, shift, *shift.RealCash); err != nil {
				return err
			}
			if err := r.Shifts.Update(ctx, shift); err != nil {
				return fmt.Errorf("re-reconciling shift %d: %w", shift.ID, err)
			}
			reconciled = shift
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"order_id": order.ID, "reason": reason, "payments_removed": removed,
	}
	if userID != nil {
		fields["user_id"] = *userID
	}
	if reconciled != nil {
		fields["shift_id"] = reconciled.ID
		fields["shift_deficit"] = reconciled.Deficit.String()
	}
	utils.LogWarn("Completed order cancelled", fields)
	s.notify(order)
	return order, nil
}

func (s *orderService) MarkOutForDelivery(ctx context.Context, orderID int64) (*models.Order, error) {
	var order *models.Order
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		order, err = lockProcessingOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if order.Type != models.OrderTypeWebDelivery {
			return fmt.Errorf("%w: only web delivery orders go out for delivery", ErrOrderNotProcessing)
		}
		order.Status = models.OrderStatusOutForDelivery
		if err := r.Orders.Update(ctx, order); err != nil {
			return fmt.Errorf("updating order %d: %w", order.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(order)
	return order, nil
}

// upsertChannelCustomer finds the customer by phone, creating or refreshing it.
func upsertChannelCustomer(ctx context.Context, r *repositories.Repos, in ExternalCustomer) (*models.Customer, error) {
	normalized, err := normalizePhone(&in.Phone)
	if err != nil {
		return nil, err
	}
	if normalized == nil {
		return nil, fmt.Errorf("%w: customer phone is required", ErrValidation)
	}
	phone := *normalized
	customer, err := r.Customers.FindByPhone(ctx, phone)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("looking up customer: %w", err)
	}
	if customer == nil {
		customer = &models.Customer{Name: strings.TrimSpace(in.Name), Phone: &phone, Address: utils.NewNullString(in.Address)}
		if in.DeliveryCost != nil {
			customer.DeliveryCost = *in.DeliveryCost
		}
		if err := r.Customers.Create(ctx, customer); err != nil {
			return nil, fmt.Errorf("creating customer: %w", err)
		}
		return customer, nil
	}
	if addr := utils.NewNullString(in.Address); addr != nil {
		customer.Address = addr
	}
	if in.DeliveryCost != nil {
		customer.DeliveryCost = *in.DeliveryCost
	}
	if err := r.Customers.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("updating customer: %w", err)
	}
	return customer, nil
}

func (s *orderService) PlaceExternalOrder(ctx context.Context, req ExternalOrderRequest) (*ExternalOrderResult, error) {
	req.ExternalRef = strings.TrimSpace(req.ExternalRef)
	if req.ExternalRef == "" {
		return nil, fmt.Errorf("%w: external_ref is required", ErrValidation)
	}
	if !req.Type.IsWeb() {
		return nil, fmt.Errorf("%w: %q is not a web order type", ErrValidation, req.Type)
	}
	if strings.TrimSpace(req.Customer.Phone) == "" {
		return nil, fmt.Errorf("%w: customer phone is required", ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrValidation)
	}
	for _, it := range req.Items {
		if err := validateItemRequest(it); err != nil {
			return nil, err
		}
	}
	for _, amount := range []decimal.Decimal{req.SubTotal, req.Tax, req.Service, req.Discount, req.Total} {
		if amount.IsNegative() {
			return nil, fmt.Errorf("%w: channel amounts cannot be negative", ErrValidation)
		}
	}

	var result *ExternalOrderResult
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		result = nil
		existing, err := r.Orders.GetByExternalRef(ctx, req.ExternalRef)
		if err == nil {
			if existing.Items, err = r.Orders.ListItems(ctx, existing.ID); err != nil {
				return err
			}
			result = &ExternalOrderResult{Order: existing, Replayed: true}
			return nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("looking up external order: %w", err)
		}

		if err := lockPeriodShared(ctx, r); err != nil {
			return err
		}
		if _, err := EnsureDayOpen(ctx, r); err != nil {
			return err
		}
		shift, err := activeShift(ctx, r)
		if err != nil {
			return err
		}
		customer, err := upsertChannelCustomer(ctx, r, req.Customer)
		if err != nil {
			return err
		}

		ref := req.ExternalRef
		webSubTotal, webTotal := req.SubTotal, req.Total
		order := &models.Order{
			ShiftID:       shift.ID,
			Type:          req.Type,
			Status:        models.OrderStatusProcessing,
			PaymentStatus: models.PaymentStatusPending,
			CustomerID:    &customer.ID,
			Service:       req.Service,
			Tax:           req.Tax,
			Discount:      req.Discount,
			ExternalRef:   &ref,
			WebSubTotal:   &webSubTotal,
			WebTotal:      &webTotal,
			Notes:         utils.NewNullString(req.Notes),
		}
		if err := r.Orders.Create(ctx, order); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return fmt.Errorf("%w: external order %s", ErrConflict, ref)
			}
			return fmt.Errorf("creating external order: %w", err)
		}
		for _, itReq := range req.Items {
			item, err := newItem(ctx, r, order.ID, itReq)
			if err != nil {
				return err
			}
			if err := r.Orders.CreateItem(ctx, item); err != nil {
				return fmt.Errorf("creating order item: %w", err)
			}
		}
		items, err := r.Orders.ListItems(ctx, order.ID)
		if err != nil {
			return err
		}
		if err := s.price(ctx, r, order, items, decimal.Zero); err != nil {
			return err
		}
		diff := webSubTotal.Sub(order.SubTotal)
		order.WebPosDiff = &diff
		if err := r.Orders.Update(ctx, order); err != nil {
			return fmt.Errorf("updating external order: %w", err)
		}
		order.Items = items
		result = &ExternalOrderResult{Order: order}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Replayed {
		return result, nil
	}

	order := result.Order
	if !order.WebPosDiff.IsZero() {
		utils.LogWarn("Web order price differs from catalog", map[string]interface{}{
			"order_id": order.ID, "external_ref": req.ExternalRef,
			"web_sub_total": order.WebSubTotal.String(), "pos_sub_total": order.SubTotal.String(),
			"web_pos_diff": order.WebPosDiff.String(),
		})
	}
	s.notify(order)
	return result, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var order *models.Order
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		order, err = r.Orders.GetByID(ctx, orderID)
		if err != nil {
			return notFound(err, ErrOrderNotFound, "order %d", orderID)
		}
		if order.Items, err = r.Orders.ListItems(ctx, orderID); err != nil {
			return fmt.Errorf("loading items of order %d: %w", orderID, err)
		}
		if order.Payments, err = r.Payments.ListByOrder(ctx, orderID); err != nil {
			return fmt.Errorf("loading payments of order %d: %w", orderID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	var orders []models.Order
	var total int
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		orders, total, err = r.Orders.List(ctx, filters)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, total, nil
}

func (s *orderService) GetReceipt(ctx context.Context, orderID int64) (*models.Receipt, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	receipt := &models.Receipt{
		OrderID:       order.ID,
		Type:          order.Type,
		Status:        order.Status,
		Lines:         make([]models.ReceiptLine, 0, len(order.Items)),
		SubTotal:      order.SubTotal,
		Service:       order.Service,
		Tax:           order.Tax,
		Discount:      order.Discount,
		Total:         order.Total,
		Payments:      order.Payments,
		Paid:          pricing.Paid(order.Payments),
		PaymentStatus: order.PaymentStatus,
		IssuedAt:      time.Now(),
	}
	for _, it := range order.Items {
		receipt.Lines = append(receipt.Lines, models.ReceiptLine{
			Name: it.Name, Quantity: it.Quantity, UnitPrice: it.UnitPrice, LineTotal: it.LineTotal, Notes: it.Notes,
		})
	}

	err = s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		receipt.TableName, receipt.CustomerName = nil, nil
		if order.TableID != nil {
			if table, err := r.Tables.GetByID(ctx, *order.TableID); err == nil {
				receipt.TableName = &table.Name
			} else if !errors.Is(err, repositories.ErrNotFound) {
				return err
			}
		}
		if order.CustomerID != nil {
			if customer, err := r.Customers.GetByID(ctx, *order.CustomerID); err == nil {
				receipt.CustomerName = &customer.Name
			} else if !errors.Is(err, repositories.ErrNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("building receipt for order %d: %w", orderID, err)
	}
	return receipt, nil
}
