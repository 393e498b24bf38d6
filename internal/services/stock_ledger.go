package services

import (
	"context"
	"fmt"
	"sort"

	"pos_backoffice/internal/models"
	"pos_backoffice/internal/recipe"
	"pos_backoffice/internal/repositories"
	"pos_backoffice/pkg/utils"

	"github.com/shopspring/decimal"
)

// stockLedger applies inventory changes inside a unit of work. Every path
// that lowers a leaf quantity goes through decrement, so the stock policy is
// enforced in exactly one place.
type stockLedger struct {
	policy models.StockPolicy
}

// movement describes why a leaf quantity changes.
type movement struct {
	kind        models.MovementType
	referenceID *int64
	userID      *int64
	reason      string
}

func (m movement) record(ctx context.Context, r *repositories.Repos, productID int64, delta, after decimal.Decimal) error {
	mv := &models.InventoryMovement{
		ProductID:       productID,
		MovementType:    m.kind,
		QuantityChanged: delta,
		QuantityAfter:   after,
		ReferenceID:     m.referenceID,
		UserID:          m.userID,
		Reason:          utils.NewNullString(m.reason),
	}
	if err := r.Movements.Create(ctx, mv); err != nil {
		return fmt.Errorf("recording %s movement for product %d: %w", m.kind, productID, err)
	}
	return nil
}

func loadGraph(ctx context.Context, r *repositories.Repos) (*recipe.Graph, error) {
	products, err := r.Products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}
	return recipe.NewGraph(products), nil
}

func lockLeaf(ctx context.Context, r *repositories.Repos, productID int64) (*models.InventoryItem, error) {
	item, err := r.Inventory.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound, "inventory for product %d", productID)
	}
	return item, nil
}

// decrement lowers one leaf by qty under the configured policy.
func (l stockLedger) decrement(ctx context.Context, r *repositories.Repos, productID int64, qty decimal.Decimal, m movement) error {
	item, err := lockLeaf(ctx, r, productID)
	if err != nil {
		return err
	}
	after := item.Quantity.Sub(qty)
	if after.IsNegative() {
		if l.policy == models.StockPolicyRejectNegative {
			return fmt.Errorf("%w: product %d has %s, needs %s", ErrInsufficientStock, productID, item.Quantity, qty)
		}
		utils.LogWarn("Stock going negative", map[string]interface{}{
			"product_id": productID, "on_hand": item.Quantity.String(), "requested": qty.String(), "movement": m.kind,
		})
	}
	if err := r.Inventory.SetQuantity(ctx, productID, after); err != nil {
		return fmt.Errorf("updating stock of product %d: %w", productID, err)
	}
	return m.record(ctx, r, productID, qty.Neg(), after)
}

// increment raises one leaf by qty.
func (l stockLedger) increment(ctx context.Context, r *repositories.Repos, productID int64, qty decimal.Decimal, m movement) error {
	item, err := lockLeaf(ctx, r, productID)
	if err != nil {
		return err
	}
	after := item.Quantity.Add(qty)
	if err := r.Inventory.SetQuantity(ctx, productID, after); err != nil {
		return fmt.Errorf("updating stock of product %d: %w", productID, err)
	}
	return m.record(ctx, r, productID, qty, after)
}

// setCounted overwrites a leaf quantity with a counted value and returns the delta.
func (l stockLedger) setCounted(ctx context.Context, r *repositories.Repos, productID int64, counted decimal.Decimal, m movement) (decimal.Decimal, decimal.Decimal, error) {
	item, err := lockLeaf(ctx, r, productID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	delta := counted.Sub(item.Quantity)
	if err := r.Inventory.SetQuantity(ctx, productID, counted); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("updating stock of product %d: %w", productID, err)
	}
	if err := m.record(ctx, r, productID, delta, counted); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return item.Quantity, delta, nil
}

// leafDemand expands sold quantities into leaf quantities. Manufactured
// products are flattened through the recipe graph; leaves map to themselves.
func leafDemand(graph *recipe.Graph, sold map[int64]decimal.Decimal) (map[int64]decimal.Decimal, error) {
	demand := make(map[int64]decimal.Decimal)
	for productID, qty := range sold {
		if _, ok := graph.Product(productID); !ok {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
		}
		lines, err := graph.Flatten(productID)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			demand[line.LeafProductID] = demand[line.LeafProductID].Add(qty.Mul(line.QuantityPerUnit))
		}
	}
	return demand, nil
}

func sortedProductIDs(m map[int64]decimal.Decimal) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// decrementForSale takes the leaves of every sold product out of stock in one
// pass. Leaves are locked in ascending id order so concurrent sales cannot
// deadlock on each other.
func (l stockLedger) decrementForSale(ctx context.Context, r *repositories.Repos, graph *recipe.Graph, items []models.OrderItem, m movement) error {
	return l.applySale(ctx, r, graph, items, m, l.decrement)
}

// restockForReversal is the inverse of decrementForSale.
func (l stockLedger) restockForReversal(ctx context.Context, r *repositories.Repos, graph *recipe.Graph, items []models.OrderItem, m movement) error {
	return l.applySale(ctx, r, graph, items, m, l.increment)
}

type leafOp func(ctx context.Context, r *repositories.Repos, productID int64, qty decimal.Decimal, m movement) error

func (l stockLedger) applySale(ctx context.Context, r *repositories.Repos, graph *recipe.Graph, items []models.OrderItem, m movement, op leafOp) error {
	sold := make(map[int64]decimal.Decimal)
	for _, it := range items {
		sold[it.ProductID] = sold[it.ProductID].Add(it.Quantity)
	}
	demand, err := leafDemand(graph, sold)
	if err != nil {
		return err
	}
	for _, leafID := range sortedProductIDs(demand) {
		if err := op(ctx, r, leafID, demand[leafID], m); err != nil {
			return err
		}
	}
	return nil
}

// applyCostChange stores a new leaf cost and rolls it up through every
// manufactured product that depends on it, children first.
func applyCostChange(ctx context.Context, r *repositories.Repos, graph *recipe.Graph, productID int64, cost decimal.Decimal) error {
	if err := r.Products.UpdateCost(ctx, productID, cost); err != nil {
		return notFound(err, ErrProductNotFound, "updating cost of product %d", productID)
	}
	graph.SetCost(productID, cost)
	return persistRecalculation(ctx, r, graph, productID)
}

func persistRecalculation(ctx context.Context, r *repositories.Repos, graph *recipe.Graph, changed ...int64) error {
	updates, err := graph.Recalculate(changed...)
	if err != nil {
		return err
	}
	for _, u := range updates {
		if err := r.Products.UpdateCost(ctx, u.ProductID, u.Cost); err != nil {
			return fmt.Errorf("storing recalculated cost of product %d: %w", u.ProductID, err)
		}
	}
	return nil
}
