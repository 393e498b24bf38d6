// Package recipe models manufactured-product recipes as a DAG over leaf
// products and provides flattening, cost rollup and topological ordering.
package recipe

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"pos_backoffice/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrCyclicRecipe is returned when a product (transitively) contains itself.
	ErrCyclicRecipe = errors.New("recipe graph contains a cycle")
	// ErrUnknownProduct is returned for ids that are not part of the graph.
	ErrUnknownProduct = errors.New("product not in recipe graph")
)

type node struct {
	product models.Product
	edges   []models.ComponentEdge
}

// Graph is an arena of products indexed by id. Edges go from a manufactured
// product to its components.
type Graph struct {
	nodes   map[int64]*node
	parents map[int64][]int64
}

// NewGraph indexes products. Components of non-manufactured products are ignored.
func NewGraph(products []models.Product) *Graph {
	g := &Graph{
		nodes:   make(map[int64]*node, len(products)),
		parents: make(map[int64][]int64),
	}
	for _, p := range products {
		n := &node{product: p}
		if p.IsManufactured() {
			n.edges = append(n.edges, p.Components...)
		}
		g.nodes[p.ID] = n
	}
	for id, n := range g.nodes {
		for _, e := range n.edges {
			g.parents[e.ComponentID] = append(g.parents[e.ComponentID], id)
		}
	}
	for id := range g.parents {
		sort.Slice(g.parents[id], func(i, j int) bool { return g.parents[id][i] < g.parents[id][j] })
	}
	return g
}

// Product returns the indexed product.
func (g *Graph) Product(id int64) (models.Product, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return models.Product{}, false
	}
	return n.product, true
}

// Validate checks that every edge points to a known product and that the
// graph is acyclic. The returned error names the first cycle found.
func (g *Graph) Validate() error {
	for _, id := range g.sortedIDs() {
		for _, e := range g.nodes[id].edges {
			if _, ok := g.nodes[e.ComponentID]; !ok {
				return fmt.Errorf("%w: component %d of product %d", ErrUnknownProduct, e.ComponentID, id)
			}
			if !e.QuantityPerUnit.IsPositive() {
				return fmt.Errorf("component %d of product %d: quantity per unit must be positive", e.ComponentID, id)
			}
		}
	}

	const (
		white = iota
		grey
		black
	)
	color := make(map[int64]int, len(g.nodes))
	var path []int64

	var visit func(id int64) error
	visit = func(id int64) error {
		color[id] = grey
		path = append(path, id)
		for _, e := range g.nodes[id].edges {
			switch color[e.ComponentID] {
			case grey:
				return cycleError(path, e.ComponentID)
			case white:
				if err := visit(e.ComponentID); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		return nil
	}

	for _, id := range g.sortedIDs() {
		if color[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

func cycleError(path []int64, back int64) error {
	start := 0
	for i, id := range path {
		if id == back {
			start = i
			break
		}
	}
	parts := make([]string, 0, len(path)-start+1)
	for _, id := range path[start:] {
		parts = append(parts, fmt.Sprint(id))
	}
	parts = append(parts, fmt.Sprint(back))
	return fmt.Errorf("%w: %s", ErrCyclicRecipe, strings.Join(parts, " -> "))
}

// Flatten expands id into leaf quantities per one unit of id. Quantities
// multiply along each path and repeated leaves are summed. A leaf flattens to
// itself with quantity 1.
func (g *Graph) Flatten(id int64) ([]models.RecipeLine, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProduct, id)
	}
	acc := make(map[int64]decimal.Decimal)
	onPath := make(map[int64]bool)
	var path []int64

	var walk func(id int64, factor decimal.Decimal) error
	walk = func(id int64, factor decimal.Decimal) error {
		n, ok := g.nodes[id]
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownProduct, id)
		}
		if !n.product.IsManufactured() {
			acc[id] = acc[id].Add(factor)
			return nil
		}
		if onPath[id] {
			return cycleError(path, id)
		}
		onPath[id] = true
		path = append(path, id)
		for _, e := range n.edges {
			if err := walk(e.ComponentID, factor.Mul(e.QuantityPerUnit)); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		onPath[id] = false
		return nil
	}

	if err := walk(id, decimal.NewFromInt(1)); err != nil {
		return nil, err
	}

	lines := make([]models.RecipeLine, 0, len(acc))
	for leaf, qty := range acc {
		lines = append(lines, models.RecipeLine{LeafProductID: leaf, QuantityPerUnit: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].LeafProductID < lines[j].LeafProductID })
	return lines, nil
}

// Cost is the current cost of id: the stored cost for a leaf, the sum of
// component cost times quantity for a manufactured product.
func (g *Graph) Cost(id int64) (decimal.Decimal, error) {
	memo := make(map[int64]decimal.Decimal)
	onPath := make(map[int64]bool)
	var path []int64

	var cost func(id int64) (decimal.Decimal, error)
	cost = func(id int64) (decimal.Decimal, error) {
		n, ok := g.nodes[id]
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: %d", ErrUnknownProduct, id)
		}
		if !n.product.IsManufactured() {
			return n.product.Cost, nil
		}
		if c, ok := memo[id]; ok {
			return c, nil
		}
		if onPath[id] {
			return decimal.Zero, cycleError(path, id)
		}
		onPath[id] = true
		path = append(path, id)
		total := decimal.Zero
		for _, e := range n.edges {
			c, err := cost(e.ComponentID)
			if err != nil {
				return decimal.Zero, err
			}
			total = total.Add(c.Mul(e.QuantityPerUnit))
		}
		path = path[:len(path)-1]
		onPath[id] = false
		memo[id] = total
		return total, nil
	}
	return cost(id)
}

// DependentsInTopoOrder returns every manufactured product that directly or
// transitively contains one of ids, ordered so that components come before the
// products that use them. The given ids themselves are included only when they
// are manufactured.
func (g *Graph) DependentsInTopoOrder(ids ...int64) ([]int64, error) {
	affected := make(map[int64]bool)
	queue := make([]int64, 0, len(ids))
	for _, id := range ids {
		n, ok := g.nodes[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownProduct, id)
		}
		if n.product.IsManufactured() && !affected[id] {
			affected[id] = true
		}
		queue = append(queue, id)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, parent := range g.parents[id] {
			if !affected[parent] {
				affected[parent] = true
				queue = append(queue, parent)
			}
		}
	}

	// Kahn's algorithm over the affected subgraph; edges component -> parent.
	indegree := make(map[int64]int, len(affected))
	for id := range affected {
		for _, e := range g.nodes[id].edges {
			if affected[e.ComponentID] {
				indegree[id]++
			}
		}
	}
	ready := make([]int64, 0)
	for id := range affected {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })

	order := make([]int64, 0, len(affected))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		var next []int64
		for _, parent := range g.parents[id] {
			if !affected[parent] {
				continue
			}
			indegree[parent]--
			if indegree[parent] == 0 {
				next = append(next, parent)
			}
		}
		ready = append(ready, next...)
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
	}
	if len(order) != len(affected) {
		return nil, fmt.Errorf("%w: among dependents of %v", ErrCyclicRecipe, ids)
	}
	return order, nil
}

// SetCost updates the cost of a node in the arena.
func (g *Graph) SetCost(id int64, cost decimal.Decimal) {
	if n, ok := g.nodes[id]; ok {
		n.product.Cost = cost
	}
}

// Recalculate recomputes the cost of every manufactured product depending on
// changed, children before parents, updating the arena as it goes. The result
// maps product id to its new cost in the order they were computed.
func (g *Graph) Recalculate(changed ...int64) ([]CostUpdate, error) {
	order, err := g.DependentsInTopoOrder(changed...)
	if err != nil {
		return nil, err
	}
	updates := make([]CostUpdate, 0, len(order))
	for _, id := range order {
		n := g.nodes[id]
		total := decimal.Zero
		for _, e := range n.edges {
			component, ok := g.nodes[e.ComponentID]
			if !ok {
				return nil, fmt.Errorf("%w: component %d of product %d", ErrUnknownProduct, e.ComponentID, id)
			}
			total = total.Add(component.product.Cost.Mul(e.QuantityPerUnit))
		}
		n.product.Cost = total
		updates = append(updates, CostUpdate{ProductID: id, Cost: total})
	}
	return updates, nil
}

// CostUpdate is one recalculated manufactured cost.
type CostUpdate struct {
	ProductID int64
	Cost      decimal.Decimal
}

func (g *Graph) sortedIDs() []int64 {
	ids := make([]int64, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
