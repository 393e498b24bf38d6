package recipe

import (
	"errors"
	"testing"

	"pos_backoffice/internal/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func leaf(id int64, cost string) models.Product {
	return models.Product{ID: id, Type: models.ProductTypeRawMaterial, Cost: dec(cost)}
}

func manufactured(id int64, edges ...models.ComponentEdge) models.Product {
	return models.Product{ID: id, Type: models.ProductTypeManufactured, Components: edges}
}

func edge(component int64, qty string) models.ComponentEdge {
	return models.ComponentEdge{ComponentID: component, QuantityPerUnit: dec(qty)}
}

// Bun(1)=0.5, Patty(2)=2.0, Sauce(3)=0.1
// Burger(10) = Bun x1 + Patty x1
// Combo(11)  = Burger x2 + Sauce x3
// Platter(12)= Combo x1 + Burger x1 + Bun x0.5
func burgerGraph() *Graph {
	return NewGraph([]models.Product{
		leaf(1, "0.5"),
		leaf(2, "2.0"),
		leaf(3, "0.1"),
		manufactured(10, edge(1, "1"), edge(2, "1")),
		manufactured(11, edge(10, "2"), edge(3, "3")),
		manufactured(12, edge(11, "1"), edge(10, "1"), edge(1, "0.5")),
	})
}

func TestBurgerCost(t *testing.T) {
	g := burgerGraph()
	cost, err := g.Cost(10)
	if err != nil {
		t.Fatalf("Cost: %v", err)
	}
	if !cost.Equal(dec("2.5")) {
		t.Errorf("cost(Burger) = %s, want 2.5", cost)
	}
}

func TestFlattenMultipliesAlongPaths(t *testing.T) {
	g := burgerGraph()
	lines, err := g.Flatten(12)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	want := map[int64]string{1: "3.5", 2: "3", 3: "3"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %+v", len(lines), len(want), lines)
	}
	for _, l := range lines {
		if !l.QuantityPerUnit.Equal(dec(want[l.LeafProductID])) {
			t.Errorf("leaf %d qty = %s, want %s", l.LeafProductID, l.QuantityPerUnit, want[l.LeafProductID])
		}
	}
}

func TestFlattenLeafIsItself(t *testing.T) {
	lines, err := burgerGraph().Flatten(2)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if len(lines) != 1 || lines[0].LeafProductID != 2 || !lines[0].QuantityPerUnit.Equal(decimal.NewFromInt(1)) {
		t.Errorf("unexpected lines %+v", lines)
	}
}

func TestFlattenedCostMatchesRollup(t *testing.T) {
	g := burgerGraph()
	for _, id := range []int64{10, 11, 12} {
		lines, err := g.Flatten(id)
		if err != nil {
			t.Fatalf("Flatten(%d): %v", id, err)
		}
		viaLeaves := decimal.Zero
		for _, l := range lines {
			p, _ := g.Product(l.LeafProductID)
			viaLeaves = viaLeaves.Add(p.Cost.Mul(l.QuantityPerUnit))
		}
		rolled, err := g.Cost(id)
		if err != nil {
			t.Fatalf("Cost(%d): %v", id, err)
		}
		if !viaLeaves.Equal(rolled) {
			t.Errorf("product %d: flattened cost %s != rollup %s", id, viaLeaves, rolled)
		}
	}
}

func TestValidateDetectsCycles(t *testing.T) {
	cases := []struct {
		name     string
		products []models.Product
	}{
		{"self loop", []models.Product{manufactured(1, edge(1, "1"))}},
		{"two nodes", []models.Product{manufactured(1, edge(2, "1")), manufactured(2, edge(1, "1"))}},
		{"three nodes", []models.Product{
			manufactured(1, edge(2, "1")),
			manufactured(2, edge(3, "1")),
			manufactured(3, edge(1, "2")),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGraph(tc.products)
			if err := g.Validate(); !errors.Is(err, ErrCyclicRecipe) {
				t.Errorf("Validate() = %v, want ErrCyclicRecipe", err)
			}
			if _, err := g.Flatten(1); !errors.Is(err, ErrCyclicRecipe) {
				t.Errorf("Flatten() = %v, want ErrCyclicRecipe", err)
			}
			if _, err := g.Cost(1); !errors.Is(err, ErrCyclicRecipe) {
				t.Errorf("Cost() = %v, want ErrCyclicRecipe", err)
			}
		})
	}
}

func TestValidateAcceptsDiamond(t *testing.T) {
	if err := burgerGraph().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsUnknownComponent(t *testing.T) {
	g := NewGraph([]models.Product{manufactured(1, edge(99, "1"))})
	if err := g.Validate(); !errors.Is(err, ErrUnknownProduct) {
		t.Errorf("Validate() = %v, want ErrUnknownProduct", err)
	}
}

func TestDependentsInTopoOrder(t *testing.T) {
	g := burgerGraph()
	order, err := g.DependentsInTopoOrder(2)
	if err != nil {
		t.Fatalf("DependentsInTopoOrder: %v", err)
	}
	want := []int64{10, 11, 12}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	order, err = g.DependentsInTopoOrder(3)
	if err != nil {
		t.Fatalf("DependentsInTopoOrder: %v", err)
	}
	if len(order) != 2 || order[0] != 11 || order[1] != 12 {
		t.Errorf("order = %v, want [11 12]", order)
	}
}

func TestRecalculateAfterLeafCostChange(t *testing.T) {
	g := burgerGraph()
	g.SetCost(2, dec("3.0"))
	updates, err := g.Recalculate(2)
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	got := make(map[int64]decimal.Decimal)
	for _, u := range updates {
		got[u.ProductID] = u.Cost
	}
	// Burger 0.5+3 = 3.5; Combo 2*3.5 + 0.3 = 7.3; Platter 7.3 + 3.5 + 0.25 = 11.05
	want := map[int64]string{10: "3.5", 11: "7.3", 12: "11.05"}
	for id, w := range want {
		if !got[id].Equal(dec(w)) {
			t.Errorf("cost(%d) = %s, want %s", id, got[id], w)
		}
	}
}
