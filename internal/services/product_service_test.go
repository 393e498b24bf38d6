package services

import (
	"errors"
	"testing"

	"pos_backoffice/internal/models"
)

func TestCreateProductValidation(t *testing.T) {
	env := newTestEnv(t, models.StockPolicyAllowNegative)
	bun := env.leaf(t, "Bun", "0.5")
	if bun.Unit != "pcs" {
		t.Errorf("default unit = %q", bun.Unit)
	}

	cases := []struct {
		name string
		req  CreateProductRequest
		want error
	}{
		{"empty name", CreateProductRequest{Type: models.ProductTypeConsumable}, ErrValidation},
		{"unknown type", CreateProductRequest{Name: "X", Type: "service"}, ErrValidation},
		{"negative price", CreateProductRequest{Name: "X", Type: models.ProductTypeConsumable, Price: dec("-1")}, ErrValidation},
		{"leaf with components", CreateProductRequest{Name: "X", Type: models.ProductTypeRawMaterial, Components: []models.ComponentEdge{edge(bun.ID, "1")}}, ErrValidation},
		{"unknown component", CreateProductRequest{Name: "X", Type: models.ProductTypeManufactured, Components: []models.ComponentEdge{edge(999, "1")}}, ErrProductNotFound},
		{"zero quantity", CreateProductRequest{Name: "X", Type: models.ProductTypeManufactured, Components: []models.ComponentEdge{edge(bun.ID, "0")}}, ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.products.CreateProduct(env.ctx, tc.req); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}

	products, err := env.products.ListProducts(env.ctx)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 1 {
		t.Errorf("products after rejected creates = %d, want 1", len(products))
	}
}

func TestSetComponentsRejectsCycle(t *testing.T) {
	env := newTestEnv(t, models.StockPolicyAllowNegative)
	bun := env.leaf(t, "Bun", "0.5")
	sauce := env.manufactured(t, "Sauce", "0", edge(bun.ID, "0.1"))
	burger := env.manufactured(t, "Burger", "10", edge(bun.ID, "1"), edge(sauce.ID, "2"))

	if _, err := env.products.SetComponents(env.ctx, sauce.ID, []models.ComponentEdge{edge(burger.ID, "1")}); !errors.Is(err, ErrCyclicRecipe) {
		t.Fatalf("cycle err = %v, want ErrCyclicRecipe", err)
	}
	if _, err := env.products.SetComponents(env.ctx, sauce.ID, []models.ComponentEdge{edge(sauce.ID, "1")}); !errors.Is(err, ErrCyclicRecipe) {
		t.Fatalf("self edge err = %v, want ErrCyclicRecipe", err)
	}

	got, err := env.products.GetProduct(env.ctx, sauce.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if len(got.Components) != 1 || got.Components[0].ComponentID != bun.ID {
		t.Errorf("components changed by rejected update: %+v", got.Components)
	}
}

func TestFlattenRecipeSumsRepeatedLeaves(t *testing.T) {
	env := newTestEnv(t, models.StockPolicyAllowNegative)
	bun := env.leaf(t, "Bun", "0.5")
	sauce := env.manufactured(t, "Sauce", "0", edge(bun.ID, "0.1"))
	burger := env.manufactured(t, "Burger", "10", edge(bun.ID, "1"), edge(sauce.ID, "2"))
	assertDecimal(t, "burger cost", burger.Cost, "0.6")

	lines, err := env.products.FlattenRecipe(env.ctx, burger.ID)
	if err != nil {
		t.Fatalf("FlattenRecipe: %v", err)
	}
	if len(lines) != 1 || lines[0].LeafProductID != bun.ID {
		t.Fatalf("lines = %+v", lines)
	}
	assertDecimal(t, "bun per burger", lines[0].QuantityPerUnit, "1.2")
}

func TestUpdateProductCost(t *testing.T) {
	env := newTestEnv(t, models.StockPolicyAllowNegative)
	bun := env.leaf(t, "Bun", "0.5")
	burger := env.manufactured(t, "Burger", "10", edge(bun.ID, "2"))

	if _, err := env.products.UpdateProduct(env.ctx, burger.ID, UpdateProductRequest{Cost: ptrDec("9")}); !errors.Is(err, ErrValidation) {
		t.Errorf("authoring manufactured cost: %v", err)
	}
	if _, err := env.products.UpdateProduct(env.ctx, bun.ID, UpdateProductRequest{Cost: ptrDec("0.75")}); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	got, _ := env.products.GetProduct(env.ctx, burger.ID)
	assertDecimal(t, "burger cost", got.Cost, "1.5")
}

func TestLowStock(t *testing.T) {
	env := newTestEnv(t, models.StockPolicyAllowNegative)
	env.openDay(t)
	bun, err := env.products.CreateProduct(env.ctx, CreateProductRequest{Name: "Bun", Type: models.ProductTypeRawMaterial, MinStock: dec("5")})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	cups, err := env.products.CreateProduct(env.ctx, CreateProductRequest{Name: "Cups", Type: models.ProductTypeConsumable, MinStock: dec("5")})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	env.stock(t, bun.ID, "3")
	env.stock(t, cups.ID, "50")

	low, err := env.products.LowStock(env.ctx)
	if err != nil {
		t.Fatalf("LowStock: %v", err)
	}
	if len(low) != 1 || low[0].ProductID != bun.ID {
		t.Errorf("low stock = %+v", low)
	}
}
