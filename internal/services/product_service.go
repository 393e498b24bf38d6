package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pos_backoffice/internal/models"
	"pos_backoffice/internal/recipe"
	"pos_backoffice/internal/repositories"

	"github.com/shopspring/decimal"
)

// CreateProductRequest is used for creating a catalog product.
type CreateProductRequest struct {
	Name       string                 `json:"name" binding:"required"`
	Type       models.ProductType     `json:"type" binding:"required"`
	Unit       string                 `json:"unit"`
	Price      decimal.Decimal        `json:"price"`
	Cost       decimal.Decimal        `json:"cost"`
	MinStock   decimal.Decimal        `json:"min_stock"`
	Components []models.ComponentEdge `json:"components"`
}

// UpdateProductRequest changes descriptive fields. Cost is accepted only for
// leaf products; manufactured costs are always derived.
type UpdateProductRequest struct {
	Name     *string          `json:"name"`
	Unit     *string          `json:"unit"`
	Price    *decimal.Decimal `json:"price"`
	Cost     *decimal.Decimal `json:"cost"`
	MinStock *decimal.Decimal `json:"min_stock"`
}

// ProductService manages the catalog and recipe graph.
type ProductService interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, productID int64, req UpdateProductRequest) (*models.Product, error)
	SetComponents(ctx context.Context, productID int64, edges []models.ComponentEdge) (*models.Product, error)
	GetProduct(ctx context.Context, productID int64) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	FlattenRecipe(ctx context.Context, productID int64) ([]models.RecipeLine, error)
	LowStock(ctx context.Context) ([]models.StockLevel, error)
}

type productService struct {
	store repositories.Store
}

// NewProductService creates a new instance of ProductService.
func NewProductService(store repositories.Store) ProductService {
	return &productService{store: store}
}

func validateEdges(productID int64, edges []models.ComponentEdge) error {
	seen := make(map[int64]bool, len(edges))
	for _, e := range edges {
		if e.ComponentID <= 0 {
			return fmt.Errorf("%w: component_id is required", ErrValidation)
		}
		if e.ComponentID == productID {
			return fmt.Errorf("%w: product %d cannot contain itself", ErrCyclicRecipe, productID)
		}
		if !e.QuantityPerUnit.IsPositive() {
			return fmt.Errorf("%w: quantity of component %d must be positive", ErrValidation, e.ComponentID)
		}
		if seen[e.ComponentID] {
			return fmt.Errorf("%w: component %d listed twice", ErrValidation, e.ComponentID)
		}
		seen[e.ComponentID] = true
	}
	return nil
}

// graphError maps recipe graph failures onto service errors.
func graphError(err error) error {
	if errors.Is(err, recipe.ErrUnknownProduct) {
		return fmt.Errorf("%w: %v", ErrProductNotFound, err)
	}
	return err
}

func (s *productService) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown product type %q", ErrValidation, req.Type)
	}
	if req.Price.IsNegative() || req.Cost.IsNegative() || req.MinStock.IsNegative() {
		return nil, fmt.Errorf("%w: price, cost and min_stock cannot be negative", ErrValidation)
	}
	if req.Type.IsLeaf() && len(req.Components) > 0 {
		return nil, fmt.Errorf("%w: only manufactured products have components", ErrValidation)
	}
	if req.Unit == "" {
		req.Unit = "pcs"
	}

	product := &models.Product{
		Name:     req.Name,
		Type:     req.Type,
		Unit:     req.Unit,
		Price:    req.Price,
		Cost:     req.Cost,
		MinStock: req.MinStock,
	}
	if product.IsManufactured() {
		product.Cost = decimal.Zero
	}

	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		product.ID = 0
		product.Components = nil
		if err := r.Products.Create(ctx, product); err != nil {
			return fmt.Errorf("creating product: %w", err)
		}
		if product.Type.IsLeaf() {
			if err := r.Inventory.Create(ctx, product.ID); err != nil {
				return fmt.Errorf("creating inventory item: %w", err)
			}
			return nil
		}
		if err := validateEdges(product.ID, req.Components); err != nil {
			return err
		}
		if err := r.Products.SetComponents(ctx, product.ID, req.Components); err != nil {
			return fmt.Errorf("storing components: %w", err)
		}
		product.Components = req.Components
		return s.rollUp(ctx, r, product)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// rollUp validates the graph around product and stores the derived costs of
// product and everything that contains it.
func (s *productService) rollUp(ctx context.Context, r *repositories.Repos, product *models.Product) error {
	graph, err := loadGraph(ctx, r)
	if err != nil {
		return err
	}
	if err := graph.Validate(); err != nil {
		return graphError(err)
	}
	if err := persistRecalculation(ctx, r, graph, product.ID); err != nil {
		return graphError(err)
	}
	cost, err := graph.Cost(product.ID)
	if err != nil {
		return graphError(err)
	}
	product.Cost = cost
	return nil
}

func (s *productService) UpdateProduct(ctx context.Context, productID int64, req UpdateProductRequest) (*models.Product, error) {
	var product *models.Product
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		product, err = r.Products.GetByID(ctx, productID)
		if err != nil {
			return notFound(err, ErrProductNotFound, "product %d", productID)
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return fmt.Errorf("%w: name cannot be empty", ErrValidation)
			}
			product.Name = name
		}
		if req.Unit != nil {
			product.Unit = *req.Unit
		}
		if req.Price != nil {
			if req.Price.IsNegative() {
				return fmt.Errorf("%w: price cannot be negative", ErrValidation)
			}
			product.Price = *req.Price
		}
		if req.MinStock != nil {
			if req.MinStock.IsNegative() {
				return fmt.Errorf("%w: min_stock cannot be negative", ErrValidation)
			}
			product.MinStock = *req.MinStock
		}
		if err := r.Products.Update(ctx, product); err != nil {
			return fmt.Errorf("updating product %d: %w", productID, err)
		}

		if req.Cost == nil {
			return nil
		}
		if product.IsManufactured() {
			return fmt.Errorf("%w: cost of a manufactured product is derived from its components", ErrValidation)
		}
		if req.Cost.IsNegative() {
			return fmt.Errorf("%w: cost cannot be negative", ErrValidation)
		}
		graph, err := loadGraph(ctx, r)
		if err != nil {
			return err
		}
		if err := applyCostChange(ctx, r, graph, product.ID, *req.Cost); err != nil {
			return graphError(err)
		}
		product.Cost = *req.Cost
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) SetComponents(ctx context.Context, productID int64, edges []models.ComponentEdge) (*models.Product, error) {
	if err := validateEdges(productID, edges); err != nil {
		return nil, err
	}
	var product *models.Product
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		product, err = r.Products.GetByID(ctx, productID)
		if err != nil {
			return notFound(err, ErrProductNotFound, "product %d", productID)
		}
		if !product.IsManufactured() {
			return fmt.Errorf("%w: product %d is not manufactured", ErrValidation, productID)
		}
		if err := r.Products.SetComponents(ctx, productID, edges); err != nil {
			return fmt.Errorf("storing components: %w", err)
		}
		product.Components = edges
		return s.rollUp(ctx, r, product)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	var product *models.Product
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		product, err = r.Products.GetByID(ctx, productID)
		if err != nil {
			return notFound(err, ErrProductNotFound, "product %d", productID)
		}
		return nil
	})
	return product, err
}

func (s *productService) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		products, err = r.Products.List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *productService) FlattenRecipe(ctx context.Context, productID int64) ([]models.RecipeLine, error) {
	var lines []models.RecipeLine
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		graph, err := loadGraph(ctx, r)
		if err != nil {
			return err
		}
		lines, err = graph.Flatten(productID)
		return graphError(err)
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *productService) LowStock(ctx context.Context) ([]models.StockLevel, error) {
	var low []models.StockLevel
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		levels, err := r.Inventory.List(ctx)
		if err != nil {
			return err
		}
		low = []models.StockLevel{}
		for _, l := range levels {
			if l.Quantity.LessThanOrEqual(l.MinStock) {
				low = append(low, l)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock: %w", err)
	}
	return low, nil
}
