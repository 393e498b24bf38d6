package services

import (
	"context"
	"fmt"
	"time"

	"pos_backoffice/internal/models"
	"pos_backoffice/internal/recipe"
	"pos_backoffice/internal/repositories"
	"pos_backoffice/pkg/utils"

	"github.com/shopspring/decimal"
)

// CreateDocumentRequest opens a purchase invoice, return invoice, waste
// record or stocktaking.
type CreateDocumentRequest struct {
	Kind      models.DocumentKind `json:"kind" binding:"required"`
	Supplier  string              `json:"supplier"`
	Notes     string              `json:"notes"`
	CreatedBy *int64              `json:"-"`
}

// DocumentItemRequest is one document line. For stocktakings Quantity is the
// counted quantity. UnitCost is used by purchase and return invoices; a zero
// unit cost on a return falls back to the product cost.
type DocumentItemRequest struct {
	ProductID int64           `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// AdjustStockRequest is a manual correction of one leaf product.
type AdjustStockRequest struct {
	ProductID int64           `json:"product_id" binding:"required"`
	Delta     decimal.Decimal `json:"delta"`
	Reason    string          `json:"reason" binding:"required"`
	UserID    *int64          `json:"-"`
}

// InventoryService manages stock documents and manual adjustments.
type InventoryService interface {
	CreateDocument(ctx context.Context, req CreateDocumentRequest) (*models.StockDocument, error)
	AddDocumentItem(ctx context.Context, docID int64, req DocumentItemRequest) (*models.StockDocument, error)
	CloseDocument(ctx context.Context, docID int64, userID *int64) (*models.StockDocument, error)
	GetDocument(ctx context.Context, docID int64) (*models.StockDocument, error)
	ListDocuments(ctx context.Context, kind *models.DocumentKind, closed *bool) ([]models.StockDocument, error)
	AdjustStock(ctx context.Context, req AdjustStockRequest) (*models.InventoryItem, error)
	ListStock(ctx context.Context) ([]models.StockLevel, error)
	ListMovements(ctx context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error)
}

type inventoryService struct {
	store  repositories.Store
	ledger stockLedger
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(store repositories.Store, stockPolicy models.StockPolicy) InventoryService {
	return &inventoryService{store: store, ledger: stockLedger{policy: stockPolicy}}
}

func (s *inventoryService) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*models.StockDocument, error) {
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown document kind %q", ErrValidation, req.Kind)
	}
	doc := &models.StockDocument{
		Kind:      req.Kind,
		Supplier:  utils.NewNullString(req.Supplier),
		Notes:     utils.NewNullString(req.Notes),
		Total:     decimal.Zero,
		CreatedBy: req.CreatedBy,
	}
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		if err := lockPeriodShared(ctx, r); err != nil {
			return err
		}
		if _, err := EnsureDayOpen(ctx, r); err != nil {
			return err
		}
		if err := r.Documents.Create(ctx, doc); err != nil {
			return fmt.Errorf("creating %s: %w", req.Kind, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	doc.Items = []models.DocumentItem{}
	return doc, nil
}

func lockOpenDocument(ctx context.Context, r *repositories.Repos, docID int64) (*models.StockDocument, error) {
	doc, err := r.Documents.GetForUpdate(ctx, docID)
	if err != nil {
		return nil, notFound(err, ErrDocumentNotFound, "document %d", docID)
	}
	if doc.Closed {
		return nil, fmt.Errorf("%w: %s %d", ErrInvoiceAlreadyClosed, doc.Kind, doc.ID)
	}
	return doc, nil
}

func leafProduct(ctx context.Context, r *repositories.Repos, productID int64) (*models.Product, error) {
	product, err := r.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound, "product %d", productID)
	}
	if !product.Type.IsLeaf() {
		return nil, fmt.Errorf("%w: %s is manufactured and holds no stock", ErrValidation, product.Name)
	}
	return product, nil
}

func documentTotal(items []models.DocumentItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Total)
	}
	return total
}

func (s *inventoryService) AddDocumentItem(ctx context.Context, docID int64, req DocumentItemRequest) (*models.StockDocument, error) {
	if req.Quantity.IsNegative() {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	}
	if req.UnitCost.IsNegative() {
		return nil, fmt.Errorf("%w: unit cost cannot be negative", ErrValidation)
	}

	var doc *models.StockDocument
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		doc, err = lockOpenDocument(ctx, r, docID)
		if err != nil {
			return err
		}
		if doc.Kind != models.DocumentStocktaking && !req.Quantity.IsPositive() {
			return fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
		product, err := leafProduct(ctx, r, req.ProductID)
		if err != nil {
			return err
		}

		unitCost := req.UnitCost
		switch doc.Kind {
		case models.DocumentPurchaseInvoice:
		case models.DocumentReturnInvoice:
			if unitCost.IsZero() {
				unitCost = product.Cost
			}
		default:
			unitCost = product.Cost
		}
		item := &models.DocumentItem{
			DocumentID: doc.ID,
			ProductID:  product.ID,
			Quantity:   req.Quantity,
			UnitCost:   unitCost,
			Total:      req.Quantity.Mul(unitCost),
		}
		if doc.Kind == models.DocumentStocktaking {
			// Valued by the delta once the count is applied.
			item.Total = decimal.Zero
		}
		if err := r.Documents.CreateItem(ctx, item); err != nil {
			return fmt.Errorf("adding item to %s %d: %w", doc.Kind, doc.ID, err)
		}

		if doc.Items, err = r.Documents.ListItems(ctx, doc.ID); err != nil {
			return err
		}
		doc.Total = documentTotal(doc.Items)
		return r.Documents.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *inventoryService) CloseDocument(ctx context.Context, docID int64, userID *int64) (*models.StockDocument, error) {
	var doc *models.StockDocument
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		if err := lockPeriodShared(ctx, r); err != nil {
			return err
		}
		if _, err := EnsureDayOpen(ctx, r); err != nil {
			return err
		}
		var err error
		doc, err = lockOpenDocument(ctx, r, docID)
		if err != nil {
			return err
		}
		items, err := r.Documents.ListItems(ctx, doc.ID)
		if err != nil {
			return err
		}
		graph, err := loadGraph(ctx, r)
		if err != nil {
			return err
		}

		for i := range items {
			if err := s.applyItem(ctx, r, graph, doc, &items[i], userID); err != nil {
				return err
			}
		}

		now := time.Now()
		doc.Items = items
		doc.Total = documentTotal(items)
		doc.Closed = true
		doc.ClosedAt = &now
		if err := r.Documents.Update(ctx, doc); err != nil {
			return fmt.Errorf("closing %s %d: %w", doc.Kind, doc.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Stock document closed", map[string]interface{}{
		"document_id": doc.ID, "kind": doc.Kind, "items": len(doc.Items), "total": doc.Total.String(),
	})
	return doc, nil
}

// applyItem moves stock for one line of a closing document.
func (s *inventoryService) applyItem(ctx context.Context, r *repositories.Repos, graph *recipe.Graph, doc *models.StockDocument, item *models.DocumentItem, userID *int64) error {
	m := movement{referenceID: &doc.ID, userID: userID, reason: fmt.Sprintf("%s #%d", doc.Kind, doc.ID)}
	product, ok := graph.Product(item.ProductID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrProductNotFound, item.ProductID)
	}

	switch doc.Kind {
	case models.DocumentPurchaseInvoice:
		m.kind = models.MovementPurchase
		if err := s.ledger.increment(ctx, r, item.ProductID, item.Quantity, m); err != nil {
			return err
		}
		// Last purchase cost wins and rolls up into every recipe using it.
		if err := applyCostChange(ctx, r, graph, item.ProductID, item.UnitCost); err != nil {
			return graphError(err)
		}
		return nil

	case models.DocumentReturnInvoice:
		m.kind = models.MovementReturn
		return s.ledger.decrement(ctx, r, item.ProductID, item.Quantity, m)

	case models.DocumentWaste:
		m.kind = models.MovementWaste
		item.UnitCost = product.Cost
		item.Total = item.Quantity.Mul(product.Cost)
		if err := s.ledger.decrement(ctx, r, item.ProductID, item.Quantity, m); err != nil {
			return err
		}
		return r.Documents.UpdateItem(ctx, item)

	case models.DocumentStocktaking:
		m.kind = models.MovementStocktaking
		system, delta, err := s.ledger.setCounted(ctx, r, item.ProductID, item.Quantity, m)
		if err != nil {
			return err
		}
		item.SystemQuantity = &system
		item.Delta = &delta
		item.UnitCost = product.Cost
		item.Total = delta.Mul(product.Cost)
		return r.Documents.UpdateItem(ctx, item)
	}
	return fmt.Errorf("%w: unknown document kind %q", ErrValidation, doc.Kind)
}

func (s *inventoryService) GetDocument(ctx context.Context, docID int64) (*models.StockDocument, error) {
	var doc *models.StockDocument
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		doc, err = r.Documents.GetByID(ctx, docID)
		if err != nil {
			return notFound(err, ErrDocumentNotFound, "document %d", docID)
		}
		doc.Items, err = r.Documents.ListItems(ctx, docID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *inventoryService) ListDocuments(ctx context.Context, kind *models.DocumentKind, closed *bool) ([]models.StockDocument, error) {
	var docs []models.StockDocument
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		docs, err = r.Documents.List(ctx, kind, closed)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, req AdjustStockRequest) (*models.InventoryItem, error) {
	if req.Delta.IsZero() {
		return nil, fmt.Errorf("%w: delta cannot be zero", ErrValidation)
	}
	if req.Reason == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrValidation)
	}

	var item *models.InventoryItem
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		if err := lockPeriodShared(ctx, r); err != nil {
			return err
		}
		if _, err := EnsureDayOpen(ctx, r); err != nil {
			return err
		}
		if _, err := leafProduct(ctx, r, req.ProductID); err != nil {
			return err
		}
		m := movement{kind: models.MovementAdjustment, userID: req.UserID, reason: req.Reason}
		if req.Delta.IsNegative() {
			if err := s.ledger.decrement(ctx, r, req.ProductID, req.Delta.Neg(), m); err != nil {
				return err
			}
		} else if err := s.ledger.increment(ctx, r, req.ProductID, req.Delta, m); err != nil {
			return err
		}
		var err error
		item, err = r.Inventory.GetForUpdate(ctx, req.ProductID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *inventoryService) ListStock(ctx context.Context) ([]models.StockLevel, error) {
	var levels []models.StockLevel
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		levels, err = r.Inventory.List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}
	return levels, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	var movements []models.InventoryMovement
	var total int
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		movements, total, err = r.Movements.List(ctx, filters)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inventory movements: %w", err)
	}
	return movements, total, nil
}
