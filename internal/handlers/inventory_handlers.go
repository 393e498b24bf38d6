package handlers

import (
	"net/http"

	"pos_backoffice/internal/middleware"
	"pos_backoffice/internal/models"
	"pos_backoffice/internal/services"
	"pos_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InventoryHandler serves stock documents, stock levels and the movement log.
type InventoryHandler struct {
	inventoryService services.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(is services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: is}
}

// CreateDocument opens a purchase, return, waste or stocktaking document.
func (h *InventoryHandler) CreateDocument(c *gin.Context) {
	var req services.CreateDocumentRequest
	if !bindJSON(c, "CreateDocument", &req) {
		return
	}
	req.CreatedBy = middleware.CurrentUserID(c)

	doc, err := h.inventoryService.CreateDocument(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "CreateDocument", err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *InventoryHandler) AddDocumentItem(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var req services.DocumentItemRequest
	if !bindJSON(c, "AddDocumentItem", &req) {
		return
	}
	doc, err := h.inventoryService.AddDocumentItem(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, "AddDocumentItem", err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// CloseDocument applies the document lines to inventory.
func (h *InventoryHandler) CloseDocument(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	doc, err := h.inventoryService.CloseDocument(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		respondServiceError(c, "CloseDocument", err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *InventoryHandler) GetDocumentByID(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	doc, err := h.inventoryService.GetDocument(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetDocumentByID", err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// GetDocuments lists documents, optionally filtered by ?kind= and ?closed=.
func (h *InventoryHandler) GetDocuments(c *gin.Context) {
	var query struct {
		Kind   *models.DocumentKind `form:"kind"`
		Closed *bool                `form:"closed"`
	}
	if !bindQuery(c, "GetDocuments", &query) {
		return
	}
	if query.Kind != nil && !query.Kind.IsValid() {
		utils.RespondValidationFailed(c, "unknown document kind "+string(*query.Kind))
		return
	}

	docs, err := h.inventoryService.ListDocuments(c.Request.Context(), query.Kind, query.Closed)
	if err != nil {
		respondServiceError(c, "GetDocuments", err)
		return
	}
	if docs == nil {
		docs = []models.StockDocument{}
	}
	c.JSON(http.StatusOK, docs)
}

// AdjustStock records a manual correction of one leaf product.
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req services.AdjustStockRequest
	if !bindJSON(c, "AdjustStock", &req) {
		return
	}
	req.UserID = middleware.CurrentUserID(c)

	item, err := h.inventoryService.AdjustStock(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "AdjustStock", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) GetStock(c *gin.Context) {
	levels, err := h.inventoryService.ListStock(c.Request.Context())
	if err != nil {
		respondServiceError(c, "GetStock", err)
		return
	}
	if levels == nil {
		levels = []models.StockLevel{}
	}
	c.JSON(http.StatusOK, levels)
}

// GetInventoryMovements handles fetching the movement log with filters.
func (h *InventoryHandler) GetInventoryMovements(c *gin.Context) {
	var filters models.MovementFilters
	if !bindQuery(c, "GetInventoryMovements", &filters) {
		return
	}
	movements, total, err := h.inventoryService.ListMovements(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, "GetInventoryMovements", err)
		return
	}
	if movements == nil {
		movements = []models.InventoryMovement{}
	}
	respondPage(c, movements, total, filters.Page, filters.PageSize)
}
