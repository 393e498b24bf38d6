package handlers

import (
	"net/http"

	"pos_backoffice/internal/models"
	"pos_backoffice/internal/services"
	"pos_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ProductHandler serves the catalog and its recipes.
type ProductHandler struct {
	productService services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(ps services.ProductService) *ProductHandler {
	return &ProductHandler{productService: ps}
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if !bindJSON(c, "CreateProduct", &req) {
		return
	}
	product, err := h.productService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "CreateProduct", err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) GetProducts(c *gin.Context) {
	products, err := h.productService.ListProducts(c.Request.Context())
	if err != nil {
		respondServiceError(c, "GetProducts", err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProductByID(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetProductByID", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateProductRequest
	if !bindJSON(c, "UpdateProduct", &req) {
		return
	}
	product, err := h.productService.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, "UpdateProduct", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// SetComponents replaces the recipe of a manufactured product.
func (h *ProductHandler) SetComponents(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Components []models.ComponentEdge `json:"components"`
	}
	if !bindJSON(c, "SetComponents", &body) {
		return
	}
	product, err := h.productService.SetComponents(c.Request.Context(), id, body.Components)
	if err != nil {
		respondServiceError(c, "SetComponents", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetRecipe returns the leaf quantities needed for one unit of the product.
func (h *ProductHandler) GetRecipe(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	lines, err := h.productService.FlattenRecipe(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetRecipe", err)
		return
	}
	if lines == nil {
		lines = []models.RecipeLine{}
	}
	c.JSON(http.StatusOK, lines)
}

func (h *ProductHandler) GetLowStock(c *gin.Context) {
	levels, err := h.productService.LowStock(c.Request.Context())
	if err != nil {
		respondServiceError(c, "GetLowStock", err)
		return
	}
	c.JSON(http.StatusOK, levels)
}
