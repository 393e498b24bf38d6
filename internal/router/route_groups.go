package router

import (
	"pos_backoffice/internal/handlers"
	"pos_backoffice/internal/middleware"
	"pos_backoffice/internal/models"

	"github.com/gin-gonic/gin"
)

var (
	adminOnly = middleware.RoleAuthMiddleware(models.RoleAdmin)
	staff     = middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleCashier)
)

// SetupAuthRoutes sets up the authenticated account routes. Login is public
// and registered by Setup.
func SetupAuthRoutes(authenticatedGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := authenticatedGroup.Group("/auth")
	{
		authRoutes.GET("/me", authHandler.GetCurrentUser)
		authRoutes.POST("/register", adminOnly, authHandler.RegisterUser)
	}
}

// SetupDayRoutes sets up the accounting day routes.
func SetupDayRoutes(authenticatedGroup *gin.RouterGroup, dayHandler *handlers.DayHandler) {
	dayRoutes := authenticatedGroup.Group("/days")
	dayRoutes.Use(adminOnly)
	{
		dayRoutes.POST("/open", dayHandler.OpenDay)
		dayRoutes.POST("/close", dayHandler.CloseDay)
		dayRoutes.GET("/current", dayHandler.GetCurrentDay)
		dayRoutes.GET("/:id", dayHandler.GetDayByID)
	}
}

// SetupShiftRoutes sets up the shift and expense routes.
func SetupShiftRoutes(authenticatedGroup *gin.RouterGroup, shiftHandler *handlers.ShiftHandler) {
	shiftRoutes := authenticatedGroup.Group("/shifts")
	shiftRoutes.Use(staff)
	{
		shiftRoutes.POST("/start", shiftHandler.StartShift)
		shiftRoutes.POST("/end", shiftHandler.EndShift)
		shiftRoutes.GET("/current", shiftHandler.GetCurrentShift)
		shiftRoutes.GET("", shiftHandler.GetShifts)
		shiftRoutes.GET("/:id", shiftHandler.GetShiftByID)
	}

	expenseRoutes := authenticatedGroup.Group("/expenses")
	expenseRoutes.Use(staff)
	{
		expenseRoutes.POST("", shiftHandler.AddExpense)
		expenseRoutes.GET("/types", shiftHandler.GetExpenseTypes)
		expenseRoutes.POST("/types", adminOnly, shiftHandler.CreateExpenseType)
	}
}

// SetupOrderRoutes sets up the order routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	orderRoutes.Use(staff)
	{
		orderRoutes.POST("", orderHandler.CreateOrder)
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.GET("/:id/receipt", orderHandler.GetReceipt)
		orderRoutes.POST("/:id/items", orderHandler.AddItem)
		orderRoutes.PATCH("/:id/items/:itemId", orderHandler.UpdateItemQuantity)
		orderRoutes.DELETE("/:id/items/:itemId", orderHandler.RemoveItem)
		orderRoutes.PUT("/:id/discount", orderHandler.ApplyDiscount)
		orderRoutes.POST("/:id/complete", orderHandler.CompleteOrder)
		orderRoutes.POST("/:id/cancel", orderHandler.CancelOrder)
		orderRoutes.POST("/:id/out-for-delivery", orderHandler.MarkOutForDelivery)
		orderRoutes.POST("/:id/cancel-completed", adminOnly, orderHandler.CancelCompletedOrder)
	}
}

// SetupExternalOrderRoutes sets up the web ordering channel intake.
func SetupExternalOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	authenticatedGroup.POST("/external/orders", staff, orderHandler.PlaceExternalOrder)
}

// SetupProductRoutes sets up the catalog routes. Reads are open to staff,
// writes are admin only.
func SetupProductRoutes(authenticatedGroup *gin.RouterGroup, productHandler *handlers.ProductHandler) {
	productRoutes := authenticatedGroup.Group("/products")
	productRoutes.Use(staff)
	{
		productRoutes.GET("", productHandler.GetProducts)
		productRoutes.GET("/low-stock", productHandler.GetLowStock)
		productRoutes.GET("/:id", productHandler.GetProductByID)
		productRoutes.GET("/:id/recipe", productHandler.GetRecipe)
		productRoutes.POST("", adminOnly, productHandler.CreateProduct)
		productRoutes.PUT("/:id", adminOnly, productHandler.UpdateProduct)
		productRoutes.PUT("/:id/components", adminOnly, productHandler.SetComponents)
	}
}

// SetupInventoryRoutes sets up stock documents, levels and movements.
func SetupInventoryRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	inventoryRoutes := authenticatedGroup.Group("/inventory")
	inventoryRoutes.Use(staff)
	{
		inventoryRoutes.GET("/stock", inventoryHandler.GetStock)
		inventoryRoutes.GET("/movements", inventoryHandler.GetInventoryMovements)
		inventoryRoutes.POST("/adjustments", adminOnly, inventoryHandler.AdjustStock)
	}

	documentRoutes := authenticatedGroup.Group("/documents")
	documentRoutes.Use(adminOnly)
	{
		documentRoutes.POST("", inventoryHandler.CreateDocument)
		documentRoutes.GET("", inventoryHandler.GetDocuments)
		documentRoutes.GET("/:id", inventoryHandler.GetDocumentByID)
		documentRoutes.POST("/:id/items", inventoryHandler.AddDocumentItem)
		documentRoutes.POST("/:id/close", inventoryHandler.CloseDocument)
	}
}

// SetupCustomerRoutes sets up the customer routes.
func SetupCustomerRoutes(authenticatedGroup *gin.RouterGroup, customerHandler *handlers.CustomerHandler) {
	customerRoutes := authenticatedGroup.Group("/customers")
	customerRoutes.Use(staff)
	{
		customerRoutes.POST("", customerHandler.CreateCustomer)
		customerRoutes.GET("", customerHandler.GetCustomers)
		customerRoutes.GET("/:id", customerHandler.GetCustomerByID)
		customerRoutes.PUT("/:id", customerHandler.UpdateCustomer)
	}
}

// SetupTableRoutes sets up the dining table routes.
func SetupTableRoutes(authenticatedGroup *gin.RouterGroup, tableHandler *handlers.TableHandler) {
	tableRoutes := authenticatedGroup.Group("/tables")
	tableRoutes.Use(staff)
	{
		tableRoutes.GET("", tableHandler.GetTables)
		tableRoutes.GET("/:id", tableHandler.GetTableByID)
		tableRoutes.POST("", adminOnly, tableHandler.CreateTable)
	}
}

// SetupSettingsRoutes sets up the application settings routes.
func SetupSettingsRoutes(authenticatedGroup *gin.RouterGroup, settingHandler *handlers.SettingHandler) {
	settingsRoutes := authenticatedGroup.Group("/settings")
	settingsRoutes.Use(adminOnly)
	{
		settingsRoutes.GET("", settingHandler.GetApplicationSettings)
		settingsRoutes.POST("", settingHandler.CreateOrUpdateApplicationSetting)
		settingsRoutes.GET("/:key", settingHandler.GetApplicationSettingByKey)
		settingsRoutes.DELETE("/:key", settingHandler.DeleteApplicationSettingByKey)
	}
}

// SetupReportRoutes sets up the report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(staff)
	{
		reportRoutes.GET("/shifts", reportHandler.GetShiftStats)
		reportRoutes.GET("/days/:id", adminOnly, reportHandler.GetDayReport)
	}
}
